// Package hammer runs a test body from many goroutines released at the same time, to
// expose state shared by values documented as independent, such as two encoders built
// from one configuration.
package hammer

import (
	"runtime"
	"sync"
	"testing"
)

// Hammer invokes a test concurrently in P goroutines N times per goroutine.
//
// Here's an example:
//
//	P := 8               // max count of goroutines
//	N := 100             // work per goroutine
//	if testing.Short() { // Adjust down if `-test.short`
//		P = 4
//		N = 10
//	}
//
//	hammer.NewHammer(t, P, N).Run(func(p, n int) {
//		// Build an encoder and compare its output with the expected one.
//	}, nil)
//
//	if t.Failed() {
//		return // At least one test failed, so return now.
//	}
type Hammer interface {
	// Run invokes test in P goroutines, each looping N times. p is the index of the
	// goroutine and n the iteration.
	//
	// onRunning, if not nil, runs once every goroutine has started and before any of them
	// calls test.
	Run(test func(p, n int), onRunning func())
}

// NewHammer returns a Hammer of P goroutines running N iterations each. Keep P*N small
// enough for Run to complete in about a tenth of a second.
func NewHammer(t *testing.T, P, N int) Hammer {
	return &hammer{t: t, P: P, N: N}
}

type hammer struct {
	t *testing.T
	// P is the count of goroutines.
	P int
	// N is the work per goroutine.
	N int
}

// Run implements Hammer.Run
func (h *hammer) Run(test func(p, n int), onRunning func()) {
	// Fewer processors than goroutines forces them to switch cores.
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(h.P / 2))

	started := make(chan struct{})
	finished := make(chan struct{})
	var release sync.WaitGroup
	release.Add(1)

	for p := 0; p < h.P; p++ {
		p := p
		go func() {
			defer func() {
				// require failures panic inside goroutines: report them on the test.
				if recovered := recover(); recovered != nil {
					h.t.Error(recovered)
				}
				finished <- struct{}{}
			}()
			started <- struct{}{}

			release.Wait()
			for n := 0; n < h.N; n++ {
				test(p, n)
			}
		}()
	}

	for i := 0; i < h.P; i++ {
		<-started
	}
	if onRunning != nil {
		onRunning()
	}
	release.Done()

	for i := 0; i < h.P; i++ {
		<-finished
	}
}
