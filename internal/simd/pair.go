package simd

import (
	"fmt"

	"github.com/tetratelabs/unisimd/api"
)

// Pair is a 256-bit value held as two 128-bit halves. On Power the halves are two
// vector registers, on x86-64 without AVX2 they are the two lanes of a ymm register
// processed one at a time.
type Pair struct {
	Lo, Hi uint8
}

// Halves returns the halves, low half first.
func (p Pair) Halves() [2]uint8 {
	return [2]uint8{p.Lo, p.Hi}
}

// pairOf returns the pair holding the logical 256-bit register n on Power.
func pairOf(n uint8) Pair {
	return Pair{Lo: n, Hi: n + 16}
}

// selectScratchOrBase returns the register staging the address of m: TP, unless TP is the
// base or the index of m, in which case TM.
func selectScratchOrBase(l *api.Layout, m api.Memory) (uint8, error) {
	uses := func(r uint8) bool {
		switch m.Mode {
		case api.BaseOffset:
			return m.Base.Index == r
		case api.Indexed:
			return m.Base.Index == r || m.Index.Index == r
		}
		return false
	}
	switch {
	case !uses(l.TP):
		return l.TP, nil
	case !uses(l.TM):
		return l.TM, nil
	}
	return 0, fmt.Errorf("%w: %s uses both staging registers", api.ErrInvalidOperand, m)
}
