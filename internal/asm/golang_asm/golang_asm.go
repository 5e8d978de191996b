// Package golang_asm wraps the Go assembler as a reference encoder, so that instructions
// written by the assemblers of this module can be compared against the Go toolchain's.
package golang_asm

import (
	"fmt"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/objabi"
)

// ReferenceAssembler collects instructions and assembles them with golang-asm.
type ReferenceAssembler struct {
	b *goasm.Builder
}

// NewReferenceAssembler returns a ReferenceAssembler for the architecture arch, as named
// by GOARCH.
func NewReferenceAssembler(arch string) (*ReferenceAssembler, error) {
	// Jump alignment inserts NOPs which are irrelevant to the encodings compared.
	objabi.GOAMD64 = "disable"
	b, err := goasm.NewBuilder(arch, 1024)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new assembly builder: %w", err)
	}
	return &ReferenceAssembler{b: b}, nil
}

// Add appends the instruction as with the operands in Go assembler order: from, the
// additional sources, then to.
func (a *ReferenceAssembler) Add(as obj.As, from obj.Addr, rest []obj.Addr, to obj.Addr) {
	p := a.b.NewProg()
	p.As = as
	p.From = from
	p.RestArgs = rest
	p.To = to
	a.b.AddInstruction(p)
}

// Assemble returns the machine code of the added instructions.
func (a *ReferenceAssembler) Assemble() []byte {
	return a.b.Assemble()
}

// Reg returns the register operand r.
func Reg(r int16) obj.Addr {
	return obj.Addr{Type: obj.TYPE_REG, Reg: r}
}

// Mem returns the memory operand [base + disp].
func Mem(base int16, disp int64) obj.Addr {
	return obj.Addr{Type: obj.TYPE_MEM, Reg: base, Offset: disp}
}

// MemIndex returns the memory operand [base + index*scale + disp].
func MemIndex(base, index int16, scale int16, disp int64) obj.Addr {
	return obj.Addr{Type: obj.TYPE_MEM, Reg: base, Index: index, Scale: scale, Offset: disp}
}

// None is the absent operand.
var None = obj.Addr{Type: obj.TYPE_NONE}
