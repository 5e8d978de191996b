// Package simd lowers the operation catalogue to x86-64 and Power instructions, including
// the compatibility sequences emulating what a target lacks.
package simd

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tetratelabs/unisimd/api"
	"github.com/tetratelabs/unisimd/internal/asm"
)

// kinds is a set of api.OperandKind accepted at a position of a signature.
type kinds byte

const (
	kindReg kinds = 1 << iota
	kindMem
	kindImm
)

func kindBit(k api.OperandKind) kinds {
	switch k {
	case api.OperandKindRegister:
		return kindReg
	case api.OperandKindMemory:
		return kindMem
	case api.OperandKindImmediate:
		return kindImm
	}
	return 0
}

type param struct {
	role  api.Role
	kinds kinds
}

// signature lists the operands of an operation in order.
type signature []param

var (
	sigMove       = signature{{api.RoleDst, kindReg | kindMem}, {api.RoleSrc1, kindReg | kindMem}}
	sigMoveMasked = signature{{api.RoleDstSrc, kindReg | kindMem}, {api.RoleSrc1, kindReg}}
	sigUnary      = signature{{api.RoleDst, kindReg}, {api.RoleSrc1, kindReg | kindMem}}
	sigBinary     = signature{{api.RoleDst, kindReg}, {api.RoleSrc1, kindReg}, {api.RoleSrc2, kindReg | kindMem}}
	sigAccumulate = signature{{api.RoleDstSrc, kindReg}, {api.RoleSrc1, kindReg}, {api.RoleSrc2, kindReg | kindMem}}
	sigRefine     = signature{{api.RoleDstSrc, kindReg}, {api.RoleSrc1, kindReg | kindMem}}
	sigShiftImm   = signature{{api.RoleDst, kindReg}, {api.RoleSrc1, kindReg | kindMem}, {api.RoleCount, kindImm}}
	sigShiftVar   = signature{{api.RoleDst, kindReg}, {api.RoleSrc1, kindReg}, {api.RoleCount, kindReg | kindMem}}
)

// Shapes grouped by element kind.
var (
	floatShapes = []api.Shape{api.F32x4, api.F32x8, api.F64x2, api.F64x4}
	intShapes   = []api.Shape{api.I32x4, api.I32x8, api.I64x2, api.I64x4}
	allShapes   = []api.Shape{api.F32x4, api.F32x8, api.F64x2, api.F64x4, api.I32x4, api.I32x8, api.I64x2, api.I64x4}
)

// emitFunc writes the instructions of one operation. Operands have been checked against
// the signature of the entry.
type emitFunc func(s api.Shape, ops []api.Operand) error

type entryKey struct {
	op    api.Op
	shape api.Shape
}

type entry struct {
	sig  signature
	emit emitFunc
	// tier is set for entries lowered by a compatibility sequence.
	tier     api.Tier
	fallback bool
}

// catalogue maps every supported (operation, shape) of a target to its lowering.
type catalogue map[entryKey]entry

func (c catalogue) add(op api.Op, shapes []api.Shape, sig signature, emit emitFunc) {
	for _, s := range shapes {
		c[entryKey{op: op, shape: s}] = entry{sig: sig, emit: emit}
	}
}

func (c catalogue) addTier(op api.Op, shapes []api.Shape, sig signature, tier api.Tier, emit emitFunc) {
	for _, s := range shapes {
		c[entryKey{op: op, shape: s}] = entry{sig: sig, emit: emit, tier: tier, fallback: true}
	}
}

// backend is implemented per instruction-set family.
type backend interface {
	catalogue() catalogue
	saveAll(m api.Memory) error
	loadAll(m api.Memory) error
}

// Encoder emits the operations of the catalogue. It is not safe for concurrent use.
type Encoder struct {
	cfg     Config
	seg     *asm.CodeSegment
	buf     asm.Buffer
	logger  logrus.FieldLogger
	table   catalogue
	backend backend
}

// NewEncoder validates the configuration and builds the catalogue of the target.
func NewEncoder(cfg Config) (*Encoder, error) {
	if cfg.Order == nil {
		cfg.Order = binary.LittleEndian
	}
	if cfg.Logger == nil {
		cfg.Logger = newDiscardLogger()
	}
	cfg.Layout = cfg.Layout.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Encoder{cfg: cfg, seg: asm.NewCodeSegment(nil), logger: cfg.Logger}
	e.buf = e.seg.Next()
	switch cfg.Family {
	case api.FamilyAMD64:
		e.backend = newAMD64Backend(e)
	case api.FamilyPower:
		e.backend = newPPC64Backend(e)
	}
	e.table = e.backend.catalogue()

	e.logger.WithFields(logrus.Fields{
		"family":   cfg.Family,
		"features": cfg.Features,
		"entries":  len(e.table),
		"div":      cfg.Compat.Div,
		"sqrt":     cfg.Compat.Sqrt,
		"rcp":      cfg.Compat.Rcp,
		"rsqrt":    cfg.Compat.Rsqrt,
		"fma":      cfg.Compat.FMA,
		"fmr":      cfg.Compat.FMR,
	}).Debug("built instruction catalogue")
	return e, nil
}

// Config returns the configuration of the encoder.
func (e *Encoder) Config() Config {
	ret := e.cfg
	ret.Layout = ret.Layout.Clone()
	return ret
}

// Supports reports whether the operation has a lowering for the shape on this target.
func (e *Encoder) Supports(op api.Op, s api.Shape) bool {
	_, ok := e.table[entryKey{op: op, shape: s}]
	return ok
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// Bytes returns the code written so far. The slice is valid until the next write.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Boundaries returns the end offset of every instruction ending after offset from.
func (e *Encoder) Boundaries(from int) []int {
	return e.buf.Boundaries(from)
}

// Reset discards all the code written so far.
func (e *Encoder) Reset() {
	e.buf.Reset()
}

// Emit writes the instructions of op on the shape and returns the offset of the first of
// them. On error nothing is written.
func (e *Encoder) Emit(op api.Op, s api.Shape, operands ...api.Operand) (int, error) {
	start := e.buf.Len()
	err := e.emit(op, s, operands)
	if err != nil {
		e.buf.Truncate(start)
		return start, &api.EncodeError{Op: op, Shape: s, Operands: append([]api.Operand(nil), operands...), Err: err}
	}
	return start, nil
}

func (e *Encoder) emit(op api.Op, s api.Shape, operands []api.Operand) error {
	ent, ok := e.table[entryKey{op: op, shape: s}]
	if !ok {
		return fmt.Errorf("%w: %s on %s is not available on %s", api.ErrUnsupportedOperation, op, s, e.cfg.Family)
	}
	if err := e.check(s, ent.sig, operands); err != nil {
		return err
	}
	if ent.fallback {
		e.logger.WithFields(logrus.Fields{"op": op, "shape": s, "tier": ent.tier}).Debug("compatibility lowering")
	}
	return ent.emit(s, operands)
}

// SaveAll writes the stores of every vector register, caller registers first then the
// hidden ones, one slot each starting at m. On error nothing is written.
func (e *Encoder) SaveAll(m api.Memory) (int, error) {
	return e.registerFile(m, e.backend.saveAll)
}

// LoadAll writes the loads which are the exact inverse of SaveAll.
func (e *Encoder) LoadAll(m api.Memory) (int, error) {
	return e.registerFile(m, e.backend.loadAll)
}

func (e *Encoder) registerFile(m api.Memory, f func(api.Memory) error) (int, error) {
	start := e.buf.Len()
	err := m.Validate(int(e.cfg.gprs()))
	if err == nil {
		err = f(m)
	}
	if err != nil {
		e.buf.Truncate(start)
		return start, &api.EncodeError{Operands: []api.Operand{m}, Err: err}
	}
	return start, nil
}

// check validates the operands against the signature: kinds, register files and indexes,
// memory operands, and at most one memory operand.
func (e *Encoder) check(s api.Shape, sig signature, operands []api.Operand) error {
	if len(operands) != len(sig) {
		return fmt.Errorf("%w: %d operands, want %d", api.ErrInvalidOperand, len(operands), len(sig))
	}
	var mems int
	for i, o := range operands {
		if o == nil {
			return fmt.Errorf("%w: %s operand is nil", api.ErrInvalidOperand, sig[i].role)
		}
		k := api.KindOf(o)
		if kindBit(k)&sig[i].kinds == 0 {
			return fmt.Errorf("%w: %s operand cannot be %s", api.ErrInvalidOperand, sig[i].role, k)
		}
		switch v := o.(type) {
		case api.Register:
			if v.File != s.RegisterFile() {
				return fmt.Errorf("%w: %s operand %s is not a %s register", api.ErrInvalidOperand, sig[i].role, v, s.RegisterFile())
			}
			if err := v.Validate(int(e.cfg.Layout.Vectors)); err != nil {
				return err
			}
		case api.Memory:
			if err := v.Validate(int(e.cfg.gprs())); err != nil {
				return err
			}
			mems++
		}
	}
	if mems > 1 {
		return fmt.Errorf("%w: %d memory operands", api.ErrInvalidOperand, mems)
	}
	return nil
}
