// Package unisimd emits machine code for a uniform catalogue of SIMD operations on x86-64
// (AVX, AVX2, FMA, AVX-512 and the x87 unit) and Power (VMX and VSX, Power8 to Power10).
//
// Operations a target lacks are emulated by compatibility sequences chosen per operation
// group by the api.Compat of the EncoderConfig. Callers own register allocation and
// place the image of ConstantPool at the constants region of the Scratch.
package unisimd

import (
	"github.com/tetratelabs/unisimd/api"
	"github.com/tetratelabs/unisimd/internal/simd"
)

// Encoding is the machine code of one logical operation.
type Encoding struct {
	Op    api.Op
	Shape api.Shape
	// Offset is the position of Bytes in the output of the encoder.
	Offset int
	// Bytes is a copy of the code written for the operation.
	Bytes []byte
	// Boundaries are the end offsets in Bytes of every instruction, in program order.
	Boundaries []int
}

// Instructions splits Bytes into its instructions.
func (e Encoding) Instructions() [][]byte {
	ret := make([][]byte, 0, len(e.Boundaries))
	start := 0
	for _, end := range e.Boundaries {
		ret = append(ret, e.Bytes[start:end])
		start = end
	}
	return ret
}

// Encoder appends the code of operations to its output. It is not safe for concurrent
// use: independent encoders share nothing but their configuration.
type Encoder struct {
	family api.Family
	e      *simd.Encoder
}

// NewEncoder returns an Encoder for the configuration, or an error wrapping
// api.ErrInconsistentConfiguration.
func NewEncoder(config EncoderConfig) (*Encoder, error) {
	c := config.(*encoderConfig)
	e, err := simd.NewEncoder(c.simdConfig())
	if err != nil {
		return nil, err
	}
	return &Encoder{family: c.family, e: e}, nil
}

// Family returns the instruction-set family of the output.
func (e *Encoder) Family() api.Family {
	return e.family
}

// Supports reports whether op has a lowering for the shape under the configuration.
func (e *Encoder) Supports(op api.Op, shape api.Shape) bool {
	return e.e.Supports(op, shape)
}

// Emit appends the code of op on the shape. The operands follow the signature of op:
// destination first, then the sources.
//
// On error, nothing is appended and the error is an *api.EncodeError wrapping
// api.ErrInvalidOperand or api.ErrUnsupportedOperation.
func (e *Encoder) Emit(op api.Op, shape api.Shape, operands ...api.Operand) (Encoding, error) {
	offset, err := e.e.Emit(op, shape, operands...)
	if err != nil {
		return Encoding{}, err
	}
	return e.encoding(op, shape, offset), nil
}

// SaveAll appends the stores of the caller registers then the hidden registers of the
// layout, one slot each from m.
func (e *Encoder) SaveAll(m api.Memory) (Encoding, error) {
	offset, err := e.e.SaveAll(m)
	if err != nil {
		return Encoding{}, err
	}
	return e.encoding(api.OpNone, api.Shape{}, offset), nil
}

// LoadAll appends the loads restoring what SaveAll stored at m.
func (e *Encoder) LoadAll(m api.Memory) (Encoding, error) {
	offset, err := e.e.LoadAll(m)
	if err != nil {
		return Encoding{}, err
	}
	return e.encoding(api.OpNone, api.Shape{}, offset), nil
}

func (e *Encoder) encoding(op api.Op, shape api.Shape, offset int) Encoding {
	code := e.e.Bytes()[offset:]
	ends := e.e.Boundaries(offset)
	for i := range ends {
		ends[i] -= offset
	}
	return Encoding{
		Op:         op,
		Shape:      shape,
		Offset:     offset,
		Bytes:      append([]byte(nil), code...),
		Boundaries: ends,
	}
}

// Len returns the number of bytes appended so far.
func (e *Encoder) Len() int {
	return e.e.Len()
}

// Bytes returns a copy of the output.
func (e *Encoder) Bytes() []byte {
	return append([]byte(nil), e.e.Bytes()...)
}

// Reset discards the output.
func (e *Encoder) Reset() {
	e.e.Reset()
}

// ConstantPool returns the image to place at the constants scratch region, in the byte
// order of the encoder.
func (e *Encoder) ConstantPool() []byte {
	return simd.ConstantPool(e.e.Config().Order)
}
