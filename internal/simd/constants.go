package simd

import (
	"encoding/binary"
	"math"

	"github.com/tetratelabs/unisimd/api"
)

// Constant is an entry of the constant pool. Every entry fills a full 256-bit register.
type Constant byte

const (
	ConstOne Constant = iota
	ConstTwo
	ConstHalf
	ConstThreeHalves
	// ConstSign has only the sign bit of each lane set.
	ConstSign
	// ConstAbs has every bit but the sign bit of each lane set.
	ConstAbs
	// ConstOnes has every bit set.
	ConstOnes

	constantCount
)

// ConstantPoolSize is the size in bytes of the constant pool image.
const ConstantPoolSize = 2 * int64(constantCount) * RegionSize

// constantOffset returns the offset of c for the lanes of elem: 32-bit lanes first.
func constantOffset(c Constant, elem api.Elem) int64 {
	i := int64(c)
	if elem.Bits() == 64 {
		i += int64(constantCount)
	}
	return i * RegionSize
}

func constantBits32(c Constant) uint32 {
	switch c {
	case ConstOne:
		return math.Float32bits(1)
	case ConstTwo:
		return math.Float32bits(2)
	case ConstHalf:
		return math.Float32bits(0.5)
	case ConstThreeHalves:
		return math.Float32bits(1.5)
	case ConstSign:
		return 1 << 31
	case ConstAbs:
		return 1<<31 - 1
	default:
		return math.MaxUint32
	}
}

func constantBits64(c Constant) uint64 {
	switch c {
	case ConstOne:
		return math.Float64bits(1)
	case ConstTwo:
		return math.Float64bits(2)
	case ConstHalf:
		return math.Float64bits(0.5)
	case ConstThreeHalves:
		return math.Float64bits(1.5)
	case ConstSign:
		return 1 << 63
	case ConstAbs:
		return 1<<63 - 1
	default:
		return math.MaxUint64
	}
}

// ConstantPool returns the image callers place at the constants scratch region, with lanes
// in the given byte order.
func ConstantPool(order binary.ByteOrder) []byte {
	ret := make([]byte, ConstantPoolSize)
	for c := ConstOne; c < constantCount; c++ {
		b := ret[constantOffset(c, api.Float32):]
		for i := 0; i < RegionSize; i += 4 {
			order.PutUint32(b[i:], constantBits32(c))
		}
		b = ret[constantOffset(c, api.Float64):]
		for i := 0; i < RegionSize; i += 8 {
			order.PutUint64(b[i:], constantBits64(c))
		}
	}
	return ret
}
