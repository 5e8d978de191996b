package asm

import (
	"encoding/binary"
)

var zero [16]byte

// CodeSegment represents a growable segment where native CPU instructions are written.
//
// To construct code segments, the program must call Next to obtain a buffer
// view capable of writing data at the end of the segment. Next aligns the next write on
// 16 bytes.
//
// Besides the bytes, the segment records the end offset of every instruction, so that a
// logical operation lowered to several instructions can be split back into them.
//
// The zero value is a valid, empty code segment, equivalent to being
// constructed by calling NewCodeSegment(nil).
type CodeSegment struct {
	code []byte
	size int
	ends []int
}

// NewCodeSegment constructs a CodeSegment value from a byte slice which is used as the
// initial backing storage.
func NewCodeSegment(code []byte) *CodeSegment {
	return &CodeSegment{code: code[:cap(code)], size: 0}
}

// Len returns the number of bytes written to the segment.
func (seg *CodeSegment) Len() int {
	return seg.size
}

// Bytes returns the bytes written to the segment.
//
// The returned slice remains valid until more bytes are written to a buffer
// of the code segment.
func (seg *CodeSegment) Bytes() []byte {
	return seg.code[:seg.size:seg.size]
}

// Next returns a buffer pointed at the end of the code segment to support
// writing more code instructions to it.
//
// Buffers are passed by value, but they hold a reference to the code segment
// that they were created from.
func (seg *CodeSegment) Next() Buffer {
	// Align 16-bytes boundary.
	seg.write(zero[:(16-seg.size&15)&15])
	return Buffer{seg: seg, off: seg.size}
}

func (seg *CodeSegment) append(n int) []byte {
	i := seg.size
	j := seg.size + n
	if j > len(seg.code) {
		seg.grow(n)
	}
	seg.size = j
	return seg.code[i:j:j]
}

func (seg *CodeSegment) write(b []byte) {
	copy(seg.append(len(b)), b)
}

func (seg *CodeSegment) writeByte(b byte) {
	seg.size++
	if seg.size > len(seg.code) {
		seg.grow(0)
	}
	seg.code[seg.size-1] = b
}

func (seg *CodeSegment) grow(n int) {
	size := len(seg.code)
	want := seg.size + n
	if size >= want {
		return
	}
	if size == 0 {
		size = 4096
	}
	for size < want {
		size *= 2
	}
	b := make([]byte, size)
	copy(b, seg.code)
	seg.code = b
}

func (seg *CodeSegment) truncate(size int) {
	seg.size = size
	i := len(seg.ends)
	for i > 0 && seg.ends[i-1] > size {
		i--
	}
	seg.ends = seg.ends[:i]
}

// Buffer is a reference type representing a section beginning at the end of a
// code segment where new instructions can be written.
type Buffer struct {
	seg *CodeSegment
	off int
}

// Len returns the number of bytes written through this buffer.
func (buf Buffer) Len() int {
	return buf.seg.size - buf.off
}

// Bytes returns the bytes written through this buffer.
func (buf Buffer) Bytes() []byte {
	i := buf.off
	j := buf.seg.size
	return buf.seg.code[i:j:j]
}

// Reset discards everything written through this buffer.
func (buf Buffer) Reset() {
	buf.seg.truncate(buf.off)
}

// Truncate discards everything written after the first n bytes of this buffer, together
// with the instruction boundaries past that point.
func (buf Buffer) Truncate(n int) {
	buf.seg.truncate(buf.off + n)
}

// Append grows the buffer by n bytes and returns them for writing.
func (buf Buffer) Append(n int) []byte {
	return buf.seg.append(n)
}

func (buf Buffer) WriteByte(b byte) {
	buf.seg.writeByte(b)
}

// WriteUint32 writes u in little endian byte order.
func (buf Buffer) WriteUint32(u uint32) {
	binary.LittleEndian.PutUint32(buf.seg.append(4), u)
}

// WriteUint64 writes u in little endian byte order.
func (buf Buffer) WriteUint64(u uint64) {
	binary.LittleEndian.PutUint64(buf.seg.append(8), u)
}

// WriteWord writes the 32-bit instruction word w in the given byte order.
func (buf Buffer) WriteWord(w uint32, order binary.ByteOrder) {
	order.PutUint32(buf.seg.append(4), w)
}

func (buf Buffer) Write(b []byte) (int, error) {
	buf.seg.write(b)
	return len(b), nil
}

// EndInstruction records the current end of the buffer as the end of an instruction.
func (buf Buffer) EndInstruction() {
	buf.seg.ends = append(buf.seg.ends, buf.seg.size)
}

// Boundaries returns the end offsets, relative to this buffer, of the instructions ending
// after the buffer offset from. The result is empty when nothing was written since from.
func (buf Buffer) Boundaries(from int) []int {
	var ret []int
	for _, e := range buf.seg.ends {
		if rel := e - buf.off; rel > from {
			ret = append(ret, rel)
		}
	}
	return ret
}
