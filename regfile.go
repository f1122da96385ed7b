package jitter

import (
	"math"
	"unsafe"
)

// Vec128 is one 128-bit vector slot.
type Vec128 struct {
	b [16]byte
}

// RegisterFile is the structure a compiled function receives a pointer to
// (spec.md §3, §6). Sixteen 64-bit scalar slots and sixteen 128-bit vector
// slots, back to back, matching the stable offsets callers rely on.
//
// R occupies a multiple of 16 bytes, so V starts at a 16-byte-aligned
// offset from the RegisterFile base — but Go does not guarantee the base
// address itself is 16-byte aligned, only pointer-aligned (8 bytes on
// amd64). The code generator's load/store phase therefore always uses the
// unaligned MOVDQU form against V, never MOVDQA (see enc_mov.go).
type RegisterFile struct {
	R [16]uint64
	V [16]Vec128
}

// NewRegisterFile returns a zeroed register file.
func NewRegisterFile() *RegisterFile {
	return &RegisterFile{}
}

func init() {
	// Sanity-checked once at package init rather than asserted on every
	// allocation: RegisterFile's layout must match what the code
	// generator's load/store phase assumes (spec.md §6).
	var rf RegisterFile
	if unsafe.Offsetof(rf.V)%16 != 0 {
		panic("jitter: RegisterFile.V is not 16-byte aligned from RegisterFile.R")
	}
}

// scalarBase/vectorBase are the byte offsets of R and V from the
// RegisterFile base, computed once rather than hardcoded so a future field
// reorder can't silently desync the encoder from the Go struct layout.
var (
	scalarBase = int(unsafe.Offsetof(RegisterFile{}.R))
	vectorBase = int(unsafe.Offsetof(RegisterFile{}.V))
)

// ScalarOffset returns the byte offset of r[i] from the RegisterFile base,
// for the encoder's memory-operand addressing (spec.md §6).
func ScalarOffset(i uint8) int32 { return int32(scalarBase + 8*int(i)) }

// VectorOffset returns the byte offset of v[i] from the RegisterFile base.
func VectorOffset(i uint8) int32 { return int32(vectorBase + 16*int(i)) }

// ---- scalar slot accessors, keyed by ElementType ----

// GetScalar returns the raw 64-bit slot r[i]; t is not consulted.
func (rf *RegisterFile) GetScalar(t ElementType, i uint8) uint64 {
	return rf.R[i]
}

// SetScalar writes v into r[i], truncating to t's width (arithmetic
// overflow wraps modulo 2^N per spec.md §4.2).
func (rf *RegisterFile) SetScalar(t ElementType, i uint8, v uint64) {
	t = resolveVoid(t)
	switch t.Bytes() {
	case 1:
		rf.R[i] = uint64(uint8(v))
	case 2:
		rf.R[i] = uint64(uint16(v))
	case 4:
		rf.R[i] = uint64(uint32(v))
	default:
		rf.R[i] = v
	}
}

// ScalarSigned interprets r[i] as a signed integer of t's width, sign
// extended into int64.
func (rf *RegisterFile) ScalarSigned(t ElementType, i uint8) int64 {
	t = resolveVoid(t)
	switch t.Bytes() {
	case 1:
		return int64(int8(rf.R[i]))
	case 2:
		return int64(int16(rf.R[i]))
	case 4:
		return int64(int32(rf.R[i]))
	default:
		return int64(rf.R[i])
	}
}

// ScalarFloat interprets r[i] as a float of t's width.
func (rf *RegisterFile) ScalarFloat(t ElementType, i uint8) float64 {
	switch t {
	case TypeFloat32:
		return float64(math.Float32frombits(uint32(rf.R[i])))
	case TypeFloat64:
		return math.Float64frombits(rf.R[i])
	default:
		return 0
	}
}

// SetScalarFloat writes a float value into r[i] at t's width.
func (rf *RegisterFile) SetScalarFloat(t ElementType, i uint8, v float64) {
	switch t {
	case TypeFloat32:
		rf.R[i] = uint64(math.Float32bits(float32(v)))
	case TypeFloat64:
		rf.R[i] = math.Float64bits(v)
	}
}

// ---- vector lane accessors ----

// VectorLane reads lane n (0-based) of v[i] under type t as a raw bit
// pattern (sign/float interpretation layered on top by the caller).
func (rf *RegisterFile) VectorLane(t ElementType, i uint8, n int) uint64 {
	sz := t.Bytes()
	off := n * sz
	buf := rf.V[i].b[off : off+sz]
	var v uint64
	for k := sz - 1; k >= 0; k-- {
		v = v<<8 | uint64(buf[k])
	}
	return v
}

// SetVectorLane writes lane n of v[i] under type t.
func (rf *RegisterFile) SetVectorLane(t ElementType, i uint8, n int, v uint64) {
	sz := t.Bytes()
	off := n * sz
	buf := rf.V[i].b[off : off+sz]
	for k := 0; k < sz; k++ {
		buf[k] = byte(v)
		v >>= 8
	}
}

// VectorLaneSigned reads lane n as a sign-extended int64.
func (rf *RegisterFile) VectorLaneSigned(t ElementType, i uint8, n int) int64 {
	raw := rf.VectorLane(t, i, n)
	switch t.Bytes() {
	case 1:
		return int64(int8(raw))
	case 2:
		return int64(int16(raw))
	case 4:
		return int64(int32(raw))
	default:
		return int64(raw)
	}
}

// VectorLaneFloat reads lane n as a float under t (FLOAT32/FLOAT64 only).
func (rf *RegisterFile) VectorLaneFloat(t ElementType, i uint8, n int) float64 {
	raw := rf.VectorLane(t, i, n)
	switch t {
	case TypeFloat32:
		return float64(math.Float32frombits(uint32(raw)))
	case TypeFloat64:
		return math.Float64frombits(raw)
	default:
		return 0
	}
}

// SetVectorLaneFloat writes a float value into lane n of v[i].
func (rf *RegisterFile) SetVectorLaneFloat(t ElementType, i uint8, n int, v float64) {
	switch t {
	case TypeFloat32:
		rf.SetVectorLane(t, i, n, uint64(math.Float32bits(float32(v))))
	case TypeFloat64:
		rf.SetVectorLane(t, i, n, math.Float64bits(v))
	}
}
