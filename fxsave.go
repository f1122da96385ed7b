package jitter

import "unsafe"

func sizeofFXSave64() uintptr {
	var f FXSave64
	return unsafe.Sizeof(f)
}

// FXSave64 mirrors the x86-64 FXSAVE64 image (REX.W=1 form): a 512-byte,
// 16-byte-aligned region the generator embeds as a data section and fills
// with `fxsave64` near the exit of every compiled function, as a debugging
// aid (spec.md §3, §4.7). Ground truth for field layout and sizing:
// original_source/c_src/jitter_asm.h's fxsave64_1_t/fxinfo64a_t/
// fxinfo64b_t/st_mm_t.
type FXSave64 struct {
	FCW  uint16 // x87 FPU control word
	FSW  uint16 // x87 FPU status word
	FTW  uint8  // x87 FPU tag word
	rsvd1 uint8
	FOP  uint16 // x87 FPU opcode
	FIP  uint64 // 64-bit instruction pointer offset

	FDP       uint64 // data pointer
	MXCSR     uint32
	MXCSRMask uint32

	STMM [8]STMM   // ST/MM0-7, 80-bit value padded to 16 bytes
	XMM  [16]Vec128 // XMM0-15

	reserved [3]Vec128
	avail    [3]Vec128
}

// STMM is one ST/MM register slot: an 80-bit x87 value or a 64-bit MMX
// register, both padded out to the 16-byte FXSAVE slot width.
type STMM struct {
	Data [10]byte
	_    [6]byte
}

// fxsaveSize is the documented size of the FXSAVE64 image; asserted against
// unsafe.Sizeof at init so a field-layout mistake fails loudly instead of
// silently truncating the footer the compiled function writes.
const fxsaveSize = 512

func init() {
	if sz := sizeofFXSave64(); sz != fxsaveSize {
		panic("jitter: FXSave64 size mismatch")
	}
}
