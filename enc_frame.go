package jitter

// Function framer (spec.md §4.7): prolog/epilog synthesis around the
// instruction stream codegen.go lowers. Ground truth for the exit
// sequence: spec.md §4.7 step 5 ("emit fxsave64 [save_area]; LEA rax,
// [save_area]; epilog — the function's return value is that address") and
// original_source/c_src/jitter_asm.h's fxsave64_1_t layout (fxsave.go).
//
// This rewrite's prolog is empty and its callee-saved set is empty by
// construction, not by omission: every lower_*.go file addresses the
// register file exclusively through rdi (the incoming argument, per the
// SysV AMD64 convention) and draws scratch only from Scratch's default
// pools (r10/r11/r13/r14, xmm11-13) — all caller-saved on amd64, none of
// them in the callee-saved set a SysV prolog would otherwise need to
// push. A future lowering strategy that widens the scratch pools into
// rbx/rbp/r12/r15 would need to push/pop exactly the ones it actually
// uses; this one needs none, so EmitPrologue is a no-op kept only so the
// framer has the symmetric shape the teacher's own emitters use.

// EmitPrologue exists for symmetry with EmitEpilogue and to document the
// empty callee-saved set; it emits nothing.
func EmitPrologue(buf *Buf) {}

// EmitEpilogue emits the function's exit sequence once every IR
// instruction has been lowered, marking the IR-instruction-index-sized
// sentinel (progLen) as its own entry point so RET/VRET's jump fixups
// (lower_ctrl.go) land here exactly like a jump to any other instruction.
//
// With EmitFXSave set (the default, spec.md §4.7 step 5): stage the
// embedded save area's address into rax via a RIP-relative LEA (the save
// area's own final position isn't known until it's appended after this
// point, so the LEA's displacement is a forward reference patched once
// the data section's offset is known — the same "patch once the target
// position exists" pattern jumpFixup uses for IR targets, but keyed to a
// raw byte offset instead), run FXSAVE64 against it, and return with rax
// already holding that address — exactly the ABI's "return value is the
// FXSAVE area's address" (spec.md §6).
//
// With EmitFXSave clear: there is no save area to return the address of,
// but the native ABI still promises `func(rfp) unsafe.Pointer`, so the
// function returns rfp itself rather than an undefined value.
func EmitEpilogue(buf *Buf, progLen int, cfg *Config) {
	buf.MarkInstr(progLen)

	if !cfg.EmitFXSave {
		buf.MovRegReg64(encRAX, encRDI)
		buf.Ret()
		return
	}

	leaPos := buf.LeaRipRel(encRAX)
	buf.FXSave64Mem(encRAX)
	buf.Ret()

	// FXSAVE64 faults on a save area that is not 16-byte aligned; the
	// image starts on a page boundary, so aligning the buffer offset
	// aligns the address.
	for buf.Pos()%16 != 0 {
		buf.Emit8(0)
	}
	dataPos := buf.Pos()
	buf.EmitZeros(fxsaveSize)
	buf.PatchRel32(leaPos, dataPos)
}

// Ret emits a near return (no callee-saved registers to restore, see the
// file comment above).
func (b *Buf) Ret() { b.Emit8(0xC3) }

// LeaRipRel emits `lea dst, [rip+disp32]` with a zero placeholder
// displacement and returns the displacement field's byte offset, to be
// patched via PatchRel32 once the target's absolute buffer position is
// known. ModRM.mod=00, rm=101 is the RIP-relative addressing form in
// 64-bit mode (Intel SDM Vol.2A Table 2-7) — there is no SIB byte.
func (b *Buf) LeaRipRel(dst uint8) int {
	b.EmitRex(true, dst, 0, 0)
	b.Emit8(0x8D)
	b.Emit8(ModRM(0, dst, 5))
	pos := b.Pos()
	b.Emit32LE(0)
	return pos
}

// FXSave64Mem emits `fxsave64 [base]` (REX.W 0F AE /0): the REX.W form
// changes the saved FIP/FDP pointer fields to 64-bit, which is the format
// fxsave.go's FXSave64 struct models.
func (b *Buf) FXSave64Mem(base uint8) {
	b.EmitRex(true, 0, 0, base)
	b.Emit8(0x0F)
	b.Emit8(0xAE)
	b.emitMemOperand(0, base, 0)
}

// EmitZeros appends n zero bytes, used for the embedded FXSAVE64 save
// area (the compiled function's FXSAVE64 instruction fills it at
// runtime; the image only needs to reserve and zero-initialize the
// space).
func (b *Buf) EmitZeros(n int) {
	for i := 0; i < n; i++ {
		b.Emit8(0)
	}
}
