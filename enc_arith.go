package jitter

// Scalar and SSE2 add/sub/mul/neg/not encoders. PMulUDQ, PUnpckLBW/
// PUnpckHBW and PackUSWB are the SSE2 primitives of the classic byte-lane
// and 64-bit-lane multiply synthesis (original_source/c_src/
// jitter_x86.cpp's emit_vmul_sse2, and the epi8-multiply idiom); no
// lowering path emits them. 8-bit and 64-bit vector multiply, and 32-bit
// vector multiply without SSE4.1, go through perLaneOp (lower.go).

// AddGP64/SubGP64 emit the two-operand reg,reg forms: `op dst, src`.
func (b *Buf) AddGP64(dst, src uint8) {
	b.EmitRex(true, src, 0, dst)
	b.Emit8(0x01)
	b.EmitModRMDirect(src, dst)
}

func (b *Buf) SubGP64(dst, src uint8) {
	b.EmitRex(true, src, 0, dst)
	b.Emit8(0x29)
	b.EmitModRMDirect(src, dst)
}

// MulGP64 emits `imul dst, src` (dst *= src).
func (b *Buf) MulGP64(dst, src uint8) {
	b.EmitRex(true, dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(0xAF)
	b.EmitModRMDirect(dst, src)
}

// NegGP64/NotGP64 are the single-operand group-3 forms.
func (b *Buf) NegGP64(dst uint8) {
	b.EmitRex(true, 0, 0, dst)
	b.Emit8(0xF7)
	b.Emit8(ModRM(modDirect, 3, dst))
}

func (b *Buf) NotGP64(dst uint8) {
	b.EmitRex(true, 0, 0, dst)
	b.Emit8(0xF7)
	b.Emit8(ModRM(modDirect, 2, dst))
}

// AndGP64/OrGP64/XorGP64 — the scalar bitwise family. ANDN has no single
// native instruction pre-BMI1; AndNotGP64 (enc_logic.go) synthesizes it
// as `mov dst, a; not dst; and dst, src`.
func (b *Buf) AndGP64(dst, src uint8) {
	b.EmitRex(true, src, 0, dst)
	b.Emit8(0x21)
	b.EmitModRMDirect(src, dst)
}

func (b *Buf) OrGP64(dst, src uint8) {
	b.EmitRex(true, src, 0, dst)
	b.Emit8(0x09)
	b.EmitModRMDirect(src, dst)
}

func (b *Buf) XorGP64(dst, src uint8) {
	b.EmitRex(true, src, 0, dst)
	b.Emit8(0x31)
	b.EmitModRMDirect(src, dst)
}

// AndGP64Imm emits `and dst, imm8` (group-1 opcode 0x83 /4), sign-extended
// to 64 bits — used only for small masks (shift-count masking), where imm
// always fits a positive imm8.
func (b *Buf) AndGP64Imm(dst uint8, imm uint8) {
	b.EmitRex(true, 0, 0, dst)
	b.Emit8(0x83)
	b.Emit8(ModRM(modDirect, 4, dst))
	b.Emit8(imm)
}

// ---- SSE2 vector integer add/sub, per element width ----

func (b *Buf) vecOp2(opcode byte, dst, src uint8) {
	b.Emit8(0x66)
	b.vecOpcodeRex(dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(opcode)
	b.EmitModRMDirect(dst, src)
}

func (b *Buf) PAddB(dst, src uint8) { b.vecOp2(0xFC, dst, src) }
func (b *Buf) PAddW(dst, src uint8) { b.vecOp2(0xFD, dst, src) }
func (b *Buf) PAddD(dst, src uint8) { b.vecOp2(0xFE, dst, src) }
func (b *Buf) PAddQ(dst, src uint8) { b.vecOp2(0xD4, dst, src) }

func (b *Buf) PSubB(dst, src uint8) { b.vecOp2(0xF8, dst, src) }
func (b *Buf) PSubW(dst, src uint8) { b.vecOp2(0xF9, dst, src) }
func (b *Buf) PSubD(dst, src uint8) { b.vecOp2(0xFA, dst, src) }
func (b *Buf) PSubQ(dst, src uint8) { b.vecOp2(0xFB, dst, src) }

// PMulLW is the native 16-bit lane multiply (low 16 bits of the product).
func (b *Buf) PMulLW(dst, src uint8) { b.vecOp2(0xD5, dst, src) }

// PMulLD is the SSE4.1 32-bit lane multiply (low 32 bits of the product).
// Callers must confirm Capabilities.UseSSE4_1() before emitting this.
func (b *Buf) PMulLD(dst, src uint8) {
	b.Emit8(0x66)
	b.vecOpcodeRex(dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(0x38)
	b.Emit8(0x40)
	b.EmitModRMDirect(dst, src)
}

// PMulUDQ multiplies the even 32-bit lanes (0 and 2) as unsigned, each
// producing a full 64-bit product. Not emitted by any lowering path (see
// the file comment).
func (b *Buf) PMulUDQ(dst, src uint8) { b.vecOp2(0xF4, dst, src) }

func (b *Buf) PAndXMM(dst, src uint8)  { b.vecOp2(0xDB, dst, src) }
func (b *Buf) POrXMM(dst, src uint8)   { b.vecOp2(0xEB, dst, src) }
func (b *Buf) PXorXMM(dst, src uint8)  { b.vecOp2(0xEF, dst, src) }
func (b *Buf) PAndnXMM(dst, src uint8) { b.vecOp2(0xDF, dst, src) } // dst = ~dst & src

// PUnpckLBW/PUnpckHBW interleave the low/high 8 bytes of dst and src,
// widening each byte lane to a word. Not emitted by any lowering path;
// VMOVI's broadcast goes through replicatePattern and Broadcast64ToXMM
// (lower_vmovi.go).
func (b *Buf) PUnpckLBW(dst, src uint8) { b.vecOp2(0x60, dst, src) }
func (b *Buf) PUnpckHBW(dst, src uint8) { b.vecOp2(0x68, dst, src) }

// PackUSWB saturates each signed word lane of dst (low) and src (high)
// into unsigned bytes, packing 16 words down to 16 bytes.
func (b *Buf) PackUSWB(dst, src uint8) { b.vecOp2(0x67, dst, src) }

// ---- SSE2 float arithmetic ----

func (b *Buf) AddPS(dst, src uint8) { b.vecOpFloat(0x58, false, dst, src) }
func (b *Buf) AddPD(dst, src uint8) { b.vecOpFloat(0x58, true, dst, src) }
func (b *Buf) SubPS(dst, src uint8) { b.vecOpFloat(0x5C, false, dst, src) }
func (b *Buf) SubPD(dst, src uint8) { b.vecOpFloat(0x5C, true, dst, src) }
func (b *Buf) MulPS(dst, src uint8) { b.vecOpFloat(0x59, false, dst, src) }
func (b *Buf) MulPD(dst, src uint8) { b.vecOpFloat(0x59, true, dst, src) }

// ---- scalar SSE float arithmetic (single value in the low lane) ----

func (b *Buf) AddSS(dst, src uint8) { b.scalarOpFloat(0x58, 0xF3, dst, src) }
func (b *Buf) AddSD(dst, src uint8) { b.scalarOpFloat(0x58, 0xF2, dst, src) }
func (b *Buf) SubSS(dst, src uint8) { b.scalarOpFloat(0x5C, 0xF3, dst, src) }
func (b *Buf) SubSD(dst, src uint8) { b.scalarOpFloat(0x5C, 0xF2, dst, src) }
func (b *Buf) MulSS(dst, src uint8) { b.scalarOpFloat(0x59, 0xF3, dst, src) }
func (b *Buf) MulSD(dst, src uint8) { b.scalarOpFloat(0x59, 0xF2, dst, src) }

func (b *Buf) scalarOpFloat(opcode byte, prefix byte, dst, src uint8) {
	b.Emit8(prefix)
	b.vecOpcodeRex(dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(opcode)
	b.EmitModRMDirect(dst, src)
}

func (b *Buf) vecOpFloat(opcode byte, double bool, dst, src uint8) {
	if double {
		b.Emit8(0x66)
	}
	b.vecOpcodeRex(dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(opcode)
	b.EmitModRMDirect(dst, src)
}

// AndPS/OrPS/XorPS/AndnPS — float bitwise-op family (BAND/BANDN/BOR/BXOR
// on float element types, same encoding family regardless of float32/64
// since the operation is purely bitwise; the PS form is used
// unconditionally, matching x86's convention that ANDPS/ORPS/XORPS work
// on raw bit patterns).
func (b *Buf) AndPS(dst, src uint8)  { b.vecOpcodeRex(dst, 0, src); b.Emit8(0x0F); b.Emit8(0x54); b.EmitModRMDirect(dst, src) }
func (b *Buf) OrPS(dst, src uint8)   { b.vecOpcodeRex(dst, 0, src); b.Emit8(0x0F); b.Emit8(0x56); b.EmitModRMDirect(dst, src) }
func (b *Buf) XorPS(dst, src uint8)  { b.vecOpcodeRex(dst, 0, src); b.Emit8(0x0F); b.Emit8(0x57); b.EmitModRMDirect(dst, src) }
func (b *Buf) AndnPS(dst, src uint8) { b.vecOpcodeRex(dst, 0, src); b.Emit8(0x0F); b.Emit8(0x55); b.EmitModRMDirect(dst, src) }
