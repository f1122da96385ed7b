package jitter

// VEX-encoded (AVX) three-operand vector forms: dst = src1 op src2,
// without the "copy src1 into dst first" mov the SSE2 two-operand forms
// need. No lowering path emits these under any profile; ProfileAVX only
// switches register-file loads and stores to VEX forms (lower.go). Opcode
// bytes are identical to their legacy SSE2/SSE4 counterparts (enc_arith.go,
// enc_cmp.go) — only the prefix changes, per the VEX encoding table
// (Intel SDM Vol.2A §2.3). No VEX shift forms are defined here; vector
// shifts, immediate counts included, use the legacy register-count
// encoders or perLaneShift (lower_shift.go).

func (b *Buf) vex3op(opcode byte, dst, src1, src2 uint8, pp uint8) {
	b.EmitVEX2(dst >= 8, src1, false, pp)
	b.Emit8(opcode)
	b.EmitModRMDirect(dst, src2)
}

func (b *Buf) VPAddB(dst, src1, src2 uint8) { b.vex3op(0xFC, dst, src1, src2, 1) }
func (b *Buf) VPAddW(dst, src1, src2 uint8) { b.vex3op(0xFD, dst, src1, src2, 1) }
func (b *Buf) VPAddD(dst, src1, src2 uint8) { b.vex3op(0xFE, dst, src1, src2, 1) }
func (b *Buf) VPAddQ(dst, src1, src2 uint8) { b.vex3op(0xD4, dst, src1, src2, 1) }

func (b *Buf) VPSubB(dst, src1, src2 uint8) { b.vex3op(0xF8, dst, src1, src2, 1) }
func (b *Buf) VPSubW(dst, src1, src2 uint8) { b.vex3op(0xF9, dst, src1, src2, 1) }
func (b *Buf) VPSubD(dst, src1, src2 uint8) { b.vex3op(0xFA, dst, src1, src2, 1) }
func (b *Buf) VPSubQ(dst, src1, src2 uint8) { b.vex3op(0xFB, dst, src1, src2, 1) }

func (b *Buf) VPMulLW(dst, src1, src2 uint8) { b.vex3op(0xD5, dst, src1, src2, 1) }
func (b *Buf) VPMulUDQ(dst, src1, src2 uint8) { b.vex3op(0xF4, dst, src1, src2, 1) }

func (b *Buf) VPMulLD(dst, src1, src2 uint8) {
	b.EmitVEX3(dst >= 8, false, src2 >= 8, 2, false, src1, false, 1)
	b.Emit8(0x40)
	b.EmitModRMDirect(dst, src2)
}

func (b *Buf) VPAnd(dst, src1, src2 uint8)  { b.vex3op(0xDB, dst, src1, src2, 1) }
func (b *Buf) VPOr(dst, src1, src2 uint8)   { b.vex3op(0xEB, dst, src1, src2, 1) }
func (b *Buf) VPXor(dst, src1, src2 uint8)  { b.vex3op(0xEF, dst, src1, src2, 1) }
func (b *Buf) VPAndn(dst, src1, src2 uint8) { b.vex3op(0xDF, dst, src1, src2, 1) }

func (b *Buf) VPCmpGtB(dst, src1, src2 uint8) { b.vex3op(0x64, dst, src1, src2, 1) }
func (b *Buf) VPCmpGtW(dst, src1, src2 uint8) { b.vex3op(0x65, dst, src1, src2, 1) }
func (b *Buf) VPCmpGtD(dst, src1, src2 uint8) { b.vex3op(0x66, dst, src1, src2, 1) }
func (b *Buf) VPCmpEqB(dst, src1, src2 uint8) { b.vex3op(0x74, dst, src1, src2, 1) }
func (b *Buf) VPCmpEqW(dst, src1, src2 uint8) { b.vex3op(0x75, dst, src1, src2, 1) }
func (b *Buf) VPCmpEqD(dst, src1, src2 uint8) { b.vex3op(0x76, dst, src1, src2, 1) }

func (b *Buf) VPCmpGtQ(dst, src1, src2 uint8) {
	b.EmitVEX3(dst >= 8, false, src2 >= 8, 2, false, src1, false, 1)
	b.Emit8(0x37)
	b.EmitModRMDirect(dst, src2)
}

func (b *Buf) VPCmpEqQ(dst, src1, src2 uint8) {
	b.EmitVEX3(dst >= 8, false, src2 >= 8, 2, false, src1, false, 1)
	b.Emit8(0x29)
	b.EmitModRMDirect(dst, src2)
}

func (b *Buf) VAddPS(dst, src1, src2 uint8) { b.vex3op(0x58, dst, src1, src2, 0) }
func (b *Buf) VAddPD(dst, src1, src2 uint8) { b.vex3op(0x58, dst, src1, src2, 1) }
func (b *Buf) VSubPS(dst, src1, src2 uint8) { b.vex3op(0x5C, dst, src1, src2, 0) }
func (b *Buf) VSubPD(dst, src1, src2 uint8) { b.vex3op(0x5C, dst, src1, src2, 1) }
func (b *Buf) VMulPS(dst, src1, src2 uint8) { b.vex3op(0x59, dst, src1, src2, 0) }
func (b *Buf) VMulPD(dst, src1, src2 uint8) { b.vex3op(0x59, dst, src1, src2, 1) }

func (b *Buf) VAndPS(dst, src1, src2 uint8)  { b.vex3op(0x54, dst, src1, src2, 0) }
func (b *Buf) VOrPS(dst, src1, src2 uint8)   { b.vex3op(0x56, dst, src1, src2, 0) }
func (b *Buf) VXorPS(dst, src1, src2 uint8)  { b.vex3op(0x57, dst, src1, src2, 0) }
func (b *Buf) VAndnPS(dst, src1, src2 uint8) { b.vex3op(0x55, dst, src1, src2, 0) }

func (b *Buf) VCmpPS(dst, src1, src2 uint8, predicate uint8) {
	b.vex3op(0xC2, dst, src1, src2, 0)
	b.Emit8(predicate)
}

func (b *Buf) VCmpPD(dst, src1, src2 uint8, predicate uint8) {
	b.vex3op(0xC2, dst, src1, src2, 1)
	b.Emit8(predicate)
}
