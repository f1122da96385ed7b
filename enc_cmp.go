package jitter

// Scalar and vector comparison encoders. The scalar path uses the Jcc+DEC
// trick documented in original_source/c_src/jitter_x86.cpp's emit_movecc:
// zero a register, conditionally skip a DEC with the inverted condition,
// and let DEC turn 0 into all-ones — cheaper than SETcc+NEG and correct
// at any element width since truncation happens at store time. The
// vector integer path composes PCMPGT/PCMPEQ (GT and EQ are the only
// natively available signed predicates pre-SSE4.2); float compares use
// CMPPS/CMPPD's native 3-bit predicate immediate directly, no synthesis
// needed.

// condition-code nibbles for Jcc (Intel SDM Vol.1 §B.1).
const (
	ccO  = 0x0
	ccNO = 0x1
	ccB  = 0x2
	ccAE = 0x3
	ccE  = 0x4
	ccNE = 0x5
	ccBE = 0x6
	ccA  = 0x7
	ccL  = 0xC
	ccGE = 0xD
	ccLE = 0xE
	ccG  = 0xF
)

// signedCC/unsignedCC map a comparison base opcode to the Jcc condition
// that's true exactly when the comparison holds.
func signedCC(base Op) byte {
	switch base {
	case baseCMPLT:
		return ccL
	case baseCMPLE:
		return ccLE
	case baseCMPEQ:
		return ccE
	case baseCMPNE:
		return ccNE
	case baseCMPGT:
		return ccG
	case baseCMPGE:
		return ccGE
	default:
		crash("signedCC: not a comparison opcode")
		return 0
	}
}

func unsignedCC(base Op) byte {
	switch base {
	case baseCMPLT:
		return ccB
	case baseCMPLE:
		return ccBE
	case baseCMPEQ:
		return ccE
	case baseCMPNE:
		return ccNE
	case baseCMPGT:
		return ccA
	case baseCMPGE:
		return ccAE
	default:
		crash("unsignedCC: not a comparison opcode")
		return 0
	}
}

// CmpGP64 emits `cmp a, b` (computes a-b, sets flags, discards result).
func (b *Buf) CmpGP64(a, src uint8) {
	b.EmitRex(true, src, 0, a)
	b.Emit8(0x39)
	b.EmitModRMDirect(src, a)
}

// JccRel8 emits a short (rel8) conditional jump with a zero placeholder
// displacement and returns the displacement byte's position, to be
// patched via PatchRel8 once the target is known.
func (b *Buf) JccRel8(cc byte) int {
	b.Emit8(0x70 | cc)
	pos := b.Pos()
	b.Emit8(0)
	return pos
}

// JmpRel8 emits an unconditional short jump, patched the same way as
// JccRel8 — used by the clamped vector-shift synthesis in lower_shift.go
// to skip the normal-shift path after the overflow branch runs.
func (b *Buf) JmpRel8() int {
	b.Emit8(0xEB)
	pos := b.Pos()
	b.Emit8(0)
	return pos
}

// CmpGP64Imm emits `cmp dst, imm8` (group-1 opcode 0x83 /7), sign-extended
// to 64 bits — used for the vector shift-count overflow check (imm is
// always a small positive element-width value, 8 or 64) and for testing a
// scalar register against zero in JZ/JNZ.
func (b *Buf) CmpGP64Imm(dst uint8, imm uint8) {
	b.EmitRex(true, 0, 0, dst)
	b.Emit8(0x83)
	b.Emit8(ModRM(modDirect, 7, dst))
	b.Emit8(imm)
}

// JmpRel32 emits an unconditional near jump with a zero placeholder rel32,
// returning the displacement field's byte offset — used for every
// intra-function control-flow edge (JMP and RET's jump to the shared
// epilog) since any IR jump may cross more bytes than rel8 reaches.
func (b *Buf) JmpRel32() int {
	b.Emit8(0xE9)
	pos := b.Pos()
	b.Emit32LE(0)
	return pos
}

// JccRel32 emits a near conditional jump (0F 8x) with a zero placeholder
// rel32, returning the displacement field's byte offset — the JZ/JNZ
// lowering shape.
func (b *Buf) JccRel32(cc byte) int {
	b.Emit8(0x0F)
	b.Emit8(0x80 | cc)
	pos := b.Pos()
	b.Emit32LE(0)
	return pos
}

// PatchRel8 fixes up a short jump emitted by JccRel8 to land at the
// buffer's current end.
func (b *Buf) PatchRel8(pos int) {
	raw := b.Bytes()
	disp := b.Pos() - (pos + 1)
	raw[pos] = byte(int8(disp))
}

// invertCC returns the condition that's true exactly when cc is false —
// x86 Jcc condition nibbles are paired so the low bit toggles negation.
func invertCC(cc byte) byte { return cc ^ 1 }

// DecGP64 emits `dec dst` at 64-bit width.
func (b *Buf) DecGP64(dst uint8) {
	b.EmitRex(true, 0, 0, dst)
	b.Emit8(0xFF)
	b.Emit8(ModRM(modDirect, 1, dst))
}

// EmitScalarCompareMask emits the full Jcc+DEC sequence producing an
// all-ones-or-zero mask in dst: `cmp a, b` followed by a conditional
// skip of a DEC. Caller has already zeroed dst.
func (b *Buf) EmitScalarCompareMask(dst, a, src uint8, cc byte) {
	b.CmpGP64(a, src)
	skip := b.JccRel8(invertCC(cc))
	b.DecGP64(dst)
	b.PatchRel8(skip)
}

// ---- vector integer compare: native PCMPGT/PCMPEQ ----

func (b *Buf) PCmpGtB(dst, src uint8) { b.vecOp2(0x64, dst, src) }
func (b *Buf) PCmpGtW(dst, src uint8) { b.vecOp2(0x65, dst, src) }
func (b *Buf) PCmpGtD(dst, src uint8) { b.vecOp2(0x66, dst, src) }
func (b *Buf) PCmpEqB(dst, src uint8) { b.vecOp2(0x74, dst, src) }
func (b *Buf) PCmpEqW(dst, src uint8) { b.vecOp2(0x75, dst, src) }
func (b *Buf) PCmpEqD(dst, src uint8) { b.vecOp2(0x76, dst, src) }

// PCmpGtQ/PCmpEqQ are SSE4.2/SSE4.1 respectively; callers must check
// Capabilities before emitting (spec.md REDESIGN FLAG: refuse rather than
// emit wrong code when the host lacks the feature — see lower_cmp.go).
func (b *Buf) PCmpGtQ(dst, src uint8) {
	b.Emit8(0x66)
	b.vecOpcodeRex(dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(0x38)
	b.Emit8(0x37)
	b.EmitModRMDirect(dst, src)
}

func (b *Buf) PCmpEqQ(dst, src uint8) {
	b.Emit8(0x66)
	b.vecOpcodeRex(dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(0x38)
	b.Emit8(0x29)
	b.EmitModRMDirect(dst, src)
}

// ---- vector float compare: native CMPPS/CMPPD predicate immediate ----

const (
	cmppEQ  = 0
	cmppLT  = 1
	cmppLE  = 2
	cmppNEQ = 4
	cmppNLT = 5 // >=
	cmppNLE = 6 // >
)

func (b *Buf) CmpPS(dst, src uint8, predicate uint8) {
	b.vecOpcodeRex(dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(0xC2)
	b.EmitModRMDirect(dst, src)
	b.Emit8(predicate)
}

func (b *Buf) CmpPD(dst, src uint8, predicate uint8) {
	b.Emit8(0x66)
	b.vecOpcodeRex(dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(0xC2)
	b.EmitModRMDirect(dst, src)
	b.Emit8(predicate)
}

// ---- scalar float compare: CMPSS/CMPSD, same predicate table as CMPPS/PD ----

// CmpSS/CmpSD compare only the low lane and write an all-ones-or-zero mask
// there, chosen over COMISS/COMISD+Jcc specifically to avoid COMISS's
// parity-flag NaN handling needing a second conditional branch to get
// right (spec.md §4.6 "integer/float comparisons").
func (b *Buf) CmpSS(dst, src uint8, predicate uint8) {
	b.Emit8(0xF3)
	b.vecOpcodeRex(dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(0xC2)
	b.EmitModRMDirect(dst, src)
	b.Emit8(predicate)
}

func (b *Buf) CmpSD(dst, src uint8, predicate uint8) {
	b.Emit8(0xF2)
	b.vecOpcodeRex(dst, 0, src)
	b.Emit8(0x0F)
	b.Emit8(0xC2)
	b.EmitModRMDirect(dst, src)
	b.Emit8(predicate)
}

// floatPredicate maps a comparison base opcode to CMPPS/CMPPD's 3-bit
// immediate; LE/GE/GT have no single dedicated code distinct from their
// mirror (x86 defines GT/GE only via operand-swapped LT/LE in the
// original SSE encoding, but CMPPS's immediate table already includes
// NLT/NLE which serve GE/GT directly without swapping operands).
func floatPredicate(base Op) uint8 {
	switch base {
	case baseCMPLT:
		return cmppLT
	case baseCMPLE:
		return cmppLE
	case baseCMPEQ:
		return cmppEQ
	case baseCMPNE:
		return cmppNEQ
	case baseCMPGE:
		return cmppNLT
	case baseCMPGT:
		return cmppNLE
	default:
		crash("floatPredicate: not a comparison opcode")
		return 0
	}
}
