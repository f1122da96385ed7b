package jitter

// ADD/SUB/RSUB/MUL scalar and vector lowering. Ground truth for the
// native-instruction shapes: enc_arith.go's PAddB/W/D/Q etc (already
// modeled on the C++ original's per-width add/sub tables). Where the ISA
// has no single vector instruction at a given element width — 8-bit and
// 64-bit multiply, and 32-bit multiply on a host without SSE4.1 — this
// rewrite decomposes the lane into a scalar GP multiply against the
// RegisterFile's lane memory directly (perLaneOp, lower.go) rather than
// the classic SSE2 widen/pack SIMD synthesis jitter_x86.cpp's
// emit_vmul_sse2 uses: every vector lane already lives at a known,
// independently addressable memory offset, so there is no need to hold
// the whole vector resident in an XMM register to operate lane by lane.
// This trades SIMD throughput for round-trip simplicity — acceptable
// since this rewrite's goal is a second, correctness-checked backend
// matching Emulate bit-for-bit, not a production-speed JIT (see
// DESIGN.md).

func lowerAdd(c *lowerCtx, ins Instruction, t ElementType) error {
	return lowerCommutativeArith(c, ins, t, baseADD)
}

func lowerMul(c *lowerCtx, ins Instruction, t ElementType) error {
	return lowerCommutativeArith(c, ins, t, baseMUL)
}

func lowerSub(c *lowerCtx, ins Instruction, t ElementType) error {
	return lowerSubtractArith(c, ins, t, false)
}

func lowerRsub(c *lowerCtx, ins Instruction, t ElementType) error {
	return lowerSubtractArith(c, ins, t, true)
}

func lowerCommutativeArith(c *lowerCtx, ins Instruction, t ElementType, base Op) error {
	defer c.scope()()

	if t.IsFloat() {
		return lowerFloatArith(c, ins, t, base)
	}

	if !ins.Op.IsVec() {
		a := c.loadRaw(ins.Ri)
		b := c.scalarOperandB(ins)
		switch base {
		case baseADD:
			c.buf.AddGP64(a, b)
		case baseMUL:
			c.buf.MulGP64(a, b)
		}
		c.storeScalar(ins.Rd, a, t.Bits())
		return nil
	}

	if base == baseMUL && needsPerLaneMul(c, t) {
		imm := vecImmOperand(ins)
		c.perLaneOp(ins, t, false, imm, func(a, b uint8) { c.buf.MulGP64(a, b) })
		return nil
	}

	a := c.loadVec(ins.Ri)
	b := c.vecOperandB(ins, t)
	switch base {
	case baseADD:
		vecOpByWidth(t, a, b, c.buf.PAddB, c.buf.PAddW, c.buf.PAddD, c.buf.PAddQ)
	case baseMUL:
		vecMulNative(c, t, a, b)
	}
	c.storeVec(ins.Rd, a)
	return nil
}

func lowerSubtractArith(c *lowerCtx, ins Instruction, t ElementType, reverse bool) error {
	defer c.scope()()

	if t.IsFloat() {
		if reverse {
			return lowerFloatArith(c, ins, t, baseRSUB)
		}
		return lowerFloatArith(c, ins, t, baseSUB)
	}

	if !ins.Op.IsVec() {
		a := c.loadRaw(ins.Ri)
		b := c.scalarOperandB(ins)
		if reverse {
			c.buf.SubGP64(b, a)
			c.storeScalar(ins.Rd, b, t.Bits())
		} else {
			c.buf.SubGP64(a, b)
			c.storeScalar(ins.Rd, a, t.Bits())
		}
		return nil
	}

	a := c.loadVec(ins.Ri)
	b := c.vecOperandB(ins, t)
	if reverse {
		vecOpByWidth(t, b, a, c.buf.PSubB, c.buf.PSubW, c.buf.PSubD, c.buf.PSubQ)
		c.storeVec(ins.Rd, b)
	} else {
		vecOpByWidth(t, a, b, c.buf.PSubB, c.buf.PSubW, c.buf.PSubD, c.buf.PSubQ)
		c.storeVec(ins.Rd, a)
	}
	return nil
}

func lowerFloatArith(c *lowerCtx, ins Instruction, t ElementType, base Op) error {
	if ins.Op.IsVec() {
		a := c.loadVec(ins.Ri)
		b := c.vecOperandB(ins, t)
		double := t == TypeFloat64
		switch base {
		case baseADD:
			floatDispatch(double, a, b, c.buf.AddPS, c.buf.AddPD)
		case baseSUB:
			floatDispatch(double, a, b, c.buf.SubPS, c.buf.SubPD)
		case baseRSUB:
			floatDispatch(double, b, a, c.buf.SubPS, c.buf.SubPD)
			c.storeVec(ins.Rd, b)
			return nil
		case baseMUL:
			floatDispatch(double, a, b, c.buf.MulPS, c.buf.MulPD)
		}
		c.storeVec(ins.Rd, a)
		return nil
	}

	af := c.xmm.MustAlloc()
	aGP := loadScalarFloatGP(c, ins.Ri, t)
	movGPToXMMFloat(c.buf, af, aGP, t)

	bf := c.xmm.MustAlloc()
	bGP := c.scalarFloatOperandB(ins, t)
	movGPToXMMFloat(c.buf, bf, bGP, t)

	double := t == TypeFloat64
	switch base {
	case baseADD:
		floatDispatch(double, af, bf, c.buf.AddSS, c.buf.AddSD)
	case baseSUB:
		floatDispatch(double, af, bf, c.buf.SubSS, c.buf.SubSD)
	case baseRSUB:
		floatDispatch(double, bf, af, c.buf.SubSS, c.buf.SubSD)
		out := movXMMToGPFloat(c, bf, t)
		c.storeScalar(ins.Rd, out, t.Bits())
		return nil
	case baseMUL:
		floatDispatch(double, af, bf, c.buf.MulSS, c.buf.MulSD)
	}
	out := movXMMToGPFloat(c, af, t)
	c.storeScalar(ins.Rd, out, t.Bits())
	return nil
}

// ---- operand helpers ----

// scalarOperandB loads the second scalar operand: rj for BIN forms, the
// sign-extended Imm8 for IMM forms.
func (c *lowerCtx) scalarOperandB(ins Instruction) uint8 {
	if ins.Op.IsBin() {
		return c.loadRaw(ins.Rj)
	}
	return c.loadImm(ins.Imm8)
}

func (c *lowerCtx) scalarFloatOperandB(ins Instruction, t ElementType) uint8 {
	if ins.Op.IsBin() {
		return loadScalarFloatGP(c, ins.Rj, t)
	}
	r := c.gp.MustAlloc()
	c.buf.MovRegImm64(r, int64(floatImmBits(t, float64(ins.Imm8))))
	return r
}

func floatImmBits(t ElementType, v float64) uint64 {
	return floatBits(t, v)
}

// vecOperandB loads rj for BIN vector forms, or broadcasts the
// width-replicated Imm8 for IMM forms.
func (c *lowerCtx) vecOperandB(ins Instruction, t ElementType) uint8 {
	if ins.Op.IsBin() {
		return c.loadVec(ins.Rj)
	}
	if t.IsFloat() {
		bits := floatBits(t, float64(ins.Imm8))
		pattern := bits
		if t == TypeFloat32 {
			pattern = replicatePattern(bits, 32)
		}
		return c.broadcastImmVec(pattern)
	}
	raw := uint64(int64(ins.Imm8)) & widthMask(t.Bits())
	return c.broadcastImmVec(replicatePattern(raw, t.Bits()))
}

// vecImmOperand returns a pointer to the IMM8 for perLaneOp, or nil for
// BIN forms (perLaneOp then reads rj's lane directly).
func vecImmOperand(ins Instruction) *int8 {
	if ins.Op.IsBin() {
		return nil
	}
	imm := ins.Imm8
	return &imm
}

func needsPerLaneMul(c *lowerCtx, t ElementType) bool {
	switch t.Bytes() {
	case 1, 8:
		return true
	case 4:
		return !c.cap.UseSSE4_1()
	default:
		return false
	}
}

func vecMulNative(c *lowerCtx, t ElementType, dst, src uint8) {
	switch t.Bytes() {
	case 2:
		c.buf.PMulLW(dst, src)
	case 4:
		c.buf.PMulLD(dst, src)
	}
}

// vecOpByWidth dispatches a PADD/PSUB-shaped op to the byte/word/dword/
// qword encoder matching t's element size.
func vecOpByWidth(t ElementType, dst, src uint8, opB, opW, opD, opQ func(dst, src uint8)) {
	switch t.Bytes() {
	case 1:
		opB(dst, src)
	case 2:
		opW(dst, src)
	case 4:
		opD(dst, src)
	default:
		opQ(dst, src)
	}
}

func floatDispatch(double bool, dst, src uint8, opS, opD func(dst, src uint8)) {
	if double {
		opD(dst, src)
	} else {
		opS(dst, src)
	}
}
