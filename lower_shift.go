package jitter

// SLL/SRL/SRA scalar and vector lowering. Ground truth for the native
// shift shapes: enc_shift.go's scalar CL-count group and SSE2
// PSLL/PSRL/PSRA register-count forms. Two distinct clamp disciplines
// apply, per emulator.go: scalar shift counts are masked modulo the
// element width (count & (bits-1)), while vector shift counts clamp to
// an all-zero (logical) or all-sign (arithmetic) result once count
// reaches the element width — exactly what the PSLL/PSRL/PSRA
// register-count forms already do in hardware, except for the two
// shapes the ISA has no native instruction for at all (8-bit lanes in
// any direction, and 64-bit arithmetic right), which perLaneShift below
// synthesizes with an explicit overflow branch per lane.

func lowerSll(c *lowerCtx, ins Instruction, t ElementType) error {
	return lowerShift(c, ins, t, baseSLL)
}

func lowerSrl(c *lowerCtx, ins Instruction, t ElementType) error {
	return lowerShift(c, ins, t, baseSRL)
}

func lowerSra(c *lowerCtx, ins Instruction, t ElementType) error {
	return lowerShift(c, ins, t, baseSRA)
}

func lowerShift(c *lowerCtx, ins Instruction, t ElementType, base Op) error {
	defer c.scope()()

	if t.IsFloat() {
		return invalidProgramErr(c.instr, "%s is not defined for float type %s", ins.Op.Name(), t)
	}

	if ins.Op.IsVec() {
		return lowerVectorShift(c, ins, t, base)
	}

	bits := t.Bits()
	var a uint8
	if base == baseSRA {
		a = c.loadTruncSigned(ins.Ri, bits)
	} else {
		a = c.loadRaw(ins.Ri)
	}

	count := c.scalarOperandB(ins)
	c.buf.MovRegReg64(encRCX, count)
	c.buf.AndGP64Imm(encRCX, uint8(bits-1))

	switch base {
	case baseSLL:
		c.buf.ShlGP64CL(a)
	case baseSRL:
		c.buf.ShrGP64CL(a)
	case baseSRA:
		c.buf.SarGP64CL(a)
	}
	c.storeScalar(ins.Rd, a, bits)
	return nil
}

func lowerVectorShift(c *lowerCtx, ins Instruction, t ElementType, base Op) error {
	if needsPerLaneShift(t, base) {
		perLaneShift(c, ins, t, base)
		return nil
	}

	a := c.loadVec(ins.Ri)
	countX := vectorShiftCountXMM(c, ins)
	switch t.Bytes() {
	case 2:
		dispatchVecShiftReg(base, a, countX, c.buf.PSllWReg, c.buf.PSrlWReg, c.buf.PSraWReg)
	case 4:
		dispatchVecShiftReg(base, a, countX, c.buf.PSllDReg, c.buf.PSrlDReg, c.buf.PSraDReg)
	default: // 8-byte lanes: only SLL/SRL are native, SRA is routed to perLaneShift above
		dispatchVecShiftReg64(base, a, countX, c.buf.PSllQReg, c.buf.PSrlQReg)
	}
	c.storeVec(ins.Rd, a)
	return nil
}

func dispatchVecShiftReg(base Op, dst, count uint8, sll, srl, sra func(dst, count uint8)) {
	switch base {
	case baseSLL:
		sll(dst, count)
	case baseSRL:
		srl(dst, count)
	case baseSRA:
		sra(dst, count)
	}
}

func dispatchVecShiftReg64(base Op, dst, count uint8, sll, srl func(dst, count uint8)) {
	switch base {
	case baseSLL:
		sll(dst, count)
	case baseSRL:
		srl(dst, count)
	}
}

// needsPerLaneShift reports the element-width/direction combinations the
// SSE2 ISA has no native vector shift instruction for: every 8-bit shift
// (no PSLLB/PSRLB/PSRAB exists at all) and 64-bit arithmetic right (no
// PSRAQ pre-AVX512).
func needsPerLaneShift(t ElementType, base Op) bool {
	if t.Bytes() == 1 {
		return true
	}
	return t.Bytes() == 8 && base == baseSRA
}

// vectorShiftCountXMM stages the single uniform shift count — v[rj]'s low
// 64 bits for BIN forms, the zero-extended Imm8 for IMM forms (the
// emulator reads `uint64(uint8(ins.Imm8))` here, unlike every other IMM
// operand in this rewrite, which sign-extends) — into an XMM register's
// low lane, the way PSLL/PSRL/PSRA's register-count form requires.
func vectorShiftCountXMM(c *lowerCtx, ins Instruction) uint8 {
	gp := c.gp.MustAlloc()
	if ins.Op.IsBin() {
		c.buf.LoadGP(gp, encRDI, VectorOffset(ins.Rj), 64, false)
	} else {
		c.buf.MovRegImm64(gp, int64(uint8(ins.Imm8)))
	}
	x := c.xmm.MustAlloc()
	c.buf.movqGPToXMM(x, gp)
	return x
}

// perLaneShift decomposes a vector shift lacking a native instruction into
// one scalar GP shift per lane, with an explicit overflow branch
// reproducing the clamped (not masked) vector semantics: a count at or
// beyond the element width forces an all-zero (logical) or all-sign
// (arithmetic) lane rather than the hardware's mod-64 CL wraparound a
// plain ShlGP64CL/SarGP64CL would give.
func perLaneShift(c *lowerCtx, ins Instruction, t ElementType, base Op) {
	lanes := Lanes(t)
	sz := t.Bytes()
	bits := t.Bits()
	signed := base == baseSRA

	countGP := c.gp.MustAlloc()
	if ins.Op.IsBin() {
		c.buf.LoadGP(countGP, encRDI, VectorOffset(ins.Rj), 64, false)
	} else {
		c.buf.MovRegImm64(countGP, int64(uint8(ins.Imm8)))
	}

	for n := 0; n < lanes; n++ {
		off := int32(n * sz)
		a := c.gp.MustAlloc()
		c.buf.LoadGP(a, encRDI, VectorOffset(ins.Ri)+off, bits, signed)

		c.buf.CmpGP64Imm(countGP, uint8(bits))
		toNormal := c.buf.JccRel8(ccB)
		if base == baseSRA {
			c.buf.SarGP64Imm(a, 63)
		} else {
			c.buf.XorGP64(a, a)
		}
		toDone := c.buf.JmpRel8()
		c.buf.PatchRel8(toNormal)
		c.buf.MovRegReg64(encRCX, countGP)
		switch base {
		case baseSLL:
			c.buf.ShlGP64CL(a)
		case baseSRL:
			c.buf.ShrGP64CL(a)
		case baseSRA:
			c.buf.SarGP64CL(a)
		}
		c.buf.PatchRel8(toDone)

		c.buf.StoreGP(encRDI, VectorOffset(ins.Rd)+off, a, bits)
		c.gp.Release(a)
	}
}
