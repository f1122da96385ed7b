package jitter

// BAND/BANDN/BOR/BXOR scalar, vector, and float lowering. All four are
// pure bitwise ops on the raw bit pattern regardless of element kind —
// emulator.go routes float BAND/BANDN/BOR/BXOR through floatBits(t, x)
// rather than arithmetic, and the vector lane loop takes the same "raw
// uint64" branch for float lanes as it does for int lanes (see the shared
// a/b extraction ahead of emulateBitwiseVectorLane) — so a single vector
// lowering path serves every element type via enc_arith.go's
// PAndXMM/POrXMM/PXorXMM/PAndnXMM, and the only split that matters is
// scalar int (raw 64-bit GetScalar, like ADD) vs scalar float (the
// width-truncated ScalarFloat bit pattern, like NEG's float path).

func lowerBand(c *lowerCtx, ins Instruction, t ElementType) error {
	return lowerLogic(c, ins, t, baseBAND)
}

func lowerBandn(c *lowerCtx, ins Instruction, t ElementType) error {
	return lowerLogic(c, ins, t, baseBANDN)
}

func lowerBor(c *lowerCtx, ins Instruction, t ElementType) error {
	return lowerLogic(c, ins, t, baseBOR)
}

func lowerBxor(c *lowerCtx, ins Instruction, t ElementType) error {
	return lowerLogic(c, ins, t, baseBXOR)
}

func lowerLogic(c *lowerCtx, ins Instruction, t ElementType, base Op) error {
	defer c.scope()()

	if ins.Op.IsVec() {
		a := c.loadVec(ins.Ri)
		b := c.vecOperandB(ins, t)
		switch base {
		case baseBAND:
			c.buf.PAndXMM(a, b)
		case baseBANDN:
			// PANDN computes ~dst & src, so a must be the operand being
			// complemented — exactly BANDN's ^Ri & Rj shape.
			c.buf.PAndnXMM(a, b)
		case baseBOR:
			c.buf.POrXMM(a, b)
		case baseBXOR:
			c.buf.PXorXMM(a, b)
		}
		c.storeVec(ins.Rd, a)
		return nil
	}

	if t.IsFloat() {
		a := loadScalarFloatGP(c, ins.Ri, t)
		b := c.scalarFloatOperandB(ins, t)
		r := logicOp(c, base, a, b)
		c.storeScalar(ins.Rd, r, t.Bits())
		return nil
	}

	a := c.loadRaw(ins.Ri)
	b := c.scalarOperandB(ins)
	r := logicOp(c, base, a, b)
	c.storeScalar(ins.Rd, r, t.Bits())
	return nil
}

// logicOp applies the bitwise op to a,b and returns the register holding
// the result. AND/OR/XOR mutate a in place (two-address); BANDN needs a
// fresh destination since AndNotGP64 reads its first source before dst is
// written.
func logicOp(c *lowerCtx, base Op, a, b uint8) uint8 {
	switch base {
	case baseBAND:
		c.buf.AndGP64(a, b)
		return a
	case baseBANDN:
		dst := c.gp.MustAlloc()
		c.buf.AndNotGP64(dst, a, b)
		return dst
	case baseBOR:
		c.buf.OrGP64(a, b)
		return a
	default: // baseBXOR
		c.buf.XorGP64(a, b)
		return a
	}
}
