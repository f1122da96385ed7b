package jitter

// CMP{LT,LE,EQ,NE,GT,GE} scalar, vector-int, and float lowering. Ground
// truth for the encoding shapes: enc_cmp.go's Jcc+DEC scalar mask trick,
// the PCMPGT/PCMPEQ vector-int composition (GT and EQ are the only
// signed predicates SSE2 has natively; LT/LE/GE/NE derive from them by
// operand swap and/or an all-ones XOR negation), and CMPPS/CMPPD/CmpSS/
// CmpSD's native 3-bit predicate immediate for float at both widths.

func lowerCmp(c *lowerCtx, ins Instruction, t ElementType, base Op) error {
	defer c.scope()()

	if ins.Op.IsVec() {
		return lowerVecCmp(c, ins, t, base)
	}

	if t.IsFloat() {
		return lowerScalarFloatCmp(c, ins, t, base)
	}

	bits := t.Bits()
	signed := t.BaseKind() == KindSigned
	var a, b uint8
	var cc byte
	if signed {
		a = c.loadTruncSigned(ins.Ri, bits)
		b = c.scalarSignedOperandB(ins, bits)
		cc = signedCC(base)
	} else {
		a = c.loadRaw(ins.Ri)
		b = c.scalarOperandB(ins)
		cc = unsignedCC(base)
	}

	dst := c.gp.MustAlloc()
	c.buf.XorRegReg32(dst)
	c.buf.EmitScalarCompareMask(dst, a, b, cc)
	c.storeScalar(ins.Rd, dst, bits)
	return nil
}

// scalarSignedOperandB mirrors scalarOperandB (lower_arith.go) but loads
// rj truncated+sign-extended instead of raw, matching ScalarSigned's
// truncating read — the style every signed scalar comparison needs.
func (c *lowerCtx) scalarSignedOperandB(ins Instruction, bits int) uint8 {
	if ins.Op.IsBin() {
		return c.loadTruncSigned(ins.Rj, bits)
	}
	return c.loadImm(ins.Imm8)
}

func lowerScalarFloatCmp(c *lowerCtx, ins Instruction, t ElementType, base Op) error {
	af := c.xmm.MustAlloc()
	aGP := loadScalarFloatGP(c, ins.Ri, t)
	movGPToXMMFloat(c.buf, af, aGP, t)

	bf := c.xmm.MustAlloc()
	bGP := c.scalarFloatOperandB(ins, t)
	movGPToXMMFloat(c.buf, bf, bGP, t)

	pred := floatPredicate(base)
	if t == TypeFloat64 {
		c.buf.CmpSD(af, bf, pred)
	} else {
		c.buf.CmpSS(af, bf, pred)
	}

	out := movXMMToGPFloat(c, af, t)
	c.storeScalar(ins.Rd, out, t.Bits())
	return nil
}

func lowerVecCmp(c *lowerCtx, ins Instruction, t ElementType, base Op) error {
	if t.IsFloat() {
		a := c.loadVec(ins.Ri)
		b := c.vecOperandB(ins, t)
		pred := floatPredicate(base)
		if t == TypeFloat64 {
			c.buf.CmpPD(a, b, pred)
		} else {
			c.buf.CmpPS(a, b, pred)
		}
		c.storeVec(ins.Rd, a)
		return nil
	}

	if t.Bytes() == 8 {
		switch base {
		case baseCMPGT, baseCMPGE, baseCMPLT, baseCMPLE:
			if !c.cap.UseSSE4_2() {
				return capErr(c.instr, "%s on 64-bit vector lanes needs SSE4.2 (PCMPGTQ)", ins.Op.Name())
			}
		case baseCMPEQ, baseCMPNE:
			if !c.cap.UseSSE4_1() {
				return capErr(c.instr, "%s on 64-bit vector lanes needs SSE4.1 (PCMPEQQ)", ins.Op.Name())
			}
		}
	}

	a := c.loadVec(ins.Ri)
	b := c.vecOperandB(ins, t)
	if t.BaseKind() == KindUnsigned {
		biasUnsigned(c, t, a, b)
	}

	var res uint8
	switch base {
	case baseCMPGT:
		c.pcmpGt(t, a, b) // a := a>b
		res = a
	case baseCMPLT:
		c.pcmpGt(t, b, a) // b := b>a, i.e. a<b
		res = b
	case baseCMPEQ:
		c.pcmpEq(t, a, b)
		res = a
	case baseCMPNE:
		c.pcmpEq(t, a, b)
		c.invertMask(a)
		res = a
	case baseCMPGE:
		c.pcmpGt(t, b, a) // b := a<b
		c.invertMask(b)   // b := NOT(a<b) = a>=b
		res = b
	case baseCMPLE:
		c.pcmpGt(t, a, b) // a := a>b
		c.invertMask(a)   // a := NOT(a>b) = a<=b
		res = a
	}
	c.storeVec(ins.Rd, res)
	return nil
}

// biasUnsigned XORs both operands with the per-lane sign bit, the
// standard trick for reusing a signed PCMPGT/PCMPEQ to compare unsigned
// lanes: flipping the sign bit of both sides preserves equality and
// reorders the unsigned range onto the signed one. Safe to apply
// unconditionally for EQ/NE too since XORing both sides by the same
// constant never changes whether they're equal.
func biasUnsigned(c *lowerCtx, t ElementType, a, b uint8) {
	pattern := replicatePattern(uint64(1)<<uint(t.Bits()-1), t.Bits())
	mask := c.broadcastImmVec(pattern)
	c.buf.PXorXMM(a, mask)
	c.buf.PXorXMM(b, mask)
	c.xmm.Release(mask)
}

func (c *lowerCtx) pcmpGt(t ElementType, dst, src uint8) {
	switch t.Bytes() {
	case 1:
		c.buf.PCmpGtB(dst, src)
	case 2:
		c.buf.PCmpGtW(dst, src)
	case 4:
		c.buf.PCmpGtD(dst, src)
	default:
		c.buf.PCmpGtQ(dst, src)
	}
}

func (c *lowerCtx) pcmpEq(t ElementType, dst, src uint8) {
	switch t.Bytes() {
	case 1:
		c.buf.PCmpEqB(dst, src)
	case 2:
		c.buf.PCmpEqW(dst, src)
	case 4:
		c.buf.PCmpEqD(dst, src)
	default:
		c.buf.PCmpEqQ(dst, src)
	}
}

// invertMask flips every bit of reg via XOR against an all-ones vector
// materialized the same way PCmpEqD(ones, ones) does for BNOT.
func (c *lowerCtx) invertMask(reg uint8) {
	ones := c.xmm.MustAlloc()
	c.buf.PCmpEqD(ones, ones)
	c.buf.PXorXMM(reg, ones)
}
