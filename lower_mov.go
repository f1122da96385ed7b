package jitter

// MOV/MOVI/VMOV/VMOVI and NEG/VNEG/BNOT/VBNOT/INV lowering. Ground truth
// for the register-file memory-operand shape: enc_mov.go's LoadGP/StoreGP/
// LoadXMM/StoreXMM, built from xyproto-vibe67's MovRegToReg/MovMemToReg
// byte-encoding style. MOVI/VMOVI's immediate-broadcast path is split out
// into lower_vmovi.go.

func lowerMov(c *lowerCtx, ins Instruction, t ElementType) error {
	defer c.scope()()

	if ins.Op.IsVec() {
		if ins.Op.IsImm() {
			return lowerVMovi(c, ins, t)
		}
		src := c.loadVec(ins.Ri)
		c.storeVec(ins.Rd, src)
		return nil
	}

	if ins.Op.IsImm() {
		if t.IsFloat() {
			return invalidProgramErr(c.instr, "MOVI is not defined for float type %s", t)
		}
		// Imm12 is a 12-bit signed field (-2048..2047, ir.go), wider than
		// loadImm's Imm8-only int8 staging — materialize the full value
		// directly rather than truncating it through an 8-bit immediate.
		r := c.gp.MustAlloc()
		c.buf.MovRegImm64(r, int64(ins.Imm12))
		c.storeScalar(ins.Rd, r, t.Bits())
		return nil
	}

	// Plain scalar MOV copies the raw 64-bit slot verbatim (GetScalar is
	// unmasked), then the store truncates to t's width, matching
	// SetScalar(t, rd, GetScalar(t, ri)) exactly.
	r := c.loadRaw(ins.Ri)
	c.storeScalar(ins.Rd, r, t.Bits())
	return nil
}

func lowerNeg(c *lowerCtx, ins Instruction, t ElementType) error {
	defer c.scope()()

	if t.IsFloat() {
		return lowerNegFloat(c, ins, t)
	}

	bits := t.Bits()
	if ins.Op.IsVec() {
		a := c.loadVec(ins.Ri)
		zero := c.xmm.MustAlloc()
		c.buf.PXorXMM(zero, zero)
		// dst = 0 - a, per lane: emulator's NEG is `-signed(a)`, i.e.
		// two's-complement negation, which PSUB computes exactly at any
		// lane width regardless of signed/unsigned interpretation.
		negSub(c.buf, zero, a, t)
		c.storeVec(ins.Rd, zero)
		return nil
	}

	r := c.loadTruncSigned(ins.Ri, bits)
	c.buf.NegGP64(r)
	c.storeScalar(ins.Rd, r, bits)
	return nil
}

// negSub emits the lane-width-appropriate PSUB so `dst -= src` computes
// two's-complement negation when dst already holds zero.
func negSub(buf *Buf, dst, src uint8, t ElementType) {
	switch t.Bytes() {
	case 1:
		buf.PSubB(dst, src)
	case 2:
		buf.PSubW(dst, src)
	case 4:
		buf.PSubD(dst, src)
	default:
		buf.PSubQ(dst, src)
	}
}

func lowerNegFloat(c *lowerCtx, ins Instruction, t ElementType) error {
	signBit := signBitPattern(t)
	if ins.Op.IsVec() {
		a := c.loadVec(ins.Ri)
		mask := c.broadcastImmVec(signBit)
		c.buf.XorPS(a, mask)
		c.storeVec(ins.Rd, a)
		return nil
	}
	a := loadScalarFloatGP(c, ins.Ri, t)
	maskGP := c.gp.MustAlloc()
	c.buf.MovRegImm64(maskGP, int64(signBit))
	af := c.xmm.MustAlloc()
	maskX := c.xmm.MustAlloc()
	movGPToXMMFloat(c.buf, af, a, t)
	movGPToXMMFloat(c.buf, maskX, maskGP, t)
	c.buf.XorPS(af, maskX)
	out := movXMMToGPFloat(c, af, t)
	c.storeScalar(ins.Rd, out, t.Bits())
	return nil
}

// signBitPattern returns the float sign-bit mask at t's width, broadcast
// is handled by the caller (vector path) or used directly (scalar path).
func signBitPattern(t ElementType) uint64 {
	if t == TypeFloat32 {
		return 0x80000000
	}
	return 0x8000000000000000
}

func lowerBnot(c *lowerCtx, ins Instruction, t ElementType) error {
	defer c.scope()()

	if ins.Op.IsVec() {
		a := c.loadVec(ins.Ri)
		ones := c.xmm.MustAlloc()
		c.buf.PCmpEqD(ones, ones)
		c.buf.PXorXMM(a, ones)
		c.storeVec(ins.Rd, a)
		return nil
	}

	r := c.loadRaw(ins.Ri)
	c.buf.NotGP64(r)
	c.storeScalar(ins.Rd, r, t.Bits())
	return nil
}

// loadScalarFloatGP loads a scalar float operand's raw bit pattern into a
// GP register: the low Bits()-wide memory slice only (ScalarFloat reads
// via Float32/64frombits(uint32(rf.R[i])), which discards anything above
// the element width), matching the truncating-load category.
func loadScalarFloatGP(c *lowerCtx, ri uint8, t ElementType) uint8 {
	r := c.gp.MustAlloc()
	c.buf.LoadGP(r, encRDI, ScalarOffset(ri), t.Bits(), false)
	return r
}

// movGPToXMMFloat/movXMMToGPFloat stage a scalar float bit pattern between
// a GP register and the low lane of an XMM register, at the width t needs.
func movGPToXMMFloat(buf *Buf, xmm, gp uint8, t ElementType) {
	if t == TypeFloat32 {
		buf.movdGPToXMM(xmm, gp)
	} else {
		buf.movqGPToXMM(xmm, gp)
	}
}

func movXMMToGPFloat(c *lowerCtx, xmm uint8, t ElementType) uint8 {
	gp := c.gp.MustAlloc()
	if t == TypeFloat32 {
		c.buf.movdXMMToGP(gp, xmm)
	} else {
		c.buf.movqXMMToGP(gp, xmm)
	}
	return gp
}
