package jitter

// VMOVI broadcasts a sign-extended Imm12 into every lane of a vector
// register. x86 has no single "broadcast GP to all XMM lanes" instruction
// before AVX2's VPBROADCAST family (and even then only for memory/register
// sources, not an arbitrary bit pattern), so the original stages the value
// through a GP register and replicates it (original_source/c_src/
// jitter_x86.cpp's emit_vmovi). This rewrite separates the two concerns:
// replicatePattern (lower.go) computes the width-replicated 64-bit value
// in plain Go, and Broadcast64ToXMM (enc_mov.go) stages it into the XMM
// register with one mov + one PUNPCKLQDQ, uniformly across element widths.

func lowerVMovi(c *lowerCtx, ins Instruction, t ElementType) error {
	if t.IsFloat() {
		return invalidProgramErr(c.instr, "VMOVI is not defined for float type %s", t)
	}
	raw := uint64(int64(ins.Imm12)) & widthMask(t.Bits())
	pattern := replicatePattern(raw, t.Bits())
	dst := c.broadcastImmVec(pattern)
	c.storeVec(ins.Rd, dst)
	return nil
}
