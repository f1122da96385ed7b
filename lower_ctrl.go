package jitter

// NOP/JMP/JZ/JNZ/RET/VRET lowering. Ground truth for the displacement
// arithmetic: emulator.go's `next = pc + 1 + int(ins.Imm12)` — the Imm12
// field is relative to the instruction *after* the jump, exactly the x86
// rel32 convention, so the only work here is turning an IR instruction
// index into a byte offset via Buf's MarkInstr/AddJumpFixup/ResolveJumps
// machinery (codegen.go calls MarkInstr(i) before lowering instruction i,
// and MarkInstr(progLen) once more right before the shared epilog, so RET
// can target "one past the last instruction" the same way a JMP targets
// any other index).

func lowerNop(c *lowerCtx, ins Instruction) error {
	return nil
}

func lowerJmp(c *lowerCtx, ins Instruction) error {
	target, err := c.jumpTarget(ins)
	if err != nil {
		return err
	}
	pos := c.buf.JmpRel32()
	c.buf.AddJumpFixup(pos, target, pos+4)
	return nil
}

func lowerJz(c *lowerCtx, ins Instruction) error {
	return lowerBranch(c, ins, ccE)
}

func lowerJnz(c *lowerCtx, ins Instruction) error {
	return lowerBranch(c, ins, ccNE)
}

// lowerBranch emits `cmp r[rd], 0` followed by a conditional jump with cc
// (ccE for JZ, ccNE for JNZ); the not-taken path simply falls through to
// whatever codegen emits for the next instruction, so no explicit "jump
// over" is needed.
func lowerBranch(c *lowerCtx, ins Instruction, cc byte) error {
	defer c.scope()()

	t := resolveVoid(ins.Type)
	if t.IsFloat() {
		return invalidProgramErr(c.instr, "%s: condition register must not be float-typed", ins.Op.Name())
	}

	target, err := c.jumpTarget(ins)
	if err != nil {
		return err
	}

	r := c.loadRaw(ins.Rd)
	c.buf.CmpGP64Imm(r, 0)
	pos := c.buf.JccRel32(cc)
	c.buf.AddJumpFixup(pos, target, pos+4)
	return nil
}

// jumpTarget turns Imm12 into an absolute IR instruction index and range
// checks it against the program bounds, the same check Emulate performs
// at runtime on the next pc — done here at compile time since the whole
// program's length is already known.
func (c *lowerCtx) jumpTarget(ins Instruction) (int, error) {
	target := c.instr + 1 + int(ins.Imm12)
	if target < 0 || target >= c.progLen {
		return 0, invalidProgramErr(c.instr, "%s: target %d out of range (program has %d instructions)", ins.Op.Name(), target, c.progLen)
	}
	return target, nil
}

// lowerRet handles both RET and VRET: the value itself is already resident in the
// register file (every op stores its result back to memory immediately,
// per lower.go's doc comment), so returning is purely a control-flow
// matter — jump to the shared epilog, marked as instruction index
// progLen by codegen.go.
func lowerRet(c *lowerCtx, ins Instruction) error {
	pos := c.buf.JmpRel32()
	c.buf.AddJumpFixup(pos, c.progLen, pos+4)
	return nil
}
