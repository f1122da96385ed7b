package jitter

// lowerCtx carries the per-compilation state every lower_*.go dispatch
// function needs: the encode buffer, the two scratch pools (reset before
// each instruction by the framer), the capability/profile the caller
// selected, and the current instruction's index for error reporting.
//
// Every scalar/vector register lives in memory (the RegisterFile the
// function's sole argument, rdi, points at) for the whole of lowering —
// there is no persistent virtual-to-physical mapping on this path (that's
// what the standalone RegAlloc in regalloc.go is for, see DESIGN.md).
// Each opcode lowers by loading its operands from memory into scratch
// registers, computing, and storing the result back. This is also where
// the "move economy" generalization (spec.md §10, jitter_x86.cpp's
// emit_one_src/emit_one_vsrc) ends up living in this rewrite: because
// operands are always loaded fresh into scratch rather than kept
// resident, the binary step itself already needs at most one `op dst,
// src` instruction with no preparatory mov — the saving the original
// hand-derived per call site falls out for free here.
type lowerCtx struct {
	buf     *Buf
	gp      *Scratch
	xmm     *Scratch
	cap     *Capabilities
	profile Profile
	instr   int
	progLen int // len(prog); the epilog's sentinel MarkInstr index (see lower_ctrl.go)
}

// scalar register loading has two distinct styles the emulator's
// GetScalar/ScalarSigned split forces codegen to replicate bit-for-bit:
//
//   - raw: read all 64 bits of the memory slot unmodified (GetScalar
//     ignores the element width entirely). Used by every op except NEG,
//     SRA, and BaseKind-signed comparisons.
//   - truncSigned: read only the low Bits() bits and sign-extend,
//     discarding anything above the element width (ScalarSigned's
//     behavior). Used by NEG, SRA, and signed comparisons.
//
// Getting this wrong wouldn't show up on freshly-MOVI'd registers, only
// on programs that narrow a register's type after a wider write to the
// same slot — exactly the case the universal equivalence harness must
// catch.

func (c *lowerCtx) loadRaw(ri uint8) uint8 {
	r := c.gp.MustAlloc()
	c.buf.LoadGP(r, encRDI, ScalarOffset(ri), 64, false)
	return r
}

func (c *lowerCtx) loadTruncSigned(ri uint8, bits int) uint8 {
	r := c.gp.MustAlloc()
	c.buf.LoadGP(r, encRDI, ScalarOffset(ri), bits, true)
	return r
}

// storeScalar writes src's low `bits` bits into rd's register-file slot,
// zero-extending to the full 64 bits first — SetScalar always overwrites
// the whole 8-byte R[i] slot (regfile.go), but a narrower StoreGP targets
// memory, not a register, so it leaves the slot's upper bytes untouched
// unless the value is widened before the store. Getting this wrong is
// invisible on a freshly zeroed RegisterFile and only shows up on a
// program that narrows a register's type after a wider write to the same
// slot — exactly what JZ/JNZ's raw 64-bit test (lower_ctrl.go) and a
// later raw MOV/op from the same Ri would then disagree with Emulate on.
func (c *lowerCtx) storeScalar(rd uint8, src uint8, bits int) {
	if bits < 64 {
		c.buf.zeroExtendGP(src, bits)
	}
	c.buf.StoreGP(encRDI, ScalarOffset(rd), src, 64)
}

// loadImm materializes an IMM-form operand (Imm8, sign-extended) into a
// fresh scratch GP register — the "b" operand of an *I opcode never comes
// from memory.
func (c *lowerCtx) loadImm(imm int8) uint8 {
	r := c.gp.MustAlloc()
	c.buf.MovRegImm64(r, int64(imm))
	return r
}

// ---- vector loads/stores, dispatched on profile ----

func (c *lowerCtx) loadVec(ri uint8) uint8 {
	r := c.xmm.MustAlloc()
	if c.profile == ProfileAVX {
		c.buf.VLoadXMM(r, encRDI, VectorOffset(ri))
	} else {
		c.buf.LoadXMM(r, encRDI, VectorOffset(ri))
	}
	return r
}

func (c *lowerCtx) storeVec(rd uint8, src uint8) {
	if c.profile == ProfileAVX {
		c.buf.VStoreXMM(encRDI, VectorOffset(rd), src)
	} else {
		c.buf.StoreXMM(encRDI, VectorOffset(rd), src)
	}
}

func (c *lowerCtx) movVec(dst, src uint8) {
	if c.profile == ProfileAVX {
		c.buf.VMovXMMReg(dst, src)
	} else {
		c.buf.MovXMMReg(dst, src)
	}
}

// broadcastImmVec materializes an IMM-form vector operand: pattern64 must
// already be replicated across all 64 bits by the caller (lower_vmovi.go
// for VMOVI; the *I arithmetic/logic/cmp/shift vector forms replicate
// Imm8 the same way via replicatePattern).
func (c *lowerCtx) broadcastImmVec(pattern64 uint64) uint8 {
	dst := c.xmm.MustAlloc()
	tmp := c.gp.MustAlloc()
	c.buf.Broadcast64ToXMM(dst, tmp, pattern64)
	c.gp.Release(tmp)
	return dst
}

// replicatePattern repeats the low `bits`-wide pattern of v across a full
// 64-bit word, the way every VMOVI/*I vector immediate needs to be staged
// before Broadcast64ToXMM's single PUNPCKLQDQ can fill both lanes.
func replicatePattern(v uint64, bits int) uint64 {
	if bits >= 64 {
		return v
	}
	mask := widthMask(bits)
	v &= mask
	out := v
	shift := bits
	for shift < 64 {
		out |= out << uint(shift)
		shift *= 2
	}
	return out
}

// perLaneOp decomposes a vector binary op into independent scalar GP
// operations against each lane's own memory offset — the fallback used
// for every element width/opcode combination the SSE2/AVX ISA has no
// single vector instruction for (lower_arith.go, lower_shift.go). imm
// nil means a BIN-form rj operand; non-nil supplies an IMM-form operand
// replicated identically into every lane (matching the emulator's
// `b = int64(ins.Imm8)` applied per lane unchanged).
func (c *lowerCtx) perLaneOp(ins Instruction, t ElementType, signed bool, imm *int8, compute func(a, b uint8)) {
	lanes := Lanes(t)
	sz := t.Bytes()
	bits := t.Bits()
	for n := 0; n < lanes; n++ {
		off := int32(n * sz)
		a := c.gp.MustAlloc()
		c.buf.LoadGP(a, encRDI, VectorOffset(ins.Ri)+off, bits, signed)
		b := c.gp.MustAlloc()
		if imm != nil {
			c.buf.MovRegImm64(b, int64(*imm))
		} else {
			c.buf.LoadGP(b, encRDI, VectorOffset(ins.Rj)+off, bits, signed)
		}
		compute(a, b)
		c.buf.StoreGP(encRDI, VectorOffset(ins.Rd)+off, a, bits)
		c.gp.Release(a)
		c.gp.Release(b)
	}
}

// scope opens a joint GP+XMM scratch scope, released via the returned
// closure — every lower_*.go entry point defers this first so scratch
// never leaks across instructions even on an early return.
func (c *lowerCtx) scope() func() {
	closeGP := c.gp.Scope()
	closeXMM := c.xmm.Scope()
	return func() {
		closeGP()
		closeXMM()
	}
}
