package jitter

import (
	"fmt"
	"math"
)

// maxEmulateSteps bounds runaway IR programs (a malformed JMP/JNZ loop)
// so Emulate always returns instead of spinning forever in a test run.
const maxEmulateSteps = 10_000_000

// Result names the register a RET/VRET instruction terminated on: which
// register file (scalar or vector) and which of the sixteen slots.
type Result struct {
	Reg uint8
	Vec bool
}

// Emulate is the reference interpreter (spec.md §4.2): it executes prog
// against rf starting at instruction 0 with a program counter, and is the
// oracle the code generator's native output is checked against. Undefined
// opcodes halt without updating state, matching spec.md §5's "no recovery
// from invalid IR" contract — Emulate returns an error rather than the
// C++ original's abort(), per the compile-time-fatal decision recorded in
// DESIGN.md.
func Emulate(prog Program, rf *RegisterFile) (Result, error) {
	pc := 0
	steps := 0
	for {
		if pc < 0 || pc >= len(prog) {
			return Result{}, fmt.Errorf("jitter: pc %d out of range (program has %d instructions)", pc, len(prog))
		}
		steps++
		if steps > maxEmulateSteps {
			return Result{}, fmt.Errorf("jitter: exceeded %d steps, probable infinite loop", maxEmulateSteps)
		}

		ins := prog[pc]
		next := pc + 1
		base := ins.Op.Base()

		switch base {
		case baseNOP:
			// no-op

		case baseJMP:
			next = pc + 1 + int(ins.Imm12)

		case baseJZ:
			if resolveVoid(ins.Type).IsFloat() {
				return Result{}, fmt.Errorf("jitter: %s: condition register must not be float-typed", ins.Op.Name())
			}
			if rf.R[ins.Rd] == 0 {
				next = pc + 1 + int(ins.Imm12)
			}

		case baseJNZ:
			if resolveVoid(ins.Type).IsFloat() {
				return Result{}, fmt.Errorf("jitter: %s: condition register must not be float-typed", ins.Op.Name())
			}
			if rf.R[ins.Rd] != 0 {
				next = pc + 1 + int(ins.Imm12)
			}

		case baseRET:
			return Result{Reg: ins.Rd, Vec: ins.Op.IsVec()}, nil

		default:
			if err := emulateOne(rf, ins); err != nil {
				return Result{}, err
			}
		}
		pc = next
	}
}

func emulateOne(rf *RegisterFile, ins Instruction) error {
	t := resolveVoid(ins.Type)
	if !t.IsLowerable() {
		return fmt.Errorf("jitter: %s: type %s is tagged but not lowerable", ins.Op.Name(), t)
	}
	if ins.Op.IsVec() {
		return emulateVector(rf, ins, t)
	}
	return emulateScalar(rf, ins, t)
}

// widthMask returns a mask with the low `bits` set, used to fold a signed
// Go int64 intermediate back into the element's native width before it's
// handed to SetScalar (which itself truncates, but comparisons need the
// mask explicitly to build an all-ones result).
func widthMask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bits)) - 1
}

// ---- scalar path ----

func emulateScalar(rf *RegisterFile, ins Instruction, t ElementType) error {
	base := ins.Op.Base()

	switch base {
	case baseMOV:
		if ins.Op.IsImm() {
			rf.SetScalar(t, ins.Rd, uint64(int64(ins.Imm12)))
		} else {
			rf.SetScalar(t, ins.Rd, rf.GetScalar(t, ins.Ri))
		}
		return nil

	case baseNEG:
		if t.IsFloat() {
			rf.SetScalarFloat(t, ins.Rd, -rf.ScalarFloat(t, ins.Ri))
		} else {
			rf.SetScalar(t, ins.Rd, uint64(-rf.ScalarSigned(t, ins.Ri)))
		}
		return nil

	case baseBNOT, baseINV:
		rf.SetScalar(t, ins.Rd, ^rf.GetScalar(t, ins.Ri))
		return nil
	}

	// remaining base opcodes are two-source-operand forms
	a := rf.GetScalar(t, ins.Ri)
	var b uint64
	if ins.Op.IsBin() {
		b = rf.GetScalar(t, ins.Rj)
	} else {
		b = uint64(int64(ins.Imm8))
	}

	if t.IsFloat() {
		fa := rf.ScalarFloat(t, ins.Ri)
		var fb float64
		if ins.Op.IsBin() {
			fb = rf.ScalarFloat(t, ins.Rj)
		} else {
			fb = float64(ins.Imm8)
		}
		return emulateFloatBinary(rf, base, t, ins.Rd, fa, fb)
	}

	signed := t.BaseKind() == KindSigned
	sa := rf.ScalarSigned(t, ins.Ri)
	var sb int64
	if ins.Op.IsBin() {
		sb = rf.ScalarSigned(t, ins.Rj)
	} else {
		sb = int64(ins.Imm8)
	}
	count := uint(b) & uint(t.Bits()-1)

	switch base {
	case baseADD:
		rf.SetScalar(t, ins.Rd, a+b)
	case baseSUB:
		rf.SetScalar(t, ins.Rd, a-b)
	case baseRSUB:
		rf.SetScalar(t, ins.Rd, b-a)
	case baseMUL:
		rf.SetScalar(t, ins.Rd, a*b)
	case baseSLL:
		rf.SetScalar(t, ins.Rd, a<<count)
	case baseSRL:
		rf.SetScalar(t, ins.Rd, a>>count)
	case baseSRA:
		rf.SetScalar(t, ins.Rd, uint64(sa>>count))
	case baseBAND:
		rf.SetScalar(t, ins.Rd, a&b)
	case baseBANDN:
		rf.SetScalar(t, ins.Rd, ^a&b)
	case baseBOR:
		rf.SetScalar(t, ins.Rd, a|b)
	case baseBXOR:
		rf.SetScalar(t, ins.Rd, a^b)
	case baseCMPLT, baseCMPLE, baseCMPEQ, baseCMPNE, baseCMPGT, baseCMPGE:
		var ok bool
		if signed {
			ok = compareSigned(base, sa, sb)
		} else {
			ok = compareUnsigned(base, a, b)
		}
		rf.SetScalar(t, ins.Rd, boolMask(ok, t.Bits()))
	default:
		return fmt.Errorf("jitter: unhandled scalar opcode %s", ins.Op.Name())
	}
	return nil
}

func emulateFloatBinary(rf *RegisterFile, base Op, t ElementType, rd uint8, a, b float64) error {
	switch base {
	case baseADD:
		rf.SetScalarFloat(t, rd, a+b)
	case baseSUB:
		rf.SetScalarFloat(t, rd, a-b)
	case baseRSUB:
		rf.SetScalarFloat(t, rd, b-a)
	case baseMUL:
		rf.SetScalarFloat(t, rd, a*b)
	case baseBAND:
		rf.SetScalar(t, rd, floatBits(t, a)&floatBits(t, b))
	case baseBANDN:
		rf.SetScalar(t, rd, ^floatBits(t, a)&floatBits(t, b))
	case baseBOR:
		rf.SetScalar(t, rd, floatBits(t, a)|floatBits(t, b))
	case baseBXOR:
		rf.SetScalar(t, rd, floatBits(t, a)^floatBits(t, b))
	case baseCMPLT:
		rf.SetScalar(t, rd, boolMask(a < b, t.Bits()))
	case baseCMPLE:
		rf.SetScalar(t, rd, boolMask(a <= b, t.Bits()))
	case baseCMPEQ:
		rf.SetScalar(t, rd, boolMask(a == b, t.Bits()))
	case baseCMPNE:
		rf.SetScalar(t, rd, boolMask(a != b, t.Bits()))
	case baseCMPGT:
		rf.SetScalar(t, rd, boolMask(a > b, t.Bits()))
	case baseCMPGE:
		rf.SetScalar(t, rd, boolMask(a >= b, t.Bits()))
	case baseSLL, baseSRL, baseSRA:
		return fmt.Errorf("jitter: shift opcode is not defined for float type %s", t)
	default:
		return fmt.Errorf("jitter: unhandled float opcode base %#x", uint8(base))
	}
	return nil
}

func floatBits(t ElementType, v float64) uint64 {
	if t == TypeFloat32 {
		return uint64(math.Float32bits(float32(v)))
	}
	return math.Float64bits(v)
}

func compareSigned(base Op, a, b int64) bool {
	switch base {
	case baseCMPLT:
		return a < b
	case baseCMPLE:
		return a <= b
	case baseCMPEQ:
		return a == b
	case baseCMPNE:
		return a != b
	case baseCMPGT:
		return a > b
	case baseCMPGE:
		return a >= b
	}
	return false
}

func compareUnsigned(base Op, a, b uint64) bool {
	switch base {
	case baseCMPLT:
		return a < b
	case baseCMPLE:
		return a <= b
	case baseCMPEQ:
		return a == b
	case baseCMPNE:
		return a != b
	case baseCMPGT:
		return a > b
	case baseCMPGE:
		return a >= b
	}
	return false
}

func boolMask(ok bool, bits int) uint64 {
	if ok {
		return widthMask(bits)
	}
	return 0
}

// ---- vector path ----

func emulateVector(rf *RegisterFile, ins Instruction, t ElementType) error {
	lanes := Lanes(t)
	base := ins.Op.Base()

	switch base {
	case baseMOV:
		if ins.Op.IsImm() {
			for n := 0; n < lanes; n++ {
				rf.SetVectorLane(t, ins.Rd, n, uint64(int64(ins.Imm12)))
			}
		} else {
			rf.V[ins.Rd] = rf.V[ins.Ri]
		}
		return nil

	case baseNEG:
		for n := 0; n < lanes; n++ {
			if t.IsFloat() {
				rf.SetVectorLaneFloat(t, ins.Rd, n, -rf.VectorLaneFloat(t, ins.Ri, n))
			} else {
				rf.SetVectorLane(t, ins.Rd, n, uint64(-rf.VectorLaneSigned(t, ins.Ri, n)))
			}
		}
		return nil

	case baseBNOT, baseINV:
		for n := 0; n < lanes; n++ {
			rf.SetVectorLane(t, ins.Rd, n, ^rf.VectorLane(t, ins.Ri, n))
		}
		return nil
	}

	// Shift count: register forms take a single count from the low 64
	// bits of v[rj] applied uniformly across every lane (PSLLQ/PSRLQ/
	// PSRAQ-family semantics); immediate forms use Imm8 directly.
	var shiftCount uint64
	if base == baseSLL || base == baseSRL || base == baseSRA {
		if ins.Op.IsBin() {
			shiftCount = rf.VectorLane(TypeUint64, ins.Rj, 0)
		} else {
			shiftCount = uint64(uint8(ins.Imm8))
		}
	}

	for n := 0; n < lanes; n++ {
		if t.IsFloat() {
			fa := rf.VectorLaneFloat(t, ins.Ri, n)
			var fb float64
			if base != baseBAND && base != baseBANDN && base != baseBOR && base != baseBXOR {
				if ins.Op.IsBin() {
					fb = rf.VectorLaneFloat(t, ins.Rj, n)
				} else {
					fb = float64(ins.Imm8)
				}
				if err := emulateFloatVectorLane(rf, base, t, ins.Rd, n, fa, fb); err != nil {
					return err
				}
				continue
			}
			a := rf.VectorLane(t, ins.Ri, n)
			var b uint64
			if ins.Op.IsBin() {
				b = rf.VectorLane(t, ins.Rj, n)
			} else {
				b = uint64(int64(ins.Imm8))
			}
			if err := emulateBitwiseVectorLane(rf, base, t, ins.Rd, n, a, b); err != nil {
				return err
			}
			continue
		}

		a := rf.VectorLane(t, ins.Ri, n)
		sa := rf.VectorLaneSigned(t, ins.Ri, n)
		var b uint64
		var sb int64
		if ins.Op.IsBin() {
			b = rf.VectorLane(t, ins.Rj, n)
			sb = rf.VectorLaneSigned(t, ins.Rj, n)
		} else {
			b = uint64(int64(ins.Imm8))
			sb = int64(ins.Imm8)
		}
		signed := t.BaseKind() == KindSigned

		switch base {
		case baseADD:
			rf.SetVectorLane(t, ins.Rd, n, a+b)
		case baseSUB:
			rf.SetVectorLane(t, ins.Rd, n, a-b)
		case baseRSUB:
			rf.SetVectorLane(t, ins.Rd, n, b-a)
		case baseMUL:
			rf.SetVectorLane(t, ins.Rd, n, a*b)
		case baseSLL:
			rf.SetVectorLane(t, ins.Rd, n, shiftLeft(a, shiftCount, t.Bits()))
		case baseSRL:
			rf.SetVectorLane(t, ins.Rd, n, shiftRightLogical(a, shiftCount, t.Bits()))
		case baseSRA:
			rf.SetVectorLane(t, ins.Rd, n, uint64(shiftRightArith(sa, shiftCount, t.Bits())))
		case baseBAND:
			rf.SetVectorLane(t, ins.Rd, n, a&b)
		case baseBANDN:
			rf.SetVectorLane(t, ins.Rd, n, ^a&b)
		case baseBOR:
			rf.SetVectorLane(t, ins.Rd, n, a|b)
		case baseBXOR:
			rf.SetVectorLane(t, ins.Rd, n, a^b)
		case baseCMPLT, baseCMPLE, baseCMPEQ, baseCMPNE, baseCMPGT, baseCMPGE:
			var ok bool
			if signed {
				ok = compareSigned(base, sa, sb)
			} else {
				ok = compareUnsigned(base, a, b)
			}
			rf.SetVectorLane(t, ins.Rd, n, boolMask(ok, t.Bits()))
		default:
			return fmt.Errorf("jitter: unhandled vector opcode %s", ins.Op.Name())
		}
	}
	return nil
}

func emulateFloatVectorLane(rf *RegisterFile, base Op, t ElementType, rd uint8, n int, a, b float64) error {
	switch base {
	case baseADD:
		rf.SetVectorLaneFloat(t, rd, n, a+b)
	case baseSUB:
		rf.SetVectorLaneFloat(t, rd, n, a-b)
	case baseRSUB:
		rf.SetVectorLaneFloat(t, rd, n, b-a)
	case baseMUL:
		rf.SetVectorLaneFloat(t, rd, n, a*b)
	case baseCMPLT:
		rf.SetVectorLane(t, rd, n, boolMask(a < b, t.Bits()))
	case baseCMPLE:
		rf.SetVectorLane(t, rd, n, boolMask(a <= b, t.Bits()))
	case baseCMPEQ:
		rf.SetVectorLane(t, rd, n, boolMask(a == b, t.Bits()))
	case baseCMPNE:
		rf.SetVectorLane(t, rd, n, boolMask(a != b, t.Bits()))
	case baseCMPGT:
		rf.SetVectorLane(t, rd, n, boolMask(a > b, t.Bits()))
	case baseCMPGE:
		rf.SetVectorLane(t, rd, n, boolMask(a >= b, t.Bits()))
	case baseSLL, baseSRL, baseSRA:
		return fmt.Errorf("jitter: shift opcode is not defined for float type %s", t)
	default:
		return fmt.Errorf("jitter: unhandled float vector opcode base %#x", uint8(base))
	}
	return nil
}

func emulateBitwiseVectorLane(rf *RegisterFile, base Op, t ElementType, rd uint8, n int, a, b uint64) error {
	switch base {
	case baseBAND:
		rf.SetVectorLane(t, rd, n, a&b)
	case baseBANDN:
		rf.SetVectorLane(t, rd, n, ^a&b)
	case baseBOR:
		rf.SetVectorLane(t, rd, n, a|b)
	case baseBXOR:
		rf.SetVectorLane(t, rd, n, a^b)
	default:
		return fmt.Errorf("jitter: unhandled bitwise vector opcode base %#x", uint8(base))
	}
	return nil
}

// shiftLeft/shiftRightLogical/shiftRightArith mirror the clamped-count
// semantics of the PSLL/PSRL/PSRA instruction family: a count at or beyond
// the element width produces an all-zero (logical) or sign-filled
// (arithmetic) result rather than Go's undefined-for-count>=width shift.
func shiftLeft(a, count uint64, bits int) uint64 {
	if count >= uint64(bits) {
		return 0
	}
	return (a << count) & widthMask(bits)
}

func shiftRightLogical(a, count uint64, bits int) uint64 {
	if count >= uint64(bits) {
		return 0
	}
	return (a & widthMask(bits)) >> count
}

func shiftRightArith(a int64, count uint64, bits int) int64 {
	if count >= uint64(bits) {
		if a < 0 {
			return -1
		}
		return 0
	}
	return a >> count
}
