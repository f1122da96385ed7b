package jitter

import "testing"

func runProgram(t *testing.T, prog Program, rf *RegisterFile) Result {
	t.Helper()
	res, err := Emulate(prog, rf)
	if err != nil {
		t.Fatalf("Emulate: %v", err)
	}
	return res
}

func TestEmulateScalarArithmetic(t *testing.T) {
	cases := []struct {
		name string
		op   Op
		a, b uint64
		want uint64
	}{
		{"add", ADD, 2, 3, 5},
		{"sub", SUB, 5, 3, 2},
		{"rsub", RSUB, 5, 3, 0xFFFFFFFE}, // 3 - 5 wrapped to 32 bits
		{"mul", MUL, 6, 7, 42},
		{"sll", SLL, 1, 4, 16},
		{"srl", SRL, 0x80, 4, 0x08},
		{"band", BAND, 0xF0, 0x3C, 0x30},
		{"bandn", BANDN, 0xF0, 0x3C, 0x0C},
		{"bor", BOR, 0xF0, 0x0F, 0xFF},
		{"bxor", BXOR, 0xFF, 0x0F, 0xF0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rf := NewRegisterFile()
			rf.SetScalar(TypeUint32, 1, c.a)
			rf.SetScalar(TypeUint32, 2, c.b)
			prog := Program{
				{Op: c.op, Type: TypeUint32, Rd: 3, Ri: 1, Rj: 2},
				{Op: RET, Rd: 3},
			}
			res := runProgram(t, prog, rf)
			if res.Vec || res.Reg != 3 {
				t.Fatalf("unexpected Result %+v", res)
			}
			if got := rf.GetScalar(TypeUint32, 3); got != c.want {
				t.Errorf("%s(%#x,%#x) = %#x, want %#x", c.name, c.a, c.b, got, c.want)
			}
		})
	}
}

func TestEmulateScalarSRA(t *testing.T) {
	rf := NewRegisterFile()
	rf.SetScalar(TypeInt32, 1, ^uint64(15)) // -16 in two's complement
	rf.SetScalar(TypeInt32, 2, 2)
	prog := Program{
		{Op: SRA, Type: TypeInt32, Rd: 3, Ri: 1, Rj: 2},
		{Op: RET, Rd: 3},
	}
	runProgram(t, prog, rf)
	if got := rf.ScalarSigned(TypeInt32, 3); got != -4 {
		t.Errorf("SRA(-16, 2) = %d, want -4", got)
	}
}

func TestEmulateScalarCompare(t *testing.T) {
	cases := []struct {
		op   Op
		a, b int64
		want bool
	}{
		{CMPLT, 1, 2, true}, {CMPLT, 2, 1, false},
		{CMPLE, 2, 2, true}, {CMPEQ, 2, 2, true}, {CMPNE, 2, 3, true},
		{CMPGT, 3, 2, true}, {CMPGE, 2, 2, true},
	}
	for _, c := range cases {
		rf := NewRegisterFile()
		rf.SetScalar(TypeInt32, 1, uint64(int64(int32(c.a))))
		rf.SetScalar(TypeInt32, 2, uint64(int64(int32(c.b))))
		prog := Program{
			{Op: c.op, Type: TypeInt32, Rd: 3, Ri: 1, Rj: 2},
			{Op: RET, Rd: 3},
		}
		runProgram(t, prog, rf)
		got := rf.GetScalar(TypeInt32, 3) != 0
		if got != c.want {
			t.Errorf("%s(%d,%d) = %v, want %v", c.op.Name(), c.a, c.b, got, c.want)
		}
	}
}

func TestEmulateScalarImmediate(t *testing.T) {
	rf := NewRegisterFile()
	rf.SetScalar(TypeInt32, 1, 10)
	prog := Program{
		{Op: ADDI, Type: TypeInt32, Rd: 2, Ri: 1, Imm8: -3},
		{Op: RET, Rd: 2},
	}
	runProgram(t, prog, rf)
	if got := rf.ScalarSigned(TypeInt32, 2); got != 7 {
		t.Errorf("ADDI(10, -3) = %d, want 7", got)
	}
}

func TestEmulateScalarNegBnot(t *testing.T) {
	rf := NewRegisterFile()
	rf.SetScalar(TypeInt32, 1, uint64(int64(int32(5))))
	prog := Program{
		{Op: NEG, Type: TypeInt32, Rd: 2, Ri: 1},
		{Op: BNOT, Type: TypeInt32, Rd: 3, Ri: 1},
		{Op: RET, Rd: 3},
	}
	runProgram(t, prog, rf)
	if got := rf.ScalarSigned(TypeInt32, 2); got != -5 {
		t.Errorf("NEG(5) = %d, want -5", got)
	}
	if got := rf.GetScalar(TypeInt32, 3); got != uint64(uint32(^uint32(5))) {
		t.Errorf("BNOT(5) = %#x, want %#x", got, uint32(^uint32(5)))
	}
}

func TestEmulateScalarMov(t *testing.T) {
	rf := NewRegisterFile()
	prog := Program{
		{Op: MOVI, Type: TypeInt64, Rd: 1, Imm12: 100},
		{Op: MOV, Type: TypeInt64, Rd: 2, Ri: 1},
		{Op: RET, Rd: 2},
	}
	runProgram(t, prog, rf)
	if got := rf.ScalarSigned(TypeInt64, 2); got != 100 {
		t.Errorf("mov chain produced %d, want 100", got)
	}
}

func TestEmulateScalarFloat(t *testing.T) {
	rf := NewRegisterFile()
	rf.SetScalarFloat(TypeFloat64, 1, 3.5)
	rf.SetScalarFloat(TypeFloat64, 2, 1.5)
	prog := Program{
		{Op: ADD, Type: TypeFloat64, Rd: 3, Ri: 1, Rj: 2},
		{Op: RET, Rd: 3},
	}
	runProgram(t, prog, rf)
	if got := rf.ScalarFloat(TypeFloat64, 3); got != 5.0 {
		t.Errorf("float add = %v, want 5.0", got)
	}
}

func TestEmulateVectorArithmetic(t *testing.T) {
	rf := NewRegisterFile()
	for n := 0; n < 4; n++ {
		rf.SetVectorLane(TypeInt32, 1, n, uint64(int64(int32(n+1))))
		rf.SetVectorLane(TypeInt32, 2, n, uint64(int64(int32(10))))
	}
	prog := Program{
		{Op: VADD, Type: TypeInt32, Rd: 3, Ri: 1, Rj: 2},
		{Op: VRET, Rd: 3},
	}
	res := runProgram(t, prog, rf)
	if !res.Vec || res.Reg != 3 {
		t.Fatalf("unexpected Result %+v", res)
	}
	for n := 0; n < 4; n++ {
		want := uint64(int64(int32(n + 1 + 10)))
		if got := rf.VectorLane(TypeInt32, 3, n); got != want {
			t.Errorf("lane %d = %#x, want %#x", n, got, want)
		}
	}
}

func TestEmulateVectorShiftBroadcastCount(t *testing.T) {
	rf := NewRegisterFile()
	for n := 0; n < 4; n++ {
		rf.SetVectorLane(TypeUint32, 1, n, uint64(1))
	}
	rf.SetVectorLane(TypeUint64, 2, 0, 3)
	prog := Program{
		{Op: VSLL, Type: TypeUint32, Rd: 3, Ri: 1, Rj: 2},
		{Op: VRET, Rd: 3},
	}
	runProgram(t, prog, rf)
	for n := 0; n < 4; n++ {
		if got := rf.VectorLane(TypeUint32, 3, n); got != 8 {
			t.Errorf("lane %d = %d, want 8", n, got)
		}
	}
}

func TestEmulateVectorMovImmBroadcast(t *testing.T) {
	rf := NewRegisterFile()
	prog := Program{
		{Op: VMOVI, Type: TypeInt16, Rd: 1, Imm12: -7},
		{Op: VRET, Rd: 1},
	}
	runProgram(t, prog, rf)
	for n := 0; n < Lanes(TypeInt16); n++ {
		if got := rf.VectorLaneSigned(TypeInt16, 1, n); got != -7 {
			t.Errorf("lane %d = %d, want -7", n, got)
		}
	}
}

func TestEmulateControlFlowLoop(t *testing.T) {
	// r1 = 0; r2 = counter (5); loop: r1 += 1; r2 -= 1; jnz r2, loop; ret r1
	rf := NewRegisterFile()
	rf.SetScalar(TypeInt64, 2, 5)
	one := Instruction{Op: MOVI, Type: TypeInt64, Rd: 3, Imm12: 1}
	prog := Program{
		one,
		{Op: ADD, Type: TypeInt64, Rd: 1, Ri: 1, Rj: 3},
		{Op: SUB, Type: TypeInt64, Rd: 2, Ri: 2, Rj: 3},
		{Op: JNZ, Rd: 2, Imm12: -3},
		{Op: RET, Rd: 1},
	}
	runProgram(t, prog, rf)
	if got := rf.ScalarSigned(TypeInt64, 1); got != 5 {
		t.Errorf("loop counted to %d, want 5", got)
	}
}

func TestEmulateJmpAndJz(t *testing.T) {
	// index: 0 jmp -> 2, 1 skipped, 2 sets r1=1, 3 jz r1 (false, r1!=0) ->
	// falls through to 4 which overwrites r2, 5 ret r2.
	rf := NewRegisterFile()
	prog := Program{
		{Op: JMP, Imm12: 1},
		{Op: MOVI, Type: TypeInt64, Rd: 1, Imm12: 99}, // skipped
		{Op: MOVI, Type: TypeInt64, Rd: 1, Imm12: 1},
		{Op: JZ, Rd: 1, Imm12: 1},
		{Op: MOVI, Type: TypeInt64, Rd: 2, Imm12: 42},
		{Op: RET, Rd: 2},
	}
	rf.SetScalar(TypeInt64, 2, 7)
	runProgram(t, prog, rf)
	if got := rf.ScalarSigned(TypeInt64, 1); got != 1 {
		t.Fatalf("jmp should have skipped the r1=99 write, r1 = %d, want 1", got)
	}
	if got := rf.ScalarSigned(TypeInt64, 2); got != 42 {
		t.Errorf("JZ on nonzero r1 should fall through to the overwrite, r2 = %d, want 42", got)
	}
}

func TestEmulateOutOfRangePC(t *testing.T) {
	rf := NewRegisterFile()
	prog := Program{{Op: JMP, Imm12: 100}}
	if _, err := Emulate(prog, rf); err == nil {
		t.Errorf("expected an error for a jump past the end of the program")
	}
}
