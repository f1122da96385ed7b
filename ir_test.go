package jitter

import "testing"

func TestOpNameRoundTrip(t *testing.T) {
	cases := []struct {
		op   Op
		want string
	}{
		{NOP, "nop"}, {JMP, "jmp"}, {JZ, "jz"}, {JNZ, "jnz"}, {RET, "ret"},
		{MOV, "mov"}, {MOVI, "movi"}, {VMOV, "vmov"}, {VMOVI, "vmovi"},
		{ADD, "add"}, {ADDI, "addi"}, {VADD, "vadd"}, {VADDI, "vaddi"},
		{CMPGE, "cmpge"}, {VCMPGEI, "vcmpgei"},
		{BANDN, "bandn"}, {VBANDNI, "vbandni"},
	}
	for _, c := range cases {
		if got := c.op.Name(); got != c.want {
			t.Errorf("Op(%#x).Name() = %q, want %q", uint8(c.op), got, c.want)
		}
	}
}

func TestOpFlags(t *testing.T) {
	if !VADD.IsVec() || !VADD.IsBin() || VADD.IsImm() {
		t.Errorf("VADD flags wrong: vec=%v bin=%v imm=%v", VADD.IsVec(), VADD.IsBin(), VADD.IsImm())
	}
	if ADDI.IsBin() || !ADDI.IsImm() || ADDI.IsVec() {
		t.Errorf("ADDI flags wrong: vec=%v bin=%v imm=%v", ADDI.IsVec(), ADDI.IsBin(), ADDI.IsImm())
	}
	if ADD.Base() == SUB.Base() {
		t.Errorf("ADD and SUB must have distinct base opcodes")
	}
	if INV.Base() == BNOT.Base() {
		t.Errorf("INV and BNOT are documented as distinct base opcodes that alias in lowering, not the same base")
	}
}

func TestValidateRegisterRange(t *testing.T) {
	ok := Instruction{Op: ADD, Rd: 15, Ri: 15, Rj: 15}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error for in-range registers: %v", err)
	}
	bad := Instruction{Op: ADD, Rd: 16, Ri: 0, Rj: 0}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for Rd=16")
	}
	badRj := Instruction{Op: ADD, Rd: 0, Ri: 0, Rj: 16}
	if err := badRj.Validate(); err == nil {
		t.Fatalf("expected error for Rj=16 on a BIN op")
	}
}

func TestValidateImmBinMutualExclusion(t *testing.T) {
	ins := Instruction{Op: baseADD | Op(OpImm) | Op(OpBin)}
	if err := ins.Validate(); err == nil {
		t.Fatalf("expected error for an opcode tagged both IMM and BIN")
	}
}

func TestValidateControlFlowExempt(t *testing.T) {
	ins := Instruction{Op: JMP, Imm12: 5000}
	if err := ins.Validate(); err != nil {
		t.Fatalf("control-flow ops should skip the imm/bin exclusivity check: %v", err)
	}
}

func TestInstructionString(t *testing.T) {
	cases := []struct {
		ins  Instruction
		want string
	}{
		{Instruction{Op: NOP}, "nop"},
		{Instruction{Op: JMP, Imm12: -3}, "jmp -3"},
		{Instruction{Op: JZ, Rd: 2, Imm12: 7}, "jz r2, 7"},
		{Instruction{Op: RET, Rd: 4}, "ret r4"},
		{Instruction{Op: VRET, Rd: 4}, "vret v4"},
		{Instruction{Op: ADD, Type: TypeInt32, Rd: 1, Ri: 2, Rj: 3}, "add.i32 r1, r2, r3"},
		{Instruction{Op: ADDI, Type: TypeUint8, Rd: 1, Ri: 2, Imm8: -5}, "addi.u8 r1, r2, -5"},
		{Instruction{Op: VNEG, Type: TypeFloat32, Rd: 0, Ri: 1}, "vneg.f32 v0, v1"},
	}
	for _, c := range cases {
		if got := c.ins.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
