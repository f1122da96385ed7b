package main

import (
	"strings"
	"testing"

	"github.com/tonyrog/jitter"
)

func TestParseBasicProgram(t *testing.T) {
	src := `
		// load two constants and add them
		movi.i32 %r1, $10
		movi.i32 %r2, $20
		add.i32  %r3, %r1, %r2
		ret %r3
	`
	prog, perr := Parse(src)
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	if len(prog) != 4 {
		t.Fatalf("expected 4 instructions, got %d", len(prog))
	}
	if prog[2].Op != jitter.ADD || prog[2].Rd != 3 || prog[2].Ri != 1 || prog[2].Rj != 2 {
		t.Errorf("add instruction decoded wrong: %+v", prog[2])
	}
	if prog[3].Op != jitter.RET || prog[3].Rd != 3 {
		t.Errorf("ret instruction decoded wrong: %+v", prog[3])
	}
}

func TestParseBlockAndLineComments(t *testing.T) {
	src := "/* header\n   spanning lines */ nop // trailing\nret %r0\n"
	prog, perr := Parse(src)
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	if len(prog) != 2 || prog[0].Op != jitter.NOP {
		t.Fatalf("comment stripping broke parsing: %+v", prog)
	}
}

func TestParseForwardLabel(t *testing.T) {
	src := `
		jmp done
		movi.i64 %r1, $1
	done:
		ret %r1
	`
	prog, perr := Parse(src)
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	// jmp at index 0 must land on "done" at index 2: disp = 2 - (0+1) = 1.
	if prog[0].Imm12 != 1 {
		t.Errorf("forward label resolved to disp %d, want 1", prog[0].Imm12)
	}
}

func TestParseBackwardLabel(t *testing.T) {
	src := `
	loop:
		subi.i64 %r1, %r1, $1
		jnz %r1, loop
		ret %r1
	`
	prog, perr := Parse(src)
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	// jnz at index 1 must land on "loop" at index 0: disp = 0 - (1+1) = -2.
	if prog[1].Imm12 != -2 {
		t.Errorf("backward label resolved to disp %d, want -2", prog[1].Imm12)
	}
}

func TestParseUndefinedLabel(t *testing.T) {
	_, perr := Parse("jmp nowhere\n")
	if perr == nil {
		t.Fatalf("expected an error for an undefined label")
	}
}

func TestParseUnknownOpcode(t *testing.T) {
	_, perr := Parse("frobnicate %r1, %r2\n")
	if perr == nil || !strings.Contains(perr.Message, "unknown opcode") {
		t.Fatalf("expected unknown opcode error, got %v", perr)
	}
}

func TestParseUnknownTypeSuffix(t *testing.T) {
	_, perr := Parse("add.i128 %r1, %r2, %r3\n")
	if perr == nil || !strings.Contains(perr.Message, "unknown type suffix") {
		t.Fatalf("expected unknown type suffix error, got %v", perr)
	}
}

func TestParseWrongRegisterClass(t *testing.T) {
	_, perr := Parse("vadd.i32 %r1, %v2, %v3\n")
	if perr == nil {
		t.Fatalf("expected an error mixing scalar and vector registers in a vector op")
	}
}

func TestParseOutOfRangeImmediate(t *testing.T) {
	_, perr := Parse("addi.i32 %r1, %r2, $200\n")
	if perr == nil {
		t.Fatalf("expected an error for an Imm8 operand out of [-128,127]")
	}
}

func TestParseOutOfRangeMoviImmediate(t *testing.T) {
	_, perr := Parse("movi.i32 %r1, $5000\n")
	if perr == nil {
		t.Fatalf("expected an error for an Imm12 operand out of [-2048,2047]")
	}
}

func TestParseVectorInstruction(t *testing.T) {
	src := "vaddi.f32 %v1, %v2, $3\nvret %v1\n"
	prog, perr := Parse(src)
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	if prog[0].Op != jitter.VADDI || prog[0].Type != jitter.TypeFloat32 {
		t.Errorf("vector immediate instruction decoded wrong: %+v", prog[0])
	}
	if prog[1].Op != jitter.VRET || prog[1].Rd != 1 {
		t.Errorf("vret decoded wrong: %+v", prog[1])
	}
}

func TestParseLabelWithColonNoSpace(t *testing.T) {
	src := "start:nop\nret %r0\n"
	prog, perr := Parse(src)
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	if len(prog) != 2 {
		t.Fatalf("expected label prefix to still yield the nop on the same line, got %d instructions", len(prog))
	}
}
