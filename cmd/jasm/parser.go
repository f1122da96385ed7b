// Package main implements jasm, the line-oriented textual assembler and
// driver for the jitter IR (spec.md §4.8, SPEC_FULL.md §9). Grammar ground
// truth: original_source/c_src/jas.c's label/opcode.type/operand syntax and
// its "//" and "/* */" comment handling — reimplemented with ordinary Go
// string scanning rather than jas.c's hand-rolled bitset character classes,
// since nothing here needs C's absence of a string/regexp standard library.
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tonyrog/jitter"
)

// AsmError is the parser's recoverable failure mode (SPEC_FULL.md §7):
// carries the 1-based source line so the CLI can print
// "file:line: error: message" and exit, the same shape jas.c's own
// assemble()/errptr contract uses.
type AsmError struct {
	Line    int
	Message string
}

func (e *AsmError) Error() string {
	return fmt.Sprintf("%d: %s", e.Line, e.Message)
}

func errAt(line int, format string, args ...any) *AsmError {
	return &AsmError{Line: line, Message: fmt.Sprintf(format, args...)}
}

var mnemonics = map[string]jitter.Op{
	"nop": jitter.NOP, "jmp": jitter.JMP, "jz": jitter.JZ, "jnz": jitter.JNZ,
	"ret": jitter.RET, "vret": jitter.VRET,

	"mov": jitter.MOV, "movi": jitter.MOVI, "vmov": jitter.VMOV, "vmovi": jitter.VMOVI,
	"neg": jitter.NEG, "vneg": jitter.VNEG,
	"bnot": jitter.BNOT, "vbnot": jitter.VBNOT,
	"inv": jitter.INV, // reserved alias of bnot, see ir.go

	"add": jitter.ADD, "addi": jitter.ADDI, "vadd": jitter.VADD, "vaddi": jitter.VADDI,
	"sub": jitter.SUB, "subi": jitter.SUBI, "vsub": jitter.VSUB, "vsubi": jitter.VSUBI,
	"rsub": jitter.RSUB, "rsubi": jitter.RSUBI, "vrsub": jitter.VRSUB, "vrsubi": jitter.VRSUBI,
	"mul": jitter.MUL, "muli": jitter.MULI, "vmul": jitter.VMUL, "vmuli": jitter.VMULI,

	"sll": jitter.SLL, "slli": jitter.SLLI, "vsll": jitter.VSLL, "vslli": jitter.VSLLI,
	"srl": jitter.SRL, "srli": jitter.SRLI, "vsrl": jitter.VSRL, "vsrli": jitter.VSRLI,
	"sra": jitter.SRA, "srai": jitter.SRAI, "vsra": jitter.VSRA, "vsrai": jitter.VSRAI,

	"band": jitter.BAND, "bandi": jitter.BANDI, "vband": jitter.VBAND, "vbandi": jitter.VBANDI,
	"bandn": jitter.BANDN, "bandni": jitter.BANDNI, "vbandn": jitter.VBANDN, "vbandni": jitter.VBANDNI,
	"bor": jitter.BOR, "bori": jitter.BORI, "vbor": jitter.VBOR, "vbori": jitter.VBORI,
	"bxor": jitter.BXOR, "bxori": jitter.BXORI, "vbxor": jitter.VBXOR, "vbxori": jitter.VBXORI,

	"cmplt": jitter.CMPLT, "cmplti": jitter.CMPLTI, "vcmplt": jitter.VCMPLT, "vcmplti": jitter.VCMPLTI,
	"cmple": jitter.CMPLE, "cmplei": jitter.CMPLEI, "vcmple": jitter.VCMPLE, "vcmplei": jitter.VCMPLEI,
	"cmpeq": jitter.CMPEQ, "cmpeqi": jitter.CMPEQI, "vcmpeq": jitter.VCMPEQ, "vcmpeqi": jitter.VCMPEQI,
	"cmpne": jitter.CMPNE, "cmpnei": jitter.CMPNEI, "vcmpne": jitter.VCMPNE, "vcmpnei": jitter.VCMPNEI,
	"cmpgt": jitter.CMPGT, "cmpgti": jitter.CMPGTI, "vcmpgt": jitter.VCMPGT, "vcmpgti": jitter.VCMPGTI,
	"cmpge": jitter.CMPGE, "cmpgei": jitter.CMPGEI, "vcmpge": jitter.VCMPGE, "vcmpgei": jitter.VCMPGEI,
}

var typeNames = map[string]jitter.ElementType{
	"i8": jitter.TypeInt8, "u8": jitter.TypeUint8,
	"i16": jitter.TypeInt16, "u16": jitter.TypeUint16,
	"i32": jitter.TypeInt32, "u32": jitter.TypeUint32,
	"i64": jitter.TypeInt64, "u64": jitter.TypeUint64,
	"f32": jitter.TypeFloat32, "f64": jitter.TypeFloat64,
	"f16": jitter.TypeFloat16, "f8": jitter.TypeFloat8,
}

// Parse assembles src into a Program. On success the returned *AsmError is
// nil and every label reference has been resolved into a relative
// displacement (spec.md §4.1's Imm12 convention, identical to the one
// Emulate/Compile interpret — see lower_ctrl.go).
func Parse(src string) (jitter.Program, *AsmError) {
	lines := strings.Split(stripBlockComments(src), "\n")

	var prog jitter.Program
	labels := map[string]int{}

	type pendingJump struct {
		instr int
		label string
		line  int
	}
	var pending []pendingJump

	for i, raw := range lines {
		lineNo := i + 1
		line := stripLineComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if label := labelPrefix(line); label != "" {
			labels[label] = len(prog)
			line = strings.TrimSpace(line[len(label)+1:])
			if line == "" {
				continue
			}
		}

		fields := splitFields(line)
		mnemonic, typ, perr := splitMnemonic(fields[0], lineNo)
		if perr != nil {
			return nil, perr
		}
		op, ok := mnemonics[mnemonic]
		if !ok {
			return nil, errAt(lineNo, "unknown opcode %q", mnemonic)
		}

		ins, labelRef, perr := buildInstruction(op, typ, fields[1:], lineNo)
		if perr != nil {
			return nil, perr
		}
		if labelRef != "" {
			pending = append(pending, pendingJump{instr: len(prog), label: labelRef, line: lineNo})
		}
		prog = append(prog, ins)
	}

	for _, p := range pending {
		target, ok := labels[p.label]
		if !ok {
			return nil, errAt(p.line, "undefined label %q", p.label)
		}
		disp := target - (p.instr + 1)
		if disp < -2048 || disp > 2047 {
			return nil, errAt(p.line, "jump displacement %d out of range for label %q", disp, p.label)
		}
		prog[p.instr].Imm12 = int16(disp)
	}

	return prog, nil
}

// stripBlockComments replaces /* ... */ spans with spaces, preserving
// newlines so line numbers reported in AsmError stay accurate — jas.c's
// assemble() instead tracks a `comment` flag per fgets() line and skips
// emission while set; doing the replacement up front keeps the rest of the
// parser free of that extra state.
func stripBlockComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	inComment := false
	for i := 0; i < len(src); i++ {
		if !inComment && i+1 < len(src) && src[i] == '/' && src[i+1] == '*' {
			inComment = true
			b.WriteByte(' ')
			b.WriteByte(' ')
			i++
			continue
		}
		if inComment {
			if i+1 < len(src) && src[i] == '*' && src[i+1] == '/' {
				inComment = false
				b.WriteByte(' ')
				b.WriteByte(' ')
				i++
				continue
			}
			if src[i] == '\n' {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
			continue
		}
		b.WriteByte(src[i])
	}
	return b.String()
}

func stripLineComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[:i]
	}
	return line
}

// labelPrefix returns the label name (without its trailing ':') if line
// starts with one, per jas.c's "symbol ':'" grammar — a register (%r..) or
// immediate ($..) can never itself be a label, so their sigils rule a match
// out.
func labelPrefix(line string) string {
	i := strings.IndexAny(line, " \t:")
	if i < 0 || line[i] != ':' {
		return ""
	}
	name := line[:i]
	if name == "" || strings.ContainsAny(name, "%$") {
		return ""
	}
	return name
}

// splitFields splits a (label-stripped) line into its mnemonic followed by
// comma-separated operands.
func splitFields(line string) []string {
	trimmed := strings.TrimSpace(line)
	sp := strings.IndexAny(trimmed, " \t")
	if sp < 0 {
		return []string{trimmed}
	}
	fields := []string{trimmed[:sp]}
	for _, p := range strings.Split(trimmed[sp+1:], ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			fields = append(fields, p)
		}
	}
	return fields
}

// splitMnemonic separates a token like "add.u32" into ("add", TypeUint32).
// A mnemonic with no "." suffix (nop, jmp, ret, ...) types as TypeVoid,
// matching jas.c's DEFAULT_TYPE_ID fallback.
func splitMnemonic(tok string, line int) (string, jitter.ElementType, *AsmError) {
	dot := strings.IndexByte(tok, '.')
	if dot < 0 {
		return tok, jitter.TypeVoid, nil
	}
	name, suffix := tok[:dot], tok[dot+1:]
	t, ok := typeNames[suffix]
	if !ok {
		return "", 0, errAt(line, "unknown type suffix %q", suffix)
	}
	return name, t, nil
}

func parseReg(tok string, vector bool, line int) (uint8, *AsmError) {
	if len(tok) < 2 || tok[0] != '%' {
		return 0, errAt(line, "expected register operand, got %q", tok)
	}
	switch tok[1] {
	case 'v':
		if !vector {
			return 0, errAt(line, "expected scalar register %%rN, got %q", tok)
		}
	case 'r':
		if vector {
			return 0, errAt(line, "expected vector register %%vN, got %q", tok)
		}
	default:
		return 0, errAt(line, "expected register operand, got %q", tok)
	}
	n, err := strconv.Atoi(tok[2:])
	if err != nil || n < 0 || n > 15 {
		return 0, errAt(line, "register index out of range: %q", tok)
	}
	return uint8(n), nil
}

func parseImm(tok string, line int) (int64, *AsmError) {
	if len(tok) < 2 || tok[0] != '$' {
		return 0, errAt(line, "expected immediate operand, got %q", tok)
	}
	v, err := strconv.ParseInt(tok[1:], 10, 64)
	if err != nil {
		return 0, errAt(line, "invalid immediate %q", tok)
	}
	return v, nil
}

func isLabelRef(tok string) bool {
	return tok != "" && tok[0] != '%' && tok[0] != '$'
}

// buildInstruction fills in ins's operand fields from operands, per op's
// shape (spec.md §3's orthogonal opcode encoding: control flow, unary
// move/negate/complement, three-register binary, two-register+immediate).
// Returns the label name as the second result when op is a jump that
// references one, left for Parse's second pass to resolve.
func buildInstruction(op jitter.Op, typ jitter.ElementType, operands []string, line int) (jitter.Instruction, string, *AsmError) {
	ins := jitter.Instruction{Op: op, Type: typ}
	vec := op.IsVec()
	base := op.Base()

	switch base {
	case jitter.NOP:
		if len(operands) != 0 {
			return ins, "", errAt(line, "%s takes no operands", op.Name())
		}
		return ins, "", nil

	case jitter.JMP:
		if len(operands) != 1 || !isLabelRef(operands[0]) {
			return ins, "", errAt(line, "%s expects a single label operand", op.Name())
		}
		return ins, operands[0], nil

	case jitter.JZ, jitter.JNZ:
		if len(operands) != 2 {
			return ins, "", errAt(line, "%s expects a register and a label", op.Name())
		}
		r, perr := parseReg(operands[0], false, line)
		if perr != nil {
			return ins, "", perr
		}
		if !isLabelRef(operands[1]) {
			return ins, "", errAt(line, "%s expects a label as its second operand", op.Name())
		}
		ins.Rd = r
		return ins, operands[1], nil

	case jitter.RET:
		if len(operands) != 1 {
			return ins, "", errAt(line, "%s expects one register operand", op.Name())
		}
		r, perr := parseReg(operands[0], vec, line)
		if perr != nil {
			return ins, "", perr
		}
		ins.Rd = r
		return ins, "", nil

	case jitter.MOV:
		if len(operands) != 2 {
			return ins, "", errAt(line, "%s expects two operands", op.Name())
		}
		rd, perr := parseReg(operands[0], vec, line)
		if perr != nil {
			return ins, "", perr
		}
		ins.Rd = rd
		if op.IsImm() {
			imm, perr := parseImm(operands[1], line)
			if perr != nil {
				return ins, "", perr
			}
			if imm < -2048 || imm > 2047 {
				return ins, "", errAt(line, "immediate %d out of range for %s", imm, op.Name())
			}
			ins.Imm12 = int16(imm)
			return ins, "", nil
		}
		ri, perr := parseReg(operands[1], vec, line)
		if perr != nil {
			return ins, "", perr
		}
		ins.Ri = ri
		return ins, "", nil

	case jitter.NEG, jitter.BNOT, jitter.INV:
		if len(operands) != 2 {
			return ins, "", errAt(line, "%s expects two register operands", op.Name())
		}
		rd, perr := parseReg(operands[0], vec, line)
		if perr != nil {
			return ins, "", perr
		}
		ri, perr := parseReg(operands[1], vec, line)
		if perr != nil {
			return ins, "", perr
		}
		ins.Rd, ins.Ri = rd, ri
		return ins, "", nil
	}

	if op.IsBin() {
		if len(operands) != 3 {
			return ins, "", errAt(line, "%s expects three register operands", op.Name())
		}
		rd, perr := parseReg(operands[0], vec, line)
		if perr != nil {
			return ins, "", perr
		}
		ri, perr := parseReg(operands[1], vec, line)
		if perr != nil {
			return ins, "", perr
		}
		rj, perr := parseReg(operands[2], vec, line)
		if perr != nil {
			return ins, "", perr
		}
		ins.Rd, ins.Ri, ins.Rj = rd, ri, rj
		return ins, "", nil
	}

	if op.IsImm() {
		if len(operands) != 3 {
			return ins, "", errAt(line, "%s expects two registers and an immediate", op.Name())
		}
		rd, perr := parseReg(operands[0], vec, line)
		if perr != nil {
			return ins, "", perr
		}
		ri, perr := parseReg(operands[1], vec, line)
		if perr != nil {
			return ins, "", perr
		}
		imm, perr := parseImm(operands[2], line)
		if perr != nil {
			return ins, "", perr
		}
		if imm < -128 || imm > 127 {
			return ins, "", errAt(line, "immediate %d out of range for %s", imm, op.Name())
		}
		ins.Rd, ins.Ri, ins.Imm8 = rd, ri, int8(imm)
		return ins, "", nil
	}

	return ins, "", errAt(line, "unhandled opcode shape for %s", op.Name())
}
