package jitter

// Compile is the code generator's entry point (spec.md §4, §7): lowers an
// IR program into a native x86-64 function, mirroring Emulate's contract
// (same Result shape) while producing a CompiledFunc instead of
// interpreting in place. Ground truth for the overall shape — a single
// forward pass lowering each instruction via a dispatch table, a fixup
// pass resolving jumps once every instruction's offset is known, then an
// executable-page handoff — is original_source/c_src/jitter_x86.cpp's
// top-level compile loop, generalized from its hand-written switch over
// every Op×Type combination into the per-file lowering tables this
// rewrite splits out (lower_arith.go, lower_shift.go, lower_logic.go,
// lower_cmp.go, lower_mov.go, lower_ctrl.go).
type lowerFn func(c *lowerCtx, ins Instruction, t ElementType) error

var lowerTable = map[Op]lowerFn{
	baseMOV:   lowerMov,
	baseNEG:   lowerNeg,
	baseBNOT:  lowerBnot,
	baseINV:   lowerBnot, // reserved alias, ir.go
	baseADD:   lowerAdd,
	baseSUB:   lowerSub,
	baseRSUB:  lowerRsub,
	baseMUL:   lowerMul,
	baseSLL:   lowerSll,
	baseSRL:   lowerSrl,
	baseSRA:   lowerSra,
	baseBAND:  lowerBand,
	baseBANDN: lowerBandn,
	baseBOR:   lowerBor,
	baseBXOR:  lowerBxor,
	baseCMPLT: cmpEntry(baseCMPLT),
	baseCMPLE: cmpEntry(baseCMPLE),
	baseCMPEQ: cmpEntry(baseCMPEQ),
	baseCMPNE: cmpEntry(baseCMPNE),
	baseCMPGT: cmpEntry(baseCMPGT),
	baseCMPGE: cmpEntry(baseCMPGE),
}

func cmpEntry(base Op) lowerFn {
	return func(c *lowerCtx, ins Instruction, t ElementType) error {
		return lowerCmp(c, ins, t, base)
	}
}

// Compile lowers prog against cfg (nil means DefaultConfig()) and returns
// a callable native function plus the Result describing which register
// the program's (last, in program order) RET/VRET instruction names —
// the same bookkeeping Emulate discovers at runtime, reported here at
// compile time since the native ABI itself has no channel to report back
// "which register the program considers its answer" (spec.md §6: the
// function's only return value is the FXSAVE area's address). Programs
// with more than one RET/VRET reachable under different control flow and
// different destination registers are compiled correctly — every RET
// site jumps to the shared epilog exactly like the emulator's pc
// reassignment — but this Result reflects only the textually last one;
// callers of such a program already need to know which register holds
// the answer for whichever path actually ran, the same way they would
// reading raw IR.
func Compile(prog Program, cfg *Config) (*CompiledFunc, Result, error) {
	cfg = cfg.resolve()
	return compileInternal(prog, cfg)
}

func compileInternal(prog Program, cfg *Config) (fn *CompiledFunc, res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CodegenError); ok {
				fn, res, err = nil, Result{}, ce
				return
			}
			panic(r)
		}
	}()

	if cfg.FullRegAlloc {
		cfg.Logger.Warn("FullRegAlloc requested but not wired into Compile; using per-instruction scratch lowering (see DESIGN.md)")
	}

	buf := NewBuf()
	c := &lowerCtx{
		buf:     buf,
		gp:      NewGPScratch(),
		xmm:     NewXMMScratch(),
		cap:     cfg.Capabilities,
		profile: cfg.profile(),
		progLen: len(prog),
	}
	cfg.Logger.Debug("compiling", "instructions", len(prog), "profile", c.profile.String())

	var result Result
	sawRet := false

	for i, ins := range prog {
		if verr := ins.Validate(); verr != nil {
			return nil, Result{}, invalidProgramErr(i, "%s", verr)
		}

		buf.MarkInstr(i)
		c.instr = i
		c.gp.Reset()
		c.xmm.Reset()

		base := ins.Op.Base()
		switch base {
		case baseNOP:
			continue
		case baseJMP:
			if lerr := lowerJmp(c, ins); lerr != nil {
				return nil, Result{}, lerr
			}
			continue
		case baseJZ:
			if lerr := lowerJz(c, ins); lerr != nil {
				return nil, Result{}, lerr
			}
			continue
		case baseJNZ:
			if lerr := lowerJnz(c, ins); lerr != nil {
				return nil, Result{}, lerr
			}
			continue
		case baseRET:
			if lerr := lowerRet(c, ins); lerr != nil {
				return nil, Result{}, lerr
			}
			result = Result{Reg: ins.Rd, Vec: ins.Op.IsVec()}
			sawRet = true
			continue
		}

		t := resolveVoid(ins.Type)
		if !t.IsLowerable() {
			return nil, Result{}, typeErr(i, "%s: type %s is tagged but not lowered", ins.Op.Name(), t)
		}

		lower, ok := lowerTable[base]
		if !ok {
			crash("no lowering registered for opcode %s", ins.Op.Name())
		}
		cfg.Logger.Debug("lower", "instr", i, "op", ins.String(), "type", t.String())
		if lerr := lower(c, ins, t); lerr != nil {
			return nil, Result{}, lerr
		}
	}

	if !sawRet {
		return nil, Result{}, invalidProgramErr(len(prog)-1, "program has no RET/VRET instruction")
	}

	EmitEpilogue(buf, len(prog), cfg)
	if rerr := buf.ResolveJumps(); rerr != nil {
		return nil, Result{}, invalidProgramErr(-1, "%s", rerr)
	}

	compiled, cerr := newCompiledFunc(buf.Bytes())
	if cerr != nil {
		return nil, Result{}, cerr
	}
	return compiled, result, nil
}
