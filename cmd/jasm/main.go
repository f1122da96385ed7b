package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tonyrog/jitter"
)

// jasm is the CLI driver around Parse/Emulate/Compile. Subcommand shape
// (help text, flag layout, error-to-exit-code plumbing) follows
// xyproto-vibe67's cli.go/main.go: a CommandContext-style options struct
// threaded through small cmdXxx functions, each returning an error that
// main turns into an exit code rather than calling os.Exit deep in the
// call stack.

type commandContext struct {
	profile  string
	noFXSave bool
	check    bool
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx := &commandContext{}
	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	fs.StringVar(&ctx.profile, "profile", "auto", "lowering tier: auto, scalar, sse2, or avx")
	fs.BoolVar(&ctx.noFXSave, "no-fxsave", false, "skip the FXSAVE64 epilog footer")
	fs.BoolVar(&ctx.check, "check", false, "cross-check the emulator and the compiled function agree")
	fs.Parse(os.Args[2:])

	args := fs.Args()
	if len(args) != 1 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "assemble":
		err = cmdAssemble(args[0])
	case "run":
		err = cmdRun(ctx, args[0])
	case "dump":
		err = cmdDump(ctx, args[0])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "jasm: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "jasm: %s\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: jasm <command> [flags] <file>

commands:
  assemble <file>   parse and print the IR program listing
  run <file>        assemble, compile, and execute against a zeroed register file
  dump <file>       assemble, compile, and print the result register (no machine code)

flags (run, dump):
  -profile scalar|sse2|avx|auto   pin or auto-select the lowering tier
  -no-fxsave                      skip the FXSAVE64 epilog footer
  -check                          (run only) cross-check against the emulator`)
}

func parseFile(path string) (jitter.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog, perr := Parse(string(src))
	if perr != nil {
		return nil, fmt.Errorf("%s:%d: error: %s", path, perr.Line, perr.Message)
	}
	return prog, nil
}

func cmdAssemble(path string) error {
	prog, err := parseFile(path)
	if err != nil {
		return err
	}
	for i, ins := range prog {
		fmt.Printf("%4d  %s\n", i, ins.String())
	}
	return nil
}

func (ctx *commandContext) config() (*jitter.Config, error) {
	cfg := jitter.DefaultConfig()
	cfg.EmitFXSave = !ctx.noFXSave
	switch ctx.profile {
	case "auto", "":
	case "scalar":
		p := jitter.ProfileScalar
		cfg.ForceProfile = &p
	case "sse2":
		p := jitter.ProfileSSE2
		cfg.ForceProfile = &p
	case "avx":
		p := jitter.ProfileAVX
		cfg.ForceProfile = &p
	default:
		return nil, fmt.Errorf("unknown -profile %q", ctx.profile)
	}
	return cfg, nil
}

func cmdDump(ctx *commandContext, path string) error {
	prog, err := parseFile(path)
	if err != nil {
		return err
	}
	cfg, err := ctx.config()
	if err != nil {
		return err
	}
	compiled, result, cerr := jitter.Compile(prog, cfg)
	if cerr != nil {
		return cerr
	}
	defer compiled.Close()
	fmt.Printf("; result register: %s%d\n", regPrefix(result.Vec), result.Reg)
	return nil
}

func cmdRun(ctx *commandContext, path string) error {
	prog, err := parseFile(path)
	if err != nil {
		return err
	}
	cfg, err := ctx.config()
	if err != nil {
		return err
	}

	compiled, result, cerr := jitter.Compile(prog, cfg)
	if cerr != nil {
		return cerr
	}
	defer compiled.Close()

	rf := jitter.NewRegisterFile()
	compiled.Call(rf)
	printResult("compiled", result, rf)

	if ctx.check {
		erf := jitter.NewRegisterFile()
		eresult, eerr := jitter.Emulate(prog, erf)
		if eerr != nil {
			return fmt.Errorf("emulate: %w", eerr)
		}
		printResult("emulated", eresult, erf)
		if eresult != result {
			return fmt.Errorf("result mismatch: compiled=%+v emulated=%+v", result, eresult)
		}
		if result.Vec {
			if erf.V[result.Reg] != rf.V[result.Reg] {
				return fmt.Errorf("vector register v%d disagrees between backends", result.Reg)
			}
		} else if erf.R[result.Reg] != rf.R[result.Reg] {
			return fmt.Errorf("scalar register r%d disagrees between backends", result.Reg)
		}
	}
	return nil
}

func regPrefix(vec bool) string {
	if vec {
		return "v"
	}
	return "r"
}

func printResult(label string, result jitter.Result, rf *jitter.RegisterFile) {
	if result.Vec {
		fmt.Printf("%s: v%d =", label, result.Reg)
		for n := 0; n < 16; n++ {
			fmt.Printf(" %02x", rf.VectorLane(jitter.TypeUint8, result.Reg, n))
		}
		fmt.Println()
	} else {
		fmt.Printf("%s: r%d = %d (0x%x)\n", label, result.Reg, rf.R[result.Reg], rf.R[result.Reg])
	}
}
