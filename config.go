package jitter

import "log/slog"

// Config holds the knobs Compile consults beyond the IR program itself.
// Ground truth: vibe67's CompileOptions/CommandContext plain-struct style
// (compiler_state.go, cli.go) — this package follows the same "struct of
// named fields with a constructor filling defaults" shape rather than
// functional options, since that's what the teacher actually uses.
type Config struct {
	// Capabilities gates which ISA extensions the generator may use. Nil
	// means DetectCapabilities().
	Capabilities *Capabilities

	// ForceProfile, if non-nil, pins the lowering tier regardless of what
	// Capabilities would otherwise select — used by tests that must
	// exercise the scalar or SSE2 path on an AVX2 host.
	ForceProfile *Profile

	// FullRegAlloc requests the LRU RegAlloc path (spec.md §4.5's optional
	// full allocator) in place of the default per-instruction
	// memory-resident lowering (every operand reloaded from the register
	// file and every result stored back on each instruction, see
	// lower.go). Not yet wired into Compile — see DESIGN.md's
	// "Simplifications and scope decisions" — so Compile's output is
	// currently identical regardless of this flag; set, it only adds a
	// one-line log warning.
	FullRegAlloc bool

	// EmitFXSave controls whether the framer appends the FXSAVE64
	// footer (spec.md §4.6 step 5). The host's FXSR feature is not
	// checked; this flag alone decides.
	EmitFXSave bool

	// Logger receives structured diagnostics (the selected profile and
	// one debug line per lowered instruction). Defaults to a discard
	// logger.
	Logger *slog.Logger
}

// DefaultConfig returns the Config Compile uses when the caller passes nil:
// auto-detected capabilities, highest available profile, single-pass
// register file load/store framing, FXSAVE footer enabled, logging
// discarded.
func DefaultConfig() *Config {
	return &Config{
		Capabilities: DetectCapabilities(),
		FullRegAlloc: false,
		EmitFXSave:   true,
		Logger:       discardLogger(),
	}
}

// resolve fills in any zero-valued fields of a caller-supplied Config with
// defaults, without mutating the caller's value.
func (c *Config) resolve() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	if out.Capabilities == nil {
		out.Capabilities = DetectCapabilities()
	}
	if out.Logger == nil {
		out.Logger = discardLogger()
	}
	return &out
}

func (c *Config) profile() Profile {
	if c.ForceProfile != nil {
		return *c.ForceProfile
	}
	return c.Capabilities.SelectProfile()
}
