package jitter

import "golang.org/x/sys/cpu"

// ISA is a bitset over the x86 vector-extension families the code generator
// may target. Orthogonal gate design per spec.md §4.3: one bitset of what
// the host actually has (Capabilities.available), one of what the caller
// currently permits (Capabilities.enabled) — disabling an ancestor set
// (e.g. AVX) forces the SSE2 path even on AVX-capable hosts, which is how
// the test harness exercises every lowering path on a single machine.
type ISA uint16

const (
	ISAMMX ISA = 1 << iota
	ISASSE
	ISASSE2
	ISASSE3
	ISASSSE3
	ISASSE4_1
	ISASSE4_2
	ISAAVX
	ISAAVX2

	isaAll = ISAMMX | ISASSE | ISASSE2 | ISASSE3 | ISASSSE3 | ISASSE4_1 | ISASSE4_2 | ISAAVX | ISAAVX2
)

func (m ISA) String() string {
	names := []struct {
		bit  ISA
		name string
	}{
		{ISAMMX, "mmx"}, {ISASSE, "sse"}, {ISASSE2, "sse2"}, {ISASSE3, "sse3"},
		{ISASSSE3, "ssse3"}, {ISASSE4_1, "sse4.1"}, {ISASSE4_2, "sse4.2"},
		{ISAAVX, "avx"}, {ISAAVX2, "avx2"},
	}
	s := ""
	for _, n := range names {
		if m&n.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

// Capabilities tracks what the host supports and what the caller currently
// allows the generator to emit. Ground truth: original_source/
// c_src/jitter_asm.h's ZAssembler vec_available/vec_enabled bitsets and its
// has_*/use_*/enable_*/disable_* accessor family.
type Capabilities struct {
	available ISA
	enabled   ISA
}

// DetectCapabilities probes the host CPU via golang.org/x/sys/cpu and
// returns a Capabilities with every detected feature enabled. MMX and SSE
// (non-SSE2) aren't exposed by x/sys/cpu on amd64 — both are implied by the
// presence of any later SSE family on every amd64 host this package
// targets, so they're folled in whenever SSE2 is present (amd64 always has
// SSE/SSE2 baseline; there is no amd64 CPU lacking them).
func DetectCapabilities() *Capabilities {
	var avail ISA
	if cpu.X86.HasSSE2 {
		avail |= ISAMMX | ISASSE | ISASSE2
	}
	if cpu.X86.HasSSE3 {
		avail |= ISASSE3
	}
	if cpu.X86.HasSSSE3 {
		avail |= ISASSSE3
	}
	if cpu.X86.HasSSE41 {
		avail |= ISASSE4_1
	}
	if cpu.X86.HasSSE42 {
		avail |= ISASSE4_2
	}
	if cpu.X86.HasAVX {
		avail |= ISAAVX
	}
	if cpu.X86.HasAVX2 {
		avail |= ISAAVX2
	}
	return &Capabilities{available: avail, enabled: avail}
}

// NewCapabilities builds a Capabilities with an explicit available set, for
// tests that need to exercise a host profile the test machine doesn't
// actually have (spec.md §4.3: "used by the test harness to exercise every
// path").
func NewCapabilities(available ISA) *Capabilities {
	return &Capabilities{available: available, enabled: available}
}

func (c *Capabilities) HasAll(mask ISA) bool { return c.available&mask == mask }
func (c *Capabilities) HasAny(mask ISA) bool { return c.available&mask != 0 }
func (c *Capabilities) UseAll(mask ISA) bool { return c.enabled&mask == mask }
func (c *Capabilities) UseAny(mask ISA) bool { return c.enabled&mask != 0 }

func (c *Capabilities) UseSSE2() bool   { return c.enabled&ISASSE2 != 0 }
func (c *Capabilities) UseSSE3() bool   { return c.enabled&ISASSE3 != 0 }
func (c *Capabilities) UseSSSE3() bool  { return c.enabled&ISASSSE3 != 0 }
func (c *Capabilities) UseSSE4_1() bool { return c.enabled&ISASSE4_1 != 0 }
func (c *Capabilities) UseSSE4_2() bool { return c.enabled&ISASSE4_2 != 0 }
func (c *Capabilities) UseAVX() bool    { return c.enabled&ISAAVX != 0 }
func (c *Capabilities) UseAVX2() bool   { return c.enabled&ISAAVX2 != 0 }

// Enable turns on every bit in mask that the host actually supports;
// enabling an implied ancestor set (e.g. SSE2 before SSE3) is the caller's
// responsibility, matching the original's documented contract.
func (c *Capabilities) Enable(mask ISA) { c.enabled |= c.available & mask }

// Disable turns off every bit in mask, regardless of availability.
func (c *Capabilities) Disable(mask ISA) { c.enabled &^= mask }

// Profile names the three ISA tiers the code generator lowers to
// (spec.md §1, §2).
type Profile int

const (
	ProfileScalar Profile = iota
	ProfileSSE2
	ProfileAVX
)

func (p Profile) String() string {
	switch p {
	case ProfileScalar:
		return "scalar"
	case ProfileSSE2:
		return "sse2"
	case ProfileAVX:
		return "avx"
	default:
		return "profile?"
	}
}

// SelectProfile picks the highest tier the caller currently permits.
func (c *Capabilities) SelectProfile() Profile {
	switch {
	case c.UseAVX():
		return ProfileAVX
	case c.UseSSE2():
		return ProfileSSE2
	default:
		return ProfileScalar
	}
}
