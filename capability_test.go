package jitter

import "testing"

func TestCapabilitiesEnableDisable(t *testing.T) {
	c := NewCapabilities(ISASSE2 | ISAAVX | ISAAVX2)
	if !c.UseAVX2() {
		t.Fatalf("AVX2 should start enabled, matching available")
	}
	c.Disable(ISAAVX2 | ISAAVX)
	if c.UseAVX() || c.UseAVX2() {
		t.Errorf("Disable should clear the enabled bits regardless of availability")
	}
	if !c.HasAny(ISAAVX2) {
		t.Errorf("Disable must not touch the available set, only enabled")
	}
	c.Enable(ISAAVX2)
	if !c.UseAVX2() {
		t.Errorf("Enable should turn a bit back on as long as it's available, regardless of other bits")
	}
	if c.UseAVX() {
		t.Errorf("Enable(AVX2) must not implicitly re-enable AVX")
	}
}

func TestCapabilitiesEnableRespectsAvailability(t *testing.T) {
	c := NewCapabilities(ISASSE2) // AVX not available on this host
	c.Enable(ISAAVX)
	if c.UseAVX() {
		t.Errorf("Enable must not turn on a bit the host doesn't actually have")
	}
}

func TestSelectProfile(t *testing.T) {
	cases := []struct {
		avail ISA
		want  Profile
	}{
		{ISAMMX | ISASSE, ProfileScalar},
		{ISASSE2, ProfileSSE2},
		{ISASSE2 | ISAAVX, ProfileAVX},
		{ISASSE2 | ISAAVX | ISAAVX2, ProfileAVX},
	}
	for _, c := range cases {
		caps := NewCapabilities(c.avail)
		if got := caps.SelectProfile(); got != c.want {
			t.Errorf("SelectProfile() with %s = %s, want %s", c.avail, got, c.want)
		}
	}
}

func TestSelectProfileFollowsEnabledNotJustAvailable(t *testing.T) {
	c := NewCapabilities(ISASSE2 | ISAAVX | ISAAVX2)
	c.Disable(ISAAVX | ISAAVX2)
	if got := c.SelectProfile(); got != ProfileSSE2 {
		t.Errorf("disabling AVX must force the SSE2 profile even on an AVX-capable host, got %s", got)
	}
}

func TestISAString(t *testing.T) {
	if (ISA(0)).String() != "none" {
		t.Errorf("empty ISA mask should render as \"none\"")
	}
	if got := (ISASSE2 | ISAAVX).String(); got != "sse2|avx" {
		t.Errorf("ISA.String() = %q, want %q", got, "sse2|avx")
	}
}
