package jitter

import "testing"

func newTestRegAlloc() (*RegAlloc, *[]int, *[]int) {
	var loads, saves []int
	load := func(virtual, native int) { loads = append(loads, virtual) }
	save := func(virtual, native int) { saves = append(saves, virtual) }
	ra := NewRegAlloc(16, 4, load, save)
	return ra, &loads, &saves
}

func TestRegAllocMapAndFind(t *testing.T) {
	ra, _, _ := newTestRegAlloc()
	gp := ra.FindNativeRegister()
	if gp != 3 {
		t.Fatalf("with nothing mapped, FindNativeRegister should return the highest free register (3), got %d", gp)
	}
	ra.MapVirtualReg(5, gp)
	if ra.rMap[5] != gp {
		t.Errorf("virtual register 5 should map to native %d", gp)
	}
	next := ra.FindNativeRegister()
	if next == gp {
		t.Errorf("FindNativeRegister should not return an already-occupied register while free ones remain")
	}
}

func TestRegAllocEvictsLRU(t *testing.T) {
	ra, _, saves := newTestRegAlloc()
	// Fill all 4 native registers.
	for v := 0; v < 4; v++ {
		gp := ra.FindNativeRegister()
		ra.MapVirtualReg(v, gp)
	}
	// Touch virtual register 1 so it's no longer the least recently used.
	ra.EnsureMapped(1)
	victim := ra.FindNativeRegister()
	ra.FlushAndUnmapNative(victim)
	if len(*saves) != 1 {
		t.Fatalf("expected exactly one spill, got %d", len(*saves))
	}
	if (*saves)[0] == 1 {
		t.Errorf("virtual register 1 was just touched; it must not be the LRU eviction victim")
	}
}

func TestRegAllocEnsureLoadedLoadsOnlyOnce(t *testing.T) {
	ra, loads, _ := newTestRegAlloc()
	gp1 := ra.EnsureLoaded(2)
	gp2 := ra.EnsureLoaded(2)
	if gp1 != gp2 {
		t.Errorf("EnsureLoaded should return the same native register on repeated calls for the same virtual register")
	}
	if len(*loads) != 1 {
		t.Errorf("EnsureLoaded should only issue a load the first time a virtual register is mapped, got %d loads", len(*loads))
	}
}

func TestRegAllocPinnedNeverEvicted(t *testing.T) {
	ra, _, _ := newTestRegAlloc()
	pinned := ra.AllocNativeRegister()
	ra.gpUse[pinned] = 0
	for v := 0; v < 10; v++ {
		ra.EnsureMapped(v)
	}
	if ra.gpMap[pinned] != -1 {
		t.Errorf("a pinned native register must never be handed to a virtual register mapping")
	}
}

func TestNewX86RegAllocPinsRAXAndRCX(t *testing.T) {
	ra := NewX86RegAlloc(func(int, int) {}, func(int, int) {})
	if ra.rMap[0] != encRAX {
		t.Errorf("virtual r0 must be pinned to rax, got native %d", ra.rMap[0])
	}
	if ra.rMap[1] != encRCX {
		t.Errorf("virtual r1 must be pinned to rcx, got native %d", ra.rMap[1])
	}
	if ra.gpUse[encRSP] != 0 || ra.gpUse[encRDI] != 0 {
		t.Errorf("rsp and rdi must be pinned-but-unmapped")
	}
}
