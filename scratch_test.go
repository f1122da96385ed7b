package jitter

import "testing"

func TestGPScratchAllocHighestFirst(t *testing.T) {
	s := NewGPScratch()
	// gpFreeMask = r10, r11, r13, r14 -> highest first is r14.
	want := []uint8{14, 13, 11, 10}
	for _, w := range want {
		got, ok := s.Alloc()
		if !ok {
			t.Fatalf("pool exhausted early, expected %d", w)
		}
		if got != w {
			t.Errorf("Alloc() = %d, want %d", got, w)
		}
	}
	if _, ok := s.Alloc(); ok {
		t.Errorf("expected pool exhaustion after 4 allocations")
	}
}

func TestScratchResetRestoresPool(t *testing.T) {
	s := NewXMMScratch()
	s.MustAlloc()
	s.MustAlloc()
	s.Reset()
	count := 0
	for _, ok := s.Alloc(); ok; _, ok = s.Alloc() {
		count++
	}
	if count != 3 {
		t.Errorf("expected 3 xmm scratch registers after reset, got %d", count)
	}
}

func TestScratchReleaseRejectsNonMember(t *testing.T) {
	s := NewGPScratch()
	s.Release(0) // rax is never a scratch pool member
	if s.InUse(0) {
		t.Errorf("releasing a non-member register must be a no-op, not add it to the pool")
	}
}

func TestScratchMustAllocPanicsWhenExhausted(t *testing.T) {
	s := NewXMMScratch()
	s.MustAlloc()
	s.MustAlloc()
	s.MustAlloc()
	defer func() {
		if recover() == nil {
			t.Errorf("expected MustAlloc to panic once the pool is exhausted")
		}
	}()
	s.MustAlloc()
}

func TestScratchScopeReleasesOnClose(t *testing.T) {
	s := NewGPScratch()
	func() {
		defer s.Scope()()
		s.MustAlloc()
		s.MustAlloc()
	}()
	count := 0
	for _, ok := s.Alloc(); ok; _, ok = s.Alloc() {
		count++
	}
	if count != 4 {
		t.Errorf("Scope() should have released everything allocated within it, got %d free after", count)
	}
}

func TestScratchNextLowestFirst(t *testing.T) {
	s := NewGPScratch()
	s.MustAlloc() // takes r14, the highest
	var seen []uint8
	s.Next(func(n uint8) bool {
		seen = append(seen, n)
		return true
	})
	want := []uint8{10, 11, 13}
	if len(seen) != len(want) {
		t.Fatalf("Next() yielded %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("Next()[%d] = %d, want %d", i, seen[i], want[i])
		}
	}
}
