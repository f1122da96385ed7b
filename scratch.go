package jitter

import "math/bits"

// Scratch is a bitmask pool of temporary registers available to a single
// lowering step. Ground truth: original_source/c_src/jitter_asm.h's
// R_FREE_MASK/X_FREE_MASK pools and their alloc/release/next accessors.
//
// Contract (spec.md §4.5): every IR instruction begins lowering with both
// pools fully reset — scratch never leaks across instructions. Registers
// named directly by the IR (rd/ri/rj) are never part of either pool.
type Scratch struct {
	pool uint16
	free uint16
}

// Default scratch pools. GP: r10, r11, r13, r14 (bit position = register
// encoding). XMM: xmm11, xmm12, xmm13.
const (
	gpFreeMask  uint16 = 1<<10 | 1<<11 | 1<<13 | 1<<14
	xmmFreeMask uint16 = 1<<11 | 1<<12 | 1<<13
)

// NewGPScratch returns a GP scratch pool over the default reservation.
func NewGPScratch() *Scratch { return &Scratch{pool: gpFreeMask, free: gpFreeMask} }

// NewXMMScratch returns an XMM scratch pool over the default reservation.
func NewXMMScratch() *Scratch { return &Scratch{pool: xmmFreeMask, free: xmmFreeMask} }

// Reset restores the pool to fully free, discarding any outstanding
// allocation. Called once per IR instruction by the lowering dispatcher.
func (s *Scratch) Reset() { s.free = s.pool }

// Alloc returns the highest-numbered free register's encoding and clears
// its bit, or (0, false) if the pool is exhausted. Highest-first matches
// the original's allocator and keeps allocation order deterministic, so
// the same program always compiles to the same bytes.
func (s *Scratch) Alloc() (uint8, bool) {
	if s.free == 0 {
		return 0, false
	}
	n := bits.Len16(s.free) - 1
	s.free &^= 1 << uint(n)
	return uint8(n), true
}

// MustAlloc allocates or panics. Lowering asserts at most three
// simultaneous scratch registers per IR op (spec.md §4.5); running out
// means a lowering bug, not a user-reachable error.
func (s *Scratch) MustAlloc() uint8 {
	r, ok := s.Alloc()
	if !ok {
		crash("scratch pool exhausted")
	}
	return r
}

// Release returns register n to the pool, iff n belongs to the pool's
// original reservation (releasing a non-member register is a silent
// no-op, matching the original's documented contract).
func (s *Scratch) Release(n uint8) {
	bit := uint16(1) << uint(n)
	if s.pool&bit != 0 {
		s.free |= bit
	}
}

// Next iterates the registers currently free, lowest encoding first.
func (s *Scratch) Next(yield func(n uint8) bool) {
	free := s.free
	for free != 0 {
		n := bits.TrailingZeros16(free)
		if !yield(uint8(n)) {
			return
		}
		free &^= 1 << uint(n)
	}
}

// InUse reports whether register n is currently allocated out of the pool
// (i.e. it's a pool member and its bit is clear).
func (s *Scratch) InUse(n uint8) bool {
	bit := uint16(1) << uint(n)
	return s.pool&bit != 0 && s.free&bit == 0
}

// scope releases every register allocated since the scope was opened when
// it goes out of use, RAII-style via defer: `defer scratch.Scope()()`.
func (s *Scratch) Scope() func() {
	snapshot := s.free
	return func() {
		s.free = snapshot
	}
}
