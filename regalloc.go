package jitter

// RegAlloc is the LRU virtual-to-physical register allocator used by the
// optional "full register allocator" lowering path (spec.md §4.5, distinct
// from the per-instruction Scratch pools). Ground truth: original_source/
// c_src/jitter_regalloc.h's RegAlloc/TmpAlloc classes.
//
// Unlike Scratch, RegAlloc tracks *which* virtual register currently
// occupies each physical one and spills the least-recently-used occupant
// when a new virtual register needs a home — across the whole function
// body, not reset per instruction.
type RegAlloc struct {
	tick  int
	rMap  []int // virtual register -> native register, -1 = unmapped
	gpMap []int // native register -> virtual register, -1 = unmapped
	gpUse []int // -1 = never mapped, 0 = pinned/fixed, else tick of last use

	// load/save perform the actual memory traffic against the register
	// file once a mapping decision has been made; wired to the encoder
	// (enc_mov.go) by the framer, kept as callbacks here so RegAlloc
	// itself has no dependency on instruction encoding.
	load func(virtual, native int)
	save func(virtual, native int)
}

// NewRegAlloc builds an allocator over numVirtual IR registers and
// numNative physical GP registers, both initially unmapped.
func NewRegAlloc(numVirtual, numNative int, load, save func(virtual, native int)) *RegAlloc {
	ra := &RegAlloc{
		tick:  1, // 0 marks a pinned register in gpUse
		rMap:  make([]int, numVirtual),
		gpMap: make([]int, numNative),
		gpUse: make([]int, numNative),
		load:  load,
		save:  save,
	}
	for i := range ra.rMap {
		ra.rMap[i] = -1
	}
	for i := range ra.gpMap {
		ra.gpMap[i] = -1
		ra.gpUse[i] = -1
	}
	return ra
}

// MapVirtualReg records that virtual register r now lives in native
// register gp, stamping the use tick.
func (ra *RegAlloc) MapVirtualReg(r, gp int) {
	ra.rMap[r] = gp
	ra.gpMap[gp] = r
	ra.gpUse[gp] = ra.tick
	ra.tick++
}

// UnmapVirtualReg clears any mapping virtual register r currently holds.
func (ra *RegAlloc) UnmapVirtualReg(r int) {
	gp := ra.rMap[r]
	if gp < 0 {
		return
	}
	ra.gpMap[gp] = -1
	ra.rMap[r] = -1
	ra.gpUse[gp] = -1
}

// FindNativeRegister returns a free native register if one exists
// (scanning high to low, matching the original's register preference
// order), otherwise the least-recently-used non-pinned occupant.
func (ra *RegAlloc) FindNativeRegister() int {
	free := -1
	lru := -1
	lruTick := -1
	for i := len(ra.gpUse) - 1; i >= 0; i-- {
		switch {
		case ra.gpUse[i] == -1:
			if free == -1 {
				free = i
			}
		case ra.gpUse[i] > 0:
			if lruTick == -1 || ra.gpUse[i] < lruTick {
				lru = i
				lruTick = ra.gpUse[i]
			}
		}
	}
	if free == -1 {
		return lru
	}
	return free
}

// FlushAndUnmapNative spills whatever virtual register currently occupies
// gp (if any) and unmaps it, making gp available for reassignment.
func (ra *RegAlloc) FlushAndUnmapNative(gp int) {
	r := ra.gpMap[gp]
	if r < 0 {
		return
	}
	ra.save(r, gp)
	ra.UnmapVirtualReg(r)
}

// EnsureMapped guarantees r has a native home, spilling an LRU victim if
// needed, but does not load r's value — used when r is about to be
// written wholesale rather than read.
func (ra *RegAlloc) EnsureMapped(r int) int {
	gp := ra.rMap[r]
	if gp < 0 {
		gp = ra.FindNativeRegister()
		ra.FlushAndUnmapNative(gp)
		ra.MapVirtualReg(r, gp)
		return gp
	}
	if ra.gpUse[gp] != 0 {
		ra.gpUse[gp] = ra.tick
		ra.tick++
	}
	return gp
}

// EnsureLoaded is EnsureMapped plus an actual load when the mapping is
// freshly created.
func (ra *RegAlloc) EnsureLoaded(r int) int {
	gp := ra.rMap[r]
	if gp < 0 {
		gp = ra.FindNativeRegister()
		ra.FlushAndUnmapNative(gp)
		ra.MapVirtualReg(r, gp)
		ra.load(r, gp)
		return gp
	}
	if ra.gpUse[gp] != 0 {
		ra.gpUse[gp] = ra.tick
		ra.tick++
	}
	return gp
}

// AllocNativeRegister reserves a temporary, unnamed native register
// (spilling an LRU victim if needed) and pins it (gpUse=0) so it survives
// until ReleaseNativeRegister is called.
func (ra *RegAlloc) AllocNativeRegister() int {
	gp := ra.FindNativeRegister()
	ra.FlushAndUnmapNative(gp)
	ra.gpUse[gp] = 0
	return gp
}

// ReleaseNativeRegister un-pins a register returned by
// AllocNativeRegister, making it eligible for reuse.
func (ra *RegAlloc) ReleaseNativeRegister(gp int) {
	if ra.gpUse[gp] == 0 {
		ra.gpUse[gp] = -1
	}
}

// x86-64 GP register encodings, used both here and by the encoder.
const (
	encRAX = 0
	encRCX = 1
	encRDX = 2
	encRBX = 3
	encRSP = 4
	encRBP = 5
	encRSI = 6
	encRDI = 7
	encR8  = 8
	encR9  = 9
	encR10 = 10
	encR11 = 11
	encR12 = 12
	encR13 = 13
	encR14 = 14
	encR15 = 15
)

// NewX86RegAlloc builds a 16-virtual/16-native RegAlloc pre-pinned the way
// the host ABI requires: virtual r0 lives permanently in rax, r1 in rcx
// (the two registers the original reserves for the IR's first two virtual
// registers), and rsp/rdi are marked pinned-but-unmapped since rsp is the
// stack pointer and rdi carries the incoming register-file pointer for
// the function's lifetime (spec.md §4.6 framer contract).
func NewX86RegAlloc(load, save func(virtual, native int)) *RegAlloc {
	ra := NewRegAlloc(16, 16, load, save)
	ra.MapVirtualReg(0, encRAX)
	ra.gpUse[encRAX] = 0
	ra.load(0, encRAX)
	ra.MapVirtualReg(1, encRCX)
	ra.gpUse[encRCX] = 0
	ra.load(1, encRCX)
	ra.gpUse[encRSP] = 0
	ra.gpUse[encRDI] = 0
	return ra
}
