//go:build !windows

package jitter

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// CompiledFunc wraps one compiled program's machine code in an executable
// memory page, callable through call_amd64.s's trampoline. Ground truth
// for the page lifecycle (map, fill, flip to executable, unmap):
// xyproto-vibe67's hotreload_unix.go AllocateExecutablePage/CopyCode/
// FreePage, adapted from a raw syscall.Syscall6(SYS_MMAP, ...) call to
// golang.org/x/sys/unix's typed Mmap/Mprotect/Munmap (spec.md §9's
// domain-stack wiring) and split into the W^X two-step this rewrite
// follows: map read-write, copy the generator's bytes in, then flip to
// read-execute before the page is ever handed to callCompiled — the
// teacher's own allocator requests PROT_EXEC up front since its caller
// never writes into the page after the initial load.
type CompiledFunc struct {
	page []byte
	addr uintptr
}

// newCompiledFunc maps a fresh executable page sized to code, copies code
// into it, and flips it to read-execute.
func newCompiledFunc(code []byte) (*CompiledFunc, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("jitter: empty compiled image")
	}
	page, err := unix.Mmap(-1, 0, len(code), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("jitter: mmap: %w", err)
	}
	copy(page, code)
	if err := unix.Mprotect(page, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(page)
		return nil, fmt.Errorf("jitter: mprotect: %w", err)
	}
	return &CompiledFunc{page: page, addr: uintptr(unsafe.Pointer(&page[0]))}, nil
}

// Call invokes the compiled function against rf — every lowered
// instruction mutates rf's R/V slots directly through the rdi-addressed
// memory operands codegen.go emits — and returns the pointer the native
// ABI promises: the embedded FXSAVE64 area's address, or rf itself when
// Config.EmitFXSave was false (see enc_frame.go's EmitEpilogue).
func (f *CompiledFunc) Call(rf *RegisterFile) unsafe.Pointer {
	return callCompiled(f.addr, unsafe.Pointer(rf))
}

// Close unmaps the executable page. Not safe to call concurrently with
// Call, and the CompiledFunc must not be used again afterward.
func (f *CompiledFunc) Close() error {
	if f.page == nil {
		return nil
	}
	err := unix.Munmap(f.page)
	f.page = nil
	return err
}

// callCompiled is implemented in call_amd64.s: a small trampoline that
// stages fn/rfp into the SysV AMD64 argument/return registers (rdi in,
// rax out) the generated code expects, independent of whatever calling
// convention Go itself uses internally for this stub.
//
//go:noescape
func callCompiled(fn uintptr, rfp unsafe.Pointer) unsafe.Pointer
