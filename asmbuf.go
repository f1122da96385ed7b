package jitter

import "bytes"

// Buf is the byte-emission substrate every encoder file builds on: a
// growable buffer plus the REX/ModRM/SIB/VEX helpers and a label/fixup
// mechanism for intra-function jumps. Ground truth for the buffer and
// fixup shape: xyproto-vibe67's BufferWrapper/ExecutableBuilder
// (emit.go, main.go's CallPatch) — generalized here from cross-module
// symbol patches to intra-function IR-instruction-index jumps, since a
// compiled program is a single self-contained function body.
type Buf struct {
	bytes.Buffer
	fixups      []jumpFixup
	instrOffset []int // byte offset each IR instruction's encoding starts at
}

type jumpFixup struct {
	pos      int // byte offset of the rel32 field
	target   int // IR instruction index the jump targets
	fromNext int // byte offset of the instruction immediately after the jump
}

// NewBuf returns an empty encode buffer.
func NewBuf() *Buf { return &Buf{} }

// Pos returns the current write offset.
func (b *Buf) Pos() int { return b.Len() }

// MarkInstr records that IR instruction index idx's encoding starts here.
// Called once per IR instruction before lowering it.
func (b *Buf) MarkInstr(idx int) {
	for len(b.instrOffset) <= idx {
		b.instrOffset = append(b.instrOffset, -1)
	}
	b.instrOffset[idx] = b.Pos()
}

// Emit8 writes a single byte.
func (b *Buf) Emit8(v byte) { b.WriteByte(v) }

// Emit writes raw bytes in order.
func (b *Buf) Emit(bs ...byte) { b.Write(bs) }

// Emit32LE writes a little-endian uint32.
func (b *Buf) Emit32LE(v uint32) {
	b.Emit(byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// Emit64LE writes a little-endian uint64.
func (b *Buf) Emit64LE(v uint64) {
	b.Emit32LE(uint32(v))
	b.Emit32LE(uint32(v >> 32))
}

// EmitImm writes a sign-extended immediate of the given byte width
// (1, 2, 4, or 8), little-endian.
func (b *Buf) EmitImm(v int64, width int) {
	switch width {
	case 1:
		b.Emit8(byte(v))
	case 2:
		b.Emit(byte(v), byte(v>>8))
	case 4:
		b.Emit32LE(uint32(v))
	case 8:
		b.Emit64LE(uint64(v))
	}
}

// RexPrefix builds a REX byte: w selects 64-bit operand size, r/x/b extend
// the ModRM.reg / SIB.index / ModRM.rm (or opcode-reg) fields respectively.
// Always returns 0x40 or more, even when no bit is set; EmitRex decides
// whether a prefix is emitted at all.
func RexPrefix(w, r, x, bb bool) byte {
	rex := byte(0x40)
	if w {
		rex |= 0x08
	}
	if r {
		rex |= 0x04
	}
	if x {
		rex |= 0x02
	}
	if bb {
		rex |= 0x01
	}
	return rex
}

// EmitRex emits a REX prefix iff w is set or any encoding exceeds 7 (needs
// its extension bit set), matching the pattern every *_codegen.go mov/add/
// cmp file in the teacher repeats by hand.
func (b *Buf) EmitRex(w bool, reg, index, rm uint8) {
	r := reg >= 8
	x := index >= 8
	bb := rm >= 8
	if w || r || x || bb {
		b.Emit8(RexPrefix(w, r, x, bb))
	}
}

// ModRM packs the ModRM byte from a 2-bit mod, and two 3-bit low fields
// (the high extension bit, if any, goes in the REX prefix instead).
func ModRM(mod, reg, rm uint8) byte {
	return mod<<6 | (reg&7)<<3 | (rm & 7)
}

// SIB packs a SIB byte.
func SIB(scale, index, base uint8) byte {
	return scale<<6 | (index&7)<<3 | (base & 7)
}

const modDirect = 3 // ModRM.mod == 11: both operands are registers

// EmitModRMDirect emits a direct (register-to-register) ModRM byte for
// reg/rm, which EmitRex should have already accounted for.
func (b *Buf) EmitModRMDirect(reg, rm uint8) {
	b.Emit8(ModRM(modDirect, reg, rm))
}

// vex3 builds a three-byte VEX prefix (C4) for AVX/AVX2 forms that need
// the 0F38/0F3A opcode maps or a REX.X/B extension bit, per the VEX
// encoding table (Intel SDM Vol.2A §2.3.6). mmmmm selects the implied
// leading opcode bytes (1=0F, 2=0F38, 3=0F3A); pp selects the implied
// mandatory prefix (0=none, 1=66, 2=F3, 3=F2).
func vex3(rBit, xBit, bBit bool, mmmmm uint8, wBit bool, vvvv uint8, lBit bool, pp uint8) [3]byte {
	b0 := byte(0xC4)
	b1 := byte(mmmmm & 0x1f)
	if !rBit {
		b1 |= 0x80
	}
	if !xBit {
		b1 |= 0x40
	}
	if !bBit {
		b1 |= 0x20
	}
	b2 := (^vvvv & 0x0f) << 3
	b2 |= pp & 0x3
	if wBit {
		b2 |= 0x80
	}
	if lBit {
		b2 |= 0x04
	}
	return [3]byte{b0, b1, b2}
}

// vex2 builds the shorter two-byte VEX prefix (C5) usable when R is the
// only extension bit needed, W is false, and the opcode map is the
// implied 0F map — the common case for SSE-equivalent AVX instructions.
func vex2(rBit bool, vvvv uint8, lBit bool, pp uint8) [2]byte {
	b0 := byte(0xC5)
	b1 := (^vvvv & 0x0f) << 3
	b1 |= pp & 0x3
	if lBit {
		b1 |= 0x04
	}
	if !rBit {
		b1 |= 0x80
	}
	return [2]byte{b0, b1}
}

// EmitVEX2/EmitVEX3 write the corresponding prefix.
func (b *Buf) EmitVEX2(rBit bool, vvvv uint8, lBit bool, pp uint8) {
	v := vex2(rBit, vvvv, lBit, pp)
	b.Emit(v[0], v[1])
}

func (b *Buf) EmitVEX3(rBit, xBit, bBit bool, mmmmm uint8, wBit bool, vvvv uint8, lBit bool, pp uint8) {
	v := vex3(rBit, xBit, bBit, mmmmm, wBit, vvvv, lBit, pp)
	b.Emit(v[0], v[1], v[2])
}

// AddJumpFixup records a forward-or-backward reference: the rel32 field
// at byte offset pos should end up containing
// (instrOffset[target] - fromNext). fromNext is the buffer position
// immediately after the jump's encoded bytes (the position x86 computes
// rel32 displacements from).
func (b *Buf) AddJumpFixup(pos, target, fromNext int) {
	b.fixups = append(b.fixups, jumpFixup{pos: pos, target: target, fromNext: fromNext})
}

// PatchRel32 fixes up a rel32 field at byte offset pos (previously written
// as a zero placeholder) so it points at the absolute buffer position
// target, using the standard x86 convention that the displacement is
// relative to the byte immediately following the 4-byte field itself.
// Used by enc_frame.go to wire the epilog's RIP-relative LEA to the
// FXSAVE64 data section appended after it, a forward reference the
// IR-instruction-indexed jumpFixup mechanism doesn't model.
func (b *Buf) PatchRel32(pos, target int) {
	raw := b.Bytes()
	disp := int32(target - (pos + 4))
	raw[pos+0] = byte(disp)
	raw[pos+1] = byte(disp >> 8)
	raw[pos+2] = byte(disp >> 16)
	raw[pos+3] = byte(disp >> 24)
}

// ResolveJumps patches every recorded fixup now that every instruction's
// byte offset is known (called once lowering of the whole program is
// complete). Returns an error if a fixup targets an instruction index
// that was never marked, which would indicate a lowering bug rather than
// a user-reachable condition.
func (b *Buf) ResolveJumps() error {
	raw := b.Bytes()
	for _, f := range b.fixups {
		if f.target < 0 || f.target >= len(b.instrOffset) || b.instrOffset[f.target] < 0 {
			return errFixupTarget(f.target)
		}
		disp := int32(b.instrOffset[f.target] - f.fromNext)
		raw[f.pos+0] = byte(disp)
		raw[f.pos+1] = byte(disp >> 8)
		raw[f.pos+2] = byte(disp >> 16)
		raw[f.pos+3] = byte(disp >> 24)
	}
	return nil
}
