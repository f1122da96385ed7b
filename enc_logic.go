package jitter

// Bitwise encoders beyond AND/OR/XOR (enc_arith.go) and the vector/float
// forms (which have native PANDN/ANDNPS and so need no synthesis here).
// Only the scalar GP BANDN has no pre-BMI1 native instruction.

// AndNotGP64 computes dst = ~a & src (BANDN's scalar semantics), staging
// through dst itself: mov dst,a; not dst; and dst,src. No extra scratch
// register is needed since the three-address reduction already gives
// lowering a dst distinct from src.
func (b *Buf) AndNotGP64(dst, a, src uint8) {
	b.MovRegReg64(dst, a)
	b.NotGP64(dst)
	b.AndGP64(dst, src)
}
