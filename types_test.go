package jitter

import "testing"

func TestElementTypeSizes(t *testing.T) {
	cases := []struct {
		t     ElementType
		bytes int
		bits  int
	}{
		{TypeInt8, 1, 8}, {TypeUint8, 1, 8},
		{TypeInt16, 2, 16}, {TypeUint16, 2, 16},
		{TypeInt32, 4, 32}, {TypeUint32, 4, 32},
		{TypeInt64, 8, 64}, {TypeUint64, 8, 64},
		{TypeFloat32, 4, 32}, {TypeFloat64, 8, 64},
	}
	for _, c := range cases {
		if got := c.t.Bytes(); got != c.bytes {
			t.Errorf("%s.Bytes() = %d, want %d", c.t, got, c.bytes)
		}
		if got := c.t.Bits(); got != c.bits {
			t.Errorf("%s.Bits() = %d, want %d", c.t, got, c.bits)
		}
	}
}

func TestElementTypeBaseKind(t *testing.T) {
	if TypeInt32.BaseKind() != KindSigned {
		t.Errorf("TypeInt32 should be signed")
	}
	if TypeUint32.BaseKind() != KindUnsigned {
		t.Errorf("TypeUint32 should be unsigned")
	}
	if TypeFloat64.BaseKind() != KindFloat {
		t.Errorf("TypeFloat64 should be float")
	}
	if TypeVoid.BaseKind() != KindSigned {
		t.Errorf("TypeVoid should resolve to signed (native int64) for BaseKind purposes")
	}
}

func TestIsLowerableExcludesFloat16And8(t *testing.T) {
	if TypeFloat16.IsLowerable() || TypeFloat8.IsLowerable() {
		t.Errorf("FLOAT16/FLOAT8 are tagged-but-never-lowered per spec.md §9")
	}
	if !TypeInt64.IsLowerable() || !TypeFloat64.IsLowerable() {
		t.Errorf("every other type must be lowerable")
	}
}

func TestResolveVoidDefaultsToInt64(t *testing.T) {
	if resolveVoid(TypeVoid) != TypeInt64 {
		t.Errorf("resolveVoid(TypeVoid) = %s, want i64", resolveVoid(TypeVoid))
	}
	if resolveVoid(TypeFloat32) != TypeFloat32 {
		t.Errorf("resolveVoid must pass non-void types through unchanged")
	}
}

func TestLanes(t *testing.T) {
	cases := []struct {
		t     ElementType
		lanes int
	}{
		{TypeInt8, 16}, {TypeInt16, 8}, {TypeInt32, 4}, {TypeInt64, 2},
		{TypeFloat32, 4}, {TypeFloat64, 2},
	}
	for _, c := range cases {
		if got := Lanes(c.t); got != c.lanes {
			t.Errorf("Lanes(%s) = %d, want %d", c.t, got, c.lanes)
		}
	}
}

func TestAsSignedAsUnsigned(t *testing.T) {
	if TypeUint32.AsSigned() != TypeInt32 {
		t.Errorf("TypeUint32.AsSigned() = %s, want i32", TypeUint32.AsSigned())
	}
	if TypeInt16.AsUnsigned() != TypeUint16 {
		t.Errorf("TypeInt16.AsUnsigned() = %s, want u16", TypeInt16.AsUnsigned())
	}
}
