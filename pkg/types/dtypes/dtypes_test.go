package dtypes

import "testing"

func TestToMLIR(t *testing.T) {
	tests := []struct {
		dtype DType
		want  string
	}{
		{F32, "f32"},
		{Float64, "f64"},
		{BFloat16, "bf16"},
		{Bool, "i1"},
		{U8, "ui8"},
		{Int64, "i64"},
		{Complex64, "complex<f32>"},
		{InvalidDType, "unknown_dtype<InvalidDType>"},
	}
	for _, tc := range tests {
		if got := tc.dtype.ToMLIR(); got != tc.want {
			t.Errorf("%s.ToMLIR() = %q, want %q", tc.dtype, got, tc.want)
		}
	}
}

func TestRoundLiteral(t *testing.T) {
	t.Run("float16", func(t *testing.T) {
		// 1/3 is not representable in half precision: it loses digits but stays close.
		got := F16.RoundLiteral(1.0 / 3.0)
		if got == 1.0/3.0 {
			t.Fatalf("F16.RoundLiteral(1/3) kept full precision: %v", got)
		}
		if d := got - 1.0/3.0; d > 1e-3 || d < -1e-3 {
			t.Fatalf("F16.RoundLiteral(1/3) = %v, too far from 1/3", got)
		}
		if got := F16.RoundLiteral(0.5); got != 0.5 {
			t.Fatalf("F16.RoundLiteral(0.5) = %v, want 0.5", got)
		}
	})

	t.Run("bfloat16", func(t *testing.T) {
		if got := BFloat16.RoundLiteral(1.0); got != 1.0 {
			t.Fatalf("BFloat16.RoundLiteral(1) = %v", got)
		}
		if got := BFloat16.RoundLiteral(1.001); got != 1.0 {
			t.Fatalf("BFloat16.RoundLiteral(1.001) = %v, want 1", got)
		}
	})

	t.Run("integers and bool", func(t *testing.T) {
		if got := Int32.RoundLiteral(-2.7); got != -2 {
			t.Fatalf("Int32.RoundLiteral(-2.7) = %v, want -2", got)
		}
		if got := Bool.RoundLiteral(3); got != 1 {
			t.Fatalf("Bool.RoundLiteral(3) = %v, want 1", got)
		}
	})
}

func TestBits(t *testing.T) {
	if F16.Bits() != 16 || Bool.Bits() != 1 || Complex128.Bits() != 128 {
		t.Fatalf("unexpected bit widths: f16=%d bool=%d c128=%d", F16.Bits(), Bool.Bits(), Complex128.Bits())
	}
	if InvalidDType.IsValid() || !F32.IsValid() {
		t.Fatal("IsValid() mismatch")
	}
}
