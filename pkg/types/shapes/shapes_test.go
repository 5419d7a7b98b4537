package shapes

import (
	"testing"

	"github.com/gomlx/go-openxla/pkg/types/dtypes"
)

func TestToMLIR(t *testing.T) {
	shape := Make(dtypes.Float32, 1, 10)
	if got := shape.ToTensor(); got != "tensor<1x10xf32>" {
		t.Errorf("ToTensor() = %q, want %q", got, "tensor<1x10xf32>")
	}
	if got := shape.ToMemRef(); got != "memref<1x10xf32>" {
		t.Errorf("ToMemRef() = %q, want %q", got, "memref<1x10xf32>")
	}

	// Test scalar.
	shape = Make(dtypes.Int32)
	if got := shape.ToTensor(); got != "tensor<i32>" {
		t.Errorf("ToTensor() = %q, want %q", got, "tensor<i32>")
	}

	// Dynamic dimension.
	shape = Make(dtypes.Bool, DimUnknown, 3)
	if got := shape.ToMemRef(); got != "memref<?x3xi1>" {
		t.Errorf("ToMemRef() = %q, want %q", got, "memref<?x3xi1>")
	}
}

func TestShape(t *testing.T) {
	s := Make(dtypes.F32, 2, 3)
	if s.Rank() != 2 || s.Size() != 6 || s.IsScalar() {
		t.Fatalf("unexpected rank/size for %s: %d/%d", s, s.Rank(), s.Size())
	}
	if !s.Equal(s.Clone()) {
		t.Fatal("Clone() should be equal")
	}
	if s.Equal(Make(dtypes.F64, 2, 3)) || s.Equal(Make(dtypes.F32, 3, 2)) {
		t.Fatal("Equal() should compare dtype and dimensions")
	}
	if got := Scalar(dtypes.Int8).Size(); got != 1 {
		t.Fatalf("scalar Size() = %d, want 1", got)
	}
	if got := Make(dtypes.F32, DimUnknown).Size(); got != DimUnknown {
		t.Fatalf("dynamic Size() = %d, want DimUnknown", got)
	}
	if Make(dtypes.F32, -3).Ok() || !Make(dtypes.F32, DimUnknown).Ok() {
		t.Fatal("Ok() mismatch on negative dimensions")
	}

	// Make must not alias the caller's slice.
	dims := []int{4, 5}
	s = Make(dtypes.F32, dims...)
	dims[0] = 7
	if s.Dimensions[0] != 4 {
		t.Fatal("Make() aliased the dimensions slice")
	}
	if got := s.String(); got != "(Float32)[4 5]" {
		t.Fatalf("String() = %q", got)
	}
}
