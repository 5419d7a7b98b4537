package ir

import (
	"strings"

	"github.com/gomlx/go-openxla/pkg/types/dtypes"
	"github.com/gomlx/go-openxla/pkg/types/shapes"
)

// Type of a Value. It is a closed set: BufferType, TensorType, ScalarType, IndexType, OpaqueType and
// FunctionType.
type Type interface {
	// String returns the MLIR spelling of the type.
	String() string

	// Equal returns whether both types are the same.
	Equal(other Type) bool

	isType()
}

// BufferType is writable storage with a shape: `memref<2x3xf32>`.
type BufferType struct {
	Shape shapes.Shape
}

// Buffer returns a BufferType with the given dtype and dimensions.
func Buffer(dtype dtypes.DType, dimensions ...int) BufferType {
	return BufferType{Shape: shapes.Make(dtype, dimensions...)}
}

func (BufferType) isType() {}

func (t BufferType) String() string { return t.Shape.ToMemRef() }

func (t BufferType) Equal(other Type) bool {
	o, ok := other.(BufferType)
	return ok && t.Shape.Equal(o.Shape)
}

// TensorType is an immutable value with a shape: `tensor<2x3xf32>`.
type TensorType struct {
	Shape shapes.Shape
}

// Tensor returns a TensorType with the given dtype and dimensions.
func Tensor(dtype dtypes.DType, dimensions ...int) TensorType {
	return TensorType{Shape: shapes.Make(dtype, dimensions...)}
}

func (TensorType) isType() {}

func (t TensorType) String() string { return t.Shape.ToTensor() }

func (t TensorType) Equal(other Type) bool {
	o, ok := other.(TensorType)
	return ok && t.Shape.Equal(o.Shape)
}

// ScalarType is a single element of the given dtype, e.g. `f32` or `i1`.
type ScalarType struct {
	DType dtypes.DType
}

// Scalar returns a ScalarType.
func Scalar(dtype dtypes.DType) ScalarType {
	return ScalarType{DType: dtype}
}

func (ScalarType) isType() {}

func (t ScalarType) String() string { return t.DType.ToMLIR() }

func (t ScalarType) Equal(other Type) bool {
	o, ok := other.(ScalarType)
	return ok && t.DType == o.DType
}

// IndexType is the type of indices into buffers and tensors.
type IndexType struct{}

// Index is the IndexType.
var Index = IndexType{}

func (IndexType) isType() {}

func (IndexType) String() string { return "index" }

func (IndexType) Equal(other Type) bool {
	_, ok := other.(IndexType)
	return ok
}

// OpaqueType is a dialect type the IR knows nothing about: `!dialect.name`.
type OpaqueType struct {
	Dialect, Name string
}

func (OpaqueType) isType() {}

func (t OpaqueType) String() string { return "!" + t.Dialect + "." + t.Name }

func (t OpaqueType) Equal(other Type) bool {
	o, ok := other.(OpaqueType)
	return ok && t == o
}

// FunctionType is the signature of a function-like operation.
type FunctionType struct {
	Inputs, Results []Type
}

func (FunctionType) isType() {}

func (t FunctionType) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	writeTypeList(&sb, t.Inputs)
	sb.WriteString(") -> ")
	writeResultTypes(&sb, t.Results)
	return sb.String()
}

func (t FunctionType) Equal(other Type) bool {
	o, ok := other.(FunctionType)
	return ok && TypesEqual(t.Inputs, o.Inputs) && TypesEqual(t.Results, o.Results)
}

// Clone returns a copy of the signature with its own slices.
func (t FunctionType) Clone() FunctionType {
	return FunctionType{
		Inputs:  append([]Type(nil), t.Inputs...),
		Results: append([]Type(nil), t.Results...),
	}
}

// TypesEqual returns whether both lists hold equal types in the same order.
func TypesEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == nil || b[i] == nil {
			if a[i] != b[i] {
				return false
			}
			continue
		}
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func writeTypeList(sb *strings.Builder, types []Type) {
	for i, t := range types {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(typeString(t))
	}
}

// writeResultTypes writes a single type bare, and zero or many types in parenthesis.
func writeResultTypes(sb *strings.Builder, types []Type) {
	if len(types) == 1 {
		sb.WriteString(typeString(types[0]))
		return
	}
	sb.WriteString("(")
	writeTypeList(sb, types)
	sb.WriteString(")")
}

func typeString(t Type) string {
	if t == nil {
		return "<<nil>>"
	}
	return t.String()
}
