// Package dtypes defines the element types of buffers and tensors handled by the conversion.
//
// The names follow gomlx conventions (F32, Int64, ...) and are rendered with their MLIR spelling
// (see DType.ToMLIR).
package dtypes

import (
	"fmt"
	"math"

	"github.com/x448/float16"
)

// DType is the element type of a shaped type (buffer or tensor), or of a scalar value.
type DType int

const (
	// InvalidDType is the zero value and marks an unset dtype.
	InvalidDType DType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	U8
	U16
	U32
	U64
	F16
	BFloat16
	F32
	F64
	Complex64
	Complex128
)

// Aliases with the longer names.
const (
	Float16 = F16
	Float32 = F32
	Float64 = F64
	Uint8   = U8
	Uint16  = U16
	Uint32  = U32
	Uint64  = U64
)

var dtypeNames = [...]string{
	InvalidDType: "InvalidDType",
	Bool:         "Bool",
	Int8:         "Int8",
	Int16:        "Int16",
	Int32:        "Int32",
	Int64:        "Int64",
	U8:           "Uint8",
	U16:          "Uint16",
	U32:          "Uint32",
	U64:          "Uint64",
	F16:          "Float16",
	BFloat16:     "BFloat16",
	F32:          "Float32",
	F64:          "Float64",
	Complex64:    "Complex64",
	Complex128:   "Complex128",
}

// String implements fmt.Stringer.
func (dtype DType) String() string {
	if dtype < 0 || int(dtype) >= len(dtypeNames) {
		return fmt.Sprintf("DType(%d)", int(dtype))
	}
	return dtypeNames[dtype]
}

// IsValid returns whether dtype is one of the known element types.
func (dtype DType) IsValid() bool {
	return dtype > InvalidDType && int(dtype) < len(dtypeNames)
}

// IsFloat returns whether dtype is a (real) floating point type.
func (dtype DType) IsFloat() bool {
	switch dtype {
	case F16, BFloat16, F32, F64:
		return true
	}
	return false
}

// IsInt returns whether dtype is a signed or unsigned integer type. Bool is not an integer.
func (dtype DType) IsInt() bool {
	switch dtype {
	case Int8, Int16, Int32, Int64, U8, U16, U32, U64:
		return true
	}
	return false
}

// Bits returns the storage width of one element in bits.
func (dtype DType) Bits() int {
	switch dtype {
	case Bool:
		return 1
	case Int8, U8:
		return 8
	case Int16, U16, F16, BFloat16:
		return 16
	case Int32, U32, F32:
		return 32
	case Int64, U64, F64, Complex64:
		return 64
	case Complex128:
		return 128
	}
	return 0
}

// RoundLiteral returns v rounded to the precision of dtype, the way a constant of that dtype would
// hold it. Integer dtypes are truncated toward zero; Bool maps non-zero to 1.
func (dtype DType) RoundLiteral(v float64) float64 {
	switch dtype {
	case F16:
		return float64(float16.Fromfloat32(float32(v)).Float32())
	case BFloat16:
		bits := math.Float32bits(float32(v))
		// Round to nearest even on the 16 low bits dropped by bfloat16.
		bits += 0x7fff + (bits>>16)&1
		return float64(math.Float32frombits(bits &^ 0xffff))
	case F32, Complex64:
		return float64(float32(v))
	case Bool:
		if v != 0 {
			return 1
		}
		return 0
	}
	if dtype.IsInt() {
		return math.Trunc(v)
	}
	return v
}
