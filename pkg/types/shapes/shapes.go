// Package shapes defines Shape, the element type plus dimensions carried by buffer and tensor types.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/go-openxla/pkg/types/dtypes"
)

// DimUnknown marks a dynamic dimension, rendered as "?".
const DimUnknown = -1

// Shape is an element type and a list of dimensions. A Shape with no dimensions is a scalar (rank 0).
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape with the given dtype and dimensions.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	return Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
}

// Scalar returns a rank-0 shape of the given dtype.
func Scalar(dtype dtypes.DType) Shape {
	return Shape{DType: dtype}
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s.Dimensions)
}

// IsScalar returns whether the shape has rank 0.
func (s Shape) IsScalar() bool {
	return s.Rank() == 0
}

// IsDynamic returns whether any of the dimensions is DimUnknown.
func (s Shape) IsDynamic() bool {
	return slices.Contains(s.Dimensions, DimUnknown)
}

// Size returns the number of elements, or DimUnknown if the shape is dynamic. Scalars have size 1.
func (s Shape) Size() int {
	size := 1
	for _, dim := range s.Dimensions {
		if dim < 0 {
			return DimUnknown
		}
		size *= dim
	}
	return size
}

// Ok returns whether the shape has a valid dtype and no negative dimension other than DimUnknown.
func (s Shape) Ok() bool {
	if !s.DType.IsValid() {
		return false
	}
	for _, dim := range s.Dimensions {
		if dim < 0 && dim != DimUnknown {
			return false
		}
	}
	return true
}

// Equal returns whether both shapes have the same dtype and dimensions.
func (s Shape) Equal(other Shape) bool {
	return s.DType == other.DType && slices.Equal(s.Dimensions, other.Dimensions)
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(s.Dimensions)}
}

// WithDimensions returns a copy of the shape with the dimensions replaced.
func (s Shape) WithDimensions(dimensions ...int) Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(dimensions)}
}

// String implements fmt.Stringer, e.g. "(Float32)[2 3]".
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	parts := make([]string, len(s.Dimensions))
	for i, dim := range s.Dimensions {
		if dim < 0 {
			parts[i] = "?"
		} else {
			parts[i] = fmt.Sprintf("%d", dim)
		}
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}
