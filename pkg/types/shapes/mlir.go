package shapes

import (
	"fmt"
	"io"
	"strings"
)

// ToTensor returns the MLIR `tensor<...>` spelling of the shape.
func (s Shape) ToTensor() string {
	var sb strings.Builder
	_ = s.WriteMLIR(&sb, "tensor")
	return sb.String()
}

// ToMemRef returns the MLIR `memref<...>` spelling of the shape.
func (s Shape) ToMemRef() string {
	var sb strings.Builder
	_ = s.WriteMLIR(&sb, "memref")
	return sb.String()
}

// WriteMLIR writes the shaped type `container<d0xd1x...xdtype>` to the given writer.
func (s Shape) WriteMLIR(writer io.Writer, container string) error {
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}

	w("%s<", container)
	if s.Rank() > 0 {
		for i, dim := range s.Dimensions {
			if i > 0 {
				w("x")
			}
			// MLIR uses '?' for dynamic dimensions.
			if dim < 0 {
				w("?")
			} else {
				w("%d", dim)
			}
		}
		w("x")
	}
	w("%s", s.DType.ToMLIR())
	w(">")
	return err
}
