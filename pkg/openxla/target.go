package openxla

import (
	"github.com/gomlx/go-openxla/pkg/convert"
	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/gomlx/go-openxla/pkg/optypes"
)

// legalDialects are the dialects the conversion produces.
var legalDialects = []string{"builtin", "arith", "tensor", "scf", "iree_input"}

// NewTypeConverter returns the TypeConverter of the pass: buffers become tensors of the same shape, and every
// other type is kept as is.
//
// Scalar buffers become tensors with one element (`memref<f32>` -> `tensor<1xf32>`), so that reading them
// stays a read from a tensor that later stages cannot fold into a constant.
func NewTypeConverter() *convert.TypeConverter {
	converter := convert.NewTypeConverter()
	converter.AddConversion(convert.Identity)
	converter.AddConversion(func(t ir.Type) (ir.Type, bool) {
		buffer, ok := t.(ir.BufferType)
		if !ok {
			return nil, false
		}
		shape := buffer.Shape.Clone()
		if shape.IsScalar() {
			shape = shape.WithDimensions(1)
		}
		return ir.TensorType{Shape: shape}, true
	})
	return converter
}

// NewTarget returns the legality rules of the pass:
//
//   - the illegal dialects of the options (by default "lmhlo" and "memref") must be fully converted;
//   - the dialects produced by the conversion are legal;
//   - `func.call` is legal;
//   - `func.func` is legal once its signature and every value in its body have legal types;
//   - `func.return` is legal once its operands match the results of the enclosing function and, if the
//     function signature was converted with state, once the return forwards the values tied to its buffers.
//
// The state may be nil, to check a module after the conversion.
func NewTarget(converter *convert.TypeConverter, opts Options, state *DeBufferization) *convert.Target {
	target := convert.NewTarget()
	target.AddIllegalDialect(opts.IllegalDialects...)
	target.AddLegalDialect(legalDialects...)
	target.AddLegalOp(optypes.Call)
	target.AddDynamicallyLegalOp(optypes.Func, func(m *ir.Module, op ir.OpID) bool {
		ft, ok := m.FunctionType(op)
		if !ok || !converter.IsSignatureLegal(ft) {
			return false
		}
		for _, r := range m.Regions(op) {
			if !converter.IsRegionLegal(m, r) {
				return false
			}
		}
		return true
	})
	target.AddDynamicallyLegalOp(optypes.Return, func(m *ir.Module, op ir.OpID) bool {
		fn := m.ParentOp(op)
		ft, ok := m.FunctionType(fn)
		if !ok || !ir.TypesEqual(m.Types(m.Operands(op)), ft.Results) {
			return false
		}
		if state != nil {
			if info, found := state.Function(fn); found && !info.Threaded {
				return false
			}
		}
		return true
	})
	return target
}
