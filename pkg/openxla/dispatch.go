package openxla

import (
	"fmt"

	"github.com/gomlx/go-openxla/internal/utils"
	"github.com/gomlx/go-openxla/pkg/convert"
	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/gomlx/go-openxla/pkg/optypes"
)

const lmhloDialect = "lmhlo"

// Attributes of compiled operations and of the dispatches they are converted to.
const (
	// AttrKernel optionally names the kernel implementing a compiled operation in the executable source.
	AttrKernel = "kernel"

	AttrEntryPoint   = "entry_point"
	AttrTiedOperands = "tied_operands"
)

// kernelName returns the name of the kernel of a compiled operation: its AttrKernel attribute if set, or
// else a name derived from the operation kind, numbered by the dispatches already in the module.
func kernelName(m *ir.Module, op ir.OpID) string {
	if name, ok := m.Attributes(op)[AttrKernel].(string); ok && name != "" {
		return utils.NormalizeIdentifier(name)
	}
	var numDispatches int
	m.Walk(func(op ir.OpID) bool {
		if m.Kind(op) == optypes.Dispatch {
			numDispatches++
		}
		return true
	})
	return fmt.Sprintf("%s_%d", utils.NormalizeIdentifier(m.Kind(op).String()), numDispatches)
}

// newCompiledOpPattern returns the pattern converting compiled operations (any "lmhlo" operation writing to
// output buffers) to `iree_input.dispatch` of a kernel of the executable source.
//
// The compiled operation takes its inputs followed by its outputs. The dispatch takes the values tied to all
// of them, and each of its results is tied to one output operand (`tied_operands`): it is the new value of the
// output buffer, and the output buffer is tied to it.
func newCompiledOpPattern(executableSource string) convert.Pattern[*DeBufferization] {
	return convert.NewPattern("compiled-op", optypes.Any,
		func(r *convert.Rewriter, op ir.OpID, state *DeBufferization) error {
			m := r.Module()
			kind := m.Kind(op)
			numOutputs := kind.NumOutputs()
			if kind.Dialect() != lmhloDialect || numOutputs == 0 {
				return r.Declinef("%s is not a compiled operation", kind)
			}
			operands := m.Operands(op)
			if len(operands) < numOutputs {
				return r.Declinef("%s has %d operands, fewer than its %d outputs", kind, len(operands), numOutputs)
			}
			numInputs := len(operands) - numOutputs
			block := m.ParentBlock(op)
			args := make([]ir.ValueID, len(operands))
			for i, v := range operands {
				var err error
				args[i], err = state.Value(block, v)
				if err != nil {
					return r.Declinef("operand #%d: %v", i, err)
				}
			}
			tied := make([]int, numOutputs)
			for i := range tied {
				tied[i] = numInputs + i
			}
			attrs := ir.Attributes{
				AttrEntryPoint:   ir.SymbolRef{Root: executableSource, Nested: []string{kernelName(m, op)}},
				AttrTiedOperands: tied,
			}
			dispatch, err := r.Create(optypes.Dispatch, args, m.Types(args[numInputs:]), attrs)
			if err != nil {
				return err
			}
			for i, output := range operands[numInputs:] {
				state.Tie(block, output, m.Result(dispatch, i))
			}
			return r.EraseOp(op)
		})
}
