package openxla

import (
	"github.com/gomlx/go-openxla/pkg/convert"
	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/gomlx/go-openxla/pkg/optypes"
)

// convertAlloc replaces `memref.alloc` by `tensor.empty`, tied to the allocated buffer.
func convertAlloc(r *convert.Rewriter, op ir.OpID, state *DeBufferization) error {
	m := r.Module()
	if m.NumResults(op) != 1 {
		return r.Declinef("expected 1 result, got %d", m.NumResults(op))
	}
	buffer := m.Result(op, 0)
	tensorType, err := r.ConvertType(m.Type(buffer))
	if err != nil {
		return r.Declinef("%v", err)
	}
	empty, err := r.Create1(optypes.TensorEmpty, nil, tensorType, nil)
	if err != nil {
		return err
	}
	state.Tie(m.ParentBlock(op), buffer, empty)
	return r.EraseOp(op)
}

// convertDealloc drops `memref.dealloc`: tensors have no explicit lifetime.
func convertDealloc(r *convert.Rewriter, op ir.OpID, _ *DeBufferization) error {
	return r.EraseOp(op)
}

// elementIndices returns the indices to access one element of tensor, given the indices used to access the
// buffer it was converted from. Scalar buffers are converted to tensors of one element, accessed at index 0.
func elementIndices(r *convert.Rewriter, tensor ir.ValueID, indices []ir.ValueID) ([]ir.ValueID, error) {
	m := r.Module()
	tensorType, ok := m.Type(tensor).(ir.TensorType)
	if !ok {
		return nil, r.Declinef("expected a tensor, got %s", m.Type(tensor))
	}
	rank := tensorType.Shape.Rank()
	if len(indices) == rank {
		return indices, nil
	}
	if len(indices) == 0 && rank == 1 && tensorType.Shape.Dimensions[0] == 1 {
		zero, err := r.Constant(ir.IndexLiteral(0))
		if err != nil {
			return nil, err
		}
		return []ir.ValueID{zero}, nil
	}
	return nil, r.Declinef("tensor of rank %d accessed with %d indices", rank, len(indices))
}

// convertLoad replaces `memref.load %buffer[%indices]` by `tensor.extract` from the value tied to the buffer.
func convertLoad(r *convert.Rewriter, op ir.OpID, state *DeBufferization) error {
	m := r.Module()
	operands := m.Operands(op)
	if len(operands) < 1 || m.NumResults(op) != 1 {
		return r.Declinef("malformed %s", m.Kind(op))
	}
	buffer := operands[0]
	tensor, err := state.Value(m.ParentBlock(op), buffer)
	if err != nil {
		return r.Declinef("%v", err)
	}
	indices, err := elementIndices(r, tensor, operands[1:])
	if err != nil {
		return err
	}
	element, err := r.Create1(optypes.TensorExtract, append([]ir.ValueID{tensor}, indices...),
		m.Type(m.Result(op, 0)), nil)
	if err != nil {
		return err
	}
	return r.ReplaceOp(op, element)
}

// convertStore replaces `memref.store %value, %buffer[%indices]` by `tensor.insert` into the value tied to the
// buffer, and ties the buffer to the updated tensor.
func convertStore(r *convert.Rewriter, op ir.OpID, state *DeBufferization) error {
	m := r.Module()
	operands := m.Operands(op)
	if len(operands) < 2 {
		return r.Declinef("malformed %s", m.Kind(op))
	}
	value, buffer := operands[0], operands[1]
	block := m.ParentBlock(op)
	tensor, err := state.Value(block, buffer)
	if err != nil {
		return r.Declinef("%v", err)
	}
	indices, err := elementIndices(r, tensor, operands[2:])
	if err != nil {
		return err
	}
	updated, err := r.Create1(optypes.TensorInsert, append([]ir.ValueID{value, tensor}, indices...),
		m.Type(tensor), nil)
	if err != nil {
		return err
	}
	state.Tie(block, buffer, updated)
	return r.EraseOp(op)
}

// convertCopy drops `memref.copy %src, %dst`: the destination is tied to the value tied to the source.
func convertCopy(r *convert.Rewriter, op ir.OpID, state *DeBufferization) error {
	m := r.Module()
	if m.NumOperands(op) != 2 {
		return r.Declinef("malformed %s", m.Kind(op))
	}
	src, dst := m.Operand(op, 0), m.Operand(op, 1)
	block := m.ParentBlock(op)
	value, err := state.Value(block, src)
	if err != nil {
		return r.Declinef("%v", err)
	}
	dstType, err := r.ConvertType(m.Type(dst))
	if err != nil {
		return r.Declinef("%v", err)
	}
	if !dstType.Equal(m.Type(value)) {
		return r.Declinef("cannot copy a value of type %s into a buffer converted to %s", m.Type(value), dstType)
	}
	state.Tie(block, dst, value)
	return r.EraseOp(op)
}
