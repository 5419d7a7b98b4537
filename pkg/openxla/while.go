package openxla

import (
	"slices"

	"github.com/gomlx/go-openxla/pkg/convert"
	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/gomlx/go-openxla/pkg/optypes"
)

// writtenBuffers returns the operands op writes to.
func writtenBuffers(m *ir.Module, op ir.OpID) []ir.ValueID {
	kind := m.Kind(op)
	switch kind {
	case optypes.Store, optypes.Copy:
		if m.NumOperands(op) >= 2 {
			return []ir.ValueID{m.Operand(op, 1)}
		}
		return nil
	}
	if numOutputs := kind.NumOutputs(); numOutputs > 0 && numOutputs <= m.NumOperands(op) {
		operands := m.Operands(op)
		return operands[len(operands)-numOutputs:]
	}
	return nil
}

// definedInside returns whether the value is defined by an operation nested in op, or is an argument of one of
// its blocks.
func definedInside(m *ir.Module, op ir.OpID, v ir.ValueID) bool {
	owner := m.DefiningOp(v)
	if owner == ir.NoOp {
		block := m.ArgumentOwner(v)
		if block == ir.NoBlock {
			return false
		}
		owner = m.BlockParentOp(block)
	}
	return owner != ir.NoOp && m.IsAncestor(op, owner)
}

// loopCarriedBuffers returns the buffers defined outside the loop and written inside it, in order of first
// write. The predicate is always included.
func loopCarriedBuffers(m *ir.Module, loop ir.OpID, predicate ir.ValueID) []ir.ValueID {
	var carried []ir.ValueID
	for _, r := range m.Regions(loop) {
		m.WalkRegion(r, func(op ir.OpID) bool {
			for _, buffer := range writtenBuffers(m, op) {
				if !definedInside(m, loop, buffer) && !slices.Contains(carried, buffer) {
					carried = append(carried, buffer)
				}
			}
			return true
		})
	}
	if !slices.Contains(carried, predicate) {
		carried = append(carried, predicate)
	}
	return carried
}

// convertWhile converts `lmhlo.while` to `scf.while`.
//
// Every buffer written inside the loop becomes a loop-carried value: the condition and body blocks are moved
// into the `scf.while` and receive one argument per carried buffer, tied to it. After the loop, the buffers are
// tied to the results of the `scf.while`. The `lmhlo.terminator` of each block is converted by
// convertLoopTerminator, once the operations of the block are converted.
func convertWhile(r *convert.Rewriter, op ir.OpID, state *DeBufferization) error {
	m := r.Module()
	if m.NumOperands(op) != 1 {
		return r.Declinef("expected the predicate buffer as the only operand, got %d operands", m.NumOperands(op))
	}
	regions := m.Regions(op)
	if len(regions) != 2 {
		return r.Declinef("expected 2 regions (condition and body), got %d", len(regions))
	}
	var blocks [2]ir.BlockID
	for i, region := range regions {
		regionBlocks := m.RegionBlocks(region)
		if len(regionBlocks) != 1 {
			return r.Declinef("region #%d has %d blocks, only single block regions are supported", i, len(regionBlocks))
		}
		blocks[i] = regionBlocks[0]
	}

	predicate := m.Operand(op, 0)
	carried := loopCarriedBuffers(m, op, predicate)
	parent := m.ParentBlock(op)
	inits := make([]ir.ValueID, len(carried))
	for i, buffer := range carried {
		var err error
		inits[i], err = state.Value(parent, buffer)
		if err != nil {
			return r.Declinef("loop carried buffer #%d: %v", i, err)
		}
	}
	types := m.Types(inits)

	loop, err := r.CreateWithRegions(optypes.While, inits, types, nil, 2)
	if err != nil {
		return err
	}
	newRegions := m.Regions(loop)
	for i, block := range blocks {
		if err := m.MoveBlock(block, newRegions[i]); err != nil {
			return err
		}
		for j, t := range types {
			arg, err := m.AddBlockArgument(block, t)
			if err != nil {
				return err
			}
			state.Tie(block, carried[j], arg)
		}
		role := LoopCondition
		if i == 1 {
			role = LoopBody
		}
		state.SetLoop(block, &LoopInfo{Role: role, Carried: carried, Predicate: predicate})
	}
	for i, buffer := range carried {
		state.Tie(parent, buffer, m.Result(loop, i))
	}
	return r.EraseOp(op)
}

// convertLoopTerminator converts the `lmhlo.terminator` of a converted loop: `scf.condition` in the condition
// block, passing the value of the predicate, and `scf.yield` in the body block. Both forward the values tied
// to the carried buffers.
func convertLoopTerminator(r *convert.Rewriter, op ir.OpID, state *DeBufferization) error {
	m := r.Module()
	block := m.ParentBlock(op)
	info, found := state.Loop(block)
	if !found {
		return r.Declinef("terminator is not in the block of a converted loop")
	}
	values := make([]ir.ValueID, len(info.Carried))
	for i, buffer := range info.Carried {
		var err error
		values[i], err = state.MustLookup(block, buffer)
		if err != nil {
			return r.Declinef("%v", err)
		}
	}

	switch info.Role {
	case LoopCondition:
		predicate, err := state.MustLookup(block, info.Predicate)
		if err != nil {
			return r.Declinef("%v", err)
		}
		predicateType, ok := m.Type(predicate).(ir.TensorType)
		if !ok || predicateType.Shape.Size() != 1 {
			return r.Declinef("loop predicate must have exactly one element, got %s", m.Type(predicate))
		}
		indices := make([]ir.ValueID, predicateType.Shape.Rank())
		if len(indices) > 0 {
			zero, err := r.Constant(ir.IndexLiteral(0))
			if err != nil {
				return err
			}
			for i := range indices {
				indices[i] = zero
			}
		}
		condition, err := r.Create1(optypes.TensorExtract, append([]ir.ValueID{predicate}, indices...),
			ir.Scalar(predicateType.Shape.DType), nil)
		if err != nil {
			return err
		}
		if _, err := r.Create(optypes.Condition, append([]ir.ValueID{condition}, values...), nil, nil); err != nil {
			return err
		}
	case LoopBody:
		if _, err := r.Create(optypes.Yield, values, nil, nil); err != nil {
			return err
		}
	}
	return r.EraseOp(op)
}
