package ir

import (
	"slices"

	"github.com/gomlx/go-openxla/pkg/optypes"
	"github.com/pkg/errors"
)

// IsLive returns whether the value is still defined: its defining operation is not erased, or it is an
// argument still attached to a block of a live operation.
func (m *Module) IsLive(v ValueID) bool {
	if v == NoValue || int(v) >= len(m.values) {
		return false
	}
	data := m.values[v]
	if data.op != NoOp {
		return !m.ops[data.op].erased
	}
	if data.block == NoBlock {
		return false
	}
	args := m.blocks[data.block].args
	if data.index >= len(args) || args[data.index] != v {
		return false
	}
	owner := m.BlockParentOp(data.block)
	if owner == NoOp || m.ops[owner].erased {
		return false
	}
	return slices.Contains(m.regions[m.blocks[data.block].region].blocks, data.block)
}

// Verify checks the structural invariants of the module:
//
//   - every operand of a live operation is live, and visible from the use: defined earlier in the same block,
//     or in a block of an enclosing operation before it;
//   - every block of a live operation other than the module's is non-empty and ends with its only terminator;
//   - every value has a type.
//
// It returns the first violation found, in pre-order.
func (m *Module) Verify() error {
	for _, op := range m.PreOrder(m.root) {
		data := &m.ops[op]
		for i, v := range data.operands {
			if !m.IsLive(v) {
				return errors.Errorf("%s: operation %s uses a value that is no longer defined (operand #%d)",
					data.loc, data.kind, i)
			}
			if !m.isVisible(v, op) {
				return errors.Errorf("%s: operation %s uses a value defined out of its scope (operand #%d)",
					data.loc, data.kind, i)
			}
		}
		for i, v := range data.results {
			if m.values[v].typ == nil {
				return errors.Errorf("%s: operation %s result #%d has no type", data.loc, data.kind, i)
			}
		}
		if data.kind == optypes.Module {
			continue
		}
		for _, r := range data.regions {
			for _, b := range m.regions[r].blocks {
				if err := m.verifyBlock(op, b); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (m *Module) verifyBlock(owner OpID, b BlockID) error {
	ownerData := &m.ops[owner]
	ops := m.blocks[b].ops
	if len(ops) == 0 {
		return errors.Errorf("%s: operation %s has an empty block", ownerData.loc, ownerData.kind)
	}
	for i, op := range ops {
		isLast := i == len(ops)-1
		if m.ops[op].kind.IsTerminator() != isLast {
			if isLast {
				return errors.Errorf("%s: block of operation %s does not end with a terminator (ends with %s)",
					ownerData.loc, ownerData.kind, m.ops[op].kind)
			}
			return errors.Errorf("%s: terminator %s is not the last operation of its block",
				m.ops[op].loc, m.ops[op].kind)
		}
	}
	for i, v := range m.blocks[b].args {
		if m.values[v].typ == nil {
			return errors.Errorf("%s: block argument #%d of operation %s has no type", ownerData.loc, i, ownerData.kind)
		}
	}
	return nil
}

// isVisible returns whether v is defined in the block of user, or in the block of one of its ancestors, and
// before the operation of that block holding the use. Block arguments are visible in the whole block.
func (m *Module) isVisible(v ValueID, user OpID) bool {
	data := m.values[v]
	defBlock := data.block
	if data.op != NoOp {
		defBlock = m.ops[data.op].block
	}
	for op := user; op != NoOp; op = m.ParentOp(op) {
		if m.ops[op].block != defBlock {
			continue
		}
		if data.op == NoOp {
			return true
		}
		ops := m.blocks[defBlock].ops
		return slices.Index(ops, data.op) < slices.Index(ops, op)
	}
	return false
}
