package ir

import (
	"slices"

	"github.com/pkg/errors"
)

// Use is one operand slot referring to a value.
type Use struct {
	Op    OpID
	Index int
}

// Uses returns every operand slot of a live operation referring to v, in creation order.
func (m *Module) Uses(v ValueID) []Use {
	var uses []Use
	for id := OpID(1); int(id) < len(m.ops); id++ {
		data := &m.ops[id]
		if data.erased {
			continue
		}
		for i, operand := range data.operands {
			if operand == v {
				uses = append(uses, Use{Op: id, Index: i})
			}
		}
	}
	return uses
}

// HasUses returns whether any live operation refers to v.
func (m *Module) HasUses(v ValueID) bool {
	for id := OpID(1); int(id) < len(m.ops); id++ {
		if !m.ops[id].erased && slices.Contains(m.ops[id].operands, v) {
			return true
		}
	}
	return false
}

// SetOperand replaces the i-th operand of the operation.
func (m *Module) SetOperand(op OpID, i int, v ValueID) error {
	if err := m.checkOp(op); err != nil {
		return err
	}
	if err := m.checkValue(v); err != nil {
		return err
	}
	if i < 0 || i >= len(m.ops[op].operands) {
		return errors.Errorf("operation %s has %d operands, cannot set operand #%d",
			m.ops[op].kind, len(m.ops[op].operands), i)
	}
	m.touchOp(op)
	m.ops[op].operands[i] = v
	return nil
}

// ReplaceAllUsesWith makes every live use of old refer to replacement instead. Both must have the same type.
func (m *Module) ReplaceAllUsesWith(old, replacement ValueID) error {
	if err := m.checkValue(old); err != nil {
		return err
	}
	if err := m.checkValue(replacement); err != nil {
		return err
	}
	if old == replacement {
		return nil
	}
	oldType, newType := m.values[old].typ, m.values[replacement].typ
	if !oldType.Equal(newType) {
		return errors.Errorf("cannot replace uses of a value of type %s with a value of type %s", oldType, newType)
	}
	for _, use := range m.Uses(old) {
		m.touchOp(use.Op)
		m.ops[use.Op].operands[use.Index] = replacement
	}
	return nil
}

// SetType changes the type of a value. The uses are not checked.
func (m *Module) SetType(v ValueID, t Type) error {
	if err := m.checkValue(v); err != nil {
		return err
	}
	if t == nil {
		return errors.Errorf("cannot set a nil type on value #%d", v)
	}
	m.touchValue(v)
	m.values[v].typ = t
	return nil
}

// SetAttr sets (or replaces) an attribute of the operation.
func (m *Module) SetAttr(op OpID, name string, value any) error {
	if err := m.checkOp(op); err != nil {
		return err
	}
	m.touchOp(op)
	if m.ops[op].attrs == nil {
		m.ops[op].attrs = make(Attributes)
	}
	m.ops[op].attrs[name] = value
	return nil
}

// RemoveAttr removes an attribute of the operation, if present.
func (m *Module) RemoveAttr(op OpID, name string) error {
	if err := m.checkOp(op); err != nil {
		return err
	}
	if _, found := m.ops[op].attrs[name]; !found {
		return nil
	}
	m.touchOp(op)
	delete(m.ops[op].attrs, name)
	return nil
}

// EraseOp removes the operation from its block and marks it, and every operation nested in its regions, as
// erased.
//
// Results of erased operations may still be referred to by live operations: those references must be
// rewritten before the module is verified again.
func (m *Module) EraseOp(op OpID) error {
	if err := m.checkOp(op); err != nil {
		return err
	}
	if op == m.root {
		return errors.New("cannot erase the module operation")
	}
	if m.ops[op].erased {
		return errors.Errorf("operation %s #%d already erased", m.ops[op].kind, op)
	}
	block := m.ops[op].block
	m.touchBlock(block)
	m.blocks[block].ops = slices.DeleteFunc(m.blocks[block].ops, func(id OpID) bool { return id == op })
	m.markErased(op)
	return nil
}

func (m *Module) markErased(op OpID) {
	m.touchOp(op)
	m.ops[op].erased = true
	for _, r := range m.ops[op].regions {
		for _, b := range m.regions[r].blocks {
			for _, nested := range m.blocks[b].ops {
				m.markErased(nested)
			}
		}
	}
}

// RemoveBlockArgument removes the i-th argument of the block. The value becomes detached: any remaining
// use must be rewritten before the module is verified again.
func (m *Module) RemoveBlockArgument(b BlockID, i int) error {
	if err := m.checkBlock(b); err != nil {
		return err
	}
	args := m.blocks[b].args
	if i < 0 || i >= len(args) {
		return errors.Errorf("block #%d has %d arguments, cannot remove argument #%d", b, len(args), i)
	}
	m.touchBlock(b)
	removed := args[i]
	m.blocks[b].args = slices.Delete(m.blocks[b].args, i, i+1)
	m.touchValue(removed)
	m.values[removed].block = NoBlock
	for j := i; j < len(m.blocks[b].args); j++ {
		v := m.blocks[b].args[j]
		m.touchValue(v)
		m.values[v].index = j
	}
	return nil
}

// MoveBlock detaches the block from its region and appends it to the region dst, with all its operations.
func (m *Module) MoveBlock(b BlockID, dst RegionID) error {
	if err := m.checkBlock(b); err != nil {
		return err
	}
	if err := m.checkRegion(dst); err != nil {
		return err
	}
	if src := m.blocks[b].region; src != NoRegion {
		m.touchRegion(src)
		m.regions[src].blocks = slices.DeleteFunc(m.regions[src].blocks, func(id BlockID) bool { return id == b })
	}
	m.touchRegion(dst)
	m.regions[dst].blocks = append(m.regions[dst].blocks, b)
	m.touchBlock(b)
	m.blocks[b].region = dst
	return nil
}
