package openxla

import (
	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/pkg/errors"
)

// LoopRole tells which region of a loop a block belongs to.
type LoopRole int

const (
	LoopCondition LoopRole = iota
	LoopBody
)

func (r LoopRole) String() string {
	if r == LoopCondition {
		return "condition"
	}
	return "body"
}

// FunctionInfo is what DeBufferization knows about a converted function.
type FunctionInfo struct {
	// Outputs are the output buffers of the function (removed arguments), in result order.
	Outputs []ir.ValueID

	// ArgToResult maps the position of an output argument in the original signature to the position of the
	// corresponding operand of the function terminator.
	ArgToResult map[int]int

	// Threaded is set once the `func.return` of the function forwards the values tied to its buffers.
	Threaded bool
}

// LoopInfo is what DeBufferization knows about a block of a converted loop.
type LoopInfo struct {
	Role LoopRole

	// Carried buffers, in the order of the loop-carried values.
	Carried []ir.ValueID

	// Predicate is the buffer holding the loop condition.
	Predicate ir.ValueID
}

// DeBufferization is the state shared by the patterns of the conversion: it ties buffers to the value that
// currently holds their contents.
//
// Ties are scoped by block: a lookup in a block falls back to the enclosing blocks (the block of the parent
// operation, and so on), so a loop body sees the ties of the function unless it rebinds a buffer.
//
// Every change is undone if the module savepoint open at the time it was done is rolled back, so a pattern
// that declines leaves no trace here either.
type DeBufferization struct {
	m *ir.Module

	ties      map[ir.BlockID]map[ir.ValueID]ir.ValueID
	functions map[ir.OpID]*FunctionInfo
	loops     map[ir.BlockID]*LoopInfo
}

// NewDeBufferization returns an empty DeBufferization for the module.
func NewDeBufferization(m *ir.Module) *DeBufferization {
	return &DeBufferization{
		m:         m,
		ties:      make(map[ir.BlockID]map[ir.ValueID]ir.ValueID),
		functions: make(map[ir.OpID]*FunctionInfo),
		loops:     make(map[ir.BlockID]*LoopInfo),
	}
}

// Tie records that value holds the contents of buffer in block (and the blocks nested in it).
func (d *DeBufferization) Tie(block ir.BlockID, buffer, value ir.ValueID) {
	scope, found := d.ties[block]
	if !found {
		scope = make(map[ir.ValueID]ir.ValueID)
		d.ties[block] = scope
	}
	previous, hadPrevious := scope[buffer]
	scope[buffer] = value
	d.m.OnRollback(func() {
		if hadPrevious {
			scope[buffer] = previous
		} else {
			delete(scope, buffer)
		}
	})
}

// Lookup returns the value tied to buffer as seen from block.
func (d *DeBufferization) Lookup(block ir.BlockID, buffer ir.ValueID) (ir.ValueID, bool) {
	for block != ir.NoBlock {
		if value, found := d.ties[block][buffer]; found {
			return value, true
		}
		parent := d.m.BlockParentOp(block)
		if parent == ir.NoOp {
			break
		}
		block = d.m.ParentBlock(parent)
	}
	return ir.NoValue, false
}

// MustLookup is like Lookup, but returns an error if the buffer is not tied.
func (d *DeBufferization) MustLookup(block ir.BlockID, buffer ir.ValueID) (ir.ValueID, error) {
	value, found := d.Lookup(block, buffer)
	if !found {
		return ir.NoValue, errors.Errorf("buffer #%d of type %s is not tied to any value", buffer, d.m.Type(buffer))
	}
	return value, nil
}

// SetFunction records the information of a converted function.
func (d *DeBufferization) SetFunction(fn ir.OpID, info *FunctionInfo) {
	previous, hadPrevious := d.functions[fn]
	d.functions[fn] = info
	d.m.OnRollback(func() {
		if hadPrevious {
			d.functions[fn] = previous
		} else {
			delete(d.functions, fn)
		}
	})
}

// Function returns the information of a converted function.
func (d *DeBufferization) Function(fn ir.OpID) (*FunctionInfo, bool) {
	info, found := d.functions[fn]
	return info, found
}

// SetLoop records the information of a block of a converted loop.
func (d *DeBufferization) SetLoop(block ir.BlockID, info *LoopInfo) {
	previous, hadPrevious := d.loops[block]
	d.loops[block] = info
	d.m.OnRollback(func() {
		if hadPrevious {
			d.loops[block] = previous
		} else {
			delete(d.loops, block)
		}
	})
}

// Loop returns the information of a block of a converted loop.
func (d *DeBufferization) Loop(block ir.BlockID) (*LoopInfo, bool) {
	info, found := d.loops[block]
	return info, found
}

// Value returns the value to use in place of v in block: the value tied to v if it is a buffer, or v itself if
// it is not a buffer.
func (d *DeBufferization) Value(block ir.BlockID, v ir.ValueID) (ir.ValueID, error) {
	if value, found := d.Lookup(block, v); found {
		return value, nil
	}
	if _, isBuffer := d.m.Type(v).(ir.BufferType); isBuffer {
		return ir.NoValue, errors.Errorf("buffer #%d of type %s is not tied to any value", v, d.m.Type(v))
	}
	return v, nil
}
