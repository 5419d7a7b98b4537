package ir

import (
	"slices"

	"github.com/gomlx/go-openxla/pkg/optypes"
	"github.com/pkg/errors"
)

// opData is the arena entry of an operation.
type opData struct {
	kind     optypes.OpType
	operands []ValueID
	results  []ValueID
	regions  []RegionID
	attrs    Attributes
	loc      Location
	block    BlockID // Parent block, NoBlock for the module root.
	erased   bool
}

// valueData is the arena entry of a value: either the result of an operation or a block argument.
type valueData struct {
	typ   Type
	op    OpID    // Defining operation, NoOp for block arguments.
	block BlockID // Owning block for block arguments, NoBlock for results and detached arguments.
	index int     // Result index or argument index.
}

type blockData struct {
	region RegionID
	args   []ValueID
	ops    []OpID
}

type regionData struct {
	op     OpID
	blocks []BlockID
}

// Module is the top-level container of the IR: a `builtin.module` operation with one region holding one block.
//
// All operations, values, blocks and regions live in arenas owned by the Module and are addressed by handles
// (OpID, ValueID, BlockID, RegionID). Handles stay valid while the entity lives: erasing an operation marks it
// as erased instead of reusing its slot. The only exception is Rollback, which discards everything created
// after the matching Begin.
//
// A Module is not safe for concurrent use. Independent modules can be used from different goroutines.
type Module struct {
	// Name of the module, printed as `module @name`.
	Name string

	// Loc is the location of the module, where module level diagnostics are reported.
	Loc Location

	ops     []opData
	values  []valueData
	blocks  []blockData
	regions []regionData

	root OpID
	body BlockID

	journal     []*savepoint
	diagnostics []Diagnostic
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	m := &Module{
		Name: name,
		// Slot 0 of every arena is the invalid handle.
		ops:     make([]opData, 1),
		values:  make([]valueData, 1),
		blocks:  make([]blockData, 1),
		regions: make([]regionData, 1),
	}
	m.root = m.newOp(opData{kind: optypes.Module})
	region := m.newRegion(m.root)
	m.ops[m.root].regions = []RegionID{region}
	m.body = m.newBlock(region)
	m.regions[region].blocks = []BlockID{m.body}
	return m
}

func (m *Module) newOp(data opData) OpID {
	id := OpID(len(m.ops))
	m.ops = append(m.ops, data)
	return id
}

func (m *Module) newValue(data valueData) ValueID {
	id := ValueID(len(m.values))
	m.values = append(m.values, data)
	return id
}

func (m *Module) newBlock(region RegionID) BlockID {
	id := BlockID(len(m.blocks))
	m.blocks = append(m.blocks, blockData{region: region})
	return id
}

func (m *Module) newRegion(op OpID) RegionID {
	id := RegionID(len(m.regions))
	m.regions = append(m.regions, regionData{op: op})
	return id
}

// Root returns the `builtin.module` operation.
func (m *Module) Root() OpID { return m.root }

// Body returns the block of the module, holding the top-level operations (functions, executables).
func (m *Module) Body() BlockID { return m.body }

// NumOperations returns the number of operations ever created in the module (including erased ones).
func (m *Module) NumOperations() int { return len(m.ops) - 1 }

func (m *Module) checkOp(op OpID) error {
	if op == NoOp || int(op) >= len(m.ops) {
		return errors.Errorf("invalid operation handle %d", op)
	}
	return nil
}

func (m *Module) checkValue(v ValueID) error {
	if v == NoValue || int(v) >= len(m.values) {
		return errors.Errorf("invalid value handle %d", v)
	}
	return nil
}

func (m *Module) checkBlock(b BlockID) error {
	if b == NoBlock || int(b) >= len(m.blocks) {
		return errors.Errorf("invalid block handle %d", b)
	}
	return nil
}

func (m *Module) checkRegion(r RegionID) error {
	if r == NoRegion || int(r) >= len(m.regions) {
		return errors.Errorf("invalid region handle %d", r)
	}
	return nil
}

// Operation accessors. They panic on invalid handles, like slice indexing.

// Kind returns the kind of the operation.
func (m *Module) Kind(op OpID) optypes.OpType { return m.ops[op].kind }

// Operands returns a copy of the operands of the operation.
func (m *Module) Operands(op OpID) []ValueID { return slices.Clone(m.ops[op].operands) }

// Operand returns the i-th operand of the operation.
func (m *Module) Operand(op OpID, i int) ValueID { return m.ops[op].operands[i] }

// NumOperands returns the number of operands of the operation.
func (m *Module) NumOperands(op OpID) int { return len(m.ops[op].operands) }

// Results returns a copy of the results of the operation.
func (m *Module) Results(op OpID) []ValueID { return slices.Clone(m.ops[op].results) }

// Result returns the i-th result of the operation.
func (m *Module) Result(op OpID, i int) ValueID { return m.ops[op].results[i] }

// NumResults returns the number of results of the operation.
func (m *Module) NumResults(op OpID) int { return len(m.ops[op].results) }

// Regions returns a copy of the regions of the operation.
func (m *Module) Regions(op OpID) []RegionID { return slices.Clone(m.ops[op].regions) }

// Attr returns the named attribute of the operation.
func (m *Module) Attr(op OpID, name string) (any, bool) {
	v, found := m.ops[op].attrs[name]
	return v, found
}

// Attributes returns a copy of the attributes of the operation.
func (m *Module) Attributes(op OpID) Attributes { return m.ops[op].attrs.Clone() }

// OpLoc returns the location of the operation.
func (m *Module) OpLoc(op OpID) Location { return m.ops[op].loc }

// IsErased returns whether the operation was erased.
func (m *Module) IsErased(op OpID) bool { return m.ops[op].erased }

// ParentBlock returns the block holding the operation, NoBlock for the module root.
func (m *Module) ParentBlock(op OpID) BlockID { return m.ops[op].block }

// ParentOp returns the operation whose region holds the operation, NoOp for the module root.
func (m *Module) ParentOp(op OpID) OpID {
	block := m.ops[op].block
	if block == NoBlock {
		return NoOp
	}
	return m.BlockParentOp(block)
}

// ParentOfKind returns the closest ancestor of the operation with the given kind, or NoOp.
func (m *Module) ParentOfKind(op OpID, kind optypes.OpType) OpID {
	for parent := m.ParentOp(op); parent != NoOp; parent = m.ParentOp(parent) {
		if m.ops[parent].kind == kind {
			return parent
		}
	}
	return NoOp
}

// Value accessors.

// Type returns the type of the value.
func (m *Module) Type(v ValueID) Type { return m.values[v].typ }

// Types returns the types of the given values.
func (m *Module) Types(values []ValueID) []Type {
	types := make([]Type, len(values))
	for i, v := range values {
		types[i] = m.values[v].typ
	}
	return types
}

// DefiningOp returns the operation producing the value, or NoOp if it is a block argument.
func (m *Module) DefiningOp(v ValueID) OpID { return m.values[v].op }

// IsBlockArgument returns whether the value is a block argument (attached or not).
func (m *Module) IsBlockArgument(v ValueID) bool { return m.values[v].op == NoOp }

// ArgumentOwner returns the block of a block argument, NoBlock if the value is a result or a detached argument.
func (m *Module) ArgumentOwner(v ValueID) BlockID { return m.values[v].block }

// ValueIndex returns the result index or the argument index of the value.
func (m *Module) ValueIndex(v ValueID) int { return m.values[v].index }

// Block and region accessors.

// BlockArgs returns a copy of the arguments of the block.
func (m *Module) BlockArgs(b BlockID) []ValueID { return slices.Clone(m.blocks[b].args) }

// BlockOps returns a copy of the list of operations of the block.
func (m *Module) BlockOps(b BlockID) []OpID { return slices.Clone(m.blocks[b].ops) }

// BlockRegion returns the region holding the block.
func (m *Module) BlockRegion(b BlockID) RegionID { return m.blocks[b].region }

// BlockParentOp returns the operation owning the region that holds the block.
func (m *Module) BlockParentOp(b BlockID) OpID {
	region := m.blocks[b].region
	if region == NoRegion {
		return NoOp
	}
	return m.regions[region].op
}

// Terminator returns the last operation of the block if it is a terminator, NoOp otherwise.
func (m *Module) Terminator(b BlockID) OpID {
	ops := m.blocks[b].ops
	if len(ops) == 0 {
		return NoOp
	}
	last := ops[len(ops)-1]
	if !m.ops[last].kind.IsTerminator() {
		return NoOp
	}
	return last
}

// RegionBlocks returns a copy of the blocks of the region.
func (m *Module) RegionBlocks(r RegionID) []BlockID { return slices.Clone(m.regions[r].blocks) }

// RegionOp returns the operation owning the region.
func (m *Module) RegionOp(r RegionID) OpID { return m.regions[r].op }

// EntryBlock returns the first block of the first region of the operation, or NoBlock.
func (m *Module) EntryBlock(op OpID) BlockID {
	regions := m.ops[op].regions
	if len(regions) == 0 || len(m.regions[regions[0]].blocks) == 0 {
		return NoBlock
	}
	return m.regions[regions[0]].blocks[0]
}

// Symbols

// SymbolName returns the `sym_name` attribute of the operation, if any.
func (m *Module) SymbolName(op OpID) (string, bool) {
	name, ok := m.ops[op].attrs[AttrSymName].(string)
	return name, ok
}

// LookupSymbol returns the top-level operation of the module with the given `sym_name`.
func (m *Module) LookupSymbol(name string) (OpID, bool) {
	for _, op := range m.blocks[m.body].ops {
		if symName, ok := m.SymbolName(op); ok && symName == name {
			return op, true
		}
	}
	return NoOp, false
}

// FunctionType returns the signature of a function-like operation: any operation with a `function_type`
// attribute.
func (m *Module) FunctionType(op OpID) (FunctionType, bool) {
	ft, ok := m.ops[op].attrs[AttrFunctionType].(FunctionType)
	return ft, ok
}

// ArgAttrs returns the attributes of the i-th argument of a function-like operation, nil if not set.
func (m *Module) ArgAttrs(op OpID, i int) Attributes {
	argAttrs, _ := m.ops[op].attrs[AttrArgAttrs].([]Attributes)
	if i < 0 || i >= len(argAttrs) {
		return nil
	}
	return argAttrs[i]
}
