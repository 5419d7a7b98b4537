package ir

import (
	"slices"

	"github.com/gomlx/go-openxla/pkg/optypes"
	"github.com/pkg/errors"
)

// InsertionPoint is where new operations are inserted: in Block, before the operation Before, or at the end of
// the block if Before is NoOp.
type InsertionPoint struct {
	Block  BlockID
	Before OpID
}

// AtBlockEnd returns the insertion point at the end of the block.
func AtBlockEnd(b BlockID) InsertionPoint {
	return InsertionPoint{Block: b}
}

// AtBlockStart returns the insertion point before the first operation of the block.
func (m *Module) AtBlockStart(b BlockID) InsertionPoint {
	ops := m.blocks[b].ops
	if len(ops) == 0 {
		return InsertionPoint{Block: b}
	}
	return InsertionPoint{Block: b, Before: ops[0]}
}

// BeforeOp returns the insertion point right before the operation.
func (m *Module) BeforeOp(op OpID) InsertionPoint {
	return InsertionPoint{Block: m.ops[op].block, Before: op}
}

// AfterOp returns the insertion point right after the operation.
func (m *Module) AfterOp(op OpID) InsertionPoint {
	block := m.ops[op].block
	ops := m.blocks[block].ops
	idx := slices.Index(ops, op)
	if idx < 0 || idx+1 >= len(ops) {
		return InsertionPoint{Block: block}
	}
	return InsertionPoint{Block: block, Before: ops[idx+1]}
}

// OpSpec describes an operation to create.
type OpSpec struct {
	Kind        optypes.OpType
	Operands    []ValueID
	ResultTypes []Type
	Attributes  Attributes

	// NumRegions is the number of (empty) regions to create. Use AddBlock to populate them.
	NumRegions int

	Loc Location
}

// CreateOp creates an operation at the insertion point and returns its handle.
//
// Operands must be valid values of the module, and result types must be non-nil.
func (m *Module) CreateOp(ip InsertionPoint, spec OpSpec) (OpID, error) {
	if !spec.Kind.IsValid() {
		return NoOp, errors.Errorf("cannot create operation of invalid kind %d", spec.Kind)
	}
	if err := m.checkBlock(ip.Block); err != nil {
		return NoOp, errors.WithMessagef(err, "cannot create operation %s", spec.Kind)
	}
	pos := len(m.blocks[ip.Block].ops)
	if ip.Before != NoOp {
		pos = slices.Index(m.blocks[ip.Block].ops, ip.Before)
		if pos < 0 {
			return NoOp, errors.Errorf("cannot create operation %s: insertion point operation #%d is not in block #%d",
				spec.Kind, ip.Before, ip.Block)
		}
	}
	for i, v := range spec.Operands {
		if err := m.checkValue(v); err != nil {
			return NoOp, errors.WithMessagef(err, "cannot create operation %s, operand #%d", spec.Kind, i)
		}
	}
	for i, t := range spec.ResultTypes {
		if t == nil {
			return NoOp, errors.Errorf("cannot create operation %s: result #%d has no type", spec.Kind, i)
		}
	}
	if spec.NumRegions < 0 {
		return NoOp, errors.Errorf("cannot create operation %s with %d regions", spec.Kind, spec.NumRegions)
	}

	op := m.newOp(opData{
		kind:     spec.Kind,
		operands: slices.Clone(spec.Operands),
		attrs:    spec.Attributes.Clone(),
		loc:      spec.Loc,
		block:    ip.Block,
	})
	results := make([]ValueID, len(spec.ResultTypes))
	for i, t := range spec.ResultTypes {
		results[i] = m.newValue(valueData{typ: t, op: op, index: i})
	}
	m.ops[op].results = results
	if spec.NumRegions > 0 {
		regions := make([]RegionID, spec.NumRegions)
		for i := range regions {
			regions[i] = m.newRegion(op)
		}
		m.ops[op].regions = regions
	}

	m.touchBlock(ip.Block)
	m.blocks[ip.Block].ops = slices.Insert(m.blocks[ip.Block].ops, pos, op)
	return op, nil
}

// AddBlock appends a new block with arguments of the given types to the region.
func (m *Module) AddBlock(r RegionID, argTypes ...Type) (BlockID, error) {
	if err := m.checkRegion(r); err != nil {
		return NoBlock, errors.WithMessage(err, "cannot add block")
	}
	b := m.newBlock(r)
	for _, t := range argTypes {
		if _, err := m.AddBlockArgument(b, t); err != nil {
			return NoBlock, err
		}
	}
	m.touchRegion(r)
	m.regions[r].blocks = append(m.regions[r].blocks, b)
	return b, nil
}

// AddBlockArgument appends a new argument of the given type to the block.
func (m *Module) AddBlockArgument(b BlockID, t Type) (ValueID, error) {
	if err := m.checkBlock(b); err != nil {
		return NoValue, errors.WithMessage(err, "cannot add block argument")
	}
	if t == nil {
		return NoValue, errors.Errorf("cannot add block argument without type to block #%d", b)
	}
	m.touchBlock(b)
	v := m.newValue(valueData{typ: t, block: b, index: len(m.blocks[b].args)})
	m.blocks[b].args = append(m.blocks[b].args, v)
	return v, nil
}

// NewFunction appends a `func.func` operation with the given name and signature to the module body, with an
// entry block whose arguments match the inputs of the signature. argAttrs is optional, and if given must have
// one entry per input.
func (m *Module) NewFunction(name string, signature FunctionType, argAttrs []Attributes) (OpID, BlockID, error) {
	if name == "" {
		return NoOp, NoBlock, errors.New("cannot create function without a name")
	}
	if _, found := m.LookupSymbol(name); found {
		return NoOp, NoBlock, errors.Errorf("cannot create function %q: symbol already defined", name)
	}
	if argAttrs != nil && len(argAttrs) != len(signature.Inputs) {
		return NoOp, NoBlock, errors.Errorf("function %q has %d inputs but %d argument attributes",
			name, len(signature.Inputs), len(argAttrs))
	}
	attrs := Attributes{
		AttrSymName:      name,
		AttrFunctionType: signature.Clone(),
	}
	if argAttrs != nil {
		attrs[AttrArgAttrs] = slices.Clone(argAttrs)
	}
	fn, err := m.CreateOp(AtBlockEnd(m.body), OpSpec{
		Kind:       optypes.Func,
		Attributes: attrs,
		NumRegions: 1,
	})
	if err != nil {
		return NoOp, NoBlock, err
	}
	entry, err := m.AddBlock(m.ops[fn].regions[0], signature.Inputs...)
	if err != nil {
		return NoOp, NoBlock, err
	}
	return fn, entry, nil
}

// Builder creates operations at an insertion point that it keeps up to date: each new operation is inserted
// after the previous one.
type Builder struct {
	m  *Module
	ip InsertionPoint

	// Loc is used for all operations created.
	Loc Location
}

// NewBuilder returns a Builder inserting at ip.
func (m *Module) NewBuilder(ip InsertionPoint) *Builder {
	return &Builder{m: m, ip: ip}
}

// Module returns the module being built.
func (b *Builder) Module() *Module { return b.m }

// SetInsertionPoint changes where the next operations are created.
func (b *Builder) SetInsertionPoint(ip InsertionPoint) { b.ip = ip }

// InsertionPoint returns where the next operation will be created.
func (b *Builder) InsertionPoint() InsertionPoint { return b.ip }

// Create an operation with the given kind, operands, result types and attributes.
func (b *Builder) Create(kind optypes.OpType, operands []ValueID, resultTypes []Type, attrs Attributes) (OpID, error) {
	return b.CreateWithRegions(kind, operands, resultTypes, attrs, 0)
}

// CreateWithRegions is like Create, and also adds numRegions empty regions to the operation.
func (b *Builder) CreateWithRegions(kind optypes.OpType, operands []ValueID, resultTypes []Type, attrs Attributes,
	numRegions int) (OpID, error) {
	return b.m.CreateOp(b.ip, OpSpec{
		Kind:        kind,
		Operands:    operands,
		ResultTypes: resultTypes,
		Attributes:  attrs,
		NumRegions:  numRegions,
		Loc:         b.Loc,
	})
}

// Create1 creates an operation with exactly one result and returns that result.
func (b *Builder) Create1(kind optypes.OpType, operands []ValueID, resultType Type, attrs Attributes) (ValueID, error) {
	op, err := b.Create(kind, operands, []Type{resultType}, attrs)
	if err != nil {
		return NoValue, err
	}
	return b.m.ops[op].results[0], nil
}

// Constant creates an `arith.constant` holding the literal.
func (b *Builder) Constant(lit Literal) (ValueID, error) {
	if lit.Type == nil {
		return NoValue, errors.New("cannot create constant without type")
	}
	return b.Create1(optypes.Constant, nil, lit.Type, Attributes{AttrValue: lit})
}
