package ir

import (
	"maps"
	"reflect"
	"slices"
)

// Clone returns a deep copy of the module graph. Handles of the original are valid in the copy.
// Diagnostics are copied, open savepoints are not.
func (m *Module) Clone() *Module {
	c := &Module{
		Name:        m.Name,
		Loc:         m.Loc,
		ops:         make([]opData, len(m.ops)),
		values:      slices.Clone(m.values),
		blocks:      make([]blockData, len(m.blocks)),
		regions:     make([]regionData, len(m.regions)),
		root:        m.root,
		body:        m.body,
		diagnostics: slices.Clone(m.diagnostics),
	}
	for i, data := range m.ops {
		data.operands = slices.Clone(data.operands)
		data.results = slices.Clone(data.results)
		data.regions = slices.Clone(data.regions)
		data.attrs = maps.Clone(data.attrs)
		c.ops[i] = data
	}
	for i, data := range m.blocks {
		data.args = slices.Clone(data.args)
		data.ops = slices.Clone(data.ops)
		c.blocks[i] = data
	}
	for i, data := range m.regions {
		data.blocks = slices.Clone(data.blocks)
		c.regions[i] = data
	}
	return c
}

// Equal returns whether both modules hold the same graph, entry by entry, including erased operations.
// Diagnostics and savepoints are not compared.
func (m *Module) Equal(other *Module) bool {
	if m.Name != other.Name || m.Loc != other.Loc || m.root != other.root || m.body != other.body {
		return false
	}
	if len(m.ops) != len(other.ops) || len(m.values) != len(other.values) ||
		len(m.blocks) != len(other.blocks) || len(m.regions) != len(other.regions) {
		return false
	}
	for i := range m.ops {
		a, b := &m.ops[i], &other.ops[i]
		if a.kind != b.kind || a.loc != b.loc || a.block != b.block || a.erased != b.erased ||
			!slices.Equal(a.operands, b.operands) || !slices.Equal(a.results, b.results) ||
			!slices.Equal(a.regions, b.regions) || !reflect.DeepEqual(normalizeAttrs(a.attrs), normalizeAttrs(b.attrs)) {
			return false
		}
	}
	for i := range m.values {
		a, b := m.values[i], other.values[i]
		if a.op != b.op || a.block != b.block || a.index != b.index {
			return false
		}
		if (a.typ == nil) != (b.typ == nil) || (a.typ != nil && !a.typ.Equal(b.typ)) {
			return false
		}
	}
	for i := range m.blocks {
		a, b := m.blocks[i], other.blocks[i]
		if a.region != b.region || !slices.Equal(a.args, b.args) || !slices.Equal(a.ops, b.ops) {
			return false
		}
	}
	for i := range m.regions {
		a, b := m.regions[i], other.regions[i]
		if a.op != b.op || !slices.Equal(a.blocks, b.blocks) {
			return false
		}
	}
	return true
}

// normalizeAttrs maps empty attributes to nil, so that both compare equal.
func normalizeAttrs(attrs Attributes) Attributes {
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
