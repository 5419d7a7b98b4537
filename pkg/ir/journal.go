package ir

import (
	"maps"
	"slices"

	"github.com/pkg/errors"
)

// savepoint records what is needed to undo the changes made after Begin: the arena lengths at the time, and a
// copy of every pre-existing entry taken the first time it is modified (copy-on-first-mutation).
type savepoint struct {
	numOps, numValues, numBlocks, numRegions int

	ops     map[OpID]opData
	values  map[ValueID]valueData
	blocks  map[BlockID]blockData
	regions map[RegionID]regionData

	onRollback []func()
}

// Begin opens a savepoint. Savepoints nest: each Begin must be matched by a Commit or a Rollback.
func (m *Module) Begin() {
	m.journal = append(m.journal, &savepoint{
		numOps:     len(m.ops),
		numValues:  len(m.values),
		numBlocks:  len(m.blocks),
		numRegions: len(m.regions),
	})
}

// InTransaction returns whether there is an open savepoint.
func (m *Module) InTransaction() bool {
	return len(m.journal) > 0
}

// Commit closes the innermost savepoint keeping its changes. If there is an enclosing savepoint, the changes
// can still be undone by rolling it back.
func (m *Module) Commit() error {
	if len(m.journal) == 0 {
		return errors.New("Commit called without a matching Begin")
	}
	top := m.journal[len(m.journal)-1]
	m.journal = m.journal[:len(m.journal)-1]
	if len(m.journal) == 0 {
		return nil
	}
	parent := m.journal[len(m.journal)-1]
	parent.ops = mergeSaved(parent.ops, top.ops, parent.numOps)
	parent.values = mergeSaved(parent.values, top.values, parent.numValues)
	parent.blocks = mergeSaved(parent.blocks, top.blocks, parent.numBlocks)
	parent.regions = mergeSaved(parent.regions, top.regions, parent.numRegions)
	parent.onRollback = append(parent.onRollback, top.onRollback...)
	return nil
}

// mergeSaved moves the saved copies of the inner savepoint into the outer one, for entries the outer one has
// not saved yet and that already existed when it was opened.
func mergeSaved[K ~uint32, V any](outer, inner map[K]V, outerLen int) map[K]V {
	for id, data := range inner {
		if int(id) >= outerLen {
			continue
		}
		if _, found := outer[id]; found {
			continue
		}
		if outer == nil {
			outer = make(map[K]V)
		}
		outer[id] = data
	}
	return outer
}

// Rollback closes the innermost savepoint undoing every change made since the matching Begin: entities created
// since are discarded, modified ones are restored, and the OnRollback hooks run in reverse order.
func (m *Module) Rollback() error {
	if len(m.journal) == 0 {
		return errors.New("Rollback called without a matching Begin")
	}
	top := m.journal[len(m.journal)-1]
	m.journal = m.journal[:len(m.journal)-1]
	for id, data := range top.ops {
		m.ops[id] = data
	}
	for id, data := range top.values {
		m.values[id] = data
	}
	for id, data := range top.blocks {
		m.blocks[id] = data
	}
	for id, data := range top.regions {
		m.regions[id] = data
	}
	m.ops = m.ops[:top.numOps]
	m.values = m.values[:top.numValues]
	m.blocks = m.blocks[:top.numBlocks]
	m.regions = m.regions[:top.numRegions]
	for i := len(top.onRollback) - 1; i >= 0; i-- {
		top.onRollback[i]()
	}
	return nil
}

// OnRollback registers fn to be called if the innermost open savepoint (or one enclosing it, after a Commit)
// is rolled back. It is used by state kept outside the Module that must stay consistent with it.
// Without an open savepoint it is a no-op.
func (m *Module) OnRollback(fn func()) {
	if len(m.journal) == 0 {
		return
	}
	top := m.journal[len(m.journal)-1]
	top.onRollback = append(top.onRollback, fn)
}

func (m *Module) touchOp(id OpID) {
	if len(m.journal) == 0 {
		return
	}
	top := m.journal[len(m.journal)-1]
	if int(id) >= top.numOps {
		return
	}
	if _, found := top.ops[id]; found {
		return
	}
	if top.ops == nil {
		top.ops = make(map[OpID]opData)
	}
	data := m.ops[id]
	data.operands = slices.Clone(data.operands)
	data.results = slices.Clone(data.results)
	data.regions = slices.Clone(data.regions)
	data.attrs = maps.Clone(data.attrs)
	top.ops[id] = data
}

func (m *Module) touchValue(id ValueID) {
	if len(m.journal) == 0 {
		return
	}
	top := m.journal[len(m.journal)-1]
	if int(id) >= top.numValues {
		return
	}
	if _, found := top.values[id]; found {
		return
	}
	if top.values == nil {
		top.values = make(map[ValueID]valueData)
	}
	top.values[id] = m.values[id]
}

func (m *Module) touchBlock(id BlockID) {
	if len(m.journal) == 0 {
		return
	}
	top := m.journal[len(m.journal)-1]
	if int(id) >= top.numBlocks {
		return
	}
	if _, found := top.blocks[id]; found {
		return
	}
	if top.blocks == nil {
		top.blocks = make(map[BlockID]blockData)
	}
	data := m.blocks[id]
	data.args = slices.Clone(data.args)
	data.ops = slices.Clone(data.ops)
	top.blocks[id] = data
}

func (m *Module) touchRegion(id RegionID) {
	if len(m.journal) == 0 {
		return
	}
	top := m.journal[len(m.journal)-1]
	if int(id) >= top.numRegions {
		return
	}
	if _, found := top.regions[id]; found {
		return
	}
	if top.regions == nil {
		top.regions = make(map[RegionID]regionData)
	}
	data := m.regions[id]
	data.blocks = slices.Clone(data.blocks)
	top.regions[id] = data
}
