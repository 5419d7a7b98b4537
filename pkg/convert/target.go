package convert

import (
	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/gomlx/go-openxla/pkg/optypes"
)

// LegalityFn decides whether one operation is legal.
type LegalityFn func(m *ir.Module, op ir.OpID) bool

// Target classifies operations as legal or illegal after the conversion.
//
// The rules are applied in order:
//  1. operations of an illegal dialect are illegal;
//  2. operations of a legal dialect are legal;
//  3. operations with a per-kind rule (AddLegalOp, AddIllegalOp, AddDynamicallyLegalOp) follow it;
//  4. anything else is illegal.
type Target struct {
	illegalDialects map[string]bool
	legalDialects   map[string]bool
	ops             map[optypes.OpType]LegalityFn
}

// NewTarget returns a Target without rules: every operation is illegal.
func NewTarget() *Target {
	return &Target{
		illegalDialects: make(map[string]bool),
		legalDialects:   make(map[string]bool),
		ops:             make(map[optypes.OpType]LegalityFn),
	}
}

// AddIllegalDialect marks every operation of the dialects as illegal.
func (t *Target) AddIllegalDialect(dialects ...string) {
	for _, d := range dialects {
		t.illegalDialects[d] = true
		delete(t.legalDialects, d)
	}
}

// AddLegalDialect marks every operation of the dialects as legal, unless the dialect is also illegal.
func (t *Target) AddLegalDialect(dialects ...string) {
	for _, d := range dialects {
		if !t.illegalDialects[d] {
			t.legalDialects[d] = true
		}
	}
}

// AddLegalOp marks the operation kinds as legal.
func (t *Target) AddLegalOp(kinds ...optypes.OpType) {
	for _, k := range kinds {
		t.ops[k] = func(*ir.Module, ir.OpID) bool { return true }
	}
}

// AddIllegalOp marks the operation kinds as illegal.
func (t *Target) AddIllegalOp(kinds ...optypes.OpType) {
	for _, k := range kinds {
		t.ops[k] = func(*ir.Module, ir.OpID) bool { return false }
	}
}

// AddDynamicallyLegalOp makes fn decide the legality of operations of the given kind.
func (t *Target) AddDynamicallyLegalOp(kind optypes.OpType, fn LegalityFn) {
	t.ops[kind] = fn
}

// IsLegal returns whether the operation is legal.
func (t *Target) IsLegal(m *ir.Module, op ir.OpID) bool {
	kind := m.Kind(op)
	dialect := kind.Dialect()
	if t.illegalDialects[dialect] {
		return false
	}
	if t.legalDialects[dialect] {
		return true
	}
	if fn, found := t.ops[kind]; found {
		return fn(m, op)
	}
	return false
}
