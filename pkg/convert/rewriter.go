package convert

import (
	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/pkg/errors"
)

// Rewriter is the handle patterns use to change the module.
//
// It is an ir.Builder whose insertion point and location are set, before each pattern runs, to right before
// the operation being rewritten, plus the TypeConverter of the conversion.
type Rewriter struct {
	*ir.Builder
	converter *TypeConverter
}

func newRewriter(m *ir.Module, converter *TypeConverter) *Rewriter {
	return &Rewriter{
		Builder:   m.NewBuilder(ir.AtBlockEnd(m.Body())),
		converter: converter,
	}
}

// resetTo sets the insertion point and location for rewriting op.
func (r *Rewriter) resetTo(op ir.OpID) {
	m := r.Module()
	r.SetInsertionPoint(m.BeforeOp(op))
	r.Loc = m.OpLoc(op)
}

// Converter returns the TypeConverter of the conversion.
func (r *Rewriter) Converter() *TypeConverter {
	return r.converter
}

// ConvertType converts t with the TypeConverter of the conversion.
func (r *Rewriter) ConvertType(t ir.Type) (ir.Type, error) {
	return r.converter.Convert(t)
}

// ReplaceOp replaces every use of the results of op by the corresponding value, and erases op.
func (r *Rewriter) ReplaceOp(op ir.OpID, values ...ir.ValueID) error {
	m := r.Module()
	results := m.Results(op)
	if len(results) != len(values) {
		return errors.Errorf("cannot replace %s: it has %d results, but %d replacement values were given",
			m.Kind(op), len(results), len(values))
	}
	for i, result := range results {
		if err := m.ReplaceAllUsesWith(result, values[i]); err != nil {
			return errors.WithMessagef(err, "replacing result #%d of %s", i, m.Kind(op))
		}
	}
	return m.EraseOp(op)
}

// EraseOp erases op. Uses of its results, if any, must be rewritten before the conversion ends.
func (r *Rewriter) EraseOp(op ir.OpID) error {
	return r.Module().EraseOp(op)
}

// Declinef returns an error wrapping ErrNotApplicable, meant to be returned by a pattern that doesn't apply.
func (r *Rewriter) Declinef(format string, args ...any) error {
	return errors.Wrapf(ErrNotApplicable, format, args...)
}
