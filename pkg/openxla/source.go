package openxla

import (
	"github.com/gomlx/go-openxla/pkg/convert"
	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/gomlx/go-openxla/pkg/optypes"
	"github.com/pkg/errors"
)

// AttrObjects lists the compiled objects of an executable source. The pass leaves it empty: kernels are added
// after the conversion.
const AttrObjects = "objects"

// ExecutableSource returns the `iree_input.executable.source` operation with the given symbol name, creating
// it at the end of the module if it doesn't exist yet.
//
// A new executable source has no objects, and a region with a single block holding only its terminator.
func ExecutableSource(b *ir.Builder, name, visibility string) (ir.OpID, error) {
	m := b.Module()
	if op, found := m.LookupSymbol(name); found {
		if m.Kind(op) != optypes.ExecutableSource {
			return ir.NoOp, errors.Errorf("symbol @%s is already used by a %s operation", name, m.Kind(op))
		}
		return op, nil
	}
	b.SetInsertionPoint(ir.AtBlockEnd(m.Body()))
	b.Loc = m.Loc
	source, err := b.CreateWithRegions(optypes.ExecutableSource, nil, nil, ir.Attributes{
		ir.AttrSymName:       name,
		ir.AttrSymVisibility: visibility,
		AttrObjects:          []any{},
	}, 1)
	if err != nil {
		return ir.NoOp, errors.WithMessage(err, "creating executable source")
	}
	block, err := m.AddBlock(m.Regions(source)[0])
	if err != nil {
		return ir.NoOp, err
	}
	end := m.NewBuilder(ir.AtBlockEnd(block))
	end.Loc = m.Loc
	if _, err := end.Create(optypes.ExecutableSourceEnd, nil, nil, nil); err != nil {
		return ir.NoOp, err
	}
	return source, nil
}

// setupExecutableSource is the setup step of the conversion driver: the executable source is created inside
// the conversion transaction, so a failed conversion leaves no trace of it.
func setupExecutableSource(opts Options) func(r *convert.Rewriter) error {
	return func(r *convert.Rewriter) error {
		_, err := ExecutableSource(r.Builder, opts.ExecutableSource, opts.Visibility)
		return err
	}
}
