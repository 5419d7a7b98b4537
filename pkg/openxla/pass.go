package openxla

import (
	"context"
	"runtime"

	"github.com/gomlx/go-openxla/pkg/convert"
	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/gomlx/go-openxla/pkg/optypes"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// FailureMessage is the diagnostic attached to a module whose conversion failed.
const FailureMessage = "conversion from Hlo to OpenXLA failed"

// ErrConversionFailed is wrapped by the errors returned for modules that could not be converted.
var ErrConversionFailed = convert.ErrConversionFailed

// Pass converts modules from buffer semantics ("lmhlo" and "memref" dialects) to value semantics.
// It holds only configuration: a Pass can be used concurrently on different modules.
type Pass struct {
	opts Options
}

// New returns a Pass with the given options.
func New(opts Options) (*Pass, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid openxla options")
	}
	return &Pass{opts: opts}, nil
}

// Options returns the options of the pass.
func (p *Pass) Options() Options {
	return p.opts
}

// patterns returns the patterns of the conversion, in the order they are tried.
func (p *Pass) patterns() *convert.PatternSet[*DeBufferization] {
	return convert.NewPatternSet(
		convert.NewPattern("function-signature", optypes.Any, convertSignature),
		convert.NewPattern("func-return", optypes.Return, convertReturn),
		convert.NewPattern("memref-alloc", optypes.Alloc, convertAlloc),
		convert.NewPattern("memref-dealloc", optypes.Dealloc, convertDealloc),
		convert.NewPattern("memref-load", optypes.Load, convertLoad),
		convert.NewPattern("memref-store", optypes.Store, convertStore),
		convert.NewPattern("memref-copy", optypes.Copy, convertCopy),
		convert.NewPattern("lmhlo-while", optypes.LmhloWhile, convertWhile),
		convert.NewPattern("lmhlo-terminator", optypes.LmhloTerminator, convertLoopTerminator),
		newCompiledOpPattern(p.opts.ExecutableSource),
	)
}

// Run converts the module in place.
//
// On failure the module is left unchanged, except for one error diagnostic (FailureMessage) attached to it,
// and the returned error wraps ErrConversionFailed.
func (p *Pass) Run(m *ir.Module) error {
	_, err := p.run(m)
	return err
}

// run converts the module and also returns the state of the conversion.
func (p *Pass) run(m *ir.Module) (*DeBufferization, error) {
	converter := NewTypeConverter()
	state := NewDeBufferization(m)
	target := NewTarget(converter, p.opts, state)
	driver := convert.NewDriver(target, converter, p.patterns(), state, convert.Config{MaxRewrites: p.opts.MaxRewrites})
	klog.V(1).Infof("Converting module %q (%d operations) to OpenXLA", m.Name, m.NumOperations())
	if err := driver.Run(m, setupExecutableSource(p.opts)); err != nil {
		m.EmitError(m.Loc, FailureMessage)
		return state, errors.WithMessagef(err, "module %q", m.Name)
	}
	klog.V(1).Infof("Module %q converted to OpenXLA with %d rewrites", m.Name, driver.NumRewrites())
	return state, nil
}

// Run converts the module in place with the given options. See Pass.Run.
func Run(m *ir.Module, opts Options) error {
	p, err := New(opts)
	if err != nil {
		return err
	}
	return p.Run(m)
}

// RunAll converts independent modules concurrently, at most GOMAXPROCS at a time.
//
// It returns one error per module, nil for the modules converted. Modules not started when ctx is cancelled
// are left untouched, with ctx.Err() as their error. A conversion already started always runs to the end.
func RunAll(ctx context.Context, modules []*ir.Module, opts Options) ([]error, error) {
	p, err := New(opts)
	if err != nil {
		return nil, err
	}
	errs := make([]error, len(modules))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range modules {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = p.Run(m)
			return nil
		})
	}
	_ = g.Wait()
	return errs, nil
}
