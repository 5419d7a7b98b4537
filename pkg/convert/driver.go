package convert

import (
	"fmt"

	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/gomlx/go-openxla/pkg/optypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrConversionFailed is wrapped by every error returned by a failed conversion: check with errors.Is.
// The error is a *Failure, with details on the operation that could not be converted.
var ErrConversionFailed = errors.New("conversion failed")

// Failure describes why a conversion failed. The module is left as it was before the conversion.
type Failure struct {
	// Op that could not be legalized, NoOp if the failure is not about one operation (e.g.: the module
	// failed verification).
	Op ir.OpID

	// Kind and Loc of Op. They are recorded before the rollback, since Op may be an operation created by the
	// conversion.
	Kind optypes.OpType
	Loc  ir.Location

	// Reason is a human-readable description of the failure.
	Reason string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Op == ir.NoOp {
		return fmt.Sprintf("%s: %s", ErrConversionFailed, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %s: %s", ErrConversionFailed, f.Loc, f.Kind, f.Reason)
}

// Unwrap returns ErrConversionFailed.
func (f *Failure) Unwrap() error {
	return ErrConversionFailed
}

// State of a Driver.
type State int

const (
	StateInitialized State = iota
	StateRewriting
	StateCommitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "Initialized"
	case StateRewriting:
		return "Rewriting"
	case StateCommitted:
		return "Committed"
	case StateFailed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config of a Driver.
type Config struct {
	// MaxRewrites limits the number of successful pattern applications. It guards against patterns that
	// succeed without making progress. If 0, DefaultMaxRewrites is used.
	MaxRewrites int
}

// DefaultMaxRewrites returns the rewrite limit used for a module when Config.MaxRewrites is 0: generous enough
// for every operation to be rewritten a few times.
func DefaultMaxRewrites(m *ir.Module) int {
	return 16*m.NumOperations() + 64
}

// Driver applies a PatternSet to a module until every operation is legal according to a Target.
//
// A Driver is used once: it goes from StateInitialized to StateRewriting when Run is called, and ends in
// StateCommitted or StateFailed.
type Driver[S any] struct {
	target    *Target
	converter *TypeConverter
	patterns  *PatternSet[S]
	state     S
	config    Config

	status      State
	numRewrites int

	// declines holds the last reason each operation was not rewritten, for the failure report.
	declines map[ir.OpID]string
}

// NewDriver creates a Driver. The state is passed to every pattern application.
func NewDriver[S any](target *Target, converter *TypeConverter, patterns *PatternSet[S], state S, config Config) *Driver[S] {
	return &Driver[S]{
		target:    target,
		converter: converter,
		patterns:  patterns,
		state:     state,
		config:    config,
		declines:  make(map[ir.OpID]string),
	}
}

// State returns the current state of the driver.
func (d *Driver[S]) State() State {
	return d.status
}

// NumRewrites returns the number of successful pattern applications so far.
func (d *Driver[S]) NumRewrites() int {
	return d.numRewrites
}

// Run converts the module.
//
// If setup is not nil, it is called first, inside the conversion transaction: whatever it creates is kept
// only if the conversion succeeds.
//
// On success the module is fully legal and verified. On failure the module is restored to the state it had
// before Run, and the returned error is a *Failure.
func (d *Driver[S]) Run(m *ir.Module, setup func(r *Rewriter) error) error {
	if d.status != StateInitialized {
		return errors.Errorf("conversion driver can only run once, it is in state %s", d.status)
	}
	d.status = StateRewriting
	m.Begin()
	failure := d.rewrite(m, setup)
	if failure != nil {
		d.status = StateFailed
		if err := m.Rollback(); err != nil {
			return errors.WithMessagef(err, "rolling back failed conversion of module %q", m.Name)
		}
		klog.Warningf("Conversion of module %q rolled back after %d rewrites: %s", m.Name, d.numRewrites, failure)
		return failure
	}
	if err := m.Commit(); err != nil {
		return err
	}
	d.status = StateCommitted
	klog.V(1).Infof("Conversion of module %q committed after %d rewrites", m.Name, d.numRewrites)
	return nil
}

// Apply converts the module with a new Driver. See Driver.Run.
func Apply[S any](m *ir.Module, target *Target, converter *TypeConverter, patterns *PatternSet[S], state S,
	config Config) error {
	return NewDriver(target, converter, patterns, state, config).Run(m, nil)
}

// rewrite applies patterns until no illegal operation can be rewritten, and then checks the result.
func (d *Driver[S]) rewrite(m *ir.Module, setup func(r *Rewriter) error) *Failure {
	r := newRewriter(m, d.converter)
	if setup != nil {
		if err := setup(r); err != nil {
			return &Failure{Reason: fmt.Sprintf("conversion setup failed: %v", err)}
		}
	}
	maxRewrites := d.config.MaxRewrites
	if maxRewrites <= 0 {
		maxRewrites = DefaultMaxRewrites(m)
	}
	for d.step(m, r) {
		d.numRewrites++
		if d.numRewrites > maxRewrites {
			return &Failure{Reason: fmt.Sprintf("exceeded the limit of %d rewrites", maxRewrites)}
		}
	}
	if failure := d.checkLegal(m); failure != nil {
		return failure
	}
	if err := m.Verify(); err != nil {
		return &Failure{Reason: fmt.Sprintf("converted module failed verification: %v", err)}
	}
	return nil
}

// step rewrites the first illegal operation, in pre-order, for which a pattern succeeds. It returns false if
// there is none.
func (d *Driver[S]) step(m *ir.Module, r *Rewriter) bool {
	for _, op := range m.PreOrder(m.Root()) {
		if d.target.IsLegal(m, op) {
			continue
		}
		if d.tryPatterns(m, r, op) {
			return true
		}
	}
	return false
}

// tryPatterns tries each pattern for op in registration order, each in its own savepoint.
func (d *Driver[S]) tryPatterns(m *ir.Module, r *Rewriter, op ir.OpID) bool {
	kind := m.Kind(op)
	candidates := d.patterns.For(kind)
	if len(candidates) == 0 {
		d.declines[op] = "no pattern for operation"
		return false
	}
	for _, p := range candidates {
		m.Begin()
		r.resetTo(op)
		err := p.MatchAndRewrite(r, op, d.state)
		if err == nil {
			if err := m.Commit(); err != nil {
				klog.Errorf("Failed to commit pattern %q on %s: %+v", p.Name(), kind, err)
				return false
			}
			klog.V(2).Infof("Pattern %q rewrote %s at %s", p.Name(), kind, m.OpLoc(op))
			delete(d.declines, op)
			return true
		}
		if rbErr := m.Rollback(); rbErr != nil {
			klog.Errorf("Failed to roll back pattern %q on %s: %+v", p.Name(), kind, rbErr)
			return false
		}
		if !errors.Is(err, ErrNotApplicable) {
			klog.V(1).Infof("Pattern %q failed on %s at %s: %v", p.Name(), kind, m.OpLoc(op), err)
		} else {
			klog.V(2).Infof("Pattern %q declined %s at %s: %v", p.Name(), kind, m.OpLoc(op), err)
		}
		d.declines[op] = fmt.Sprintf("pattern %q: %v", p.Name(), err)
	}
	return false
}

// checkLegal returns a Failure for the innermost illegal operation that comes first in pre-order, if any.
func (d *Driver[S]) checkLegal(m *ir.Module) *Failure {
	var illegal []ir.OpID
	for _, op := range m.PreOrder(m.Root()) {
		if !d.target.IsLegal(m, op) {
			illegal = append(illegal, op)
		}
	}
	if len(illegal) == 0 {
		return nil
	}
	culprit := illegal[len(illegal)-1]
	for i, op := range illegal {
		// Pre-order: the descendants of op, if any, follow it immediately.
		if i+1 == len(illegal) || !m.IsAncestor(op, illegal[i+1]) {
			culprit = op
			break
		}
	}
	reason := "failed to legalize operation"
	if decline, found := d.declines[culprit]; found {
		reason = fmt.Sprintf("failed to legalize operation, %s", decline)
	}
	return &Failure{
		Op:     culprit,
		Kind:   m.Kind(culprit),
		Loc:    m.OpLoc(culprit),
		Reason: reason,
	}
}
