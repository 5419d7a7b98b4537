package convert

import (
	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/gomlx/go-openxla/pkg/optypes"
	"github.com/pkg/errors"
)

// ErrNotApplicable is the conventional error a pattern returns (wrapped, see Rewriter.Declinef) when it
// doesn't apply to an operation. Any error returned by a pattern is taken as a decline, this one only
// distinguishes expected declines from unexpected failures in the logs.
var ErrNotApplicable = errors.New("pattern not applicable")

// Pattern rewrites operations of one kind (or of any kind, if Root returns optypes.Any) into legal ones.
//
// MatchAndRewrite either succeeds, having replaced or updated op through the Rewriter, or returns an error
// to decline. Changes done to the module before declining are rolled back by the driver, but changes to
// the state S are not, unless the pattern registered a rollback hook (ir.Module.OnRollback): patterns should
// only update the state once they are sure to succeed.
type Pattern[S any] interface {
	Name() string
	Root() optypes.OpType
	MatchAndRewrite(r *Rewriter, op ir.OpID, state S) error
}

// RewriteFn is the signature of the rewrite function of a pattern created with NewPattern.
type RewriteFn[S any] func(r *Rewriter, op ir.OpID, state S) error

type funcPattern[S any] struct {
	name string
	root optypes.OpType
	fn   RewriteFn[S]
}

func (p *funcPattern[S]) Name() string         { return p.name }
func (p *funcPattern[S]) Root() optypes.OpType { return p.root }
func (p *funcPattern[S]) MatchAndRewrite(r *Rewriter, op ir.OpID, state S) error {
	return p.fn(r, op, state)
}

// NewPattern creates a Pattern from a function.
func NewPattern[S any](name string, root optypes.OpType, fn RewriteFn[S]) Pattern[S] {
	return &funcPattern[S]{name: name, root: root, fn: fn}
}

// PatternSet is an ordered list of patterns: for each operation, patterns are tried in the order they were
// added.
type PatternSet[S any] struct {
	patterns []Pattern[S]
}

// NewPatternSet returns a PatternSet with the given patterns.
func NewPatternSet[S any](patterns ...Pattern[S]) *PatternSet[S] {
	return &PatternSet[S]{patterns: patterns}
}

// Add appends patterns to the set.
func (s *PatternSet[S]) Add(patterns ...Pattern[S]) {
	s.patterns = append(s.patterns, patterns...)
}

// Len returns the number of patterns in the set.
func (s *PatternSet[S]) Len() int {
	return len(s.patterns)
}

// For returns the patterns that may rewrite an operation of the given kind, in registration order.
func (s *PatternSet[S]) For(kind optypes.OpType) []Pattern[S] {
	var matching []Pattern[S]
	for _, p := range s.patterns {
		if root := p.Root(); root == optypes.Any || root == kind {
			matching = append(matching, p)
		}
	}
	return matching
}
