package convert

import (
	"strings"
	"testing"

	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/gomlx/go-openxla/pkg/optypes"
	"github.com/gomlx/go-openxla/pkg/types/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func must1[T any](value T, err error) T {
	must(err)
	return value
}

// Operation kinds used by the tests: "ctest" is the source dialect, "ctest_out" the target one, and
// "ctest_other" is not known to the target.
var (
	sourceOp   = optypes.MustRegister(optypes.Info{Dialect: "ctest", Name: "source"})
	sinkOp     = optypes.MustRegister(optypes.Info{Dialect: "ctest_out", Name: "sink"})
	endOp      = optypes.MustRegister(optypes.Info{Dialect: "ctest_out", Name: "end", Terminator: true})
	oddOp      = optypes.MustRegister(optypes.Info{Dialect: "ctest_other", Name: "odd"})
	maybeOp    = optypes.MustRegister(optypes.Info{Dialect: "ctest_other", Name: "maybe"})
	f32Tensor  = ir.Tensor(dtypes.F32, 2)
	f32Buffer  = ir.Buffer(dtypes.F32, 2)
	f32Scalar0 = ir.Buffer(dtypes.F32)
)

type testState struct {
	applied []string
}

func newTestTarget() *Target {
	target := NewTarget()
	target.AddLegalDialect("builtin", "ctest_out")
	target.AddIllegalDialect("ctest")
	return target
}

func newTestConverter() *TypeConverter {
	converter := NewTypeConverter()
	converter.AddConversion(Identity)
	converter.AddConversion(func(t ir.Type) (ir.Type, bool) {
		if buf, ok := t.(ir.BufferType); ok {
			return ir.TensorType{Shape: buf.Shape}, true
		}
		return nil, false
	})
	return converter
}

// sourceToSink rewrites ctest.source into ctest_out.sink, converting the result type.
var sourceToSink = NewPattern("source-to-sink", sourceOp, func(r *Rewriter, op ir.OpID, state *testState) error {
	m := r.Module()
	resultTypes, err := r.Converter().ConvertTypes(m.Types(m.Results(op)))
	if err != nil {
		return r.Declinef("converting result types: %v", err)
	}
	sink, err := r.Create(sinkOp, m.Operands(op), resultTypes, nil)
	if err != nil {
		return err
	}
	if err := r.ReplaceOp(op, m.Results(sink)...); err != nil {
		return err
	}
	state.applied = append(state.applied, "source-to-sink")
	return nil
})

// buildChain creates `%0 = ctest.source`, `%1 = ctest.source(%0)` at the module top-level.
func buildChain(t *testing.T) *ir.Module {
	t.Helper()
	m := ir.NewModule("chain")
	b := m.NewBuilder(ir.AtBlockEnd(m.Body()))
	first := must1(b.Create1(sourceOp, nil, f32Tensor, nil))
	must1(b.Create1(sourceOp, []ir.ValueID{first}, f32Tensor, nil))
	return m
}

func countKind(m *ir.Module, kind optypes.OpType) int {
	var count int
	m.Walk(func(op ir.OpID) bool {
		if m.Kind(op) == kind {
			count++
		}
		return true
	})
	return count
}

func TestTypeConverter(t *testing.T) {
	converter := newTestConverter()
	t.Run("Identity", func(t *testing.T) {
		for _, typ := range []ir.Type{f32Tensor, ir.Scalar(dtypes.Int32), ir.Index, ir.OpaqueType{Dialect: "x", Name: "y"}} {
			got, err := converter.Convert(typ)
			if err != nil {
				t.Fatalf("Convert(%s): %v", typ, err)
			}
			if !got.Equal(typ) || !converter.IsLegal(typ) {
				t.Errorf("Convert(%s) = %s, want it unchanged", typ, got)
			}
		}
	})
	t.Run("Precedence", func(t *testing.T) {
		got := must1(converter.Convert(f32Buffer))
		if !got.Equal(f32Tensor) {
			t.Errorf("Convert(%s) = %s, want %s", f32Buffer, got, f32Tensor)
		}
		if converter.IsLegal(f32Buffer) {
			t.Errorf("%s should not be legal", f32Buffer)
		}
	})
	t.Run("NotConvertible", func(t *testing.T) {
		empty := NewTypeConverter()
		_, err := empty.Convert(f32Tensor)
		if !errors.Is(err, ErrNotConvertible) {
			t.Fatalf("expected ErrNotConvertible, got %v", err)
		}
		if empty.IsLegal(f32Tensor) {
			t.Error("no type is legal without conversion rules")
		}
	})
	t.Run("Signature", func(t *testing.T) {
		ft := ir.FunctionType{Inputs: []ir.Type{f32Buffer, f32Scalar0}, Results: []ir.Type{f32Buffer}}
		if converter.IsSignatureLegal(ft) {
			t.Fatal("signature with buffers should not be legal")
		}
		converted := must1(converter.ConvertSignature(ft))
		if got, want := converted.String(), "(tensor<2xf32>, tensor<f32>) -> tensor<2xf32>"; got != want {
			t.Errorf("ConvertSignature() = %q, want %q", got, want)
		}
		if !converter.IsSignatureLegal(converted) {
			t.Error("converted signature should be legal")
		}
	})
	t.Run("Region", func(t *testing.T) {
		m := ir.NewModule("region")
		fn, entry, err := m.NewFunction("f", ir.FunctionType{Inputs: []ir.Type{f32Tensor}}, nil)
		must(err)
		b := m.NewBuilder(ir.AtBlockEnd(entry))
		buf := must1(b.Create1(sourceOp, nil, f32Buffer, nil))
		must1(b.Create(optypes.Return, nil, nil, nil))
		body := m.Regions(fn)[0]
		if converter.IsRegionLegal(m, body) {
			t.Fatal("region with a buffer result should not be legal")
		}
		must(m.SetType(buf, f32Tensor))
		if !converter.IsRegionLegal(m, body) {
			t.Fatal("region should be legal")
		}
	})
}

func TestTarget(t *testing.T) {
	m := ir.NewModule("target")
	b := m.NewBuilder(ir.AtBlockEnd(m.Body()))
	source := must1(b.Create(sourceOp, nil, nil, nil))
	sink := must1(b.Create(sinkOp, nil, nil, nil))
	odd := must1(b.Create(oddOp, nil, nil, nil))
	maybe := must1(b.Create(maybeOp, nil, nil, nil))

	target := NewTarget()
	target.AddLegalDialect("ctest_out")
	target.AddIllegalDialect("ctest")
	// Illegal dialects win over per-kind rules.
	target.AddLegalOp(sourceOp)
	target.AddDynamicallyLegalOp(maybeOp, func(m *ir.Module, op ir.OpID) bool {
		_, found := m.Attr(op, "ok")
		return found
	})

	tests := []struct {
		name string
		op   ir.OpID
		want bool
	}{
		{"IllegalDialect", source, false},
		{"LegalDialect", sink, true},
		{"DefaultIllegal", odd, false},
		{"Dynamic", maybe, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := target.IsLegal(m, tc.op); got != tc.want {
				t.Errorf("IsLegal(%s) = %v, want %v", m.Kind(tc.op), got, tc.want)
			}
		})
	}
	must(m.SetAttr(maybe, "ok", true))
	if !target.IsLegal(m, maybe) {
		t.Error("dynamic rule should now accept the operation")
	}
	target.AddLegalDialect("ctest")
	if target.IsLegal(m, source) {
		t.Error("a dialect marked illegal cannot become legal")
	}
}

func TestPatternSetOrder(t *testing.T) {
	noop := func(*Rewriter, ir.OpID, *testState) error { return nil }
	set := NewPatternSet(
		NewPattern("a", sourceOp, noop),
		NewPattern("b", optypes.Any, noop),
		NewPattern("c", sinkOp, noop),
	)
	set.Add(NewPattern("d", sourceOp, noop))
	var names []string
	for _, p := range set.For(sourceOp) {
		names = append(names, p.Name())
	}
	if got := strings.Join(names, ","); got != "a,b,d" {
		t.Errorf("For(%s) = %s, want a,b,d", sourceOp, got)
	}
	if set.Len() != 4 {
		t.Errorf("Len() = %d", set.Len())
	}
}

func TestApply(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		m := buildChain(t)
		state := &testState{}
		err := Apply(m, newTestTarget(), newTestConverter(), NewPatternSet(sourceToSink), state, Config{})
		if err != nil {
			t.Fatalf("Apply: %+v", err)
		}
		if countKind(m, sourceOp) != 0 || countKind(m, sinkOp) != 2 {
			t.Fatalf("unexpected module:\n%s", m)
		}
		if len(state.applied) != 2 {
			t.Errorf("pattern applied %d times, want 2", len(state.applied))
		}
		if err := m.Verify(); err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if m.InTransaction() {
			t.Error("transaction left open")
		}
	})

	t.Run("DeclineIsRolledBack", func(t *testing.T) {
		m := buildChain(t)
		declining := NewPattern("declining", sourceOp, func(r *Rewriter, op ir.OpID, _ *testState) error {
			// Leave some garbage behind before declining.
			if _, err := r.Create(sinkOp, nil, nil, nil); err != nil {
				return err
			}
			must(r.Module().SetAttr(op, "touched", true))
			return r.Declinef("never applies")
		})
		state := &testState{}
		err := Apply(m, newTestTarget(), newTestConverter(), NewPatternSet(declining, sourceToSink), state, Config{})
		if err != nil {
			t.Fatalf("Apply: %+v", err)
		}
		if got := countKind(m, sinkOp); got != 2 {
			t.Fatalf("got %d sinks, want 2:\n%s", got, m)
		}
		m.Walk(func(op ir.OpID) bool {
			if _, found := m.Attr(op, "touched"); found {
				t.Errorf("declined change survived on %s", m.Kind(op))
			}
			return true
		})
	})

	t.Run("FailureRollsBack", func(t *testing.T) {
		m := buildChain(t)
		b := m.NewBuilder(ir.AtBlockEnd(m.Body()))
		b.Loc = ir.Loc("model.py", 7, 3)
		odd := must1(b.Create(oddOp, nil, nil, nil))
		before := m.Clone()
		state := &testState{}
		err := Apply(m, newTestTarget(), newTestConverter(), NewPatternSet(sourceToSink), state, Config{})
		if !errors.Is(err, ErrConversionFailed) {
			t.Fatalf("expected ErrConversionFailed, got %v", err)
		}
		var failure *Failure
		if !errors.As(err, &failure) {
			t.Fatalf("expected a *Failure, got %T", err)
		}
		if failure.Op != odd || failure.Kind != oddOp || failure.Loc != ir.Loc("model.py", 7, 3) {
			t.Errorf("unexpected failure %+v", failure)
		}
		if !strings.Contains(err.Error(), "no pattern") {
			t.Errorf("error should mention the missing pattern: %v", err)
		}
		if !m.Equal(before) {
			t.Fatalf("module changed by failed conversion:\n%s\nwant:\n%s", m, before)
		}
		if m.String() != before.String() {
			t.Fatal("printed module changed by failed conversion")
		}
	})

	t.Run("InnermostCulprit", func(t *testing.T) {
		m := ir.NewModule("nested")
		b := m.NewBuilder(ir.AtBlockEnd(m.Body()))
		outer := must1(b.CreateWithRegions(oddOp, nil, nil, nil, 1))
		block := must1(m.AddBlock(m.Regions(outer)[0]))
		inner := m.NewBuilder(ir.AtBlockEnd(block))
		innerOdd := must1(inner.Create(oddOp, nil, nil, nil))
		must1(inner.Create(endOp, nil, nil, nil))
		err := Apply(m, newTestTarget(), newTestConverter(), NewPatternSet[*testState](), &testState{}, Config{})
		var failure *Failure
		if !errors.As(err, &failure) {
			t.Fatalf("expected a *Failure, got %v", err)
		}
		if failure.Op != innerOdd {
			t.Errorf("failure reported on operation #%d, want the nested one #%d", failure.Op, innerOdd)
		}
	})

	t.Run("MaxRewrites", func(t *testing.T) {
		m := buildChain(t)
		before := m.Clone()
		lazy := NewPattern("lazy", sourceOp, func(*Rewriter, ir.OpID, *testState) error { return nil })
		err := Apply(m, newTestTarget(), newTestConverter(), NewPatternSet(lazy), &testState{}, Config{MaxRewrites: 5})
		if !errors.Is(err, ErrConversionFailed) || !strings.Contains(err.Error(), "limit of 5 rewrites") {
			t.Fatalf("expected rewrite limit failure, got %v", err)
		}
		if !m.Equal(before) {
			t.Fatal("module changed by failed conversion")
		}
	})

	t.Run("VerifyFailure", func(t *testing.T) {
		m := buildChain(t)
		before := m.Clone()
		// Rewrites without replacing the uses of the results.
		forgetful := NewPattern("forgetful", sourceOp, func(r *Rewriter, op ir.OpID, _ *testState) error {
			m := r.Module()
			if _, err := r.Create(sinkOp, m.Operands(op), []ir.Type{f32Tensor}, nil); err != nil {
				return err
			}
			return r.EraseOp(op)
		})
		err := Apply(m, newTestTarget(), newTestConverter(), NewPatternSet(forgetful), &testState{}, Config{})
		if !errors.Is(err, ErrConversionFailed) || !strings.Contains(err.Error(), "verification") {
			t.Fatalf("expected verification failure, got %v", err)
		}
		if !m.Equal(before) {
			t.Fatal("module changed by failed conversion")
		}
	})
}

func TestDriver(t *testing.T) {
	m := buildChain(t)
	d := NewDriver(newTestTarget(), newTestConverter(), NewPatternSet(sourceToSink), &testState{}, Config{})
	if d.State() != StateInitialized {
		t.Fatalf("State() = %s", d.State())
	}
	var setupOp ir.OpID
	err := d.Run(m, func(r *Rewriter) error {
		var err error
		setupOp, err = r.Create(sinkOp, nil, nil, ir.Attributes{ir.AttrSymName: "setup"})
		return err
	})
	if err != nil {
		t.Fatalf("Run: %+v", err)
	}
	if d.State() != StateCommitted || d.NumRewrites() != 2 {
		t.Fatalf("State() = %s, NumRewrites() = %d", d.State(), d.NumRewrites())
	}
	if found, ok := m.LookupSymbol("setup"); !ok || found != setupOp {
		t.Fatal("operation created by setup is missing")
	}
	if err := d.Run(m, nil); err == nil {
		t.Fatal("a driver can only run once")
	}

	// Things created by setup are discarded when the conversion fails.
	m = buildChain(t)
	b := m.NewBuilder(ir.AtBlockEnd(m.Body()))
	must1(b.Create(oddOp, nil, nil, nil))
	d = NewDriver(newTestTarget(), newTestConverter(), NewPatternSet(sourceToSink), &testState{}, Config{})
	err = d.Run(m, func(r *Rewriter) error {
		_, err := r.Create(sinkOp, nil, nil, ir.Attributes{ir.AttrSymName: "setup"})
		return err
	})
	if err == nil || d.State() != StateFailed {
		t.Fatalf("expected failure, got err=%v, state=%s", err, d.State())
	}
	if _, ok := m.LookupSymbol("setup"); ok {
		t.Fatal("operation created by setup survived the failure")
	}
}
