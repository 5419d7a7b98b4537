package optypes

import (
	"sync"
	"testing"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		op      OpType
		name    string
		dialect string
	}{
		{Load, "memref.load", "memref"},
		{LmhloWhile, "lmhlo.while", "lmhlo"},
		{ExecutableSource, "iree_input.executable.source", "iree_input"},
		{Func, "func.func", "func"},
		{Any, "*", ""},
	}
	for _, tc := range tests {
		if got := tc.op.String(); got != tc.name {
			t.Errorf("String() = %q, want %q", got, tc.name)
		}
		if got := tc.op.Dialect(); got != tc.dialect {
			t.Errorf("%s.Dialect() = %q, want %q", tc.op, got, tc.dialect)
		}
	}
	if op, ok := Lookup("scf.yield"); !ok || op != Yield {
		t.Fatalf("Lookup(scf.yield) = %v, %v", op, ok)
	}
	if !Return.IsTerminator() || Func.IsTerminator() {
		t.Fatal("IsTerminator() mismatch")
	}
	if LmhloConcatenate.NumOutputs() != 1 || Load.NumOutputs() != 0 {
		t.Fatal("NumOutputs() mismatch")
	}
	if Any.IsValid() || Invalid.IsValid() || !Copy.IsValid() {
		t.Fatal("IsValid() mismatch")
	}
}

func TestRegister(t *testing.T) {
	op, err := Register(Info{Dialect: "optypes_test", Name: "reduce", NumOutputs: 2})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := op.String(); got != "optypes_test.reduce" {
		t.Fatalf("String() = %q", got)
	}
	if op.NumOutputs() != 2 || !op.IsValid() {
		t.Fatalf("unexpected info %+v", op.Info())
	}
	if _, err := Register(Info{Dialect: "optypes_test", Name: "reduce"}); err == nil {
		t.Fatal("duplicate registration should fail")
	}
	if _, err := Register(Info{Dialect: "", Name: "x"}); err == nil {
		t.Fatal("empty dialect should fail")
	}
	if _, err := Register(Info{Dialect: "a.b", Name: "x"}); err == nil {
		t.Fatal("dotted dialect should fail")
	}
	if got := OpType(1 << 20).String(); got != "<invalid>" {
		t.Fatalf("unknown OpType String() = %q", got)
	}
}

func TestRegisterConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	ops := make([]OpType, len(names))
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ops[i] = MustRegister(Info{Dialect: "optypes_concurrent", Name: name})
			_ = Load.String()
		}()
	}
	wg.Wait()
	seen := make(map[OpType]bool)
	for i, op := range ops {
		if seen[op] {
			t.Fatalf("OpType %d assigned twice", op)
		}
		seen[op] = true
		if got := op.String(); got != "optypes_concurrent."+names[i] {
			t.Fatalf("op #%d String() = %q", i, got)
		}
	}
}
