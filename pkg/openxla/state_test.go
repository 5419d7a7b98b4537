package openxla

import (
	"testing"

	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/gomlx/go-openxla/pkg/optypes"
	"github.com/gomlx/go-openxla/pkg/types/dtypes"
)

func TestDeBufferization(t *testing.T) {
	m := ir.NewModule("state")
	fn, entry := must2(m.NewFunction("f", ir.FunctionType{
		Inputs: []ir.Type{ir.Buffer(dtypes.F32, 2), ir.Tensor(dtypes.F32, 2)},
	}, nil))
	args := m.BlockArgs(entry)
	buffer, tensor := args[0], args[1]
	b := m.NewBuilder(ir.AtBlockEnd(entry))
	loop := must1(b.CreateWithRegions(optypes.While, nil, nil, nil, 2))
	inner := must1(m.AddBlock(m.Regions(loop)[1], ir.Tensor(dtypes.F32, 2)))
	innerArg := m.BlockArgs(inner)[0]
	d := NewDeBufferization(m)

	if _, found := d.Lookup(entry, buffer); found {
		t.Fatal("nothing tied yet")
	}
	if _, err := d.Value(entry, buffer); err == nil {
		t.Fatal("Value of an untied buffer should fail")
	}
	if got, err := d.Value(entry, tensor); err != nil || got != tensor {
		t.Fatalf("Value of a tensor should be the tensor itself, got #%d, %v", got, err)
	}

	d.Tie(entry, buffer, tensor)
	if got, _ := d.Lookup(inner, buffer); got != tensor {
		t.Fatalf("nested block should see the tie of the enclosing block, got #%d", got)
	}
	d.Tie(inner, buffer, innerArg)
	if got, _ := d.Lookup(inner, buffer); got != innerArg {
		t.Fatalf("tie in nested block should shadow, got #%d", got)
	}
	if got, _ := d.Lookup(entry, buffer); got != tensor {
		t.Fatalf("tie in nested block leaked to the enclosing one, got #%d", got)
	}

	// Changes are undone with the savepoint they were made in.
	m.Begin()
	d.Tie(entry, buffer, innerArg)
	d.SetFunction(fn, &FunctionInfo{Outputs: []ir.ValueID{buffer}})
	d.SetLoop(inner, &LoopInfo{Role: LoopBody, Predicate: buffer})
	if _, found := d.Function(fn); !found {
		t.Fatal("function info not recorded")
	}
	if info, found := d.Loop(inner); !found || info.Role != LoopBody {
		t.Fatal("loop info not recorded")
	}
	must(m.Rollback())
	if got, _ := d.Lookup(entry, buffer); got != tensor {
		t.Fatalf("tie not restored by rollback, got #%d", got)
	}
	if _, found := d.Function(fn); found {
		t.Fatal("function info survived rollback")
	}
	if _, found := d.Loop(inner); found {
		t.Fatal("loop info survived rollback")
	}
	if LoopCondition.String() != "condition" || LoopBody.String() != "body" {
		t.Fatal("LoopRole.String() mismatch")
	}
}
