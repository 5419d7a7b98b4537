// Package ir is the operation graph the conversion works on: a Module holding functions made of regions,
// blocks and typed operations.
//
// The graph is stored in arenas owned by the Module and addressed by handles (OpID, ValueID, BlockID,
// RegionID), so that operations can be rewritten in place ("replace all uses of X with Y") without dangling
// pointers. Every mutation goes through the Module, which journals it: Begin opens a savepoint, and
// Rollback restores the graph exactly as it was when the savepoint was opened.
//
// Example:
//
//	m := ir.NewModule("example")
//	fn, entry, _ := m.NewFunction("main", ir.FunctionType{
//		Inputs: []ir.Type{ir.Buffer(dtypes.F32, 2, 3)},
//	}, nil)
//	b := m.NewBuilder(ir.AtBlockEnd(entry))
//	_, _ = b.Create(optypes.Return, nil, nil, nil)
//	fmt.Println(m)
package ir
