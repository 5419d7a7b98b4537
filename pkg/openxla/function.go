package openxla

import (
	"slices"

	"github.com/gomlx/go-openxla/internal/utils"
	"github.com/gomlx/go-openxla/pkg/convert"
	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/gomlx/go-openxla/pkg/optypes"
)

// AttrOutputIndex is the argument attribute marking the output buffers of a function: its value is the
// position of the output among the results of the converted function.
const AttrOutputIndex = "lmhlo.output_index"

// outputIndex returns the value of the AttrOutputIndex attribute, if present.
func outputIndex(attrs ir.Attributes) (int, bool) {
	switch v := attrs[AttrOutputIndex].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	}
	return 0, false
}

// convertSignature converts the signature of any function-like operation.
//
// Input buffers are retyped to tensors. Output buffers are removed from the arguments and become results of
// the function: each is tied to a fresh `tensor.empty` until some operation writes to it, and the value tied
// to it when the function returns becomes the returned value (see convertReturn).
func convertSignature(r *convert.Rewriter, op ir.OpID, state *DeBufferization) error {
	m := r.Module()
	ft, ok := m.FunctionType(op)
	if !ok {
		return r.Declinef("%s is not function-like", m.Kind(op))
	}
	if r.Converter().IsSignatureLegal(ft) {
		return r.Declinef("signature already legal")
	}
	regions := m.Regions(op)
	if len(regions) != 1 || len(m.RegionBlocks(regions[0])) != 1 {
		return r.Declinef("only functions with a body of a single block are supported")
	}
	entry := m.EntryBlock(op)
	args := m.BlockArgs(entry)
	if len(args) != len(ft.Inputs) {
		return r.Declinef("function has %d arguments but its signature has %d inputs", len(args), len(ft.Inputs))
	}

	// Split arguments into inputs and outputs, outputs sorted by their output index.
	type output struct {
		arg, index int
	}
	var outputs []output
	for i := range args {
		if index, found := outputIndex(m.ArgAttrs(op, i)); found {
			outputs = append(outputs, output{arg: i, index: index})
		}
	}
	slices.SortStableFunc(outputs, func(a, b output) int { return a.index - b.index })
	for i := 1; i < len(outputs); i++ {
		if outputs[i].index == outputs[i-1].index {
			return r.Declinef("arguments #%d and #%d have the same %s", outputs[i-1].arg, outputs[i].arg, AttrOutputIndex)
		}
	}
	isOutput := make([]bool, len(args))
	for _, out := range outputs {
		isOutput[out.arg] = true
	}

	converted, err := r.Converter().ConvertSignature(ft)
	if err != nil {
		return r.Declinef("%v", err)
	}
	newSignature := ir.FunctionType{Results: converted.Results}
	var newArgAttrs []ir.Attributes
	keepArgAttrs := false
	for i, t := range converted.Inputs {
		if isOutput[i] {
			continue
		}
		newSignature.Inputs = append(newSignature.Inputs, t)
		attrs := m.ArgAttrs(op, i)
		newArgAttrs = append(newArgAttrs, attrs)
		keepArgAttrs = keepArgAttrs || len(attrs) > 0
	}
	info := &FunctionInfo{ArgToResult: make(map[int]int, len(outputs))}
	for _, out := range outputs {
		info.ArgToResult[out.arg] = len(newSignature.Results)
		info.Outputs = append(info.Outputs, args[out.arg])
		newSignature.Results = append(newSignature.Results, converted.Inputs[out.arg])
	}

	// Retype inputs, materialize outputs.
	for i, arg := range args {
		if isOutput[i] {
			continue
		}
		if err := m.SetType(arg, converted.Inputs[i]); err != nil {
			return err
		}
		state.Tie(entry, arg, arg)
	}
	r.SetInsertionPoint(m.AtBlockStart(entry))
	for _, out := range outputs {
		empty, err := r.Create1(optypes.TensorEmpty, nil, converted.Inputs[out.arg], nil)
		if err != nil {
			return err
		}
		state.Tie(entry, args[out.arg], empty)
	}
	for i := len(args) - 1; i >= 0; i-- {
		if isOutput[i] {
			if err := m.RemoveBlockArgument(entry, i); err != nil {
				return err
			}
		}
	}

	if err := m.SetAttr(op, ir.AttrFunctionType, newSignature); err != nil {
		return err
	}
	if keepArgAttrs {
		err = m.SetAttr(op, ir.AttrArgAttrs, newArgAttrs)
	} else {
		err = m.RemoveAttr(op, ir.AttrArgAttrs)
	}
	if err != nil {
		return err
	}
	state.SetFunction(op, info)
	return nil
}

// bufferDialects are the dialects of operations on buffers.
var bufferDialects = utils.MakeSet("memref", lmhloDialect)

// hasPendingBuffers returns whether some operation of the function, other than skip, still reads or writes a
// buffer: its ties are not final yet.
func hasPendingBuffers(m *ir.Module, fn, skip ir.OpID) bool {
	var pending bool
	for _, r := range m.Regions(fn) {
		m.WalkRegion(r, func(op ir.OpID) bool {
			if op == skip {
				return true
			}
			if bufferDialects.Has(m.Kind(op).Dialect()) {
				pending = true
				return false
			}
			for _, v := range append(m.Operands(op), m.Results(op)...) {
				if _, isBuffer := m.Type(v).(ir.BufferType); isBuffer {
					pending = true
					return false
				}
			}
			return true
		})
	}
	return pending
}

// convertReturn rewrites `func.return` once the operations of its function are converted: buffers it returns
// are replaced by the values tied to them, and the values tied to the output buffers are appended.
func convertReturn(r *convert.Rewriter, op ir.OpID, state *DeBufferization) error {
	m := r.Module()
	fn := m.ParentOp(op)
	info, found := state.Function(fn)
	if !found {
		return r.Declinef("function signature not converted yet")
	}
	if info.Threaded {
		return r.Declinef("function results already threaded")
	}
	if hasPendingBuffers(m, fn, op) {
		return r.Declinef("function still has operations on buffers")
	}
	ft, _ := m.FunctionType(fn)
	block := m.ParentBlock(op)
	operands := m.Operands(op)
	for i, v := range operands {
		value, err := state.Value(block, v)
		if err != nil {
			return r.Declinef("operand #%d: %v", i, err)
		}
		operands[i] = value
	}
	for _, buffer := range info.Outputs {
		value, err := state.MustLookup(block, buffer)
		if err != nil {
			return r.Declinef("%v", err)
		}
		operands = append(operands, value)
	}
	if !ir.TypesEqual(m.Types(operands), ft.Results) {
		return r.Declinef("returned values don't match the function results %s", ft)
	}
	if _, err := r.Create(optypes.Return, operands, nil, m.Attributes(op)); err != nil {
		return err
	}
	if err := r.EraseOp(op); err != nil {
		return err
	}
	threaded := *info
	threaded.Threaded = true
	state.SetFunction(fn, &threaded)
	return nil
}
