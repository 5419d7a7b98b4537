package ir

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/gomlx/go-openxla/pkg/optypes"
)

// String renders the module in text format. See Write.
func (m *Module) String() string {
	var sb strings.Builder
	_ = m.Write(&sb)
	return sb.String()
}

// Write renders the module in an MLIR-like text format to w.
//
// Functions are printed in their custom form (`func.func @name(%arg0: type) -> type {...}`), every other
// operation in the generic form (`%0 = "dialect.op"(%arg0) ({...}) {attrs} : (types) -> types`). Values are
// numbered in order of appearance, restarting at every top-level operation.
func (m *Module) Write(w io.Writer) error {
	p := &printer{m: m, w: w}
	p.printf("module @%s {\n", m.Name)
	for _, op := range m.blocks[m.body].ops {
		p.names = make(map[ValueID]string)
		p.nextValue, p.nextArg = 0, 0
		p.printOp(op, "  ")
	}
	p.printf("}\n")
	return p.err
}

type printer struct {
	m   *Module
	w   io.Writer
	err error

	names              map[ValueID]string
	nextValue, nextArg int
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) name(v ValueID) string {
	if name, found := p.names[v]; found {
		return name
	}
	return fmt.Sprintf("%%<undefined:%d>", v)
}

func (p *printer) nameArg(v ValueID) string {
	name := fmt.Sprintf("%%arg%d", p.nextArg)
	p.nextArg++
	p.names[v] = name
	return name
}

func (p *printer) nameResults(results []ValueID) string {
	if len(results) == 0 {
		return ""
	}
	base := fmt.Sprintf("%%%d", p.nextValue)
	p.nextValue++
	if len(results) == 1 {
		p.names[results[0]] = base
		return base
	}
	for i, v := range results {
		p.names[v] = fmt.Sprintf("%s#%d", base, i)
	}
	return fmt.Sprintf("%s:%d", base, len(results))
}

func (p *printer) valueList(values []ValueID) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = p.name(v)
	}
	return strings.Join(parts, ", ")
}

func (p *printer) printOp(op OpID, indent string) {
	if p.m.ops[op].kind == optypes.Func {
		p.printFunc(op, indent)
		return
	}
	data := &p.m.ops[op]
	operands := p.valueList(data.operands)
	results := p.nameResults(data.results)
	p.printf("%s", indent)
	if results != "" {
		p.printf("%s = ", results)
	}
	p.printf("%q(%s)", data.kind.String(), operands)
	if len(data.regions) > 0 {
		p.printf(" (")
		for i, r := range data.regions {
			if i > 0 {
				p.printf(", ")
			}
			p.printRegion(r, indent)
		}
		p.printf(")")
	}
	if len(data.attrs) > 0 {
		p.printf(" %s", data.attrs)
	}
	var sb strings.Builder
	writeTypeList(&sb, p.m.Types(data.operands))
	p.printf(" : (%s) -> ", sb.String())
	sb.Reset()
	writeResultTypes(&sb, p.m.Types(data.results))
	p.printf("%s\n", sb.String())
}

// printRegion prints "{", the blocks, and the closing "}" at the given indentation, without a new line.
func (p *printer) printRegion(r RegionID, indent string) {
	p.printf("{\n")
	for i, b := range p.m.regions[r].blocks {
		p.printBlock(b, i, i > 0 || len(p.m.blocks[b].args) > 0, indent)
	}
	p.printf("%s}", indent)
}

func (p *printer) printBlock(b BlockID, idx int, withHeader bool, indent string) {
	if withHeader {
		args := p.m.blocks[b].args
		parts := make([]string, len(args))
		for i, v := range args {
			parts[i] = p.nameArg(v) + ": " + typeString(p.m.values[v].typ)
		}
		p.printf("%s^bb%d(%s):\n", indent, idx, strings.Join(parts, ", "))
	}
	for _, op := range p.m.blocks[b].ops {
		p.printOp(op, indent+"  ")
	}
}

func (p *printer) printFunc(op OpID, indent string) {
	data := &p.m.ops[op]
	name, _ := data.attrs[AttrSymName].(string)
	signature, _ := data.attrs[AttrFunctionType].(FunctionType)
	argAttrs, _ := data.attrs[AttrArgAttrs].([]Attributes)
	p.printf("%sfunc.func @%s(", indent, name)

	entry := p.m.EntryBlock(op)
	if entry != NoBlock {
		for i, v := range p.m.blocks[entry].args {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s: %s", p.nameArg(v), typeString(p.m.values[v].typ))
			if i < len(argAttrs) && len(argAttrs[i]) > 0 {
				p.printf(" %s", argAttrs[i])
			}
		}
	} else {
		var sb strings.Builder
		writeTypeList(&sb, signature.Inputs)
		p.printf("%s", sb.String())
	}
	p.printf(")")
	if len(signature.Results) > 0 {
		var sb strings.Builder
		writeResultTypes(&sb, signature.Results)
		p.printf(" -> %s", sb.String())
	}

	extra := make(Attributes)
	for _, key := range slices.Sorted(maps.Keys(data.attrs)) {
		if key != AttrSymName && key != AttrFunctionType && key != AttrArgAttrs {
			extra[key] = data.attrs[key]
		}
	}
	if len(extra) > 0 {
		p.printf(" attributes %s", extra)
	}
	if entry == NoBlock {
		p.printf("\n")
		return
	}

	p.printf(" {\n")
	for i, b := range p.m.regions[data.regions[0]].blocks {
		if i == 0 {
			// Arguments of the entry block are printed in the signature.
			for _, nested := range p.m.blocks[b].ops {
				p.printOp(nested, indent+"  ")
			}
			continue
		}
		p.printBlock(b, i, true, indent)
	}
	p.printf("%s}\n", indent)
}
