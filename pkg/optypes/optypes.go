// Package optypes enumerates the operation kinds known to the IR.
//
// Kinds are dense integers, so dispatch (patterns, legality rules) is a table lookup by kind. The set is open:
// Register adds new kinds at runtime, e.g. for dialects not built in.
package optypes

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// OpType identifies an operation kind, e.g. "memref.load".
type OpType int

const (
	// Invalid is the zero value.
	Invalid OpType = iota

	// Any is not a real operation kind: patterns rooted on Any are tried on every operation.
	Any

	// builtin
	Module

	// func
	Func
	Return
	Call

	// arith
	Constant

	// tensor
	TensorEmpty
	TensorExtract
	TensorInsert

	// scf
	While
	Condition
	Yield

	// memref
	Alloc
	Dealloc
	Load
	Store
	Copy

	// lmhlo
	LmhloWhile
	LmhloTerminator
	LmhloAdd
	LmhloSubtract
	LmhloMultiply
	LmhloCompare
	LmhloConcatenate
	LmhloFusion

	// iree_input
	Dispatch
	ExecutableSource
	ExecutableSourceEnd

	lastBuiltin
)

// Info describes an operation kind.
type Info struct {
	// Dialect is the namespace, e.g. "memref".
	Dialect string

	// Name within the dialect, e.g. "load".
	Name string

	// Terminator ops must be the last in a block, and only terminators may be last.
	Terminator bool

	// NumOutputs is the number of trailing operands that are written by the operation (the
	// destination-passing style of buffer dialects). Zero for value-semantic operations.
	NumOutputs int
}

// FullName returns "dialect.name".
func (info Info) FullName() string {
	return info.Dialect + "." + info.Name
}

var registry = struct {
	mu     sync.RWMutex
	infos  []Info
	byName map[string]OpType
}{}

func init() {
	builtins := map[OpType]Info{
		Any:                 {Dialect: "", Name: "*"},
		Module:              {Dialect: "builtin", Name: "module"},
		Func:                {Dialect: "func", Name: "func"},
		Return:              {Dialect: "func", Name: "return", Terminator: true},
		Call:                {Dialect: "func", Name: "call"},
		Constant:            {Dialect: "arith", Name: "constant"},
		TensorEmpty:         {Dialect: "tensor", Name: "empty"},
		TensorExtract:       {Dialect: "tensor", Name: "extract"},
		TensorInsert:        {Dialect: "tensor", Name: "insert"},
		While:               {Dialect: "scf", Name: "while"},
		Condition:           {Dialect: "scf", Name: "condition", Terminator: true},
		Yield:               {Dialect: "scf", Name: "yield", Terminator: true},
		Alloc:               {Dialect: "memref", Name: "alloc"},
		Dealloc:             {Dialect: "memref", Name: "dealloc"},
		Load:                {Dialect: "memref", Name: "load"},
		Store:               {Dialect: "memref", Name: "store"},
		Copy:                {Dialect: "memref", Name: "copy"},
		LmhloWhile:          {Dialect: "lmhlo", Name: "while"},
		LmhloTerminator:     {Dialect: "lmhlo", Name: "terminator", Terminator: true},
		LmhloAdd:            {Dialect: "lmhlo", Name: "add", NumOutputs: 1},
		LmhloSubtract:       {Dialect: "lmhlo", Name: "subtract", NumOutputs: 1},
		LmhloMultiply:       {Dialect: "lmhlo", Name: "multiply", NumOutputs: 1},
		LmhloCompare:        {Dialect: "lmhlo", Name: "compare", NumOutputs: 1},
		LmhloConcatenate:    {Dialect: "lmhlo", Name: "concatenate", NumOutputs: 1},
		LmhloFusion:         {Dialect: "lmhlo", Name: "fusion", NumOutputs: 1},
		Dispatch:            {Dialect: "iree_input", Name: "dispatch"},
		ExecutableSource:    {Dialect: "iree_input", Name: "executable.source"},
		ExecutableSourceEnd: {Dialect: "iree_input", Name: "executable.source_end", Terminator: true},
	}
	registry.infos = make([]Info, lastBuiltin)
	registry.byName = make(map[string]OpType, lastBuiltin)
	registry.infos[Invalid] = Info{Name: "<invalid>"}
	for op, info := range builtins {
		registry.infos[op] = info
		if op != Any {
			registry.byName[info.FullName()] = op
		}
	}
}

// Register adds a new operation kind and returns its OpType.
//
// It returns an error if the name is malformed or already registered.
func Register(info Info) (OpType, error) {
	if info.Dialect == "" || info.Name == "" || strings.Contains(info.Dialect, ".") {
		return Invalid, errors.Errorf("invalid operation kind %q: it must be of the form dialect.name", info.FullName())
	}
	if info.NumOutputs < 0 {
		return Invalid, errors.Errorf("invalid operation kind %q: negative NumOutputs=%d", info.FullName(), info.NumOutputs)
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	name := info.FullName()
	if _, found := registry.byName[name]; found {
		return Invalid, errors.Errorf("operation kind %q already registered", name)
	}
	op := OpType(len(registry.infos))
	registry.infos = append(registry.infos, info)
	registry.byName[name] = op
	return op, nil
}

// MustRegister is like Register, but panics on error. Meant for package-level variables.
func MustRegister(info Info) OpType {
	op, err := Register(info)
	if err != nil {
		panic(err)
	}
	return op
}

// Lookup returns the OpType registered with the given "dialect.name".
func Lookup(fullName string) (OpType, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	op, found := registry.byName[fullName]
	return op, found
}

// Info returns the description of the operation kind. Unknown kinds return the Invalid description.
func (op OpType) Info() Info {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	if op < 0 || int(op) >= len(registry.infos) {
		return registry.infos[Invalid]
	}
	return registry.infos[op]
}

// IsValid returns whether op is a registered operation kind (Any excluded).
func (op OpType) IsValid() bool {
	if op <= Any {
		return false
	}
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return int(op) < len(registry.infos)
}

// String returns "dialect.name".
func (op OpType) String() string {
	if op == Any {
		return "*"
	}
	info := op.Info()
	if info.Dialect == "" {
		return info.Name
	}
	return info.FullName()
}

// Dialect returns the dialect namespace of the operation kind.
func (op OpType) Dialect() string {
	return op.Info().Dialect
}

// IsTerminator returns whether the operation kind must end a block.
func (op OpType) IsTerminator() bool {
	return op.Info().Terminator
}

// NumOutputs returns the number of trailing operands written by the operation.
func (op OpType) NumOutputs() int {
	return op.Info().NumOutputs
}
