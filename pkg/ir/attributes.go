package ir

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/go-openxla/pkg/types/dtypes"
)

// Attributes are the named compile-time properties of an operation.
//
// Attribute values are treated as immutable: to change one, set a new value.
type Attributes map[string]any

// Well known attribute names.
const (
	AttrSymName       = "sym_name"
	AttrSymVisibility = "sym_visibility"
	AttrFunctionType  = "function_type"
	AttrArgAttrs      = "arg_attrs"
	AttrValue         = "value"
)

// Clone returns a shallow copy of the attributes.
func (a Attributes) Clone() Attributes {
	return maps.Clone(a)
}

// String renders the attributes as `{a = 1, b = "x"}`, with sorted keys.
func (a Attributes) String() string {
	keys := slices.Sorted(maps.Keys(a))
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = key + " = " + FormatAttribute(a[key])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Literal is a scalar constant of the given type (ScalarType or IndexType), or a splat of a TensorType.
type Literal struct {
	Value float64
	Type  Type
}

// IndexLiteral returns a Literal of IndexType.
func IndexLiteral(v int) Literal {
	return Literal{Value: float64(v), Type: Index}
}

// String renders the literal, e.g. `1.000000e+00 : f32` or `0 : index`.
func (l Literal) String() string {
	var dtype dtypes.DType
	switch t := l.Type.(type) {
	case IndexType:
		return fmt.Sprintf("%d : index", int64(l.Value))
	case ScalarType:
		dtype = t.DType
	case TensorType:
		dtype = t.Shape.DType
		return fmt.Sprintf("dense<%s> : %s", formatScalar(dtype, l.Value), t)
	default:
		return fmt.Sprintf("%g : %s", l.Value, typeString(l.Type))
	}
	return formatScalar(dtype, l.Value) + " : " + l.Type.String()
}

func formatScalar(dtype dtypes.DType, v float64) string {
	v = dtype.RoundLiteral(v)
	if dtype.IsFloat() {
		return strconv.FormatFloat(v, 'e', 6, 64)
	}
	if dtype == dtypes.Bool {
		if v != 0 {
			return "true"
		}
		return "false"
	}
	return strconv.FormatInt(int64(v), 10)
}

// SymbolRef refers to a symbol, possibly nested: `@root::@leaf`.
type SymbolRef struct {
	Root   string
	Nested []string
}

// String implements fmt.Stringer.
func (s SymbolRef) String() string {
	var sb strings.Builder
	sb.WriteString("@" + s.Root)
	for _, n := range s.Nested {
		sb.WriteString("::@" + n)
	}
	return sb.String()
}

// FormatAttribute renders an attribute value in MLIR-like syntax.
func FormatAttribute(v any) string {
	switch a := v.(type) {
	case nil:
		return "unit"
	case string:
		return strconv.Quote(a)
	case bool:
		return strconv.FormatBool(a)
	case int:
		return strconv.Itoa(a)
	case int64:
		return strconv.FormatInt(a, 10)
	case int32:
		return strconv.FormatInt(int64(a), 10)
	case float64:
		return strconv.FormatFloat(a, 'e', 6, 64)
	case []int:
		return formatList(a, func(x int) string { return strconv.Itoa(x) })
	case []int64:
		return formatList(a, func(x int64) string { return strconv.FormatInt(x, 10) })
	case []string:
		return formatList(a, strconv.Quote)
	case []any:
		return formatList(a, FormatAttribute)
	case []Attributes:
		return formatList(a, func(x Attributes) string { return x.String() })
	case Attributes:
		return a.String()
	case Type:
		return a.String()
	case fmt.Stringer:
		return a.String()
	}
	return fmt.Sprintf("%v", v)
}

func formatList[T any](list []T, format func(T) string) string {
	parts := make([]string, len(list))
	for i, x := range list {
		parts[i] = format(x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
