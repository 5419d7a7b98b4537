package convert

import (
	"github.com/gomlx/go-openxla/pkg/ir"
	"github.com/pkg/errors"
)

// ErrNotConvertible is returned by TypeConverter.Convert when no conversion rule matches a type.
var ErrNotConvertible = errors.New("type not convertible")

// ConversionFn converts a type. It returns false if the rule doesn't apply to the type.
type ConversionFn func(t ir.Type) (ir.Type, bool)

// TypeConverter maps source types to target types with a list of rules.
//
// Rules are tried from the most recently added to the first one: general rules (like the identity) should be
// added first, and more specific rules after.
type TypeConverter struct {
	conversions []ConversionFn
}

// NewTypeConverter returns a TypeConverter without any rule.
func NewTypeConverter() *TypeConverter {
	return &TypeConverter{}
}

// AddConversion adds a rule. It takes precedence over the rules added before.
func (c *TypeConverter) AddConversion(fn ConversionFn) {
	c.conversions = append(c.conversions, fn)
}

// Identity is a ConversionFn that keeps every type as is.
func Identity(t ir.Type) (ir.Type, bool) {
	return t, true
}

// Convert returns the target type for t.
func (c *TypeConverter) Convert(t ir.Type) (ir.Type, error) {
	if t == nil {
		return nil, errors.Wrap(ErrNotConvertible, "nil type")
	}
	for i := len(c.conversions) - 1; i >= 0; i-- {
		if converted, ok := c.conversions[i](t); ok {
			if converted == nil {
				return nil, errors.Wrapf(ErrNotConvertible, "conversion of %s returned no type", t)
			}
			return converted, nil
		}
	}
	return nil, errors.Wrapf(ErrNotConvertible, "no conversion rule for %s", t)
}

// ConvertTypes converts each of the types.
func (c *TypeConverter) ConvertTypes(types []ir.Type) ([]ir.Type, error) {
	converted := make([]ir.Type, len(types))
	for i, t := range types {
		var err error
		converted[i], err = c.Convert(t)
		if err != nil {
			return nil, errors.WithMessagef(err, "type #%d", i)
		}
	}
	return converted, nil
}

// ConvertSignature converts the inputs and results of a function type.
func (c *TypeConverter) ConvertSignature(ft ir.FunctionType) (ir.FunctionType, error) {
	inputs, err := c.ConvertTypes(ft.Inputs)
	if err != nil {
		return ir.FunctionType{}, errors.WithMessage(err, "converting signature inputs")
	}
	results, err := c.ConvertTypes(ft.Results)
	if err != nil {
		return ir.FunctionType{}, errors.WithMessage(err, "converting signature results")
	}
	return ir.FunctionType{Inputs: inputs, Results: results}, nil
}

// IsLegal returns whether t is already in the target domain: it converts to itself.
func (c *TypeConverter) IsLegal(t ir.Type) bool {
	converted, err := c.Convert(t)
	return err == nil && converted.Equal(t)
}

// AreLegal returns whether all types are legal.
func (c *TypeConverter) AreLegal(types []ir.Type) bool {
	for _, t := range types {
		if !c.IsLegal(t) {
			return false
		}
	}
	return true
}

// IsSignatureLegal returns whether all inputs and results of the function type are legal.
func (c *TypeConverter) IsSignatureLegal(ft ir.FunctionType) bool {
	return c.AreLegal(ft.Inputs) && c.AreLegal(ft.Results)
}

// IsRegionLegal returns whether every block argument and every operation result nested in the region has a
// legal type.
func (c *TypeConverter) IsRegionLegal(m *ir.Module, r ir.RegionID) bool {
	for _, b := range m.RegionBlocks(r) {
		if !c.AreLegal(m.Types(m.BlockArgs(b))) {
			return false
		}
	}
	legal := true
	m.WalkRegion(r, func(op ir.OpID) bool {
		if !c.AreLegal(m.Types(m.Results(op))) {
			legal = false
			return false
		}
		for _, nested := range m.Regions(op) {
			for _, b := range m.RegionBlocks(nested) {
				if !c.AreLegal(m.Types(m.BlockArgs(b))) {
					legal = false
					return false
				}
			}
		}
		return true
	})
	return legal
}
