package xsd

import "strconv"

// Facet is one constraining facet on a simple type. Facets are kept as
// parsed data; enumeration facets drive attribute-value completion, the
// others are retained schema knowledge.
type Facet interface {
	Name() string
}

// EnumerationValue is one legal enumeration token with its documentation.
type EnumerationValue struct {
	Value         string
	Documentation string
}

// EnumerationFacet restricts a type to a fixed set of values
type EnumerationFacet struct {
	Values []EnumerationValue
}

func (f *EnumerationFacet) Name() string { return "enumeration" }

// PatternFacet restricts the lexical space by a regular expression
type PatternFacet struct {
	Pattern string
}

func (f *PatternFacet) Name() string { return "pattern" }

// LengthFacet requires an exact length
type LengthFacet struct {
	Value int
}

func (f *LengthFacet) Name() string { return "length" }

// MinLengthFacet requires a minimum length
type MinLengthFacet struct {
	Value int
}

func (f *MinLengthFacet) Name() string { return "minLength" }

// MaxLengthFacet requires a maximum length
type MaxLengthFacet struct {
	Value int
}

func (f *MaxLengthFacet) Name() string { return "maxLength" }

// MinInclusiveFacet bounds the value space from below, inclusive
type MinInclusiveFacet struct {
	Value string
}

func (f *MinInclusiveFacet) Name() string { return "minInclusive" }

// MaxInclusiveFacet bounds the value space from above, inclusive
type MaxInclusiveFacet struct {
	Value string
}

func (f *MaxInclusiveFacet) Name() string { return "maxInclusive" }

// MinExclusiveFacet bounds the value space from below, exclusive
type MinExclusiveFacet struct {
	Value string
}

func (f *MinExclusiveFacet) Name() string { return "minExclusive" }

// MaxExclusiveFacet bounds the value space from above, exclusive
type MaxExclusiveFacet struct {
	Value string
}

func (f *MaxExclusiveFacet) Name() string { return "maxExclusive" }

// TotalDigitsFacet limits the number of significant digits
type TotalDigitsFacet struct {
	Value int
}

func (f *TotalDigitsFacet) Name() string { return "totalDigits" }

// FractionDigitsFacet limits the number of fraction digits
type FractionDigitsFacet struct {
	Value int
}

func (f *FractionDigitsFacet) Name() string { return "fractionDigits" }

// WhiteSpaceFacet declares the whitespace normalization policy
type WhiteSpaceFacet struct {
	Value string
}

func (f *WhiteSpaceFacet) Name() string { return "whiteSpace" }

// ParseFacet builds the facet for one xs:restriction child. Unknown facet
// names yield nil and are skipped.
func ParseFacet(name, value, doc string) Facet {
	switch name {
	case "enumeration":
		return &EnumerationFacet{Values: []EnumerationValue{{Value: value, Documentation: doc}}}
	case "pattern":
		return &PatternFacet{Pattern: value}
	case "length":
		if v, err := strconv.Atoi(value); err == nil {
			return &LengthFacet{Value: v}
		}
	case "minLength":
		if v, err := strconv.Atoi(value); err == nil {
			return &MinLengthFacet{Value: v}
		}
	case "maxLength":
		if v, err := strconv.Atoi(value); err == nil {
			return &MaxLengthFacet{Value: v}
		}
	case "minInclusive":
		return &MinInclusiveFacet{Value: value}
	case "maxInclusive":
		return &MaxInclusiveFacet{Value: value}
	case "minExclusive":
		return &MinExclusiveFacet{Value: value}
	case "maxExclusive":
		return &MaxExclusiveFacet{Value: value}
	case "totalDigits":
		if v, err := strconv.Atoi(value); err == nil {
			return &TotalDigitsFacet{Value: v}
		}
	case "fractionDigits":
		if v, err := strconv.Atoi(value); err == nil {
			return &FractionDigitsFacet{Value: v}
		}
	case "whiteSpace":
		return &WhiteSpaceFacet{Value: value}
	}
	return nil
}

// EnumerationValues flattens the enumeration facets in a facet list.
func EnumerationValues(facets []Facet) []EnumerationValue {
	var values []EnumerationValue
	for _, f := range facets {
		if enum, ok := f.(*EnumerationFacet); ok {
			values = append(values, enum.Values...)
		}
	}
	return values
}
