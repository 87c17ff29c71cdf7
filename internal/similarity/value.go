// Package similarity implements the per-attribute comparison rules: value
// classification, proportional numeric similarity, range midpoints, the mixed
// categorical/numeric precipitation rule and the two text metrics.
package similarity

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the shape of a classified attribute value.
type Kind int

// Value kinds.
const (
	KindText Kind = iota
	KindNumeric
	KindRange
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindRange:
		return "range"
	case KindCategorical:
		return "categorical"
	default:
		return "text"
	}
}

// Category is a non-numeric climate label.
type Category string

// Categorical tokens after normalization.
const (
	NoAplica Category = "no_aplica"
	H2O      Category = "h2o"
)

var categoryTokens = map[string]Category{
	"no aplica": NoAplica,
	"na":        NoAplica,
	"n/a":       NoAplica,
	"h2o":       H2O,
	"agua":      H2O,
	"mojado":    H2O,
}

// Value is a raw attribute value tagged with its shape.
type Value struct {
	Kind     Kind
	Raw      string
	Number   float64  // KindNumeric
	Category Category // KindCategorical
}

// Classify derives a Value from the raw text: categorical token, then range
// (contains '-'), then float, else text. A dash always wins over a successful
// float parse.
func Classify(raw string) Value {
	v := Value{Kind: KindText, Raw: raw}

	if c, ok := categoryTokens[strings.ToLower(strings.TrimSpace(raw))]; ok {
		v.Kind = KindCategorical
		v.Category = c
		return v
	}
	if strings.Contains(raw, "-") {
		v.Kind = KindRange
		return v
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		v.Kind = KindNumeric
		v.Number = f
	}
	return v
}

// FormatError reports a range expression that is not "min-max" integers.
type FormatError struct {
	Raw    string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("similarity: malformed range %q: %s", e.Raw, e.Reason)
}

// RangeMidpoint parses "min-max" and returns the mean of both bounds.
func RangeMidpoint(s string) (float64, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, &FormatError{Raw: s, Reason: "expected format 'min-max'"}
	}
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, &FormatError{Raw: s, Reason: "min is not an integer"}
	}
	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, &FormatError{Raw: s, Reason: "max is not an integer"}
	}
	return float64(lo+hi) / 2, nil
}
