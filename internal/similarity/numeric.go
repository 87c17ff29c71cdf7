package similarity

import "math"

// Proportional returns 1 - |x1-x2| / max(|x1|,|x2|). Two zeros are identical.
// The tolerance scales with magnitude, so large values absorb larger gaps.
// Values of opposite sign would fall below zero and are floored at 0.
func Proportional(x1, x2 float64) float64 {
	if x1 == 0 && x2 == 0 {
		return 1.0
	}
	m := math.Max(math.Abs(x1), math.Abs(x2))
	if m == 0 {
		return 0.0
	}
	return math.Max(0, 1-math.Abs(x1-x2)/m)
}

// Ranges compares two "min-max" expressions by their midpoints. Width is
// discarded: "0-10" and "4-6" are identical.
func Ranges(r1, r2 string) (float64, error) {
	m1, err := RangeMidpoint(r1)
	if err != nil {
		return 0, err
	}
	m2, err := RangeMidpoint(r2)
	if err != nil {
		return 0, err
	}
	return Proportional(m1, m2), nil
}

// Precip compares two values that may each be a categorical label, a number or
// a range. Categorical and numeric-domain values are never partially similar.
func Precip(raw1, raw2 string) (float64, error) {
	return precipValues(Classify(raw1), Classify(raw2))
}

func precipValues(v1, v2 Value) (float64, error) {
	c1, c2 := v1.Kind == KindCategorical, v2.Kind == KindCategorical

	switch {
	case c1 && c2 && v1.Category == v2.Category:
		return 1.0, nil
	case c1 != c2:
		return 0.0, nil
	case v1.Kind == KindNumeric && v2.Kind == KindNumeric:
		return Proportional(v1.Number, v2.Number), nil
	case v1.Kind == KindRange && v2.Kind == KindRange:
		return Ranges(v1.Raw, v2.Raw)
	case v1.Kind == KindRange && v2.Kind == KindNumeric:
		m, err := RangeMidpoint(v1.Raw)
		if err != nil {
			return 0, err
		}
		return Proportional(m, v2.Number), nil
	case v1.Kind == KindNumeric && v2.Kind == KindRange:
		m, err := RangeMidpoint(v2.Raw)
		if err != nil {
			return 0, err
		}
		return Proportional(v1.Number, m), nil
	default:
		return 0.0, nil
	}
}

// Numeric compares two values that must both parse as numbers (the climate
// unit type). Anything else is reported as a FormatError.
func Numeric(raw1, raw2 string) (float64, error) {
	v1, v2 := Classify(raw1), Classify(raw2)
	if v1.Kind != KindNumeric {
		return 0, &FormatError{Raw: raw1, Reason: "not numeric"}
	}
	if v2.Kind != KindNumeric {
		return 0, &FormatError{Raw: raw2, Reason: "not numeric"}
	}
	return Proportional(v1.Number, v2.Number), nil
}
