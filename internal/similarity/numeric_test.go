package similarity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProportional_Identity(t *testing.T) {
	t.Parallel()
	for _, x := range []float64{0, 1, 5.5, 120, 1e6, -3} {
		assert.Equal(t, 1.0, Proportional(x, x), "sim(%v,%v)", x, x)
	}
}

func TestProportional_BothZero(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1.0, Proportional(0, 0))
}

func TestProportional_Bounds(t *testing.T) {
	t.Parallel()

	pairs := [][2]float64{{0, 1}, {1, 2}, {5, 6}, {100, 90}, {3, 300}, {-4, -2}, {-3, 3}}
	for _, p := range pairs {
		s := Proportional(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0, "sim(%v,%v)", p[0], p[1])
		assert.Less(t, s, 1.0, "sim(%v,%v)", p[0], p[1])
		assert.Equal(t, s, Proportional(p[1], p[0]), "symmetry for %v", p)
	}
}

func TestProportional_ScaleRelative(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.5, Proportional(1, 2), 1e-12)
	assert.InDelta(t, 0.99, Proportional(100, 99), 1e-12)
	assert.InDelta(t, 1.0-1.0/6.0, Proportional(5, 6), 1e-12)
	assert.Equal(t, 0.0, Proportional(0, 7))
}

func TestRanges(t *testing.T) {
	t.Parallel()

	s, err := Ranges("3-7", "4-8")
	require.NoError(t, err)
	assert.InDelta(t, Proportional(5, 6), s, 1e-12)

	// width is discarded
	s, err = Ranges("0-10", "4-6")
	require.NoError(t, err)
	assert.Equal(t, 1.0, s)

	_, err = Ranges("3-7", "oops")
	require.Error(t, err)
}

func TestPrecip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{name: "both no aplica spellings", a: "no aplica", b: "NA", expected: 1.0},
		{name: "both h2o spellings", a: "agua", b: "H2O", expected: 1.0},
		{name: "different categories", a: "no aplica", b: "h2o", expected: 0.0},
		{name: "categorical vs numeric", a: "no aplica", b: "5", expected: 0.0},
		{name: "numeric vs categorical", a: "5", b: "mojado", expected: 0.0},
		{name: "categorical vs range", a: "n/a", b: "3-7", expected: 0.0},
		{name: "both numeric", a: "5", b: "6", expected: Proportional(5, 6)},
		{name: "both ranges", a: "3-7", b: "4-8", expected: Proportional(5, 6)},
		{name: "range vs numeric at midpoint", a: "3-7", b: "5", expected: 1.0},
		{name: "numeric vs range", a: "10", b: "3-7", expected: Proportional(10, 5)},
		{name: "both text", a: "calido", b: "calido", expected: 0.0},
		{name: "text vs range", a: "calido", b: "3-7", expected: 0.0},
		{name: "text vs numeric", a: "calido", b: "4", expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Precip(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestPrecip_MalformedRange(t *testing.T) {
	t.Parallel()

	for _, pair := range [][2]string{{"3-x", "5"}, {"5", "3-x"}, {"3-7", "1-2-3"}, {"-5", "4"}} {
		_, err := Precip(pair[0], pair[1])
		require.Error(t, err, "%v", pair)
		var fe *FormatError
		assert.True(t, errors.As(err, &fe))
	}
}

func TestNumeric(t *testing.T) {
	t.Parallel()

	s, err := Numeric("4", "2")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s, 1e-12)

	_, err = Numeric("4", "")
	require.Error(t, err)
	_, err = Numeric("BS1", "4")
	require.Error(t, err)
}
