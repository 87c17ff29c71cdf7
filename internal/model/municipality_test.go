package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    any
		expected MunicipalityID
	}{
		{name: "int pads to five", input: 1002, expected: "01002"},
		{name: "int64", input: int64(9007), expected: "09007"},
		{name: "string pads", input: "1001", expected: "01001"},
		{name: "string with spaces", input: " 2004 ", expected: "02004"},
		{name: "already canonical", input: "31050", expected: "31050"},
		{name: "whole float", input: 1002.0, expected: "01002"},
		{name: "longer than width untouched", input: "123456", expected: "123456"},
		{name: "typed id", input: MunicipalityID("7"), expected: "00007"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id, err := NormalizeID(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestNormalizeID_Errors(t *testing.T) {
	t.Parallel()

	inputs := map[string]any{
		"nil":        nil,
		"empty":      "  ",
		"fraction":   1002.5,
		"nan":        math.NaN(),
		"bool":       true,
		"byte slice": []byte("01001"),
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := NormalizeID(in)
			require.Error(t, err)
			var idErr *IdentifierError
			assert.True(t, errors.As(err, &idErr))
		})
	}
}

func TestMunicipalityLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Aguascalientes (Aguascalientes)",
		Municipality{ID: "01001", Name: "Aguascalientes", State: "Aguascalientes"}.Label())
	assert.Equal(t, "Uruapan", Municipality{ID: "16102", Name: "Uruapan"}.Label())
	assert.Equal(t, "16102", Municipality{ID: "16102"}.Label())
}

func TestSoilRowFieldsOrder(t *testing.T) {
	t.Parallel()

	s := func(v string) *string { return &v }
	row := SoilRow{
		WRBKey: s("LP"), Group1: s("Leptosol"), Group2: nil,
		Group3: s("x"), Texture: s("media"), Phase: s("litica"),
	}
	fields := row.Fields()
	require.Len(t, fields, 6)
	assert.Equal(t, "LP", *fields[0])
	assert.Nil(t, fields[2])
	assert.Equal(t, "litica", *fields[5])
}
