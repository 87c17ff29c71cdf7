package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distancia360/agroanalytics/internal/model"
)

func fixture() *Catalog {
	return New([]model.Municipality{
		{ID: "01001", StateCode: "01", State: "Aguascalientes", Name: "Aguascalientes"},
		{ID: "01002", StateCode: "01", State: "Aguascalientes", Name: "Asientos"},
		{ID: "09011", StateCode: "09", State: "Ciudad de México", Name: "Tláhuac"},
		{ID: "23005", StateCode: "23", State: "Quintana Roo", Name: "Benito Juárez"},
		{ID: "09014", StateCode: "09", State: "Ciudad de México", Name: "Benito Juárez"},
		{ID: "19006", State: "Nuevo León", Name: "Apodaca"},
		{ID: "01001", State: "dup", Name: "ignored"},
	}, 0)
}

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Tláhuac", "tlahuac"},
		{"  BENITO   JUÁREZ ", "benito juarez"},
		{"Nuevo León", "nuevo leon"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestNew_DropsDuplicateIDs(t *testing.T) {
	c := fixture()
	assert.Equal(t, 6, c.Len())
	m, ok := c.Lookup("01001")
	require.True(t, ok)
	assert.Equal(t, "Aguascalientes", m.Name)
}

func TestByState(t *testing.T) {
	c := fixture()

	assert.Len(t, c.ByState(""), 6)
	assert.Len(t, c.ByState("ciudad de mexico"), 2)
	assert.Len(t, c.ByState("9"), 2)
	assert.Len(t, c.ByState("19"), 1, "code falls back to the id prefix")
	assert.Empty(t, c.ByState("Atlantis"))
	assert.Equal(t, []string{"Aguascalientes", "Ciudad de México", "Quintana Roo", "Nuevo León"}, c.States())
}

func TestSearch(t *testing.T) {
	c := fixture()

	got := c.Search("tlahuac", "", 0)
	require.Len(t, got, 1)
	assert.Equal(t, model.MunicipalityID("09011"), got[0].ID)
	assert.Equal(t, 1.0, got[0].Score)

	got = c.Search("Agu", "", 0)
	require.NotEmpty(t, got)
	assert.Equal(t, 0.9, got[0].Score)

	got = c.Search("Asientoz", "", 0)
	require.Len(t, got, 1)
	assert.InDelta(t, 1-1.0/8, got[0].Score, 1e-12)

	assert.Empty(t, c.Search("   ", "", 0))
	assert.Len(t, c.Search("benito juarez", "", 1), 1)
}

func TestResolve(t *testing.T) {
	c := fixture()

	tests := []struct {
		arg  string
		want model.MunicipalityID
	}{
		{"1001", "01001"},
		{"09011", "09011"},
		{"Tlahuac", "09011"},
		{"asientos", "01002"},
		{"Benito Juárez, Quintana Roo", "23005"},
		{"Benito Juarez (Ciudad de Mexico)", "09014"},
		{"Apodca", "19006"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := c.Resolve(tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	c := fixture()

	_, err := c.Resolve("Benito Juárez")
	var amb *AmbiguousError
	require.True(t, errors.As(err, &amb))
	assert.Len(t, amb.Candidates, 2)
	assert.Contains(t, err.Error(), "23005")

	_, err = c.Resolve("Zzzzzzzz")
	assert.True(t, errors.Is(err, ErrNotFound))
}
