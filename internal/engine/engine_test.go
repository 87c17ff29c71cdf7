package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distancia360/agroanalytics/internal/model"
	"github.com/distancia360/agroanalytics/internal/refdata"
	"github.com/distancia360/agroanalytics/internal/similarity"
)

func str(s string) *string { return &s }

func fixture() *refdata.ReferenceData {
	return refdata.New(&refdata.Tables{
		Precipitation: []model.PrecipitationRow{
			{ID: "01001", Code: "5", Range: "500-600"},
			{ID: "01002", Code: "5", Range: "600-800"},
			{ID: "01003", Code: "4", Range: "400-500"},
			{ID: "01004", Code: "no aplica", Range: "NA"},
		},
		Temperature: []model.TemperatureRow{
			{ID: "01001", Range: "18-20"},
			{ID: "01002", Range: "16-18"},
			{ID: "01003", Range: "18-20"},
			{ID: "01004", Range: "3-x"},
		},
		ClimateUnits: []model.ClimateUnitRow{
			{ID: "01001", Type: "3"},
			{ID: "01002", Type: "4"},
			{ID: "01003", Type: "3"},
			{ID: "01004", Type: "2"},
		},
		Soils: []model.SoilRow{
			{ID: "01001", WRBKey: str("LP"), Group1: str("Leptosol"), Texture: str("media"), Phase: str("litica")},
			{ID: "01002", WRBKey: str("VR"), Group1: str("Vertisol"), Group2: str("Pelico"), Texture: str("fina")},
			{ID: "01004", WRBKey: str("LP"), Group1: str("Leptosol")},
		},
		Landforms: []model.LandformRow{
			{ID: "01001", Code: "P1", Name: "Llanura"},
			{ID: "01002", Code: "P2", Name: "Llanura"},
			{ID: "01003", Code: "S1", Name: "Sierra"},
			{ID: "01004", Code: "S1", Name: "Sierra"},
		},
	})
}

func TestCompare_Identity(t *testing.T) {
	e := New(fixture(), DefaultOptions())
	s, err := e.Compare("01001", "01001")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-12)
}

func TestCompare_MeanOfFiveComponents(t *testing.T) {
	e := New(fixture(), DefaultOptions())

	s, err := e.Compare("01001", "01002")
	require.NoError(t, err)

	soilA := "LP Leptosol nan nan media litica"
	soilB := "VR Vertisol Pelico nan fina nan"
	expected := (1.0 + // precip code 5 vs 5
		similarity.Proportional(19, 17) +
		similarity.Proportional(3, 4) +
		similarity.Soil(soilA, soilB) +
		similarity.Landform("P1", "P2")) / 5
	assert.InDelta(t, expected, s, 1e-12)
	assert.GreaterOrEqual(t, s, 0.0)
	assert.LessOrEqual(t, s, 1.0)
}

func TestCompare_AccentedSoilCountsCharacters(t *testing.T) {
	row := func(id model.MunicipalityID, phase string) model.SoilRow {
		return model.SoilRow{ID: id, WRBKey: str("LP"), Group1: str("Leptosol"), Texture: str("media"), Phase: str(phase)}
	}
	ref := refdata.New(&refdata.Tables{
		Precipitation: []model.PrecipitationRow{{ID: "20001", Code: "5"}, {ID: "20002", Code: "5"}},
		Temperature:   []model.TemperatureRow{{ID: "20001", Range: "18-20"}, {ID: "20002", Range: "18-20"}},
		ClimateUnits:  []model.ClimateUnitRow{{ID: "20001", Type: "3"}, {ID: "20002", Type: "3"}},
		Soils:         []model.SoilRow{row("20001", "lítica"), row("20002", "litica")},
		Landforms:     []model.LandformRow{{ID: "20001", Code: "Planície"}, {ID: "20002", Code: "Planície"}},
	})

	s, err := New(ref, DefaultOptions()).Compare("20001", "20002")
	require.NoError(t, err)
	// 32 code points per side, one substitution: soil = 1 - 2/64.
	assert.InDelta(t, (4+62.0/64.0)/5, s, 1e-12)
}

func TestCompare_Symmetric(t *testing.T) {
	e := New(fixture(), DefaultOptions())

	ab, err := e.Compare("01001", "01002")
	require.NoError(t, err)
	ba, err := e.Compare("01002", "01001")
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestCompare_Deterministic(t *testing.T) {
	e := New(fixture(), DefaultOptions())

	first, err := e.Compare("01001", "01002")
	require.NoError(t, err)
	for range 20 {
		again, err := e.Compare("01001", "01002")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompare_MissingSoilIsNotComparable(t *testing.T) {
	e := New(fixture(), DefaultOptions())

	_, err := e.Compare("01001", "01003")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotComparable))

	var mde *MissingDataError
	require.True(t, errors.As(err, &mde))
	assert.Equal(t, model.MunicipalityID("01003"), mde.ID)
	assert.Equal(t, SideOther, mde.Side)
	assert.Equal(t, []string{model.TableSoil}, mde.Tables)

	_, err = e.Compare("01003", "01001")
	require.True(t, errors.As(err, &mde))
	assert.Equal(t, SideBase, mde.Side)
}

func TestCompare_UnknownMunicipality(t *testing.T) {
	e := New(fixture(), DefaultOptions())

	_, err := e.Compare("01001", "99999")
	var mde *MissingDataError
	require.True(t, errors.As(err, &mde))
	assert.Len(t, mde.Tables, 5)
	assert.Contains(t, err.Error(), "99999")
}

func TestCompare_StrictFormatError(t *testing.T) {
	e := New(fixture(), DefaultOptions())

	_, err := e.Compare("01001", "01004")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotComparable))

	var ae *AttributeError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, ComponentTemperature, ae.Attribute)

	var fe *similarity.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "3-x", fe.Raw)
}

func TestCompare_GracefulDropsFailingAttribute(t *testing.T) {
	opts := DefaultOptions()
	opts.Strict = false
	e := New(fixture(), opts)

	s, err := e.Compare("01001", "01004")
	require.NoError(t, err)

	soilA := "LP Leptosol nan nan media litica"
	soilD := "LP Leptosol nan nan nan nan"
	expected := (0.0 + // "5" vs "no aplica"
		similarity.Proportional(3, 2) +
		similarity.Soil(soilA, soilD) +
		similarity.Landform("P1", "S1")) / 4
	assert.InDelta(t, expected, s, 1e-12)
}

func TestCompareDetailed(t *testing.T) {
	e := New(fixture(), DefaultOptions())

	d, err := e.CompareDetailed("01001", "01002")
	require.NoError(t, err)
	require.Len(t, d.Components, 6)

	names := make([]string, len(d.Components))
	var sum float64
	for i, c := range d.Components {
		names[i] = c.Name
		sum += c.Score
		assert.True(t, c.Evaluated())
	}
	assert.Equal(t, []string{
		ComponentPrecipCode, ComponentPrecipRange, ComponentTemperature,
		ComponentClimateUnit, ComponentSoil, ComponentLandform,
	}, names)
	assert.InDelta(t, sum/6, d.Score, 1e-12)

	assert.Equal(t, "500-600", d.Components[1].Base)
	assert.Equal(t, "600-800", d.Components[1].Other)
	assert.InDelta(t, similarity.Proportional(550, 700), d.Components[1].Score, 1e-12)
	assert.Equal(t, "Llanura", d.Base.LandformName)
}

func TestCompareDetailed_MissingData(t *testing.T) {
	e := New(fixture(), DefaultOptions())
	_, err := e.CompareDetailed("01003", "01001")
	assert.True(t, errors.Is(err, ErrNotComparable))
}

func TestProfile(t *testing.T) {
	e := New(fixture(), DefaultOptions())

	p, missing := e.Profile("01003")
	assert.Equal(t, []string{model.TableSoil}, missing)
	assert.Equal(t, "4", p.PrecipCode)
	assert.Equal(t, "S1", p.LandformCode)
	assert.Empty(t, p.Soil)

	p, missing = e.Profile("01001")
	assert.Empty(t, missing)
	assert.Equal(t, "LP Leptosol nan nan media litica", p.Soil)
}

func TestProfile_CustomSoilToken(t *testing.T) {
	e := New(fixture(), Options{Strict: true, SoilMissingToken: ""})
	p, _ := e.Profile("01001")
	assert.Equal(t, "LP Leptosol   media litica", p.Soil)
}
