package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distancia360/agroanalytics/internal/catalog"
	"github.com/distancia360/agroanalytics/internal/config"
	"github.com/distancia360/agroanalytics/internal/engine"
	"github.com/distancia360/agroanalytics/internal/model"
	"github.com/distancia360/agroanalytics/internal/refdata"
	"github.com/distancia360/agroanalytics/internal/refdata/refdatatest"
)

func newApp(cache bool) *App {
	return New(refdatatest.Tables(), Options{Engine: engine.DefaultOptions(), Cache: cache})
}

func TestMunicipality(t *testing.T) {
	a := newApp(false)

	tests := []struct {
		arg  string
		want model.MunicipalityID
	}{
		{"01001", "01001"},
		{"1001", "01001"},
		{"Asientos", "01002"},
		{"calvillo", "01003"},
		{"Apozol, Zacatecas", "32001"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := a.Municipality(tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMunicipality_Errors(t *testing.T) {
	a := newApp(false)

	_, err := a.Municipality("99999")
	assert.True(t, errors.Is(err, ErrUnknownMunicipality))
	assert.True(t, IsNotFound(err))

	_, err = a.Municipality("Zzzzzzzzzz")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
	assert.True(t, IsNotFound(err))

	_, err = a.Municipality("  ")
	var idErr *model.IdentifierError
	assert.True(t, errors.As(err, &idErr))
	assert.False(t, IsNotFound(err))
}

func TestMunicipality_NoCatalog(t *testing.T) {
	tables := refdatatest.Tables()
	tables.Municipalities = nil
	a := New(tables, Options{Engine: engine.DefaultOptions()})

	id, err := a.Municipality("1002")
	require.NoError(t, err)
	assert.Equal(t, model.MunicipalityID("01002"), id)

	_, err = a.Municipality("Asientos")
	assert.True(t, errors.Is(err, ErrUnknownMunicipality))
}

func TestCrop(t *testing.T) {
	a := newApp(false)

	id, err := a.Crop("2")
	require.NoError(t, err)
	assert.Equal(t, model.CropID("2"), id)

	id, err = a.Crop("2.0")
	require.NoError(t, err)
	assert.Equal(t, model.CropID("2"), id)

	id, err = a.Crop("maiz")
	require.NoError(t, err)
	assert.Equal(t, model.CropID("1"), id)

	_, err = a.Crop("café")
	assert.True(t, errors.Is(err, ErrUnknownCrop))
}

func TestNew_WiresCache(t *testing.T) {
	a := newApp(true)
	require.NotNil(t, a.Cache)

	results, err := a.Searcher.Top(context.Background(), "01001", 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, model.MunicipalityID("01002"), results[0].ID)
	assert.Equal(t, 1.0, results[0].Score)

	entries, _, misses := a.Cache.Stats()
	assert.Positive(t, entries)
	assert.Positive(t, misses)

	assert.Nil(t, newApp(false).Cache)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Similarity.Strict = true
	cfg.Similarity.SoilMissingToken = "nan"
	cfg.Search.Concurrency = 3
	cfg.Search.TopN = 7
	cfg.Crops.RecommendTopN = 2
	cfg.Catalog.MatchThreshold = 0.8
	cfg.Server.CacheMaxEntries = 100

	opts := OptionsFromConfig(cfg)
	assert.True(t, opts.Engine.Strict)
	assert.Equal(t, "nan", opts.Engine.SoilMissingToken)
	assert.Equal(t, 3, opts.Search.Concurrency)
	assert.Equal(t, 7, opts.Search.TopN)
	assert.Equal(t, 2, opts.Crops.RecommendTopN)
	assert.InDelta(t, 0.8, opts.MatchThreshold, 1e-9)
	assert.Equal(t, 100, opts.CacheMaxEntries)
	assert.False(t, opts.Cache)
}

func TestCounts(t *testing.T) {
	a := New(&refdata.Tables{}, Options{})
	for _, n := range a.Counts() {
		assert.Zero(t, n)
	}
}
