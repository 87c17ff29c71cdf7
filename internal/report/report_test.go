package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/distancia360/agroanalytics/internal/crop"
	"github.com/distancia360/agroanalytics/internal/engine"
	"github.com/distancia360/agroanalytics/internal/fetcher"
	"github.com/distancia360/agroanalytics/internal/model"
	"github.com/distancia360/agroanalytics/internal/search"
)

func similarFixture() *Report {
	return Similar("Aguascalientes (Aguascalientes)", []search.Result{
		{ID: "01002", Label: "Asientos (Aguascalientes)", Score: 0.91234},
		{ID: "32001", Label: "Apozol (Zacatecas)", Score: 0.5},
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xlsx", FormatXLSX, false},
		{"csv", FormatCSV, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, FormatXLSX.Binary())
	assert.False(t, FormatCSV.Binary())
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, similarFixture()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Similar to Aguascalientes (Aguascalientes)", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "RANK"))
	assert.Contains(t, lines[2], "01002")
	assert.Contains(t, lines[2], "0.9123")
	assert.Contains(t, lines[3], "0.5000")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, similarFixture()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"rank", "cvegeo", "municipality", "score"},
		{"1", "01002", "Asientos (Aguascalientes)", "0.9123"},
		{"2", "32001", "Apozol (Zacatecas)", "0.5000"},
	}, records)
}

func TestWriteJSON_UsesData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, similarFixture()))

	var got []search.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, model.MunicipalityID("01002"), got[0].ID)
	assert.InDelta(t, 0.91234, got[0].Score, 1e-9)
}

func TestWriteYAML_FallsBackToRows(t *testing.T) {
	r := &Report{Headers: []string{"a", "b"}, Rows: [][]string{{"1", "2"}, {"3"}}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, r))

	var got []map[string]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []map[string]string{{"a": "1", "b": "2"}, {"a": "3"}}, got)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "similar.xlsx")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Write(f, FormatXLSX, similarFixture()))
	require.NoError(t, f.Close())

	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"rank", "cvegeo", "municipality", "score"}, rows[0])
	assert.Equal(t, "01002", rows[1][1])
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("pdf"), similarFixture())
	assert.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Sheet1", sheetName(""))
	assert.Equal(t, "a_b_c", sheetName("a/b:c"))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), maxSheetName)
}

func detailFixture() *engine.Detail {
	return &engine.Detail{
		Components: []engine.Component{
			{Name: engine.ComponentPrecipCode, Base: "3", Other: "4", Score: 0.75},
			{Name: engine.ComponentSoil, Base: "Phaeozem nan", Other: "Phaeozem nan", Score: 1},
			{Name: engine.ComponentLandform, Base: "S", Other: "L", Err: errors.New("bad")},
		},
		Score: 0.875,
	}
}

func TestComponents(t *testing.T) {
	r := Components("01001 vs 01002", detailFixture())
	require.Len(t, r.Rows, 4)
	assert.Equal(t, []string{"precip_code", "3", "4", "0.7500"}, r.Rows[0])
	assert.Equal(t, "skipped", r.Rows[2][3])
	assert.Equal(t, []string{"composite", "", "", "0.8750"}, r.Rows[3])
}

func TestWriteDetail(t *testing.T) {
	SetColor(false)

	var buf bytes.Buffer
	require.NoError(t, WriteDetail(&buf, "Aguascalientes", "Asientos", detailFixture()))
	out := buf.String()

	assert.Contains(t, out, "Comparison between Aguascalientes and Asientos")
	assert.Contains(t, out, "PRECIPITATION (CODE): 3 vs 4 -> 0.750")
	assert.Contains(t, out, "SOIL:\n  Phaeozem nan\n  Phaeozem nan\n  Similarity -> 1.000")
	assert.Contains(t, out, "LANDFORM: S vs L -> skipped")
	assert.Contains(t, out, "COMPOSITE SIMILARITY -> 0.875")
	assert.NotContains(t, out, "\x1b[")
}

func TestCropProfile(t *testing.T) {
	r := CropProfile("profile", crop.CropComparison{
		Shared:          []model.Crop{{ID: "1", Name: "Maiz"}},
		MissingAptitude: []crop.Aptitude{{Crop: "2", Name: "Frijol", Aptitude: 3}},
		Recommendations: []crop.Aptitude{{Crop: "2", Name: "Frijol", Aptitude: 3}},
	})
	assert.Equal(t, [][]string{
		{"shared", "1", "Maiz", ""},
		{"missing", "2", "Frijol", "3"},
		{"recommended", "2", "Frijol", "3"},
	}, r.Rows)
}

func TestProducersAndProduction(t *testing.T) {
	p := Producers("top", []crop.Producer{{ID: "01001", Label: "A", Production: 1500.5}})
	assert.Equal(t, [][]string{{"1", "01001", "A", "1500.5"}}, p.Rows)

	y := AnnualProduction("years", []crop.YearTotal{{Year: 2020, Production: 10}})
	assert.Equal(t, [][]string{{"2020", "10"}}, y.Rows)
}
