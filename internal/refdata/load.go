package refdata

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/distancia360/agroanalytics/internal/fetcher"
	"github.com/distancia360/agroanalytics/internal/geo"
	"github.com/distancia360/agroanalytics/internal/model"
)

// Files names the source file of each table, relative to the data directory.
// An empty name skips an optional table.
type Files struct {
	Municipalities string `mapstructure:"municipalities"`
	Precipitation  string `mapstructure:"precipitation"`
	Temperature    string `mapstructure:"temperature"`
	ClimateUnits   string `mapstructure:"climate_units"`
	Soils          string `mapstructure:"soils"`
	Landforms      string `mapstructure:"landforms"`
	Aptitudes      string `mapstructure:"aptitudes"`
	Crops          string `mapstructure:"crops"`
	Closures       string `mapstructure:"closures"`
	Drought        string `mapstructure:"drought"`
}

// DefaultFiles returns the file names of the published dataset.
func DefaultFiles() Files {
	return Files{
		Municipalities: "tabla_municipios.csv",
		Precipitation:  "mun_precip_media_anual.csv",
		Temperature:    "mun_temp_media_anual.csv",
		ClimateUnits:   "mun_unidades_climaticas_final.csv",
		Soils:          "mun_edafologia.csv",
		Landforms:      "mun_sist_topoformas.csv",
		Aptitudes:      "aez_cultivos_municipios_final.csv",
		Crops:          "catalogo_cultivos.csv",
		Closures:       "final_cierreAgricola.csv",
		Drought:        "sequia_long.csv",
	}
}

// Load reads every table under dir. The five attribute tables are required;
// the catalog, crop and drought tables are skipped when their file is absent.
func Load(ctx context.Context, dir string, files Files) (*Tables, error) {
	log := zap.L().With(zap.String("component", "refdata.load"), zap.String("dir", dir))
	t := &Tables{}

	var err error
	if t.Precipitation, err = loadRequired(ctx, dir, files.Precipitation, parsePrecipitation); err != nil {
		return nil, err
	}
	if t.Temperature, err = loadRequired(ctx, dir, files.Temperature, parseTemperature); err != nil {
		return nil, err
	}
	if t.ClimateUnits, err = loadRequired(ctx, dir, files.ClimateUnits, parseClimateUnits); err != nil {
		return nil, err
	}
	if t.Soils, err = loadRequired(ctx, dir, files.Soils, parseSoils); err != nil {
		return nil, err
	}
	if t.Landforms, err = loadRequired(ctx, dir, files.Landforms, parseLandforms); err != nil {
		return nil, err
	}

	if path, ok := optional(dir, files.Municipalities, log); ok {
		if strings.EqualFold(filepath.Ext(path), ".shp") {
			t.Municipalities, err = geo.LoadMunicipalities(path)
		} else {
			t.Municipalities, err = loadOptional(ctx, path, parseMunicipalities)
		}
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: load %s", files.Municipalities)
		}
	}

	if path, ok := optional(dir, files.Aptitudes, log); ok {
		if t.Aptitudes, err = loadOptional(ctx, path, parseAptitudes); err != nil {
			return nil, eris.Wrapf(err, "refdata: load %s", files.Aptitudes)
		}
	}
	if path, ok := optional(dir, files.Crops, log); ok {
		if t.Crops, err = loadOptional(ctx, path, parseCrops); err != nil {
			return nil, eris.Wrapf(err, "refdata: load %s", files.Crops)
		}
	}
	if path, ok := optional(dir, files.Closures, log); ok {
		if t.Closures, err = loadOptional(ctx, path, parseClosures); err != nil {
			return nil, eris.Wrapf(err, "refdata: load %s", files.Closures)
		}
	}
	if path, ok := optional(dir, files.Drought, log); ok {
		if t.Drought, err = loadOptional(ctx, path, parseDrought); err != nil {
			return nil, eris.Wrapf(err, "refdata: load %s", files.Drought)
		}
	}

	log.Info("reference tables loaded", zap.Any("rows", t.Counts()))
	return t, nil
}

func optional(dir, name string, log *zap.Logger) (string, bool) {
	if name == "" {
		return "", false
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		log.Info("optional table not found, skipping", zap.String("file", name))
		return "", false
	}
	return path, true
}

func loadRequired[T any](ctx context.Context, dir, name string, parse func(*fetcher.Table) ([]T, error)) ([]T, error) {
	if name == "" {
		return nil, eris.New("refdata: attribute table file name is empty")
	}
	tb, err := fetcher.ReadTable(ctx, filepath.Join(dir, name))
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: load %s", name)
	}
	rows, err := parse(tb)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: parse %s", name)
	}
	return rows, nil
}

func loadOptional[T any](ctx context.Context, path string, parse func(*fetcher.Table) ([]T, error)) ([]T, error) {
	tb, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	return parse(tb)
}

// ParseID normalizes a CVEGEO cell. Spreadsheet exports render numeric ids
// as "1001.0", which is accepted when whole.
func ParseID(cell string) (model.MunicipalityID, error) {
	s := strings.TrimSpace(cell)
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return model.NormalizeID(f)
		}
	}
	return model.NormalizeID(s)
}

// skips counts rows dropped for a bad id or value and logs them once.
type skips struct {
	file string
	n    int
}

func (s *skips) add() { s.n++ }

func (s *skips) flush() {
	if s.n > 0 {
		zap.L().Warn("refdata: skipped malformed rows",
			zap.String("file", s.file),
			zap.Int("skipped", s.n),
		)
	}
}

func newSkips(tb *fetcher.Table) *skips {
	return &skips{file: filepath.Base(tb.Path)}
}

func parsePrecipitation(tb *fetcher.Table) ([]model.PrecipitationRow, error) {
	idx, err := tb.Require("CVEGEO", "CLAVE", "RANGOS")
	if err != nil {
		return nil, err
	}
	sk := newSkips(tb)
	defer sk.flush()

	out := make([]model.PrecipitationRow, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		id, err := ParseID(fetcher.Cell(row, idx[0]))
		if err != nil {
			sk.add()
			continue
		}
		out = append(out, model.PrecipitationRow{
			ID:    id,
			Code:  fetcher.Cell(row, idx[1]),
			Range: fetcher.Cell(row, idx[2]),
		})
	}
	return out, nil
}

func parseTemperature(tb *fetcher.Table) ([]model.TemperatureRow, error) {
	idx, err := tb.Require("CVEGEO", "RANGOS")
	if err != nil {
		return nil, err
	}
	sk := newSkips(tb)
	defer sk.flush()

	out := make([]model.TemperatureRow, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		id, err := ParseID(fetcher.Cell(row, idx[0]))
		if err != nil {
			sk.add()
			continue
		}
		out = append(out, model.TemperatureRow{ID: id, Range: fetcher.Cell(row, idx[1])})
	}
	return out, nil
}

func parseClimateUnits(tb *fetcher.Table) ([]model.ClimateUnitRow, error) {
	idx, err := tb.Require("CVEGEO", "TIPO_N")
	if err != nil {
		return nil, err
	}
	sk := newSkips(tb)
	defer sk.flush()

	out := make([]model.ClimateUnitRow, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		id, err := ParseID(fetcher.Cell(row, idx[0]))
		if err != nil {
			sk.add()
			continue
		}
		out = append(out, model.ClimateUnitRow{ID: id, Type: fetcher.Cell(row, idx[1])})
	}
	return out, nil
}

func parseSoils(tb *fetcher.Table) ([]model.SoilRow, error) {
	idx, err := tb.Require("CVEGEO", "CLAVE_WRB", "GRUPO1", "GRUPO2", "GRUPO3", "CLASE_TEXT", "FRUDICA")
	if err != nil {
		return nil, err
	}
	sk := newSkips(tb)
	defer sk.flush()

	field := func(row []string, i int) *string {
		v := fetcher.Cell(row, i)
		if v == "" {
			return nil
		}
		return &v
	}

	out := make([]model.SoilRow, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		id, err := ParseID(fetcher.Cell(row, idx[0]))
		if err != nil {
			sk.add()
			continue
		}
		out = append(out, model.SoilRow{
			ID:      id,
			WRBKey:  field(row, idx[1]),
			Group1:  field(row, idx[2]),
			Group2:  field(row, idx[3]),
			Group3:  field(row, idx[4]),
			Texture: field(row, idx[5]),
			Phase:   field(row, idx[6]),
		})
	}
	return out, nil
}

func parseLandforms(tb *fetcher.Table) ([]model.LandformRow, error) {
	idx, err := tb.Require("CVEGEO", "CLAVE")
	if err != nil {
		return nil, err
	}
	nameIdx, descIdx := tb.Index("NOMBRE"), tb.Index("DESCRIPCION")
	sk := newSkips(tb)
	defer sk.flush()

	out := make([]model.LandformRow, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		id, err := ParseID(fetcher.Cell(row, idx[0]))
		if err != nil {
			sk.add()
			continue
		}
		out = append(out, model.LandformRow{
			ID:          id,
			Code:        fetcher.Cell(row, idx[1]),
			Name:        fetcher.Cell(row, nameIdx),
			Description: fetcher.Cell(row, descIdx),
		})
	}
	return out, nil
}

func parseMunicipalities(tb *fetcher.Table) ([]model.Municipality, error) {
	idx, err := tb.Require("CVEGEO", "NOMGEO")
	if err != nil {
		return nil, err
	}
	stateIdx, stateCodeIdx := tb.Index("NOM_ENT"), tb.Index("CVE_ENT")
	lonIdx, latIdx := tb.Index("LON"), tb.Index("LAT")
	sk := newSkips(tb)
	defer sk.flush()

	out := make([]model.Municipality, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		id, err := ParseID(fetcher.Cell(row, idx[0]))
		if err != nil {
			sk.add()
			continue
		}
		m := model.Municipality{
			ID:        id,
			Name:      fetcher.Cell(row, idx[1]),
			State:     fetcher.Cell(row, stateIdx),
			StateCode: fetcher.Cell(row, stateCodeIdx),
		}
		if m.StateCode == "" && len(id) == model.IDWidth {
			m.StateCode = string(id[:2])
		}
		if m.State == "" {
			m.State = geo.StateName(m.StateCode)
		}
		lon, lonErr := strconv.ParseFloat(fetcher.Cell(row, lonIdx), 64)
		lat, latErr := strconv.ParseFloat(fetcher.Cell(row, latIdx), 64)
		if lonErr == nil && latErr == nil {
			m.Lon, m.Lat = &lon, &lat
		}
		out = append(out, m)
	}
	return out, nil
}

func parseAptitudes(tb *fetcher.Table) ([]model.AptitudeRow, error) {
	idx, err := tb.Require("CVEGEO", "CULTIVO", "APTITUD")
	if err != nil {
		return nil, err
	}
	sk := newSkips(tb)
	defer sk.flush()

	out := make([]model.AptitudeRow, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		id, err := ParseID(fetcher.Cell(row, idx[0]))
		crop := model.NormalizeCropID(fetcher.Cell(row, idx[1]))
		apt, aptErr := strconv.ParseFloat(fetcher.Cell(row, idx[2]), 64)
		if err != nil || crop == "" || aptErr != nil || math.IsNaN(apt) || math.IsInf(apt, 0) {
			sk.add()
			continue
		}
		out = append(out, model.AptitudeRow{ID: id, Crop: crop, Aptitude: apt})
	}
	return out, nil
}

func parseCrops(tb *fetcher.Table) ([]model.Crop, error) {
	idx, err := tb.Require("Idcultivo", "Nomcultivo")
	if err != nil {
		return nil, err
	}
	sk := newSkips(tb)
	defer sk.flush()

	out := make([]model.Crop, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		id := model.NormalizeCropID(fetcher.Cell(row, idx[0]))
		if id == "" {
			sk.add()
			continue
		}
		out = append(out, model.Crop{ID: id, Name: fetcher.Cell(row, idx[1])})
	}
	return out, nil
}

func parseClosures(tb *fetcher.Table) ([]model.ClosureRecord, error) {
	idx, err := tb.Require("CVEGEO", "Idcultivo")
	if err != nil {
		return nil, err
	}
	yearIdx, volIdx := tb.Index("Anio"), tb.Index("Volumenproduccion")
	sk := newSkips(tb)
	defer sk.flush()

	out := make([]model.ClosureRecord, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		id, err := ParseID(fetcher.Cell(row, idx[0]))
		crop := model.NormalizeCropID(fetcher.Cell(row, idx[1]))
		if err != nil || crop == "" {
			sk.add()
			continue
		}
		rec := model.ClosureRecord{ID: id, Crop: crop}
		if y, err := strconv.ParseFloat(fetcher.Cell(row, yearIdx), 64); err == nil {
			rec.Year = int(y)
		}
		if v, err := strconv.ParseFloat(fetcher.Cell(row, volIdx), 64); err == nil {
			rec.Production = v
		}
		out = append(out, rec)
	}
	return out, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2006-01",
}

// ParseDate accepts the date spellings found in drought exports. An
// unparsable date yields the zero time.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseDrought(tb *fetcher.Table) ([]model.DroughtRecord, error) {
	idx, err := tb.Require("CVEGEO", "Fecha", "Nivel_Sequia")
	if err != nil {
		return nil, err
	}
	sk := newSkips(tb)
	defer sk.flush()

	out := make([]model.DroughtRecord, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		id, err := ParseID(fetcher.Cell(row, idx[0]))
		level, lvlErr := strconv.ParseFloat(fetcher.Cell(row, idx[2]), 64)
		if err != nil || lvlErr != nil {
			sk.add()
			continue
		}
		out = append(out, model.DroughtRecord{
			ID:    id,
			Date:  ParseDate(fetcher.Cell(row, idx[1])),
			Level: level,
		})
	}
	return out, nil
}
