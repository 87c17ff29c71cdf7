package store

import (
	"github.com/distancia360/agroanalytics/internal/model"
	"github.com/distancia360/agroanalytics/internal/refdata"
)

// rowScanner is the common surface of *sql.Rows and pgx.Rows.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// table maps one reference table to its columns. Every table carries a seq
// column holding the source row order, which the loader replays so that
// first-row-wins and table-order semantics survive a round trip.
type table struct {
	name    string
	columns []string // excluding seq
	rows    func(t *refdata.Tables) [][]any
	scan    func(t *refdata.Tables, s rowScanner) error
}

func (tb table) insertColumns() []string {
	return append([]string{"seq"}, tb.columns...)
}

func withSeq(i int, vals ...any) []any {
	return append([]any{i}, vals...)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

var referenceTables = []table{
	{
		name:    "municipalities",
		columns: []string{"cvegeo", "cve_ent", "nom_ent", "nomgeo", "lon", "lat"},
		rows: func(t *refdata.Tables) [][]any {
			out := make([][]any, len(t.Municipalities))
			for i, m := range t.Municipalities {
				out[i] = withSeq(i, string(m.ID), m.StateCode, m.State, m.Name, m.Lon, m.Lat)
			}
			return out
		},
		scan: func(t *refdata.Tables, s rowScanner) error {
			var id, code, state, name string
			var lon, lat *float64
			if err := s.Scan(&id, &code, &state, &name, &lon, &lat); err != nil {
				return err
			}
			t.Municipalities = append(t.Municipalities, model.Municipality{
				ID: model.MunicipalityID(id), StateCode: code, State: state, Name: name, Lon: lon, Lat: lat,
			})
			return nil
		},
	},
	{
		name:    "precipitation",
		columns: []string{"cvegeo", "clave", "rangos"},
		rows: func(t *refdata.Tables) [][]any {
			out := make([][]any, len(t.Precipitation))
			for i, r := range t.Precipitation {
				out[i] = withSeq(i, string(r.ID), r.Code, r.Range)
			}
			return out
		},
		scan: func(t *refdata.Tables, s rowScanner) error {
			var id, code, rng string
			if err := s.Scan(&id, &code, &rng); err != nil {
				return err
			}
			t.Precipitation = append(t.Precipitation, model.PrecipitationRow{ID: model.MunicipalityID(id), Code: code, Range: rng})
			return nil
		},
	},
	{
		name:    "temperature",
		columns: []string{"cvegeo", "rangos"},
		rows: func(t *refdata.Tables) [][]any {
			out := make([][]any, len(t.Temperature))
			for i, r := range t.Temperature {
				out[i] = withSeq(i, string(r.ID), r.Range)
			}
			return out
		},
		scan: func(t *refdata.Tables, s rowScanner) error {
			var id, rng string
			if err := s.Scan(&id, &rng); err != nil {
				return err
			}
			t.Temperature = append(t.Temperature, model.TemperatureRow{ID: model.MunicipalityID(id), Range: rng})
			return nil
		},
	},
	{
		name:    "climate_units",
		columns: []string{"cvegeo", "tipo_n"},
		rows: func(t *refdata.Tables) [][]any {
			out := make([][]any, len(t.ClimateUnits))
			for i, r := range t.ClimateUnits {
				out[i] = withSeq(i, string(r.ID), r.Type)
			}
			return out
		},
		scan: func(t *refdata.Tables, s rowScanner) error {
			var id, typ string
			if err := s.Scan(&id, &typ); err != nil {
				return err
			}
			t.ClimateUnits = append(t.ClimateUnits, model.ClimateUnitRow{ID: model.MunicipalityID(id), Type: typ})
			return nil
		},
	},
	{
		name:    "soils",
		columns: []string{"cvegeo", "clave_wrb", "grupo1", "grupo2", "grupo3", "clase_text", "frudica"},
		rows: func(t *refdata.Tables) [][]any {
			out := make([][]any, len(t.Soils))
			for i, r := range t.Soils {
				out[i] = withSeq(i, string(r.ID), r.WRBKey, r.Group1, r.Group2, r.Group3, r.Texture, r.Phase)
			}
			return out
		},
		scan: func(t *refdata.Tables, s rowScanner) error {
			var id string
			var r model.SoilRow
			if err := s.Scan(&id, &r.WRBKey, &r.Group1, &r.Group2, &r.Group3, &r.Texture, &r.Phase); err != nil {
				return err
			}
			r.ID = model.MunicipalityID(id)
			t.Soils = append(t.Soils, r)
			return nil
		},
	},
	{
		name:    "landforms",
		columns: []string{"cvegeo", "clave", "nombre", "descripcion"},
		rows: func(t *refdata.Tables) [][]any {
			out := make([][]any, len(t.Landforms))
			for i, r := range t.Landforms {
				out[i] = withSeq(i, string(r.ID), r.Code, r.Name, r.Description)
			}
			return out
		},
		scan: func(t *refdata.Tables, s rowScanner) error {
			var id, code, name, desc string
			if err := s.Scan(&id, &code, &name, &desc); err != nil {
				return err
			}
			t.Landforms = append(t.Landforms, model.LandformRow{ID: model.MunicipalityID(id), Code: code, Name: name, Description: desc})
			return nil
		},
	},
	{
		name:    "aptitudes",
		columns: []string{"cvegeo", "cultivo", "aptitud"},
		rows: func(t *refdata.Tables) [][]any {
			out := make([][]any, len(t.Aptitudes))
			for i, r := range t.Aptitudes {
				out[i] = withSeq(i, string(r.ID), string(r.Crop), r.Aptitude)
			}
			return out
		},
		scan: func(t *refdata.Tables, s rowScanner) error {
			var id, crop string
			var apt float64
			if err := s.Scan(&id, &crop, &apt); err != nil {
				return err
			}
			t.Aptitudes = append(t.Aptitudes, model.AptitudeRow{ID: model.MunicipalityID(id), Crop: model.CropID(crop), Aptitude: apt})
			return nil
		},
	},
	{
		name:    "crops",
		columns: []string{"idcultivo", "nomcultivo"},
		rows: func(t *refdata.Tables) [][]any {
			out := make([][]any, len(t.Crops))
			for i, c := range t.Crops {
				out[i] = withSeq(i, string(c.ID), c.Name)
			}
			return out
		},
		scan: func(t *refdata.Tables, s rowScanner) error {
			var id, name string
			if err := s.Scan(&id, &name); err != nil {
				return err
			}
			t.Crops = append(t.Crops, model.Crop{ID: model.CropID(id), Name: name})
			return nil
		},
	},
	{
		name:    "closures",
		columns: []string{"cvegeo", "idcultivo", "anio", "volumen"},
		rows: func(t *refdata.Tables) [][]any {
			out := make([][]any, len(t.Closures))
			for i, r := range t.Closures {
				var year *int64
				if r.Year != 0 {
					y := int64(r.Year)
					year = &y
				}
				out[i] = withSeq(i, string(r.ID), string(r.Crop), year, r.Production)
			}
			return out
		},
		scan: func(t *refdata.Tables, s rowScanner) error {
			var id, crop string
			var year *int64
			var volume *float64
			if err := s.Scan(&id, &crop, &year, &volume); err != nil {
				return err
			}
			rec := model.ClosureRecord{ID: model.MunicipalityID(id), Crop: model.CropID(crop)}
			if year != nil {
				rec.Year = int(*year)
			}
			if volume != nil {
				rec.Production = *volume
			}
			t.Closures = append(t.Closures, rec)
			return nil
		},
	},
	{
		name:    "drought",
		columns: []string{"cvegeo", "fecha", "nivel"},
		rows: func(t *refdata.Tables) [][]any {
			out := make([][]any, len(t.Drought))
			for i, r := range t.Drought {
				var date *string
				if !r.Date.IsZero() {
					date = nullString(r.Date.Format("2006-01-02"))
				}
				out[i] = withSeq(i, string(r.ID), date, r.Level)
			}
			return out
		},
		scan: func(t *refdata.Tables, s rowScanner) error {
			var id string
			var date *string
			var level float64
			if err := s.Scan(&id, &date, &level); err != nil {
				return err
			}
			t.Drought = append(t.Drought, model.DroughtRecord{
				ID: model.MunicipalityID(id), Date: refdata.ParseDate(deref(date)), Level: level,
			})
			return nil
		},
	},
}
