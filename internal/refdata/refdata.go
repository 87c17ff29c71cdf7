// Package refdata holds the read-only reference tables and per-id indexes
// shared by the similarity engine, the crop engine and the API.
package refdata

import (
	"github.com/distancia360/agroanalytics/internal/model"
)

// Tables is the raw content of every reference table, in file order.
type Tables struct {
	Municipalities []model.Municipality
	Precipitation  []model.PrecipitationRow
	Temperature    []model.TemperatureRow
	ClimateUnits   []model.ClimateUnitRow
	Soils          []model.SoilRow
	Landforms      []model.LandformRow
	Aptitudes      []model.AptitudeRow
	Crops          []model.Crop
	Closures       []model.ClosureRecord
	Drought        []model.DroughtRecord
}

// Counts returns the number of rows per table.
func (t *Tables) Counts() map[string]int {
	c := make(map[string]int, 10)
	c["municipalities"] = len(t.Municipalities)
	c[model.TablePrecipitation] = len(t.Precipitation)
	c[model.TableTemperature] = len(t.Temperature)
	c[model.TableClimateUnit] = len(t.ClimateUnits)
	c[model.TableSoil] = len(t.Soils)
	c[model.TableLandform] = len(t.Landforms)
	c["aptitude"] = len(t.Aptitudes)
	c["crops"] = len(t.Crops)
	c["closures"] = len(t.Closures)
	c["drought"] = len(t.Drought)
	return c
}

// ReferenceData indexes Tables by municipality and crop. It is never mutated
// after New returns and is safe for concurrent readers.
type ReferenceData struct {
	municipalities []model.Municipality
	municipalityBy map[model.MunicipalityID]model.Municipality

	precip   map[model.MunicipalityID]model.PrecipitationRow
	temp     map[model.MunicipalityID]model.TemperatureRow
	climate  map[model.MunicipalityID]model.ClimateUnitRow
	soil     map[model.MunicipalityID]model.SoilRow
	landform map[model.MunicipalityID]model.LandformRow

	// first-seen order of precipitation ids, used when there is no catalog
	precipOrder []model.MunicipalityID

	crops  []model.Crop
	cropBy map[model.CropID]model.Crop

	aptitudeByMun  map[model.MunicipalityID][]model.AptitudeRow
	aptitudeByCrop map[model.CropID][]model.AptitudeRow
	closuresByMun  map[model.MunicipalityID][]model.ClosureRecord
	closuresByCrop map[model.CropID][]model.ClosureRecord

	drought map[model.MunicipalityID][]model.DroughtRecord
}

// New builds the indexes. When a table holds several rows for one id, the
// first row wins.
func New(t *Tables) *ReferenceData {
	r := &ReferenceData{
		municipalityBy: make(map[model.MunicipalityID]model.Municipality, len(t.Municipalities)),
		precip:         make(map[model.MunicipalityID]model.PrecipitationRow, len(t.Precipitation)),
		temp:           make(map[model.MunicipalityID]model.TemperatureRow, len(t.Temperature)),
		climate:        make(map[model.MunicipalityID]model.ClimateUnitRow, len(t.ClimateUnits)),
		soil:           make(map[model.MunicipalityID]model.SoilRow, len(t.Soils)),
		landform:       make(map[model.MunicipalityID]model.LandformRow, len(t.Landforms)),
		cropBy:         make(map[model.CropID]model.Crop, len(t.Crops)),
		aptitudeByMun:  make(map[model.MunicipalityID][]model.AptitudeRow),
		aptitudeByCrop: make(map[model.CropID][]model.AptitudeRow),
		closuresByMun:  make(map[model.MunicipalityID][]model.ClosureRecord),
		closuresByCrop: make(map[model.CropID][]model.ClosureRecord),
		drought:        make(map[model.MunicipalityID][]model.DroughtRecord),
	}

	for _, m := range t.Municipalities {
		if _, ok := r.municipalityBy[m.ID]; ok {
			continue
		}
		r.municipalityBy[m.ID] = m
		r.municipalities = append(r.municipalities, m)
	}
	for _, row := range t.Precipitation {
		if _, ok := r.precip[row.ID]; !ok {
			r.precip[row.ID] = row
			r.precipOrder = append(r.precipOrder, row.ID)
		}
	}
	indexFirst(r.temp, t.Temperature, func(row model.TemperatureRow) model.MunicipalityID { return row.ID })
	indexFirst(r.climate, t.ClimateUnits, func(row model.ClimateUnitRow) model.MunicipalityID { return row.ID })
	indexFirst(r.soil, t.Soils, func(row model.SoilRow) model.MunicipalityID { return row.ID })
	indexFirst(r.landform, t.Landforms, func(row model.LandformRow) model.MunicipalityID { return row.ID })

	for _, c := range t.Crops {
		if _, ok := r.cropBy[c.ID]; ok {
			continue
		}
		r.cropBy[c.ID] = c
		r.crops = append(r.crops, c)
	}
	for _, a := range t.Aptitudes {
		r.aptitudeByMun[a.ID] = append(r.aptitudeByMun[a.ID], a)
		r.aptitudeByCrop[a.Crop] = append(r.aptitudeByCrop[a.Crop], a)
	}
	for _, c := range t.Closures {
		r.closuresByMun[c.ID] = append(r.closuresByMun[c.ID], c)
		r.closuresByCrop[c.Crop] = append(r.closuresByCrop[c.Crop], c)
	}
	for _, d := range t.Drought {
		r.drought[d.ID] = append(r.drought[d.ID], d)
	}
	return r
}

func indexFirst[T any](dst map[model.MunicipalityID]T, rows []T, key func(T) model.MunicipalityID) {
	for _, row := range rows {
		id := key(row)
		if _, ok := dst[id]; !ok {
			dst[id] = row
		}
	}
}

// Precipitation returns the precipitation row for id.
func (r *ReferenceData) Precipitation(id model.MunicipalityID) (model.PrecipitationRow, bool) {
	row, ok := r.precip[id]
	return row, ok
}

// Temperature returns the temperature row for id.
func (r *ReferenceData) Temperature(id model.MunicipalityID) (model.TemperatureRow, bool) {
	row, ok := r.temp[id]
	return row, ok
}

// ClimateUnit returns the climate unit row for id.
func (r *ReferenceData) ClimateUnit(id model.MunicipalityID) (model.ClimateUnitRow, bool) {
	row, ok := r.climate[id]
	return row, ok
}

// Soil returns the soil row for id.
func (r *ReferenceData) Soil(id model.MunicipalityID) (model.SoilRow, bool) {
	row, ok := r.soil[id]
	return row, ok
}

// Landform returns the landform row for id.
func (r *ReferenceData) Landform(id model.MunicipalityID) (model.LandformRow, bool) {
	row, ok := r.landform[id]
	return row, ok
}

// Municipality returns the catalog entry for id.
func (r *ReferenceData) Municipality(id model.MunicipalityID) (model.Municipality, bool) {
	m, ok := r.municipalityBy[id]
	return m, ok
}

// Municipalities returns the catalog in file order. The slice is shared and
// must not be modified.
func (r *ReferenceData) Municipalities() []model.Municipality {
	return r.municipalities
}

// Known reports whether id appears in the catalog or in any attribute table.
func (r *ReferenceData) Known(id model.MunicipalityID) bool {
	if _, ok := r.municipalityBy[id]; ok {
		return true
	}
	_, p := r.precip[id]
	_, t := r.temp[id]
	_, c := r.climate[id]
	_, s := r.soil[id]
	_, l := r.landform[id]
	return p || t || c || s || l
}

// Label returns the display name for id, or the id itself when it is not in
// the catalog.
func (r *ReferenceData) Label(id model.MunicipalityID) string {
	if m, ok := r.municipalityBy[id]; ok {
		return m.Label()
	}
	return string(id)
}

// CandidateIDs returns the ids a corpus search ranks against: the catalog,
// or the precipitation table when no catalog was loaded.
func (r *ReferenceData) CandidateIDs() []model.MunicipalityID {
	if len(r.municipalities) > 0 {
		ids := make([]model.MunicipalityID, len(r.municipalities))
		for i, m := range r.municipalities {
			ids[i] = m.ID
		}
		return ids
	}
	return append([]model.MunicipalityID(nil), r.precipOrder...)
}

// Crop returns the catalog entry for a crop.
func (r *ReferenceData) Crop(id model.CropID) (model.Crop, bool) {
	c, ok := r.cropBy[id]
	return c, ok
}

// CropName returns the catalog name of a crop, or its id when unlisted.
func (r *ReferenceData) CropName(id model.CropID) string {
	if c, ok := r.cropBy[id]; ok && c.Name != "" {
		return c.Name
	}
	return string(id)
}

// Crops returns the crop catalog in file order.
func (r *ReferenceData) Crops() []model.Crop {
	return r.crops
}

// AptitudesFor returns the AEZ rows of a municipality in table order.
func (r *ReferenceData) AptitudesFor(id model.MunicipalityID) []model.AptitudeRow {
	return r.aptitudeByMun[id]
}

// AptitudesForCrop returns the AEZ rows of a crop in table order.
func (r *ReferenceData) AptitudesForCrop(id model.CropID) []model.AptitudeRow {
	return r.aptitudeByCrop[id]
}

// ClosuresFor returns the closure records of a municipality in table order.
func (r *ReferenceData) ClosuresFor(id model.MunicipalityID) []model.ClosureRecord {
	return r.closuresByMun[id]
}

// ClosuresForCrop returns the closure records of a crop in table order.
func (r *ReferenceData) ClosuresForCrop(id model.CropID) []model.ClosureRecord {
	return r.closuresByCrop[id]
}

// KnownCrop reports whether the crop appears in the catalog, the AEZ table
// or the closure records.
func (r *ReferenceData) KnownCrop(id model.CropID) bool {
	if _, ok := r.cropBy[id]; ok {
		return true
	}
	return len(r.aptitudeByCrop[id]) > 0 || len(r.closuresByCrop[id]) > 0
}
