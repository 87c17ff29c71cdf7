// Package geo reads INEGI municipal boundary shapefiles into catalog rows.
package geo

import (
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/distancia360/agroanalytics/internal/model"
)

// LoadMunicipalities reads the CVEGEO, CVE_ENT, NOMGEO and optional NOM_ENT
// attributes of every record and derives a representative point from the
// polygon bounds. Records without a CVEGEO are skipped.
func LoadMunicipalities(shpPath string) ([]model.Municipality, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", shpPath)
	}
	defer reader.Close()

	idIdx := fieldIndex(reader, "CVEGEO")
	nameIdx := fieldIndex(reader, "NOMGEO")
	if idIdx < 0 || nameIdx < 0 {
		return nil, eris.New("geo: required shapefile fields (CVEGEO, NOMGEO) not found")
	}
	stateIdx := fieldIndex(reader, "CVE_ENT")
	stateNameIdx := fieldIndex(reader, "NOM_ENT")

	var out []model.Municipality
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		id, err := model.NormalizeID(attribute(reader, idIdx))
		if err != nil {
			skipped++
			continue
		}
		m := model.Municipality{
			ID:        id,
			Name:      attribute(reader, nameIdx),
			StateCode: attribute(reader, stateIdx),
			State:     attribute(reader, stateNameIdx),
		}
		if m.StateCode == "" && len(id) >= 2 {
			m.StateCode = string(id[:2])
		}
		if m.State == "" {
			m.State = StateName(m.StateCode)
		}
		if lon, lat, ok := RepresentativePoint(shape); ok {
			m.Lon, m.Lat = &lon, &lat
		}
		out = append(out, m)
	}

	if skipped > 0 {
		zap.L().Warn("geo: skipped shapefile records without a valid CVEGEO",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	return out, nil
}

// RepresentativePoint returns the centre of the bounding box of a polygon
// shape. It is a display anchor, not a true centroid.
func RepresentativePoint(shape shp.Shape) (lon, lat float64, ok bool) {
	p, isPoly := shape.(*shp.Polygon)
	if !isPoly {
		return 0, 0, false
	}
	mp := toMultiPolygon(p)
	if mp == nil {
		return 0, 0, false
	}
	b := mp.Bounds()
	if b.IsEmpty() {
		return 0, 0, false
	}
	return (b.Min(0) + b.Max(0)) / 2, (b.Min(1) + b.Max(1)) / 2, true
}

func toMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || start >= end || end > int32(len(p.Points)) {
			continue
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			continue
		}
		if err := mp.Push(poly); err != nil {
			continue
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

func attribute(reader *shp.Reader, idx int) string {
	if idx < 0 {
		return ""
	}
	return DecodeAttribute(reader.Attribute(idx))
}

// DecodeAttribute trims DBF padding and converts Latin-1 text, which older
// INEGI releases use, to UTF-8.
func DecodeAttribute(raw string) string {
	s := strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	if utf8.ValidString(s) {
		return s
	}
	if dec, err := charmap.ISO8859_1.NewDecoder().String(s); err == nil {
		return dec
	}
	return s
}
