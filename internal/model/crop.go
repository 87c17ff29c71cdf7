package model

import (
	"math"
	"strconv"
	"strings"
)

// CropID identifies a crop in the catalog (Idcultivo).
type CropID string

// Crop is a catalog entry.
type Crop struct {
	ID   CropID `json:"id" yaml:"id"`
	Name string `json:"nombre" yaml:"nombre"`
}

// AptitudeRow is a row of the AEZ table.
type AptitudeRow struct {
	ID       MunicipalityID
	Crop     CropID
	Aptitude float64
}

// ClosureRecord is a row of the agricultural closure table: crop observed in a
// municipality, optionally with a year and production volume.
type ClosureRecord struct {
	ID         MunicipalityID
	Crop       CropID
	Year       int     // 0 when unknown
	Production float64 // tonnes, 0 when unknown
}

// NormalizeCropID trims raw and collapses whole-number spellings such as
// "5.0" to "5", so catalog, AEZ and closure keys agree.
func NormalizeCropID(raw string) CropID {
	s := strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return CropID(strconv.FormatInt(int64(f), 10))
	}
	return CropID(s)
}
