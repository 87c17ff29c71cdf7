package model

import "time"

// Reference table names, used in error reports and store schemas.
const (
	TablePrecipitation = "precipitation"
	TableTemperature   = "temperature"
	TableClimateUnit   = "climate_unit"
	TableSoil          = "soil"
	TableLandform      = "landform"
)

// PrecipitationRow is a row of mun_precip_media_anual.
type PrecipitationRow struct {
	ID    MunicipalityID
	Code  string // CLAVE
	Range string // RANGOS
}

// TemperatureRow is a row of mun_temp_media_anual.
type TemperatureRow struct {
	ID    MunicipalityID
	Range string // RANGOS
}

// ClimateUnitRow is a row of mun_unidades_climaticas_final.
type ClimateUnitRow struct {
	ID   MunicipalityID
	Type string // TIPO_N, numeric in well-formed data
}

// SoilRow is a row of mun_edafologia. Absent sub-fields are nil.
type SoilRow struct {
	ID      MunicipalityID
	WRBKey  *string // CLAVE_WRB
	Group1  *string // GRUPO1
	Group2  *string // GRUPO2
	Group3  *string // GRUPO3
	Texture *string // CLASE_TEXT
	Phase   *string // FRUDICA
}

// Fields returns the six soil sub-fields in canonical join order.
func (r SoilRow) Fields() []*string {
	return []*string{r.WRBKey, r.Group1, r.Group2, r.Group3, r.Texture, r.Phase}
}

// LandformRow is a row of mun_sist_topoformas.
type LandformRow struct {
	ID          MunicipalityID
	Code        string // CLAVE
	Name        string // NOMBRE
	Description string // DESCRIPCION
}

// DroughtRecord is one observation of sequia_long.
type DroughtRecord struct {
	ID    MunicipalityID
	Date  time.Time
	Level float64
}

// Profile is the attribute bundle of one municipality used for similarity.
type Profile struct {
	ID                  MunicipalityID `json:"cvegeo" yaml:"cvegeo"`
	PrecipCode          string         `json:"precip_code" yaml:"precip_code"`
	PrecipRange         string         `json:"precip_range" yaml:"precip_range"`
	TemperatureRange    string         `json:"temperature_range" yaml:"temperature_range"`
	ClimateUnitType     string         `json:"climate_unit_type" yaml:"climate_unit_type"`
	Soil                string         `json:"soil" yaml:"soil"`
	LandformCode        string         `json:"landform_code" yaml:"landform_code"`
	LandformName        string         `json:"landform_name,omitempty" yaml:"landform_name,omitempty"`
	LandformDescription string         `json:"landform_description,omitempty" yaml:"landform_description,omitempty"`
}
