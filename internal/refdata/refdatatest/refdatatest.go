// Package refdatatest provides a small, fully populated reference data set
// for tests of the packages built on refdata.
package refdatatest

import (
	"time"

	"github.com/distancia360/agroanalytics/internal/model"
	"github.com/distancia360/agroanalytics/internal/refdata"
)

func str(s string) *string { return &s }

// Tables returns four municipalities. 01001 and 01002 share every
// attribute, 01003 differs on all of them, and 32001 has no soil row so it
// cannot be compared. Crops, aptitudes, closures and drought rows are
// present for 01001 and 01002.
func Tables() *refdata.Tables {
	return &refdata.Tables{
		Municipalities: []model.Municipality{
			{ID: "01001", StateCode: "01", State: "Aguascalientes", Name: "Aguascalientes"},
			{ID: "01002", StateCode: "01", State: "Aguascalientes", Name: "Asientos"},
			{ID: "01003", StateCode: "01", State: "Aguascalientes", Name: "Calvillo"},
			{ID: "32001", StateCode: "32", State: "Zacatecas", Name: "Apozol"},
		},
		Precipitation: []model.PrecipitationRow{
			{ID: "01001", Code: "5", Range: "500-600"},
			{ID: "01002", Code: "5", Range: "500-600"},
			{ID: "01003", Code: "2", Range: "200-300"},
			{ID: "32001", Code: "4", Range: "400-500"},
		},
		Temperature: []model.TemperatureRow{
			{ID: "01001", Range: "18-20"},
			{ID: "01002", Range: "18-20"},
			{ID: "01003", Range: "10-12"},
			{ID: "32001", Range: "16-18"},
		},
		ClimateUnits: []model.ClimateUnitRow{
			{ID: "01001", Type: "3"},
			{ID: "01002", Type: "3"},
			{ID: "01003", Type: "7"},
			{ID: "32001", Type: "3"},
		},
		Soils: []model.SoilRow{
			{ID: "01001", WRBKey: str("LP"), Group1: str("Leptosol")},
			{ID: "01002", WRBKey: str("LP"), Group1: str("Leptosol")},
			{ID: "01003", WRBKey: str("VR"), Group1: str("Vertisol"), Texture: str("fina")},
		},
		Landforms: []model.LandformRow{
			{ID: "01001", Code: "P1", Name: "Llanura"},
			{ID: "01002", Code: "P1", Name: "Llanura"},
			{ID: "01003", Code: "S4", Name: "Sierra"},
			{ID: "32001", Code: "P1", Name: "Llanura"},
		},
		Crops: []model.Crop{
			{ID: "1", Name: "Maíz"},
			{ID: "2", Name: "Frijol"},
			{ID: "3", Name: "Sorgo"},
		},
		Aptitudes: []model.AptitudeRow{
			{ID: "01001", Crop: "1", Aptitude: 0.4},
			{ID: "01001", Crop: "2", Aptitude: 0.9},
			{ID: "01001", Crop: "3", Aptitude: 0.6},
			{ID: "01002", Crop: "1", Aptitude: 0.8},
			{ID: "01002", Crop: "3", Aptitude: 0.5},
		},
		Closures: []model.ClosureRecord{
			{ID: "01001", Crop: "1", Year: 2020, Production: 100},
			{ID: "01001", Crop: "1", Year: 2021, Production: 120},
			{ID: "01002", Crop: "1", Year: 2020, Production: 40},
			{ID: "01002", Crop: "2", Year: 2020, Production: 10},
		},
		Drought: []model.DroughtRecord{
			{ID: "01001", Date: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), Level: 1},
			{ID: "01001", Date: time.Date(2020, 2, 15, 0, 0, 0, 0, time.UTC), Level: 3},
			{ID: "01001", Date: time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC), Level: 2},
		},
	}
}
