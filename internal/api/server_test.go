package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distancia360/agroanalytics/internal/api"
	"github.com/distancia360/agroanalytics/internal/app"
	"github.com/distancia360/agroanalytics/internal/engine"
	"github.com/distancia360/agroanalytics/internal/model"
	"github.com/distancia360/agroanalytics/internal/monitoring"
	"github.com/distancia360/agroanalytics/internal/refdata"
	"github.com/distancia360/agroanalytics/internal/refdata/refdatatest"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newApp(t *testing.T, tables *refdata.Tables) *app.App {
	t.Helper()
	return app.New(tables, app.Options{Engine: engine.DefaultOptions(), Cache: true})
}

func newTestServer(t *testing.T, opts api.Options) *api.Server {
	t.Helper()
	return api.NewServer(":0", newApp(t, refdatatest.Tables()), opts)
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(t, api.Options{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestReadyz(t *testing.T) {
	rec := get(t, newTestServer(t, api.Options{Ready: &mockReadiness{}}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, rec)["status"])

	rec = get(t, newTestServer(t, api.Options{Ready: &mockReadiness{err: fmt.Errorf("store down")}}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "store down", body["error"])
}

func TestReadyz_NoReferenceData(t *testing.T) {
	srv := api.NewServer(":0", newApp(t, &refdata.Tables{}), api.Options{})
	rec := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "no reference data loaded", decode[map[string]string](t, rec)["error"])
}

func TestMetricsEndpointAndRequestMetrics(t *testing.T) {
	m, reg := monitoring.NewMetricsForTesting()
	srv := newTestServer(t, api.Options{Metrics: m, Gatherer: reg})

	require.Equal(t, http.StatusOK, get(t, srv, "/api/municipio/01001/similar").Code)
	require.Equal(t, http.StatusNotFound, get(t, srv, "/api/municipio/99999/similar").Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/municipio/{cvegeo}/similar", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/municipio/{cvegeo}/similar", "404")))

	rec := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agroanalytics_http_requests_total")
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, api.Options{})

	rec := get(t, srv, "/healthz")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

type similarBody struct {
	CVEGEO  string `json:"cvegeo"`
	Results []struct {
		CVEGEO string  `json:"cvegeo"`
		Score  float64 `json:"score"`
	} `json:"results"`
}

func TestSimilar(t *testing.T) {
	srv := newTestServer(t, api.Options{})

	rec := get(t, srv, "/api/municipio/1001/similar?top=1")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[similarBody](t, rec)
	assert.Equal(t, "01001", body.CVEGEO)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "01002", body.Results[0].CVEGEO)
	assert.Equal(t, 1.0, body.Results[0].Score)
}

func TestSimilar_ByName(t *testing.T) {
	rec := get(t, newTestServer(t, api.Options{}), "/api/municipio/Calvillo/similar")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "01003", decode[map[string]any](t, rec)["cvegeo"])
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t, api.Options{})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"bad top", "/api/municipio/01001/similar?top=abc", http.StatusBadRequest},
		{"top out of range", "/api/municipio/01001/recomendaciones?top=0", http.StatusBadRequest},
		{"blank id", "/api/municipio/%20/perfil", http.StatusBadRequest},
		{"missing query", "/api/municipios/buscar", http.StatusBadRequest},
		{"unknown id", "/api/municipio/99999/perfil", http.StatusNotFound},
		{"unknown name", "/api/municipio/Xqzwv/perfil", http.StatusNotFound},
		{"unknown crop", "/api/cultivos/777/municipios", http.StatusNotFound},
		{"not comparable", "/api/municipio/01001/comparacion/32001", http.StatusUnprocessableEntity},
		{"unmatched route", "/api/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, tt.path)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAmbiguousName(t *testing.T) {
	tables := refdatatest.Tables()
	tables.Municipalities = append(tables.Municipalities,
		model.Municipality{ID: "32002", StateCode: "32", State: "Zacatecas", Name: "Asientos"})
	srv := api.NewServer(":0", newApp(t, tables), api.Options{})

	rec := get(t, srv, "/api/municipio/Asientos/perfil")
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Error      string `json:"error"`
		Candidates []struct {
			CVEGEO string `json:"cvegeo"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Candidates, 2)

	rec = get(t, srv, "/api/municipio/Asientos,%20Zacatecas/perfil")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestComparison(t *testing.T) {
	rec := get(t, newTestServer(t, api.Options{}), "/api/municipio/01001/comparacion/01002")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Detail struct {
			Score      float64 `json:"score"`
			Components []struct {
				Name string `json:"name"`
			} `json:"components"`
		} `json:"detail"`
		SharedCrops []model.Crop `json:"shared_crops"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1.0, body.Detail.Score)
	assert.Len(t, body.Detail.Components, 6)
	assert.Equal(t, []model.Crop{{ID: "1", Name: "Maíz"}}, body.SharedCrops)
}

func TestProfile(t *testing.T) {
	rec := get(t, newTestServer(t, api.Options{}), "/api/municipio/32001/perfil")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Label         string   `json:"label"`
		MissingTables []string `json:"missing_tables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Apozol (Zacatecas)", body.Label)
	assert.Equal(t, []string{model.TableSoil}, body.MissingTables)
}

func TestMunicipalities(t *testing.T) {
	srv := newTestServer(t, api.Options{})

	all := decode[[]model.Municipality](t, get(t, srv, "/api/municipios"))
	assert.Len(t, all, 4)

	zac := decode[[]model.Municipality](t, get(t, srv, "/api/municipios?estado=zacatecas"))
	require.Len(t, zac, 1)
	assert.Equal(t, model.MunicipalityID("32001"), zac[0].ID)

	matches := decode[[]map[string]any](t, get(t, srv, "/api/municipios/buscar?q=asient"))
	require.NotEmpty(t, matches)
	assert.Equal(t, "01002", matches[0]["cvegeo"])
}

func TestCropRoutes(t *testing.T) {
	srv := newTestServer(t, api.Options{})

	grown := decode[[]model.Crop](t, get(t, srv, "/api/municipio/01002/cultivos"))
	assert.Equal(t, []model.Crop{{ID: "1", Name: "Maíz"}, {ID: "2", Name: "Frijol"}}, grown)

	recs := decode[[]map[string]any](t, get(t, srv, "/api/municipio/01001/recomendaciones?top=2"))
	require.Len(t, recs, 2)
	assert.Equal(t, "2", recs[0]["crop"])
	assert.Equal(t, "3", recs[1]["crop"])

	best := decode[[]map[string]any](t, get(t, srv, "/api/cultivos/maiz/municipios"))
	require.Len(t, best, 2)
	assert.Equal(t, "01002", best[0]["cvegeo"])

	producers := decode[[]map[string]any](t, get(t, srv, "/api/cultivos/1/productores"))
	require.Len(t, producers, 2)
	assert.Equal(t, "01001", producers[0]["cvegeo"])
	assert.Equal(t, 220.0, producers[0]["production"])

	catalog := decode[[]model.Crop](t, get(t, srv, "/api/cultivos"))
	assert.Len(t, catalog, 3)

	profile := decode[map[string]any](t, get(t, srv, "/api/municipio/01001/cultivos/01002"))
	assert.Contains(t, profile, "shared")
	assert.Contains(t, profile, "recommendations")
}

func TestProductionAndDrought(t *testing.T) {
	srv := newTestServer(t, api.Options{})

	years := decode[[]map[string]float64](t, get(t, srv, "/api/municipio/01001/produccion_anual"))
	assert.Equal(t, []map[string]float64{
		{"year": 2020, "production": 100},
		{"year": 2021, "production": 120},
	}, years)

	drought := decode[refdata.DroughtSeries](t, get(t, srv, "/api/municipio/01001/sequia"))
	assert.Equal(t, []refdata.YearLevel{{Year: 2020, Level: 2}, {Year: 2021, Level: 2}}, drought.Years)

	empty := decode[refdata.DroughtSeries](t, get(t, srv, "/api/municipio/01003/sequia"))
	assert.Empty(t, empty.Years)
	assert.Equal(t, model.MunicipalityID("01003"), empty.ID)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, api.Options{RateLimitRPS: 0.001, RateLimitBurst: 1})

	assert.Equal(t, http.StatusOK, get(t, srv, "/api/cultivos").Code)
	rec := get(t, srv, "/api/cultivos")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Probes are not limited.
	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, api.Options{CORSOrigins: []string{"*"}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cultivos", nil)
	req.Header.Set("Origin", "http://dashboard.example")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
