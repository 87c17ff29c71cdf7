package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/distancia360/agroanalytics/internal/engine"
	"github.com/distancia360/agroanalytics/internal/model"
	"github.com/distancia360/agroanalytics/internal/refdata"
	"github.com/distancia360/agroanalytics/internal/search"
)

const maxTop = 1000

// topParam reads ?top=, returning 0 (engine default) when absent.
func topParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("top")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxTop {
		return 0, eris.Wrapf(errBadRequest, "top must be an integer between 1 and %d", maxTop)
	}
	return n, nil
}

// municipality resolves a path parameter holding an id or a name.
func (s *Server) municipality(r *http.Request, param string) (model.MunicipalityID, error) {
	raw := chi.URLParam(r, param)
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return s.app.Municipality(raw)
}

func (s *Server) handleMunicipalities(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("estado")
	if state == "" {
		muns := s.app.Ref.Municipalities()
		if muns == nil {
			muns = []model.Municipality{}
		}
		writeJSON(w, http.StatusOK, muns)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Catalog.ByState(state))
}

func (s *Server) handleSearchNames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("q") == "" {
		writeError(w, r, eris.Wrap(errBadRequest, "q is required"))
		return
	}
	limit, err := topParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if limit == 0 {
		limit = search.DefaultTopN
	}
	writeJSON(w, http.StatusOK, s.app.Catalog.Search(q.Get("q"), q.Get("estado"), limit))
}

type profileResponse struct {
	Municipality  model.Municipality `json:"municipality"`
	Label         string             `json:"label"`
	Profile       *model.Profile     `json:"profile"`
	MissingTables []string           `json:"missing_tables"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, err := s.municipality(r, "cvegeo")
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, _ := s.app.Ref.Municipality(id)
	m.ID = id
	p, missing := s.app.Engine.Profile(id)
	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, profileResponse{Municipality: m, Label: s.app.Label(id), Profile: p, MissingTables: missing})
}

type similarResponse struct {
	Base    model.MunicipalityID `json:"cvegeo"`
	Label   string               `json:"label"`
	Results []search.Result      `json:"results"`
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, err := s.municipality(r, "cvegeo")
	if err != nil {
		writeError(w, r, err)
		return
	}
	top, err := topParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	results, err := s.app.Searcher.Top(r.Context(), id, top)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, similarResponse{Base: id, Label: s.app.Label(id), Results: results})
}

type comparisonResponse struct {
	BaseLabel   string         `json:"base_label"`
	OtherLabel  string         `json:"other_label"`
	Detail      *engine.Detail `json:"detail"`
	SharedCrops []model.Crop   `json:"shared_crops"`
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	a, err := s.municipality(r, "cvegeo")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.municipality(r, "otro")
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.app.Engine.CompareDetailed(a, b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comparisonResponse{
		BaseLabel:   s.app.Label(a),
		OtherLabel:  s.app.Label(b),
		Detail:      detail,
		SharedCrops: s.app.Crops.SharedCrops(a, b),
	})
}

func (s *Server) handleCropsGrown(w http.ResponseWriter, r *http.Request) {
	id, err := s.municipality(r, "cvegeo")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Crops.CropsGrown(id))
}

func (s *Server) handleCropProfile(w http.ResponseWriter, r *http.Request) {
	a, err := s.municipality(r, "cvegeo")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.municipality(r, "otro")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Crops.CompareCropProfile(a, b))
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	id, err := s.municipality(r, "cvegeo")
	if err != nil {
		writeError(w, r, err)
		return
	}
	top, err := topParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Crops.RecommendBest(id, top))
}

func (s *Server) handleAnnualProduction(w http.ResponseWriter, r *http.Request) {
	id, err := s.municipality(r, "cvegeo")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Crops.AnnualProduction(id))
}

func (s *Server) handleDrought(w http.ResponseWriter, r *http.Request) {
	id, err := s.municipality(r, "cvegeo")
	if err != nil {
		writeError(w, r, err)
		return
	}
	series := s.app.Ref.DroughtHistory([]model.MunicipalityID{id})
	if len(series) == 0 {
		writeJSON(w, http.StatusOK, refdata.DroughtSeries{ID: id, Label: s.app.Label(id), Years: []refdata.YearLevel{}})
		return
	}
	writeJSON(w, http.StatusOK, series[0])
}

func (s *Server) handleCropCatalog(w http.ResponseWriter, _ *http.Request) {
	crops := s.app.Ref.Crops()
	if crops == nil {
		crops = []model.Crop{}
	}
	writeJSON(w, http.StatusOK, crops)
}

func (s *Server) handleBestMunicipalities(w http.ResponseWriter, r *http.Request) {
	id, err := s.app.Crop(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	top, err := topParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Crops.BestMunicipalitiesFor(id, top))
}

func (s *Server) handleTopProducers(w http.ResponseWriter, r *http.Request) {
	id, err := s.app.Crop(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	top, err := topParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Crops.TopProducers(id, top))
}
