package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enersys/microplan/core/model"
	"github.com/enersys/microplan/core/plan"
	"github.com/enersys/microplan/infra/solver/simplex"
)

// oneBusSystem has a single existing generator serving a flat demand, so
// any backend finds the trivial optimum.
func oneBusSystem() *model.System {
	return &model.System{
		ExistConv:  []model.Unit{{Bus: 0, PMax: 10, QMax: 10, OperCost: 5}},
		DemandP:    [][]float64{{6}},
		DemandQ:    [][]float64{{0}},
		MultP:      [][]float64{{1}},
		MultQ:      [][]float64{{1}},
		SolarAvail: [][]float64{{0}},
		WindAvail:  [][]float64{{0}},
		Durations:  []float64{1},
		BasePower:  1,
	}
}

func oneBusOptions() plan.Options {
	opts := plan.DefaultOptions()
	opts.PhaseCount = 1
	return opts
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	study, err := plan.NewStudy(oneBusSystem(), oneBusOptions(), nil)
	require.NoError(t, err)
	return NewServer(study, simplex.New(nil), nil)
}

func doJSON(t *testing.T, router http.Handler, method, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func TestSolveAndCost(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	var got CostResponse
	w := doJSON(t, router, http.MethodPost, "/api/v1/solve", &got)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "optimal", got.Status)
	assert.InDelta(t, 30.0, got.Total, 1e-6)
	assert.InDelta(t, 0.0, got.Investment, 1e-9)

	var again CostResponse
	w = doJSON(t, router, http.MethodGet, "/api/v1/results/cost", &again)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, got.RunID, again.RunID)
}

func TestCostBeforeSolveConflicts(t *testing.T) {
	srv := newTestServer(t)
	w := doJSON(t, srv.Router(), http.MethodGet, "/api/v1/results/cost", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCapacityUnknownTech(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()
	w := doJSON(t, router, http.MethodPost, "/api/v1/solve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/results/capacity/nuclear", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCapacitySolar(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()
	w := doJSON(t, router, http.MethodPost, "/api/v1/solve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got CapacityResponse
	w = doJSON(t, router, http.MethodGet, "/api/v1/results/capacity/solar", &got)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "solar", got.Tech)
	assert.Empty(t, got.Units)
}

func TestSolveInfeasibleMapsTo422(t *testing.T) {
	sys := oneBusSystem()
	sys.ExistConv[0].PMax = 1 // cannot cover demand
	opts := oneBusOptions()
	opts.Shedding = plan.ShedDisabled
	study, err := plan.NewStudy(sys, opts, nil)
	require.NoError(t, err)
	srv := NewServer(study, simplex.New(nil), nil)

	w := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/solve", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INFEASIBLE", resp.Error.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w := doJSON(t, srv.Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
