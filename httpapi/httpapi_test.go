package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencity-sim/simcore/analytics"
	"github.com/opencity-sim/simcore/config"
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/sim"
	"github.com/opencity-sim/simcore/trip"
	"github.com/opencity-sim/simcore/units"
)

func buildTestMap(t *testing.T) mapiface.Map {
	t.Helper()
	b := mapiface.NewBuilder()
	b.AddLane(mapiface.Lane{ID: 1, Length: 200, Class: mapiface.LaneDriving, RoadID: 1, SrcIntersection: 1, DstIntersection: 2, SpeedLimit: 20, InclineFactor: 1})
	return b.Build()
}

func TestHandleHealth(t *testing.T) {
	m := buildTestMap(t)
	s := sim.New(m, config.DefaultControl(), config.DefaultRoutingParams(), nil)
	srv := &Server{Sim: s}
	router := NewRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleVehiclesReflectsSpawnedVehicle(t *testing.T) {
	m := buildTestMap(t)
	s := sim.New(m, config.DefaultControl(), config.DefaultRoutingParams(), nil)

	leg := trip.Leg{
		Mode:         trip.ModeDrive,
		Start:        trip.Endpoint{Kind: trip.EndpointLane, Pos: mapiface.Position{Lane: 1, Distance: 5}},
		End:          trip.Endpoint{Kind: trip.EndpointLane, Pos: mapiface.Position{Lane: 1, Distance: 190}},
		SuddenAppear: true,
	}
	s.ScheduleForPerson(1, trip.NewSchedule([]trip.Trip{{ID: 1, Legs: []trip.Leg{leg}}}))
	s.StepUntil(units.Seconds(1))

	srv := &Server{Sim: s}
	router := NewRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":1`)

	pathReq := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/1/path", nil)
	pathRec := httptest.NewRecorder()
	router.ServeHTTP(pathRec, pathReq)
	assert.Equal(t, http.StatusOK, pathRec.Code)

	missingReq := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/999/path", nil)
	missingRec := httptest.NewRecorder()
	router.ServeHTTP(missingRec, missingReq)
	assert.Equal(t, http.StatusNotFound, missingRec.Code)
}

func TestHandleAnalyticsSummaryWithoutCollector(t *testing.T) {
	m := buildTestMap(t)
	s := sim.New(m, config.DefaultControl(), config.DefaultRoutingParams(), nil)
	srv := &Server{Sim: s}
	router := NewRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/summary", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Count":0,"MeanDuration":0,"MedianDuration":0,"P95Duration":0}`, rec.Body.String())
}

func TestHandleAnalyticsSummaryWithCollector(t *testing.T) {
	m := buildTestMap(t)
	s := sim.New(m, config.DefaultControl(), config.DefaultRoutingParams(), nil)
	collector := analytics.NewCollector()
	collector.Emit(analytics.Event{Kind: analytics.KindTripFinished, Duration: 42})

	srv := &Server{Sim: s, Collector: collector}
	router := NewRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/summary", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Count":1`)
}
