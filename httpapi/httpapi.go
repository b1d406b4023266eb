// Package httpapi is the read-only HTTP surface over a running
// Simulation: point-in-time snapshots and rolling analytics summaries,
// never a control plane (spec.md §6: "the core exposes state for
// inspection; it does not expose a command API over HTTP"). Grounded
// on KhalidEchchahid-transit-app/backend's main.go router assembly
// (chi.NewRouter, middleware.Logger/Recoverer/Timeout, rs/cors,
// r.Route("/api/v1", ...)) and its handler package's
// repo-wrapped-in-a-struct, one-method-per-route layering.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/cors"

	"github.com/opencity-sim/simcore/analytics"
	"github.com/opencity-sim/simcore/sim"
)

// Server exposes a *sim.Simulation read-only over HTTP. The simulation
// itself is not goroutine-safe (spec.md §5), so every handler borrows
// it only long enough to take a Snapshot or read the collector.
type Server struct {
	Sim       *sim.Simulation
	Collector *analytics.Collector
}

// NewRouter assembles the chi router: logging/recovery/timeout
// middleware, permissive CORS (the core has no notion of
// authentication, spec.md §1 Non-goals), and the /api/v1 route group.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/vehicles", s.handleVehicles)
		r.Get("/vehicles/{id}/path", s.handleVehiclePath)
		r.Get("/pedestrians", s.handlePedestrians)
		r.Get("/analytics/summary", s.handleAnalyticsSummary)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSnapshot returns the full savegame-shaped state (spec.md §6),
// the same value persistence.SaveSnapshot would durably store.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sim.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleVehicles returns a flat list of every live vehicle's current
// state, cheaper to poll than the full snapshot for a live map view.
func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sim.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]vehicleView, 0, len(snap.Vehicles))
	for id, v := range snap.Vehicles {
		out = append(out, vehicleView{ID: id, Vehicle: v})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleVehiclePath returns one vehicle's current step plus its
// remaining route, the per-vehicle drill-down the flat /vehicles list
// omits.
func (s *Server) handleVehiclePath(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid vehicle id", http.StatusBadRequest)
		return
	}
	snap, err := s.Sim.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	v, ok := snap.Vehicles[id]
	if !ok {
		http.Error(w, "vehicle not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, vehiclePathView{
		Current: v.Current,
		Path:    v.Path,
	})
}

func (s *Server) handlePedestrians(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sim.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]pedView, 0, len(snap.Pedestrians))
	for id, p := range snap.Pedestrians {
		out = append(out, pedView{ID: id, Pedestrian: p})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if s.Collector == nil {
		writeJSON(w, http.StatusOK, analytics.Summary{})
		return
	}
	writeJSON(w, http.StatusOK, s.Collector.Summarize())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
