// Command simcore is the example binary wiring config, the simulation
// core, and the optional persistence/HTTP surfaces together (spec.md
// §6: "the core ships no CLI of its own; a host process wires it to
// whatever storage and transport a deployment needs"). Grounded on the
// teacher's task/simulet.go-style single main wiring every manager
// together, and on KhalidEchchahid-transit-app/backend's main.go for
// the pgxpool-and-chi-router assembly this binary's persistence/HTTP
// branches follow.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/opencity-sim/simcore/analytics"
	"github.com/opencity-sim/simcore/config"
	"github.com/opencity-sim/simcore/httpapi"
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/persistence"
	"github.com/opencity-sim/simcore/sim"
	"github.com/opencity-sim/simcore/trip"
	"github.com/opencity-sim/simcore/units"
)

var log = logrus.WithField("module", "cmd/simcore")

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults built in if omitted)")
	horizon := flag.Float64("horizon", 600, "seconds of simulated time to run before exiting")
	flag.Parse()

	cfg := config.Config{Control: config.DefaultControl(), Routing: config.DefaultRoutingParams()}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.WithError(err).Fatal("load config")
		}
		cfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := analytics.NewCollector()
	sink := analytics.Sink(analytics.MultiSink{analytics.LogSink{}, collector})

	var store *persistence.Store
	if cfg.Persistence.Enabled {
		s, err := persistence.Open(ctx, cfg.Persistence.DSN)
		if err != nil {
			log.WithError(err).Fatal("open persistence store")
		}
		if err := s.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("migrate persistence store")
		}
		store = s
		defer store.Close()
		sink = analytics.MultiSink{analytics.LogSink{}, collector, store.EventSink(ctx, "demo")}
	}

	m := buildDemoMap()
	s := sim.New(m, cfg.Control, cfg.Routing, sink)
	if err := s.RegisterAllIntersections(); err != nil {
		log.WithError(err).Fatal("register intersections")
	}

	seedDemoTrips(s)

	var httpServer *http.Server
	if cfg.HTTP.Enabled {
		router := httpapi.NewRouter(&httpapi.Server{Sim: s, Collector: collector})
		httpServer = &http.Server{Addr: cfg.HTTP.Listen, Handler: router}
		go func() {
			log.WithField("addr", cfg.HTTP.Listen).Info("httpapi listening")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("httpapi server stopped")
			}
		}()
	}

	s.StepUntil(units.Seconds(*horizon))

	summary := collector.Summarize()
	fmt.Printf("ran to t=%.1f: %d trips finished (mean %.1fs, p95 %.1fs), %d cancelled\n",
		float64(s.Now), summary.Count, float64(summary.MeanDuration), float64(summary.P95Duration), collector.Cancelled())

	if store != nil {
		snap, err := s.Snapshot()
		if err != nil {
			log.WithError(err).Error("snapshot at exit")
		} else if err := store.SaveSnapshot(ctx, "demo", snap); err != nil {
			log.WithError(err).Error("save snapshot at exit")
		}
	}

	if httpServer != nil {
		_ = httpServer.Shutdown(ctx)
	}
}

// seedDemoTrips schedules a handful of sudden-appear drive legs on the
// demo map's lanes, enough to exercise spawn and same-lane queueing.
// Each leg starts and ends on one lane, so no trip crosses an
// intersection or reaches the stop-sign controller.
func seedDemoTrips(s *sim.Simulation) {
	for i, lane := range []struct {
		ID       int64
		Start    float64
		End      float64
		LaneID   int64
	}{
		{1, 5, 140, 1},
		{2, 5, 140, 3},
		{3, 20, 140, 1},
	} {
		leg := trip.Leg{
			Mode:         trip.ModeDrive,
			Start:        trip.Endpoint{Kind: trip.EndpointLane, Pos: mapiface.Position{Lane: mapiface.LaneID(lane.LaneID), Distance: units.Meters(lane.Start)}},
			End:          trip.Endpoint{Kind: trip.EndpointLane, Pos: mapiface.Position{Lane: mapiface.LaneID(lane.LaneID), Distance: units.Meters(lane.End)}},
			SuddenAppear: true,
		}
		personID := int64(100 + i)
		s.ScheduleForPerson(personID, trip.NewSchedule([]trip.Trip{{ID: lane.ID, Legs: []trip.Leg{leg}}}))
	}
}
