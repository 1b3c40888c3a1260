package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const defaultInterval = 10 * time.Minute

// Overviewer runs one overview batch.
type Overviewer interface {
	Overview(ctx context.Context, cities []string, units weather.Units) weather.BatchResult
}

// Scheduler periodically refreshes the world overview for every unit system.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Overviewer
	board     *store.OverviewBoard
	cities    []string
	units     []weather.Units
	interval  time.Duration
	log       logrus.FieldLogger

	// cancelled by Stop; each fetch is otherwise bounded by the HTTP client timeout
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, service Overviewer, board *store.OverviewBoard, log logrus.FieldLogger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		ctx:       ctx,
		cancel:    cancel,
		scheduler: s,
		service:   service,
		board:     board,
		cities:    cities,
		units:     []weather.Units{weather.UnitsMetric, weather.UnitsImperial},
		interval:  interval,
		log:       log.WithField("component", "overview_scheduler"),
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
// The first refresh runs immediately.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.log.Warn("no overview cities configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.RefreshOnce(s.ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RefreshOnce runs one overview batch per unit system and publishes the results.
// The batches share ctx but no run-wide deadline, so a slow metric batch never
// eats into the imperial one.
func (s *Scheduler) RefreshOnce(ctx context.Context) {
	log := s.log.WithField("run_id", uuid.NewString())
	log.Info("refreshing world overview")

	for _, units := range s.units {
		if ctx.Err() != nil {
			log.Warnf("overview refresh stopped: %v", ctx.Err())
			return
		}

		started := time.Now()
		result := s.service.Overview(ctx, s.cities, units)
		if ctx.Err() != nil {
			log.Warnf("overview refresh stopped: %v", ctx.Err())
			return
		}

		s.board.Save(store.Overview{Units: units, Result: result})

		entry := log.WithFields(logrus.Fields{
			"units":    units,
			"ok":       len(result.Records),
			"failed":   len(result.Failed),
			"duration": time.Since(started).String(),
		})
		if result.AllFailed() {
			entry.Error("overview refresh returned no cities")
			continue
		}
		entry.Info("overview refreshed")
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
