package library

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Autosaver periodically flushes the catalogue to the snapshot store so a
// crash loses at most one interval of changes.
type Autosaver struct {
	cron    *cron.Cron
	manager *Manager
	logger  zerolog.Logger
}

// NewAutosaver schedules a save every interval. Start must be called to
// begin the schedule.
func NewAutosaver(manager *Manager, interval time.Duration, logger zerolog.Logger) (*Autosaver, error) {
	a := &Autosaver{
		cron:    cron.New(),
		manager: manager,
		logger:  logger.With().Str("component", "autosave").Logger(),
	}

	spec := fmt.Sprintf("@every %s", interval)
	if _, err := a.cron.AddFunc(spec, a.run); err != nil {
		return nil, fmt.Errorf("scheduling autosave: %w", err)
	}
	return a, nil
}

func (a *Autosaver) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.manager.SaveDatabase(ctx); err != nil {
		a.logger.Error().Err(err).Msg("autosave failed")
		return
	}
	a.logger.Debug().Msg("autosave completed")
}

// Start begins the autosave schedule.
func (a *Autosaver) Start() {
	a.cron.Start()
	a.logger.Info().Msg("autosave scheduler started")
}

// Stop halts the schedule and waits for a running save to finish.
func (a *Autosaver) Stop() {
	<-a.cron.Stop().Done()
	a.logger.Info().Msg("autosave scheduler stopped")
}
