package content

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Refresher reloads the content store on a cron schedule so edits to
// events.json (or imports from another process) show up without a
// restart.
type Refresher struct {
	c      *cron.Cron
	logger zerolog.Logger
}

// StartRefresher schedules store.Load on the given cron spec (standard
// five-field syntax) and starts the scheduler.
func StartRefresher(spec string, store *Store, logger zerolog.Logger) (*Refresher, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := store.Load(); err != nil {
			logger.Error().Err(err).Msg("content refresh failed")
			return
		}
		logger.Debug().Int("events", store.Len()).Msg("content refreshed")
	})
	if err != nil {
		return nil, fmt.Errorf("content: schedule refresh %q: %w", spec, err)
	}
	c.Start()
	logger.Info().Str("cron", spec).Msg("content refresher started")
	return &Refresher{c: c, logger: logger}, nil
}

// Stop halts the refresh schedule. Running jobs finish.
func (r *Refresher) Stop() {
	ctx := r.c.Stop()
	<-ctx.Done()
}
