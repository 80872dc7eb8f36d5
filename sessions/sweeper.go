package sessions

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ryteapp/ryte-gateway/globals"
)

// Sweeper periodically removes expired sessions from the store.
type Sweeper struct {
	store  Store
	runner *cron.Cron
}

// NewSweeper schedules DeleteExpired according to the given cron spec
// (robfig/cron syntax, "@every 10m" style specs included).
func NewSweeper(store Store, spec string) (*Sweeper, error) {
	runner := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := runner.AddFunc(spec, func() {
		n, err := store.DeleteExpired()
		if err != nil {
			globals.AppLogger.Error("could not delete expired sessions", "error", err)
			return
		}
		if n > 0 {
			globals.AppLogger.Info("deleted expired sessions", "count", n)
		}
	})
	if err != nil {
		return nil, err
	}
	return &Sweeper{store: store, runner: runner}, nil
}

func (s *Sweeper) Start() {
	s.runner.Start()
}

func (s *Sweeper) Stop() {
	s.runner.Stop()
}
