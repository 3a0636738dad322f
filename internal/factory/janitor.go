package factory

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/gameroom/internal/dependencies/clock"
)

// DefaultJanitorInterval is how often idle hubs and stale revocations are swept
const DefaultJanitorInterval = time.Minute

// janitor runs sweeps on every tick of a clock ticker until stopped
type janitor struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func startJanitor(clk clock.Clock, interval time.Duration, logger *slog.Logger, sweeps ...func()) *janitor {
	j := &janitor{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	ticker := clk.NewTicker(interval)
	go func() {
		defer close(j.done)
		defer ticker.Stop()
		logger.Debug("janitor started", slog.Duration("interval", interval))
		for {
			select {
			case <-ticker.C():
				for _, sweep := range sweeps {
					sweep()
				}
			case <-j.stop:
				logger.Debug("janitor stopped")
				return
			}
		}
	}()
	return j
}

// Stop halts the janitor and waits for an in-flight sweep to finish
func (j *janitor) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
	<-j.done
}
