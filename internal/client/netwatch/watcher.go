// Package netwatch probes remote reachability on an interval and reports
// transitions to interested parties (primarily the sync engine).
package netwatch

import (
	"context"
	"time"

	"shoplist/internal/logging"
)

// DefaultInterval is how often the watcher probes when not configured.
const DefaultInterval = 10 * time.Second

// probeTimeout bounds a single reachability check.
const probeTimeout = 3 * time.Second

// Pinger is the minimal probe surface, satisfied by remote.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher polls a Pinger and invokes the callback on every connectivity
// transition. It never reports the same state twice in a row.
type Watcher struct {
	pinger   Pinger
	log      logging.Logger
	interval time.Duration
	onChange func(online bool)

	online bool
	primed bool
}

// New builds a Watcher. onChange is called from the watcher goroutine; it
// must not block for long.
func New(pinger Pinger, log logging.Logger, interval time.Duration, onChange func(online bool)) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{pinger: pinger, log: log, interval: interval, onChange: onChange}
}

// Run probes immediately, then on every tick, until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	w.probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.probe(ctx)
		}
	}
}

func (w *Watcher) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	err := w.pinger.Ping(pctx)
	cancel()

	online := err == nil
	if w.primed && online == w.online {
		return
	}
	w.primed = true
	w.online = online

	if online {
		w.log.Info(ctx, "connectivity restored")
	} else {
		w.log.Info(ctx, "connectivity lost", "error", err)
	}
	w.onChange(online)
}
