package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/zenjispace/zenjid/internal/auth"
)

// Pusher is the slice of the engine the auto-sync worker drives.
type Pusher interface {
	SyncOut(ctx context.Context) error
}

// SessionProbe answers "is anyone signed in" without blocking or network I/O.
type SessionProbe interface {
	GetSession() *auth.Session
}

// AutoSync pushes local state after mutations, debounced and coalesced.
//
// Every mutating operation calls Notify. The worker waits out a debounce
// window after the first notification so a burst of edits becomes one push,
// and notifications that arrive while a push is in flight collapse into a
// single trailing push. Failures are logged, never surfaced to the mutation
// that triggered them.
type AutoSync struct {
	pusher   Pusher
	ids      SessionProbe
	debounce time.Duration
	logger   *slog.Logger

	trigger chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewAutoSync creates the worker. Call Start to run it.
func NewAutoSync(pusher Pusher, ids SessionProbe, debounce time.Duration, logger *slog.Logger) *AutoSync {
	return &AutoSync{
		pusher:   pusher,
		ids:      ids,
		debounce: debounce,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Start launches the worker goroutine. It runs until ctx is cancelled or Stop
// is called.
func (a *AutoSync) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})
	go a.run(ctx)
}

// Stop cancels the worker and waits for it to exit. Safe to call when Start
// was never called.
func (a *AutoSync) Stop() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
}

// Notify marks local state dirty. Non-blocking: when a trigger is already
// pending the call is a no-op, which is exactly the coalescing we want.
func (a *AutoSync) Notify() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

func (a *AutoSync) run(ctx context.Context) {
	defer close(a.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.trigger:
		}

		// Debounce window: edits arriving now fold into the push below.
		timer := time.NewTimer(a.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// Drain the trigger raised during the window; the push we are about
		// to do covers it.
		select {
		case <-a.trigger:
		default:
		}

		if a.ids.GetSession() == nil {
			a.logger.Debug("auto-sync skipped: not signed in")
			continue
		}

		if err := a.pusher.SyncOut(ctx); err != nil {
			a.logger.Warn("auto-sync push failed", slog.String("error", err.Error()))
		}
	}
}
