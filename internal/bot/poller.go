package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/tipbot/internal/telegram"
)

// Updater is the long-poll side of the Telegram client.
type Updater interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Poller pulls updates with getUpdates and hands them to the Dispatcher one
// at a time.
type Poller struct {
	updater     Updater
	dispatcher  *Dispatcher
	pollTimeout time.Duration
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) bool
}

// NewPoller creates a Poller. pollTimeout is the long-poll wait passed to
// Telegram.
func NewPoller(updater Updater, dispatcher *Dispatcher, pollTimeout time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		updater:     updater,
		dispatcher:  dispatcher,
		pollTimeout: pollTimeout,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Run polls until ctx is canceled. Errors from Telegram are logged and
// retried with exponential backoff.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("Polling for updates", "timeout", p.pollTimeout)

	var offset int64
	backoff := minBackoff

	for {
		if ctx.Err() != nil {
			p.logger.Info("Poller stopped")
			return
		}

		updates, err := p.updater.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}

			wait := backoff
			if retryAfter, ok := telegram.RetryAfter(err); ok {
				wait = retryAfter
			}
			p.logger.Warn("getUpdates failed", "error", err, "retry_in", wait)
			if !p.sleep(ctx, wait) {
				continue
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			p.dispatcher.Deliver(ctx, u)
		}
	}
}

// sleepCtx waits for d and reports false if ctx was canceled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
