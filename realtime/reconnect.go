package realtime

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 30 * time.Second
)

// DialFunc opens a fresh channel handle. Reconnector calls it for the initial
// connection and after every disconnect.
type DialFunc func(ctx context.Context) (*Channel, error)

// Reconnector keeps a realtime channel alive by redialing with exponential
// backoff. It lives outside the channel handle so the handle's own contract
// stays single-connection and reconnection remains opt-in.
type Reconnector struct {
	dial           DialFunc
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

type ReconnectorOption func(*Reconnector)

func WithBackoff(initial, max time.Duration) ReconnectorOption {
	return func(r *Reconnector) {
		r.initialBackoff = initial
		r.maxBackoff = max
	}
}

func NewReconnector(dial DialFunc, options ...ReconnectorOption) *Reconnector {
	r := &Reconnector{
		dial:           dial,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Run dials and then blocks until ctx is cancelled, redialing whenever the
// current channel dies. A successful open resets the backoff. If the dial
// reports a no-op handle (missing identifiers) there is nothing to maintain
// and Run returns nil.
func (r *Reconnector) Run(ctx context.Context) error {
	backoff := r.initialBackoff

	for {
		ch, err := r.dial(ctx)
		if err != nil {
			log.Warn().Err(err).Dur("backoff", backoff).Msg("realtime dial failed, backing off")
			if err := sleepCtx(ctx, withJitter(backoff)); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, r.maxBackoff)
			continue
		}
		if ch == nil {
			return nil
		}
		backoff = r.initialBackoff

		select {
		case <-ctx.Done():
			ch.Close()
			return ctx.Err()
		case <-ch.Done():
			log.Debug().Msg("realtime channel closed, reconnecting")
		}
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

// withJitter spreads redial attempts by up to 20% so a fleet of clients does
// not stampede the endpoint after an outage.
func withJitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/5+1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
