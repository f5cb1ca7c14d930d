// Package metrics exposes prometheus counters for the token lifecycle.
package metrics

import (
	"context"

	"github.com/jrsteele09/go-token-service/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LifecycleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenservice_lifecycle_requests_total",
		Help: "Total number of token lifecycle requests",
	}, []string{"operation", "status"})

	TokensGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tokenservice_tokens_granted_total",
		Help: "Total number of tokens granted",
	})

	TokensRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tokenservice_tokens_revoked_total",
		Help: "Total number of tokens revoked",
	})
)

// ObserveGrantEvents consumes lifecycle events until the channel closes or
// the context is cancelled. Run it in its own goroutine.
func ObserveGrantEvents(ctx context.Context, grants <-chan events.GrantEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-grants:
			if !ok {
				return
			}
			switch event.Kind {
			case events.TokenGranted:
				TokensGranted.Inc()
			case events.TokenRevoked:
				TokensRevoked.Inc()
			}
		}
	}
}
