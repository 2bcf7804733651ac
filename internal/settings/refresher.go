package settings

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/charlesng35/chatgate/internal/retry"
	"github.com/charlesng35/chatgate/pkg/metrics"
)

// Fetcher reads public settings from a server.
type Fetcher interface {
	PublicSettings(ctx context.Context, keys []string) (Snapshot, error)
}

// FetcherFactory returns a Fetcher bound to serverURL.
type FetcherFactory func(serverURL string) (Fetcher, error)

// Refresher re-fetches public settings into a Store.
type Refresher struct {
	store   Store
	fetcher FetcherFactory
	policy  retry.Policy
	log     *zap.Logger
}

// NewRefresher wires a Refresher. A nil logger discards output.
func NewRefresher(store Store, fetcher FetcherFactory, policy retry.Policy, log *zap.Logger) *Refresher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Refresher{store: store, fetcher: fetcher, policy: policy, log: log}
}

// Refresh fetches serverURL's settings and replaces the cached snapshot.
func (r *Refresher) Refresh(ctx context.Context, serverURL string) (Snapshot, error) {
	snap, err := r.fetch(ctx, serverURL)
	if err != nil {
		metrics.SettingsRefreshes.WithLabelValues("failure").Inc()
		return Snapshot{}, err
	}
	if err := r.store.Save(ctx, serverURL, snap); err != nil {
		metrics.SettingsRefreshes.WithLabelValues("failure").Inc()
		return Snapshot{}, fmt.Errorf("settings: save %s: %w", serverURL, err)
	}

	metrics.SettingsRefreshes.WithLabelValues("success").Inc()
	r.log.Debug("settings refreshed", zap.String("server", serverURL), zap.Int("keys", len(snap.values)))
	return snap, nil
}

func (r *Refresher) fetch(ctx context.Context, serverURL string) (Snapshot, error) {
	fetcher, err := r.fetcher(serverURL)
	if err != nil {
		return Snapshot{}, fmt.Errorf("settings: client for %s: %w", serverURL, err)
	}
	return retry.Do(ctx, r.policy, r.log, "settingsPublic", func(ctx context.Context) (Snapshot, error) {
		return fetcher.PublicSettings(ctx, Keys)
	})
}
