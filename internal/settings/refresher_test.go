package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/chatgate/internal/retry"
	apperrors "github.com/charlesng35/chatgate/pkg/errors"
)

type fetcherFunc func(ctx context.Context, keys []string) (Snapshot, error)

func (f fetcherFunc) PublicSettings(ctx context.Context, keys []string) (Snapshot, error) {
	return f(ctx, keys)
}

func fastPolicy() retry.Policy {
	return retry.Policy{Attempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func TestRefresherSavesSnapshot(t *testing.T) {
	store := NewMemoryStore()
	calls := 0
	factory := func(string) (Fetcher, error) {
		return fetcherFunc(func(_ context.Context, keys []string) (Snapshot, error) {
			calls++
			require.Equal(t, Keys, keys)
			if calls == 1 {
				return Snapshot{}, apperrors.ErrTransientNetwork
			}
			return NewSnapshot(map[string]any{LoginFormEnabled: true}), nil
		}), nil
	}

	snap, err := NewRefresher(store, factory, fastPolicy(), nil).Refresh(context.Background(), "https://chat.example")
	require.NoError(t, err)
	require.True(t, snap.IsLoginFormEnabled())
	require.Equal(t, 2, calls)

	cached, ok, err := store.Get(context.Background(), "https://chat.example")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, cached.IsLoginFormEnabled())
}

func TestRefresherKeepsCacheOnFailure(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), "https://chat.example", NewSnapshot(map[string]any{CasEnabled: true})))

	factory := func(string) (Fetcher, error) {
		return fetcherFunc(func(context.Context, []string) (Snapshot, error) {
			return Snapshot{}, apperrors.ErrServerRejected
		}), nil
	}

	_, err := NewRefresher(store, factory, fastPolicy(), nil).Refresh(context.Background(), "https://chat.example")
	require.ErrorIs(t, err, apperrors.ErrServerRejected)

	cached, _, err := store.Get(context.Background(), "https://chat.example")
	require.NoError(t, err)
	require.True(t, cached.IsCasAuthenticationEnabled())
}

func TestRefresherFactoryError(t *testing.T) {
	factory := func(string) (Fetcher, error) { return nil, errors.New("bad url") }

	_, err := NewRefresher(NewMemoryStore(), factory, fastPolicy(), nil).Refresh(context.Background(), "nope")
	require.ErrorContains(t, err, "bad url")
}
