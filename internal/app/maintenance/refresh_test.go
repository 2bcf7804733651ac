package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	testutil "github.com/charlesng35/chatgate/internal/database/testutil"
	"github.com/charlesng35/chatgate/internal/settings"
)

type recordingRefresher struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (r *recordingRefresher) Refresh(_ context.Context, serverURL string) (settings.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, serverURL)
	if err := r.fail[serverURL]; err != nil {
		return settings.Snapshot{}, err
	}
	return settings.NewSnapshot(map[string]any{settings.LoginFormEnabled: true}), nil
}

func TestSchedulerRunOnceRefreshesKnownAndSeededServers(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := settings.NewDBStore(db)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "https://b.example", settings.NewSnapshot(nil)))
	require.NoError(t, store.Save(ctx, "https://a.example", settings.NewSnapshot(nil)))

	refresher := &recordingRefresher{}
	s := NewScheduler(store, refresher,
		WithServers("https://c.example", "https://a.example", ""),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)

	require.NoError(t, s.RunOnce(ctx))
	require.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example"}, refresher.calls)
}

func TestSchedulerRunOnceCombinesFailures(t *testing.T) {
	store := settings.NewMemoryStore()
	errA := errors.New("a down")
	errB := errors.New("b down")
	refresher := &recordingRefresher{fail: map[string]error{
		"https://a.example": errA,
		"https://b.example": errB,
	}}

	s := NewScheduler(store, refresher, WithServers("https://a.example", "https://b.example", "https://c.example"))

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
	require.Len(t, multierr.Errors(err), 2)
	require.Len(t, refresher.calls, 3)
}

func TestSchedulerRunOnceStopsOnCancelledContext(t *testing.T) {
	refresher := &recordingRefresher{}
	s := NewScheduler(settings.NewMemoryStore(), refresher, WithServers("https://a.example"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.RunOnce(ctx), context.Canceled)
	require.Empty(t, refresher.calls)
}

func TestSchedulerDisabledWithoutDependencies(t *testing.T) {
	s := NewScheduler(nil, nil)
	require.NoError(t, s.Start())
	require.NoError(t, s.RunOnce(context.Background()))
	<-s.Stop().Done()
}

func TestSchedulerStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(settings.NewMemoryStore(), &recordingRefresher{}, WithSchedule("not a schedule"))
	require.Error(t, s.Start())
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(settings.NewMemoryStore(), &recordingRefresher{}, WithSchedule("@hourly"))
	require.NoError(t, s.Start())
	<-s.Stop().Done()
}

func TestSchedulerStatusTracksConsecutiveFailures(t *testing.T) {
	clock := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	refresher := &recordingRefresher{fail: map[string]error{"https://a.example": errors.New("down")}}
	s := NewScheduler(settings.NewMemoryStore(), refresher,
		WithServers("https://a.example"),
		WithNow(func() time.Time { return clock }),
	)

	require.Zero(t, s.Status().Runs)

	require.Error(t, s.RunOnce(context.Background()))
	require.Error(t, s.RunOnce(context.Background()))
	status := s.Status()
	require.Equal(t, 2, status.Runs)
	require.Equal(t, 2, status.ConsecutiveFailures)
	require.Equal(t, clock, status.LastRunAt)
	require.Contains(t, status.LastError, "down")

	refresher.fail = nil
	require.NoError(t, s.RunOnce(context.Background()))
	status = s.Status()
	require.Equal(t, 3, status.Runs)
	require.Zero(t, status.ConsecutiveFailures)
	require.Empty(t, status.LastError)
}

func TestSchedulerInterval(t *testing.T) {
	require.Equal(t, 15*time.Minute, NewScheduler(nil, nil).Interval())
	require.Equal(t, time.Hour, NewScheduler(nil, nil, WithSchedule("@hourly")).Interval())
	require.Zero(t, NewScheduler(nil, nil, WithSchedule("bogus")).Interval())
}
