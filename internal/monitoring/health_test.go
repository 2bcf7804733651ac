package monitoring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/chatgate/internal/monitoring"
)

func staticCheck(name string, status monitoring.ProbeStatus) monitoring.Check {
	return monitoring.NewCheck(name, func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: status}
	})
}

func TestHealthReadinessReportsWorstStatus(t *testing.T) {
	health := monitoring.NewHealth()
	health.Ready(staticCheck("database", monitoring.StatusUp))
	health.Ready(staticCheck("settings_refresh", monitoring.StatusDegraded))

	report := health.Readiness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDegraded, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "settings_refresh", report.Checks[1].Component)

	health.Ready(staticCheck("broken", monitoring.StatusDown))
	require.Equal(t, monitoring.StatusDown, health.Readiness(context.Background()).Status)
}

func TestHealthLivenessEmptyIsUp(t *testing.T) {
	health := monitoring.NewHealth()
	health.Live(monitoring.Check{})

	report := health.Liveness(context.Background())
	require.True(t, report.Success)
	require.Equal(t, monitoring.StatusUp, report.Status)
	require.Empty(t, report.Checks)
}

func TestHealthRecoversPanickingCheck(t *testing.T) {
	health := monitoring.NewHealth()
	health.Ready(monitoring.NewCheck("panics", func(context.Context) monitoring.ProbeResult {
		panic("boom")
	}))
	health.Ready(monitoring.NewCheck("missing", nil))

	report := health.Readiness(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Equal(t, "boom", report.Checks[0].Details)
	require.Equal(t, "panics", report.Checks[0].Component)
	require.Equal(t, "probe not implemented", report.Checks[1].Details)
}

func TestResultFromError(t *testing.T) {
	require.Equal(t, monitoring.StatusUp, monitoring.ResultFromError(nil, 0).Status)
	require.Equal(t, monitoring.StatusDown, monitoring.ResultFromError(errors.New("refused"), 0).Status)
	require.Equal(t, monitoring.StatusDegraded, monitoring.ResultFromError(context.DeadlineExceeded, -1).Status)
}
