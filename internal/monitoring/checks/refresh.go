package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/charlesng35/chatgate/internal/app/maintenance"
	"github.com/charlesng35/chatgate/internal/monitoring"
)

// RefreshStatus reports the state of the settings refresh job.
type RefreshStatus interface {
	Status() maintenance.RunStatus
}

// SettingsRefresh degrades when the refresh job has not completed within maxAge and
// fails after repeated consecutive failures.
func SettingsRefresh(job RefreshStatus, maxAge time.Duration, maxFailures int) monitoring.Check {
	return monitoring.NewCheck("settings_refresh", func(context.Context) monitoring.ProbeResult {
		if job == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "refresh disabled"}
		}

		status := job.Status()
		switch {
		case status.Runs == 0:
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "pending first run"}
		case maxFailures > 0 && status.ConsecutiveFailures >= maxFailures:
			return monitoring.ProbeResult{
				Status:  monitoring.StatusDown,
				Details: fmt.Sprintf("%d consecutive failures: %s", status.ConsecutiveFailures, status.LastError),
			}
		case maxAge > 0 && time.Since(status.LastRunAt) > maxAge:
			return monitoring.ProbeResult{
				Status:  monitoring.StatusDegraded,
				Details: "stale run " + status.LastRunAt.UTC().Format(time.RFC3339),
			}
		case status.ConsecutiveFailures > 0:
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: status.LastError}
		default:
			return monitoring.ProbeResult{Status: monitoring.StatusUp}
		}
	})
}
