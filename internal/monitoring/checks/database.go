// Package checks provides the readiness probes of the probe service.
package checks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/chatgate/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database pings the settings cache database.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	if timeout <= 0 {
		timeout = defaultDatabaseTimeout
	}

	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError(err, time.Since(start))
		}

		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return monitoring.ResultFromError(sqlDB.PingContext(probeCtx), time.Since(start))
	})
}
