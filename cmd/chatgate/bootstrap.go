package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/chatgate/internal/api"
	"github.com/charlesng35/chatgate/internal/app"
	"github.com/charlesng35/chatgate/internal/app/maintenance"
	"github.com/charlesng35/chatgate/internal/database"
	"github.com/charlesng35/chatgate/internal/handlers"
	"github.com/charlesng35/chatgate/internal/monitoring"
	"github.com/charlesng35/chatgate/internal/monitoring/checks"
	"github.com/charlesng35/chatgate/internal/presenter"
	"github.com/charlesng35/chatgate/internal/settings"
	"github.com/charlesng35/chatgate/pkg/logger"
)

// refreshFailureLimit is the number of consecutive failed refresh passes after
// which the service reports not ready.
const refreshFailureLimit = 3

// runtimeStack bundles long-lived services shared by the commands.
type runtimeStack struct {
	cfg       *app.Config
	DB        *gorm.DB
	Store     settings.Store
	Refresher *settings.Refresher
	Scheduler *maintenance.Scheduler
}

type bootstrapOptions struct {
	// memory skips the database and caches settings in process.
	memory bool
}

// bootstrapRuntime opens the settings cache and wires the refresher.
func bootstrapRuntime(cfg *app.Config, opts bootstrapOptions) (*runtimeStack, error) {
	stack := &runtimeStack{cfg: cfg}

	if opts.memory {
		stack.Store = settings.NewMemoryStore()
	} else {
		db, err := initialiseDatabase(cfg)
		if err != nil {
			return nil, err
		}
		stack.DB = db
		stack.Store = settings.NewDBStore(db)
	}

	stack.Refresher = settings.NewRefresher(stack.Store, cfg.FetcherFactory(), cfg.Retry, logger.WithModule("settings"))
	stack.Scheduler = maintenance.NewScheduler(stack.Store, stack.Refresher,
		maintenance.WithSchedule(cfg.Settings.RefreshSchedule),
		maintenance.WithServers(cfg.Settings.Servers...),
		maintenance.WithTimeout(cfg.ClientTimeout()*2),
	)
	return stack, nil
}

// NewPresenter returns a presenter for one login attempt that reports to view.
func (s *runtimeStack) NewPresenter(view presenter.View) *presenter.Presenter {
	return presenter.New(s.cfg.PresenterConfig(), view, s.cfg.ClientFactory(), s.Store,
		presenter.WithRefresher(s.Refresher),
		presenter.WithLogger(logger.WithModule("presenter")),
	)
}

// Router builds the HTTP probe service.
func (s *runtimeStack) Router() (*gin.Engine, error) {
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	servers := handlers.NewServerHandler(s.NewPresenter, s.Store)

	router, err := api.NewRouter(s.cfg, servers, s.Health())
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}
	return router, nil
}

// Health builds the readiness probes: the database when one is open and the
// settings refresh job.
func (s *runtimeStack) Health() *monitoring.Health {
	health := monitoring.NewHealth()
	if s.DB != nil {
		health.Ready(checks.Database(s.DB, 0))
	}
	if s.Scheduler != nil {
		health.Ready(checks.SettingsRefresh(s.Scheduler, 3*s.Scheduler.Interval(), refreshFailureLimit))
	}
	return health
}

// Shutdown stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Scheduler != nil {
		<-s.Scheduler.Stop().Done()
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.OpenAndMigrate(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	logger.WithModule("database").Info("database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))
	return db, nil
}

// refreshAll warms the settings cache for every known and seeded server.
func (s *runtimeStack) refreshAll(ctx context.Context, log *zap.Logger) {
	if err := s.Scheduler.RunOnce(ctx); err != nil {
		log.Warn("settings refresh failed", zap.Error(err))
	}
}
