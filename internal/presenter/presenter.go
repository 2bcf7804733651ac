// Package presenter drives the pre-login server check: it gates the client on
// the server version and collects the login options the server offers.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/charlesng35/chatgate/internal/auth"
	"github.com/charlesng35/chatgate/internal/retry"
	"github.com/charlesng35/chatgate/internal/settings"
	"github.com/charlesng35/chatgate/internal/version"
	apperrors "github.com/charlesng35/chatgate/pkg/errors"
	"github.com/charlesng35/chatgate/pkg/metrics"
	"github.com/charlesng35/chatgate/pkg/validator"
)

// ErrNotConnected is returned when a check runs before SetupConnectionInfo.
var ErrNotConnected = errors.New("presenter: connection info not set up")

// SettingsRefresher reloads a server's public settings into the cache.
type SettingsRefresher interface {
	Refresh(ctx context.Context, serverURL string) (settings.Snapshot, error)
}

// Config holds the version thresholds and retry policy.
type Config struct {
	RequiredVersion    string
	RecommendedVersion string
	Retry              retry.Policy
}

// Presenter owns one login attempt against one server.
type Presenter struct {
	cfg       Config
	view      View
	factory   ClientFactory
	store     settings.Store
	refresher SettingsRefresher
	builder   *auth.Builder
	log       *zap.Logger

	mu           sync.Mutex
	serverURL    string
	client       Client
	snapshot     settings.Snapshot
	options      auth.Options
	versionState State
	authState    AuthState
	version      string
}

// Option customises a Presenter.
type Option func(*Presenter)

// WithRefresher enables settings refresh in RefreshServerAccounts.
func WithRefresher(r SettingsRefresher) Option {
	return func(p *Presenter) { p.refresher = r }
}

// WithBuilder replaces the login options builder.
func WithBuilder(b *auth.Builder) Option {
	return func(p *Presenter) {
		if b != nil {
			p.builder = b
		}
	}
}

// WithLogger sets the presenter's logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Presenter) {
		if log != nil {
			p.log = log
		}
	}
}

// New constructs a Presenter. store may be nil, in which case settings are
// kept in memory for the lifetime of the presenter.
func New(cfg Config, view View, factory ClientFactory, store settings.Store, opts ...Option) *Presenter {
	if view == nil {
		view = NopView{}
	}
	if store == nil {
		store = settings.NewMemoryStore()
	}
	p := &Presenter{
		cfg:     cfg,
		view:    view,
		factory: factory,
		store:   store,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.builder == nil {
		p.builder = auth.NewBuilder(auth.WithLogger(p.log))
	}
	return p
}

// SetupConnectionInfo binds the presenter to serverURL and creates its client.
func (p *Presenter) SetupConnectionInfo(serverURL string) error {
	normalized, err := validator.NormalizeServerURL(serverURL)
	if err != nil {
		return apperrors.NewBadRequest(err.Error())
	}
	if p.factory == nil {
		return errors.New("presenter: client factory is required")
	}
	client, err := p.factory(normalized)
	if err != nil {
		return fmt.Errorf("presenter: create client: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.serverURL = normalized
	p.client = client
	p.versionState = Idle
	p.authState = AuthIdle
	return nil
}

// RefreshServerAccounts refreshes the cached settings, reloads the snapshot and
// clears the login options ahead of a new attempt.
func (p *Presenter) RefreshServerAccounts(ctx context.Context) error {
	serverURL, _, err := p.connection()
	if err != nil {
		return err
	}

	if p.refresher != nil {
		if _, err := p.refresher.Refresh(ctx, serverURL); err != nil {
			p.log.Warn("refresh settings", zap.String("server", serverURL), zap.Error(err))
		}
	}

	snap, _, err := p.store.Get(ctx, serverURL)
	if err != nil {
		return fmt.Errorf("presenter: load settings: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = snap
	deepLink := p.options.DeepLink
	p.options.Reset()
	p.options.DeepLink = deepLink
	p.authState = AuthIdle
	return nil
}

// CheckServerInfo fetches the server version and notifies the view with exactly
// one terminal signal. Failures are always reported to the view.
func (p *Presenter) CheckServerInfo(ctx context.Context, serverURL string) State {
	state := p.checkServerInfo(ctx, serverURL)
	metrics.VersionChecks.WithLabelValues(state.String()).Inc()

	p.mu.Lock()
	p.versionState = state
	p.mu.Unlock()
	return state
}

func (p *Presenter) checkServerInfo(ctx context.Context, serverURL string) State {
	p.setVersionState(CheckingVersion)

	log := p.log.With(zap.String("server", serverURL))
	client, err := p.clientFor(serverURL)
	if err != nil {
		log.Debug("error getting server info", zap.Error(err))
		p.view.ErrorCheckingServerVersion()
		return CheckFailed
	}

	info, err := retry.Do(ctx, p.cfg.Retry, log, "serverInfo", client.ServerInfo)
	if err != nil {
		log.Debug("error getting server info", zap.Error(err))
		if apperrors.IsInvalidProtocol(err) {
			p.view.ErrorInvalidProtocol()
			return ProtocolError
		}
		p.view.ErrorCheckingServerVersion()
		return CheckFailed
	}

	p.mu.Lock()
	p.version = info.Version
	p.mu.Unlock()

	if info.Redirected {
		p.view.UpdateServerURL(info.CanonicalURL)
	}

	fields := []zap.Field{
		zap.String("version", info.Version),
		zap.String("required", p.cfg.RequiredVersion),
		zap.String("recommended", p.cfg.RecommendedVersion),
	}
	switch version.Classify(info.Version, p.cfg.RequiredVersion, p.cfg.RecommendedVersion) {
	case version.OK:
		log.Info("server version ok", fields...)
		p.view.VersionOK()
		return VersionOK
	case version.RecommendedWarning:
		log.Info("server version below recommended", fields...)
		p.view.AlertNotRecommendedVersion()
		return VersionWarned
	default:
		log.Info("server version out of date", fields...)
		p.view.BlockAndAlertNotRequiredVersion()
		return VersionBlocked
	}
}

// CheckEnabledAccounts fetches the OAuth services and builds the login
// options. Errors are logged and never reach the view.
func (p *Presenter) CheckEnabledAccounts(ctx context.Context, serverURL string) {
	p.mu.Lock()
	p.authState = CheckingAuth
	snap := p.snapshot
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.authState = AuthReady
		p.mu.Unlock()
	}()

	log := p.log.With(zap.String("server", serverURL))
	client, err := p.clientFor(serverURL)
	if err != nil {
		log.Error("check enabled accounts", zap.Error(err))
		return
	}

	oauth, err := retry.Do(ctx, p.cfg.Retry, log, "settingsOauth", client.SettingsOAuth)
	if err != nil {
		log.Error("check enabled accounts", zap.Error(err))
		return
	}
	if len(oauth.Services) == 0 {
		return
	}

	state, err := p.builder.NewState()
	if err != nil {
		log.Error("generate oauth state", zap.Error(err))
		return
	}
	built := p.builder.Build(oauth.Services, snap, serverURL, state)
	recordEnabled(built)

	p.mu.Lock()
	defer p.mu.Unlock()
	built.DeepLink = p.options.DeepLink
	p.options = built
}

// CheckIfLoginFormIsEnabled copies the login form flag from the settings.
func (p *Presenter) CheckIfLoginFormIsEnabled() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot.IsLoginFormEnabled() {
		p.options.LoginFormEnabled = true
	}
}

// CheckIfCreateNewAccountIsEnabled enables account creation when registration
// is public and the login form is shown.
func (p *Presenter) CheckIfCreateNewAccountIsEnabled() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot.IsRegistrationEnabledForNewUsers() && p.snapshot.IsLoginFormEnabled() {
		p.options.NewAccountCreationEnabled = true
	}
}

// SetDeepLink attaches deep link info carried through to the login options.
func (p *Presenter) SetDeepLink(info *auth.DeepLinkInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.options.DeepLink = info
}

// AuthOptions returns a copy of the current login options.
func (p *Presenter) AuthOptions() auth.Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.options.Clone()
}

// Settings returns the settings snapshot loaded by RefreshServerAccounts.
func (p *Presenter) Settings() settings.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

func (p *Presenter) VersionState() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.versionState
}

func (p *Presenter) AuthState() AuthState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authState
}

func (p *Presenter) setVersionState(s State) {
	p.mu.Lock()
	p.versionState = s
	p.mu.Unlock()
}

func (p *Presenter) connection() (string, Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return "", nil, ErrNotConnected
	}
	return p.serverURL, p.client, nil
}

// clientFor returns the bound client, rebinding when serverURL differs from
// the one passed to SetupConnectionInfo.
func (p *Presenter) clientFor(serverURL string) (Client, error) {
	current, client, err := p.connection()
	if serverURL == "" || (err == nil && serverURL == current) {
		return client, err
	}
	if err := p.SetupConnectionInfo(serverURL); err != nil {
		return nil, err
	}
	_, client, err = p.connection()
	return client, err
}

func recordEnabled(opts auth.Options) {
	metrics.EnabledAccounts.WithLabelValues("social").Set(float64(len(opts.Social)))
	metrics.EnabledAccounts.WithLabelValues("cas").Set(boolGauge(opts.CAS.Configured()))
	metrics.EnabledAccounts.WithLabelValues("custom_oauth").Set(boolGauge(opts.CustomOAuth.Configured()))
	metrics.EnabledAccounts.WithLabelValues("saml").Set(boolGauge(opts.SAML.Configured()))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Report summarises one Probe.
type Report struct {
	SessionID    string            `json:"session_id"`
	ServerURL    string            `json:"server_url"`
	CanonicalURL string            `json:"canonical_url"`
	Version      string            `json:"version,omitempty"`
	VersionState State             `json:"version_state"`
	AuthState    AuthState         `json:"auth_state"`
	Signals      []string          `json:"signals"`
	AuthOptions  auth.Options      `json:"auth_options"`
	Settings     settings.Snapshot `json:"-"`
}

// Probe runs a full check against serverURL: it sets up the connection,
// refreshes settings, then runs the version and accounts checks concurrently.
func (p *Presenter) Probe(ctx context.Context, serverURL string) (Report, error) {
	recorder := &Recorder{Next: p.view}
	p.view = recorder
	defer func() { p.view = recorder.Next }()

	if err := p.SetupConnectionInfo(serverURL); err != nil {
		return Report{}, err
	}
	if err := p.RefreshServerAccounts(ctx); err != nil {
		return Report{}, err
	}
	current, _, _ := p.connection()

	report := Report{SessionID: uuid.NewString(), ServerURL: current}
	log := p.log.With(zap.String("session", report.SessionID), zap.String("server", current))
	log.Debug("probe started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.VersionState = p.CheckServerInfo(gctx, current)
		return nil
	})
	g.Go(func() error {
		p.CheckEnabledAccounts(gctx, current)
		return nil
	})
	// both checks report through state, never through the group
	_ = g.Wait()

	p.CheckIfLoginFormIsEnabled()
	p.CheckIfCreateNewAccountIsEnabled()

	report.CanonicalURL = current
	if canonical := recorder.CanonicalURL(); canonical != "" {
		report.CanonicalURL = canonical
	}
	p.mu.Lock()
	report.Version = p.version
	p.mu.Unlock()
	report.AuthState = p.AuthState()
	report.Signals = recorder.Signals()
	report.AuthOptions = p.AuthOptions()
	report.Settings = p.Settings()

	log.Info("probe finished",
		zap.String("version_state", report.VersionState.String()),
		zap.Int("accounts", report.AuthOptions.TotalSocialAccountsEnabled),
	)
	return report, nil
}
