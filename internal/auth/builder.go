package auth

import (
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/chatgate/internal/auth/providers"
	"github.com/charlesng35/chatgate/internal/descriptor"
	"github.com/charlesng35/chatgate/internal/settings"
	"github.com/charlesng35/chatgate/pkg/crypto"
)

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithTokenSource replaces the random token generator.
func WithTokenSource(src TokenSource) BuilderOption {
	return func(b *Builder) {
		if src != nil {
			b.tokens = src
		}
	}
}

// WithLogger sets the logger used for skipped descriptors.
func WithLogger(log *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// WithRegistry replaces the social provider registry.
func WithRegistry(reg *providers.Registry) BuilderOption {
	return func(b *Builder) {
		if reg != nil {
			b.registry = reg
		}
	}
}

// Builder assembles Options from a service list and a settings snapshot.
type Builder struct {
	registry *providers.Registry
	tokens   TokenSource
	log      *zap.Logger
}

// NewBuilder constructs a Builder over the built-in social providers.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		registry: providers.Default(),
		tokens:   crypto.RandomString,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewState builds an OAuth state nonce from the builder's token source.
func (b *Builder) NewState() (string, error) {
	return newState(b.tokens)
}

// Build returns freshly constructed Options. It never fails: descriptors with
// missing or mistyped fields are skipped. When services is non-empty and state
// is empty a new state nonce is generated.
func (b *Builder) Build(services []descriptor.Descriptor, snap settings.Snapshot, serverURL, state string) Options {
	opts := Options{
		LoginFormEnabled:          snap.IsLoginFormEnabled(),
		NewAccountCreationEnabled: snap.IsRegistrationEnabledForNewUsers() && snap.IsLoginFormEnabled(),
	}
	if len(services) == 0 {
		return opts
	}

	if state == "" {
		generated, err := b.NewState()
		if err != nil {
			b.log.Warn("generate oauth state", zap.Error(err))
		}
		state = generated
	}
	opts.State = state

	b.social(&opts, services, snap, serverURL)
	b.cas(&opts, services, snap, serverURL)
	b.customOAuth(&opts, services, serverURL)
	b.saml(&opts, services, serverURL)

	// One per filled slot: several complete custom OAuth or SAML descriptors
	// still occupy a single slot and count once.
	opts.TotalSocialAccountsEnabled = opts.Count()
	return opts
}

func (b *Builder) social(opts *Options, services []descriptor.Descriptor, snap settings.Snapshot, serverURL string) {
	if opts.State == "" {
		return
	}
	for _, reg := range b.registry.Registrations() {
		name := reg.Metadata.Type
		if reg.Enabled == nil || !reg.Enabled(snap) {
			continue
		}
		d, ok := descriptor.FindByName(services, name)
		if !ok {
			continue
		}
		clientID, ok := descriptor.ClientID(d)
		if !ok {
			b.log.Debug("skip provider without client id", zap.String("provider", name))
			continue
		}

		url, err := reg.Build(providers.Request{
			ClientID:   clientID,
			ServerURL:  serverURL,
			State:      opts.State,
			Descriptor: d,
			Settings:   snap,
		})
		if err != nil {
			b.log.Debug("skip provider", zap.String("provider", name), zap.Error(err))
			continue
		}
		if opts.Social == nil {
			opts.Social = make(map[string]string)
		}
		opts.Social[name] = url
	}
}

func (b *Builder) cas(opts *Options, services []descriptor.Descriptor, snap settings.Snapshot, serverURL string) {
	if !snap.IsCasAuthenticationEnabled() {
		return
	}
	token, err := b.tokens(accountTokenLength)
	if err != nil {
		b.log.Warn("generate cas token", zap.Error(err))
		return
	}

	opts.CAS = Account{
		URL:   CASURL(snap.CasLogin(), serverURL, token),
		Token: token,
	}
	for _, d := range descriptor.Matching(services, descriptor.ServiceIs("cas")) {
		label, ok := descriptor.ButtonLabelText(d)
		if !ok {
			continue
		}
		text, button, ok := colors(d)
		if !ok {
			continue
		}
		opts.CAS.ServiceName = label
		opts.CAS.TextColor = text
		opts.CAS.ButtonColor = button
	}
}

func (b *Builder) customOAuth(opts *Options, services []descriptor.Descriptor, serverURL string) {
	if opts.State == "" {
		return
	}
	for _, d := range descriptor.Matching(services, descriptor.Custom) {
		svc, ok := customService(d)
		if !ok {
			continue
		}
		text, button, ok := colors(d)
		if !ok {
			continue
		}
		url, err := providers.CustomOAuthURL(svc, serverURL, opts.State)
		if err != nil {
			continue
		}
		opts.CustomOAuth = Account{
			URL:         url,
			ServiceName: svc.Service,
			TextColor:   text,
			ButtonColor: button,
		}
	}
}

func (b *Builder) saml(opts *Options, services []descriptor.Descriptor, serverURL string) {
	token, err := b.tokens(accountTokenLength)
	if err != nil {
		b.log.Warn("generate saml token", zap.Error(err))
		return
	}

	opts.SAML = Account{Token: token}
	for _, d := range descriptor.Matching(services, descriptor.ServiceIs("saml")) {
		provider, ok := descriptor.SAMLProvider(d)
		if !ok {
			continue
		}
		label, ok := descriptor.ButtonLabelText(d)
		if !ok {
			continue
		}
		text, button, ok := colors(d)
		if !ok {
			continue
		}
		opts.SAML = Account{
			URL:         SAMLURL(serverURL, provider, token),
			Token:       token,
			ServiceName: label,
			TextColor:   text,
			ButtonColor: button,
		}
	}
}

func customService(d descriptor.Descriptor) (providers.CustomOAuth, bool) {
	var (
		svc providers.CustomOAuth
		ok  bool
	)
	if svc.Service, ok = descriptor.ServiceName(d); !ok {
		return svc, false
	}
	if svc.Host, ok = descriptor.Host(d); !ok {
		return svc, false
	}
	if svc.AuthorizePath, ok = descriptor.AuthorizePath(d); !ok {
		return svc, false
	}
	if svc.ClientID, ok = descriptor.ClientID(d); !ok {
		return svc, false
	}
	if svc.Scope, ok = descriptor.Scope(d); !ok {
		return svc, false
	}
	return svc, true
}

func colors(d descriptor.Descriptor) (text, button descriptor.Color, ok bool) {
	if text, ok = descriptor.LabelColor(d); !ok {
		return 0, 0, false
	}
	if button, ok = descriptor.ButtonColorValue(d); !ok {
		return 0, 0, false
	}
	return text, button, true
}

// CASURL is the CAS login page with the server's CAS callback as service.
func CASURL(casLoginURL, serverURL, token string) string {
	return trimSlash(casLoginURL) + "?service=" + trimSlash(serverURL) + "/_cas/" + token
}

// SAMLURL is the server's SAML authorize endpoint for provider.
func SAMLURL(serverURL, provider, token string) string {
	return trimSlash(serverURL) + "/_saml/authorize/" + provider + "/" + token
}

func trimSlash(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}
