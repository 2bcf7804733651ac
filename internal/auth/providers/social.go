package providers

import (
	"golang.org/x/oauth2"

	"github.com/charlesng35/chatgate/internal/descriptor"
	"github.com/charlesng35/chatgate/internal/settings"
)

// Provider types in the order login buttons are offered.
const (
	Facebook  = "facebook"
	Github    = "github"
	Google    = "google"
	Linkedin  = "linkedin"
	Gitlab    = "gitlab"
	Wordpress = "wordpress"
)

const (
	defaultGitlabHost     = "https://gitlab.com"
	defaultWordpressHost  = "https://public-api.wordpress.com"
	defaultWordpressPath  = "/oauth/authorize"
	defaultWordpressScope = "openid"
)

// Default returns a registry holding the six built-in social providers.
func Default() *Registry {
	reg := NewRegistry()
	for _, r := range builtin() {
		// builtin types are unique
		_ = reg.Register(r)
	}
	return reg
}

func builtin() []Registration {
	return []Registration{
		{
			Metadata: Metadata{Type: Facebook, DisplayName: "Facebook", Order: 10},
			Enabled:  settings.Snapshot.IsFacebookAuthenticationEnabled,
			Build:    fixedEndpoint(Facebook, "https://facebook.com/v2.9/dialog/oauth", true, "email"),
		},
		{
			Metadata: Metadata{Type: Github, DisplayName: "GitHub", Order: 20},
			Enabled:  settings.Snapshot.IsGithubAuthenticationEnabled,
			Build:    fixedEndpoint(Github, "https://github.com/login/oauth/authorize", false, "user:email"),
		},
		{
			Metadata: Metadata{Type: Google, DisplayName: "Google", Order: 30},
			Enabled:  settings.Snapshot.IsGoogleAuthenticationEnabled,
			Build:    fixedEndpoint(Google, "https://accounts.google.com/o/oauth2/v2/auth", true, "email", "profile"),
		},
		{
			Metadata: Metadata{Type: Linkedin, DisplayName: "LinkedIn", Order: 40},
			Enabled:  settings.Snapshot.IsLinkedinAuthenticationEnabled,
			Build:    fixedEndpoint(Linkedin, "https://linkedin.com/oauth/v2/authorization", true, "r_liteprofile", "r_emailaddress"),
		},
		{
			Metadata: Metadata{Type: Gitlab, DisplayName: "GitLab", Order: 50},
			Enabled:  settings.Snapshot.IsGitlabAuthenticationEnabled,
			Build:    gitlabURL,
		},
		{
			Metadata: Metadata{Type: Wordpress, DisplayName: "WordPress", Order: 60},
			Enabled:  settings.Snapshot.IsWordpressAuthenticationEnabled,
			Build:    wordpressURL,
		},
	}
}

func fixedEndpoint(service, authURL string, redirect bool, scopes ...string) URLBuilder {
	return func(req Request) (string, error) {
		if req.ClientID == "" {
			return "", ErrMissingClientID
		}
		cfg := oauth2.Config{
			ClientID: req.ClientID,
			Endpoint: oauth2.Endpoint{AuthURL: authURL},
			Scopes:   scopes,
		}
		if redirect {
			cfg.RedirectURL = callbackURL(req.ServerURL, service)
		}
		return cfg.AuthCodeURL(req.State), nil
	}
}

func gitlabURL(req Request) (string, error) {
	if req.ClientID == "" {
		return "", ErrMissingClientID
	}
	host, ok := req.Settings.GitlabHost()
	if !ok {
		host = defaultGitlabHost
	}
	cfg := oauth2.Config{
		ClientID:    req.ClientID,
		Endpoint:    oauth2.Endpoint{AuthURL: trimSlash(host) + "/oauth/authorize"},
		RedirectURL: callbackURL(req.ServerURL, Gitlab),
		Scopes:      []string{"read_user"},
	}
	return cfg.AuthCodeURL(req.State), nil
}

// wordpressURL picks the wordpress.com flow unless the server names a
// self-hosted instance, in which case the descriptor describes the endpoint.
func wordpressURL(req Request) (string, error) {
	if req.ClientID == "" {
		return "", ErrMissingClientID
	}
	if _, selfHosted := req.Settings.WordpressHost(); !selfHosted {
		cfg := oauth2.Config{
			ClientID:    req.ClientID,
			Endpoint:    oauth2.Endpoint{AuthURL: "https://public-api.wordpress.com/oauth2/authorize"},
			RedirectURL: callbackURL(req.ServerURL, Wordpress),
			Scopes:      []string{"auth"},
		}
		return cfg.AuthCodeURL(req.State), nil
	}

	svc := CustomOAuth{
		Service:       Wordpress,
		Host:          orDefault(descriptor.Host, req.Descriptor, defaultWordpressHost),
		AuthorizePath: orDefault(descriptor.AuthorizePath, req.Descriptor, defaultWordpressPath),
		ClientID:      req.ClientID,
		Scope:         orDefault(descriptor.Scope, req.Descriptor, defaultWordpressScope),
	}
	return CustomOAuthURL(svc, req.ServerURL, req.State)
}

func orDefault(get func(descriptor.Descriptor) (string, bool), d descriptor.Descriptor, fallback string) string {
	if v, ok := get(d); ok {
		return v
	}
	return fallback
}
