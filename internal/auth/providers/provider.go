package providers

import (
	"errors"
	"strings"

	"golang.org/x/oauth2"

	"github.com/charlesng35/chatgate/internal/descriptor"
	"github.com/charlesng35/chatgate/internal/settings"
)

// ErrMissingClientID is returned when a request carries no OAuth client id.
var ErrMissingClientID = errors.New("providers: client id is required")

// Metadata describes the static presentation details for a social login provider.
type Metadata struct {
	Type        string
	DisplayName string
	Order       int
}

// Request carries everything needed to build one authorize URL.
type Request struct {
	ClientID   string
	ServerURL  string
	State      string
	Descriptor descriptor.Descriptor
	Settings   settings.Snapshot
}

// Enabled reports whether the server turned a provider on.
type Enabled func(settings.Snapshot) bool

// URLBuilder renders the authorize URL for a provider.
type URLBuilder func(req Request) (string, error)

// CustomOAuth describes a server-defined OAuth service.
type CustomOAuth struct {
	Service       string
	Host          string
	AuthorizePath string
	ClientID      string
	Scope         string
}

// CustomOAuthURL renders the authorize URL of a custom OAuth service.
func CustomOAuthURL(svc CustomOAuth, serverURL, state string) (string, error) {
	if svc.ClientID == "" {
		return "", ErrMissingClientID
	}
	cfg := oauth2.Config{
		ClientID:    svc.ClientID,
		Endpoint:    oauth2.Endpoint{AuthURL: trimSlash(svc.Host) + svc.AuthorizePath},
		RedirectURL: callbackURL(serverURL, svc.Service),
		Scopes:      splitScope(svc.Scope),
	}
	return cfg.AuthCodeURL(state), nil
}

func callbackURL(serverURL, service string) string {
	return trimSlash(serverURL) + "/_oauth/" + service + "?close"
}

func trimSlash(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}

func splitScope(scope string) []string {
	return strings.Fields(scope)
}
