package presenter

import (
	"context"
	"sync"

	"github.com/charlesng35/chatgate/internal/rocketchat"
)

// View receives fire-and-forget notifications about the version check.
type View interface {
	UpdateServerURL(url string)
	VersionOK()
	AlertNotRecommendedVersion()
	BlockAndAlertNotRequiredVersion()
	ErrorInvalidProtocol()
	ErrorCheckingServerVersion()
}

// Client is the transport for one chat server.
type Client interface {
	ServerInfo(ctx context.Context) (rocketchat.ServerInfo, error)
	SettingsOAuth(ctx context.Context) (rocketchat.OAuthSettings, error)
}

// ClientFactory returns a Client bound to serverURL.
type ClientFactory func(serverURL string) (Client, error)

// Signal names, as reported by Recorder.
const (
	SignalUpdateServerURL            = "update_server_url"
	SignalVersionOK                  = "version_ok"
	SignalNotRecommendedVersion      = "alert_not_recommended_version"
	SignalNotRequiredVersion         = "block_and_alert_not_required_version"
	SignalInvalidProtocol            = "error_invalid_protocol"
	SignalErrorCheckingServerVersion = "error_checking_server_version"
)

// NopView ignores every notification.
type NopView struct{}

func (NopView) UpdateServerURL(string)           {}
func (NopView) VersionOK()                       {}
func (NopView) AlertNotRecommendedVersion()      {}
func (NopView) BlockAndAlertNotRequiredVersion() {}
func (NopView) ErrorInvalidProtocol()            {}
func (NopView) ErrorCheckingServerVersion()      {}

// Recorder keeps the signals it receives and forwards them to Next.
type Recorder struct {
	Next View

	mu           sync.Mutex
	signals      []string
	canonicalURL string
}

func (r *Recorder) record(signal string) {
	r.mu.Lock()
	r.signals = append(r.signals, signal)
	r.mu.Unlock()
}

func (r *Recorder) next() View {
	if r.Next == nil {
		return NopView{}
	}
	return r.Next
}

// Signals returns the received signals in order.
func (r *Recorder) Signals() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.signals...)
}

// CanonicalURL returns the last URL passed to UpdateServerURL.
func (r *Recorder) CanonicalURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canonicalURL
}

func (r *Recorder) UpdateServerURL(url string) {
	r.mu.Lock()
	r.canonicalURL = url
	r.mu.Unlock()
	r.record(SignalUpdateServerURL)
	r.next().UpdateServerURL(url)
}

func (r *Recorder) VersionOK() {
	r.record(SignalVersionOK)
	r.next().VersionOK()
}

func (r *Recorder) AlertNotRecommendedVersion() {
	r.record(SignalNotRecommendedVersion)
	r.next().AlertNotRecommendedVersion()
}

func (r *Recorder) BlockAndAlertNotRequiredVersion() {
	r.record(SignalNotRequiredVersion)
	r.next().BlockAndAlertNotRequiredVersion()
}

func (r *Recorder) ErrorInvalidProtocol() {
	r.record(SignalInvalidProtocol)
	r.next().ErrorInvalidProtocol()
}

func (r *Recorder) ErrorCheckingServerVersion() {
	r.record(SignalErrorCheckingServerVersion)
	r.next().ErrorCheckingServerVersion()
}
