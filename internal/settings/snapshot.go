// Package settings holds the public server settings a client caches per server
// and the typed feature flags read from them.
package settings

import (
	"encoding/json"
	"strings"
)

// Public setting identifiers consulted before login.
const (
	FacebookEnabled      = "Accounts_OAuth_Facebook"
	GithubEnabled        = "Accounts_OAuth_Github"
	GoogleEnabled        = "Accounts_OAuth_Google"
	LinkedinEnabled      = "Accounts_OAuth_Linkedin"
	GitlabEnabled        = "Accounts_OAuth_Gitlab"
	GitlabURL            = "API_Gitlab_URL"
	WordpressEnabled     = "Accounts_OAuth_Wordpress"
	WordpressURL         = "API_Wordpress_URL"
	CasEnabled           = "CAS_enabled"
	CasLoginURL          = "CAS_login_url"
	LoginFormEnabled     = "Accounts_ShowFormLogin"
	RegistrationForm     = "Accounts_RegistrationForm"
	registrationIsPublic = "Public"
)

// Keys lists every setting a Snapshot reads; refreshers request exactly these.
var Keys = []string{
	FacebookEnabled,
	GithubEnabled,
	GoogleEnabled,
	LinkedinEnabled,
	GitlabEnabled,
	GitlabURL,
	WordpressEnabled,
	WordpressURL,
	CasEnabled,
	CasLoginURL,
	LoginFormEnabled,
	RegistrationForm,
}

// Snapshot is a read-only view of one server's public settings.
type Snapshot struct {
	values map[string]any
}

// NewSnapshot copies values into a Snapshot.
func NewSnapshot(values map[string]any) Snapshot {
	cpy := make(map[string]any, len(values))
	for k, v := range values {
		cpy[k] = v
	}
	return Snapshot{values: cpy}
}

// Values returns a copy of the raw settings.
func (s Snapshot) Values() map[string]any {
	cpy := make(map[string]any, len(s.values))
	for k, v := range s.values {
		cpy[k] = v
	}
	return cpy
}

// Empty reports whether no settings are known.
func (s Snapshot) Empty() bool { return len(s.values) == 0 }

// MarshalJSON renders the raw settings map.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON reads a raw settings map.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewSnapshot(values)
	return nil
}

// Bool returns true only for a boolean true value. Setting values stored as
// the strings "true"/"false" are accepted too.
func (s Snapshot) Bool(key string) bool {
	switch v := s.values[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

// String returns the setting as a string; ok is false when missing or mistyped.
func (s Snapshot) String(key string) (string, bool) {
	v, ok := s.values[key].(string)
	return v, ok
}

func (s Snapshot) IsFacebookAuthenticationEnabled() bool  { return s.Bool(FacebookEnabled) }
func (s Snapshot) IsGithubAuthenticationEnabled() bool    { return s.Bool(GithubEnabled) }
func (s Snapshot) IsGoogleAuthenticationEnabled() bool    { return s.Bool(GoogleEnabled) }
func (s Snapshot) IsLinkedinAuthenticationEnabled() bool  { return s.Bool(LinkedinEnabled) }
func (s Snapshot) IsGitlabAuthenticationEnabled() bool    { return s.Bool(GitlabEnabled) }
func (s Snapshot) IsWordpressAuthenticationEnabled() bool { return s.Bool(WordpressEnabled) }
func (s Snapshot) IsCasAuthenticationEnabled() bool       { return s.Bool(CasEnabled) }
func (s Snapshot) IsLoginFormEnabled() bool               { return s.Bool(LoginFormEnabled) }

// IsRegistrationEnabledForNewUsers is true when the registration form is public.
func (s Snapshot) IsRegistrationEnabledForNewUsers() bool {
	v, _ := s.String(RegistrationForm)
	return v == registrationIsPublic
}

// GitlabHost returns the self-hosted GitLab URL, if configured.
func (s Snapshot) GitlabHost() (string, bool) {
	v, ok := s.String(GitlabURL)
	return v, ok && strings.TrimSpace(v) != ""
}

// WordpressHost returns the self-hosted WordPress URL, if configured.
func (s Snapshot) WordpressHost() (string, bool) {
	v, ok := s.String(WordpressURL)
	return v, ok && strings.TrimSpace(v) != ""
}

// CasLogin returns the CAS login page URL, or "" when unset.
func (s Snapshot) CasLogin() string {
	v, _ := s.String(CasLoginURL)
	return v
}
