// Package auth turns a server's OAuth service list and public settings into the
// login options offered for one login attempt.
package auth

import "github.com/charlesng35/chatgate/internal/descriptor"

// Account is one CAS, custom OAuth or SAML login entry.
type Account struct {
	URL         string           `json:"url,omitempty"`
	Token       string           `json:"token,omitempty"`
	ServiceName string           `json:"service_name,omitempty"`
	TextColor   descriptor.Color `json:"text_color,omitempty"`
	ButtonColor descriptor.Color `json:"button_color,omitempty"`
}

// Configured reports whether the entry can be rendered as a button.
func (a Account) Configured() bool {
	return a.URL != "" && a.ServiceName != ""
}

// DeepLinkInfo is carried through untouched for immediate authentication.
type DeepLinkInfo struct {
	URL      string `json:"url"`
	UserID   string `json:"user_id,omitempty"`
	Token    string `json:"token,omitempty"`
	RoomID   string `json:"rid,omitempty"`
	RoomType string `json:"room_type,omitempty"`
	RoomName string `json:"room_name,omitempty"`
}

// Options is the normalized set of login choices for one login attempt.
type Options struct {
	// State correlates OAuth callbacks across every social and custom provider.
	State string `json:"state,omitempty"`
	// Social maps a provider type to its authorize URL; only enabled providers appear.
	Social map[string]string `json:"social,omitempty"`

	CAS         Account `json:"cas"`
	CustomOAuth Account `json:"custom_oauth"`
	SAML        Account `json:"saml"`

	TotalSocialAccountsEnabled int `json:"total_social_accounts_enabled"`

	LoginFormEnabled          bool `json:"login_form_enabled"`
	NewAccountCreationEnabled bool `json:"new_account_creation_enabled"`

	DeepLink *DeepLinkInfo `json:"deep_link,omitempty"`
}

// OAuthURL returns the authorize URL for a social provider type.
func (o Options) OAuthURL(provider string) (string, bool) {
	url, ok := o.Social[provider]
	return url, ok && url != ""
}

// Count returns the number of populated login entries.
func (o Options) Count() int {
	n := 0
	for _, url := range o.Social {
		if url != "" {
			n++
		}
	}
	for _, acc := range []Account{o.CAS, o.CustomOAuth, o.SAML} {
		if acc.Configured() {
			n++
		}
	}
	return n
}

// Reset clears every field to its zero value ahead of a new attempt.
func (o *Options) Reset() {
	*o = Options{}
}

// Clone returns a deep copy.
func (o Options) Clone() Options {
	out := o
	if o.Social != nil {
		out.Social = make(map[string]string, len(o.Social))
		for k, v := range o.Social {
			out.Social[k] = v
		}
	}
	if o.DeepLink != nil {
		link := *o.DeepLink
		out.DeepLink = &link
	}
	return out
}
