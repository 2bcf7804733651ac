package loginoptions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/chatgate/internal/auth"
	"github.com/charlesng35/chatgate/internal/auth/providers"
	"github.com/charlesng35/chatgate/internal/descriptor"
)

func fullOptions() auth.Options {
	return auth.Options{
		State: "st",
		Social: map[string]string{
			providers.Gitlab:   "https://gitlab.com/oauth/authorize",
			providers.Facebook: "https://facebook.com/v2.9/dialog/oauth",
		},
		CAS: auth.Account{
			URL: "https://cas?service=x", Token: "cas-token", ServiceName: "Campus",
			TextColor: 0xFFFFFFFF, ButtonColor: 0xFF13679A,
		},
		CustomOAuth: auth.Account{URL: "https://corp/authorize", ServiceName: "corp"},
		SAML:        auth.Account{URL: "https://chat/_saml", Token: "saml-token", ServiceName: "Okta"},

		TotalSocialAccountsEnabled: 5,
		LoginFormEnabled:           true,
	}
}

func TestPlanOrder(t *testing.T) {
	view := Plan(fullOptions())

	var order []string
	for _, b := range view.Buttons {
		order = append(order, b.Provider)
	}
	require.Equal(t, []string{providers.Facebook, providers.Gitlab, "cas", "corp", "saml"}, order)

	require.Equal(t, VisibleAccounts, view.Visible)
	require.True(t, view.Expandable)
	require.True(t, view.ShowAccounts)
	require.True(t, view.ShowLoginWithEmail)
	require.False(t, view.ShowCreateAccount)
}

func TestPlanTokensAndCallbacks(t *testing.T) {
	view := Plan(fullOptions())
	byProvider := map[string]Button{}
	for _, b := range view.Buttons {
		byProvider[b.Provider] = b
	}

	require.Equal(t, "st", byProvider[providers.Facebook].Token)
	require.Equal(t, CallbackOAuth, byProvider[providers.Facebook].Callback)
	require.Equal(t, "Facebook", byProvider[providers.Facebook].Label)
	require.Equal(t, "cas-token", byProvider["cas"].Token)
	require.Equal(t, CallbackCAS, byProvider["cas"].Callback)
	require.Equal(t, "st", byProvider["corp"].Token)
	require.Equal(t, "saml-token", byProvider["saml"].Token)
	require.Equal(t, CallbackSAML, byProvider["saml"].Callback)

	text, button := byProvider["cas"].ColorHex()
	require.Equal(t, "#FFFFFFFF", text)
	require.Equal(t, "#FF13679A", button)

	text, button = byProvider[providers.Facebook].ColorHex()
	require.Empty(t, text)
	require.Empty(t, button)
}

func TestPlanSocialRequiresState(t *testing.T) {
	opts := fullOptions()
	opts.State = ""

	for _, b := range Plan(opts).Buttons {
		require.NotEqual(t, CallbackOAuth, b.Callback, b.Provider)
	}
}

func TestPlanSkipsIncompleteAccounts(t *testing.T) {
	opts := auth.Options{
		CAS:                        auth.Account{URL: "https://cas", Token: "t"},
		SAML:                       auth.Account{Token: "t"},
		TotalSocialAccountsEnabled: 0,
	}

	view := Plan(opts)
	require.Empty(t, view.Buttons)
	require.False(t, view.ShowAccounts)
	require.False(t, view.Expandable)
	require.Zero(t, view.Visible)
}

func TestPlanExpandThreshold(t *testing.T) {
	opts := auth.Options{
		State: "st",
		Social: map[string]string{
			providers.Facebook: "f", providers.Github: "g", providers.Google: "o",
		},
		TotalSocialAccountsEnabled: 3,
	}
	view := Plan(opts)
	require.Len(t, view.Buttons, 3)
	require.False(t, view.Expandable)

	opts.Social[providers.Linkedin] = "l"
	opts.TotalSocialAccountsEnabled = 4
	require.True(t, Plan(opts).Expandable)
}

func TestPlanCarriesDeepLink(t *testing.T) {
	link := &auth.DeepLinkInfo{URL: "rocketchat://auth?host=open.rocket.chat"}
	view := Plan(auth.Options{DeepLink: link, NewAccountCreationEnabled: true})
	require.Same(t, link, view.DeepLink)
	require.True(t, view.ShowCreateAccount)
}

func TestColorPointersAreIndependent(t *testing.T) {
	acc := auth.Account{URL: "u", ServiceName: "n", TextColor: descriptor.Color(1), ButtonColor: descriptor.Color(2)}
	a := accountButton("x", acc, "t", CallbackCAS)
	b := accountButton("y", acc, "t", CallbackCAS)
	*a.TextColor = 9
	require.Equal(t, descriptor.Color(1), *b.TextColor)
}
