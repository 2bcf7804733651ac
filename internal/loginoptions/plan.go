// Package loginoptions lays out the login buttons for a set of auth options.
package loginoptions

import (
	"github.com/charlesng35/chatgate/internal/auth"
	"github.com/charlesng35/chatgate/internal/auth/providers"
	"github.com/charlesng35/chatgate/internal/descriptor"
)

// VisibleAccounts is the number of buttons shown before the expand affordance.
const VisibleAccounts = 3

// Callback tells the client how the login flow returns.
type Callback string

const (
	CallbackOAuth Callback = "oauth"
	CallbackCAS   Callback = "cas"
	CallbackSAML  Callback = "saml"
)

// Button is one login entry.
type Button struct {
	Provider    string            `json:"provider"`
	Label       string            `json:"label"`
	URL         string            `json:"url"`
	Token       string            `json:"token"`
	Callback    Callback          `json:"callback"`
	TextColor   *descriptor.Color `json:"text_color,omitempty"`
	ButtonColor *descriptor.Color `json:"button_color,omitempty"`
}

// ColorHex returns the button's colors as #AARRGGBB, or "" when unset.
func (b Button) ColorHex() (text, button string) {
	if b.TextColor != nil {
		text = b.TextColor.Hex()
	}
	if b.ButtonColor != nil {
		button = b.ButtonColor.Hex()
	}
	return text, button
}

// View is the rendered plan.
type View struct {
	Buttons            []Button           `json:"buttons"`
	Visible            int                `json:"visible"`
	Expandable         bool               `json:"expandable"`
	ShowAccounts       bool               `json:"show_accounts"`
	ShowLoginWithEmail bool               `json:"show_login_with_email"`
	ShowCreateAccount  bool               `json:"show_create_account"`
	DeepLink           *auth.DeepLinkInfo `json:"deep_link,omitempty"`
}

// Plan orders the buttons: the social providers in registry order, then CAS,
// custom OAuth and SAML.
func Plan(opts auth.Options) View {
	return PlanWith(providers.Default(), opts)
}

// PlanWith is Plan over a custom provider registry.
func PlanWith(reg *providers.Registry, opts auth.Options) View {
	var buttons []Button

	if opts.State != "" {
		for _, meta := range reg.Metadata() {
			url, ok := opts.OAuthURL(meta.Type)
			if !ok {
				continue
			}
			buttons = append(buttons, Button{
				Provider: meta.Type,
				Label:    meta.DisplayName,
				URL:      url,
				Token:    opts.State,
				Callback: CallbackOAuth,
			})
		}
	}

	if opts.CAS.Configured() && opts.CAS.Token != "" {
		buttons = append(buttons, accountButton("cas", opts.CAS, opts.CAS.Token, CallbackCAS))
	}
	if opts.CustomOAuth.Configured() && opts.State != "" {
		buttons = append(buttons, accountButton(opts.CustomOAuth.ServiceName, opts.CustomOAuth, opts.State, CallbackOAuth))
	}
	if opts.SAML.Configured() && opts.SAML.Token != "" {
		buttons = append(buttons, accountButton("saml", opts.SAML, opts.SAML.Token, CallbackSAML))
	}

	total := opts.TotalSocialAccountsEnabled
	return View{
		Buttons:            buttons,
		Visible:            min(len(buttons), VisibleAccounts),
		Expandable:         total > VisibleAccounts,
		ShowAccounts:       total > 0,
		ShowLoginWithEmail: opts.LoginFormEnabled,
		ShowCreateAccount:  opts.NewAccountCreationEnabled,
		DeepLink:           opts.DeepLink,
	}
}

func accountButton(provider string, acc auth.Account, token string, cb Callback) Button {
	text, button := acc.TextColor, acc.ButtonColor
	return Button{
		Provider:    provider,
		Label:       acc.ServiceName,
		URL:         acc.URL,
		Token:       token,
		Callback:    cb,
		TextColor:   &text,
		ButtonColor: &button,
	}
}
