package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charlesng35/chatgate/pkg/crypto"
)

const (
	credentialTokenLength = 40
	accountTokenLength    = 17
)

var errStateInvalid = errors.New("oauth state: invalid")

// StatePayload is the JSON document carried, base64 encoded, as the OAuth state.
type StatePayload struct {
	LoginStyle      string `json:"loginStyle"`
	CredentialToken string `json:"credentialToken"`
	IsCordova       bool   `json:"isCordova"`
}

// TokenSource returns a random alphanumeric string of the given length.
type TokenSource func(length int) (string, error)

// NewState builds a fresh OAuth state nonce.
func NewState() (string, error) {
	return newState(crypto.RandomString)
}

func newState(tokens TokenSource) (string, error) {
	credential, err := tokens(credentialTokenLength)
	if err != nil {
		return "", fmt.Errorf("oauth state: credential token: %w", err)
	}

	raw, err := json.Marshal(StatePayload{
		LoginStyle:      "popup",
		CredentialToken: credential,
		IsCordova:       true,
	})
	if err != nil {
		return "", fmt.Errorf("oauth state: marshal payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeState reverses NewState.
func DecodeState(state string) (StatePayload, error) {
	var payload StatePayload

	raw, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		return payload, errStateInvalid
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, errStateInvalid
	}
	if payload.CredentialToken == "" {
		return payload, errStateInvalid
	}
	return payload, nil
}
