package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"math/big"
)

// Alphanumeric is the character set used for login tokens.
const Alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomString returns a string of the requested length drawn uniformly from Alphanumeric.
func RandomString(length int) (string, error) {
	return RandomStringFrom(rand.Reader, length)
}

// RandomStringFrom draws from the supplied entropy source; used by tests for determinism.
func RandomStringFrom(source io.Reader, length int) (string, error) {
	if length <= 0 {
		return "", nil
	}

	max := big.NewInt(int64(len(Alphanumeric)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(source, max)
		if err != nil {
			return "", err
		}
		out[i] = Alphanumeric[n.Int64()]
	}
	return string(out), nil
}

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
