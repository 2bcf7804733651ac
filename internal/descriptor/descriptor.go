// Package descriptor reads the loosely-typed OAuth service records a chat server
// publishes. Every accessor is total: a missing key or a value of the wrong type
// yields ok == false instead of an error.
package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Well-known descriptor keys.
const (
	KeyClientID         = "clientId"
	KeyAppID            = "appId"
	KeyCustom           = "custom"
	KeyHost             = "serverURL"
	KeyAuthorizePath    = "authorizePath"
	KeyScope            = "scope"
	KeyService          = "service"
	KeyButtonLabelText  = "buttonLabelText"
	KeyButtonLabelColor = "buttonLabelColor"
	KeyButtonColor      = "buttonColor"
	KeyClientConfig     = "clientConfig"
	KeyProvider         = "provider"
)

// Descriptor is one entry of the server's OAuth service list. Values are whatever
// JSON decoding produced: string, bool, float64/json.Number, nested maps or lists.
// Descriptors are never mutated after decoding.
type Descriptor map[string]any

// DecodeList decodes a JSON array of service objects. Array elements that are not
// objects are dropped.
func DecodeList(raw []byte) ([]Descriptor, error) {
	var items []any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("descriptor: decode list: %w", err)
	}

	out := make([]Descriptor, 0, len(items))
	for _, item := range items {
		if m, ok := asMap(item); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// String returns the value under key when it is a string.
func (d Descriptor) String(key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the value under key when it is a bool.
func (d Descriptor) Bool(key string) (bool, bool) {
	v, ok := d[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Map returns the nested mapping under key.
func (d Descriptor) Map(key string) (Descriptor, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	return asMap(v)
}

// ContainsValue reports whether any top-level value equals the string s.
func (d Descriptor) ContainsValue(s string) bool {
	for _, v := range d {
		if str, ok := v.(string); ok && str == s {
			return true
		}
	}
	return false
}

func asMap(v any) (Descriptor, bool) {
	switch m := v.(type) {
	case Descriptor:
		return m, m != nil
	case map[string]any:
		return Descriptor(m), m != nil
	default:
		return nil, false
	}
}

// ClientID returns clientId, falling back to appId (used by Facebook).
func ClientID(d Descriptor) (string, bool) {
	if id, ok := d.String(KeyClientID); ok {
		return id, true
	}
	return d.String(KeyAppID)
}

// IsCustom reports whether the descriptor is flagged as a custom OAuth service.
func IsCustom(d Descriptor) bool {
	custom, ok := d.Bool(KeyCustom)
	return ok && custom
}

// Host returns the custom OAuth server URL.
func Host(d Descriptor) (string, bool) { return d.String(KeyHost) }

// AuthorizePath returns the custom OAuth authorize path.
func AuthorizePath(d Descriptor) (string, bool) { return d.String(KeyAuthorizePath) }

// Scope returns the custom OAuth scope.
func Scope(d Descriptor) (string, bool) { return d.String(KeyScope) }

// ServiceName returns the service identifier ("cas", "saml", a custom name...).
func ServiceName(d Descriptor) (string, bool) { return d.String(KeyService) }

// ButtonLabelText returns the login button caption.
func ButtonLabelText(d Descriptor) (string, bool) { return d.String(KeyButtonLabelText) }

// ButtonLabelColor returns the raw caption color literal.
func ButtonLabelColor(d Descriptor) (string, bool) { return d.String(KeyButtonLabelColor) }

// ButtonColor returns the raw button color literal.
func ButtonColor(d Descriptor) (string, bool) { return d.String(KeyButtonColor) }

// LabelColor parses buttonLabelColor.
func LabelColor(d Descriptor) (Color, bool) {
	raw, ok := ButtonLabelColor(d)
	if !ok {
		return 0, false
	}
	return ParseColor(raw)
}

// ButtonColorValue parses buttonColor.
func ButtonColorValue(d Descriptor) (Color, bool) {
	raw, ok := ButtonColor(d)
	if !ok {
		return 0, false
	}
	return ParseColor(raw)
}

// SAMLProvider returns clientConfig.provider.
func SAMLProvider(d Descriptor) (string, bool) {
	cfg, ok := d.Map(KeyClientConfig)
	if !ok {
		return "", false
	}
	return cfg.String(KeyProvider)
}

// Predicate selects descriptors.
type Predicate func(Descriptor) bool

// ServiceIs matches descriptors whose service equals name.
func ServiceIs(name string) Predicate {
	return func(d Descriptor) bool {
		service, ok := ServiceName(d)
		return ok && service == name
	}
}

// Custom matches custom OAuth descriptors.
func Custom(d Descriptor) bool { return IsCustom(d) }

// Matching returns, in order, the descriptors satisfying pred.
func Matching(list []Descriptor, pred Predicate) []Descriptor {
	var out []Descriptor
	for _, d := range list {
		if pred(d) {
			out = append(out, d)
		}
	}
	return out
}

// FindByName returns the first descriptor holding name as one of its top-level
// values. The key carrying the provider name differs between server payloads.
func FindByName(list []Descriptor, name string) (Descriptor, bool) {
	for _, d := range list {
		if d.ContainsValue(name) {
			return d, true
		}
	}
	return nil, false
}
