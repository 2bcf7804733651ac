package descriptor

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a packed ARGB pixel value.
type Color uint32

// Alpha, Red, Green and Blue unpack the channels.
func (c Color) Alpha() uint8 { return uint8(c >> 24) }
func (c Color) Red() uint8   { return uint8(c >> 16) }
func (c Color) Green() uint8 { return uint8(c >> 8) }
func (c Color) Blue() uint8  { return uint8(c) }

// Hex renders the color as #AARRGGBB.
func (c Color) Hex() string {
	return "#" + strings.ToUpper(leftPad(strconv.FormatUint(uint64(c), 16), 8))
}

func leftPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

var namedColors = map[string]Color{
	"black":     0xFF000000,
	"darkgray":  0xFF444444,
	"darkgrey":  0xFF444444,
	"gray":      0xFF888888,
	"grey":      0xFF888888,
	"lightgray": 0xFFCCCCCC,
	"lightgrey": 0xFFCCCCCC,
	"white":     0xFFFFFFFF,
	"red":       0xFFFF0000,
	"green":     0xFF00FF00,
	"blue":      0xFF0000FF,
	"yellow":    0xFFFFFF00,
	"cyan":      0xFF00FFFF,
	"magenta":   0xFFFF00FF,
	"aqua":      0xFF00FFFF,
	"fuchsia":   0xFFFF00FF,
	"lime":      0xFF00FF00,
	"maroon":    0xFF800000,
	"navy":      0xFF000080,
	"olive":     0xFF808000,
	"purple":    0xFF800080,
	"silver":    0xFFC0C0C0,
	"teal":      0xFF008080,
}

// ParseColor accepts #RRGGBB (opaque), #AARRGGBB and the common named colors.
func ParseColor(raw string) (Color, bool) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "#") {
		c, ok := namedColors[strings.ToLower(s)]
		return c, ok
	}

	hex := s[1:]
	if len(hex) != 6 && len(hex) != 8 {
		return 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	if len(hex) == 6 {
		v |= 0xFF000000
	}
	return Color(v), true
}

// MarshalText renders the color as #AARRGGBB.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText accepts any literal ParseColor accepts.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, ok := ParseColor(string(text))
	if !ok {
		return fmt.Errorf("descriptor: invalid color %q", text)
	}
	*c = parsed
	return nil
}
