package app

// Build-time values, overridable with -ldflags "-X github.com/charlesng35/chatgate/internal/app.RequiredServerVersion=...".
var (
	RequiredServerVersion    = "0.62.0"
	RecommendedServerVersion = "0.65.0"
	Version                  = "dev"
)
