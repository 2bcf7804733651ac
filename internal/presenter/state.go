package presenter

// State is the version check state.
type State int

const (
	Idle State = iota
	CheckingVersion
	VersionOK
	VersionWarned
	VersionBlocked
	ProtocolError
	CheckFailed
)

var stateNames = map[State]string{
	Idle:            "idle",
	CheckingVersion: "checking_version",
	VersionOK:       "version_ok",
	VersionWarned:   "version_warned",
	VersionBlocked:  "version_blocked",
	ProtocolError:   "protocol_error",
	CheckFailed:     "check_failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the version check has finished.
func (s State) Terminal() bool {
	return s >= VersionOK
}

// Proceed reports whether the user may continue to log in.
func (s State) Proceed() bool {
	return s == VersionOK || s == VersionWarned
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// AuthState is the enabled-accounts check state.
type AuthState int

const (
	AuthIdle AuthState = iota
	CheckingAuth
	AuthReady
)

func (s AuthState) String() string {
	switch s {
	case AuthIdle:
		return "idle"
	case CheckingAuth:
		return "checking_auth"
	case AuthReady:
		return "auth_ready"
	default:
		return "unknown"
	}
}

func (s AuthState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
