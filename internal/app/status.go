package service

// DatabaseState is the machine-readable outcome of a database probe.
type DatabaseState string

// Probe outcomes, one per database text.
const (
	StateNotAvailable           DatabaseState = "not_available"
	StateAvailableUninitialized DatabaseState = "available_uninitialized"
	StateConnected              DatabaseState = "connected"
	StateConnectedWithError     DatabaseState = "connected_with_error"
	StateModuleMissing          DatabaseState = "module_missing"
	StateError                  DatabaseState = "error"
)

// Display strings consumed by the frontend.
const (
	backendRunning = "✅ Running"

	textNotAvailable      = "❌ Not Available"
	textUninitialized     = "⚠️  Available but not initialized"
	textConnected         = "✅ Connected & Working"
	textConnectedErrorFmt = "⚠️  Connected but Error: "
	textModuleMissing     = "❌ Database module not found (run enable-database first)"
	textErrorFmt          = "❌ Error: "

	textSet    = "✅ Set"
	textNotSet = "❌ Not Set"

	connConnected    = "Connected"
	connNotConnected = "Not Connected"

	maxCollections   = 10
	maxErrorMsgRunes = 50
)

// DatabaseStatus is the diagnostic payload served on /test.
type DatabaseStatus struct {
	Backend          string        `json:"backend"`
	Database         string        `json:"database"`
	DatabaseState    DatabaseState `json:"database_state"`
	DatabaseURL      string        `json:"database_url"`
	DatabaseName     string        `json:"database_name"`
	ConnectionStatus string        `json:"connection_status"`
	Collections      []string      `json:"collections"`
}

func newDatabaseStatus() DatabaseStatus {
	return DatabaseStatus{
		Backend:          backendRunning,
		Database:         textNotAvailable,
		DatabaseState:    StateNotAvailable,
		ConnectionStatus: connNotConnected,
		Collections:      []string{},
	}
}

func (s *DatabaseStatus) set(state DatabaseState, text string) {
	s.DatabaseState = state
	s.Database = text
}

func (s *DatabaseStatus) setError(err error) {
	s.set(StateError, textErrorFmt+truncate(err.Error(), maxErrorMsgRunes))
}

func (s *DatabaseStatus) setConnectedError(err error) {
	s.set(StateConnectedWithError, textConnectedErrorFmt+truncate(err.Error(), maxErrorMsgRunes))
}

func presence(set bool) string {
	if set {
		return textSet
	}
	return textNotSet
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
