package types

// SignalType is the discrete per-bar output of the signal reducer.
type SignalType string

const (
	// SignalTypeLongEntry asks a flat position to open long.
	SignalTypeLongEntry SignalType = "LONG_ENTRY"
	// SignalTypeShortEntry asks a flat position to open short.
	SignalTypeShortEntry SignalType = "SHORT_ENTRY"
	// SignalTypeNone is the default for every bar no rule matches.
	SignalTypeNone SignalType = "NONE"
)

// Direction maps the signal to +1, -1 or 0.
func (s SignalType) Direction() int {
	switch s {
	case SignalTypeLongEntry:
		return 1
	case SignalTypeShortEntry:
		return -1
	case SignalTypeNone:
		return 0
	default:
		return 0
	}
}

func (s SignalType) IsEntry() bool {
	return s == SignalTypeLongEntry || s == SignalTypeShortEntry
}
