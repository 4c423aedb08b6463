package gate

// State is a stage of mint verification. States advance in declaration
// order until one of the terminal states is reached.
type State int

const (
	Received State = iota
	RandomnessDerived
	StyleResolved
	Rendered
	CandidateDecoded
	Compared
	Accepted
	Rejected
)

var stateNames = [...]string{
	Received:          "received",
	RandomnessDerived: "randomness_derived",
	StyleResolved:     "style_resolved",
	Rendered:          "rendered",
	CandidateDecoded:  "candidate_decoded",
	Compared:          "compared",
	Accepted:          "accepted",
	Rejected:          "rejected",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s is Accepted or Rejected.
func (s State) Terminal() bool { return s == Accepted || s == Rejected }

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
