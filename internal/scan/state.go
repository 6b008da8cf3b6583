package scan

import "fmt"

// State is a step of the scan state machine.
//
//	Preprocessing -> Recognizing -> Extracting -> Done
//	                      |
//	                      +-> Failed
//
// A preprocessing failure still moves on to Recognizing (with the raw
// image). Failed is only entered from Recognizing.
type State int

const (
	StatePreprocessing State = iota
	StateRecognizing
	StateExtracting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StatePreprocessing: "preprocessing",
	StateRecognizing:   "recognizing",
	StateExtracting:    "extracting",
	StateDone:          "done",
	StateFailed:        "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name, so JSON output reads "recognizing"
// rather than 1.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
