package wavrecorder

import (
	"fmt"
)

type State uint

const (
	StateIdle = State(iota)
	StateRecording
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("<unexpected_value_%d>", uint(s))
	}
}
