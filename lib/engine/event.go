package engine

import (
	"fmt"
	"time"
)

type EventKind int

const (
	PowerOn EventKind = iota
	PowerOff
	BackgroundFlash
	TransitionTrigger
	ParamSet
)

func (k EventKind) String() string {
	switch k {
	case PowerOn:
		return "power_on"
	case PowerOff:
		return "power_off"
	case BackgroundFlash:
		return "background_flash"
	case TransitionTrigger:
		return "transition_trigger"
	case ParamSet:
		return "param_set"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one decoded control message. Immutable once constructed; owned
// by the queue until the state machine consumes it.
type Event struct {
	Kind       EventKind
	Address    string
	Args       []any
	ReceivedAt time.Time
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %v", e.Kind, e.Address, e.Args)
}
