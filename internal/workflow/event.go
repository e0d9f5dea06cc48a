package workflow

import (
	"time"

	"github.com/Cyclone1070/lumen/internal/provider/model"
)

// StateKind enumerates the agent states.
type StateKind string

const (
	StateIdle          StateKind = "idle"
	StateThinking      StateKind = "thinking"
	StateExecutingTool StateKind = "executingTool"
	StateResponding    StateKind = "responding"
	StateError         StateKind = "error"
	StateCancelled     StateKind = "cancelled"
)

// State is the agent's current state. Tool is set for StateExecutingTool and
// Err for StateError.
type State struct {
	Kind StateKind
	Tool string
	Err  error
}

func Idle() State                     { return State{Kind: StateIdle} }
func Thinking() State                 { return State{Kind: StateThinking} }
func ExecutingTool(name string) State { return State{Kind: StateExecutingTool, Tool: name} }
func Responding() State               { return State{Kind: StateResponding} }
func Failed(err error) State          { return State{Kind: StateError, Err: err} }
func Cancelled() State                { return State{Kind: StateCancelled} }

// Busy reports whether a run is in progress in this state.
func (s State) Busy() bool {
	switch s.Kind {
	case StateThinking, StateExecutingTool, StateResponding:
		return true
	default:
		return false
	}
}

func (s State) String() string {
	switch s.Kind {
	case StateExecutingTool:
		return "executingTool(" + s.Tool + ")"
	case StateError:
		if s.Err != nil {
			return "error(" + s.Err.Error() + ")"
		}
	}
	return string(s.Kind)
}

// Event is the interface for all workflow events.
// UI handles events via type switch.
type Event interface {
	isEvent()
}

// StateEvent is emitted on every agent state change.
type StateEvent struct {
	ConversationID string
	State          State
}

func (StateEvent) isEvent() {}

// ToolEvent is emitted after each tool call finishes.
type ToolEvent struct {
	ConversationID string
	Call           model.ToolCall
	Duration       time.Duration
}

func (ToolEvent) isEvent() {}

// DoneEvent is emitted when a run completes with user-visible text.
// Cancelled runs emit no DoneEvent.
type DoneEvent struct {
	ConversationID string
	Text           string
}

func (DoneEvent) isEvent() {}
