package agent

// State is the orchestrator's position in the dialogue cycle.
type State int32

const (
	StateIdle State = iota
	StateAwaitingInput
	StateClassifying
	StateDispatching
	StateDirectReply
	StateExiting
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StateAwaitingInput: "awaiting_input",
	StateClassifying:   "classifying",
	StateDispatching:   "dispatching",
	StateDirectReply:   "direct_reply",
	StateExiting:       "exiting",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}
