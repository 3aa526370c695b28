package tcp

// State is the lifecycle state of a Client
type State int32

// Client states. Reading and dispatching happen while Connected.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateShuttingDown
	StateTerminated
)

// String returns the state name used in logs and health messages
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
