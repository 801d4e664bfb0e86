package contrast

// State is the lifecycle state of an Analyzer.
type State int32

const (
	// StateIdle accepts a new analysis.
	StateIdle State = iota

	// StateRunning has an analysis in flight.
	StateRunning

	// StateCancelling has an in-flight analysis that was asked to stop.
	StateCancelling
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateCancelling:
		return "Cancelling"
	default:
		return "Unknown"
	}
}
