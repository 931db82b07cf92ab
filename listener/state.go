package listener

/* State is the lifecycle state of the inbound listener
 * Follows the lifecycle: Stopped -> Starting -> Running -> Stopping -> Stopped
 */
type State int

const (
	Stopped State = iota + 1
	Starting
	Running
	Stopping
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// IsActive returns true while the listener is running or about to be
func (s State) IsActive() bool {
	return s == Starting || s == Running
}
