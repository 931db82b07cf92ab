package relay

import "time"

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Status classifies how an inbound event was handled.
type Status int

const (
	Accepted Status = iota + 1
	Unauthorized
	Malformed
	Invalid
	DeliveryFailed
	Internal
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Unauthorized:
		return "unauthorized"
	case Malformed:
		return "malformed"
	case Invalid:
		return "invalid"
	case DeliveryFailed:
		return "delivery_failed"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Result is returned for every inbound event; Receive never returns an error.
type Result struct {
	Status  Status
	EventID string
	Message string
	Detail  string
}

// HealthStatus is the body of the liveness probe.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
