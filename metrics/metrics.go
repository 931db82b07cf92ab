package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the relay.
type Metrics struct {
	// Results maps relay status name to the number of inbound events handled that way
	Results map[string]int64 `json:"results"`

	// Deliveries counts outbound Discord deliveries
	Deliveries DeliveryMetrics `json:"deliveries"`

	// Listener is the lifecycle state of the inbound listener
	Listener ListenerInfo `json:"listener"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// DeliveryMetrics summarises outbound traffic.
type DeliveryMetrics struct {
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Attempts  int64 `json:"attempts"`
	Retries   int64 `json:"retries"`
}

// ListenerInfo describes the inbound listener.
type ListenerInfo struct {
	State string `json:"state"`
	Addr  string `json:"addr"`
	Up    bool   `json:"up"`
}

// Collector defines the interface for collecting metrics from the relay.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetResultCounts returns the count of inbound events by relay status
	GetResultCounts(ctx context.Context) (map[string]int64, error)

	// GetDeliveries returns outbound delivery counters
	GetDeliveries(ctx context.Context) (DeliveryMetrics, error)

	// GetListener returns the listener state
	GetListener(ctx context.Context) (ListenerInfo, error)
}
