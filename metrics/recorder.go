package metrics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tuikaDLC/Kincord/discord"
	"github.com/tuikaDLC/Kincord/relay"
)

/* Recorder is the in-process Collector. The relay service, the delivery
 * client and the listener report into it; exporters read from it.
 */
type Recorder struct {
	mu      sync.Mutex
	results map[string]int64

	succeeded atomic.Int64
	failed    atomic.Int64
	attempts  atomic.Int64
	retries   atomic.Int64

	listener atomic.Pointer[ListenerInfo]
}

func NewRecorder() *Recorder {
	r := &Recorder{results: make(map[string]int64)}
	r.listener.Store(&ListenerInfo{State: "stopped"})
	return r
}

// ObserveResult implements relay.Recorder.
func (r *Recorder) ObserveResult(status relay.Status, outcome discord.Outcome) {
	r.mu.Lock()
	r.results[status.String()]++
	r.mu.Unlock()

	r.attempts.Add(int64(outcome.Attempts))
	switch {
	case outcome.Success:
		r.succeeded.Add(1)
	case status == relay.DeliveryFailed:
		r.failed.Add(1)
	}
}

// ObserveRetry is meant for discord.WithRetryHook.
func (r *Recorder) ObserveRetry(discord.RetryEvent) {
	r.retries.Add(1)
}

// SetListener records the listener state.
func (r *Recorder) SetListener(state, addr string, up bool) {
	r.listener.Store(&ListenerInfo{State: state, Addr: addr, Up: up})
}

func (r *Recorder) Collect(ctx context.Context) (Metrics, error) {
	results, _ := r.GetResultCounts(ctx)
	deliveries, _ := r.GetDeliveries(ctx)
	listener, _ := r.GetListener(ctx)
	return Metrics{
		Results:    results,
		Deliveries: deliveries,
		Listener:   listener,
		Timestamp:  time.Now().UTC(),
	}, nil
}

func (r *Recorder) GetResultCounts(context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.results))
	for k, v := range r.results {
		out[k] = v
	}
	return out, nil
}

func (r *Recorder) GetDeliveries(context.Context) (DeliveryMetrics, error) {
	return DeliveryMetrics{
		Succeeded: r.succeeded.Load(),
		Failed:    r.failed.Load(),
		Attempts:  r.attempts.Load(),
		Retries:   r.retries.Load(),
	}, nil
}

func (r *Recorder) GetListener(context.Context) (ListenerInfo, error) {
	return *r.listener.Load(), nil
}
