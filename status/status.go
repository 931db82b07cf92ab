package status

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Heartbeat advertises one relay instance and its listener state.
type Heartbeat struct {
	InstanceID string    `json:"instance_id" yaml:"instance_id"`
	Hostname   string    `json:"hostname" yaml:"hostname"`
	State      string    `json:"state" yaml:"state"`
	Addr       string    `json:"addr" yaml:"addr"`
	Version    string    `json:"version" yaml:"version"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// Store persists heartbeats with an expiry.
type Store interface {
	SetHeartbeat(ctx context.Context, hb Heartbeat, ttl time.Duration) error
}

// Source reports the current listener state and address.
type Source func() (state, addr string)

/* Publisher refreshes this instance's heartbeat every ttl/2 and whenever
 * Trigger is called, so state changes show up without waiting a full period.
 */
type Publisher struct {
	store      Store
	source     Source
	ttl        time.Duration
	instanceID string
	hostname   string
	version    string
	log        zerolog.Logger
	trigger    chan struct{}
}

func NewPublisher(store Store, source Source, ttl time.Duration, version string, log zerolog.Logger) *Publisher {
	hostname, _ := os.Hostname()
	return &Publisher{
		store:      store,
		source:     source,
		ttl:        ttl,
		instanceID: uuid.New().String(),
		hostname:   hostname,
		version:    version,
		log:        log,
		trigger:    make(chan struct{}, 1),
	}
}

func (p *Publisher) InstanceID() string {
	return p.instanceID
}

// Publish writes the heartbeat once.
func (p *Publisher) Publish(ctx context.Context) error {
	state, addr := p.source()
	hb := Heartbeat{
		InstanceID: p.instanceID,
		Hostname:   p.hostname,
		State:      state,
		Addr:       addr,
		Version:    p.version,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := p.store.SetHeartbeat(ctx, hb, p.ttl); err != nil {
		return fmt.Errorf("publishing heartbeat: %w", err)
	}
	return nil
}

// Trigger requests an immediate publish without blocking.
func (p *Publisher) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run publishes until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	interval := p.ttl / 2
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.publish(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.trigger:
		}
		p.publish(ctx)
	}
}

func (p *Publisher) publish(ctx context.Context) {
	if err := p.Publish(ctx); err != nil && ctx.Err() == nil {
		p.log.Warn().Err(err).Msg("listener heartbeat")
	}
}
