package relay

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tuikaDLC/Kincord/config"
	"github.com/tuikaDLC/Kincord/discord"
	"github.com/tuikaDLC/Kincord/kintone"
	"github.com/tuikaDLC/Kincord/notify"
)

/* Service validates inbound kintone events, formats them and hands them to
 * the Discord delivery client. It reads a fresh settings snapshot per event.
 */

// UseCase defines the operations exposed to the HTTP layer
type UseCase interface {
	Receive(ctx context.Context, body []byte, token string) Result
	Health() HealthStatus
}

// Deliverer sends one message to one webhook URL.
type Deliverer interface {
	Deliver(ctx context.Context, msg discord.Message, endpointURL string) discord.Outcome
}

// Recorder observes how events were handled.
type Recorder interface {
	ObserveResult(status Status, outcome discord.Outcome)
}

type Service struct {
	settings  config.Provider
	deliverer Deliverer
	notifier  notify.Notifier
	recorder  Recorder
	log       zerolog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService creates a relay service with dependency injection
func NewService(settings config.Provider, deliverer Deliverer, opts ...Option) *Service {
	s := &Service{
		settings:  settings,
		deliverer: deliverer,
		notifier:  notify.Nop{},
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateToken accepts any token when configured is empty, otherwise only
// an exact match.
func ValidateToken(configured, presented string) bool {
	if configured == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}

// Receive handles one inbound event end to end.
func (s *Service) Receive(ctx context.Context, body []byte, token string) (res Result) {
	eventID := uuid.New().String()
	log := s.log.With().Str("event_id", eventID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("handling kintone event")
			res = Result{Status: Internal, EventID: eventID, Message: "Internal server error", Detail: fmt.Sprint(r)}
			s.observe(res.Status, discord.Outcome{})
		}
	}()

	cfg := s.settings.Current()

	if cfg.Kintone.WebhookToken == "" {
		log.Warn().Msg("webhook token is not configured; skipping validation")
	}
	if !ValidateToken(cfg.Kintone.WebhookToken, token) {
		log.Warn().Msg("invalid webhook token")
		s.observe(Unauthorized, discord.Outcome{})
		return Result{Status: Unauthorized, EventID: eventID, Message: "Invalid webhook token"}
	}

	ev, err := kintone.Parse(body)
	if err != nil {
		status := Invalid
		if errors.Is(err, kintone.ErrMalformedPayload) {
			status = Malformed
		}
		log.Warn().Err(err).Msg("rejecting kintone event")
		s.observe(status, discord.Outcome{})
		return Result{Status: status, EventID: eventID, Message: "Invalid payload", Detail: err.Error()}
	}

	log.Info().
		Str("type", ev.RawType).
		Str("app_id", ev.AppID).
		Str("app_name", ev.AppName).
		Str("record_id", ev.RecordID).
		Msg("received kintone event")

	formatter := discord.Formatter{Locale: discord.LocaleFor(cfg.Discord.Locale), Now: s.now}
	msg := formatter.Format(ev, cfg.Discord.Username, cfg.Discord.AvatarURL)

	// The caller hanging up must not cut the retry loop short.
	outcome := s.deliverer.Deliver(context.WithoutCancel(ctx), msg, cfg.Discord.WebhookURL)
	if !outcome.Success {
		log.Error().
			Int("attempts", outcome.Attempts).
			Int("status", outcome.StatusCode).
			Str("detail", outcome.Detail()).
			Msg("delivering kintone event to discord")
		s.observe(DeliveryFailed, outcome)
		return Result{Status: DeliveryFailed, EventID: eventID, Message: "Internal server error", Detail: outcome.Detail()}
	}

	notify.Safe(s.notifier, formatter.Locale.NotificationText(ev.Type))
	log.Info().Int("attempts", outcome.Attempts).Msg("kintone event relayed")
	s.observe(Accepted, outcome)

	return Result{Status: Accepted, EventID: eventID, Message: "Notification sent successfully"}
}

// Health reports liveness; it does not probe dependencies.
func (s *Service) Health() HealthStatus {
	return HealthStatus{Status: "healthy", Timestamp: s.now().UTC(), Version: Version}
}

func (s *Service) observe(status Status, outcome discord.Outcome) {
	if s.recorder != nil {
		s.recorder.ObserveResult(status, outcome)
	}
}
