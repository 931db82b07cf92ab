package notify

import "github.com/rs/zerolog"

/* Notifier receives short human-readable status messages ("server started",
 * "record created notification sent"). Implementations must not block and
 * must not panic back into the caller's control flow.
 */
type Notifier interface {
	Notify(message string)
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(string) {}

// Func adapts a function to a Notifier.
type Func func(message string)

func (f Func) Notify(message string) { f(message) }

// Multi fans a message out to several notifiers.
func Multi(ns ...Notifier) Notifier {
	return multi(ns)
}

type multi []Notifier

func (m multi) Notify(message string) {
	for _, n := range m {
		Safe(n, message)
	}
}

// WhenEnabled forwards messages only while enabled reports true.
func WhenEnabled(enabled func() bool, n Notifier) Notifier {
	return Func(func(message string) {
		if enabled() {
			n.Notify(message)
		}
	})
}

// Log writes messages to a logger at info level.
func Log(log zerolog.Logger) Notifier {
	return Func(func(message string) {
		log.Info().Str("notification", message).Msg("notify")
	})
}

// Safe calls n.Notify and swallows any panic it raises.
func Safe(n Notifier, message string) {
	if n == nil {
		return
	}
	defer func() { _ = recover() }()
	n.Notify(message)
}
