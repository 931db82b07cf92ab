package config

import "sync/atomic"

// Provider hands out the current settings snapshot.
type Provider interface {
	Current() Config
}

// Static is a Provider over a fixed snapshot.
type Static Config

func (s Static) Current() Config {
	return Config(s)
}

// Store is a Provider whose snapshot can be swapped atomically, e.g. on reload.
type Store struct {
	v atomic.Pointer[Config]
}

func NewStore(cfg Config) *Store {
	s := &Store{}
	s.Replace(cfg)
	return s
}

func (s *Store) Current() Config {
	return *s.v.Load()
}

// Replace swaps in a new snapshot and returns the previous one.
func (s *Store) Replace(cfg Config) Config {
	old := s.v.Swap(&cfg)
	if old == nil {
		return Config{}
	}
	return *old
}
