package main

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/tuikaDLC/Kincord/config"
	"github.com/tuikaDLC/Kincord/discord"
	"github.com/tuikaDLC/Kincord/listener"
)

// discordSwitch forwards to the current Discord client. The client is
// rebuilt when the discord section of the config changes.
type discordSwitch struct {
	current atomic.Pointer[discord.Client]
}

func newDiscordSwitch(c *discord.Client) *discordSwitch {
	s := &discordSwitch{}
	s.current.Store(c)
	return s
}

func (s *discordSwitch) Client() *discord.Client {
	return s.current.Load()
}

func (s *discordSwitch) Replace(c *discord.Client) {
	s.current.Store(c)
}

func (s *discordSwitch) Deliver(ctx context.Context, msg discord.Message, endpointURL string) discord.Outcome {
	return s.Client().Deliver(ctx, msg, endpointURL)
}

func (s *discordSwitch) TestConnectivity(ctx context.Context, endpointURL, username string) bool {
	return s.Client().TestConnectivity(ctx, endpointURL, username)
}

type restarter interface {
	State() listener.State
	Restart(ctx context.Context) (listener.State, error)
}

/* reloader applies a config file change to the running relay.
 * Settings read per event take effect through the store; the Discord
 * client is rebuilt when its section changes; the listener restarts when
 * its bind address or timeouts change. logging, redis, diagnostics and
 * server.metrics_enabled only take effect on the next serve.
 */
type reloader struct {
	settings  *config.Store
	clients   *discordSwitch
	newClient func(config.Config) *discord.Client
	listener  restarter
	log       zerolog.Logger
}

func (r *reloader) apply(ctx context.Context, next *config.Config, err error) {
	if err == nil {
		err = next.Validate()
	}
	if err != nil {
		r.log.Error().Err(err).Msg("ignoring config change")
		return
	}

	prev := r.settings.Replace(*next)
	r.log.Info().Msg("config reloaded")

	if prev.Discord != next.Discord {
		r.clients.Replace(r.newClient(*next))
		r.log.Info().Msg("discord client reconfigured")
	}

	if listenerChanged(prev.Server, next.Server) && r.listener.State() == listener.Running {
		if _, err := r.listener.Restart(ctx); err != nil {
			r.log.Error().Err(err).Msg("restarting listener after config change")
		}
	}
}

func listenerChanged(prev, next config.ServerConfig) bool {
	return prev.Addr() != next.Addr() ||
		prev.ReadTimeout != next.ReadTimeout ||
		prev.WriteTimeout != next.WriteTimeout
}
