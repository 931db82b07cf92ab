package diagnostics_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuikaDLC/Kincord/diagnostics"
	"github.com/tuikaDLC/Kincord/notify"
)

type staticRunner diagnostics.Report

func (r staticRunner) Run(context.Context) diagnostics.Report {
	return diagnostics.Report(r)
}

func TestScheduler(t *testing.T) {
	t.Run("error - invalid schedule", func(t *testing.T) {
		_, err := diagnostics.NewScheduler("every so often", staticRunner{}, nil, zerolog.Nop())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing diagnostics schedule")
	})

	t.Run("unhealthy run notifies", func(t *testing.T) {
		var notes []string
		runner := staticRunner{Errors: []string{"Port 3000 is already in use."}}
		s, err := diagnostics.NewScheduler("@every 1h", runner,
			notify.Func(func(m string) { notes = append(notes, m) }), zerolog.Nop())
		require.NoError(t, err)

		s.RunOnce()

		require.Len(t, notes, 1)
		assert.Contains(t, notes[0], "already in use")
		assert.Equal(t, runner.Errors, s.Last().Errors)
	})

	t.Run("healthy run stays quiet", func(t *testing.T) {
		var notes []string
		s, err := diagnostics.NewScheduler("*/5 * * * *", staticRunner{PortAvailable: true, EndpointReachable: true},
			notify.Func(func(m string) { notes = append(notes, m) }), zerolog.Nop())
		require.NoError(t, err)

		s.Start()
		s.RunOnce()
		s.Stop()

		assert.Empty(t, notes)
		assert.True(t, s.Last().IsHealthy())
	})
}
