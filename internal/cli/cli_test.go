package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/meshboot/internal/supervisor"
	"github.com/specialistvlad/meshboot/internal/validate"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		args     []string
		wantPath string
		wantExit bool
		wantCode int
	}{
		{name: "positional path", args: []string{"ring.hcl"}, wantPath: "ring.hcl"},
		{name: "long flag wins", args: []string{"-topology", "a.hcl", "-t", "b.hcl", "c.hcl"}, wantPath: "a.hcl"},
		{name: "shorthand", args: []string{"-t", "b.yaml"}, wantPath: "b.yaml"},
		{name: "no path prints usage", args: []string{}, wantExit: true},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "unknown flag", args: []string{"-nope"}, wantCode: ExitUsage},
		{name: "bad log format", args: []string{"-log-format", "xml", "x.hcl"}, wantCode: ExitUsage},
		{name: "bad log level", args: []string{"-log-level", "loud", "x.hcl"}, wantCode: ExitUsage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := &bytes.Buffer{}

			cfg, exit, err := Parse(tc.args, out)

			if tc.wantCode != 0 {
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			if tc.wantExit {
				assert.Nil(t, cfg)
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			assert.Equal(t, tc.wantPath, cfg.TopologyPath)
		})
	}
}

func TestParse_AllOptions(t *testing.T) {
	t.Parallel()

	cfg, exit, err := Parse([]string{
		"-var", "peer=3", "-var", "pdr=0.1",
		"-check",
		"-duration", "2s",
		"-healthcheck-port", "8080",
		"-log-format", "TEXT",
		"-log-level", "debug",
		"-parallelism", "4",
		"-events-url", "http://localhost:3000",
		"-probe",
		"-seed", "42",
		"-relay-delay", "5ms",
		"ring.hcl",
	}, &bytes.Buffer{})

	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, []string{"peer=3", "pdr=0.1"}, cfg.Variables)
	assert.True(t, cfg.CheckOnly)
	assert.Equal(t, 2*time.Second, cfg.Duration)
	assert.Equal(t, 8080, cfg.HealthcheckPort)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, "http://localhost:3000", cfg.EventsURL)
	assert.Equal(t, supervisor.DefaultInterval, cfg.PollInterval)
	assert.True(t, cfg.Probe)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 5*time.Millisecond, cfg.RelayDelay)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	violation := &validate.Violation{Check: validate.CheckUniqueIDs, Reason: validate.ErrIDCollision}

	assert.Equal(t, ExitInvalid, ExitCode(fmt.Errorf("topology rejected: %w", violation)))
	assert.Equal(t, ExitUsage, ExitCode(&ExitError{Code: ExitUsage, Message: "bad flag"}))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
}
