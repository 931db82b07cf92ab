package main

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuikaDLC/Kincord/diagnostics"
	"github.com/tuikaDLC/Kincord/relay"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kincord.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "Kincord v"+relay.Version+"\n", out)
}

func TestValidateConfigCmd(t *testing.T) {
	t.Run("success - valid file", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 3100\ndiscord:\n  webhook_url: https://discord.test/hook\n")

		out, err := execute(t, "validate-config", "--config", path)

		require.NoError(t, err)
		assert.Contains(t, out, "VALIDATION PASSED")
		assert.Contains(t, out, "127.0.0.1:3100")
		assert.Contains(t, out, "webhook_token is empty")
	})

	t.Run("error - out of range port", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 70000\n")

		out, err := execute(t, "validate-config", "--config", path)

		require.Error(t, err)
		assert.Contains(t, out, "VALIDATION FAILED")
	})
}

func TestFindPortCmd(t *testing.T) {
	start := freePort(t)

	out, err := execute(t, "find-port", "--start", strconv.Itoa(start))

	require.NoError(t, err)
	port, err := strconv.Atoi(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, start)
	assert.LessOrEqual(t, port, start+diagnostics.PortSearchRange)
}

func TestDiagnoseCmd(t *testing.T) {
	discordSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer discordSrv.Close()
	path := writeConfig(t, "server:\n  port: "+strconv.Itoa(freePort(t))+"\ndiscord:\n  webhook_url: "+discordSrv.URL+"\n")

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "diagnose", "--config", path, "--format", "json")

		require.NoError(t, err)
		var report diagnostics.Report
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.True(t, report.PortAvailable)
		assert.True(t, report.EndpointReachable)
		assert.Equal(t, diagnostics.FirewallAdvice, report.FirewallStatus)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := execute(t, "diagnose", "--config", path, "--format", "yaml")

		require.NoError(t, err)
		var report map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &report))
		assert.Equal(t, true, report["endpoint_reachable"])
	})

	t.Run("error - unreachable endpoint fails the command", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer broken.Close()
		path := writeConfig(t, "server:\n  port: "+strconv.Itoa(freePort(t))+"\ndiscord:\n  webhook_url: "+broken.URL+"\n")

		out, err := execute(t, "diagnose", "--config", path)

		assert.ErrorIs(t, err, errUnhealthy)
		assert.Contains(t, out, "The following problems were detected:")
	})
}

func TestWriteReport(t *testing.T) {
	var out bytes.Buffer

	err := writeReport(&out, diagnostics.Report{}, "xml")

	assert.EqualError(t, err, `unknown format "xml"`)
}
