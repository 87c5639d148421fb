package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frizo/stablecoin_engine/internal/config"
	"frizo/stablecoin_engine/internal/logger"
	"frizo/stablecoin_engine/internal/metrics"
)

const testdata = "../../internal/scenario/testdata"

func newTestConfig(scenario string) *config.Config {
	return &config.Config{
		LogLevel:       "error",
		DeploymentFile: filepath.Join(testdata, "deployment.yml"),
		ScenarioFile:   scenario,
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Scenario", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		m, err := metrics.New(registry)
		require.NoError(t, err)

		var out bytes.Buffer
		err = run(ctx, newTestConfig(filepath.Join(testdata, "liquidation.yml")), logger.Discard(), m, &out)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "0 unexpected")

		var metricsOut bytes.Buffer
		require.NoError(t, writeMetrics(&metricsOut, registry))
		assert.Contains(t, metricsOut.String(), "stablecoin_engine_liquidations_total 1")
	})

	t.Run("NoScenario", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(ctx, newTestConfig(""), logger.Discard(), nil, &out))
		assert.Empty(t, out.String())
	})

	t.Run("UnexpectedOutcome", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scenario.yml")
		content := "name: bad\nsteps:\n  - {action: mint, user: alice, amount: \"1\"}\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		var out bytes.Buffer
		err := run(ctx, newTestConfig(path), logger.Discard(), nil, &out)
		require.ErrorIs(t, err, errScenarioFailed)
		assert.Contains(t, out.String(), "UNEXPECTED")
	})

	t.Run("MissingDeployment", func(t *testing.T) {
		cfg := newTestConfig("")
		cfg.DeploymentFile = filepath.Join(t.TempDir(), "missing.yml")
		require.Error(t, run(ctx, cfg, logger.Discard(), nil, &bytes.Buffer{}))
	})
}
