package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/stowsched/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
scheduler:
  recover_dc:
    enabled: true
    recover_dc_period: 30s
    autoapprove: false
    max_executing_jobs: 2
    keys_cf: 2.5
    timestamp_cf: 1.0
    min_key_loss: 5
  move:
    enabled: true
    move_period: 120s
    uncoupled_space_max_bytes: 1000000
    uncoupled_space_min_bytes: 100000
    uncoupled_diff_sensitive_percent: 75
jobs:
  recover_dc:
    max_executing_jobs: 2
    resources_limits:
      HOST_IN: 50
      FS: 30
  ttl_cleanup_job:
    max_idle_days: 90
metadata:
  scheduler:
    db: /tmp/stowsched-test
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_ReadsFileValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.True(t, cfg.Scheduler.RecoverDC.Enabled)
	assert.Equal(t, 2, cfg.Scheduler.RecoverDC.MaxExecuting)
	assert.Equal(t, 2.5, cfg.Scheduler.RecoverDCTunables.KeysCF)
	assert.EqualValues(t, 5, cfg.Scheduler.RecoverDCTunables.MinKeyLoss)

	assert.Equal(t, int64(1000000), cfg.Scheduler.MoveTunables.UncoupledSpaceMaxBytes)
	assert.Equal(t, 90, cfg.TTLCleanupJob.MaxIdleDays)
	assert.Equal(t, "/tmp/stowsched-test", cfg.MetadataSchedulerDB)

	assert.Equal(t, 50, cfg.Jobs[types.JobTypeRecoverDC].ResourcesLimits[types.ResourceHostIn])
}

func TestLoad_AppliesDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Scheduler.RecoverDC.Enabled)
	assert.Equal(t, 3, cfg.Scheduler.RecoverDC.MaxExecuting)
	assert.Equal(t, 270, cfg.TTLCleanupJob.MaxIdleDays)
	assert.Equal(t, "/var/lib/stowsched", cfg.MetadataSchedulerDB)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	t.Setenv("STOWSCHED_JOBS_TTL_CLEANUP_JOB_MAX_IDLE_DAYS", "30")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.TTLCleanupJob.MaxIdleDays)
}
