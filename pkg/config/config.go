package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cuemby/stowsched/pkg/types"
	"github.com/spf13/viper"
)

// StarterConfig is the common scheduler.<starter>.* block every
// starter reads before doing anything else (spec.md §4, step "reads
// scheduler.<name>.enabled").
type StarterConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Period       time.Duration `mapstructure:"-"`
	Autoapprove  bool          `mapstructure:"autoapprove"`
	MaxExecuting int           `mapstructure:"max_executing_jobs"`
}

// RecoverDCConfig is scheduler.recover_dc's starter-specific block.
type RecoverDCConfig struct {
	KeysCF      float64 `mapstructure:"keys_cf"`
	TimestampCF float64 `mapstructure:"timestamp_cf"`
	MinKeyLoss  int64   `mapstructure:"min_key_loss"`
}

// MoveConfig is scheduler.move's starter-specific block.
type MoveConfig struct {
	UncoupledSpaceMaxBytes        int64   `mapstructure:"uncoupled_space_max_bytes"`
	UncoupledSpaceMinBytes        int64   `mapstructure:"uncoupled_space_min_bytes"`
	UncoupledDiffSensitivePercent float64 `mapstructure:"uncoupled_diff_sensitive_percent"`
}

// TTLCleanupConfig is scheduler.ttl_cleanup's starter-specific block.
type TTLCleanupConfig struct {
	YTCluster        string        `mapstructure:"yt_cluster"`
	YTToken          string        `mapstructure:"yt_token"`
	YTAttempts       int           `mapstructure:"yt_attempts"`
	YTDelay          time.Duration `mapstructure:"-"`
	AggregationTable string        `mapstructure:"aggregation_table"`
	TSKVLogTable     string        `mapstructure:"tskv_log_table"`
	TTLThreshold     int64         `mapstructure:"ttl_threshold"`
}

// JobConfig is jobs.<type>'s block.
type JobConfig struct {
	MaxExecutingJobs int                        `mapstructure:"max_executing_jobs"`
	ResourcesLimits  map[types.ResourceType]int `mapstructure:"resources_limits"`
}

// SchedulerConfig groups every starter's configuration.
type SchedulerConfig struct {
	RecoverDC          StarterConfig
	RecoverDCTunables  RecoverDCConfig
	CoupleDefrag       StarterConfig
	Move               StarterConfig
	MoveTunables       MoveConfig
	TTLCleanup         StarterConfig
	TTLCleanupTunables TTLCleanupConfig
}

// TTLCleanupJobParams is jobs.ttl_cleanup_job's per-task fan-out
// tuning, passed through verbatim as ttl_cleanup job parameters
// (spec.md §4.7).
type TTLCleanupJobParams struct {
	MaxIdleDays int
	BatchSize   int
	Attempts    int
	Nproc       int
	WaitTimeout time.Duration
}

// Config is the scheduler's whole configuration tree (spec.md §6).
type Config struct {
	Scheduler SchedulerConfig
	Jobs      map[types.JobType]JobConfig
	// TTLCleanupJob is jobs.ttl_cleanup_job.*.
	TTLCleanupJob TTLCleanupJobParams
	// MetadataSchedulerDB is metadata.scheduler.db: the dataDir the
	// historic-state store and the lease-table Raft group persist under.
	MetadataSchedulerDB string
}

const envPrefix = "stowsched"

// starterNames names every scheduler.<name> block and its period
// key, so periods and enabled flags can be set generically.
var starterNames = []string{"recover_dc", "couple_defrag", "move", "ttl_cleanup"}

// Load reads path (a YAML file) as the configuration baseline, then
// overlays STOWSCHED_-prefixed environment variables (dots become
// underscores, matching viper's conventional env-key mapping).
// An empty path skips the file and relies on defaults plus env vars.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{Jobs: make(map[types.JobType]JobConfig)}

	for _, name := range starterNames {
		sc := StarterConfig{
			Enabled:      v.GetBool(fmt.Sprintf("scheduler.%s.enabled", name)),
			Period:       v.GetDuration(fmt.Sprintf("scheduler.%s.%s_period", name, name)),
			Autoapprove:  v.GetBool(fmt.Sprintf("scheduler.%s.autoapprove", name)),
			MaxExecuting: v.GetInt(fmt.Sprintf("scheduler.%s.max_executing_jobs", name)),
		}
		switch name {
		case "recover_dc":
			cfg.Scheduler.RecoverDC = sc
			cfg.Scheduler.RecoverDCTunables = RecoverDCConfig{
				KeysCF:      v.GetFloat64("scheduler.recover_dc.keys_cf"),
				TimestampCF: v.GetFloat64("scheduler.recover_dc.timestamp_cf"),
				MinKeyLoss:  v.GetInt64("scheduler.recover_dc.min_key_loss"),
			}
		case "couple_defrag":
			cfg.Scheduler.CoupleDefrag = sc
		case "move":
			cfg.Scheduler.Move = sc
			cfg.Scheduler.MoveTunables = MoveConfig{
				UncoupledSpaceMaxBytes:        v.GetInt64("scheduler.move.uncoupled_space_max_bytes"),
				UncoupledSpaceMinBytes:        v.GetInt64("scheduler.move.uncoupled_space_min_bytes"),
				UncoupledDiffSensitivePercent: v.GetFloat64("scheduler.move.uncoupled_diff_sensitive_percent"),
			}
		case "ttl_cleanup":
			cfg.Scheduler.TTLCleanup = sc
			cfg.Scheduler.TTLCleanupTunables = TTLCleanupConfig{
				YTCluster:        v.GetString("scheduler.ttl_cleanup.yt_cluster"),
				YTToken:          v.GetString("scheduler.ttl_cleanup.yt_token"),
				YTAttempts:       v.GetInt("scheduler.ttl_cleanup.yt_attempts"),
				YTDelay:          v.GetDuration("scheduler.ttl_cleanup.yt_delay"),
				AggregationTable: v.GetString("scheduler.ttl_cleanup.aggregation_table"),
				TSKVLogTable:     v.GetString("scheduler.ttl_cleanup.tskv_log_table"),
				TTLThreshold:     v.GetInt64("scheduler.ttl_cleanup.ttl_threshold"),
			}
		}
	}

	for _, jt := range []types.JobType{
		types.JobTypeRecoverDC, types.JobTypeCoupleDefrag, types.JobTypeMove,
		types.JobTypeTTLCleanup, types.JobTypeMDSCleanup,
	} {
		prefix := fmt.Sprintf("jobs.%s", jt)
		limits := make(map[types.ResourceType]int)
		for _, rt := range []types.ResourceType{
			types.ResourceHostIn, types.ResourceHostOut, types.ResourceCPU, types.ResourceFS,
		} {
			key := fmt.Sprintf("%s.resources_limits.%s", prefix, rt)
			if v.IsSet(key) {
				limits[rt] = v.GetInt(key)
			}
		}
		cfg.Jobs[jt] = JobConfig{
			MaxExecutingJobs: v.GetInt(fmt.Sprintf("%s.max_executing_jobs", prefix)),
			ResourcesLimits:  limits,
		}
	}

	cfg.TTLCleanupJob = TTLCleanupJobParams{
		MaxIdleDays: v.GetInt("jobs.ttl_cleanup_job.max_idle_days"),
		BatchSize:   v.GetInt("jobs.ttl_cleanup_job.batch_size"),
		Attempts:    v.GetInt("jobs.ttl_cleanup_job.attempts"),
		Nproc:       v.GetInt("jobs.ttl_cleanup_job.nproc"),
		WaitTimeout: v.GetDuration("jobs.ttl_cleanup_job.wait_timeout"),
	}
	cfg.MetadataSchedulerDB = v.GetString("metadata.scheduler.db")

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	for _, name := range starterNames {
		v.SetDefault(fmt.Sprintf("scheduler.%s.enabled", name), true)
		v.SetDefault(fmt.Sprintf("scheduler.%s.%s_period", name, name), "60s")
		v.SetDefault(fmt.Sprintf("scheduler.%s.autoapprove", name), false)
		v.SetDefault(fmt.Sprintf("scheduler.%s.max_executing_jobs", name), 3)
	}
	v.SetDefault("scheduler.recover_dc.keys_cf", 1.0)
	v.SetDefault("scheduler.recover_dc.timestamp_cf", 1.0)
	v.SetDefault("scheduler.recover_dc.min_key_loss", int64(1))

	v.SetDefault("scheduler.move.uncoupled_space_max_bytes", int64(0))
	v.SetDefault("scheduler.move.uncoupled_space_min_bytes", int64(0))
	v.SetDefault("scheduler.move.uncoupled_diff_sensitive_percent", 50.0)

	v.SetDefault("scheduler.ttl_cleanup.yt_attempts", 3)
	v.SetDefault("scheduler.ttl_cleanup.yt_delay", "5s")
	v.SetDefault("scheduler.ttl_cleanup.ttl_threshold", int64(0))

	v.SetDefault("jobs.ttl_cleanup_job.max_idle_days", 270)
	v.SetDefault("jobs.ttl_cleanup_job.batch_size", 1000)
	v.SetDefault("jobs.ttl_cleanup_job.attempts", 3)
	v.SetDefault("jobs.ttl_cleanup_job.nproc", 3)
	v.SetDefault("jobs.ttl_cleanup_job.wait_timeout", "600s")
	v.SetDefault("metadata.scheduler.db", "/var/lib/stowsched")
}
