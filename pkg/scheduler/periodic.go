package scheduler

import (
	"fmt"
	"time"

	"github.com/cuemby/stowsched/pkg/config"
	"github.com/cuemby/stowsched/pkg/lock"
	"github.com/cuemby/stowsched/pkg/log"
	"github.com/cuemby/stowsched/pkg/metrics"
)

// StarterConfig is the subset of a scheduler.<name> config block
// RegisterPeriodicFunc needs to decide whether and how often to run.
type StarterConfig struct {
	Enabled bool
	Period  time.Duration
}

// RegisterPeriodicFunc wires fn into q under name, gated by cfg and
// guarded by a non-blocking lock named lockName (default
// "scheduler/<name>" when lockName is empty). Every firing: attempts
// the lock; on conflict, logs and re-arms without running fn; on
// success, runs fn (catching any panic), releases the lock, logs the
// outcome, and re-arms unconditionally — the catch-log-rearm loop
// that replaces the original's exception-as-control-flow style
// (SPEC_FULL.md design notes).
func RegisterPeriodicFunc(q *TimedQueue, locker lock.Locker, name, lockName string, cfg StarterConfig, fn func()) {
	if !cfg.Enabled {
		log.WithComponent("scheduler").Info().Str("starter", name).Msg("starter disabled by config, not scheduling")
		return
	}
	if lockName == "" {
		lockName = fmt.Sprintf("scheduler/%s", name)
	}
	period := cfg.Period
	if period <= 0 {
		period = time.Minute
	}

	logger := log.WithComponent("scheduler")

	var runOnce func()
	runOnce = func() {
		defer q.AddTaskIn(name, period, runOnce)

		holder := name
		lk, err := locker.TryLock(lockName, holder)
		if err != nil {
			logger.Info().Str("starter", name).Err(err).Msg("lock held elsewhere, skipping this run")
			return
		}
		defer lk.Unlock()

		timer := metrics.NewTimer()
		outcome := "ok"
		func() {
			defer func() {
				if r := recover(); r != nil {
					outcome = "panic"
					logger.Error().Str("starter", name).Interface("panic", r).Msg("starter run panicked")
				}
			}()
			fn()
		}()
		metrics.StarterRunsTotal.WithLabelValues(name, outcome).Inc()
		timer.ObserveDurationVec(metrics.StarterRunDuration, name)
		logger.Info().Str("starter", name).Str("outcome", outcome).Msg("starter run complete")
	}

	q.AddTaskIn(name, 0, runOnce)
}

// LoadStarterConfig adapts a config.StarterConfig (whose Period field
// already resolved scheduler.<name>.<name>_period) into the smaller
// StarterConfig this package consumes.
func LoadStarterConfig(sc config.StarterConfig) StarterConfig {
	return StarterConfig{Enabled: sc.Enabled, Period: sc.Period}
}
