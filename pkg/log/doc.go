/*
Package log provides structured logging for the storage-balancer
scheduler using zerolog.

It wraps zerolog to give every package JSON-structured logging with
component-specific child loggers, a configurable level/format, and a
small set of helpers for the fields this domain logs most often:
couple (groupset) id, job id, and host address.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	schedLog := log.WithComponent("scheduler")
	schedLog.Info().Msg("admission cycle starting")

	couple := log.WithCouple("1001:1002")
	couple.Warn().Int("keys_diff", 42).Msg("recovery candidate")

Console format during development:

	2026-07-28T10:30:01Z INF admission cycle starting component=scheduler
	2026-07-28T10:30:02Z WRN recovery candidate couple=1001:1002 keys_diff=42

# Conventions

  - Use WithComponent in every subsystem (scheduler, starters, historystore,
    lock, jobqueue) so log lines can be filtered by component.
  - Prefer typed fields (.Str, .Int, .Err) over string formatting.
  - Never log secrets (lock leases, gRPC credentials).
*/
package log
