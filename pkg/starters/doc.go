/*
Package starters implements the four candidate-selection policies that
feed the scheduler (spec.md §4.3-§4.7): recover_dc, couple_defrag,
move, and ttl_cleanup. Each exposes a Run function that surveys a
cluster.Snapshot, ranks candidates by a family-specific weight, and
returns the ordered parameter list a scheduler.Scheduler.CreateJobs
call admits; only RunTTLCleanup also returns an error.

Every starter also provides a jobqueue.ResourceReporter for its job
type — the static report_resources equivalent the scheduler calls
before locking anything. cmd/stowsched registers them.
*/
package starters
