/*
Package jobqueue defines the external job-processor boundary the
scheduler talks to (job_processor / job_finder in the original): the
registry of job-type ResourceReporters, the Finder/Processor
interfaces for looking up and mutating jobs, and MemProcessor, an
in-process reference implementation good enough for a single scheduler
instance and for tests.

Actually executing a job (running the recovery/defrag/move/cleanup
command graph against elliptics) is explicitly out of scope (spec.md
§1's Non-goals: "remote command execution transport"). What this
package owns is bookkeeping: creating a Job row and surfacing it for
the scheduler's resource accounting. MemProcessor.CreateJob takes the
pkg/lock.Lock on each involved group only to detect a conflicting
holder, and releases those locks before it returns; the locks are not
held for the job's lifetime, so a later job on the same groups is kept
out only by the scheduler's resource table.
*/
package jobqueue
