/*
Package schederr defines the typed error taxonomy the scheduler and
starters use instead of the original's exception-as-control-flow style
(sched/__init__.py wraps nearly every operation in a bare except and
logs-and-continues; see SPEC_FULL.md's design notes).

Four kinds matter to callers:

  - Transient: a retryable condition (a busy lock, a stale cache
    entry). The caller should skip the current candidate and try again
    next run, never abort the whole starter.
  - ContractViolation: a job type forgot to implement report_resources,
    or produced a malformed resource declaration. Logged loudly; the
    candidate is skipped, the starter keeps going.
  - Precondition: expected input is missing (inventory cache miss, a
    group referenced by a groupset that no longer exists). Silently
    skip the affected entity, per spec.md's Open Questions.
  - CrossJobConflict: the lock manager reports the resource is already
    held by another job. Carries the conflicting job's id so the
    scheduler can log "intercrossing with job X" the way
    _process_lock_exception does.

Nothing in this module type-switches on these kinds. The scheduler
logs a candidate's ResourceReporter error and moves on to the next
candidate, so one bad candidate never kills a run.
*/
package schederr
