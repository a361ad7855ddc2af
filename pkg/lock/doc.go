/*
Package lock provides the mutual-exclusion primitive starters use to
guard the groups and groupsets a candidate job touches while that
job's resources are being reserved (sched/__init__.py's
sync_blocking_tasks / persistent_locks machinery).

A Locker hands out short-lived named leases, not long-held mutexes: a
starter acquires a lock for the duration of one CreateJobs candidate
check, releases it immediately after, and the scheduler's own resource
table is what actually keeps the job's resources reserved afterwards.
Two implementations are provided:

  - MemLocker, an in-process table guarded by a mutex. Sufficient for a
    single scheduler instance and for tests.
  - RaftLocker, a Raft-replicated lease table, for a scheduler that runs
    as a small cluster and needs the same candidate never admitted
    twice by two leaders racing each other. It is built on raft and
    raft-boltdb: a small FSM applies acquire/release commands through
    the Raft log, and
    TryLock refuses outright when this node is not the leader.

Both implementations return ErrLockHeld with the current holder's id
when a lock is already taken, mirroring the original's
LockAlreadyAcquiredError so pkg/jobqueue can resolve which other job
owns a contested group.
*/
package lock
