package lock

import (
	"errors"
	"fmt"
)

// ErrLockHeld is returned by TryLock when the named resource is
// already leased to a different holder.
var ErrLockHeld = errors.New("lock: held by another holder")

// ErrNotLeader is returned by a Raft-backed Locker when this node
// cannot service writes because it is not the current leader.
var ErrNotLeader = errors.New("lock: this node is not the raft leader")

// HeldError wraps ErrLockHeld with the id of the current holder, so
// callers can decide whether the conflict is with themselves (a
// re-entrant acquire) or with an unrelated job.
type HeldError struct {
	Name   string
	Holder string
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("lock: %q held by %q", e.Name, e.Holder)
}

func (e *HeldError) Unwrap() error { return ErrLockHeld }

// Lock is a held lease on a named resource. Callers must call Unlock
// once they are done, normally via defer immediately after a
// successful TryLock.
type Lock interface {
	// Name is the resource name this lease covers.
	Name() string
	// Holder is the id that was recorded as owning this lease.
	Holder() string
	// Unlock releases the lease. Unlocking twice is a no-op.
	Unlock() error
}

// Locker grants short-lived named leases. Implementations must be
// safe for concurrent use.
type Locker interface {
	// TryLock attempts to acquire name on behalf of holder. It never
	// blocks: if name is already held by a different holder, it
	// returns a *HeldError immediately.
	TryLock(name, holder string) (Lock, error)
}
