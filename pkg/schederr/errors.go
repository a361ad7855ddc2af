package schederr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cuemby/stowsched/pkg/lock"
)

// Transient marks a condition the caller should retry on the next
// periodic run rather than treat as a hard failure.
type Transient struct {
	Op  string
	Err error
}

func (e *Transient) Error() string { return fmt.Sprintf("%s: transient: %v", e.Op, e.Err) }
func (e *Transient) Unwrap() error { return e.Err }

// NewTransient wraps err as a Transient condition for Op.
func NewTransient(op string, err error) *Transient {
	return &Transient{Op: op, Err: err}
}

// ContractViolation marks a job type that broke its static contract:
// a missing report_resources equivalent, or a malformed declaration.
type ContractViolation struct {
	JobType string
	Reason  string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("job type %q violates its resource-reporting contract: %s", e.JobType, e.Reason)
}

// Precondition marks missing input the caller must silently skip:
// an inventory cache miss, a dangling group reference. Never escalate.
type Precondition struct {
	Entity string
	Reason string
}

func (e *Precondition) Error() string {
	return fmt.Sprintf("precondition failed for %s: %s", e.Entity, e.Reason)
}

// CrossJobConflict reports that a candidate's resources are already
// held by another job, resolved from a lock.HeldError the way
// _process_lock_exception parses the trailing numeric holder id out
// of the original's lock exception message.
type CrossJobConflict struct {
	Msg         string
	HolderJob   string
	HolderKnown bool
}

func (e *CrossJobConflict) Error() string {
	if e.HolderKnown {
		return fmt.Sprintf("%s: intercrossing with job %s", e.Msg, e.HolderJob)
	}
	return fmt.Sprintf("%s: intercrossing with unknown job", e.Msg)
}

// knownJobs resolves a job id to "is this a job we know about", the
// Go analogue of job_processor.job_finder.jobs(ids=[holder_id]).
type knownJobs interface {
	Exists(jobID string) bool
}

// ProcessLockException turns a lock conflict into a CrossJobConflict,
// looking the holder up through finder the way the original resolves
// holder_jobs before logging. msg is the short action description
// ("Failed to cancel", "Failed to create").
func ProcessLockException(msg string, err error, finder knownJobs) error {
	var held *lock.HeldError
	if !errors.As(err, &held) {
		return NewTransient(msg, err)
	}

	holder := held.Holder
	if finder != nil && !finder.Exists(holder) {
		return &CrossJobConflict{Msg: msg, HolderJob: holder, HolderKnown: false}
	}
	return &CrossJobConflict{Msg: msg, HolderJob: holder, HolderKnown: true}
}

// HolderJobID extracts a numeric-looking holder id from a raw lock
// error string, mirroring the original's fragile
// str(exc).split()[-1] -> int(...) parse. Returns ("", false) when the
// trailing token is not numeric, in which case the caller should treat
// the exception as opaque and only log it.
func HolderJobID(raw string) (string, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", false
	}
	last := fields[len(fields)-1]
	if _, err := strconv.Atoi(last); err != nil {
		return "", false
	}
	return last, true
}
