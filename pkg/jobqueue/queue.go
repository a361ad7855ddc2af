package jobqueue

import "github.com/cuemby/stowsched/pkg/types"

// JobPriorities is the default JOB_PRIORITIES table (spec.md §6):
// higher number wins ties under CancelCrossingJobs' force=false rule.
var JobPriorities = map[types.JobType]int{
	types.JobTypeRecoverDC:    1,
	types.JobTypeCoupleDefrag: 2,
	types.JobTypeTTLCleanup:   3,
	types.JobTypeMove:         5,
	types.JobTypeMDSCleanup:   1,
}

// StopAllowedTypes is STOP_ALLOWED_TYPES: job types CancelCrossingJobs
// is permitted to cancel even when force=false, provided the priority
// check already passed.
var StopAllowedTypes = map[types.JobType]bool{
	types.JobTypeRecoverDC:    true,
	types.JobTypeCoupleDefrag: true,
	types.JobTypeTTLCleanup:   true,
}

// Query selects jobs by any combination of statuses, types, involved
// groups, or explicit ids (job_finder.jobs in the original). A nil
// slice means "no filter on this dimension".
type Query struct {
	Statuses []types.JobStatus
	Types    []types.JobType
	Groups   []int
	IDs      []string
}

// Finder looks jobs up without mutating them.
type Finder interface {
	Jobs(q Query) ([]*types.Job, error)
	JobsCount(jobTypes []types.JobType, statuses []types.JobStatus) (int, error)
	// Exists reports whether jobID names a job this Finder knows
	// about, used by pkg/schederr to resolve a lock conflict's holder.
	Exists(jobID string) bool
}

// Processor is the external job-processor boundary the scheduler
// creates and cancels jobs through. CreateJob returns a *lock.HeldError
// (wrapped) when the job's groups are already locked by another job,
// mirroring the original's LockAlreadyAcquiredError.
type Processor interface {
	Finder
	// CreateJob creates a job of jobType. groups and resources come
	// from the job type's ResourceReporter; params is passed through
	// unchanged as the job's stored parameters. Returns a
	// *lock.HeldError (wrapped) when any group in groups is already
	// locked by a different job and force is false.
	CreateJob(jobType types.JobType, groups []int, resources types.ResourceDeclaration, params map[string]any, force bool) (*types.Job, error)
	StopJobsList(jobs []*types.Job) error
}
