package jobqueue

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/cuemby/stowsched/pkg/lock"
	"github.com/cuemby/stowsched/pkg/types"
	"github.com/google/uuid"
)

// MemProcessor is an in-process reference Processor: it holds jobs in
// a map and uses a pkg/lock.Locker to serialise per-group access the
// way the real job processor's per-group locks do. It is the
// implementation MemLocker-based single-instance deployments and
// tests use; a cluster deployment substitutes its own Processor
// talking to the real job-execution system (out of scope here, per
// spec.md §1).
type MemProcessor struct {
	mu     sync.RWMutex
	locker lock.Locker
	jobs   map[string]*types.Job
}

// NewMemProcessor returns an empty MemProcessor guarded by locker.
func NewMemProcessor(locker lock.Locker) *MemProcessor {
	return &MemProcessor{locker: locker, jobs: make(map[string]*types.Job)}
}

func (p *MemProcessor) Jobs(q Query) ([]*types.Job, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	statusSet := toStatusSet(q.Statuses)
	typeSet := toTypeSet(q.Types)
	groupSet := toIntSet(q.Groups)
	idSet := toStringSet(q.IDs)

	var out []*types.Job
	for _, j := range p.jobs {
		if len(idSet) > 0 && !idSet[j.ID] {
			continue
		}
		if len(statusSet) > 0 && !statusSet[j.Status] {
			continue
		}
		if len(typeSet) > 0 && !typeSet[j.Type] {
			continue
		}
		if len(groupSet) > 0 && !anyIntIn(j.InvolvedGroups, groupSet) {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (p *MemProcessor) JobsCount(jobTypes []types.JobType, statuses []types.JobStatus) (int, error) {
	jobs, err := p.Jobs(Query{Types: jobTypes, Statuses: statuses})
	if err != nil {
		return 0, err
	}
	return len(jobs), nil
}

func (p *MemProcessor) Exists(jobID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.jobs[jobID]
	return ok
}

// CreateJob locks every group the job would touch (failing with a
// *lock.HeldError on the first conflict, exactly like
// _create_job/LockAlreadyAcquiredError), then records the job.
func (p *MemProcessor) CreateJob(jobType types.JobType, groups []int, resources types.ResourceDeclaration, params map[string]any, force bool) (*types.Job, error) {
	needApproving, _ := params["need_approving"].(bool)

	id := uuid.NewString()

	if !force {
		locked := make([]lock.Lock, 0, len(groups))
		for _, gid := range groups {
			name := groupLockName(gid)
			lk, err := p.locker.TryLock(name, id)
			if err != nil {
				for _, held := range locked {
					held.Unlock()
				}
				return nil, fmt.Errorf("jobqueue: create job: %w", err)
			}
			locked = append(locked, lk)
		}
		// Locks are only needed to detect a conflict at admission
		// time; the job row itself is the durable reservation.
		for _, held := range locked {
			held.Unlock()
		}
	}

	job := &types.Job{
		ID:             id,
		Type:           jobType,
		Status:         types.StatusNew,
		InvolvedGroups: groups,
		Resources:      resources,
		Priority:       JobPriorities[jobType],
		Params:         params,
		NeedApproving:  needApproving,
	}

	p.mu.Lock()
	p.jobs[id] = job
	p.mu.Unlock()

	return job, nil
}

// StopJobsList marks every job cancelled, returning an error (and
// cancelling none of them) if any single update fails, matching the
// original's atomic stop_jobs_list contract.
func (p *MemProcessor) StopJobsList(jobs []*types.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, j := range jobs {
		if _, ok := p.jobs[j.ID]; !ok {
			return fmt.Errorf("jobqueue: stop jobs: unknown job %q", j.ID)
		}
	}
	for _, j := range jobs {
		p.jobs[j.ID].Status = types.StatusCancelled
	}
	return nil
}

func groupLockName(gid int) string {
	return "group/" + strconv.Itoa(gid)
}

func toStatusSet(s []types.JobStatus) map[types.JobStatus]bool {
	if len(s) == 0 {
		return nil
	}
	out := make(map[types.JobStatus]bool, len(s))
	for _, v := range s {
		out[v] = true
	}
	return out
}

func toTypeSet(s []types.JobType) map[types.JobType]bool {
	if len(s) == 0 {
		return nil
	}
	out := make(map[types.JobType]bool, len(s))
	for _, v := range s {
		out[v] = true
	}
	return out
}

func toIntSet(s []int) map[int]bool {
	if len(s) == 0 {
		return nil
	}
	out := make(map[int]bool, len(s))
	for _, v := range s {
		out[v] = true
	}
	return out
}

func toStringSet(s []string) map[string]bool {
	if len(s) == 0 {
		return nil
	}
	out := make(map[string]bool, len(s))
	for _, v := range s {
		out[v] = true
	}
	return out
}

func anyIntIn(haystack []int, set map[int]bool) bool {
	for _, v := range haystack {
		if set[v] {
			return true
		}
	}
	return false
}
