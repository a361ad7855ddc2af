package scheduler

import (
	"sync"

	"github.com/cuemby/stowsched/pkg/events"
	"github.com/cuemby/stowsched/pkg/historystore"
	"github.com/cuemby/stowsched/pkg/jobqueue"
	"github.com/cuemby/stowsched/pkg/log"
	"github.com/cuemby/stowsched/pkg/metrics"
	"github.com/cuemby/stowsched/pkg/schederr"
	"github.com/cuemby/stowsched/pkg/types"
	"github.com/rs/zerolog"
)

// resourceRow is one holder's share of a ResourceKey.
type resourceRow struct {
	percent float64
	jobID   string
}

// Params carries the per-call overrides CreateJobs needs
// (sched_params in the original): the concurrency cap for this job
// type, whether new jobs auto-approve, and whether cancellation may
// proceed regardless of priority.
type Params struct {
	MaxExecutingJobs int
	Autoapprove      bool
	Force            bool
}

// Scheduler is the admission, resource-accounting, and preemption
// core every starter submits candidates to (spec.md §4.2).
type Scheduler struct {
	processor  jobqueue.Processor
	registry   *jobqueue.Registry
	history    *historystore.Store
	priorities map[types.JobType]int
	resLimits  map[types.JobType]map[types.ResourceType]int
	logger     zerolog.Logger
	events     *events.Broker

	mu       sync.Mutex
	res      map[types.ResourceKey][]resourceRow
	jobCount map[types.JobType]int
}

// New builds a Scheduler. resLimits maps (job type, resource type) to
// the concurrency cap used to convert a raw resource declaration into
// percent demand (jobs.<type>.resources_limits in config).
func New(processor jobqueue.Processor, registry *jobqueue.Registry, history *historystore.Store, priorities map[types.JobType]int, resLimits map[types.JobType]map[types.ResourceType]int) *Scheduler {
	return &Scheduler{
		processor:  processor,
		registry:   registry,
		history:    history,
		priorities: priorities,
		resLimits:  resLimits,
		logger:     log.WithComponent("scheduler"),
		res:        make(map[types.ResourceKey][]resourceRow),
		jobCount:   make(map[types.JobType]int),
	}
}

// SetEvents attaches a broker CreateJobs and CancelCrossingJobs
// publish job-lifecycle events to. A Scheduler with no broker attached
// publishes nothing.
func (s *Scheduler) SetEvents(b *events.Broker) {
	s.events = b
}

func (s *Scheduler) publish(evtType events.EventType, jobType types.JobType, jobID, msg string) {
	if s.events == nil {
		return
	}
	s.events.Publish(&events.Event{Type: evtType, JobType: string(jobType), JobID: jobID, Message: msg})
}

// UpdateResourceStat rebuilds res and jobCount from every job whose
// status is still Active, charging FS and GROUP resources 100 and
// host resources floor(100/max(limit,1)).
func (s *Scheduler) UpdateResourceStat() error {
	jobs, err := s.processor.Jobs(jobqueue.Query{Statuses: types.ActiveStatuses})
	if err != nil {
		return schederr.NewTransient("update_resource_stat", err)
	}

	res := make(map[types.ResourceKey][]resourceRow)
	counts := make(map[types.JobType]int)

	for _, j := range jobs {
		counts[j.Type]++
		demand := s.ConvertResourceRepresentation(j.Resources, j.InvolvedGroups, j.Type)
		for key, pct := range demand {
			res[key] = append(res[key], resourceRow{percent: pct, jobID: j.ID})
		}
	}

	s.mu.Lock()
	s.res = res
	s.jobCount = counts
	s.mu.Unlock()

	for rt, rows := range res {
		metrics.ResourceOccupancy.WithLabelValues(string(rt.Type)).Set(float64(len(rows)))
	}
	return nil
}

// percentFor returns the percent-of-100 charge for one instance of rt
// under jobType, per the concurrency-cap table.
func (s *Scheduler) percentFor(jobType types.JobType, rt types.ResourceType) float64 {
	switch rt {
	case types.ResourceGroup, types.ResourceFS:
		return 100
	}
	limit := 1
	if byType, ok := s.resLimits[jobType]; ok {
		if l, ok := byType[rt]; ok && l > 0 {
			limit = l
		}
	}
	return float64(100 / limit)
}

// ConvertResourceRepresentation converts a job's raw declaration into
// the demand map the scheduler accounts against: group ids as GROUP
// resources, plus host/fs resources at their configured percent
// charge (spec.md §4.2).
func (s *Scheduler) ConvertResourceRepresentation(resources types.ResourceDeclaration, groups []int, jobType types.JobType) map[types.ResourceKey]float64 {
	demand := make(map[types.ResourceKey]float64)

	for _, gid := range groups {
		demand[types.GroupResourceKey(gid)] = 100
	}
	for _, addr := range resources.HostIn {
		demand[types.HostResourceKey(types.ResourceHostIn, addr)] = s.percentFor(jobType, types.ResourceHostIn)
	}
	for _, addr := range resources.HostOut {
		demand[types.HostResourceKey(types.ResourceHostOut, addr)] = s.percentFor(jobType, types.ResourceHostOut)
	}
	for _, addr := range resources.CPU {
		demand[types.HostResourceKey(types.ResourceCPU, addr)] = s.percentFor(jobType, types.ResourceCPU)
	}
	for _, ref := range resources.FS {
		demand[types.FSResourceKey(ref.Host, ref.FSID)] = 100
	}
	return demand
}

// GetBusyHosts returns the addresses of hosts where adding demand
// would push any resource type over 100.
func (s *Scheduler) GetBusyHosts(demand map[types.ResourceKey]float64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	busy := make(map[string]bool)
	for key, addDemand := range demand {
		if key.Host == "" {
			continue
		}
		used := 0.0
		for _, row := range s.res[key] {
			used += row.percent
		}
		if used+addDemand > 100 {
			busy[key.Host] = true
		}
	}

	out := make([]string, 0, len(busy))
	for h := range busy {
		out = append(out, h)
	}
	return out
}

// GetBusyGroupIds returns every group id currently present in res.
func (s *Scheduler) GetBusyGroupIds() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int, 0)
	for key := range s.res {
		if key.Type == types.ResourceGroup {
			out = append(out, key.GroupID)
		}
	}
	return out
}
