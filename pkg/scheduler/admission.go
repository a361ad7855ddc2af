package scheduler

import (
	"fmt"

	"github.com/cuemby/stowsched/pkg/events"
	"github.com/cuemby/stowsched/pkg/jobqueue"
	"github.com/cuemby/stowsched/pkg/metrics"
	"github.com/cuemby/stowsched/pkg/schederr"
	"github.com/cuemby/stowsched/pkg/types"
)

// CancelCrossingJobs tries to make room for a candidate of job_type
// whose demand overlaps currently-held resources (spec.md §4.2). It
// returns false without cancelling anything if the overlap cannot be
// resolved; true if there was no overlap or cancellation succeeded.
func (s *Scheduler) CancelCrossingJobs(jobType types.JobType, params Params, demand map[types.ResourceKey]float64) bool {
	candidatePriority := s.priorities[jobType]

	s.mu.Lock()
	crossingIDs := make(map[string]bool)
	for key := range demand {
		for _, row := range s.res[key] {
			crossingIDs[row.jobID] = true
		}
	}
	s.mu.Unlock()

	if len(crossingIDs) == 0 {
		return true
	}

	ids := make([]string, 0, len(crossingIDs))
	for id := range crossingIDs {
		ids = append(ids, id)
	}
	existingJobs, err := s.processor.Jobs(jobqueue.Query{IDs: ids})
	if err != nil {
		s.logger.Error().Err(err).Msg("cancel_crossing_jobs: failed to fetch crossing jobs")
		return false
	}

	terminalIDs := make(map[string]bool)
	cancellableIDs := make(map[string]bool)
	var cancellable []*types.Job

	for _, j := range existingJobs {
		switch {
		case j.Status.Terminal():
			terminalIDs[j.ID] = true
		case s.priorities[j.Type] >= candidatePriority && !params.Force:
			// cannot cancel: equal or higher priority wins ties
		case jobqueue.StopAllowedTypes[j.Type]:
			cancellableIDs[j.ID] = true
			cancellable = append(cancellable, j)
		default:
			// cannot cancel
		}
	}

	s.mu.Lock()
	for key, rows := range s.res {
		kept := rows[:0]
		for _, row := range rows {
			if terminalIDs[row.jobID] {
				continue
			}
			kept = append(kept, row)
		}
		s.res[key] = kept
	}

	for key, demandAmount := range demand {
		consumptionIfCancel := 0.0
		for _, row := range s.res[key] {
			if !cancellableIDs[row.jobID] {
				consumptionIfCancel += row.percent
			}
		}
		if demandAmount+consumptionIfCancel > 100 {
			s.mu.Unlock()
			s.logger.Info().
				Str("job_type", string(jobType)).
				Float64("demand", demandAmount).
				Float64("consumption_if_cancel", consumptionIfCancel).
				Msg("no sense to cancel, candidate would still not fit")
			return false
		}
	}
	s.mu.Unlock()

	if len(cancellable) == 0 {
		return true
	}

	if err := s.processor.StopJobsList(cancellable); err != nil {
		s.logger.Error().Err(err).Msg("failed to cancel crossing jobs")
		return false
	}

	metrics.JobsCancelledTotal.WithLabelValues(string(jobType)).Add(float64(len(cancellable)))
	s.logger.Info().Strs("cancelled", toJobIDs(cancellable)).Msg("successfully cancelled crossing jobs")
	for _, j := range cancellable {
		s.publish(events.EventJobCancelled, j.Type, j.ID, "cancelled to admit higher-priority candidate")
	}
	return true
}

func toJobIDs(jobs []*types.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

// CreateJobs admits as many of paramList's candidates as jobType's
// concurrency budget allows, in the order supplied by the caller
// (spec.md §4.2). Each param map is passed unchanged to jobType's
// registered ResourceReporter and, on success, to the processor as the
// new job's params (with "need_approving" set); CreateJobs reads no
// other key of it.
func (s *Scheduler) CreateJobs(jobType types.JobType, paramList []map[string]any, params Params) []*types.Job {
	var created []*types.Job

	if err := s.UpdateResourceStat(); err != nil {
		s.logger.Error().Err(err).Msg("create_jobs: update_resource_stat failed")
		return created
	}

	maxJobs := params.MaxExecutingJobs - s.jobCount[jobType]
	if maxJobs <= 0 {
		s.logger.Info().Str("job_type", string(jobType)).Int("existing", s.jobCount[jobType]).Msg("job-type concurrency cap already reached")
		return created
	}

	reporter, err := s.registry.MustGet(jobType)
	if err != nil {
		s.logger.Error().Err(err).Str("job_type", string(jobType)).Msg("cannot schedule job type")
		return created
	}

	needApproving := !params.Autoapprove

	for _, jobParam := range paramList {
		reported, err := reporter.ReportResources(jobParam)
		if err != nil {
			s.logger.Error().Err(err).Str("job_type", string(jobType)).Msg("report_resources failed for candidate, skipping")
			continue
		}

		demand := s.ConvertResourceRepresentation(reported.Resources, reported.Groups, jobType)

		if !s.CancelCrossingJobs(jobType, params, demand) {
			continue
		}

		jobParam["need_approving"] = needApproving

		job, err := s.processor.CreateJob(jobType, reported.Groups, reported.Resources, jobParam, false)
		if err != nil {
			conflict := schederr.ProcessLockException("Failed to create", err, s.processor)
			s.logger.Error().Err(conflict).Str("job_type", string(jobType)).Msg("job creation failed")
			metrics.JobsRejectedTotal.WithLabelValues(string(jobType), "lock_conflict").Inc()
			s.publish(events.EventJobRejected, jobType, "", conflict.Error())
			if updateErr := s.UpdateResourceStat(); updateErr != nil {
				s.logger.Error().Err(updateErr).Msg("create_jobs: re-sync after lock conflict failed")
			}
			continue
		}

		maxJobs--
		created = append(created, job)
		metrics.JobsCreatedTotal.WithLabelValues(string(jobType)).Inc()
		s.publish(events.EventJobCreated, jobType, job.ID, "admitted")

		s.mu.Lock()
		for key, pct := range demand {
			s.res[key] = append(s.res[key], resourceRow{percent: pct, jobID: job.ID})
		}
		s.jobCount[jobType]++
		s.mu.Unlock()

		if maxJobs <= 0 {
			break
		}
	}

	if len(created) == 0 {
		s.logger.Info().Str("job_type", string(jobType)).Msg("no jobs to create")
	}
	s.publish(events.EventStarterRun, jobType, "", fmt.Sprintf("admitted %d of %d candidates", len(created), len(paramList)))
	return created
}
