package jobqueue

import (
	"testing"

	"github.com/cuemby/stowsched/pkg/lock"
	"github.com/cuemby/stowsched/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemProcessor_CreateJobLocksGroups(t *testing.T) {
	p := NewMemProcessor(lock.NewMemLocker())

	job, err := p.CreateJob(types.JobTypeRecoverDC, []int{1, 2}, types.ResourceDeclaration{}, map[string]any{"need_approving": true}, false)
	require.NoError(t, err)
	assert.Equal(t, types.StatusNew, job.Status)
	assert.True(t, p.Exists(job.ID))
}

func TestMemProcessor_CreateJobConflictsOnHeldGroup(t *testing.T) {
	locker := lock.NewMemLocker()
	p := NewMemProcessor(locker)

	_, err := locker.TryLock(groupLockName(1), "other-job")
	require.NoError(t, err)

	_, err = p.CreateJob(types.JobTypeMove, []int{1}, types.ResourceDeclaration{}, nil, false)
	require.Error(t, err)
}

func TestMemProcessor_StopJobsListCancelsAll(t *testing.T) {
	p := NewMemProcessor(lock.NewMemLocker())

	job, err := p.CreateJob(types.JobTypeRecoverDC, nil, types.ResourceDeclaration{}, nil, false)
	require.NoError(t, err)

	require.NoError(t, p.StopJobsList([]*types.Job{job}))

	jobs, err := p.Jobs(Query{IDs: []string{job.ID}})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, types.StatusCancelled, jobs[0].Status)
}

func TestMemProcessor_JobsFiltersByType(t *testing.T) {
	p := NewMemProcessor(lock.NewMemLocker())

	_, err := p.CreateJob(types.JobTypeRecoverDC, nil, types.ResourceDeclaration{}, nil, false)
	require.NoError(t, err)
	_, err = p.CreateJob(types.JobTypeMove, nil, types.ResourceDeclaration{}, nil, false)
	require.NoError(t, err)

	moveJobs, err := p.Jobs(Query{Types: []types.JobType{types.JobTypeMove}})
	require.NoError(t, err)
	require.Len(t, moveJobs, 1)
	assert.Equal(t, types.JobTypeMove, moveJobs[0].Type)
}
