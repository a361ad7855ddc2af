package starters

import (
	"testing"

	"github.com/cuemby/stowsched/pkg/cluster"
	"github.com/cuemby/stowsched/pkg/scheduler"
	"github.com/cuemby/stowsched/pkg/types"
	"github.com/stretchr/testify/require"
)

func nb(host, dc string, total int64, fsid uint64) *types.NodeBackend {
	return &types.NodeBackend{Host: host, FSID: fsid, Stat: types.NodeBackendStat{TotalSpace: total}}
}

// TestRunMove_PairsSourceWithSufficientDestination covers S5: a
// low-uncoupled-percentage DC is picked as source, a high one as
// destination, and the emitted pair fits the source group's size.
func TestRunMove_PairsSourceWithSufficientDestination(t *testing.T) {
	groups := []*types.Group{
		{ID: 1, Type: types.GroupTypeData, CoupleID: "1", NodeBackend: nb("src-host", "dc1", 1000, 1)},
		{ID: 2, Type: types.GroupTypeUncoupled, NodeBackend: nb("dst-host", "dc2", 2000, 2)},
	}
	groupsets := []*types.Groupset{
		{ID: "1", Groups: []int{1}, Status: types.CoupleStatusFull},
	}
	hosts := []*types.Host{
		{Addr: "src-host", DC: "dc1"},
		{Addr: "dst-host", DC: "dc2"},
	}
	snap := cluster.NewSnapshot(groups, groupsets, hosts)

	sched := scheduler.New(nil, nil, nil, map[types.JobType]int{types.JobTypeMove: 5}, nil)
	cfg := MoveConfig{UncoupledSpaceMaxBytes: 1 << 30, UncoupledSpaceMinBytes: 0, UncoupledDiffSensitivePercent: 0}

	pairs := RunMove(snap, sched, cfg)
	require.Len(t, pairs, 1)
	require.Equal(t, 1, pairs[0]["group"])
	require.Equal(t, 2, pairs[0]["uncoupled_group"])
}

func TestRunMove_NoDestinationWhenSpaceInsufficient(t *testing.T) {
	groups := []*types.Group{
		{ID: 1, Type: types.GroupTypeData, CoupleID: "1", NodeBackend: nb("src-host", "dc1", 1000, 1)},
		{ID: 2, Type: types.GroupTypeUncoupled, NodeBackend: nb("dst-host", "dc2", 10, 2)},
	}
	groupsets := []*types.Groupset{
		{ID: "1", Groups: []int{1}, Status: types.CoupleStatusFull},
	}
	hosts := []*types.Host{
		{Addr: "src-host", DC: "dc1"},
		{Addr: "dst-host", DC: "dc2"},
	}
	snap := cluster.NewSnapshot(groups, groupsets, hosts)

	sched := scheduler.New(nil, nil, nil, map[types.JobType]int{types.JobTypeMove: 5}, nil)
	cfg := MoveConfig{UncoupledSpaceMaxBytes: 1 << 30, UncoupledSpaceMinBytes: 0, UncoupledDiffSensitivePercent: 0}

	require.Empty(t, RunMove(snap, sched, cfg))
}

func TestMoveReporter_DeclaresHostInAndHostOut(t *testing.T) {
	groups := []*types.Group{
		{ID: 1, NodeBackend: nb("src-host", "dc1", 1000, 1)},
		{ID: 2, NodeBackend: nb("dst-host", "dc2", 1000, 2)},
	}
	snap := cluster.NewSnapshot(groups, nil, nil)

	reported, err := MoveReporter(snap)(map[string]any{"group": 1, "uncoupled_group": 2})
	require.NoError(t, err)
	require.ElementsMatch(t, []int{1, 2}, reported.Groups)
	require.Equal(t, []string{"src-host"}, reported.Resources.HostOut)
	require.Equal(t, []string{"dst-host"}, reported.Resources.HostIn)
}
