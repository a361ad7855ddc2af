package starters

import (
	"testing"

	"github.com/cuemby/stowsched/pkg/cluster"
	"github.com/cuemby/stowsched/pkg/types"
	"github.com/stretchr/testify/require"
)

func backend(host string, free, maxBlob int64) *types.NodeBackend {
	return &types.NodeBackend{
		Host: host,
		Stat: types.NodeBackendStat{VFSFreeSpace: free, MaxBlobBaseSize: maxBlob},
	}
}

func TestRunCoupleDefrag_SelectsWantDefragWithEnoughFreeSpace(t *testing.T) {
	snap := cluster.NewSnapshot(
		[]*types.Group{
			{ID: 1, NodeBackend: backend("h1", 1000, 100), WantDefrag: true},
		},
		[]*types.Groupset{
			{ID: "1", Groups: []int{1}, Status: types.CoupleStatusOK, FilesRemovedSize: 500},
		},
		nil,
	)

	candidates := RunCoupleDefrag(snap)
	require.Len(t, candidates, 1)
	require.Equal(t, "1", candidates[0]["couple"])
}

func TestRunCoupleDefrag_SkipsWhenFreeSpaceInsufficient(t *testing.T) {
	snap := cluster.NewSnapshot(
		[]*types.Group{
			{ID: 1, NodeBackend: backend("h1", 50, 100), WantDefrag: true},
		},
		[]*types.Groupset{
			{ID: "1", Groups: []int{1}, Status: types.CoupleStatusOK, FilesRemovedSize: 500},
		},
		nil,
	)

	require.Empty(t, RunCoupleDefrag(snap))
}

func TestRunCoupleDefrag_SkipsWhenNoGroupWantsDefrag(t *testing.T) {
	snap := cluster.NewSnapshot(
		[]*types.Group{
			{ID: 1, NodeBackend: backend("h1", 1000, 100), WantDefrag: false},
		},
		[]*types.Groupset{
			{ID: "1", Groups: []int{1}, Status: types.CoupleStatusOK, FilesRemovedSize: 500},
		},
		nil,
	)

	require.Empty(t, RunCoupleDefrag(snap))
}

func TestRunCoupleDefrag_OrdersAscendingBySize(t *testing.T) {
	snap := cluster.NewSnapshot(
		[]*types.Group{
			{ID: 1, NodeBackend: backend("h1", 1000, 100), WantDefrag: true},
			{ID: 2, NodeBackend: backend("h2", 1000, 100), WantDefrag: true},
		},
		[]*types.Groupset{
			{ID: "big", Groups: []int{1}, Status: types.CoupleStatusOK, FilesRemovedSize: 5000},
			{ID: "small", Groups: []int{2}, Status: types.CoupleStatusOK, FilesRemovedSize: 10},
		},
		nil,
	)

	candidates := RunCoupleDefrag(snap)
	require.Len(t, candidates, 2)
	require.Equal(t, "small", candidates[0]["couple"])
	require.Equal(t, "big", candidates[1]["couple"])
}

func TestCoupleDefragReporter_LocksAllGroupsAndFS(t *testing.T) {
	snap := cluster.NewSnapshot(
		[]*types.Group{{ID: 1, NodeBackend: backend("h1", 1000, 100)}},
		[]*types.Groupset{{ID: "1", Groups: []int{1}, Status: types.CoupleStatusOK}},
		nil,
	)

	reported, err := CoupleDefragReporter(snap)(map[string]any{"couple": "1"})
	require.NoError(t, err)
	require.Equal(t, []int{1}, reported.Groups)
	require.Len(t, reported.Resources.FS, 1)
	require.Equal(t, "h1", reported.Resources.FS[0].Host)
}
