package starters

import (
	"testing"

	"github.com/cuemby/stowsched/pkg/cluster"
	"github.com/cuemby/stowsched/pkg/types"
	"github.com/stretchr/testify/require"
)

func coupleset(id string, groups []int, status types.CoupleStatus, keysDiff int64) *types.Groupset {
	return &types.Groupset{ID: id, Groups: groups, Status: status, KeysDiff: keysDiff}
}

// TestRunRecoverDC_OrdersByWeightDescending covers S1: candidates with
// larger keys_diff/ts_diff-derived weight sort first.
func TestRunRecoverDC_OrdersByWeightDescending(t *testing.T) {
	snap := cluster.NewSnapshot(
		[]*types.Group{{ID: 1}, {ID: 2}, {ID: 3}},
		[]*types.Groupset{
			coupleset("1", []int{1}, types.CoupleStatusOK, 10),
			coupleset("2", []int{2}, types.CoupleStatusOK, 1000),
			coupleset("3", []int{3}, types.CoupleStatusOK, 50),
		},
		nil,
	)
	history := map[string]*types.HistoricRecord{
		"1": {RecoverTS: 0},
		"2": {RecoverTS: 0},
		"3": {RecoverTS: 0},
	}
	cfg := RecoverDCConfig{KeysCF: 1.0, TimestampCF: 0, MinKeyLoss: 1}

	candidates := RunRecoverDC(snap, history, cfg, 100, 10)

	require.Len(t, candidates, 3)
	require.Equal(t, "2", candidates[0]["couple"])
	require.Equal(t, "3", candidates[1]["couple"])
	require.Equal(t, "1", candidates[2]["couple"])
}

func TestRunRecoverDC_TruncatesToMaxExecutingJobs(t *testing.T) {
	snap := cluster.NewSnapshot(
		[]*types.Group{{ID: 1}, {ID: 2}},
		[]*types.Groupset{
			coupleset("1", []int{1}, types.CoupleStatusOK, 10),
			coupleset("2", []int{2}, types.CoupleStatusOK, 20),
		},
		nil,
	)
	history := map[string]*types.HistoricRecord{"1": {}, "2": {}}
	cfg := RecoverDCConfig{KeysCF: 1.0, MinKeyLoss: 1}

	candidates := RunRecoverDC(snap, history, cfg, 0, 1)
	require.Len(t, candidates, 1)
	require.Equal(t, "2", candidates[0]["couple"])
}

func TestRunRecoverDC_SkipsWithoutHistoryOrBelowMinKeyLoss(t *testing.T) {
	snap := cluster.NewSnapshot(
		nil,
		[]*types.Groupset{
			coupleset("no-history", nil, types.CoupleStatusOK, 100),
			coupleset("below-threshold", nil, types.CoupleStatusOK, 1),
		},
		nil,
	)
	history := map[string]*types.HistoricRecord{"below-threshold": {}}
	cfg := RecoverDCConfig{KeysCF: 1.0, MinKeyLoss: 5}

	candidates := RunRecoverDC(snap, history, cfg, 0, 10)
	require.Empty(t, candidates)
}

func TestRecoverDCReporter_ReturnsGroupsOfCouple(t *testing.T) {
	snap := cluster.NewSnapshot(
		nil,
		[]*types.Groupset{coupleset("1:2", []int{1, 2}, types.CoupleStatusOK, 0)},
		nil,
	)
	reported, err := RecoverDCReporter(snap)(map[string]any{"couple": "1:2"})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, reported.Groups)
}

func TestRecoverDCReporter_UnknownCoupleErrors(t *testing.T) {
	snap := cluster.NewSnapshot(nil, nil, nil)
	_, err := RecoverDCReporter(snap)(map[string]any{"couple": "missing"})
	require.Error(t, err)
}
