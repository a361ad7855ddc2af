package starters

import (
	"context"
	"testing"

	"github.com/cuemby/stowsched/pkg/analytics"
	"github.com/cuemby/stowsched/pkg/cluster"
	"github.com/cuemby/stowsched/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestRunTTLCleanup_UnionsAnalyticsAndIdleStreams(t *testing.T) {
	snap := cluster.NewSnapshot(
		nil,
		[]*types.Groupset{
			{ID: "analytics-hit", Groups: []int{1}, Namespace: "ns1"},
			{ID: "idle-hit", Groups: []int{2}, Namespace: "ns2"},
			{ID: "neither", Groups: []int{3}, Namespace: "ns3"},
		},
		nil,
	)
	history := map[string]*types.HistoricRecord{
		"analytics-hit": {TTLCleanupTS: 1000},
		"idle-hit":      {TTLCleanupTS: 0},
		"neither":       {TTLCleanupTS: 299 * 86400},
	}
	client := analytics.NewFakeClient(analytics.FakeRow{CoupleID: "analytics-hit", ExpiredSize: 20 << 30})
	cfg := TTLCleanupConfig{TTLThreshold: 10 << 30, MaxIdleDays: 270, BatchSize: 100, Attempts: 3, Nproc: 2}

	now := int64(300 * 86400)
	candidates, err := RunTTLCleanup(context.Background(), snap, history, client, cfg, "2026-07-29", "2026-07-28", now)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	var couples []string
	for _, c := range candidates {
		couples = append(couples, c["couple"].(string))
	}
	require.ElementsMatch(t, []string{"analytics-hit", "idle-hit"}, couples)
}

func TestRunTTLCleanup_DeduplicatesUnion(t *testing.T) {
	snap := cluster.NewSnapshot(
		nil,
		[]*types.Groupset{{ID: "both", Groups: []int{1}, Namespace: "ns"}},
		nil,
	)
	history := map[string]*types.HistoricRecord{"both": {TTLCleanupTS: 0}}
	client := analytics.NewFakeClient(analytics.FakeRow{CoupleID: "both", ExpiredSize: 20 << 30})
	cfg := TTLCleanupConfig{TTLThreshold: 10 << 30, MaxIdleDays: 270}

	candidates, err := RunTTLCleanup(context.Background(), snap, history, client, cfg, "2026-07-29", "2026-07-28", int64(300*86400))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, 1, candidates[0]["iter_group"])
}

func TestCleanAggregateTable_DropsRowsOlderThanCleanupTS(t *testing.T) {
	client := analytics.NewFakeClient(
		analytics.FakeRow{CoupleID: "1", ExpirationDate: 50},
		analytics.FakeRow{CoupleID: "1", ExpirationDate: 150},
	)
	history := map[string]*types.HistoricRecord{"1": {TTLCleanupTS: 100}}

	err := CleanAggregateTable(context.Background(), client, TTLCleanupConfig{AggregationTable: "agg"}, history)
	require.NoError(t, err)
	require.Len(t, client.Rows, 1)
	require.Equal(t, int64(150), client.Rows[0].ExpirationDate)
}

func TestBuildMDSCleanupBatches_SplitsEvenly(t *testing.T) {
	batches := BuildMDSCleanupBatches(MDSCleanupParams{IterGroup: 1, Couple: "1", Nproc: 3, BatchSize: 10})
	require.Len(t, batches, 3)

	total := 0
	for _, b := range batches {
		total += b["batch_size"].(int)
	}
	require.Equal(t, 10, total)
}

func TestTTLCleanupReporter_UnknownCoupleErrors(t *testing.T) {
	snap := cluster.NewSnapshot(nil, nil, nil)
	_, err := TTLCleanupReporter(snap)(map[string]any{"couple": "missing"})
	require.Error(t, err)
}
