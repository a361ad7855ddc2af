package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeClient_AggregateExpiredFiltersByThreshold(t *testing.T) {
	c := NewFakeClient(
		FakeRow{CoupleID: "1:2", ExpiredSize: 2000},
		FakeRow{CoupleID: "1:2", ExpiredSize: 9000},
		FakeRow{CoupleID: "3:4", ExpiredSize: 100},
	)

	couples, err := c.AggregateExpired(context.Background(), AggregateParams{ExpiredThreshold: 10000})
	require.NoError(t, err)
	require.Equal(t, []string{"1:2"}, couples)
}

func TestFakeClient_ReplaceAggregateTableDropsOldRows(t *testing.T) {
	c := NewFakeClient(
		FakeRow{CoupleID: "1:2", ExpirationDate: 100},
		FakeRow{CoupleID: "1:2", ExpirationDate: 200},
	)

	err := c.ReplaceAggregateTable(context.Background(), ReplaceParams{CleanupTS: map[string]int64{"1:2": 150}})
	require.NoError(t, err)
	require.Len(t, c.Rows, 1)
	require.Equal(t, int64(200), c.Rows[0].ExpirationDate)
}

func TestFakeClient_EnsurePartitionIsIdempotent(t *testing.T) {
	c := NewFakeClient()
	require.NoError(t, c.EnsurePartition(context.Background(), PartitionParams{Date: "2026-07-28"}))
	require.NoError(t, c.EnsurePartition(context.Background(), PartitionParams{Date: "2026-07-28"}))
	require.True(t, c.Partitions["2026-07-28"])
}
