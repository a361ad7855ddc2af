package analytics

import (
	"context"
	"sort"
)

// FakeRow is one aggregate-table row, as FakeClient stores it.
type FakeRow struct {
	CoupleID       string
	Namespace      string
	ExpirationDate int64
	ExpiredSize    int64
}

// FakeClient is an in-memory Client used by starter tests. Partitions
// are tracked by name; EnsurePartition is idempotent per partition.
type FakeClient struct {
	Partitions map[string]bool
	Rows       []FakeRow

	EnsurePartitionErr error
	AggregateErr       error
	ReplaceErr         error
}

// NewFakeClient returns a FakeClient with no partitions validated and
// the given aggregate rows preloaded.
func NewFakeClient(rows ...FakeRow) *FakeClient {
	return &FakeClient{Partitions: make(map[string]bool), Rows: rows}
}

func (f *FakeClient) EnsurePartition(ctx context.Context, p PartitionParams) error {
	if f.EnsurePartitionErr != nil {
		return f.EnsurePartitionErr
	}
	f.Partitions[p.Date] = true
	return nil
}

func (f *FakeClient) AggregateExpired(ctx context.Context, p AggregateParams) ([]string, error) {
	if f.AggregateErr != nil {
		return nil, f.AggregateErr
	}
	totals := make(map[string]int64)
	for _, r := range f.Rows {
		totals[r.CoupleID] += r.ExpiredSize
	}
	var out []string
	for couple, total := range totals {
		if total >= p.ExpiredThreshold {
			out = append(out, couple)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *FakeClient) ReplaceAggregateTable(ctx context.Context, p ReplaceParams) error {
	if f.ReplaceErr != nil {
		return f.ReplaceErr
	}
	kept := f.Rows[:0]
	for _, r := range f.Rows {
		if r.ExpirationDate > p.CleanupTS[r.CoupleID] {
			kept = append(kept, r)
		}
	}
	f.Rows = kept
	return nil
}
