package analytics

import "context"

// PartitionParams names the aggregate table, the source log table and
// the partition date (in ISO form, e.g. "2026-07-28") the
// validate/pre-aggregate queries operate on.
type PartitionParams struct {
	AggregationTable string
	SourceTable      string
	Date             string
}

// AggregateParams names the aggregate table and the expired-size
// threshold (bytes) the candidate query filters on.
type AggregateParams struct {
	AggregationTable string
	ExpiredThreshold int64
}

// ReplaceParams names the aggregate table and the per-couple
// ttl_cleanup_ts map the replace query compares expiration_date
// against.
type ReplaceParams struct {
	AggregationTable string
	CleanupTS        map[string]int64
}

// Client is the subset of analytics-cluster operations the ttl_cleanup
// starter needs (spec.md §4.7). Implementations own their own
// transport (HTTP, gRPC, a native YT client); FakeClient backs tests.
type Client interface {
	// EnsurePartition validates that the named day's partition has
	// already been pre-aggregated into the aggregate table, and if
	// not, issues the pre-aggregation query.
	EnsurePartition(ctx context.Context, p PartitionParams) error

	// AggregateExpired returns the couple ids whose summed
	// expired_size in the aggregate table meets or exceeds the
	// configured threshold.
	AggregateExpired(ctx context.Context, p AggregateParams) ([]string, error)

	// ReplaceAggregateTable copies every row newer than its couple's
	// ttl_cleanup_ts into a temp table and swaps it in for the
	// original, atomically.
	ReplaceAggregateTable(ctx context.Context, p ReplaceParams) error
}
