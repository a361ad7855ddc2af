package starters

import (
	"context"
	"sort"

	"github.com/cuemby/stowsched/pkg/analytics"
	"github.com/cuemby/stowsched/pkg/cluster"
	"github.com/cuemby/stowsched/pkg/jobqueue"
	"github.com/cuemby/stowsched/pkg/types"
)

// TTLCleanupConfig is scheduler.ttl_cleanup's starter-specific tuning
// plus jobs.ttl_cleanup_job's per-task fan-out parameters (spec.md
// §4.7).
type TTLCleanupConfig struct {
	AggregationTable string
	SourceTable      string
	TTLThreshold     int64
	MaxIdleDays      int
	BatchSize        int
	Attempts         int
	Nproc            int
	WaitTimeoutSecs  int
}

// RunTTLCleanup unions the analytics-derived stream (couples whose
// aggregate expired_size crosses TTLThreshold) with the
// idleness-derived stream (couples whose ttl_cleanup_ts is older than
// MaxIdleDays), de-duplicates by couple id, and resolves each survivor
// to its iter_group (the couple's first member group).
func RunTTLCleanup(ctx context.Context, snap *cluster.Snapshot, history map[string]*types.HistoricRecord, client analytics.Client, cfg TTLCleanupConfig, now, yesterday string, nowTS int64) ([]map[string]any, error) {
	if err := client.EnsurePartition(ctx, analytics.PartitionParams{AggregationTable: cfg.AggregationTable, SourceTable: cfg.SourceTable, Date: yesterday}); err != nil {
		return nil, err
	}

	analyticsCandidates, err := client.AggregateExpired(ctx, analytics.AggregateParams{
		AggregationTable: cfg.AggregationTable,
		ExpiredThreshold: cfg.TTLThreshold,
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(analyticsCandidates))
	var coupleIDs []string
	for _, id := range analyticsCandidates {
		if !seen[id] {
			seen[id] = true
			coupleIDs = append(coupleIDs, id)
		}
	}

	idleThreshold := nowTS - int64(cfg.MaxIdleDays)*86400
	for coupleID, record := range history {
		if record.TTLCleanupTS >= idleThreshold {
			continue
		}
		if !seen[coupleID] {
			seen[coupleID] = true
			coupleIDs = append(coupleIDs, coupleID)
		}
	}

	sort.Strings(coupleIDs)

	out := make([]map[string]any, 0, len(coupleIDs))
	for _, coupleID := range coupleIDs {
		gs, ok := snap.Groupset(coupleID)
		if !ok || len(gs.Groups) == 0 {
			continue
		}
		out = append(out, map[string]any{
			"iter_group":   gs.Groups[0],
			"couple":       coupleID,
			"namespace":    gs.Namespace,
			"batch_size":   cfg.BatchSize,
			"attempts":     cfg.Attempts,
			"nproc":        cfg.Nproc,
			"wait_timeout": cfg.WaitTimeoutSecs,
			"dry_run":      false,
		})
	}
	return out, nil
}

// CleanAggregateTable copies every aggregate-table row not yet expired
// for its couple into a fresh table and swaps it in, per spec.md
// §4.7's longer-period aggregate-table cleanup task. It takes no lock
// itself, and cmd/stowsched does not register it as a periodic task;
// nothing in this module calls it outside its tests.
func CleanAggregateTable(ctx context.Context, client analytics.Client, cfg TTLCleanupConfig, history map[string]*types.HistoricRecord) error {
	cleanupTS := make(map[string]int64, len(history))
	for coupleID, record := range history {
		cleanupTS[coupleID] = record.TTLCleanupTS
	}
	return client.ReplaceAggregateTable(ctx, analytics.ReplaceParams{
		AggregationTable: cfg.AggregationTable,
		CleanupTS:        cleanupTS,
	})
}

// TTLCleanupReporter implements jobqueue.ResourceReporter for
// JobTypeTTLCleanup: it locks every group in the named couple. It does
// not account for the nproc/batch_size fan-out that
// BuildMDSCleanupBatches describes, and no reporter is registered for
// the mds_cleanup job type.
func TTLCleanupReporter(snap *cluster.Snapshot) jobqueue.ResourceReporterFunc {
	return func(params map[string]any) (types.ReportedResources, error) {
		coupleID, _ := params["couple"].(string)
		gs, ok := snap.Groupset(coupleID)
		if !ok {
			return types.ReportedResources{}, errUnknownCouple(coupleID)
		}
		return types.ReportedResources{Groups: append([]int(nil), gs.Groups...)}, nil
	}
}

// MDSCleanupParams describes the key-removal batches the ttl_cleanup
// job's task graph fans out into (jobs/mds_cleanup.py in the original
// source), one per nproc worker.
type MDSCleanupParams struct {
	IterGroup int
	Couple    string
	Nproc     int
	BatchSize int
}

// BuildMDSCleanupBatches splits BatchSize keys across Nproc workers as
// evenly as possible, matching the original's round-robin batch split.
func BuildMDSCleanupBatches(p MDSCleanupParams) []map[string]any {
	if p.Nproc <= 0 {
		p.Nproc = 1
	}
	base := p.BatchSize / p.Nproc
	rem := p.BatchSize % p.Nproc

	out := make([]map[string]any, 0, p.Nproc)
	for i := 0; i < p.Nproc; i++ {
		size := base
		if i < rem {
			size++
		}
		if size == 0 {
			continue
		}
		out = append(out, map[string]any{
			"iter_group": p.IterGroup,
			"couple":     p.Couple,
			"worker":     i,
			"batch_size": size,
		})
	}
	return out
}
