package starters

import (
	"sort"

	"github.com/cuemby/stowsched/pkg/cluster"
	"github.com/cuemby/stowsched/pkg/jobqueue"
	"github.com/cuemby/stowsched/pkg/types"
)

// RecoverDCConfig is the starter-specific tuning knobs from
// scheduler.recover_dc (spec.md §4.3).
type RecoverDCConfig struct {
	KeysCF      float64
	TimestampCF float64
	MinKeyLoss  int64
}

type recoverCandidate struct {
	coupleID string
	weight   float64
}

// RunRecoverDC ranks every GOOD groupset known to both snap and
// history by recovery-urgency weight and returns the top
// maxExecutingJobs candidates as {"couple": id} parameter maps, in
// descending-weight order.
func RunRecoverDC(snap *cluster.Snapshot, history map[string]*types.HistoricRecord, cfg RecoverDCConfig, now int64, maxExecutingJobs int) []map[string]any {
	var candidates []recoverCandidate

	for _, gs := range snap.Groupsets() {
		if !gs.Status.Good() {
			continue
		}
		record, ok := history[gs.ID]
		if !ok {
			continue
		}
		if gs.KeysDiff < cfg.MinKeyLoss {
			continue
		}

		tsDiff := float64(now - record.RecoverTS)
		weight := float64(gs.KeysDiff)*cfg.KeysCF + tsDiff*cfg.TimestampCF
		candidates = append(candidates, recoverCandidate{coupleID: gs.ID, weight: weight})
	}

	sort.Slice(candidates, func(i, k int) bool { return candidates[i].weight > candidates[k].weight })

	if maxExecutingJobs >= 0 && len(candidates) > maxExecutingJobs {
		candidates = candidates[:maxExecutingJobs]
	}

	out := make([]map[string]any, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, map[string]any{"couple": c.coupleID})
	}
	return out
}

// RecoverDCReporter implements jobqueue.ResourceReporter for
// JobTypeRecoverDC: it locks every group in the named couple and
// touches no host/fs resources.
func RecoverDCReporter(snap *cluster.Snapshot) jobqueue.ResourceReporterFunc {
	return func(params map[string]any) (types.ReportedResources, error) {
		coupleID, _ := params["couple"].(string)
		gs, ok := snap.Groupset(coupleID)
		if !ok {
			return types.ReportedResources{}, errUnknownCouple(coupleID)
		}
		return types.ReportedResources{Groups: append([]int(nil), gs.Groups...)}, nil
	}
}
