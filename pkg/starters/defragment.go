package starters

import (
	"sort"

	"github.com/cuemby/stowsched/pkg/cluster"
	"github.com/cuemby/stowsched/pkg/jobqueue"
	"github.com/cuemby/stowsched/pkg/types"
)

// RunCoupleDefrag selects every GOOD groupset with recoverable
// removed-file space, every node-backend holding enough free space for
// a blob-base-sized compaction, and at least one group flagged
// want_defrag (spec.md §4.4). Candidates are returned ascending by
// files_removed_size, so the smallest-gain groupset is at index 0.
// CreateJobs admits candidates in list order; cmd/stowsched reverses
// this list first, so the largest gains are tried first.
func RunCoupleDefrag(snap *cluster.Snapshot) []map[string]any {
	type candidate struct {
		coupleID string
		size     int64
	}
	var candidates []candidate

	for _, gs := range snap.Groupsets() {
		if !gs.Status.Good() {
			continue
		}
		if gs.FilesRemovedSize <= 0 {
			continue
		}
		if !needDefrag(snap, gs) {
			continue
		}
		candidates = append(candidates, candidate{coupleID: gs.ID, size: gs.FilesRemovedSize})
	}

	sort.Slice(candidates, func(i, k int) bool { return candidates[i].size < candidates[k].size })

	out := make([]map[string]any, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, map[string]any{"couple": c.coupleID})
	}
	return out
}

// needDefrag reports whether gs passes the per-node-backend space
// check and has at least one group wanting defragmentation.
func needDefrag(snap *cluster.Snapshot, gs *types.Groupset) bool {
	wantsDefrag := false
	for _, g := range snap.GroupsOf(gs) {
		if g.NodeBackend == nil {
			continue
		}
		stat := g.NodeBackend.Stat
		if stat.VFSFreeSpace < 2*stat.MaxBlobBaseSize {
			return false
		}
		if g.WantDefrag {
			wantsDefrag = true
		}
	}
	return wantsDefrag
}

// CoupleDefragReporter implements jobqueue.ResourceReporter for
// JobTypeCoupleDefrag: it locks every group in the couple and the
// filesystem of every node-backend it runs on (defragmentation is
// exclusive at the FS level).
func CoupleDefragReporter(snap *cluster.Snapshot) jobqueue.ResourceReporterFunc {
	return func(params map[string]any) (types.ReportedResources, error) {
		coupleID, _ := params["couple"].(string)
		gs, ok := snap.Groupset(coupleID)
		if !ok {
			return types.ReportedResources{}, errUnknownCouple(coupleID)
		}

		var fsRefs []types.FSRef
		for _, g := range snap.GroupsOf(gs) {
			if g.NodeBackend == nil {
				continue
			}
			fsRefs = append(fsRefs, types.FSRef{Host: g.NodeBackend.Host, FSID: g.NodeBackend.FSID})
		}

		return types.ReportedResources{
			Groups:    append([]int(nil), gs.Groups...),
			Resources: types.ResourceDeclaration{FS: fsRefs},
		}, nil
	}
}
