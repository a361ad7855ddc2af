package starters

import (
	"sort"

	"github.com/cuemby/stowsched/pkg/cluster"
	"github.com/cuemby/stowsched/pkg/jobqueue"
	"github.com/cuemby/stowsched/pkg/log"
	"github.com/cuemby/stowsched/pkg/scheduler"
	"github.com/cuemby/stowsched/pkg/types"
	"github.com/dustin/go-humanize"
)

var moveLogger = log.WithComponent("starters.move")

// MoveConfig is scheduler.move's starter-specific tuning (spec.md §4.5).
type MoveConfig struct {
	UncoupledSpaceMaxBytes        int64
	UncoupledSpaceMinBytes        int64
	UncoupledDiffSensitivePercent float64
}

type dcStats struct {
	dc                  string
	totalSpace          int64
	uncoupledSpace      int64
	fullGroups          []*types.Group
	uncoupledGroups     []*types.Group
	uncoupledSpacePerFS map[types.FSKey]int64
}

func (d *dcStats) uncPercent() float64 {
	if d.totalSpace == 0 {
		return 0
	}
	return float64(d.uncoupledSpace) / float64(d.totalSpace) * 100
}

// isFullCandidateGroup reports whether g belongs to a FULL, non-cache
// data groupset with a single node-backend, per spec.md §4.5.
func isFullCandidateGroup(snap *cluster.Snapshot, g *types.Group) bool {
	if g.Type != types.GroupTypeData || g.CoupleID == "" {
		return false
	}
	gs, ok := snap.Groupset(g.CoupleID)
	if !ok || gs.Status != types.CoupleStatusFull || gs.Namespace == types.CacheNamespace {
		return false
	}
	return g.NodeBackend != nil
}

// buildDCStats aggregates per-datacenter statistics from every host
// and group the snapshot knows about.
func buildDCStats(snap *cluster.Snapshot) map[string]*dcStats {
	byDC := make(map[string]*dcStats)

	dcOf := func(g *types.Group) string {
		if g.NodeBackend == nil {
			return ""
		}
		h, ok := snap.Host(g.NodeBackend.Host)
		if !ok {
			return ""
		}
		return h.DC
	}

	get := func(dc string) *dcStats {
		s, ok := byDC[dc]
		if !ok {
			s = &dcStats{dc: dc, uncoupledSpacePerFS: make(map[types.FSKey]int64)}
			byDC[dc] = s
		}
		return s
	}

	for _, g := range snap.Groups() {
		if g.NodeBackend == nil {
			continue
		}
		dc := dcOf(g)
		if dc == "" {
			continue
		}
		s := get(dc)
		s.totalSpace += g.NodeBackend.Stat.TotalSpace

		switch {
		case g.Type == types.GroupTypeUncoupled:
			s.uncoupledSpace += g.NodeBackend.Stat.TotalSpace
			s.uncoupledGroups = append(s.uncoupledGroups, g)
			s.uncoupledSpacePerFS[g.NodeBackend.FSKey()] += g.NodeBackend.Stat.TotalSpace
		case isFullCandidateGroup(snap, g):
			s.fullGroups = append(s.fullGroups, g)
		}
	}

	return byDC
}

func averageUncPercent(byDC map[string]*dcStats) float64 {
	if len(byDC) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range byDC {
		sum += s.uncPercent()
	}
	return sum / float64(len(byDC))
}

// hostOutDemand and hostInDemand build independent single-resource
// demand vectors so GetBusyHosts can be queried once per resource
// type: a host can be saturated on HOST_OUT (busy as a source) while
// still free on HOST_IN (still valid as a destination), and vice
// versa, per spec.md §4.5 step 1.
func hostOutDemand(sched *scheduler.Scheduler, hosts []*types.Host) map[types.ResourceKey]float64 {
	addrs := make([]string, 0, len(hosts))
	for _, h := range hosts {
		addrs = append(addrs, h.Addr)
	}
	return sched.ConvertResourceRepresentation(types.ResourceDeclaration{HostOut: addrs}, nil, types.JobTypeMove)
}

func hostInDemand(sched *scheduler.Scheduler, hosts []*types.Host) map[types.ResourceKey]float64 {
	addrs := make([]string, 0, len(hosts))
	for _, h := range hosts {
		addrs = append(addrs, h.Addr)
	}
	return sched.ConvertResourceRepresentation(types.ResourceDeclaration{HostIn: addrs}, nil, types.JobTypeMove)
}

// RunMove builds the ordered list of source/destination group pairs
// the move starter submits to the scheduler (spec.md §4.5).
func RunMove(snap *cluster.Snapshot, sched *scheduler.Scheduler, cfg MoveConfig) []map[string]any {
	byDC := buildDCStats(snap)
	avgUncPct := averageUncPercent(byDC)

	hostOutNotCandidates := toSet(sched.GetBusyHosts(hostOutDemand(sched, snap.Hosts())))
	hostInNotCandidates := toSet(sched.GetBusyHosts(hostInDemand(sched, snap.Hosts())))
	busyGroupIDs := toIntSet(sched.GetBusyGroupIds())

	var sources []*dcStats
	for _, s := range byDC {
		if s.uncPercent() <= avgUncPct && s.uncoupledSpace <= cfg.UncoupledSpaceMaxBytes {
			sources = append(sources, s)
		}
	}
	sort.Slice(sources, func(i, k int) bool { return sources[i].uncPercent() < sources[k].uncPercent() })

	var destinations []*dcStats
	for _, s := range byDC {
		destinations = append(destinations, s)
	}
	sort.Slice(destinations, func(i, k int) bool { return destinations[i].uncoupledSpace > destinations[k].uncoupledSpace })

	var out []map[string]any

	for _, src := range sources {
		srcCandidates := filterFullGroups(src.fullGroups, hostOutNotCandidates, busyGroupIDs)
		sort.Slice(srcCandidates, func(i, k int) bool {
			return srcCandidates[i].NodeBackend.Stat.TotalSpace > srcCandidates[k].NodeBackend.Stat.TotalSpace
		})
		if len(srcCandidates) == 0 {
			continue
		}

		for _, dst := range destinations {
			if dst.dc == src.dc {
				continue
			}
			if dst.uncPercent() < src.uncPercent()+cfg.UncoupledDiffSensitivePercent {
				continue
			}
			if dst.uncoupledSpace < cfg.UncoupledSpaceMinBytes {
				continue
			}

			dstCandidates := destinationCandidates(dst, hostInNotCandidates)
			if len(dstCandidates) == 0 {
				continue
			}

			pairs, consumedSrc, consumedDst := matchPairs(src.dc, dst, dstCandidates, srcCandidates)
			out = append(out, pairs...)
			srcCandidates = removeGroups(srcCandidates, consumedSrc)
			_ = consumedDst
		}
	}

	return out
}

type dstCandidate struct {
	group *types.Group
	avail int64
}

func destinationCandidates(dst *dcStats, hostInNotCandidates map[string]bool) []dstCandidate {
	var out []dstCandidate
	for _, g := range dst.uncoupledGroups {
		if hostInNotCandidates[g.NodeBackend.Host] {
			continue
		}
		out = append(out, dstCandidate{group: g, avail: dst.uncoupledSpacePerFS[g.NodeBackend.FSKey()]})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].avail > out[k].avail })
	return out
}

func filterFullGroups(groups []*types.Group, hostOutNotCandidates map[string]bool, busyGroupIDs map[int]bool) []*types.Group {
	var out []*types.Group
	for _, g := range groups {
		if g.NodeBackend == nil || hostOutNotCandidates[g.NodeBackend.Host] || busyGroupIDs[g.ID] {
			continue
		}
		out = append(out, g)
	}
	return out
}

// matchPairs greedily pairs each source group (largest first) with
// the last destination candidate whose avail still fits it, using a
// binary search over dstCandidates (sorted descending by avail, so the
// last fitting entry is the smallest avail that still satisfies the
// source's size).
func matchPairs(srcDC string, dst *dcStats, dstCandidates []dstCandidate, srcGroups []*types.Group) (pairs []map[string]any, consumedSrc, consumedDst map[int]bool) {
	consumedSrc = make(map[int]bool)
	consumedDst = make(map[int]bool)
	remaining := append([]dstCandidate(nil), dstCandidates...)

	for _, srcGroup := range srcGroups {
		srcSize := srcGroup.NodeBackend.Stat.TotalSpace

		idx := sort.Search(len(remaining), func(i int) bool {
			return remaining[i].avail < srcSize
		})
		if idx == 0 {
			continue
		}
		dstGroup := remaining[idx-1].group

		moveLogger.Info().
			Int("group", srcGroup.ID).
			Int("uncoupled_group", dstGroup.ID).
			Str("size", humanize.Bytes(uint64(srcSize))).
			Msg("matched move pair")

		pairs = append(pairs, map[string]any{
			"group":           srcGroup.ID,
			"uncoupled_group": dstGroup.ID,
			"merged_groups":   []int{},
			"src_host":        srcGroup.NodeBackend.Host,
			"src_port":        srcGroup.NodeBackend.Port,
			"src_family":      srcGroup.NodeBackend.Family,
			"src_backend_id":  srcGroup.NodeBackend.BackendID,
			"src_base_path":   srcGroup.NodeBackend.BasePath,
			"dst_host":        dstGroup.NodeBackend.Host,
			"dst_port":        dstGroup.NodeBackend.Port,
			"dst_family":      dstGroup.NodeBackend.Family,
			"dst_backend_id":  dstGroup.NodeBackend.BackendID,
			"dst_base_path":   dstGroup.NodeBackend.BasePath,
		})

		consumedSrc[srcGroup.ID] = true
		consumedDst[dstGroup.ID] = true

		fsKey := dstGroup.NodeBackend.FSKey()
		dst.uncoupledSpace -= srcSize
		dst.uncoupledSpacePerFS[fsKey] -= srcSize

		remaining[idx-1].avail -= srcSize
		sort.Slice(remaining, func(i, k int) bool { return remaining[i].avail > remaining[k].avail })
	}

	return pairs, consumedSrc, consumedDst
}

func removeGroups(groups []*types.Group, consumed map[int]bool) []*types.Group {
	out := groups[:0]
	for _, g := range groups {
		if !consumed[g.ID] {
			out = append(out, g)
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, s := range items {
		out[s] = true
	}
	return out
}

func toIntSet(items []int) map[int]bool {
	out := make(map[int]bool, len(items))
	for _, v := range items {
		out[v] = true
	}
	return out
}

// MoveReporter implements jobqueue.ResourceReporter for JobTypeMove:
// it locks both groups and declares HOST_IN/HOST_OUT on the
// destination/source hosts respectively.
func MoveReporter(snap *cluster.Snapshot) jobqueue.ResourceReporterFunc {
	return func(params map[string]any) (types.ReportedResources, error) {
		groupID, _ := params["group"].(int)
		uncoupledID, _ := params["uncoupled_group"].(int)

		g, ok := snap.Group(groupID)
		if !ok {
			return types.ReportedResources{}, errUnknownGroup(groupID)
		}
		u, ok := snap.Group(uncoupledID)
		if !ok {
			return types.ReportedResources{}, errUnknownGroup(uncoupledID)
		}

		resources := types.ResourceDeclaration{}
		if g.NodeBackend != nil {
			resources.HostOut = []string{g.NodeBackend.Host}
		}
		if u.NodeBackend != nil {
			resources.HostIn = []string{u.NodeBackend.Host}
		}

		return types.ReportedResources{Groups: []int{groupID, uncoupledID}, Resources: resources}, nil
	}
}
