package cluster

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cuemby/stowsched/pkg/types"
)

// Snapshot is an immutable view of cluster storage state for the
// duration of one periodic run. It is rebuilt from scratch at the
// start of every run (see cmd/stowsched); starters never mutate it.
type Snapshot struct {
	groups    map[int]*types.Group
	groupsets map[string]*types.Groupset
	hosts     map[string]*types.Host
}

// NewSnapshot builds a Snapshot from the caller's already-materialized
// groups, groupsets, and hosts. Collecting that data from the real
// elliptics/metadata clients is explicitly out of scope (spec.md §1);
// callers (tests, or a future metadata adapter) populate the slices.
func NewSnapshot(groups []*types.Group, groupsets []*types.Groupset, hosts []*types.Host) *Snapshot {
	s := &Snapshot{
		groups:    make(map[int]*types.Group, len(groups)),
		groupsets: make(map[string]*types.Groupset, len(groupsets)),
		hosts:     make(map[string]*types.Host, len(hosts)),
	}
	for _, g := range groups {
		s.groups[g.ID] = g
	}
	for _, gs := range groupsets {
		s.groupsets[gs.ID] = gs
	}
	for _, h := range hosts {
		s.hosts[h.Addr] = h
	}
	return s
}

// Group looks up a group by id.
func (s *Snapshot) Group(id int) (*types.Group, bool) {
	g, ok := s.groups[id]
	return g, ok
}

// Groupset looks up a groupset by its canonical string id.
func (s *Snapshot) Groupset(id string) (*types.Groupset, bool) {
	gs, ok := s.groupsets[id]
	return gs, ok
}

// Host looks up a host by address.
func (s *Snapshot) Host(addr string) (*types.Host, bool) {
	h, ok := s.hosts[addr]
	return h, ok
}

// Groupsets returns every groupset in the snapshot, in no particular
// order; callers that need a deterministic order should sort.
func (s *Snapshot) Groupsets() []*types.Groupset {
	out := make([]*types.Groupset, 0, len(s.groupsets))
	for _, gs := range s.groupsets {
		out = append(out, gs)
	}
	return out
}

// Groups returns every group in the snapshot.
func (s *Snapshot) Groups() []*types.Group {
	out := make([]*types.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	return out
}

// GroupsOf resolves the member groups of a groupset, skipping any
// group id the snapshot does not know about (a precondition failure
// per spec.md §7, not a fatal error).
func (s *Snapshot) GroupsOf(gs *types.Groupset) []*types.Group {
	members := make([]*types.Group, 0, len(gs.Groups))
	for _, gid := range gs.Groups {
		if g, ok := s.groups[gid]; ok {
			members = append(members, g)
		}
	}
	return members
}

// Hosts returns every host in the snapshot.
func (s *Snapshot) Hosts() []*types.Host {
	out := make([]*types.Host, 0, len(s.hosts))
	for _, h := range s.hosts {
		out = append(out, h)
	}
	return out
}

// Fingerprint returns a stable hash of the snapshot's groupset
// membership and statuses. It is cheap to compute and tells whether
// anything changed between two snapshots without diffing them in full.
func (s *Snapshot) Fingerprint() uint64 {
	ids := make([]string, 0, len(s.groupsets))
	for id := range s.groupsets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		gs := s.groupsets[id]
		b.WriteString(id)
		b.WriteByte(':')
		b.WriteString(string(gs.Status))
		b.WriteByte(';')
	}
	return xxhash.Sum64String(b.String())
}
