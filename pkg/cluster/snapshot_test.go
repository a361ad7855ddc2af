package cluster

import (
	"testing"

	"github.com/cuemby/stowsched/pkg/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

// TestNewSnapshot_ContentIndependentOfInputOrder builds two snapshots
// from the same groups/groupsets/hosts supplied in different orders
// and diffs their flattened views with cmp.Diff (ignoring slice
// order, since Groups/Groupsets/Hosts iterate Go maps) to confirm a
// Snapshot's content depends only on what was passed in, never on
// the order it arrived in.
func TestNewSnapshot_ContentIndependentOfInputOrder(t *testing.T) {
	groups := []*types.Group{
		{ID: 1, CoupleID: "1:2"},
		{ID: 2, CoupleID: "1:2"},
	}
	groupsets := []*types.Groupset{
		{ID: "1:2", Groups: []int{1, 2}},
	}
	hosts := []*types.Host{
		{Addr: "host1", DC: "dc1"},
		{Addr: "host2", DC: "dc2"},
	}

	reversedGroups := []*types.Group{groups[1], groups[0]}
	reversedHosts := []*types.Host{hosts[1], hosts[0]}

	a := NewSnapshot(groups, groupsets, hosts)
	b := NewSnapshot(reversedGroups, groupsets, reversedHosts)

	sortGroups := cmpopts.SortSlices(func(x, y *types.Group) bool { return x.ID < y.ID })
	sortHosts := cmpopts.SortSlices(func(x, y *types.Host) bool { return x.Addr < y.Addr })

	if diff := cmp.Diff(a.Groups(), b.Groups(), sortGroups); diff != "" {
		t.Fatalf("Groups() differ (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a.Hosts(), b.Hosts(), sortHosts); diff != "" {
		t.Fatalf("Hosts() differ (-a +b):\n%s", diff)
	}
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
}
