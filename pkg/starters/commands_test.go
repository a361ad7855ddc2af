package starters

import (
	"testing"

	"github.com/cuemby/stowsched/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestRecoverGroupCmd_IncludesGroupHostAndFamily(t *testing.T) {
	argv := RecoverGroupCmd(42, "host1", 2)
	require.Contains(t, argv, "42")
	require.Contains(t, argv, "host1")
	require.Contains(t, argv, "2")
}

func TestDefragNodeBackendCmd_IncludesBackendFields(t *testing.T) {
	argv := DefragNodeBackendCmd(&types.NodeBackend{Host: "host1", Port: 1025, Family: 10, BackendID: 3})
	require.Contains(t, argv, "host1")
	require.Contains(t, argv, "1025")
	require.Contains(t, argv, "3")
}
