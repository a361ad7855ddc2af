package starters

import (
	"strconv"

	"github.com/cuemby/stowsched/pkg/types"
)

// RecoverGroupCmd builds the argv a minion-style worker would exec to
// recover one group of a couple (infrastructure.recover_group_cmd in
// the original source). Execution is out of scope here; this just
// gives a real worker-dispatch integration a ready-made command
// builder to call.
func RecoverGroupCmd(groupID int, host string, family int) []string {
	return []string{
		"dnet_recovery", "deep_merge",
		"--group", strconv.Itoa(groupID),
		"--remote", host,
		"--family", strconv.Itoa(family),
	}
}

// DefragNodeBackendCmd builds the argv to defragment one node-backend
// (infrastructure.defrag_node_backend_cmd in the original source).
func DefragNodeBackendCmd(nb *types.NodeBackend) []string {
	return []string{
		"dnet_ioserv", "defrag",
		"--host", nb.Host,
		"--port", strconv.Itoa(nb.Port),
		"--family", strconv.Itoa(nb.Family),
		"--backend-id", strconv.Itoa(nb.BackendID),
	}
}
