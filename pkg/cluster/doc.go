/*
Package cluster holds the point-in-time view of storage state that
every starter and the scheduler read from: groups, groupsets, hosts,
and filesystems, plus the Inventory collaborator that resolves a host
to its datacenter.

# Snapshot, not globals

The original implementation reaches into module-level singletons
(storage.groups, storage.couples, infrastructure) from anywhere. This
package replaces that with an explicit, immutable Snapshot value built
once per periodic run (see cmd/stowsched and pkg/starters) and passed
into every starter. A starter that needs to remove a matched candidate
from further consideration works against its own copy of the relevant
working set, never against the shared Snapshot.

# Datacenter resolution failures

Inventory.DC can fail when the inventory cache has no entry for a host
yet. Per spec.md's Open Questions, this failure is silently swallowed
by callers that iterate hosts/groups: the affected host or group is
skipped for that run, never escalated. ErrCacheUpstream is the
sentinel error Inventory implementations should wrap.
*/
package cluster
