/*
Package historystore persists the per-couple recovery and TTL-cleanup
timestamps the scheduler consults before admitting a new recover_dc or
ttl_cleanup job (sched/__init__.py's get_history/update_history
against a Mongo "history" collection in the original).

spec.md calls for a document store; no Mongo driver appears anywhere
in the example pack this module was built from, so the store is a
single BoltDB bucket keyed by couple id, holding JSON-marshalled
values. One bucket is enough: HistoricRecord is the
only document shape this module ever stores.
*/
package historystore
