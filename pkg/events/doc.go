/*
Package events is a small in-memory pub/sub broker the scheduler uses
to announce job-lifecycle transitions (created, cancelled, rejected)
and starter-run completions, so a CLI operator or a future audit
subscriber can watch admission decisions as they happen without
polling the job store.

Delivery to subscribers is best-effort: a full subscriber buffer drops
the event. Publish itself waits while the broker's 100-event queue is
full, until there is room or the broker is stopped.
*/
package events
