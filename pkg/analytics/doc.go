/*
Package analytics talks to the external log-analytics cluster the
ttl_cleanup starter depends on (spec.md §4.7/§6): a day-partitioned
upload/delete log table and a couple-keyed aggregate table it
maintains on top of it.

No YT/YQL client exists anywhere in the reference pack, so Client is a
thin interface over whatever transport a deployment wires in; the four
named queries (validate partition, pre-aggregate, aggregate, replace)
are rendered from text/template so the SQL/YQL text lives in one place
and callers never hand-assemble strings with string concatenation.
*/
package analytics
