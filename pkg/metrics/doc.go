// Package metrics exposes Prometheus instrumentation for the scheduler
// core: job counts and lifecycle, resource-table occupancy, admission
// and starter-run latency, and historic-state store health.
//
// Handler() serves the registered collectors over HTTP for scraping;
// Timer is a small helper for recording operation durations.
package metrics
