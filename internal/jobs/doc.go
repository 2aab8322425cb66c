// Package jobs orchestrates the recurring and on-demand work of the
// service: catalog sync, feed scan, store init, and download export.
//
// Every run is recorded as an execution in the store before work begins
// and finalized with a terminal status, counters, and a result payload.
// A per-job-type lock keeps at most one run of each type active;
// concurrent attempts fail fast without creating a record. Item-level
// failures inside a batch are counted and skipped, while setup or
// persistence failures abort the execution.
package jobs
