// Package scheduler drives the recurring catalog sync and feed scan on
// fixed intervals. It is a thin layer over the job runner; overlap
// protection comes from the runner's per-type locks.
package scheduler
