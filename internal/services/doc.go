// Package services defines shared utilities consumed by the job operations
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp execution IDs, job types, title IDs, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     as per-item (counted and skipped) or systemic (fail the execution).
//
// Use these helpers when wiring new job logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
