// Package metrics exposes Prometheus counters for the acquisition
// pipeline: catalog upserts, feed candidates, torrent submissions, and
// finished job runs. Counters live in the default registry and are
// served at /metrics by the HTTP API.
package metrics
