// Package server exposes the HTTP API: job control and history,
// catalog listing, settings CRUD with the global-defaults sentinel,
// effective-settings resolution, template rendering, and the seen
// ledger. Handlers are a thin JSON layer; all behavior lives in the
// store, the resolver, and the job runner.
package server
