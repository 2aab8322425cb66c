// Package scraper pulls release candidates from Nyaa's RSS search feed and
// decides which ones to acquire.
//
// The Client handles transport: RSS search sorted by seeders, retry with
// backoff, and attribute extraction (resolution, subgroup, episode number,
// infohash) from release titles. The Filter handles policy: seen-ledger
// rejection, query and include/exclude term matching, and logical-release
// grouping so only the best variant of each episode is accepted. Term
// matching is case-insensitive over NFKC-normalized titles, which folds
// the full-width characters common in anime release names.
package scraper
