package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TitlesUpserted counts catalog records written during sync_catalog runs.
	TitlesUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "animarr_titles_upserted_total",
		Help: "Catalog records upserted from AniList.",
	})

	// CandidatesFound counts feed items returned for a title before filtering.
	CandidatesFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animarr_candidates_found_total",
		Help: "Feed candidates found per title before filtering.",
	}, []string{"title_id"})

	// TorrentsSubmitted counts releases handed to the download client.
	TorrentsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "animarr_torrents_submitted_total",
		Help: "Accepted releases submitted to the download client.",
	})

	// TorrentsFailed counts submissions the download client rejected.
	TorrentsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "animarr_torrents_failed_total",
		Help: "Release submissions that failed.",
	})

	// JobRuns counts finished job executions by type and terminal status.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animarr_job_runs_total",
		Help: "Finished job executions by type and terminal status.",
	}, []string{"job_type", "status"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
