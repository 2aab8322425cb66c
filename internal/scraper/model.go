package scraper

import (
	"time"

	"animarr/internal/store"
)

// Candidate is one release pulled from a torrent feed, annotated with the
// attributes extracted from its title.
type Candidate struct {
	Source      string
	Title       string
	Link        string
	Magnet      string
	Infohash    string
	SizeBytes   int64
	Seeders     int
	Leechers    int
	PublishedAt *time.Time

	Resolution string
	Subgroup   string
	Episode    int
	HasEpisode bool
}

// DedupKey derives the seen-ledger key for the candidate.
func (c *Candidate) DedupKey() string {
	return store.SeenKey(c.Infohash, c.Link, c.Title)
}

// SeenEntry converts an accepted candidate into a ledger record.
func (c *Candidate) SeenEntry(titleID int64, savePath string) *store.SeenTorrent {
	return &store.SeenTorrent{
		TitleID:     titleID,
		Source:      c.Source,
		Title:       c.Title,
		Link:        c.Link,
		Magnet:      c.Magnet,
		Infohash:    c.Infohash,
		PublishedAt: c.PublishedAt,
		SavePath:    savePath,
	}
}
