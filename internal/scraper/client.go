package scraper

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"animarr/internal/config"
	"animarr/internal/logging"
	"animarr/internal/services"
)

// Client queries Nyaa's RSS search feed for release candidates.
type Client struct {
	baseURL    string
	category   string
	maxRetries uint
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a feed client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		baseURL:    cfg.Nyaa.BaseURL,
		category:   cfg.Nyaa.Category,
		maxRetries: uint(cfg.Nyaa.MaxRetries),
		httpClient: &http.Client{Timeout: time.Duration(cfg.Nyaa.RequestTimeout) * time.Second},
		logger:     logger.With(logging.FieldComponent, "scraper"),
	}
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
	Seeders     int    `xml:"seeders"`
	Leechers    int    `xml:"leechers"`
	InfoHash    string `xml:"infoHash"`
	Magnet      string `xml:"magnet"`
	Size        string `xml:"size"`
}

// Search fetches candidates for a query, sorted by seeders descending on
// the server side.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("page", "rss")
	params.Set("c", c.category)
	params.Set("q", query)
	params.Set("s", "seeders")
	params.Set("o", "desc")

	feedURL := fmt.Sprintf("%s/?%s", c.baseURL, params.Encode())

	var body []byte
	err := retry.Do(func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if reqErr != nil {
			return retry.Unrecoverable(reqErr)
		}
		req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")
		req.Header.Set("User-Agent", "animarr/1.0")

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return doErr
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		}
		var readErr error
		body, readErr = io.ReadAll(resp.Body)
		return readErr
	},
		retry.Context(ctx),
		retry.Attempts(c.maxRetries),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "scraper", "search", query, err)
	}

	candidates, err := parseFeed(body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "scraper", "parse feed", query, err)
	}
	c.logger.Debug("feed search complete", "query", query, "candidates", len(candidates))
	return candidates, nil
}

// TestConnection verifies the feed endpoint responds.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Search(ctx, "")
	return err
}

func parseFeed(body []byte) ([]Candidate, error) {
	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse RSS XML: %w", err)
	}

	candidates := make([]Candidate, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		candidate := Candidate{
			Source:    "nyaa",
			Title:     strings.TrimSpace(item.Title),
			Link:      strings.TrimSpace(item.Link),
			Magnet:    strings.TrimSpace(item.Magnet),
			Infohash:  strings.TrimSpace(item.InfoHash),
			SizeBytes: parseSize(item.Size),
			Seeders:   item.Seeders,
			Leechers:  item.Leechers,
		}
		if candidate.Title == "" {
			continue
		}
		if published, err := parsePubDate(item.PubDate); err == nil {
			candidate.PublishedAt = &published
		}
		if candidate.Infohash == "" {
			candidate.Infohash = ExtractInfohash(item.Description)
		}
		Annotate(&candidate)
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func parsePubDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized pubDate %q", value)
}

// parseSize converts feed size strings such as "1.4 GiB" to bytes.
func parseSize(value string) int64 {
	fields := strings.Fields(strings.TrimSpace(value))
	if len(fields) != 2 {
		return 0
	}
	var amount float64
	if _, err := fmt.Sscanf(fields[0], "%f", &amount); err != nil {
		return 0
	}
	switch strings.ToLower(fields[1]) {
	case "tib", "tb":
		return int64(amount * 1024 * 1024 * 1024 * 1024)
	case "gib", "gb":
		return int64(amount * 1024 * 1024 * 1024)
	case "mib", "mb":
		return int64(amount * 1024 * 1024)
	case "kib", "kb":
		return int64(amount * 1024)
	case "b", "bytes":
		return int64(amount)
	default:
		return 0
	}
}
