package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"

	"animarr/internal/config"
	"animarr/internal/logging"
	"animarr/internal/services"
	"animarr/internal/store"
)

const seasonQuery = `query ($page: Int, $perPage: Int, $season: MediaSeason, $seasonYear: Int, $status: MediaStatus) {
  Page(page: $page, perPage: $perPage) {
    pageInfo { hasNextPage }
    media(season: $season, seasonYear: $seasonYear, status: $status, type: ANIME) {
      id
      title { romaji english native }
      format
      season
      seasonYear
      status
      genres
      synonyms
      description(asHtml: false)
      averageScore
      popularity
      coverImage { large }
      siteUrl
      updatedAt
    }
  }
}`

// Client talks to the AniList GraphQL API.
type Client struct {
	baseURL    string
	perPage    int
	maxPages   int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a catalog client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		baseURL:    cfg.AniList.BaseURL,
		perPage:    cfg.AniList.PerPage,
		maxPages:   cfg.AniList.MaxPages,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With(logging.FieldComponent, "anilist"),
	}
}

// Season identifies one broadcast quarter.
type Season struct {
	Name string
	Year int
}

func (s Season) String() string {
	return fmt.Sprintf("%s %d", s.Name, s.Year)
}

// CurrentSeason derives the broadcast season containing the given instant.
func CurrentSeason(now time.Time) Season {
	year := now.Year()
	switch {
	case now.Month() <= time.March:
		return Season{Name: "WINTER", Year: year}
	case now.Month() <= time.June:
		return Season{Name: "SPRING", Year: year}
	case now.Month() <= time.September:
		return Season{Name: "SUMMER", Year: year}
	default:
		return Season{Name: "FALL", Year: year}
	}
}

type pageResponse struct {
	Data struct {
		Page struct {
			PageInfo struct {
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
			Media []mediaEntry `json:"media"`
		} `json:"Page"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type mediaEntry struct {
	ID    int64 `json:"id"`
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
		Native  string `json:"native"`
	} `json:"title"`
	Format       string   `json:"format"`
	Season       string   `json:"season"`
	SeasonYear   int      `json:"seasonYear"`
	Status       string   `json:"status"`
	Genres       []string `json:"genres"`
	Synonyms     []string `json:"synonyms"`
	Description  string   `json:"description"`
	AverageScore int      `json:"averageScore"`
	Popularity   int      `json:"popularity"`
	CoverImage   struct {
		Large string `json:"large"`
	} `json:"coverImage"`
	SiteURL   string `json:"siteUrl"`
	UpdatedAt int64  `json:"updatedAt"`
}

// FetchReleasing pulls every page of currently releasing titles for a
// season, bounded by the configured page cap.
func (c *Client) FetchReleasing(ctx context.Context, season Season) ([]*store.Title, error) {
	var titles []*store.Title

	for page := 1; page <= c.maxPages; page++ {
		response, err := c.fetchPage(ctx, season, page)
		if err != nil {
			return nil, err
		}
		for _, entry := range response.Data.Page.Media {
			titles = append(titles, entry.toTitle())
		}
		if !response.Data.Page.PageInfo.HasNextPage {
			break
		}
	}

	c.logger.Info("catalog fetch complete",
		"season", season.Name,
		"season_year", season.Year,
		"titles", len(titles),
	)
	return titles, nil
}

func (c *Client) fetchPage(ctx context.Context, season Season, page int) (*pageResponse, error) {
	payload := map[string]any{
		"query": seasonQuery,
		"variables": map[string]any{
			"page":       page,
			"perPage":    c.perPage,
			"season":     season.Name,
			"seasonYear": season.Year,
			"status":     "RELEASING",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "anilist", "encode request", season.String(), err)
	}

	var response pageResponse
	err = retry.Do(func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if reqErr != nil {
			return retry.Unrecoverable(reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "animarr/1.0")

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return doErr
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			if wait := retryAfter(resp); wait > 0 {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return retry.Unrecoverable(ctx.Err())
				}
			}
			return fmt.Errorf("rate limited")
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return retry.Unrecoverable(fmt.Errorf("status %d: %s", resp.StatusCode, snippet))
		}

		response = pageResponse{}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&response); decodeErr != nil {
			return decodeErr
		}
		if len(response.Errors) > 0 {
			return retry.Unrecoverable(fmt.Errorf("graphql: %s", response.Errors[0].Message))
		}
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "anilist", "fetch page",
			fmt.Sprintf("%s page %d", season.String(), page), err)
	}
	return &response, nil
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (e *mediaEntry) toTitle() *store.Title {
	title := &store.Title{
		ID:           e.ID,
		TitleRomaji:  e.Title.Romaji,
		TitleEnglish: e.Title.English,
		TitleNative:  e.Title.Native,
		Format:       e.Format,
		Season:       e.Season,
		SeasonYear:   e.SeasonYear,
		Status:       e.Status,
		Genres:       e.Genres,
		Synonyms:     e.Synonyms,
		Description:  e.Description,
		AverageScore: e.AverageScore,
		Popularity:   e.Popularity,
		CoverImage:   e.CoverImage.Large,
		SiteURL:      e.SiteURL,
	}
	if e.UpdatedAt > 0 {
		title.UpdatedAt = time.Unix(e.UpdatedAt, 0).UTC()
	}
	return title
}
