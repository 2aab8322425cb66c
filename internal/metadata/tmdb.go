package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"

	"animarr/internal/config"
	"animarr/internal/logging"
	"animarr/internal/services"
)

// TMDBClient talks to The Movie Database v3 API using api_key auth.
type TMDBClient struct {
	baseURL  string
	apiKey   string
	language string
	client   *http.Client
	logger   *slog.Logger
}

// NewTMDB builds a TMDB provider from configuration.
func NewTMDB(cfg *config.Config, logger *slog.Logger) *TMDBClient {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TMDBClient{
		baseURL:  cfg.TMDB.BaseURL,
		apiKey:   cfg.TMDB.APIKey,
		language: cfg.TMDB.Language,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger.With(logging.FieldComponent, "tmdb"),
	}
}

// Series fetches TV series metadata by TMDB id. Returns (nil, nil) when
// the client has no API key or the series does not exist.
func (c *TMDBClient) Series(ctx context.Context, id int64) (*Record, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	query := url.Values{}
	query.Set("api_key", c.apiKey)
	if c.language != "" {
		query.Set("language", c.language)
	}
	endpoint := fmt.Sprintf("%s/tv/%d?%s", c.baseURL, id, query.Encode())

	var payload struct {
		Name         string `json:"name"`
		FirstAirDate string `json:"first_air_date"`
	}
	var status int
	err := retry.Do(func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if reqErr != nil {
			return retry.Unrecoverable(reqErr)
		}
		resp, doErr := c.client.Do(req)
		if doErr != nil {
			return doErr
		}
		defer resp.Body.Close()
		status = resp.StatusCode
		switch {
		case resp.StatusCode == http.StatusOK:
			return json.NewDecoder(resp.Body).Decode(&payload)
		case resp.StatusCode == http.StatusNotFound:
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("status %d", resp.StatusCode)
		default:
			return retry.Unrecoverable(fmt.Errorf("status %d", resp.StatusCode))
		}
	},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "tmdb", "get series", strconv.FormatInt(id, 10), err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}

	record := &Record{
		ID:   id,
		Name: payload.Name,
		Kind: "series",
	}
	if len(payload.FirstAirDate) >= 4 {
		if year, convErr := strconv.Atoi(payload.FirstAirDate[:4]); convErr == nil {
			record.Year = year
		}
	}
	return record, nil
}
