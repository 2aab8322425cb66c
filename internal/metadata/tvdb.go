package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"animarr/internal/config"
	"animarr/internal/logging"
	"animarr/internal/services"
)

// tokenLifetime is kept below TVDB's 24h token validity so a cached token
// never expires mid-request.
const tokenLifetime = 23 * time.Hour

// TVDBClient talks to TheTVDB v4 API with a cached bearer token.
type TVDBClient struct {
	baseURL  string
	apiKey   string
	language string
	client   *http.Client
	logger   *slog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewTVDB builds a TVDB provider from configuration.
func NewTVDB(cfg *config.Config, logger *slog.Logger) *TVDBClient {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TVDBClient{
		baseURL:  cfg.TVDB.BaseURL,
		apiKey:   cfg.TVDB.APIKey,
		language: cfg.TVDB.Language,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger.With(logging.FieldComponent, "tvdb"),
	}
}

// Series fetches series metadata by TVDB id. Returns (nil, nil) when the
// client has no API key or the series does not exist.
func (c *TVDBClient) Series(ctx context.Context, id int64) (*Record, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data struct {
			Name       string `json:"name"`
			FirstAired string `json:"firstAired"`
		} `json:"data"`
	}
	status, err := c.getJSON(ctx, fmt.Sprintf("%s/series/%d", c.baseURL, id), token, &payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}

	record := &Record{
		ID:   id,
		Name: payload.Data.Name,
		Kind: "series",
	}
	if len(payload.Data.FirstAired) >= 4 {
		if year, convErr := strconv.Atoi(payload.Data.FirstAired[:4]); convErr == nil {
			record.Year = year
		}
	}

	if translated := c.translatedName(ctx, id, token); translated != "" {
		record.Name = translated
	}
	return record, nil
}

// translatedName fetches the series name in the configured language.
// Failures fall back to the default name silently.
func (c *TVDBClient) translatedName(ctx context.Context, id int64, token string) string {
	if c.language == "" {
		return ""
	}
	var payload struct {
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	status, err := c.getJSON(ctx,
		fmt.Sprintf("%s/series/%d/translations/%s", c.baseURL, id, c.language), token, &payload)
	if err != nil || status != http.StatusOK {
		return ""
	}
	return payload.Data.Name
}

func (c *TVDBClient) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{"apikey": c.apiKey})
	if err != nil {
		return "", services.Wrap(services.ErrExternal, "tvdb", "login", "marshal credentials", err)
	}

	var payload struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	err = retry.Do(func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
		if reqErr != nil {
			return retry.Unrecoverable(reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, doErr := c.client.Do(req)
		if doErr != nil {
			return doErr
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("login status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&payload)
	},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", services.Wrap(services.ErrExternal, "tvdb", "login", "authenticate", err)
	}
	if payload.Data.Token == "" {
		return "", services.Wrap(services.ErrExternal, "tvdb", "login", "empty token in response", nil)
	}

	c.token = payload.Data.Token
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	c.logger.Debug("refreshed bearer token")
	return c.token, nil
}

// getJSON performs an authenticated GET with retries. 404 is returned to
// the caller without error so absence can be distinguished from failure.
func (c *TVDBClient) getJSON(ctx context.Context, url, token string, out any) (int, error) {
	var status int
	err := retry.Do(func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if reqErr != nil {
			return retry.Unrecoverable(reqErr)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		resp, doErr := c.client.Do(req)
		if doErr != nil {
			return doErr
		}
		defer resp.Body.Close()
		status = resp.StatusCode
		switch {
		case resp.StatusCode == http.StatusOK:
			return json.NewDecoder(resp.Body).Decode(out)
		case resp.StatusCode == http.StatusNotFound:
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		case resp.StatusCode >= 500:
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
		return status, services.Wrap(services.ErrExternal, "tvdb", "get", url, err)
	}
	return status, nil
}
