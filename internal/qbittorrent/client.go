package qbittorrent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"animarr/internal/config"
	"animarr/internal/logging"
	"animarr/internal/services"
)

// Client talks to the qBittorrent Web API v2.
type Client struct {
	baseURL    string
	username   string
	password   string
	category   string
	httpClient *http.Client
	logger     *slog.Logger

	mu            sync.Mutex
	authenticated bool
}

// NewClient builds a download-client adapter from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "qbittorrent", "cookie jar", "", err)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.QBittorrent.URL, "/"),
		username:   cfg.QBittorrent.Username,
		password:   cfg.QBittorrent.Password,
		category:   cfg.QBittorrent.Category,
		httpClient: &http.Client{Timeout: 60 * time.Second, Jar: jar},
		logger:     logger.With(logging.FieldComponent, "qbittorrent"),
	}, nil
}

// Category returns the configured torrent category.
func (c *Client) Category() string {
	return c.category
}

// login authenticates when credentials are configured. The session cookie
// lives in the client's jar afterwards.
func (c *Client) login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authenticated {
		return nil
	}
	if c.username == "" || c.password == "" {
		c.logger.Debug("no credentials configured, assuming open access")
		c.authenticated = true
		return nil
	}

	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return services.Wrap(services.ErrExternal, "qbittorrent", "login", "", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.baseURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternal, "qbittorrent", "login", "", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	answer := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK || !strings.EqualFold(answer, "ok.") {
		return services.Wrap(services.ErrExternal, "qbittorrent", "login",
			fmt.Sprintf("status %d: %s", resp.StatusCode, answer), nil)
	}

	c.authenticated = true
	c.logger.Info("login succeeded", "url", c.baseURL)
	return nil
}

// resetAuth forces a fresh login on the next call, used after a 403.
func (c *Client) resetAuth() {
	c.mu.Lock()
	c.authenticated = false
	c.mu.Unlock()
}

// AddByURL submits a torrent link or magnet URI with an explicit save
// path. Automatic torrent management is disabled so the save path sticks.
func (c *Client) AddByURL(ctx context.Context, torrentURL, savePath string) error {
	form := url.Values{}
	form.Set("urls", torrentURL)
	form.Set("savepath", savePath)
	form.Set("category", c.category)
	form.Set("autoTMM", "false")

	err := retry.Do(func() error {
		if loginErr := c.login(ctx); loginErr != nil {
			return loginErr
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/v2/torrents/add", strings.NewReader(form.Encode()))
		if reqErr != nil {
			return retry.Unrecoverable(reqErr)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Referer", c.baseURL)

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return doErr
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusForbidden {
			c.resetAuth()
			return fmt.Errorf("session expired")
		}
		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
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
		return services.Wrap(services.ErrExternal, "qbittorrent", "add torrent", torrentURL, err)
	}

	c.logger.Info("torrent submitted", "save_path", savePath, "category", c.category)
	return nil
}

// TestConnection verifies authentication and API reachability.
func (c *Client) TestConnection(ctx context.Context) error {
	if err := c.login(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/app/version", nil)
	if err != nil {
		return services.Wrap(services.ErrExternal, "qbittorrent", "version", "", err)
	}
	req.Header.Set("Referer", c.baseURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternal, "qbittorrent", "version", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternal, "qbittorrent", "version",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	version, _ := io.ReadAll(io.LimitReader(resp.Body, 64))
	c.logger.Debug("connected", "version", strings.TrimSpace(string(version)))
	return nil
}
