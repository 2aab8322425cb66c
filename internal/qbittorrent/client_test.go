package qbittorrent

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animarr/internal/testsupport"
)

func qbitServer(t *testing.T, loginCount *int, addForms *[]map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		*loginCount++
		if r.PostForm.Get("username") != "admin" || r.PostForm.Get("password") != "secret" {
			fmt.Fprint(w, "Fails.")
			return
		}
		// qBittorrent scopes the session cookie to the whole host.
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "session-1", Path: "/"})
		fmt.Fprint(w, "Ok.")
	})
	mux.HandleFunc("/api/v2/torrents/add", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie("SID"); err != nil || cookie.Value == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		require.NoError(t, r.ParseForm())
		*addForms = append(*addForms, map[string]string{
			"urls":     r.PostForm.Get("urls"),
			"savepath": r.PostForm.Get("savepath"),
			"category": r.PostForm.Get("category"),
			"autoTMM":  r.PostForm.Get("autoTMM"),
		})
		fmt.Fprint(w, "Ok.")
	})
	mux.HandleFunc("/api/v2/app/version", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "v5.0.1")
	})
	return httptest.NewServer(mux)
}

func TestAddByURLAuthenticatesOnceAndSubmitsForm(t *testing.T) {
	var logins int
	var forms []map[string]string
	server := qbitServer(t, &logins, &forms)
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithQBittorrent(server.URL, "admin", "secret"))
	client, err := NewClient(cfg, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.AddByURL(ctx, "https://nyaa.si/download/1.torrent", "/data/anime/Frieren"))
	require.NoError(t, client.AddByURL(ctx, "magnet:?xt=urn:btih:abc", "/data/anime/Frieren"))

	assert.Equal(t, 1, logins)
	require.Len(t, forms, 2)
	assert.Equal(t, "https://nyaa.si/download/1.torrent", forms[0]["urls"])
	assert.Equal(t, "/data/anime/Frieren", forms[0]["savepath"])
	assert.Equal(t, "anime", forms[0]["category"])
	assert.Equal(t, "false", forms[0]["autoTMM"])
}

func TestAddByURLRejectsBadCredentials(t *testing.T) {
	var logins int
	var forms []map[string]string
	server := qbitServer(t, &logins, &forms)
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithQBittorrent(server.URL, "admin", "wrong"))
	client, err := NewClient(cfg, nil)
	require.NoError(t, err)

	err = client.AddByURL(context.Background(), "magnet:?xt=urn:btih:abc", "/data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login")
	assert.Empty(t, forms)
}

func TestTestConnection(t *testing.T) {
	var logins int
	var forms []map[string]string
	server := qbitServer(t, &logins, &forms)
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithQBittorrent(server.URL, "admin", "secret"))
	client, err := NewClient(cfg, nil)
	require.NoError(t, err)

	require.NoError(t, client.TestConnection(context.Background()))
	assert.Equal(t, 1, logins)
}

func TestPathMapperLongestPrefixWins(t *testing.T) {
	mapper := NewPathMapper(map[string]string{
		"/storage/data":          "/data",
		"/storage/data/torrents": "/torrents",
	})

	assert.Equal(t, "/torrents/anime/Frieren", mapper.ToRemote("/storage/data/torrents/anime/Frieren"))
	assert.Equal(t, "/data/media/Frieren", mapper.ToRemote("/storage/data/media/Frieren"))
	assert.Equal(t, "/storage/data/torrents/anime", mapper.ToLocal("/torrents/anime"))
}

func TestPathMapperMatchesWholeComponents(t *testing.T) {
	mapper := NewPathMapper(map[string]string{"/data": "/remote"})

	assert.Equal(t, "/remote/anime", mapper.ToRemote("/data/anime"))
	assert.Equal(t, "/remote", mapper.ToRemote("/data"))
	// "/data2" must not match the "/data" mapping.
	assert.Equal(t, "/data2/anime", mapper.ToRemote("/data2/anime"))
}

func TestPathMapperPassThroughWithoutMappings(t *testing.T) {
	mapper := NewPathMapper(nil)
	assert.Equal(t, "/anywhere", mapper.ToRemote("/anywhere"))
	assert.Equal(t, "/anywhere", mapper.ToLocal("/anywhere"))
}
