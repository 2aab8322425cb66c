package anilist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animarr/internal/testsupport"
)

func mediaPage(hasNext bool, ids ...int64) map[string]any {
	media := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		media = append(media, map[string]any{
			"id": id,
			"title": map[string]any{
				"romaji":  fmt.Sprintf("Romaji %d", id),
				"english": fmt.Sprintf("English %d", id),
			},
			"format":       "TV",
			"season":       "FALL",
			"seasonYear":   2023,
			"status":       "RELEASING",
			"genres":       []string{"Fantasy"},
			"synonyms":     []string{fmt.Sprintf("Synonym %d", id)},
			"averageScore": 84,
			"popularity":   120000,
			"coverImage":   map[string]any{"large": "https://img.anili.st/media/1"},
			"siteUrl":      fmt.Sprintf("https://anilist.co/anime/%d", id),
			"updatedAt":    1700000000,
		})
	}
	return map[string]any{
		"data": map[string]any{
			"Page": map[string]any{
				"pageInfo": map[string]any{"hasNextPage": hasNext},
				"media":    media,
			},
		},
	}
}

func TestFetchReleasingFollowsPagination(t *testing.T) {
	var pages []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Variables struct {
				Page   int    `json:"page"`
				Season string `json:"season"`
				Status string `json:"status"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "FALL", payload.Variables.Season)
		assert.Equal(t, "RELEASING", payload.Variables.Status)
		pages = append(pages, payload.Variables.Page)

		w.Header().Set("Content-Type", "application/json")
		if payload.Variables.Page == 1 {
			json.NewEncoder(w).Encode(mediaPage(true, 101, 102))
			return
		}
		json.NewEncoder(w).Encode(mediaPage(false, 103))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithAniListBaseURL(server.URL))
	client := NewClient(cfg, nil)

	titles, err := client.FetchReleasing(context.Background(), Season{Name: "FALL", Year: 2023})
	require.NoError(t, err)
	require.Len(t, titles, 3)
	assert.Equal(t, []int{1, 2}, pages)
	assert.Equal(t, int64(101), titles[0].ID)
	assert.Equal(t, "Romaji 101", titles[0].TitleRomaji)
	assert.Equal(t, []string{"Synonym 101"}, titles[0].Synonyms)
	assert.Equal(t, 2023, titles[0].UpdatedAt.Year())
}

func TestFetchReleasingRespectsPageCap(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// Always claim another page exists; the cap must stop the loop.
		json.NewEncoder(w).Encode(mediaPage(true, int64(calls)))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithAniListBaseURL(server.URL))
	cfg.AniList.MaxPages = 2
	client := NewClient(cfg, nil)

	titles, err := client.FetchReleasing(context.Background(), Season{Name: "FALL", Year: 2023})
	require.NoError(t, err)
	assert.Len(t, titles, 2)
	assert.Equal(t, 2, calls)
}

func TestFetchReleasingRetriesRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(mediaPage(false, 7))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithAniListBaseURL(server.URL))
	client := NewClient(cfg, nil)

	titles, err := client.FetchReleasing(context.Background(), Season{Name: "FALL", Year: 2023})
	require.NoError(t, err)
	assert.Len(t, titles, 1)
	assert.Equal(t, 2, calls)
}

func TestFetchReleasingSurfacesGraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": "Invalid season"}},
		})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithAniListBaseURL(server.URL))
	client := NewClient(cfg, nil)

	_, err := client.FetchReleasing(context.Background(), Season{Name: "AUTUMN", Year: 2023})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid season")
}

func TestCurrentSeason(t *testing.T) {
	cases := []struct {
		month time.Month
		want  string
	}{
		{time.January, "WINTER"},
		{time.March, "WINTER"},
		{time.April, "SPRING"},
		{time.July, "SUMMER"},
		{time.October, "FALL"},
		{time.December, "FALL"},
	}
	for _, tc := range cases {
		season := CurrentSeason(time.Date(2024, tc.month, 15, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, tc.want, season.Name, tc.month.String())
		assert.Equal(t, 2024, season.Year)
	}
}
