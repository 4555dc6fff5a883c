package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/docket/internal/config"
	"github.com/scrypster/docket/internal/server"
	"github.com/scrypster/docket/internal/storage/sqlite"
	"github.com/scrypster/docket/pkg/types"
)

// startTestServer starts a server on a random port over an in-memory store
// and returns the base URL and the store for seeding.
func startTestServer(t *testing.T, cfg *config.Config) (string, *sqlite.ArchiveStore) {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	if cfg.Security.RateLimit == 0 {
		cfg.Security.RateLimit = 100
	}

	store, err := sqlite.NewArchiveStore(":memory:")
	require.NoError(t, err, "failed to create in-memory store")

	ctx, cancel := context.WithCancel(context.Background())

	addr, err := server.Start(ctx, cfg, store)
	require.NoError(t, err, "failed to start server")

	t.Cleanup(func() {
		cancel()
		time.Sleep(50 * time.Millisecond)
		store.Close()
	})

	return "http://" + addr, store
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err, "request failed")
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func seedDocument(t *testing.T, store *sqlite.ArchiveStore, externalID, content string) *types.Document {
	t.Helper()
	doc := &types.Document{
		ExternalID:  externalID,
		Title:       externalID + ".pdf",
		StoragePath: "/archive/text/" + externalID + ".txt",
		Content:     content,
	}
	_, err := store.UpsertDocument(context.Background(), doc)
	require.NoError(t, err)
	return doc
}

func TestHealthEndpoint(t *testing.T) {
	baseURL, _ := startTestServer(t, nil)

	resp := getJSON(t, baseURL+"/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListAndGetDocuments(t *testing.T) {
	baseURL, store := startTestServer(t, nil)
	seedDocument(t, store, "DOJ-OGR-00001", "first document text")
	seedDocument(t, store, "DOJ-OGR-00002", "second document text")

	var listBody struct {
		Documents []types.Document `json:"documents"`
		Total     int              `json:"total"`
	}
	resp := getJSON(t, baseURL+"/api/documents", &listBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, listBody.Total)
	assert.Len(t, listBody.Documents, 2)

	var doc types.Document
	resp = getJSON(t, baseURL+"/api/documents/DOJ-OGR-00001", &doc)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DOJ-OGR-00001", doc.ExternalID)

	resp = getJSON(t, baseURL+"/api/documents/NO-SUCH-DOC", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	baseURL, store := startTestServer(t, nil)
	seedDocument(t, store, "A1", "wire transfer to zanzibar")
	seedDocument(t, store, "A2", "routine correspondence")

	var body struct {
		Documents []types.Document `json:"documents"`
		Total     int              `json:"total"`
	}
	resp := getJSON(t, baseURL+"/api/search?q=zanzibar", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "A1", body.Documents[0].ExternalID)

	resp = getJSON(t, baseURL+"/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEntityEndpoints(t *testing.T) {
	baseURL, store := startTestServer(t, nil)

	entity, err := store.UpsertEntity(context.Background(), &types.Entity{
		Name: "Ghislaine Maxwell", Type: types.EntityPerson,
	})
	require.NoError(t, err)

	var got types.Entity
	resp := getJSON(t, fmt.Sprintf("%s/api/entities/%d", baseURL, entity.ID), &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ghislaine Maxwell", got.Name)

	resp = getJSON(t, baseURL+"/api/entities/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, baseURL+"/api/entities/999999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	baseURL, store := startTestServer(t, nil)
	seedDocument(t, store, "S1", "stats fixture")

	var body struct {
		Documents  int               `json:"documents"`
		RecentRuns []types.IngestRun `json:"recent_runs"`
	}
	resp := getJSON(t, baseURL+"/api/stats", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, body.Documents)
	assert.NotNil(t, body.RecentRuns)
}

func TestAuthRequiredWhenTokenConfigured(t *testing.T) {
	cfg := &config.Config{}
	cfg.Security.APIToken = "secret-token"
	baseURL, _ := startTestServer(t, cfg)

	// Health stays open.
	resp := getJSON(t, baseURL+"/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// API requires the bearer token.
	resp = getJSON(t, baseURL+"/api/documents", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/documents", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret-token")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)
}

func TestAlbumEndpoints(t *testing.T) {
	baseURL, store := startTestServer(t, nil)

	album, err := store.UpsertAlbum(context.Background(), "island-photos")
	require.NoError(t, err)
	require.NoError(t, store.InsertMediaItem(context.Background(), &types.MediaItem{
		AlbumID:  album.ID,
		FileName: "IMG_0001.jpg",
		Path:     "/archive/media/island-photos/IMG_0001.jpg",
	}))

	var albums struct {
		Albums []types.Album `json:"albums"`
	}
	resp := getJSON(t, baseURL+"/api/albums", &albums)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, albums.Albums, 1)

	var media struct {
		Media []types.MediaItem `json:"media"`
	}
	resp = getJSON(t, baseURL+"/api/albums/"+album.ID+"/media", &media)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, media.Media, 1)
}
