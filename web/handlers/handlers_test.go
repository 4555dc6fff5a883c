package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/docket/internal/storage/sqlite"
	"github.com/scrypster/docket/pkg/types"
	"github.com/scrypster/docket/web/handlers"
)

// newTestRouter builds the API routes over a fresh in-memory store. Routes use
// method patterns so r.PathValue works the same way it does in production.
func newTestRouter(t *testing.T) (*http.ServeMux, *sqlite.ArchiveStore) {
	t.Helper()

	store, err := sqlite.NewArchiveStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	documentHandlers := handlers.NewDocumentHandlers(store, store)
	entityHandlers := handlers.NewEntityHandlers(store)
	mediaHandlers := handlers.NewMediaHandlers(store)
	searchHandlers := handlers.NewSearchHandlers(store)
	statsHandlers := handlers.NewStatsHandlers(store, store, store)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/documents", documentHandlers.ListDocuments)
	mux.HandleFunc("GET /api/documents/{id}", documentHandlers.GetDocument)
	mux.HandleFunc("GET /api/documents/{id}/entities", documentHandlers.ListDocumentEntities)
	mux.HandleFunc("GET /api/entities", entityHandlers.ListEntities)
	mux.HandleFunc("GET /api/entities/{id}", entityHandlers.GetEntity)
	mux.HandleFunc("GET /api/entities/{id}/relationships", entityHandlers.ListEntityRelationships)
	mux.HandleFunc("GET /api/albums", mediaHandlers.ListAlbums)
	mux.HandleFunc("GET /api/albums/{id}/media", mediaHandlers.ListAlbumMedia)
	mux.HandleFunc("GET /api/search", searchHandlers.Search)
	mux.HandleFunc("GET /api/stats", statsHandlers.GetStats)

	return mux, store
}

func doGet(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func insertDocument(t *testing.T, store *sqlite.ArchiveStore, externalID, content string) *types.Document {
	t.Helper()
	doc := &types.Document{
		ExternalID:   externalID,
		Title:        externalID + ".pdf",
		StoragePath:  "/archive/text/" + externalID + ".txt",
		Content:      content,
		EvidenceType: "court_filing",
		Custodian:    "FBI",
	}
	_, err := store.UpsertDocument(context.Background(), doc)
	require.NoError(t, err)
	return doc
}

func insertEntity(t *testing.T, store *sqlite.ArchiveStore, name, entityType, role string) *types.Entity {
	t.Helper()
	entity, err := store.UpsertEntity(context.Background(), &types.Entity{
		Name: name,
		Type: entityType,
		Role: role,
	})
	require.NoError(t, err)
	return entity
}

func TestListDocuments(t *testing.T) {
	mux, store := newTestRouter(t)
	insertDocument(t, store, "DOJ-OGR-00001", "deposition transcript")
	insertDocument(t, store, "DOJ-OGR-00002", "flight manifest")

	rec := doGet(t, mux, "/api/documents")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Documents []types.Document `json:"documents"`
		Total     int              `json:"total"`
		Page      int              `json:"page"`
		HasMore   bool             `json:"has_more"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 2, body.Total)
	assert.Len(t, body.Documents, 2)
	assert.Equal(t, 1, body.Page)
	assert.False(t, body.HasMore)
}

func TestListDocumentsFilters(t *testing.T) {
	mux, store := newTestRouter(t)
	insertDocument(t, store, "A1", "filed in the southern district")
	missing := &types.Document{
		ExternalID:  "A2",
		Title:       "A2.pdf",
		StoragePath: types.MissingPathPrefix + "A2",
		Content:     types.PlaceholderContent,
	}
	_, err := store.UpsertDocument(context.Background(), missing)
	require.NoError(t, err)

	rec := doGet(t, mux, "/api/documents?missing_only=true")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Documents []types.Document `json:"documents"`
		Total     int              `json:"total"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "A2", body.Documents[0].ExternalID)
}

func TestGetDocument(t *testing.T) {
	mux, store := newTestRouter(t)
	insertDocument(t, store, "DOJ-OGR-00042", "exhibit list")

	rec := doGet(t, mux, "/api/documents/DOJ-OGR-00042")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc types.Document
	decodeBody(t, rec, &doc)
	assert.Equal(t, "DOJ-OGR-00042", doc.ExternalID)
	assert.Equal(t, "court_filing", doc.EvidenceType)
}

func TestGetDocumentNotFound(t *testing.T) {
	mux, _ := newTestRouter(t)

	rec := doGet(t, mux, "/api/documents/NOPE-1")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var errResp handlers.ErrorResponse
	decodeBody(t, rec, &errResp)
	assert.Equal(t, "NOT_FOUND", errResp.Code)
}

func TestListDocumentEntities(t *testing.T) {
	mux, store := newTestRouter(t)
	doc := insertDocument(t, store, "B1", "interview notes")
	entity := insertEntity(t, store, "Jean-Luc Brunel", types.EntityPerson, "Unknown")
	require.NoError(t, store.LinkDocumentEntity(context.Background(), doc.ID, entity.ID))

	rec := doGet(t, mux, "/api/documents/B1/entities")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		DocumentID string         `json:"document_id"`
		Entities   []types.Entity `json:"entities"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "B1", body.DocumentID)
	require.Len(t, body.Entities, 1)
	assert.Equal(t, "Jean-Luc Brunel", body.Entities[0].Name)

	rec = doGet(t, mux, "/api/documents/B9/entities")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEntitiesFilterByRole(t *testing.T) {
	mux, store := newTestRouter(t)
	insertEntity(t, store, "Alan Dershowitz", types.EntityPerson, "Attorney")
	insertEntity(t, store, "Sarah Kellen", types.EntityPerson, "Staff")

	rec := doGet(t, mux, "/api/entities?role=Attorney")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entities []types.Entity `json:"entities"`
		Total    int            `json:"total"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "Alan Dershowitz", body.Entities[0].Name)
}

func TestGetEntityInvalidID(t *testing.T) {
	mux, _ := newTestRouter(t)

	rec := doGet(t, mux, "/api/entities/abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp handlers.ErrorResponse
	decodeBody(t, rec, &errResp)
	assert.Equal(t, "INVALID_INPUT", errResp.Code)
}

func TestListEntityRelationships(t *testing.T) {
	mux, store := newTestRouter(t)
	from := insertEntity(t, store, "Jeffrey Epstein", types.EntityPerson, "Unknown")
	to := insertEntity(t, store, "Ghislaine Maxwell", types.EntityPerson, "Unknown")
	require.NoError(t, store.CreateRelationship(context.Background(), &types.Relationship{
		ID:         "rel-1",
		FromID:     from.ID,
		ToID:       to.ID,
		Type:       types.RelCoOccurs,
		Strength:   0.1,
		Confidence: 0.5,
	}))

	rec := doGet(t, mux, fmt.Sprintf("/api/entities/%d/relationships", from.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Relationships []types.Relationship `json:"relationships"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Relationships, 1)
	assert.Equal(t, to.ID, body.Relationships[0].ToID)

	rec = doGet(t, mux, "/api/entities/424242/relationships")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchDocuments(t *testing.T) {
	mux, store := newTestRouter(t)
	insertDocument(t, store, "A1", "wire transfer to zanzibar holdings")
	insertDocument(t, store, "A2", "routine scheduling email")

	rec := doGet(t, mux, "/api/search?q=zanzibar")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Query     string           `json:"query"`
		Documents []types.Document `json:"documents"`
		Total     int              `json:"total"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "zanzibar", body.Query)
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "A1", body.Documents[0].ExternalID)
}

func TestSearchEntities(t *testing.T) {
	mux, store := newTestRouter(t)
	insertEntity(t, store, "Deutsche Bank", types.EntityOrganization, "Financial Institution")

	rec := doGet(t, mux, "/api/search?q=deutsche&type=entities")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entities []types.Entity `json:"entities"`
		Total    int            `json:"total"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "Deutsche Bank", body.Entities[0].Name)
}

func TestSearchValidation(t *testing.T) {
	mux, _ := newTestRouter(t)

	rec := doGet(t, mux, "/api/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doGet(t, mux, "/api/search?q=epstein&type=flights")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	mux, store := newTestRouter(t)
	insertDocument(t, store, "S1", "stats fixture")
	insertEntity(t, store, "Les Wexner", types.EntityPerson, "Unknown")
	require.NoError(t, store.RecordRun(context.Background(), &types.IngestRun{
		ID:        "run-1",
		Kind:      types.RunRebuild,
		Processed: 1,
		Inserted:  1,
	}))

	rec := doGet(t, mux, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.StatsResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, 1, body.Documents)
	assert.Equal(t, 1, body.Entities)
	assert.Equal(t, 0, body.Relationships)
	require.Len(t, body.RecentRuns, 1)
	assert.Equal(t, types.RunRebuild, body.RecentRuns[0].Kind)
}

func TestListAlbumsAndMedia(t *testing.T) {
	mux, store := newTestRouter(t)
	album, err := store.UpsertAlbum(context.Background(), "surveillance-stills")
	require.NoError(t, err)
	require.NoError(t, store.InsertMediaItem(context.Background(), &types.MediaItem{
		AlbumID:  album.ID,
		FileName: "still_001.png",
		Path:     "/archive/media/surveillance-stills/still_001.png",
	}))

	rec := doGet(t, mux, "/api/albums")
	require.Equal(t, http.StatusOK, rec.Code)

	var albums struct {
		Albums []types.Album `json:"albums"`
	}
	decodeBody(t, rec, &albums)
	require.Len(t, albums.Albums, 1)
	assert.Equal(t, "surveillance-stills", albums.Albums[0].Name)

	rec = doGet(t, mux, "/api/albums/"+album.ID+"/media")
	require.Equal(t, http.StatusOK, rec.Code)

	var media struct {
		Media []types.MediaItem `json:"media"`
	}
	decodeBody(t, rec, &media)
	require.Len(t, media.Media, 1)
	assert.Equal(t, "still_001.png", media.Media[0].FileName)
}
