package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) receiveIssue(t *testing.T, journalID uint, issue int) uint {
	t.Helper()
	w := s.do(t, http.MethodPost, fmt.Sprintf("/api/journals/%d/storage", journalID), s.adminToken,
		gin.H{"year": 2024, "volume": 12, "issue": issue})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return idOf(t, w)
}

func TestHoldings_Subscriptions(t *testing.T) {
	srv := newTestServer(t)
	reader := srv.signUp(t, "alice")
	journalID := srv.addJournal(t, physics())
	path := fmt.Sprintf("/api/journals/%d/subscriptions", journalID)

	for _, year := range []int{2023, 2024} {
		w := srv.do(t, http.MethodPost, path, srv.adminToken, gin.H{"year": year})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := srv.do(t, http.MethodGet, path, reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["subscriptions"], 2)

	w = srv.do(t, http.MethodPost, "/api/journals/999/subscriptions", srv.adminToken, gin.H{"year": 2024})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = srv.do(t, http.MethodDelete, "/api/subscriptions/999", srv.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHoldings_Storage(t *testing.T) {
	srv := newTestServer(t)
	reader := srv.signUp(t, "alice")
	journalID := srv.addJournal(t, physics())

	storageID := srv.receiveIssue(t, journalID, 3)
	srv.receiveIssue(t, journalID, 4)

	w := srv.do(t, http.MethodGet, fmt.Sprintf("/api/storage/%d", storageID), reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	item := decode(t, w)
	assert.Equal(t, float64(3), item["issue"])
	assert.Equal(t, float64(journalID), item["journal_id"])

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/journals/%d/storage", journalID), reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["storage"], 2)

	w = srv.do(t, http.MethodPost, "/api/journals/7/storage", srv.adminToken,
		gin.H{"year": 2024, "volume": 1, "issue": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/storage/%d", storageID), srv.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/storage/%d", storageID), reader, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHoldings_Articles(t *testing.T) {
	srv := newTestServer(t)
	reader := srv.signUp(t, "alice")
	journalID := srv.addJournal(t, physics())
	storageID := srv.receiveIssue(t, journalID, 1)
	articlesPath := fmt.Sprintf("/api/storage/%d/articles", storageID)

	w := srv.do(t, http.MethodPost, articlesPath, srv.adminToken, gin.H{
		"page_number": 17,
		"title":       "Dark matter halos",
		"author":      "V. Rubin",
		"keywords":    []string{"astrophysics", "dark matter"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	articleID := idOf(t, w)

	w = srv.do(t, http.MethodPost, articlesPath, srv.adminToken, gin.H{
		"title":    "Too many keywords",
		"keywords": []string{"a", "b", "c", "d", "e", "f"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, "/api/storage/999/articles", srv.adminToken, gin.H{"title": "Orphan"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = srv.do(t, http.MethodGet, "/api/articles?keyword=dark%20matter", reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode(t, w)
	require.Equal(t, float64(1), found["count"])
	first := found["articles"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"astrophysics", "dark matter"}, first["keywords"])

	w = srv.do(t, http.MethodGet, "/api/articles?keyword=dark", reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])

	w = srv.do(t, http.MethodGet, "/api/articles", reader, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Storage with catalogued articles cannot be removed.
	w = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/storage/%d", storageID), srv.adminToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/articles/%d", articleID), reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dark matter halos", decode(t, w)["title"])

	w = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/articles/%d", articleID), srv.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/articles/%d", articleID), reader, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
