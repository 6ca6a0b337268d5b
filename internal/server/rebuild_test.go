package server_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/simonjohansson/thoughtflow/internal/model"
	"github.com/simonjohansson/thoughtflow/internal/server"
	"github.com/simonjohansson/thoughtflow/internal/store"
	"github.com/stretchr/testify/require"
)

func TestRebuildProjectionFromMarkdown(t *testing.T) {
	t.Parallel()

	_, sqlitePath, httpServer := newTestServer(t)

	createCard(t, httpServer.URL, "Test rebuild", "projection should be recoverable")

	db, err := sql.Open("sqlite", sqlitePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`DELETE FROM cards`)
	require.NoError(t, err)

	listResp := doJSON(t, httpServer.URL+"/api/idea-cards", http.MethodGet, nil)
	require.Len(t, decodeMap(t, listResp.Body)["cards"].([]any), 0)

	rebuildResp := doJSON(t, httpServer.URL+"/admin/rebuild", http.MethodPost, nil)
	require.Equal(t, http.StatusOK, rebuildResp.StatusCode)
	require.EqualValues(t, 1, decodeMap(t, rebuildResp.Body)["cards_rebuilt"])

	listResp = doJSON(t, httpServer.URL+"/api/idea-cards", http.MethodGet, nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	require.Len(t, decodeMap(t, listResp.Body)["cards"].([]any), 1)
}

func TestRebuildFailsOnCorruptMarkdown(t *testing.T) {
	t.Parallel()

	dataDir, _, httpServer := newTestServer(t)

	card := createCard(t, httpServer.URL, "Corruptible", "body")
	cardPath := filepath.Join(dataDir, "cards", card["id"].(string)+".md")
	require.NoError(t, os.WriteFile(cardPath, []byte("not-frontmatter"), 0o644))

	get := doJSON(t, httpServer.URL+"/api/idea-card/"+card["id"].(string), http.MethodGet, nil)
	require.Equal(t, http.StatusInternalServerError, get.StatusCode)

	rebuild := doJSON(t, httpServer.URL+"/admin/rebuild", http.MethodPost, nil)
	require.Equal(t, http.StatusInternalServerError, rebuild.StatusCode)
}

func TestServerStartupRebuildsProjectionFromMarkdown(t *testing.T) {
	dataDir := t.TempDir()
	sqlitePath := filepath.Join(dataDir, "projection.db")

	markdownStore, err := store.NewMarkdownStore(dataDir)
	require.NoError(t, err)
	_, err = markdownStore.CreateCard("Recovered card", "from markdown", model.DefaultCardStyle)
	require.NoError(t, err)

	app, err := server.New(server.Options{DataDir: dataDir, SQLitePath: sqlitePath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	httpServer := httptest.NewServer(app.Handler())
	t.Cleanup(httpServer.Close)

	resp := doJSON(t, httpServer.URL+"/api/idea-cards", http.MethodGet, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeMap(t, resp.Body)
	rawCards, ok := payload["cards"].([]any)
	require.True(t, ok)
	require.Len(t, rawCards, 1)

	card, ok := rawCards[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Recovered card", card["title"])
	require.Equal(t, "from markdown", card["content"])
}
