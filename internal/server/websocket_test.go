package server_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialEvents(t *testing.T, baseURL, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEventTypes(t *testing.T, conn *websocket.Conn, n int) []string {
	t.Helper()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var event map[string]any
		err := conn.ReadJSON(&event)
		require.NoErrorf(t, err, "failed on event index %d", i)
		out = append(out, fmt.Sprintf("%v", event["type"]))
	}
	return out
}

func TestWebsocketReceivesCardEvents(t *testing.T) {
	t.Parallel()

	_, _, httpServer := newTestServer(t)
	conn := dialEvents(t, httpServer.URL, "")

	card := createCard(t, httpServer.URL, "Realtime", "broadcast everything")
	id := card["id"].(string)

	update := doJSON(t, httpServer.URL+"/api/idea-card/"+id, http.MethodPut, map[string]any{
		"title":       "Realtime events",
		"content":     "broadcast everything",
		"old_title":   "Realtime",
		"old_content": "broadcast everything",
	})
	require.Equal(t, http.StatusOK, update.StatusCode)

	del := doJSON(t, httpServer.URL+"/api/idea-card/"+id+"/delete", http.MethodPatch, nil)
	require.Equal(t, http.StatusOK, del.StatusCode)

	rec := doJSON(t, httpServer.URL+"/api/idea-card/"+id+"/recover", http.MethodPatch, nil)
	require.Equal(t, http.StatusOK, rec.StatusCode)

	require.Equal(t, []string{
		"card.created",
		"card.updated",
		"card.deleted_soft",
		"card.recovered",
	}, readEventTypes(t, conn, 4))
}

func TestWebsocketCardFilter(t *testing.T) {
	t.Parallel()

	_, _, httpServer := newTestServer(t)

	watched := createCard(t, httpServer.URL, "Watched", "a")
	other := createCard(t, httpServer.URL, "Other", "b")
	conn := dialEvents(t, httpServer.URL, "?card="+watched["id"].(string))

	resp := doJSON(t, httpServer.URL+"/api/idea-card/"+other["id"].(string)+"/delete", http.MethodPatch, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, httpServer.URL+"/api/idea-card/"+watched["id"].(string)+"/delete", http.MethodPatch, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var event map[string]any
		require.NoError(t, conn.ReadJSON(&event))
		require.Equal(t, watched["id"], event["card_id"])
		if event["type"] == "card.deleted_soft" {
			return
		}
	}
}
