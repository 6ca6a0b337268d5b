package thoughtflow

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/simonjohansson/thoughtflow/internal/server"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	dataDir := t.TempDir()
	app, err := server.New(server.Options{DataDir: dataDir, SQLitePath: filepath.Join(dataDir, "projection.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func runOK(t *testing.T, env []string, args ...string) string {
	t.Helper()

	var stdout, stderr bytes.Buffer
	exitCode := Run(args, &stdout, &stderr, env)
	require.Equal(t, 0, exitCode, strings.Join(args, " ")+" stderr="+stderr.String())
	return stdout.String()
}

func runJSON(t *testing.T, env []string, args ...string) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(runOK(t, env, args...)), &payload))
	return payload
}

func runFail(t *testing.T, env []string, args ...string) string {
	t.Helper()

	var stdout, stderr bytes.Buffer
	exitCode := Run(args, &stdout, &stderr, env)
	require.Equal(t, 1, exitCode, strings.Join(args, " ")+" stdout="+stdout.String())
	return strings.TrimSpace(stderr.String())
}

func TestRunManagesCardLifecycleAgainstServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	backend := newBackend(t)
	env := []string{
		"THOUGHTFLOW_SERVER_URL=" + backend.URL,
		"THOUGHTFLOW_OUTPUT=json",
		"THOUGHTFLOW_OPERATOR=alice",
	}

	card := runJSON(t, env, "card", "create", "-t", "Buy milk", "-c", "2% or whole", "--style", "3")
	id := card["id"].(string)
	require.NotEmpty(t, id)
	require.Equal(t, "#E6F7FF", card["card_style"].(map[string]any)["bg_color"])

	list := runJSON(t, env, "cards", "ls")
	require.EqualValues(t, 1, list["total"])

	edited := runJSON(t, env, "card", "edit", "-i", id, "-t", "Buy oat milk", "--note", "clarified")
	require.Equal(t, "Buy oat milk", edited["title"])
	require.Equal(t, "2% or whole", edited["content"])

	withTodo := runJSON(t, env, "card", "todo", "add", "-i", id, "-t", "check fridge")
	todos := withTodo["todos"].([]any)
	require.Len(t, todos, 1)
	todoID := todos[0].(map[string]any)["todo_id"].(string)

	done := runJSON(t, env, "card", "todo", "done", "-i", id, "--todo", todoID)
	require.Equal(t, true, done["todos"].([]any)[0].(map[string]any)["completed"])

	history := runJSON(t, env, "history", id)
	require.EqualValues(t, 3, history["total_edits"])
	latest := history["history"].([]any)[0].(map[string]any)
	require.Equal(t, "alice", latest["operator"])

	timeline := runJSON(t, env, "timeline", "--days", "1")
	types := make([]string, 0)
	for _, raw := range timeline["events"].([]any) {
		types = append(types, raw.(map[string]any)["event_type"].(string))
	}
	require.ElementsMatch(t, []string{"todo_updated", "todo_added", "title_changed", "card_created"}, types)

	exportPath := filepath.Join(t.TempDir(), "milk.md")
	runJSON(t, env, "card", "export", "-i", id, "--file", exportPath)
	exported, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	require.Contains(t, string(exported), "# Buy oat milk")
	require.Contains(t, string(exported), "- [x] check fridge")

	deleted := runJSON(t, env, "card", "rm", "-i", id)
	require.Equal(t, true, deleted["success"])
	require.EqualValues(t, 1, runJSON(t, env, "card", "deleted")["total"])
	require.EqualValues(t, 0, runJSON(t, env, "card", "ls")["total"])

	runJSON(t, env, "card", "recover", "-i", id)
	require.EqualValues(t, 1, runJSON(t, env, "card", "ls")["total"])
	require.EqualValues(t, 0, runJSON(t, env, "card", "deleted")["total"])

	removed := runJSON(t, env, "card", "todo", "rm", "-i", id, "--todo", todoID)
	require.Empty(t, removed["todos"])
}

func TestRunTextOutput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	backend := newBackend(t)
	env := []string{"THOUGHTFLOW_SERVER_URL=" + backend.URL}

	created := runJSON(t, env, "--output", "json", "card", "create", "-t", "Trip", "-c", "Lisbon in May")
	id := created["id"].(string)

	got := runOK(t, env, "card", "get", "-i", id)
	require.Contains(t, got, "title:   Trip")
	require.Contains(t, got, "Lisbon in May")

	list := runOK(t, env, "card", "ls")
	require.Contains(t, list, id+"  Trip")
	require.Contains(t, list, "1 card(s)")

	timeline := runOK(t, env, "timeline")
	require.Contains(t, timeline, "card_created")
	require.Contains(t, timeline, "1 event(s)")

	exported := runOK(t, env, "card", "export", "-i", id)
	require.True(t, strings.HasPrefix(exported, "# Trip\n\nLisbon in May\n"))

	html := runOK(t, env, "card", "export", "-i", id, "--format", "html")
	require.Contains(t, html, "<h1>Trip</h1>")
	require.Equal(t, "error (400): --format must be md or html", runFail(t, env, "card", "export", "-i", id, "--format", "pdf"))

	require.Equal(t, "card recovered\n", func() string {
		runOK(t, env, "card", "delete", "-i", id)
		return runOK(t, env, "card", "recover", "-i", id)
	}())
}

func TestRunReportsErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	backend := newBackend(t)
	env := []string{"THOUGHTFLOW_SERVER_URL=" + backend.URL}

	created := runJSON(t, env, "--output", "json", "card", "create", "-t", "Trip", "-c", "Lisbon in May")
	id := created["id"].(string)

	require.Equal(t, "error (400): no changes to save", runFail(t, env, "card", "edit", "-i", id))
	require.Equal(t, "error (400): todo not found: nope", runFail(t, env, "card", "todo", "done", "-i", id, "--todo", "nope"))
	require.Equal(t, "error (400): title must not be empty", runFail(t, env, "card", "create", "-t", " ", "-c", "x"))
	require.Equal(t, "error (400): --style must be between 1 and 6", runFail(t, env, "card", "create", "-t", "x", "-c", "x", "--style", "9"))
	require.Equal(t, "error (404): card not found", runFail(t, env, "card", "get", "-i", "01ARZ3NDEKTSV4RRFFQ69G5FAV"))
	require.Equal(t, "error (400): invalid --output: yaml", runFail(t, env, "--output", "yaml", "card", "ls"))
	require.Contains(t, runFail(t, env, "timeline", "--since", "tomorrow"), "error (400): invalid --since")

	raw := runFail(t, env, "--output", "json", "card", "get", "-i", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	var problem map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &problem))
	require.Equal(t, "card not found", problem["detail"])
	require.EqualValues(t, 404, problem["status"])

	raw = runFail(t, env, "--output", "json", "card", "edit", "-i", id)
	require.JSONEq(t, `{"status":400,"error":"no changes to save"}`, raw)
}

func TestRunReturnsJSONErrorForBackendProblem(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"title":"Unprocessable Entity","status":422,"detail":"bad input"}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	exitCode := Run([]string{"card", "create", "-t", "Task", "-c", "body"}, &stdout, &stderr, []string{"THOUGHTFLOW_SERVER_URL=" + srv.URL, "THOUGHTFLOW_OUTPUT=json"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), `"detail":"bad input"`)
}

func TestRunUnreachableServerIsBadGateway(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	addr := freeAddr(t)
	line := runFail(t, []string{"THOUGHTFLOW_SERVER_URL=http://" + addr}, "card", "ls")
	require.True(t, strings.HasPrefix(line, "error (502): "), line)
}
