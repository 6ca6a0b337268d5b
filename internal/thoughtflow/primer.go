package thoughtflow

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/simonjohansson/thoughtflow/internal/model"
)

func printPrimer(output Output, stdout io.Writer) error {
	executionRules := []string{
		"Prefer `--output json` for any command whose output will be parsed.",
		"Single-card operations take the card id with `--id` (`-i`); `history` takes it as an argument.",
		"Card ids are server-assigned ULIDs; todo ids are UUIDs shown by `card get`.",
		"Edits only change the fields whose flags are given; an edit that changes nothing fails with status 400.",
		"`watch` is long-running and must be explicitly stopped by the caller.",
	}

	commandTemplates := map[string]string{
		"create_card":   "thoughtflow --output json card create -t \"$TITLE\" -c \"$CONTENT\" [--style 1-6]",
		"list_cards":    "thoughtflow --output json card ls",
		"list_deleted":  "thoughtflow --output json card deleted",
		"get_card":      "thoughtflow --output json card get -i \"$ID\"",
		"edit_card":     "thoughtflow --output json card edit -i \"$ID\" [-t \"$TITLE\"] [-c \"$CONTENT\"] [--style N] [--note \"$NOTE\"]",
		"delete_card":   "thoughtflow --output json card rm -i \"$ID\"",
		"recover_card":  "thoughtflow --output json card recover -i \"$ID\"",
		"export_card":   "thoughtflow card export -i \"$ID\" [--format md|html] [--file \"$PATH\"]",
		"add_todo":      "thoughtflow --output json card todo add -i \"$ID\" -t \"$TEXT\"",
		"complete_todo": "thoughtflow --output json card todo done -i \"$ID\" --todo \"$TODO_ID\"",
		"reopen_todo":   "thoughtflow --output json card todo undo -i \"$ID\" --todo \"$TODO_ID\"",
		"rename_todo":   "thoughtflow --output json card todo edit -i \"$ID\" --todo \"$TODO_ID\" -t \"$TEXT\"",
		"remove_todo":   "thoughtflow --output json card todo rm -i \"$ID\" --todo \"$TODO_ID\"",
		"card_history":  "thoughtflow --output json history \"$ID\"",
		"timeline":      "thoughtflow --output json timeline [--since \"$FROM\"] [--until \"$TO\"] [--days N]",
		"watch_events":  "thoughtflow --output json watch [--card \"$ID\"]",
	}

	responseShapes := map[string]any{
		"create_card": map[string]any{
			"id":          "01HV7Z8K2M3N4P5Q6R7S8T9V0W",
			"title":       "Buy milk",
			"content":     "2% or whole",
			"todos":       []any{},
			"card_style":  map[string]any{"bg_color": "#FFF9C4", "text_color": "#333333", "border_radius": "20px", "shadow": "soft"},
			"is_deleted":  false,
			"create_time": "2026-02-20T12:00:00Z",
			"update_time": "2026-02-20T12:00:00Z",
		},
		"list_cards": map[string]any{
			"cards": []any{map[string]any{"id": "01HV7Z8K2M3N4P5Q6R7S8T9V0W", "title": "Buy milk", "is_deleted": false}},
			"total": 1,
		},
		"card_history": map[string]any{
			"card_id":     "01HV7Z8K2M3N4P5Q6R7S8T9V0W",
			"card_title":  "Buy oat milk",
			"total_edits": 1,
			"history": []any{
				map[string]any{
					"history_id":     "2b1f3c4d-5e6f-4a1b-8c2d-3e4f5a6b7c8d",
					"edit_time":      "2026-02-20T12:10:00Z",
					"operator":       "anonymous",
					"change_content": map[string]any{"title": map[string]any{"old": "Buy milk", "new": "Buy oat milk"}},
				},
			},
		},
		"timeline": map[string]any{
			"events": []any{
				map[string]any{
					"event_id":    "01HV7Z9A0B1C2D3E4F5G6H7J8K",
					"event_type":  "title_changed",
					"card_id":     "01HV7Z8K2M3N4P5Q6R7S8T9V0W",
					"card_title":  "Buy oat milk",
					"event_time":  "2026-02-20T12:10:00Z",
					"description": "Renamed \"Buy milk\" to \"Buy oat milk\"",
				},
			},
			"total": 1,
		},
	}

	errorShape := map[string]any{
		"backend_problem_json": map[string]any{
			"title":  "Bad Request",
			"status": 400,
			"detail": "no changes to save",
		},
		"cli_fallback_json": map[string]any{
			"status": 502,
			"error":  "gateway or CLI processing error",
		},
	}

	deleteSemantics := map[string]any{
		"soft_delete_only":   true,
		"recoverable":        true,
		"soft_delete_effect": "card moves to `card deleted` and keeps its history",
		"recover_effect":     "card returns to `card ls` with identical content",
	}

	watchEventShape := map[string]any{
		"type":       "card.updated",
		"card_id":    "01HV7Z8K2M3N4P5Q6R7S8T9V0W",
		"card_title": "Buy oat milk",
		"timestamp":  "2026-02-20T12:34:56Z",
	}

	timelineEventTypes := make([]string, 0, 6)
	for _, eventType := range model.TimelineEventTypes() {
		timelineEventTypes = append(timelineEventTypes, string(eventType))
	}

	if output == OutputJSON {
		payload := map[string]any{
			"name":           "thoughtflow",
			"mode":           "machine",
			"purpose":        "HTTP client for ThoughtFlow idea cards, todos, history, and activity.",
			"default_output": "json",
			"usage": map[string]any{
				"global_flags": []string{"--server-url", "--output", "--operator", "--verbose"},
				"commands": []string{
					"serve",
					"card create|list|deleted|get|edit|delete|recover|export",
					"card todo add|done|undo|edit|rm",
					"history <card-id>",
					"timeline [--since] [--until] [--days]",
					"watch [--card <id>]",
					"primer",
				},
			},
			"execution_rules":      executionRules,
			"command_templates":    commandTemplates,
			"response_shapes":      responseShapes,
			"error_shape":          errorShape,
			"delete_semantics":     deleteSemantics,
			"watch_event_shape":    watchEventShape,
			"timeline_event_types": timelineEventTypes,
			"agent_prompt": strings.Join([]string{
				"You are an automation agent managing idea cards through the `thoughtflow` CLI.",
				"Prefer deterministic, scriptable invocations and parse JSON output.",
				"Use `thoughtflow --output json card ls` to discover card ids before single-card operations.",
				"Read todo ids from `card get` before changing a todo.",
			}, "\n"),
		}
		raw, _ := json.Marshal(payload)
		_, _ = fmt.Fprintln(stdout, string(raw))
		return nil
	}

	text := strings.Join([]string{
		"THOUGHTFLOW AGENT PRIMER (MACHINE MODE)",
		"",
		"SYSTEM PROMPT",
		"You are an automation agent controlling the `thoughtflow` CLI.",
		"Produce deterministic commands and prefer machine-readable output.",
		"",
		"EXECUTION RULES",
		"1. Always prefer `--output json` when output is parsed by tools.",
		"2. Single-card commands require `--id` (`-i`).",
		"3. Todo commands also require `--todo` with the todo id from `card get`.",
		"4. `card edit` only changes the fields whose flags are given.",
		"5. `watch` is long-running and must be interrupted by caller.",
		"",
		"COMMAND TEMPLATES",
		"CREATE_CARD: thoughtflow --output json card create -t \"$TITLE\" -c \"$CONTENT\" [--style 1-6]",
		"LIST_CARDS: thoughtflow --output json card ls",
		"LIST_DELETED: thoughtflow --output json card deleted",
		"GET_CARD: thoughtflow --output json card get -i \"$ID\"",
		"EDIT_CARD: thoughtflow --output json card edit -i \"$ID\" [-t \"$TITLE\"] [-c \"$CONTENT\"] [--note \"$NOTE\"]",
		"DELETE_CARD: thoughtflow --output json card rm -i \"$ID\"",
		"RECOVER_CARD: thoughtflow --output json card recover -i \"$ID\"",
		"EXPORT_CARD: thoughtflow card export -i \"$ID\" [--format md|html] [--file \"$PATH\"]",
		"ADD_TODO: thoughtflow --output json card todo add -i \"$ID\" -t \"$TEXT\"",
		"COMPLETE_TODO: thoughtflow --output json card todo done -i \"$ID\" --todo \"$TODO_ID\"",
		"REMOVE_TODO: thoughtflow --output json card todo rm -i \"$ID\" --todo \"$TODO_ID\"",
		"CARD_HISTORY: thoughtflow --output json history \"$ID\"",
		"TIMELINE: thoughtflow --output json timeline [--since \"$FROM\"] [--until \"$TO\"] [--days N]",
		"WATCH_EVENTS: thoughtflow --output json watch [--card \"$ID\"]",
		"",
		"RESPONSE SHAPES",
		"CREATE_CARD => {\"id\":\"01HV...\",\"title\":\"...\",\"content\":\"...\",\"todos\":[],\"card_style\":{...},\"is_deleted\":false,\"create_time\":\"...\",\"update_time\":\"...\"}",
		"LIST_CARDS => {\"cards\":[{...}],\"total\":1}",
		"CARD_HISTORY => {\"card_id\":\"...\",\"card_title\":\"...\",\"total_edits\":1,\"history\":[{\"history_id\":\"...\",\"edit_time\":\"...\",\"operator\":\"...\",\"change_content\":{\"title\":{\"old\":\"...\",\"new\":\"...\"}}}]}",
		"TIMELINE => {\"events\":[{\"event_id\":\"...\",\"event_type\":\"title_changed\",\"card_id\":\"...\",\"card_title\":\"...\",\"event_time\":\"...\",\"description\":\"...\"}],\"total\":1}",
		"",
		"TIMELINE EVENT TYPES",
		"- " + strings.Join(timelineEventTypes, ", "),
		"",
		"ERROR SHAPE",
		"- backend problem JSON typically includes: title, status, detail.",
		"- CLI fallback JSON shape: {\"status\":<int>,\"error\":\"<message>\"}.",
		"",
		"DELETE SEMANTICS",
		"- delete is always soft; deleted cards are listed by `card deleted`.",
		"- `card recover` restores a deleted card with identical content.",
		"",
		"WATCH EVENT SHAPE",
		"- {\"type\":\"card.updated\",\"card_id\":\"...\",\"card_title\":\"...\",\"timestamp\":\"...\"}",
		"- `resync.required` means events were dropped; reload with `card ls`.",
	}, "\n")
	_, _ = fmt.Fprintln(stdout, text)
	return nil
}
