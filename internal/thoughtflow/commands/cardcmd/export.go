package cardcmd

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/simonjohansson/thoughtflow/internal/model"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	exportFormatMarkdown = "md"
	exportFormatHTML     = "html"
)

// ExportMarkdown renders a card as a standalone markdown document.
func ExportMarkdown(card model.Card) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(card.Title))
	b.WriteString(strings.TrimSpace(card.Content))
	b.WriteString("\n")

	if len(card.Todos) > 0 {
		done := 0
		for _, todo := range card.Todos {
			if todo.Completed {
				done++
			}
		}
		fmt.Fprintf(&b, "\n## Todos (%d/%d)\n\n", done, len(card.Todos))
		for _, todo := range card.Todos {
			mark := " "
			if todo.Completed {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s\n", mark, todo.Text)
		}
	}

	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "- id: %s\n", card.ID)
	fmt.Fprintf(&b, "- created: %s\n", card.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- updated: %s\n", card.UpdatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- edits: %d\n", len(card.History))
	if card.IsDeleted {
		b.WriteString("- status: deleted\n")
	}
	return b.String()
}

// ExportHTML renders the markdown export as an HTML fragment. Todo lists
// become checkbox lists; raw HTML in card text is not passed through.
func ExportHTML(card model.Card) (string, error) {
	var buf bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.TaskList))
	if err := md.Convert([]byte(ExportMarkdown(card)), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

func exportDocument(card model.Card, format string) (string, string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", exportFormatMarkdown:
		return exportFileName(card, exportFormatMarkdown), ExportMarkdown(card), nil
	case exportFormatHTML:
		body, err := ExportHTML(card)
		if err != nil {
			return "", "", err
		}
		return exportFileName(card, exportFormatHTML), body, nil
	default:
		return "", "", fmt.Errorf("--format must be %s or %s", exportFormatMarkdown, exportFormatHTML)
	}
}

func exportFileName(card model.Card, ext string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(card.Title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		name = card.ID
	}
	return name + "." + ext
}
