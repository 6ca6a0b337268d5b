package cardcmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/simonjohansson/thoughtflow/internal/cardstore"
	"github.com/simonjohansson/thoughtflow/internal/model"
	"github.com/simonjohansson/thoughtflow/internal/thoughtflow/commands/common"
	"github.com/spf13/cobra"
)

func New(runtime common.Runtime, stdout io.Writer, render common.RenderFunc, wrapErr common.WrapErrorFunc) *cobra.Command {
	cardCmd := &cobra.Command{
		Use:     "card",
		Aliases: []string{"cards"},
		Short:   "Manage idea cards.",
		Long:    "Create, list, inspect, edit, soft-delete, recover, and export idea cards.",
	}

	createCmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"new"},
		Short:   "Create a card.",
		Long:    "Create an idea card with a title and content. The style defaults to preset 1.",
		Example: strings.TrimSpace(`thoughtflow card create --title "Buy milk" --content "2% or whole"
thoughtflow cards new -t "Trip" -c "Lisbon in May" --style 3`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			title, _ := cmd.Flags().GetString("title")
			content, _ := cmd.Flags().GetString("content")
			preset, _ := cmd.Flags().GetInt("style")
			style, err := common.ParseStyle(preset)
			if err != nil {
				return wrapErr(&cardstore.ValidationError{Field: "style", Message: err.Error()})
			}

			st, err := common.NewStore(runtime)
			if err != nil {
				return wrapErr(err)
			}
			ctx, cancel := common.Context(cmd.Context())
			defer cancel()

			card, err := st.Create(ctx, model.CreateCardRequest{Title: title, Content: content, Style: style})
			if err != nil {
				return wrapErr(err)
			}
			return render(runtime.Output(), stdout, card)
		},
	}
	createCmd.Flags().StringP("title", "t", "", "Card title (1-100 characters)")
	createCmd.Flags().StringP("content", "c", "", "Card content (1-2000 characters)")
	createCmd.Flags().Int("style", 0, fmt.Sprintf("Style preset 1-%d", len(model.PresetCardStyles)))
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("content")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List active cards.",
		Long:    "List active cards, most recently updated first.",
		Example: strings.TrimSpace(`thoughtflow card list
thoughtflow --output json cards ls`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := common.NewStore(runtime)
			if err != nil {
				return wrapErr(err)
			}
			ctx, cancel := common.Context(cmd.Context())
			defer cancel()

			if err := st.LoadActive(ctx); err != nil {
				return wrapErr(err)
			}
			cards := st.Active()
			return render(runtime.Output(), stdout, model.CardList{Cards: cards, Total: len(cards)})
		},
	}

	deletedCmd := &cobra.Command{
		Use:     "deleted",
		Aliases: []string{"trash"},
		Short:   "List soft-deleted cards.",
		Long:    "List soft-deleted cards that can still be recovered.",
		Example: strings.TrimSpace(`thoughtflow card deleted
thoughtflow cards trash --output json`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := common.NewStore(runtime)
			if err != nil {
				return wrapErr(err)
			}
			ctx, cancel := common.Context(cmd.Context())
			defer cancel()

			if err := st.LoadDeleted(ctx); err != nil {
				return wrapErr(err)
			}
			cards := st.Deleted()
			return render(runtime.Output(), stdout, model.CardList{Cards: cards, Total: len(cards)})
		},
	}

	getCmd := &cobra.Command{
		Use:     "get",
		Aliases: []string{"show"},
		Short:   "Get one card.",
		Long:    "Fetch one card, including its todos and edit history.",
		Example: strings.TrimSpace(`thoughtflow card get --id 01HV7Z8K2M3N4P5Q6R7S8T9V0W
thoughtflow cards show -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W --output json`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString("id")
			st, err := common.NewStore(runtime)
			if err != nil {
				return wrapErr(err)
			}
			ctx, cancel := common.Context(cmd.Context())
			defer cancel()

			card, err := st.Get(ctx, strings.TrimSpace(id))
			if err != nil {
				return wrapErr(err)
			}
			return render(runtime.Output(), stdout, card)
		},
	}
	getCmd.Flags().StringP("id", "i", "", "Card id")
	_ = getCmd.MarkFlagRequired("id")

	editCmd := &cobra.Command{
		Use:     "edit",
		Aliases: []string{"update"},
		Short:   "Edit a card.",
		Long:    "Change title, content, or style. Only the flags given are changed; the edit is recorded in the card history.",
		Example: strings.TrimSpace(`thoughtflow card edit -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W --title "Buy oat milk"
thoughtflow cards update -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W -c "New content" --note "clarified"`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString("id")
			note, _ := cmd.Flags().GetString("note")
			return editCard(cmd, runtime, stdout, render, wrapErr, strings.TrimSpace(id), note, func(next *model.Snapshot) error {
				if cmd.Flags().Changed("title") {
					next.Title, _ = cmd.Flags().GetString("title")
				}
				if cmd.Flags().Changed("content") {
					next.Content, _ = cmd.Flags().GetString("content")
				}
				if cmd.Flags().Changed("style") {
					preset, _ := cmd.Flags().GetInt("style")
					style, err := common.ParseStyle(preset)
					if err != nil {
						return &cardstore.ValidationError{Field: "style", Message: err.Error()}
					}
					if style != nil {
						next.Style = style
					}
				}
				return nil
			})
		},
	}
	editCmd.Flags().StringP("id", "i", "", "Card id")
	editCmd.Flags().StringP("title", "t", "", "New title")
	editCmd.Flags().StringP("content", "c", "", "New content")
	editCmd.Flags().Int("style", 0, fmt.Sprintf("New style preset 1-%d", len(model.PresetCardStyles)))
	editCmd.Flags().String("note", "", "Optional edit note stored with the history entry")
	_ = editCmd.MarkFlagRequired("id")

	deleteCmd := &cobra.Command{
		Use:     "delete",
		Aliases: []string{"rm", "remove"},
		Short:   "Soft-delete a card.",
		Long:    "Move a card to the deleted list. It can be restored with `card recover`.",
		Example: strings.TrimSpace(`thoughtflow card delete --id 01HV7Z8K2M3N4P5Q6R7S8T9V0W
thoughtflow cards rm -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString("id")
			st, err := common.NewStore(runtime)
			if err != nil {
				return wrapErr(err)
			}
			ctx, cancel := common.Context(cmd.Context())
			defer cancel()

			if err := st.SoftDelete(ctx, strings.TrimSpace(id)); err != nil {
				return wrapErr(err)
			}
			return render(runtime.Output(), stdout, model.MessageResponse{Message: "card deleted; restore it with `card recover`", Success: true})
		},
	}
	deleteCmd.Flags().StringP("id", "i", "", "Card id")
	_ = deleteCmd.MarkFlagRequired("id")

	recoverCmd := &cobra.Command{
		Use:     "recover",
		Aliases: []string{"restore"},
		Short:   "Recover a soft-deleted card.",
		Long:    "Move a soft-deleted card back to the active list.",
		Example: strings.TrimSpace(`thoughtflow card recover --id 01HV7Z8K2M3N4P5Q6R7S8T9V0W
thoughtflow cards restore -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString("id")
			st, err := common.NewStore(runtime)
			if err != nil {
				return wrapErr(err)
			}
			ctx, cancel := common.Context(cmd.Context())
			defer cancel()

			if err := st.Recover(ctx, strings.TrimSpace(id)); err != nil {
				return wrapErr(err)
			}
			return render(runtime.Output(), stdout, model.MessageResponse{Message: "card recovered", Success: true})
		},
	}
	recoverCmd.Flags().StringP("id", "i", "", "Card id")
	_ = recoverCmd.MarkFlagRequired("id")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export a card as markdown or HTML.",
		Long:  "Render a card, its todos, and its edit count as a markdown (or HTML) document, to stdout or a file.",
		Example: strings.TrimSpace(`thoughtflow card export -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W
thoughtflow card export -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W --file idea.md
thoughtflow card export -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W --format html --file idea.html`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString("id")
			file, _ := cmd.Flags().GetString("file")
			format, _ := cmd.Flags().GetString("format")
			st, err := common.NewStore(runtime)
			if err != nil {
				return wrapErr(err)
			}
			ctx, cancel := common.Context(cmd.Context())
			defer cancel()

			card, err := st.Get(ctx, strings.TrimSpace(id))
			if err != nil {
				return wrapErr(err)
			}
			name, body, err := exportDocument(card, format)
			if err != nil {
				return wrapErr(&cardstore.ValidationError{Field: "format", Message: err.Error()})
			}
			doc := common.Document{Name: name, Body: body}
			if file = strings.TrimSpace(file); file != "" {
				if err := os.WriteFile(file, []byte(doc.Body), 0o644); err != nil {
					return wrapErr(err)
				}
				return render(runtime.Output(), stdout, model.MessageResponse{Message: "exported to " + file, Success: true})
			}
			return render(runtime.Output(), stdout, doc)
		},
	}
	exportCmd.Flags().StringP("id", "i", "", "Card id")
	exportCmd.Flags().StringP("file", "f", "", "Write the document to this path instead of stdout")
	exportCmd.Flags().String("format", exportFormatMarkdown, "Document format: md or html")
	_ = exportCmd.MarkFlagRequired("id")

	cardCmd.AddCommand(createCmd, listCmd, deletedCmd, getCmd, editCmd, deleteCmd, recoverCmd, exportCmd)
	cardCmd.AddCommand(newTodoCommand(runtime, stdout, render, wrapErr))
	return cardCmd
}

// editCard fetches the card, lets change modify a copy of its snapshot and
// sends both through the store so the server records the difference.
func editCard(cmd *cobra.Command, runtime common.Runtime, stdout io.Writer, render common.RenderFunc, wrapErr common.WrapErrorFunc, id, note string, change func(next *model.Snapshot) error) error {
	st, err := common.NewStore(runtime)
	if err != nil {
		return wrapErr(err)
	}
	ctx, cancel := common.Context(cmd.Context())
	defer cancel()

	card, err := st.Get(ctx, id)
	if err != nil {
		return wrapErr(err)
	}
	next := card.Snapshot()
	if err := change(&next); err != nil {
		return wrapErr(err)
	}

	updated, err := st.Update(ctx, id, cardstore.UpdateInput{
		New:  next,
		Old:  card.Snapshot(),
		Note: strings.TrimSpace(note),
	})
	if err != nil {
		return wrapErr(err)
	}
	return render(runtime.Output(), stdout, updated)
}
