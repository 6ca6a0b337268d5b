package cardcmd

import (
	"io"
	"strings"
	"time"

	"github.com/simonjohansson/thoughtflow/internal/cardstore"
	"github.com/simonjohansson/thoughtflow/internal/model"
	"github.com/simonjohansson/thoughtflow/internal/thoughtflow/commands/common"
	"github.com/spf13/cobra"
)

type todoMutation func(todos []model.Todo, now time.Time) ([]model.Todo, error)

func newTodoCommand(runtime common.Runtime, stdout io.Writer, render common.RenderFunc, wrapErr common.WrapErrorFunc) *cobra.Command {
	todoCmd := &cobra.Command{
		Use:     "todo",
		Aliases: []string{"todos"},
		Short:   "Manage the todo list of a card.",
		Long:    "Add, check off, rename, and remove todos. Every change is saved as a card edit and shows up in history and the timeline.",
	}

	run := func(cmd *cobra.Command, mutate todoMutation) error {
		id, _ := cmd.Flags().GetString("id")
		return editCard(cmd, runtime, stdout, render, wrapErr, strings.TrimSpace(id), "", func(next *model.Snapshot) error {
			todos, err := mutate(model.CloneTodos(next.Todos), time.Now().UTC())
			if err != nil {
				return err
			}
			next.Todos = todos
			return nil
		})
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Append a todo.",
		Example: strings.TrimSpace(`thoughtflow card todo add -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W --text "call the venue"`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, _ := cmd.Flags().GetString("text")
			return run(cmd, func(todos []model.Todo, now time.Time) ([]model.Todo, error) {
				text, err := todoText(text)
				if err != nil {
					return nil, err
				}
				return append(todos, model.NewTodo(text, now)), nil
			})
		},
	}
	addCmd.Flags().StringP("id", "i", "", "Card id")
	addCmd.Flags().StringP("text", "t", "", "Todo text")
	_ = addCmd.MarkFlagRequired("id")
	_ = addCmd.MarkFlagRequired("text")

	doneCmd := &cobra.Command{
		Use:     "done",
		Aliases: []string{"check"},
		Short:   "Mark a todo as completed.",
		Example: strings.TrimSpace(`thoughtflow card todo done -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W --todo 3f2b6c1e-0d8a-4c52-9a41-6f0c1d2e3b4a`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, setCompleted(cmd, true))
		},
	}

	undoCmd := &cobra.Command{
		Use:     "undo",
		Aliases: []string{"uncheck"},
		Short:   "Mark a todo as not completed.",
		Example: strings.TrimSpace(`thoughtflow card todo undo -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W --todo 3f2b6c1e-0d8a-4c52-9a41-6f0c1d2e3b4a`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, setCompleted(cmd, false))
		},
	}

	editCmd := &cobra.Command{
		Use:     "edit",
		Aliases: []string{"rename"},
		Short:   "Change the text of a todo.",
		Example: strings.TrimSpace(`thoughtflow card todo edit -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W --todo 3f2b6c1e-0d8a-4c52-9a41-6f0c1d2e3b4a -t "call the venue twice"`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			todoID, _ := cmd.Flags().GetString("todo")
			text, _ := cmd.Flags().GetString("text")
			return run(cmd, func(todos []model.Todo, now time.Time) ([]model.Todo, error) {
				text, err := todoText(text)
				if err != nil {
					return nil, err
				}
				idx, err := findTodo(todos, todoID)
				if err != nil {
					return nil, err
				}
				todos[idx] = todos[idx].WithText(text, now)
				return todos, nil
			})
		},
	}
	editCmd.Flags().StringP("text", "t", "", "New todo text")
	_ = editCmd.MarkFlagRequired("text")

	rmCmd := &cobra.Command{
		Use:     "rm",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a todo.",
		Example: strings.TrimSpace(`thoughtflow card todo rm -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W --todo 3f2b6c1e-0d8a-4c52-9a41-6f0c1d2e3b4a`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			todoID, _ := cmd.Flags().GetString("todo")
			return run(cmd, func(todos []model.Todo, _ time.Time) ([]model.Todo, error) {
				idx, err := findTodo(todos, todoID)
				if err != nil {
					return nil, err
				}
				return append(todos[:idx], todos[idx+1:]...), nil
			})
		},
	}

	for _, c := range []*cobra.Command{doneCmd, undoCmd, editCmd, rmCmd} {
		c.Flags().StringP("id", "i", "", "Card id")
		c.Flags().String("todo", "", "Todo id")
		_ = c.MarkFlagRequired("id")
		_ = c.MarkFlagRequired("todo")
	}

	todoCmd.AddCommand(addCmd, doneCmd, undoCmd, editCmd, rmCmd)
	return todoCmd
}

func setCompleted(cmd *cobra.Command, completed bool) todoMutation {
	todoID, _ := cmd.Flags().GetString("todo")
	return func(todos []model.Todo, now time.Time) ([]model.Todo, error) {
		idx, err := findTodo(todos, todoID)
		if err != nil {
			return nil, err
		}
		todos[idx] = todos[idx].WithCompleted(completed, now)
		return todos, nil
	}
}

func findTodo(todos []model.Todo, id string) (int, error) {
	idx := model.IndexOfTodo(todos, strings.TrimSpace(id))
	if idx < 0 {
		return -1, &cardstore.ValidationError{Field: "todo", Message: "todo not found: " + strings.TrimSpace(id)}
	}
	return idx, nil
}

func todoText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", &cardstore.ValidationError{Field: "todo", Message: "todo text is required"}
	}
	return text, nil
}
