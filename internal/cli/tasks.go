package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gmllt/kban/internal/board"
)

func newTasksCmd(appFn func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}
	cmd.AddCommand(newTasksListCmd(appFn))
	cmd.AddCommand(newTasksAddCmd(appFn))
	cmd.AddCommand(newTasksEditCmd(appFn))
	cmd.AddCommand(newTasksRmCmd(appFn))
	return cmd
}

func newTasksListCmd(appFn func() *app) *cobra.Command {
	var boardName, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			tasks, err := a.repo.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			if boardName != "" {
				tasks = board.TasksForBoard(tasks, boardName)
			}
			if status != "" {
				filtered := []board.Task{}
				for _, t := range tasks {
					if t.Status == board.Status(status) {
						filtered = append(filtered, t)
					}
				}
				tasks = filtered
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tBOARD\tTITLE")
			for _, t := range tasks {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, t.Status, t.Board, t.Title)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&boardName, "board", "", "Only tasks of this board")
	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status")
	return cmd
}

func newTasksAddCmd(appFn func() *app) *cobra.Command {
	var draft board.Task
	var status string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task (on the active board unless --board is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			ctx := cmd.Context()
			draft.Status = board.Status(status)
			if draft.Board == "" {
				tasks, err := a.repo.ListAll(ctx)
				if err != nil {
					return err
				}
				active, ok, err := a.session.Resolve(ctx, tasks)
				if err != nil {
					return err
				}
				if ok {
					draft.Board = active
				}
			}
			created, err := a.repo.Create(ctx, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d on %s\n", created.ID, created.Board)
			return nil
		},
	}
	cmd.Flags().StringVar(&draft.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&draft.Description, "description", "", "Task description")
	cmd.Flags().StringVar(&status, "status", string(board.StatusTodo), "todo, doing or done")
	cmd.Flags().StringVar(&draft.Board, "board", "", "Board name")
	return cmd
}

func newTasksEditCmd(appFn func() *app) *cobra.Command {
	var title, description, status, boardName string
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change the given fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			var p board.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				p.Title = &title
			}
			if flags.Changed("description") {
				p.Description = &description
			}
			if flags.Changed("status") {
				s := board.Status(status)
				p.Status = &s
			}
			if flags.Changed("board") {
				p.Board = &boardName
			}
			if p.Empty() {
				return fmt.Errorf("nothing to change, pass at least one of --title, --description, --status, --board")
			}
			task, err := appFn().repo.Patch(cmd.Context(), id, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d: %s [%s] on %s\n", task.ID, task.Title, task.Status, task.Board)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", "New status")
	cmd.Flags().StringVar(&boardName, "board", "", "Move to this board")
	return cmd
}

func newTasksRmCmd(appFn func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			if err := appFn().repo.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}
}
