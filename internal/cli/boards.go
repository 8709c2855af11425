package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmllt/kban/internal/board"
)

func newBoardsCmd(appFn func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List and select boards",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List boards, marking the active one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			ctx := cmd.Context()
			tasks, err := a.repo.ListAll(ctx)
			if err != nil {
				return err
			}
			boards := board.DistinctBoards(tasks)
			if len(boards) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No boards found.")
				return nil
			}
			active, _, err := a.session.Resolve(ctx, tasks)
			if err != nil {
				return err
			}
			for _, b := range boards {
				marker := " "
				if b == active {
					marker = "*"
				}
				counts := ""
				for _, col := range board.Columns(tasks, b) {
					counts += fmt.Sprintf(" %s=%d", col.Status, len(col.Tasks))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s%s\n", marker, b, counts)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "select [name]",
		Short: "Make a board the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			ctx := cmd.Context()
			tasks, err := a.repo.ListAll(ctx)
			if err != nil {
				return err
			}
			found := false
			for _, b := range board.DistinctBoards(tasks) {
				if b == args[0] {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("board %q does not exist", args[0])
			}
			if err := a.session.Select(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active board: %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func newPrefsCmd(appFn func() *app) *cobra.Command {
	var lightMode, sidebar bool
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change the theme and sidebar flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			ctx := cmd.Context()
			p, err := a.storage.Preferences(ctx)
			if err != nil {
				return err
			}
			changed := false
			if cmd.Flags().Changed("light-mode") {
				p.LightMode = lightMode
				changed = true
			}
			if cmd.Flags().Changed("sidebar") {
				p.ShowSideBar = sidebar
				changed = true
			}
			if changed {
				if err := a.storage.SetPreferences(ctx, p); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lightMode=%t showSideBar=%t\n", p.LightMode, p.ShowSideBar)
			return nil
		},
	}
	cmd.Flags().BoolVar(&lightMode, "light-mode", false, "Use the light theme")
	cmd.Flags().BoolVar(&sidebar, "sidebar", true, "Show the sidebar")
	return cmd
}
