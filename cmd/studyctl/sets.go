package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/studyup/studyup/internal/models"
)

var (
	setsQuery  string
	setsLimit  int
	setsOffset int
)

var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "List flashcard sets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, total, err := app.sets.ListSets(cmd.Context(), models.SetFilter{
			Query:  setsQuery,
			Limit:  setsLimit,
			Offset: setsOffset,
		})
		if err != nil {
			return err
		}
		if err := printSets(out(cmd), sets); err != nil {
			return err
		}
		if !asJSON && total > len(sets) {
			fmt.Fprintf(out(cmd), "(%d of %d sets)\n", len(sets), total)
		}
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create [title...]",
	Short: "Create an empty set",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := app.sets.CreateSet(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printSet(out(cmd), set)
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <set-id> <title...>",
	Short: "Rename a set",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := app.sets.RenameSet(cmd.Context(), args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return printSet(out(cmd), set)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <set-id>",
	Short: "Delete a set and all of its cards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.sets.DeleteSet(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Deleted set %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setsCmd, createCmd, renameCmd, deleteCmd)

	setsCmd.Flags().StringVarP(&setsQuery, "query", "q", "", "Filter by title")
	setsCmd.Flags().IntVar(&setsLimit, "limit", 50, "Maximum number of sets")
	setsCmd.Flags().IntVar(&setsOffset, "offset", 0, "Number of sets to skip")
}
