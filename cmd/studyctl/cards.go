package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/studyup/studyup/internal/ordering"
)

var (
	addFront bool
	addAt    int

	editQuestion string
	editAnswer   string
)

var cardsCmd = &cobra.Command{
	Use:   "cards <set-id>",
	Short: "List the cards of a set in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, err := app.cards.ListCards(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printCards(out(cmd), cards)
	},
}

var addCmd = &cobra.Command{
	Use:   "add <set-id> <question> <answer>",
	Short: "Add a card (appended unless --front or --at is given)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		placement := ordering.Back()
		switch {
		case addFront && cmd.Flags().Changed("at"):
			return errors.New("--front and --at cannot be combined")
		case addFront:
			placement = ordering.Front()
		case cmd.Flags().Changed("at"):
			if addAt < 0 {
				return fmt.Errorf("--at must be non-negative, got %d", addAt)
			}
			placement = ordering.At(addAt)
		}

		card, err := app.cards.AddCard(cmd.Context(), args[0], args[1], args[2], placement)
		if err != nil {
			return err
		}
		return printCard(out(cmd), card)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <set-id> <card-id>",
	Short: "Change the question and/or answer of a card",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qChanged, aChanged := cmd.Flags().Changed("question"), cmd.Flags().Changed("answer")
		if !qChanged && !aChanged {
			return errors.New("nothing to change: pass --question and/or --answer")
		}
		var q, a *string
		if qChanged {
			q = &editQuestion
		}
		if aChanged {
			a = &editAnswer
		}
		card, err := app.cards.EditCard(cmd.Context(), args[0], args[1], q, a)
		if err != nil {
			return err
		}
		return printCard(out(cmd), card)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <set-id> <card-id>",
	Short: "Remove a card",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := app.cards.RemoveCard(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Fprintf(out(cmd), "Card %s is not in set %s\n", args[1], args[0])
			return nil
		}
		fmt.Fprintf(out(cmd), "Removed card %s\n", args[1])
		return nil
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <set-id> <from> <to>",
	Short: "Move the card at index <from> to index <to>",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := indexArg(args, 1, "from")
		if err != nil {
			return err
		}
		to, err := indexArg(args, 2, "to")
		if err != nil {
			return err
		}
		cards, err := app.cards.MoveCard(cmd.Context(), args[0], from, to)
		if err != nil {
			return err
		}
		return printCards(out(cmd), cards)
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex <set-id>",
	Short: "Renumber card positions densely",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		changed, err := app.cards.Reindex(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out(cmd), map[string]int{"changed": changed})
		}
		fmt.Fprintf(out(cmd), "%d card(s) renumbered\n", changed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cardsCmd, addCmd, editCmd, rmCmd, mvCmd, reindexCmd)

	addCmd.Flags().BoolVar(&addFront, "front", false, "Insert at the front of the set")
	addCmd.Flags().IntVar(&addAt, "at", 0, "Insert at this index")

	editCmd.Flags().StringVar(&editQuestion, "question", "", "New question text")
	editCmd.Flags().StringVar(&editAnswer, "answer", "", "New answer text")
}
