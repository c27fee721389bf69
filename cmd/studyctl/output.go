package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/studyup/studyup/internal/models"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSets(w io.Writer, sets []models.FlashcardSet) error {
	if asJSON {
		return printJSON(w, sets)
	}
	if len(sets) == 0 {
		fmt.Fprintln(w, "No sets found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCARDS\tCREATED")
	for _, s := range sets {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, s.Title, s.CardCount, s.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func printSet(w io.Writer, set *models.FlashcardSet) error {
	if asJSON {
		return printJSON(w, set)
	}
	_, err := fmt.Fprintf(w, "%s\t%s (%d cards)\n", set.ID, set.Title, set.CardCount)
	return err
}

func printCards(w io.Writer, cards []models.Flashcard) error {
	if asJSON {
		return printJSON(w, cards)
	}
	if len(cards) == 0 {
		fmt.Fprintln(w, "No cards.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tQUESTION\tANSWER")
	for _, c := range cards {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.PositionOr(-1), c.ID, oneLine(c.Question), oneLine(c.Answer))
	}
	return tw.Flush()
}

func printCard(w io.Writer, c *models.Flashcard) error {
	if asJSON {
		return printJSON(w, c)
	}
	_, err := fmt.Fprintf(w, "%d\t%s\t%s\n", c.PositionOr(-1), c.ID, oneLine(c.Question))
	return err
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 60 {
		return string(r[:57]) + "..."
	}
	return s
}

func indexArg(args []string, i int, name string) (int, error) {
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, args[i])
	}
	return n, nil
}

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
