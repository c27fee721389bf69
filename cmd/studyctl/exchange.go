package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/studyup/studyup/internal/exchange"
)

var (
	exportOutput string
	importTitle  string
)

var exportCmd = &cobra.Command{
	Use:   "export <set-id>",
	Short: "Write a set as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		set, err := app.sets.GetSet(ctx, args[0])
		if err != nil {
			return err
		}
		cards, err := app.cards.ListCards(ctx, args[0])
		if err != nil {
			return err
		}

		w := out(cmd)
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return exchange.Encode(w, exchange.NewDocument(set.Title, cards))
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Create a set from a YAML document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		doc, err := exchange.Decode(r)
		if err != nil {
			return err
		}
		title := doc.Title
		if importTitle != "" {
			title = importTitle
		}
		set, err := app.sets.ImportSet(cmd.Context(), title, doc.Flashcards())
		if err != nil {
			return err
		}
		return printSet(out(cmd), set)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the built-in sample sets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, doc := range exchange.SampleSets() {
			set, err := app.sets.ImportSet(cmd.Context(), doc.Title, doc.Flashcards())
			if err != nil {
				return fmt.Errorf("seed %q: %w", doc.Title, err)
			}
			if err := printSet(out(cmd), set); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd, seedCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")
	importCmd.Flags().StringVar(&importTitle, "title", "", "Override the document title")
}
