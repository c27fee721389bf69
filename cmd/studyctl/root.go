package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/studyup/studyup/internal/config"
	"github.com/studyup/studyup/internal/db"
	"github.com/studyup/studyup/internal/jobs"
	"github.com/studyup/studyup/internal/logger"
	"github.com/studyup/studyup/internal/repository/sqlite"
	"github.com/studyup/studyup/internal/services"
)

var (
	dbPath  string
	verbose bool
	asJSON  bool

	app *cliApp
)

// cliApp wires the same services the server uses, with synchronous writes:
// the process exits right after each command.
type cliApp struct {
	db    *db.DB
	sets  services.SetService
	cards services.CardService
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "studyctl",
	Short:         "Manage Study Up flashcard sets from the command line",
	Long:          `studyctl reads and edits the same SQLite database as the Study Up server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logger.WARN
		if verbose {
			level = logger.DEBUG
		}
		logger.SetDefault(logger.New(
			logger.WithOutput(cmd.ErrOrStderr()),
			logger.WithLevel(level),
		))

		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		setRepo := sqlite.NewSetRepository(database.DB)
		cardRepo := sqlite.NewFlashcardRepository(database.DB)
		registry := services.NewStoreRegistry(cardRepo, jobs.Immediate{Repo: cardRepo})
		app = &cliApp{
			db:    database,
			sets:  services.NewSetService(setRepo, registry),
			cards: services.NewCardService(setRepo, registry),
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

func closeApp() error {
	if app == nil {
		return nil
	}
	err := app.db.Close()
	app = nil
	return err
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_ = closeApp()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cfg := config.Load()

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", cfg.DBPath, "SQLite database path (defaults to $DB_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Output in JSON format")
}
