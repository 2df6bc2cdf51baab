package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kanbantools/sprint-report/internal/api"
	"github.com/kanbantools/sprint-report/internal/api/bugzilla"
	"github.com/kanbantools/sprint-report/internal/api/trello"
	"github.com/kanbantools/sprint-report/internal/config"
	"github.com/kanbantools/sprint-report/internal/sprint"
)

var (
	// Global flags
	boardName      string
	configPath     string
	verbose        bool
	includeMembers bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sprint-report",
	Short: "Generate a sprint report per (board, sprint)",
	Long: `sprint-report reads a kanban board and produces a sprint status
report: units of work across the workflow lists classified into planned
and unplanned, with completion percentages.

The pm-score command copies the priority score of each backlog card's
linked bugzilla issue into the card's PM_SCORE custom field.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return errors.New("please select a command, --help for more information")
	},
}

// reportCmd generates the sprint status report
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the sprint status report for the board",
	RunE:  runReport,
}

// pmScoreCmd synchronizes PM_SCORE on backlog cards
var pmScoreCmd = &cobra.Command{
	Use:   "pm-score",
	Short: "Copy bugzilla priority scores onto backlog cards",
	RunE:  runPMScore,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&boardName, "board", "", "Trello board name")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	_ = rootCmd.MarkPersistentFlagRequired("board")
	_ = rootCmd.MarkPersistentFlagRequired("config")

	reportCmd.Flags().BoolVar(&includeMembers, "include-members", false,
		"include card members in the report")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(pmScoreCmd)
}

func main() {
	// A .env file may carry credential overrides; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildClients wires up the API clients from configuration. This is
// the composition root where all dependencies are created and injected.
func buildClients(cfg *config.Config) (*trello.Client, *bugzilla.Client) {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	trelloClient := trello.NewClient(api.ClientConfig{
		BaseURL: cfg.Trello.BaseURL,
		Key:     cfg.Trello.APIKey,
		Token:   cfg.Trello.Token,
	}, httpClient)

	bugzillaClient := bugzilla.NewClient(api.ClientConfig{
		BaseURL: cfg.Bugzilla.URL,
		Key:     cfg.Bugzilla.APIKey,
	}, httpClient)

	return trelloClient, bugzillaClient
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	trelloClient, bugzillaClient := buildClients(cfg)
	engine := sprint.NewEngine(trelloClient, bugzillaClient, sprint.Options{
		IncludeMembers: includeMembers,
		Logger:         logger,
	})

	ctx := cmd.Context()
	board, err := engine.FindBoard(ctx, boardName)
	if err != nil {
		return err
	}
	if board == nil {
		// Not an error: report it and end the command.
		fmt.Printf("Board %s not found\n", boardName)
		return nil
	}

	lists, err := engine.ListLists(ctx, board.ID)
	if err != nil {
		return err
	}
	return engine.Report(ctx, lists)
}

func runPMScore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.HasBugzillaConfig() {
		return errors.New("bugzilla api_key is not configured")
	}

	trelloClient, bugzillaClient := buildClients(cfg)
	engine := sprint.NewEngine(trelloClient, bugzillaClient, sprint.Options{
		Logger: logger,
	})

	ctx := cmd.Context()

	// The synchronizer requires an authenticated tracker session.
	user, err := bugzillaClient.Whoami(ctx)
	if err != nil {
		return err
	}
	logger.Debug("authenticated to bugzilla", zap.String("user", user))

	board, err := engine.FindBoard(ctx, boardName)
	if err != nil {
		return err
	}
	if board == nil {
		fmt.Printf("Board %s not found\n", boardName)
		return nil
	}

	lists, err := engine.ListLists(ctx, board.ID)
	if err != nil {
		return err
	}
	return engine.SyncPMScores(ctx, lists)
}
