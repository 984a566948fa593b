package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkguard/internal/config"
	"github.com/nao1215/linkguard/internal/database"
	"github.com/nao1215/linkguard/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent checks from the history database",
		Long: `History lists the most recent URL checks, newest first.

Each check run stores its report in a local SQLite database unless
--no-history was given. Use --show to print the full stored report
for a single entry.`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Maximum number of entries to list")
	cmd.Flags().Int64("show", 0,
		"Print the full stored report for the entry with this ID")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return fmt.Errorf("no check history found: %w", err)
	}
	defer db.Close()

	if showID != 0 {
		return showHistoryEntry(cmd, db, showID)
	}

	records, err := db.Recent(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to read check history: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No checks recorded yet.")
		return nil
	}

	for _, record := range records {
		cmd.Printf("%4d  %s  %-6s %3d  %s\n",
			record.ID,
			record.Timestamp.Format("2006-01-02 15:04"),
			record.RiskLevel,
			record.RiskScore,
			record.URL,
		)
	}
	return nil
}

// showHistoryEntry prints the full stored report for one history entry.
func showHistoryEntry(cmd *cobra.Command, db *database.HistoryDB, id int64) error {
	storedReport, err := db.Report(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to read check history: %w", err)
	}
	if storedReport == nil {
		return fmt.Errorf("no history entry with id %d", id)
	}

	writer := report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(true))
	_, err = writer.Write(storedReport)
	return err
}
