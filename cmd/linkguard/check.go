package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkguard/internal/config"
	"github.com/nao1215/linkguard/internal/database"
	"github.com/nao1215/linkguard/internal/engine"
	"github.com/nao1215/linkguard/internal/feed"
	"github.com/nao1215/linkguard/internal/fetch"
	"github.com/nao1215/linkguard/internal/intel"
	"github.com/nao1215/linkguard/internal/model"
	"github.com/nao1215/linkguard/internal/report"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [url]",
		Short: "Analyze one or more URLs for phishing and malware risk",
		Long: `Check analyzes URLs and reports a risk score from 0 to 100.

It evaluates the URL's structure, consults public blocklist feeds,
queries Google Safe Browsing and VirusTotal when API keys are set,
fetches the page behind an SSRF guard, and scans the returned HTML
for phishing patterns. High-risk URLs are additionally submitted to
urlscan.io when an API key is set.

Examples:
  # Check a single URL
  linkguard check https://example.com/login

  # Check several URLs in one run
  linkguard check https://a.example https://b.example

  # Force the urlscan.io deep scan regardless of score
  linkguard check --deep https://example.com

  # Output JSON report
  linkguard check --json https://example.com

  # Use a custom configuration file
  linkguard check -c myconfig.yaml https://example.com

Configuration file (.linkguard) example:
  feeds:
    - name: URLhaus
      url: https://urlhaus.abuse.ch/downloads/text/
  userAgent: "LinkGuard/1.0"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheckCmd,
	}

	// Analysis behavior flags
	cmd.Flags().BoolP("deep", "d", false,
		"Always run the urlscan.io deep scan, not only for high-risk URLs")
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for each HTTP request")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkguard in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record this check in the history database")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCheck(ctx, cfg, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.DeepCheck, err = cmd.Flags().GetBool("deep")
	if err != nil {
		return nil, err
	}

	cfg.FetchTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load settings from the config file. An explicitly specified path
	// must exist; the default search is best effort.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Apply(cf)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LoadAPIKeys()

	// Positional arguments are the URLs to analyze
	cfg.Targets = args

	return cfg, nil
}

// runCheck analyzes every target and writes one report per URL.
func runCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting check",
		"targets", len(cfg.Targets),
		"deepCheck", cfg.DeepCheck,
		"saveHistory", cfg.SaveHistory,
	)

	var db *database.HistoryDB
	if cfg.SaveHistory {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			// History is a convenience; analysis continues without it.
			logger.Warn("failed to open history database", "error", err.Error())
		} else {
			defer db.Close()
		}
	}

	eng := newEngine(cfg, logger)

	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		startTime := time.Now()
		checkReport, err := eng.Analyze(ctx, target)
		if err != nil {
			return fmt.Errorf("cannot analyze %q: %w", target, err)
		}
		logger.Debug("analysis finished",
			"host", checkReport.Host,
			"score", checkReport.RiskScore,
			"elapsed", time.Since(startTime).Round(time.Millisecond).String(),
		)

		if err := outputReport(cfg, checkReport); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		if db != nil {
			if _, err := db.SaveCheck(ctx, checkReport); err != nil {
				logger.Warn("failed to save check to history", "error", err.Error())
			}
		}
	}

	return nil
}

// newEngine wires the engine from the configuration. Lookup clients are
// always constructed; a client without an API key degrades itself to a
// not-configured outcome.
func newEngine(cfg *config.Config, logger *slog.Logger) *engine.Engine {
	feeds := feed.NewCache(cfg.Feeds, cfg.FeedDir,
		feed.WithTTL(cfg.FeedTTL),
		feed.WithUserAgent(cfg.UserAgent),
		feed.WithLogger(logger),
	)
	aggregator := intel.NewAggregator(
		feeds,
		intel.NewSafeBrowsing(cfg.SafeBrowsingAPIKey, intel.WithSafeBrowsingLogger(logger)),
		intel.NewReputation(cfg.ReputationAPIKey, intel.WithReputationLogger(logger)),
		intel.NewDeepScan(cfg.DeepScanAPIKey, intel.WithDeepScanLogger(logger)),
		intel.WithLookupTimeout(cfg.LookupTimeout),
		intel.WithAggregatorLogger(logger),
	)
	fetcher := fetch.New(
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithMaxRedirects(cfg.MaxRedirects),
		fetch.WithMaxBodyBytes(cfg.MaxBodyBytes),
		fetch.WithLogger(logger),
	)
	return engine.New(cfg,
		engine.WithFetcher(fetcher),
		engine.WithIntelligence(aggregator),
		engine.WithLogger(logger),
	)
}

// outputReport outputs the check report in the requested format.
func outputReport(cfg *config.Config, checkReport *model.Report) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports name the URLs a user checked; keep them owner-readable.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(checkReport)
	return err
}
