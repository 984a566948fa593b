package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkguard/internal/config"
	"github.com/nao1215/linkguard/internal/feed"
)

// NewFeedsCmd creates the feeds command with its subcommands.
func NewFeedsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Manage the local blocklist feed cache",
		Long: `Feeds manages the on-disk cache of public blocklist feeds.

LinkGuard downloads feeds such as URLhaus on demand and reuses the
cached copy while it is fresh. Use 'feeds refresh' to force a new
download and 'feeds status' to inspect the cached copies.`,
	}

	cmd.AddCommand(newFeedsRefreshCmd())
	cmd.AddCommand(newFeedsStatusCmd())

	return cmd
}

// newFeedsRefreshCmd creates the feeds refresh subcommand.
func newFeedsRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Download every configured feed, replacing the cached copies",
		Args:  cobra.NoArgs,
		RunE:  runFeedsRefreshCmd,
	}
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkguard in current or home directory)")
	return cmd
}

// newFeedsStatusCmd creates the feeds status subcommand.
func newFeedsStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the age and size of each cached feed",
		Args:  cobra.NoArgs,
		RunE:  runFeedsStatusCmd,
	}
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkguard in current or home directory)")
	return cmd
}

// feedsConfig builds a Config for the feeds subcommands. Only the config
// file flag matters here; feeds have no API keys or targets.
func feedsConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

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

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// runFeedsRefreshCmd downloads every configured feed.
func runFeedsRefreshCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := feedsConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	cache := feed.NewCache(cfg.Feeds, cfg.FeedDir,
		feed.WithTTL(cfg.FeedTTL),
		feed.WithUserAgent(cfg.UserAgent),
		feed.WithLogger(logger),
	)

	snapshots, err := cache.Refresh(cmd.Context())
	for _, snapshot := range snapshots {
		cmd.Printf("%s: %d entries\n", snapshot.Name, snapshot.Size())
	}
	if err != nil {
		return fmt.Errorf("failed to refresh feeds: %w", err)
	}
	return nil
}

// runFeedsStatusCmd lists the cached feed copies.
func runFeedsStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := feedsConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	cache := feed.NewCache(cfg.Feeds, cfg.FeedDir,
		feed.WithTTL(cfg.FeedTTL),
		feed.WithUserAgent(cfg.UserAgent),
		feed.WithLogger(logger),
	)

	for _, status := range cache.Status() {
		if status.FetchedAt.IsZero() {
			cmd.Printf("%s: never fetched (%s)\n", status.Name, status.URL)
			continue
		}
		freshness := "stale"
		if status.Fresh {
			freshness = "fresh"
		}
		cmd.Printf("%s: %d entries, fetched %s ago (%s)\n",
			status.Name,
			status.Entries,
			time.Since(status.FetchedAt).Round(time.Second),
			freshness,
		)
	}
	return nil
}
