package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Shugur-Network/relaydex/internal/application"
	"github.com/Shugur-Network/relaydex/internal/config"
	"github.com/Shugur-Network/relaydex/internal/discovery"
	"github.com/Shugur-Network/relaydex/internal/errors"
	"github.com/Shugur-Network/relaydex/internal/logger"
	"go.uber.org/zap"

	"github.com/spf13/cobra"
)

var (
	cfgFile string         // Path to custom config file (optional)
	cfg     *config.Config // Global reference to loaded configuration
)

// rootCmd defines the main CLI command for relaydex
var rootCmd = &cobra.Command{
	Use:   "relaydex",
	Short: "relaydex discovers Nostr relays and keeps their NIP-11 metadata",
	Long: `relaydex follows relay list events on the Nostr network, fetches the
information document of every relay it hears about and keeps it fresh in a
CockroachDB/PostgreSQL store behind an in-memory cache.`,
	Example: `
  relaydex start --db-url postgresql://root@localhost:26257/relaydex?sslmode=disable
  relaydex start --log-level debug --metrics-port 9090
  relaydex lookup wss://relay.damus.io
  relaydex start --config /path/to/config.yaml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for version command
		if cmd.Name() == "version" {
			return nil
		}

		if cfgFile != "" {
			absPath, err := filepath.Abs(cfgFile)
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
			cfgFile = absPath
		}

		// Load configuration (use nil logger to avoid sync issues)
		var err error
		cfg, err = config.Load(cfgFile, nil)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Override config with command line flags if specified
		flags := cmd.Flags()
		if flags.Changed("db-url") {
			cfg.Database.URL, _ = flags.GetString("db-url")
		}
		if flags.Changed("metrics-port") {
			cfg.Metrics.Port, _ = flags.GetInt("metrics-port")
		}
		if flags.Changed("log-level") {
			level, _ := flags.GetString("log-level")
			if err := logger.UpdateLevel(level); err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			cfg.Logging.Level = level
		}

		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Default behavior: show help when no subcommand is provided
		if err := cmd.Help(); err != nil {
			fmt.Fprintf(os.Stderr, "Error displaying help: %v\n", err)
		}
	},
}

// Execute runs the root command with the provided context and returns the
// process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printWelcomeBanner() {
	fmt.Println("           _             _           ")
	fmt.Println("  _ __ ___| | __ _ _   _| | ___ __  __")
	fmt.Println(" | '__/ _ \\ |/ _` | | | | |/ _ \\\\ \\/ /")
	fmt.Println(" | | |  __/ | (_| | |_| | |  __/ >  < ")
	fmt.Println(" |_|  \\___|_|\\__,_|\\__, |_|\\___/_/\\_\\")
	fmt.Println("                   |___/              ")
	fmt.Println()
	fmt.Printf("relaydex %s - Nostr relay discovery and metadata registry\n", GetVersion())
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start discovery and the metadata registry",
		Long:  "Connect to the store, join the seed relays and keep relay metadata up to date until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printWelcomeBanner()
			logger.Info("Using config file", zap.String("config_file", cfgFile))

			// Use the context passed down from main.go
			ctx := cmd.Context()

			logger.Info("Starting relaydex...")
			app, err := application.New(ctx, cfg)
			if err != nil {
				logger.Error("Failed to initialize relaydex", zap.Error(err))
				return err
			}

			if err := app.Start(ctx); err != nil {
				logger.Error("Failed to start relaydex", zap.Error(err))
				app.Shutdown()
				return err
			}

			logger.Info("relaydex started successfully!")

			<-ctx.Done()
			logger.Info("Shutdown signal received, initiating graceful shutdown...")
			app.Shutdown()
			logger.Info("relaydex has shut down successfully.")
			return nil
		},
	}
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <relay-url>",
		Short: "Resolve one relay's metadata and print it as JSON",
		Long: `Run a single registry lookup: the cache is empty, so the record comes from
the store when fresh, otherwise it is fetched and persisted first.
ws:// and wss:// urls are resolved over https.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, ok := discovery.NormalizeURL(args[0])
			if !ok {
				return errors.ValidationError("INVALID_RELAY_URL", fmt.Sprintf("not a relay url: %q", args[0]))
			}

			cfg.Discovery.Enabled = false
			cfg.Metrics.Enabled = false

			ctx := cmd.Context()
			app, err := application.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			relay, err := app.Lookup(ctx, url)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(relay, "", "  ")
			if err != nil {
				return fmt.Errorf("encode relay: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of relaydex",
		Long:  "Print the version number of relaydex along with build information",
		Run: func(cmd *cobra.Command, args []string) {
			if detailed, _ := cmd.Flags().GetBool("detailed"); detailed {
				fmt.Fprintln(cmd.OutOrStdout(), GetFullVersionInfo())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), GetVersionWithPrefix())
			}
		},
	}
	versionCmd.Flags().BoolP("detailed", "d", false, "Show detailed version information")
	return versionCmd
}

// init sets up flags and subcommands
func init() {
	// Add persistent flags (inherited by all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to custom config file (optional)")
	rootCmd.PersistentFlags().String("db-url", "", "Full database connection URL (overrides server/port)")
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().Int("metrics-port", 2112, "Port for the Prometheus metrics and health server")

	rootCmd.AddCommand(newStartCmd(), newLookupCmd(), newVersionCmd())
}
