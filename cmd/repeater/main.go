package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kpauljoseph/repeater/internal/config"
	"github.com/kpauljoseph/repeater/internal/scheduler"
	"github.com/kpauljoseph/repeater/internal/store"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/updater"
	"github.com/kpauljoseph/repeater/pkg/version"
)

var (
	// Global flags
	configPath string
	dbPath     string
	verbose    bool
	debug      bool
	retention  float64
)

var rootCmd = &cobra.Command{
	Use:   "repeater",
	Short: "Spaced repetition drills for flashcards kept in markdown",
	Long: `repeater finds Q:/A: and C: cards in your markdown notes and schedules
them with the FSRS algorithm.

Run "repeater drill [paths...]" to review the cards due today.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), version.GetDetailedVersionInfo())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the card database (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode with trace logging")
	rootCmd.PersistentFlags().Float64Var(&retention, "retention", 0, "desired retention between 0.65 and 1.0 (overrides config)")

	rootCmd.AddCommand(drillCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version.Version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("db") {
		cfg.DatabasePath = dbPath
	}
	if cmd.Flags().Changed("retention") {
		cfg.Retention = retention
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(options ...logger.Option) *logger.Logger {
	log := logger.New(append([]logger.Option{logger.WithPrefix("[repeater] ")}, options...)...)
	log.SetVerbose(verbose || debug)
	if debug {
		log.SetLevel(logger.LevelTrace)
	}
	return log
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store.Store, error) {
	engine, err := scheduler.NewEngine(scheduler.WithRetention(cfg.Retention))
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.DatabasePath, store.WithEngine(engine), store.WithLogger(log))
}

// notifyUpdate prints a notice when a newer release exists. Failures are
// only logged; the check must never get in the way of a drill.
func notifyUpdate(ctx context.Context, cmd *cobra.Command, st *store.Store, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	checker := updater.NewChecker(st, log)
	info, err := checker.CheckForUpdates(ctx)
	if err != nil {
		log.Debug("Update check failed: %v", err)
		return
	}
	if info == nil || !info.IsAvailable {
		return
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nA new version of repeater is available! %s -> %s\n", info.CurrentVersion, info.LatestVersion)
	fmt.Fprintf(out, "Check %s for more details\n\n", updater.ReleasesURL)
	if err := checker.Prompted(ctx); err != nil {
		log.Debug("Failed to record update notice: %v", err)
	}
}
