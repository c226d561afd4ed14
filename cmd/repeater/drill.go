package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kpauljoseph/repeater/internal/config"
	"github.com/kpauljoseph/repeater/internal/drill"
	"github.com/kpauljoseph/repeater/internal/editor"
	"github.com/kpauljoseph/repeater/internal/enrich"
	"github.com/kpauljoseph/repeater/internal/llm"
	"github.com/kpauljoseph/repeater/internal/scanner"
	"github.com/kpauljoseph/repeater/internal/tui"
	"github.com/kpauljoseph/repeater/internal/watch"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/models"
	"github.com/kpauljoseph/repeater/pkg/utils"
)

var (
	cardLimit    int
	newCardLimit int
	shuffle      bool
	rephrase     bool
)

var drillCmd = &cobra.Command{
	Use:   "drill [paths...]",
	Short: "Review the cards that are due today",
	Long: `Collects cards from the given markdown files and directories (default:
the current directory) and starts an interactive review of the ones due.

Keys: space reveals the answer and then passes the card, f fails it,
e opens the card in an editor (ctrl+s saves), o opens the first image or
sound linked from the card, esc quits.`,
	RunE: runDrill,
}

func init() {
	drillCmd.Flags().IntVar(&cardLimit, "card-limit", 0, "maximum number of cards to review")
	drillCmd.Flags().IntVar(&newCardLimit, "new-card-limit", 0, "maximum number of new cards to review")
	drillCmd.Flags().BoolVar(&shuffle, "shuffle", false, "shuffle the review order")
	drillCmd.Flags().BoolVar(&rephrase, "rephrase", false, "rephrase questions with the configured model")
}

func runDrill(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("card-limit") {
		cfg.CardLimit = &cardLimit
	}
	if cmd.Flags().Changed("new-card-limit") {
		cfg.NewCardLimit = &newCardLimit
	}
	if cmd.Flags().Changed("shuffle") {
		cfg.Shuffle = shuffle
	}
	if cmd.Flags().Changed("rephrase") {
		cfg.RephraseQuestions = rephrase
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"."}
	}

	log, closeLog, err := fileLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	notifyUpdate(ctx, cmd, st, log)

	known, stats, err := scanner.New(log).Ingest(ctx, st, args...)
	if err != nil {
		return err
	}
	log.Info("Found %s in %s", utils.Pluralize("card", stats.CardCount), utils.Pluralize("file", stats.FileCount))

	cards, err := st.DueToday(ctx, known, cfg.CardLimit, cfg.NewCardLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(cards) == 0 {
		fmt.Fprintln(out, "All caught up, no cards are due.")
		return nil
	}

	pending := enrich.Mark(cards, cfg.RephraseQuestions)
	var pipeline *enrich.Pipeline
	if pending > 0 {
		client, err := llm.NewClient(ctx, cfg.LLMConfig(), log)
		if err != nil {
			return fmt.Errorf("cannot enrich %s: %w", utils.Pluralize("card", pending), err)
		}
		pipeline = enrich.NewPipeline(llm.NewEnricher(client), enrich.WithLogger(log))
	}

	inbox := drill.NewInbox()
	options := []drill.Option{drill.WithInbox(inbox), drill.WithLogger(log)}
	if cfg.Shuffle {
		options = append(options, drill.WithShuffle(uint64(time.Now().UnixNano())))
	}
	session := drill.New(cards, st, options...)
	log.Info("Drill session %s: %s due", session.ID(), utils.Pluralize("card", len(cards)))

	var wg sync.WaitGroup
	if pipeline != nil {
		queue := session.Queue()
		wg.Add(1)
		go func() {
			defer wg.Done()
			pipeline.Feed(ctx, queue, inbox)
		}()
	}
	watcher := watch.New(cardFiles(cards), watch.WithLogger(log))
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := watcher.Run(ctx, inbox); err != nil {
			log.Warn("File watcher stopped: %v", err)
		}
	}()

	model := tui.New(ctx, session, editor.NewReconciler(st, log), log)
	_, uiErr := tui.Run(model, tea.WithAltScreen())
	cancel()
	wg.Wait()
	if uiErr != nil {
		return uiErr
	}
	if err := session.Err(); err != nil {
		return err
	}

	if session.State() == drill.Complete {
		fmt.Fprintf(out, "Reviewed %s. See you tomorrow!\n", utils.Pluralize("card", len(cards)))
	}
	return nil
}

func cardFiles(cards []models.Card) []string {
	seen := make(map[string]bool)
	var files []string
	for _, c := range cards {
		if !seen[c.Path] {
			seen[c.Path] = true
			files = append(files, c.Path)
		}
	}
	sort.Strings(files)
	return files
}

// fileLogger logs to the data directory, since the terminal belongs to the
// UI while it runs.
func fileLogger(cfg *config.Config) (*logger.Logger, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log := newLogger(logger.WithOutput(logFile))
	return log, func() {
		log.Sync()
		logFile.Close()
	}, nil
}
