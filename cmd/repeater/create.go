package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kpauljoseph/repeater/internal/editor"
	"github.com/kpauljoseph/repeater/internal/parser"
	"github.com/kpauljoseph/repeater/internal/tui"
	"github.com/kpauljoseph/repeater/pkg/utils"
)

var createCmd = &cobra.Command{
	Use:   "create <path>",
	Short: "Write new cards into a markdown file",
	Long: `Opens an editor for new cards and appends each saved card to the given
markdown file, registering it for review. The file is created if it does
not exist yet.

Keys: ctrl+b starts a basic card, ctrl+k a cloze card, ctrl+s saves,
esc quits.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	path := args[0]
	exists, err := editor.ValidatePath(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !exists {
		ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Card file '%s' does not exist. Create it? [y/N]: ", path))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborting; card not created.")
			return nil
		}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := fileLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx := cmd.Context()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	existing := 0
	if exists {
		cards, err := parser.ParseFile(path)
		if err != nil {
			return err
		}
		existing = len(cards)
	}

	model := tui.NewCreate(ctx, editor.NewCreator(st, log), path, existing, log)
	final, err := tui.Run(model, tea.WithAltScreen())
	if err != nil {
		return err
	}
	if m, ok := final.(tui.CreateModel); ok && m.Created() > 0 {
		fmt.Fprintf(out, "Created %s in %s.\n", utils.Pluralize("card", m.Created()), path)
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
