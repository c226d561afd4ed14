package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kpauljoseph/repeater/internal/scanner"
	"github.com/kpauljoseph/repeater/internal/store"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/utils"
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Register cards and show collection statistics",
	Long: `Indexes the cards in the given markdown files and directories and prints
a summary of their review state: lifecycle counts, upcoming reviews and
memory histograms.`,
	RunE: runCheck,
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"."}
	}

	log := newLogger(logger.WithOutput(cmd.ErrOrStderr()))
	ctx := cmd.Context()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	known, _, err := scanner.New(log).Ingest(ctx, st, args...)
	if err != nil {
		return err
	}
	stats, err := st.CollectionStats(ctx, known)
	if err != nil {
		return err
	}

	printDashboard(cmd.OutOrStdout(), stats, time.Now())
	return nil
}

func printDashboard(w io.Writer, stats store.CollectionStats, now time.Time) {
	fmt.Fprintln(w, titleStyle.Render("Collection"))
	fmt.Fprintf(w, "  %s %s tracked, %s in the database\n",
		labelStyle.Render("Cards:"), utils.Pluralize("card", stats.NumCards), utils.Pluralize("card", stats.TotalInStore))
	for _, l := range []store.Lifecycle{store.LifecycleNew, store.LifecycleLearning, store.LifecycleYoung, store.LifecycleMature} {
		fmt.Fprintf(w, "  %-10s %d\n", labelStyle.Render(l.String()+":"), stats.Lifecycles[l])
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Due"))
	fmt.Fprintf(w, "  %-10s %d\n", labelStyle.Render("Now:"), stats.DueNow)
	fmt.Fprintf(w, "  %-10s %d\n", labelStyle.Render("30 days:"), stats.UpcomingMonth)
	for i := 0; i < 7; i++ {
		day := now.AddDate(0, 0, i)
		count := stats.UpcomingWeek[day.Format(time.DateOnly)]
		fmt.Fprintf(w, "  %-10s %s %d\n", labelStyle.Render(day.Format("Mon 02")), bar(count, stats.NumCards), count)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Files"))
	files := make([]string, 0, len(stats.Files))
	for path := range stats.Files {
		files = append(files, path)
	}
	sort.Strings(files)
	for _, path := range files {
		fmt.Fprintf(w, "  %4d  %s\n", stats.Files[path], filepath.ToSlash(path))
	}

	fmt.Fprintln(w)
	printHistogram(w, "Difficulty", stats.Difficulty, 10)
	printHistogram(w, "Retrievability", stats.Retrievability, 1)
}

func printHistogram(w io.Writer, title string, h store.Histogram, scale float64) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(title), labelStyle.Render(fmt.Sprintf("(mean %.2f)", h.Mean()*scale)))
	step := scale / float64(len(h.Bins))
	for i, n := range h.Bins {
		label := fmt.Sprintf("%.1f-%.1f", float64(i)*step, float64(i+1)*step)
		fmt.Fprintf(w, "  %-10s %s %d\n", labelStyle.Render(label), bar(n, h.Count), n)
	}
}

func bar(n, total int) string {
	const width = 30
	if total == 0 || n == 0 {
		return strings.Repeat(" ", width)
	}
	filled := n * width / total
	if filled == 0 {
		filled = 1
	}
	return barStyle.Render(strings.Repeat("█", filled)) + strings.Repeat(" ", width-filled)
}
