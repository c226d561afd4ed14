// Package tui is the terminal front end of a drill session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kpauljoseph/repeater/internal/drill"
	"github.com/kpauljoseph/repeater/internal/editor"
	"github.com/kpauljoseph/repeater/internal/markdown"
	"github.com/kpauljoseph/repeater/internal/scheduler"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/models"
)

// TickInterval is how often the inbox is drained.
const TickInterval = 16 * time.Millisecond

const pendingText = "Enhancing this card with AI..."

type Editor interface {
	Apply(ctx context.Context, original models.Card, newText string) (editor.Update, error)
}

// TickMsg drives inbox draining and the feedback timeout.
type TickMsg time.Time

type savedMsg struct {
	update editor.Update
	err    error
}

type openedMsg struct {
	media markdown.Media
	err   error
}

type Option func(*Model)

// WithRenderer renders card text with r instead of a renderer styled for
// the current terminal.
func WithRenderer(r *markdown.Renderer) Option {
	return func(m *Model) {
		m.renderer = r
	}
}

// WithMediaOpener replaces the desktop opener used for the o key.
func WithMediaOpener(open func(markdown.Media) error) Option {
	return func(m *Model) {
		m.openMedia = open
	}
}

// Model owns the session for the lifetime of the program. Grades and edits
// run under ctx.
type Model struct {
	ctx     context.Context
	session *drill.Session
	editor  Editor
	logger  *logger.Logger

	renderer  *markdown.Renderer
	openMedia func(markdown.Media) error

	textarea textarea.Model
	editing  bool
	saving   bool
	original models.Card

	status string
	done   bool
}

func New(ctx context.Context, session *drill.Session, ed Editor, log *logger.Logger, opts ...Option) Model {
	if log == nil {
		log = logger.Nop()
	}
	m := Model{
		ctx:       ctx,
		session:   session,
		editor:    ed,
		logger:    log,
		openMedia: markdown.Open,
		textarea:  newTextarea("Q: ...\nA: ..."),
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.renderer == nil {
		r, err := markdown.NewRenderer(markdown.WithWidth(cardWidth))
		if err != nil {
			log.Warn("Showing cards without markdown rendering: %v", err)
		} else {
			m.renderer = r
		}
	}
	return m
}

// cardWidth is the wrap width inside the card border at startup.
const cardWidth = 72

func newTextarea(placeholder string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.SetWidth(cardWidth)
	ta.SetHeight(10)
	return ta
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Session() *drill.Session {
	return m.session
}

// Editing reports whether the card editor is open.
func (m Model) Editing() bool {
	return m.editing
}

func (m Model) Status() string {
	return m.status
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		m.session.Drain()
		if m.session.State() == drill.Complete {
			m.done = true
			return m, tea.Quit
		}
		return m, tick()

	case tea.WindowSizeMsg:
		if msg.Width > 8 {
			m.textarea.SetWidth(msg.Width - 8)
			if m.renderer != nil {
				if err := m.renderer.SetWidth(msg.Width - 8); err != nil {
					m.logger.Warn("Failed to rewrap cards: %v", err)
				}
			}
		}
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.status = "Could not open media: " + msg.err.Error()
			m.logger.Warn("Failed to open %s: %v", msg.media.Path, msg.err)
			return m, nil
		}
		m.status = "Opened " + msg.media.Label
		return m, nil

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.status = "Could not save card: " + msg.err.Error()
			m.logger.Warn("Edit of %s rejected: %v", m.original.Path, msg.err)
			return m, nil
		}
		m.session.ApplyEdit(msg.update.Card, msg.update.OldFingerprint, msg.update.OldRange, msg.update.LineDelta)
		m.editing = false
		m.textarea.Blur()
		m.status = "Card saved"
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditor(msg)
		}
		return m.updateReview(msg)
	}
	return m, nil
}

func (m Model) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		m.done = true
		return m, tea.Quit

	case " ", "enter":
		if m.session.State() == drill.Revealed {
			return m.grade(scheduler.Pass)
		}
		if err := m.session.Reveal(); err != nil {
			m.status = describe(err)
		}

	case "f":
		if m.session.State() == drill.Revealed {
			return m.grade(scheduler.Fail)
		}
		m.status = describe(drill.ErrNotRevealed)

	case "e":
		card, ok := m.session.Current()
		if !ok {
			return m, nil
		}
		if m.session.AwaitingEnrichment() {
			m.status = describe(drill.ErrAwaitingEnrichment)
			return m, nil
		}
		m.original = card
		m.editing = true
		m.textarea.SetValue(card.EditText())
		return m, m.textarea.Focus()

	case "o":
		if m.session.AwaitingEnrichment() {
			m.status = describe(drill.ErrAwaitingEnrichment)
			return m, nil
		}
		media := m.media()
		if len(media) == 0 {
			m.status = "No media in this card"
			return m, nil
		}
		open, first := m.openMedia, media[0]
		return m, func() tea.Msg {
			return openedMsg{media: first, err: open(first)}
		}
	}
	return m, nil
}

// media lists the files linked from the text currently shown.
func (m Model) media() []markdown.Media {
	card, ok := m.session.Current()
	if !ok || m.session.AwaitingEnrichment() {
		return nil
	}
	return markdown.ExtractMedia(m.cardText(card), filepath.Dir(card.Path))
}

func (m Model) cardText(card models.Card) string {
	return card.DisplayText(m.session.State() == drill.Revealed)
}

func (m Model) render(text string) string {
	if m.renderer == nil {
		return text
	}
	return strings.TrimRight(m.renderer.Render(text), "\n")
}

func (m Model) grade(g scheduler.Grade) (tea.Model, tea.Cmd) {
	if _, err := m.session.Grade(m.ctx, g); err != nil {
		m.status = describe(err)
	}
	if m.session.State() == drill.Complete {
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.done = true
		return m, tea.Quit
	case "esc":
		if m.saving {
			return m, nil
		}
		m.editing = false
		m.textarea.Blur()
		m.status = "Edit discarded"
		return m, nil
	case "ctrl+s":
		if m.saving {
			return m, nil
		}
		m.saving = true
		m.status = "Saving..."
		return m, m.save(m.original, m.textarea.Value())
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) save(original models.Card, text string) tea.Cmd {
	ctx, ed := m.ctx, m.editor
	return func() tea.Msg {
		update, err := ed.Apply(ctx, original, text)
		return savedMsg{update: update, err: err}
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, drill.ErrAwaitingEnrichment):
		return pendingText
	case errors.Is(err, drill.ErrComplete):
		return "All cards reviewed"
	case errors.Is(err, drill.ErrNotRevealed):
		return "Reveal the card before grading it"
	}
	return err.Error()
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder

	card, ok := m.session.Current()
	if !ok {
		b.WriteString(headerStyle.Render("All cards reviewed"))
		b.WriteString("\n")
		return b.String()
	}

	index, total, redo := m.session.Position()
	header := fmt.Sprintf("Card %d/%d", index, total)
	if redo > 0 {
		header += fmt.Sprintf(" (%d to redo)", redo)
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("  ")
	b.WriteString(pathStyle.Render(fmt.Sprintf("%s:%d", card.Path, card.Range.Start+1)))
	b.WriteString("\n\n")

	switch {
	case m.editing:
		b.WriteString(m.textarea.View())
	case m.session.AwaitingEnrichment():
		b.WriteString(cardStyle.Render(pendingStyle.Render(pendingText)))
	default:
		b.WriteString(cardStyle.Render(m.render(m.cardText(card))))
	}
	b.WriteString("\n\n")

	if last, ok := m.session.LastGrade(); ok {
		style := feedbackStyle
		if last.Grade == scheduler.Fail {
			style = failStyle
		}
		b.WriteString(style.Render(last.String()))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(m.help()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) help() string {
	var keys string
	switch {
	case m.editing:
		return "ctrl+s: save • esc: discard"
	case m.session.State() == drill.Revealed:
		keys = "space: pass • f: fail • e: edit • esc: quit"
	default:
		keys = "space: reveal • e: edit • esc: quit"
	}
	if n := len(m.media()); n > 0 {
		keys += fmt.Sprintf(" • o: open media (%d)", n)
	}
	return keys
}

// Run drives m until it quits and returns the final model.
func Run(m tea.Model, options ...tea.ProgramOption) (tea.Model, error) {
	final, err := tea.NewProgram(m, options...).Run()
	if err != nil {
		return nil, fmt.Errorf("terminal UI failed: %w", err)
	}
	return final, nil
}
