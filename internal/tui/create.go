package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/models"
	"github.com/kpauljoseph/repeater/pkg/utils"
)

const (
	basicTemplate = "Q: \nA: "
	clozeTemplate = "C: "
)

// Appender stores a new card at the end of a card file.
type Appender interface {
	Append(ctx context.Context, path, text string) (models.Card, error)
}

type createdMsg struct {
	card models.Card
	err  error
}

// CreateModel writes new cards into one file until the user quits.
type CreateModel struct {
	ctx      context.Context
	appender Appender
	path     string
	logger   *logger.Logger

	textarea textarea.Model
	cloze    bool
	saving   bool

	existing int
	created  int
	status   string
	done     bool
}

// NewCreate starts with a basic card template. existing is the number of
// cards already in path.
func NewCreate(ctx context.Context, appender Appender, path string, existing int, log *logger.Logger) CreateModel {
	if log == nil {
		log = logger.Nop()
	}
	m := CreateModel{
		ctx:      ctx,
		appender: appender,
		path:     path,
		logger:   log,
		textarea: newTextarea(""),
		existing: existing,
	}
	m.reset()
	m.textarea.Focus()
	return m
}

func (m *CreateModel) reset() {
	if m.cloze {
		m.textarea.SetValue(clozeTemplate)
		return
	}
	m.textarea.SetValue(basicTemplate)
	m.textarea.CursorUp()
	m.textarea.SetCursor(len("Q: "))
}

func (m CreateModel) Init() tea.Cmd {
	return textarea.Blink
}

// Created is the number of cards saved so far.
func (m CreateModel) Created() int {
	return m.created
}

func (m CreateModel) Status() string {
	return m.status
}

func (m CreateModel) Text() string {
	return m.textarea.Value()
}

func (m CreateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 8 {
			m.textarea.SetWidth(msg.Width - 8)
		}
		return m, nil

	case createdMsg:
		m.saving = false
		if msg.err != nil {
			m.status = "Unable to save card: " + msg.err.Error()
			m.logger.Warn("Card not created in %s: %v", m.path, msg.err)
			return m, nil
		}
		m.created++
		m.existing++
		m.status = "Card saved"
		m.reset()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		case "ctrl+b":
			m.cloze = false
			m.reset()
			return m, nil
		case "ctrl+k":
			m.cloze = true
			m.reset()
			return m, nil
		case "ctrl+s":
			if m.saving {
				return m, nil
			}
			m.saving = true
			m.status = "Saving..."
			ctx, appender, path, text := m.ctx, m.appender, m.path, m.textarea.Value()
			return m, func() tea.Msg {
				card, err := appender.Append(ctx, path, text)
				return createdMsg{card: card, err: err}
			}
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m CreateModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("New card"))
	b.WriteString("  ")
	b.WriteString(pathStyle.Render(m.path))
	b.WriteString("\n\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("ctrl+b: basic card • ctrl+k: cloze card • ctrl+s: save • esc: quit"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("%s in this file • %d created",
		utils.Pluralize("card", m.existing), m.created)))
	b.WriteString("\n")
	return b.String()
}
