// Package markdown renders card text for the terminal and finds the media
// files a card links to.
package markdown

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

const DefaultWidth = 80

// Renderer turns card markdown into styled terminal text. The last result
// is cached since a drill redraws the same card many times a second.
type Renderer struct {
	style string
	width int
	term  *glamour.TermRenderer

	lastIn  string
	lastOut string
}

type RendererOption func(*Renderer)

// WithStyle selects a glamour standard style such as "dark", "light" or
// "notty". Without it the style follows the terminal.
func WithStyle(name string) RendererOption {
	return func(r *Renderer) {
		r.style = name
	}
}

func WithWidth(width int) RendererOption {
	return func(r *Renderer) {
		r.width = width
	}
}

func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	r := &Renderer{width: DefaultWidth}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.build(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) build() error {
	style := glamour.WithAutoStyle()
	if r.style != "" {
		style = glamour.WithStandardStyle(r.style)
	}
	term, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(r.width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	r.term = term
	r.lastIn, r.lastOut = "", ""
	return nil
}

func (r *Renderer) Width() int {
	return r.width
}

// SetWidth rewraps future output at width columns.
func (r *Renderer) SetWidth(width int) error {
	if width <= 0 || width == r.width {
		return nil
	}
	r.width = width
	return r.build()
}

// Render returns text as styled output, or text itself when it cannot be
// rendered.
func (r *Renderer) Render(text string) string {
	if text == "" {
		return ""
	}
	if text == r.lastIn && r.lastOut != "" {
		return r.lastOut
	}
	out, err := r.term.Render(text)
	if err != nil {
		return text
	}
	r.lastIn, r.lastOut = text, out
	return out
}
