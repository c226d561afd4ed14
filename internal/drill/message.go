package drill

import (
	"context"

	"github.com/kpauljoseph/repeater/pkg/models"
)

// Message is sent by background producers to the session that owns the
// queue. Messages are applied on the session's goroutine only.
type Message interface {
	isMessage()
}

// EnrichmentResult carries the enriched card for Fingerprint, or the error
// that stopped it from being enriched.
type EnrichmentResult struct {
	Fingerprint string
	Card        models.Card
	Err         error
}

// PipelineDone reports that the enrichment pipeline has finished. A non-nil
// Err ends the session.
type PipelineDone struct {
	Err error
}

// FileChanged carries a fresh parse of a card file that changed on disk.
type FileChanged struct {
	Path  string
	Cards []models.Card
}

func (EnrichmentResult) isMessage() {}
func (PipelineDone) isMessage()     {}
func (FileChanged) isMessage()      {}

const inboxSize = 64

func NewInbox() chan Message {
	return make(chan Message, inboxSize)
}

// Send delivers msg unless ctx ends first.
func Send(ctx context.Context, inbox chan<- Message, msg Message) error {
	select {
	case inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
