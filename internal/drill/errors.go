package drill

import "errors"

var (
	ErrAwaitingEnrichment = errors.New("card is still being enriched")
	ErrNotRevealed        = errors.New("reveal the card before grading it")
	ErrComplete           = errors.New("drill session is complete")
)
