package llm_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/repeater/internal/enrich"
	"github.com/kpauljoseph/repeater/internal/llm"
	"github.com/kpauljoseph/repeater/pkg/models"
)

type fakeClient struct {
	output string
	err    error
	system string
	user   string
}

func (c *fakeClient) Complete(_ context.Context, system, user string) (string, error) {
	c.system = system
	c.user = user
	return c.output, c.err
}

var _ enrich.Provider = (*llm.Enricher)(nil)

var _ = Describe("Enricher", func() {
	var (
		client   *fakeClient
		enricher *llm.Enricher
		ctx      context.Context
	)

	BeforeEach(func() {
		client = &fakeClient{}
		enricher = llm.NewEnricher(client)
		ctx = context.Background()
	})

	Context("cloze deletions", func() {
		card := models.Card{
			Path:        "deck.md",
			Range:       models.LineRange{Start: 3, End: 4},
			Content:     models.Cloze{Text: "Speech is produced in Broca's area."},
			Fingerprint: "abc",
			Enrichment:  models.NeedsCloze,
		}

		It("adopts the bracketed text returned by the model", func() {
			client.output = "C: Speech is produced in [Broca's] area."

			enriched, err := enricher.Enrich(ctx, card)
			Expect(err).NotTo(HaveOccurred())
			Expect(client.user).To(HaveSuffix("C: Speech is produced in Broca's area."))

			cloze := enriched.Content.(models.Cloze)
			Expect(cloze.Text).To(Equal("Speech is produced in [Broca's] area."))
			Expect(cloze.Hidden).To(Equal(&models.ClozeRange{Start: 22, End: 31}))
			Expect(enriched.Enrichment).To(Equal(models.Enriched))
			Expect(enriched.Range).To(Equal(card.Range))
			Expect(enriched.Fingerprint).To(Equal("abc"))
		})

		It("fails the card when the model adds no brackets", func() {
			client.output = "Speech is produced in Broca's area."

			_, err := enricher.Enrich(ctx, card)
			Expect(err).To(MatchError(llm.ErrNoClozeDeletion))
		})

		It("passes provider errors through", func() {
			client.err = enrich.ErrProviderUnavailable

			_, err := enricher.Enrich(ctx, card)
			Expect(errors.Is(err, enrich.ErrProviderUnavailable)).To(BeTrue())
		})
	})

	Context("question rephrasing", func() {
		card := models.Card{
			Path:       "deck.md",
			Content:    models.Basic{Question: "Capital of France?", Answer: "Paris"},
			Enrichment: models.NeedsRephrase,
		}

		It("replaces only the question", func() {
			client.output = "Question: Which city is the capital of France?"

			enriched, err := enricher.Enrich(ctx, card)
			Expect(err).NotTo(HaveOccurred())
			Expect(client.user).To(ContainSubstring("Question: Capital of France?"))
			Expect(client.user).To(ContainSubstring("Answer (for context; do not reveal): Paris"))
			Expect(enriched.Content).To(Equal(models.Basic{
				Question: "Which city is the capital of France?",
				Answer:   "Paris",
			}))
			Expect(enriched.Enrichment).To(Equal(models.Enriched))
		})

		It("rejects an empty rewrite", func() {
			client.output = "Q:"

			_, err := enricher.Enrich(ctx, card)
			Expect(err).To(MatchError(llm.ErrEmptyResponse))
		})
	})

	It("leaves cards that need nothing untouched", func() {
		card := models.Card{Content: models.Basic{Question: "q", Answer: "a"}}

		enriched, err := enricher.Enrich(ctx, card)
		Expect(err).NotTo(HaveOccurred())
		Expect(enriched).To(Equal(card))
		Expect(client.user).To(BeEmpty())
	})
})
