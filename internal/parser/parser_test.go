package parser_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/repeater/internal/parser"
	"github.com/kpauljoseph/repeater/pkg/models"
	"github.com/kpauljoseph/repeater/pkg/utils"
)

const deck = `# Geography

Q: What is the capital of France?
A: Paris

---

C:
Region: [us-east-2]

Location: [Ohio]

---
Q: Multi
line question?
A: First

Second
C: The sky is blue.
`

var _ = Describe("Parser", func() {
	Context("when parsing a deck", func() {
		var cards []models.Card

		BeforeEach(func() {
			var err error
			cards, err = parser.ParseLines("deck.md", parser.SplitLines(deck))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should find every card", func() {
			Expect(cards).To(HaveLen(4))
		})

		It("should record half-open line ranges without the separator", func() {
			Expect(cards[0].Range).To(Equal(models.LineRange{Start: 2, End: 5}))
			Expect(cards[1].Range).To(Equal(models.LineRange{Start: 7, End: 12}))
			Expect(cards[2].Range).To(Equal(models.LineRange{Start: 13, End: 18}))
			Expect(cards[3].Range).To(Equal(models.LineRange{Start: 18, End: 19}))
		})

		It("should parse basic cards", func() {
			Expect(cards[0].Content).To(Equal(models.Basic{Question: "What is the capital of France?", Answer: "Paris"}))
			Expect(cards[2].Content).To(Equal(models.Basic{Question: "Multi\nline question?", Answer: "First\n\nSecond"}))
		})

		It("should parse cloze cards and their first deletion", func() {
			cloze, ok := cards[1].Content.(models.Cloze)
			Expect(ok).To(BeTrue())
			Expect(cloze.Text).To(Equal("Region: [us-east-2]\n\nLocation: [Ohio]"))
			Expect(cloze.Hidden).To(Equal(&models.ClozeRange{Start: 8, End: 19}))
		})

		It("should leave clozes without brackets incomplete", func() {
			Expect(cards[3].Incomplete()).To(BeTrue())
		})

		It("should fingerprint each block", func() {
			want, err := utils.Fingerprint("Q: What is the capital of France?\nA: Paris\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(cards[0].Fingerprint).To(Equal(want))
			Expect(cards[0].Path).To(Equal("deck.md"))
		})
	})

	Context("when a card is malformed", func() {
		It("should fail on a question without an answer", func() {
			_, err := parser.ParseLines("bad.md", []string{"Q: lonely question", "---"})
			Expect(err).To(MatchError(parser.ErrInvalidCard))
			Expect(err.Error()).To(ContainSubstring("bad.md:1"))
		})

		It("should fail on an empty cloze deletion", func() {
			_, err := parser.ParseLines("bad.md", []string{"C: nothing [] here"})
			Expect(err).To(MatchError(parser.ErrInvalidCard))
		})
	})

	Context("when parsing edited text", func() {
		It("should accept a single card", func() {
			card, err := parser.ParseCard("deck.md", "Q: new question\nA: new answer", models.LineRange{Start: 4, End: 6})
			Expect(err).NotTo(HaveOccurred())
			Expect(card.Range).To(Equal(models.LineRange{Start: 4, End: 6}))
			Expect(card.Content).To(Equal(models.Basic{Question: "new question", Answer: "new answer"}))
		})

		It("should reject text that is not a card", func() {
			_, err := parser.ParseCard("deck.md", "just some notes", models.LineRange{})
			Expect(err).To(MatchError(parser.ErrInvalidCard))

			_, err = parser.ParseCard("deck.md", "", models.LineRange{})
			Expect(err).To(MatchError(parser.ErrInvalidCard))
		})

		It("should reject text holding two cards", func() {
			_, err := parser.ParseCard("deck.md", "Q: one\nA: 1\nQ: two\nA: 2", models.LineRange{})
			Expect(err).To(MatchError(parser.ErrInvalidCard))
		})

		It("should keep the fingerprint of a formatting-only edit", func() {
			before, err := parser.ParseCard("deck.md", "Q: What is 2+2?\nA: 4", models.LineRange{})
			Expect(err).NotTo(HaveOccurred())
			after, err := parser.ParseCard("deck.md", "Q:   what is 2+2\nA:   4!", models.LineRange{})
			Expect(err).NotTo(HaveOccurred())
			Expect(after.Fingerprint).To(Equal(before.Fingerprint))
		})
	})

	Context("when reading files", func() {
		It("should parse a file from disk", func() {
			path := filepath.Join(GinkgoT().TempDir(), "cards.md")
			Expect(os.WriteFile(path, []byte(deck), 0644)).To(Succeed())

			cards, err := parser.ParseFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cards).To(HaveLen(4))
			Expect(cards[0].Path).To(Equal(path))
		})

		It("should recognise markdown files", func() {
			Expect(parser.IsMarkdown("notes/Deck.MD")).To(BeTrue())
			Expect(parser.IsMarkdown("notes/deck.txt")).To(BeFalse())
		})
	})
})
