package models_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/repeater/pkg/models"
)

var _ = Describe("Flashcard Models", func() {
	Context("ClozeRange", func() {
		It("finds bracketed spans in order", func() {
			Expect(models.FindClozeRanges("[a] b [cd]")).To(Equal([]models.ClozeRange{
				{Start: 0, End: 3},
				{Start: 6, End: 10},
			}))
		})

		It("measures multi-byte text in bytes", func() {
			r, err := models.FirstClozeRange("é [ü]")
			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(Equal(&models.ClozeRange{Start: 3, End: 7}))
		})

		It("returns nil when there is no deletion", func() {
			r, err := models.FirstClozeRange("no brackets here")
			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(BeNil())
		})

		It("rejects an empty deletion", func() {
			_, err := models.FirstClozeRange("an empty [] deletion")
			Expect(err).To(HaveOccurred())
		})
	})

	Context("Cloze", func() {
		It("masks the hidden text with at least three underscores", func() {
			card := models.Cloze{Text: "The sky is [blue].", Hidden: &models.ClozeRange{Start: 11, End: 17}}
			Expect(card.Masked()).To(Equal("The sky is [____]."))

			short := models.Cloze{Text: "Pi is [3].", Hidden: &models.ClozeRange{Start: 6, End: 9}}
			Expect(short.Masked()).To(Equal("Pi is [___]."))
		})

		It("leaves text with a bad range alone", func() {
			card := models.Cloze{Text: "short", Hidden: &models.ClozeRange{Start: 2, End: 40}}
			Expect(card.Masked()).To(Equal("short"))
		})
	})

	Context("Card", func() {
		basic := models.Card{Content: models.Basic{Question: "Two lines\nof question", Answer: "An answer"}}
		cloze := models.Card{Content: models.Cloze{Text: "The sky is blue."}}

		It("renders cards back into source form", func() {
			Expect(basic.EditText()).To(Equal("Q: Two lines\nof question\nA: An answer"))
			Expect(cloze.EditText()).To(Equal("C: The sky is blue."))
		})

		It("hides the answer until revealed", func() {
			Expect(basic.DisplayText(false)).NotTo(ContainSubstring("An answer"))
			Expect(basic.DisplayText(true)).To(HaveSuffix("An answer"))
		})

		It("knows which clozes still need a deletion", func() {
			Expect(cloze.IsCloze()).To(BeTrue())
			Expect(cloze.Incomplete()).To(BeTrue())
			Expect(basic.Incomplete()).To(BeFalse())
		})

		It("compares cards by fingerprint", func() {
			a := models.Card{Fingerprint: "abc", Path: "a.md"}
			b := models.Card{Fingerprint: "abc", Path: "b.md"}
			Expect(models.SameCard(a, b)).To(BeTrue())
			Expect(models.SameCard(models.Card{}, models.Card{})).To(BeFalse())
		})
	})

	Context("LineRange", func() {
		It("shifts both ends", func() {
			r := models.LineRange{Start: 2, End: 5}
			Expect(r.Shift(3)).To(Equal(models.LineRange{Start: 5, End: 8}))
			Expect(r.Len()).To(Equal(3))
		})
	})

	Context("EnrichmentStatus", func() {
		It("is pending only while enrichment is outstanding", func() {
			Expect(models.NeedsCloze.Pending()).To(BeTrue())
			Expect(models.NeedsRephrase.Pending()).To(BeTrue())
			Expect(models.Enriched.Pending()).To(BeFalse())
			Expect(models.EnrichmentFailed.Pending()).To(BeFalse())
		})
	})
})
