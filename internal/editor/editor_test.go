package editor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/repeater/internal/drill"
	"github.com/kpauljoseph/repeater/internal/editor"
	"github.com/kpauljoseph/repeater/internal/scheduler"
	"github.com/kpauljoseph/repeater/internal/parser"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/models"
	"github.com/kpauljoseph/repeater/pkg/utils"
)

type rename struct{ from, to string }

type fakeStore struct {
	existing  map[string]bool
	renames   []rename
	renameErr error
	calls     int
}

func (s *fakeStore) CardExists(_ context.Context, fingerprint string) (bool, error) {
	s.calls++
	return s.existing[fingerprint], nil
}

func (s *fakeStore) RenameFingerprint(_ context.Context, from, to string) error {
	s.calls++
	if s.renameErr != nil {
		return s.renameErr
	}
	s.renames = append(s.renames, rename{from, to})
	return nil
}

type recordingGrader struct {
	fingerprints []string
}

func (g *recordingGrader) UpdatePerformance(_ context.Context, fingerprint string, _ scheduler.Grade, _ time.Time) (float64, error) {
	g.fingerprints = append(g.fingerprints, fingerprint)
	return 3, nil
}

const deck = `# Deck
Q: What is 2+2?
A: 4

C: The sky is [blue].
---
Q: Capital of France?
A: Paris
`

var _ = Describe("Reconciler", func() {
	var (
		path       string
		store      *fakeStore
		reconciler *editor.Reconciler
		cards      []models.Card
		ctx        context.Context
	)

	readFile := func() string {
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		return string(data)
	}

	BeforeEach(func() {
		ctx = context.Background()
		path = filepath.Join(GinkgoT().TempDir(), "deck.md")
		Expect(os.WriteFile(path, []byte(deck), 0644)).To(Succeed())

		var err error
		cards, err = parser.ParseFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cards).To(HaveLen(3))
		Expect(cards[0].Range).To(Equal(models.LineRange{Start: 1, End: 4}))

		store = &fakeStore{existing: map[string]bool{}}
		reconciler = editor.NewReconciler(store, logger.New(logger.WithOutput(GinkgoWriter)))
	})

	It("never touches the store when the fingerprint is unchanged", func() {
		update, err := reconciler.Apply(ctx, cards[0], "Q: What is  2+2 ?\nA: 4")
		Expect(err).NotTo(HaveOccurred())
		Expect(store.calls).To(BeZero())

		Expect(update.Card.Fingerprint).To(Equal(cards[0].Fingerprint))
		Expect(update.OldFingerprint).To(Equal(cards[0].Fingerprint))
		Expect(update.OldRange).To(Equal(cards[0].Range))
		Expect(update.LineDelta).To(BeZero())
		Expect(readFile()).To(Equal(`# Deck
Q: What is  2+2 ?
A: 4

C: The sky is [blue].
---
Q: Capital of France?
A: Paris
`))
	})

	It("splices a rewritten card and moves its history", func() {
		update, err := reconciler.Apply(ctx, cards[0], "Q: What is 3+3?\nA: 6\nbecause 3 doubled is 6\n")
		Expect(err).NotTo(HaveOccurred())

		newFingerprint, err := utils.Fingerprint("Q: What is 3+3?\nA: 6\nbecause 3 doubled is 6")
		Expect(err).NotTo(HaveOccurred())
		Expect(store.renames).To(Equal([]rename{{cards[0].Fingerprint, newFingerprint}}))

		Expect(update.Card.Fingerprint).To(Equal(newFingerprint))
		Expect(update.OldFingerprint).To(Equal(cards[0].Fingerprint))
		Expect(update.Card.Range).To(Equal(models.LineRange{Start: 1, End: 5}))
		Expect(update.Card.Content).To(Equal(models.Basic{
			Question: "What is 3+3?",
			Answer:   "6\nbecause 3 doubled is 6",
		}))
		Expect(update.LineDelta).To(Equal(1))

		Expect(readFile()).To(Equal(`# Deck
Q: What is 3+3?
A: 6
because 3 doubled is 6

C: The sky is [blue].
---
Q: Capital of France?
A: Paris
`))

		reparsed, err := parser.ParseFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(reparsed[0].Range).To(Equal(update.Card.Range))
		Expect(reparsed[2].Range).To(Equal(cards[2].Range.Shift(update.LineDelta)))
	})

	It("leaves the file byte-identical when the edit duplicates another card", func() {
		duplicate := "Q: Capital of France?\nA: Paris"
		fingerprint, err := utils.Fingerprint(duplicate)
		Expect(err).NotTo(HaveOccurred())
		store.existing[fingerprint] = true

		_, err = reconciler.Apply(ctx, cards[0], duplicate)
		Expect(err).To(MatchError(editor.ErrDuplicateCard))
		Expect(readFile()).To(Equal(deck))
		Expect(store.renames).To(BeEmpty())
	})

	It("rejects text that is not a single card", func() {
		_, err := reconciler.Apply(ctx, cards[1], "just some notes")
		Expect(err).To(MatchError(parser.ErrInvalidCard))

		_, err = reconciler.Apply(ctx, cards[1], "C: one [card]\n---\nC: two [cards]")
		Expect(err).To(MatchError(parser.ErrInvalidCard))
		Expect(readFile()).To(Equal(deck))
	})

	It("finds a card that moved since it was loaded", func() {
		Expect(os.WriteFile(path, []byte("Intro line\n\n"+deck), 0644)).To(Succeed())

		update, err := reconciler.Apply(ctx, cards[1], "C: The sky is [azure].")
		Expect(err).NotTo(HaveOccurred())
		Expect(update.Card.Range).To(Equal(models.LineRange{Start: 6, End: 7}))
		Expect(update.OldRange).To(Equal(cards[1].Range.Shift(2)))
		Expect(readFile()).To(ContainSubstring("\nC: The sky is [azure].\n---\n"))
	})

	It("refuses to guess between copies of the same card", func() {
		Expect(os.WriteFile(path, []byte("C: The sky is [blue].\n---\n"+deck), 0644)).To(Succeed())

		_, err := reconciler.Apply(ctx, cards[1], "C: The sky is [azure].")
		Expect(err).To(MatchError(editor.ErrAmbiguousCard))
		Expect(store.renames).To(BeEmpty())
	})

	It("reports a card that was deleted from its file", func() {
		Expect(os.WriteFile(path, []byte("Q: Something else?\nA: Yes\n"), 0644)).To(Succeed())

		_, err := reconciler.Apply(ctx, cards[2], "Q: Capital of Italy?\nA: Rome")
		Expect(err).To(MatchError(editor.ErrCardNotFound))
	})

	It("restores the file when the history cannot be moved", func() {
		store.renameErr = errors.New("database is locked")

		_, err := reconciler.Apply(ctx, cards[2], "Q: Capital of Italy?\nA: Rome")
		Expect(err).To(MatchError(store.renameErr))
		Expect(readFile()).To(Equal(deck))
	})

	It("keeps a file without a trailing newline that way", func() {
		Expect(os.WriteFile(path, []byte("C: The sky is [blue]."), 0644)).To(Succeed())
		card, err := parser.ParseFile(path)
		Expect(err).NotTo(HaveOccurred())

		_, err = reconciler.Apply(ctx, card[0], "C: The sea is [green].\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(readFile()).To(Equal("C: The sea is [green]."))
	})

	It("keeps the file mode of the card file", func() {
		Expect(os.Chmod(path, 0600)).To(Succeed())

		_, err := reconciler.Apply(ctx, cards[2], "Q: Capital of Italy?\nA: Rome")
		Expect(err).NotTo(HaveOccurred())
		info, err := os.Stat(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))
	})

	It("updates the session card after the watcher moved it", func() {
		grader := &recordingGrader{}
		session := drill.New(cards, grader)

		Expect(os.WriteFile(path, []byte("Intro line\n\n"+deck), 0644)).To(Succeed())
		moved, err := parser.ParseFile(path)
		Expect(err).NotTo(HaveOccurred())
		session.Apply(drill.FileChanged{Path: path, Cards: moved})

		update, err := reconciler.Apply(ctx, cards[0], "Q: What is 3+3?\nA: 6\nbecause 3 doubled is 6")
		Expect(err).NotTo(HaveOccurred())
		Expect(update.OldRange).To(Equal(moved[0].Range))
		session.ApplyEdit(update.Card, update.OldFingerprint, update.OldRange, update.LineDelta)

		reparsed, err := parser.ParseFile(path)
		Expect(err).NotTo(HaveOccurred())
		queue := session.Queue()
		Expect(queue).To(HaveLen(3))
		for i := range queue {
			Expect(queue[i].Fingerprint).To(Equal(reparsed[i].Fingerprint))
			Expect(queue[i].Range).To(Equal(reparsed[i].Range))
		}

		Expect(session.Reveal()).To(Succeed())
		_, err = session.Grade(ctx, scheduler.Pass)
		Expect(err).NotTo(HaveOccurred())
		Expect(grader.fingerprints).To(Equal([]string{update.Card.Fingerprint}))
		Expect(store.renames).To(Equal([]rename{{cards[0].Fingerprint, update.Card.Fingerprint}}))
	})
})
