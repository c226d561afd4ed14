package scanner_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/repeater/internal/scanner"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/models"
)

type recordingRegistrar struct {
	batches [][]models.Card
	err     error
}

func (r *recordingRegistrar) AddCardsBatch(_ context.Context, cards []models.Card) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, cards)
	return nil
}

func writeFile(path, content string) {
	Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
	Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
}

var _ = Describe("Scanner", func() {
	var (
		testDir    string
		testLogger *logger.Logger
		ctx        context.Context
	)

	BeforeEach(func() {
		var err error
		testDir, err = os.MkdirTemp("", "scanner-test-*")
		Expect(err).NotTo(HaveOccurred())

		testLogger = logger.New(logger.WithOutput(GinkgoWriter), logger.WithPrefix("[test] "), logger.WithFlags(0))
		ctx = context.Background()
	})

	AfterEach(func() {
		os.RemoveAll(testDir)
	})

	Context("when scanning an empty directory", func() {
		It("should return an error", func() {
			s := scanner.New(testLogger)
			_, err := s.FindMarkdown(ctx, testDir)
			Expect(err).To(MatchError(scanner.ErrNoCardFiles))
		})
	})

	Context("when scanning a directory with markdown files", func() {
		BeforeEach(func() {
			for i := 1; i <= 3; i++ {
				writeFile(filepath.Join(testDir, fmt.Sprintf("deck%d.md", i)), fmt.Sprintf("Q: question %d\nA: answer %d\n", i, i))
			}
			writeFile(filepath.Join(testDir, "notes.txt"), "Q: not a card\nA: ignored\n")
			writeFile(filepath.Join(testDir, "nested", "deep", "more.md"), "C: The [sun] is a star.\n---\nC: Water boils at [100] degrees.\n")
			writeFile(filepath.Join(testDir, ".git", "README.md"), "Q: hidden\nA: hidden\n")
		})

		It("should find only markdown files, nested ones included", func() {
			s := scanner.New(testLogger)
			files, err := s.FindMarkdown(ctx, testDir)

			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(HaveLen(4))
			for _, f := range files {
				Expect(f).To(HaveSuffix(".md"))
				Expect(f).NotTo(ContainSubstring(".git"))
			}
		})

		It("should accept a single file path", func() {
			s := scanner.New(testLogger)
			path := filepath.Join(testDir, "deck1.md")
			files, err := s.FindMarkdown(ctx, path, path)
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(Equal([]string{path}))
		})

		It("should ingest and register every card", func() {
			s := scanner.New(testLogger)
			registrar := &recordingRegistrar{}
			cards, stats, err := s.Ingest(ctx, registrar, testDir)

			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(Equal(scanner.Stats{FileCount: 4, CardCount: 5}))
			Expect(cards).To(HaveLen(5))
			Expect(registrar.batches).To(HaveLen(4))
			for fingerprint, card := range cards {
				Expect(card.Fingerprint).To(Equal(fingerprint))
			}
		})

		It("should keep the first copy of a duplicated card", func() {
			writeFile(filepath.Join(testDir, "zz_copy.md"), "Q: question 1\nA: answer 1\n")
			s := scanner.New(testLogger)
			cards, stats, err := s.Ingest(ctx, &recordingRegistrar{}, testDir)

			Expect(err).NotTo(HaveOccurred())
			Expect(stats.CardCount).To(Equal(5))
			for _, card := range cards {
				Expect(card.Path).NotTo(HaveSuffix("zz_copy.md"))
			}
		})

		It("should stop when registration fails", func() {
			s := scanner.New(testLogger)
			boom := errors.New("boom")
			_, _, err := s.Ingest(ctx, &recordingRegistrar{err: boom}, testDir)
			Expect(err).To(MatchError(boom))
		})

		It("should report malformed card files", func() {
			writeFile(filepath.Join(testDir, "broken.md"), "Q: no answer here\n")
			s := scanner.New(testLogger)
			_, _, err := s.Ingest(ctx, &recordingRegistrar{}, testDir)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("broken.md"))
		})
	})

	Context("when the context is cancelled", func() {
		It("should stop walking", func() {
			writeFile(filepath.Join(testDir, "deck.md"), "Q: q\nA: a\n")
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			s := scanner.New(testLogger)
			_, err := s.FindMarkdown(cancelled, testDir)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
