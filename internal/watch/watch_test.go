package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/goleak"

	"github.com/kpauljoseph/repeater/internal/drill"
	"github.com/kpauljoseph/repeater/internal/watch"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/models"
)

var _ = Describe("Watcher", func() {
	var (
		dir    string
		path   string
		inbox  chan drill.Message
		cancel context.CancelFunc
		done   chan error
	)

	BeforeEach(func() {
		ignore := goleak.IgnoreCurrent()
		DeferCleanup(func() {
			goleak.VerifyNone(GinkgoT(), ignore)
		})

		dir = GinkgoT().TempDir()
		path = filepath.Join(dir, "deck.md")
		Expect(os.WriteFile(path, []byte("C: The sky is [blue].\n"), 0644)).To(Succeed())

		inbox = drill.NewInbox()
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)

		w := watch.New([]string{path},
			watch.WithDebounce(10*time.Millisecond),
			watch.WithLogger(logger.New(logger.WithOutput(GinkgoWriter))))
		go func() {
			done <- w.Run(ctx, inbox)
		}()

		DeferCleanup(func() {
			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})
	})

	// writeUntilReported keeps rewriting the file until the watcher, which
	// starts asynchronously, reports it.
	writeUntilReported := func(target, content string) drill.FileChanged {
		var change drill.FileChanged
		Eventually(func() bool {
			Expect(os.WriteFile(target, []byte(content), 0644)).To(Succeed())
			select {
			case msg := <-inbox:
				change = msg.(drill.FileChanged)
				return true
			case <-time.After(100 * time.Millisecond):
				return false
			}
		}).WithTimeout(5 * time.Second).Should(BeTrue())
		return change
	}

	It("reports the parsed cards of a changed file", func() {
		change := writeUntilReported(path, "Intro\n\nC: The sky is [blue].\n")

		Expect(change.Path).To(Equal(path))
		Expect(change.Cards).To(HaveLen(1))
		Expect(change.Cards[0].Range).To(Equal(models.LineRange{Start: 2, End: 3}))
	})

	It("ignores files that hold no queued cards", func() {
		other := filepath.Join(dir, "other.md")
		for i := 0; i < 5; i++ {
			Expect(os.WriteFile(other, []byte("C: [x] marks the spot\n"), 0644)).To(Succeed())
		}
		Consistently(inbox, 200*time.Millisecond).ShouldNot(Receive())
	})

	It("skips a change that leaves the file unparseable", func() {
		Expect(os.WriteFile(path, []byte("Q: half written\n"), 0644)).To(Succeed())
		Consistently(inbox, 200*time.Millisecond).ShouldNot(Receive())
	})

	It("stops when its context is cancelled", func() {
		cancel()
		Eventually(done).Should(Receive(BeNil()))
		done <- nil
	})
})
