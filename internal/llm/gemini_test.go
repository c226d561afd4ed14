package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/repeater/internal/enrich"
	"github.com/kpauljoseph/repeater/internal/llm"
	"github.com/kpauljoseph/repeater/pkg/logger"
)

var _ = Describe("GeminiClient", func() {
	var (
		server   *httptest.Server
		requests atomic.Int32
		handler  http.HandlerFunc
		ctx      context.Context
	)

	newClient := func(url string) *llm.GeminiClient {
		client, err := llm.NewGeminiClient(ctx, "test-key", "test-model",
			llm.WithGeminiBaseURL(url),
			llm.WithGeminiLogger(logger.New(logger.WithOutput(GinkgoWriter))))
		Expect(err).NotTo(HaveOccurred())
		client.SetRetryDelay(time.Millisecond)
		return client
	}

	reply := func(w http.ResponseWriter, text string) {
		w.Header().Set("Content-Type", "application/json")
		Expect(json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": text}},
				},
			}},
		})).To(Succeed())
	}

	fail := func(w http.ResponseWriter, code int, status string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		Expect(json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": code, "message": "request failed", "status": status},
		})).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		requests.Store(0)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			handler(w, r)
		}))
		DeferCleanup(server.Close)
	})

	It("returns the trimmed model text", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(HaveSuffix("models/test-model:generateContent"))
			reply(w, "  The sky is [blue]. \n")
		}

		text, err := newClient(server.URL).Complete(ctx, "add a cloze", "The sky is blue.")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("The sky is [blue]."))
	})

	It("retries an overloaded service before giving up", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			if requests.Load() < 3 {
				fail(w, http.StatusServiceUnavailable, "UNAVAILABLE")
				return
			}
			reply(w, "ok")
		}

		text, err := newClient(server.URL).Complete(ctx, "s", "u")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("ok"))
		Expect(requests.Load()).To(BeNumerically(">=", 3))
	})

	It("reports the provider unavailable once the retries run out", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			fail(w, http.StatusTooManyRequests, "RESOURCE_EXHAUSTED")
		}

		_, err := newClient(server.URL).Complete(ctx, "s", "u")
		Expect(err).To(MatchError(enrich.ErrProviderUnavailable))
		Expect(requests.Load()).To(BeNumerically(">=", llm.MaxRetries))
	})

	It("retries connection failures", func() {
		closed := httptest.NewServer(http.NotFoundHandler())
		url := closed.URL
		closed.Close()

		_, err := newClient(url).Complete(ctx, "s", "u")
		Expect(err).To(MatchError(enrich.ErrProviderUnavailable))
		Expect(err.Error()).To(ContainSubstring("after 3 attempts"))
	})

	It("does not retry a rejected key", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			fail(w, http.StatusForbidden, "PERMISSION_DENIED")
		}

		_, err := newClient(server.URL).Complete(ctx, "s", "u")
		Expect(err).To(MatchError(enrich.ErrProviderUnavailable))
		Expect(requests.Load()).To(Equal(int32(1)))
	})

	It("treats a bad request as a failure of this card only", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			fail(w, http.StatusBadRequest, "INVALID_ARGUMENT")
		}

		_, err := newClient(server.URL).Complete(ctx, "s", "u")
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(enrich.ErrProviderUnavailable))
		Expect(requests.Load()).To(Equal(int32(1)))
	})

	It("rejects a blank answer", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			reply(w, strings.Repeat(" ", 3))
		}

		_, err := newClient(server.URL).Complete(ctx, "s", "u")
		Expect(err).To(MatchError(llm.ErrEmptyResponse))
	})
})
