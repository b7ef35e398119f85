package recognition

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server *ghttp.Server
		ollama *Ollama
		out    *Output
		err    error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		ollama = NewOllama(server.URL(), "llava")
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		out, err = ollama.Recognize(context.Background(), Request{Image: blankSurface(4, 4), Languages: "eng+spa"})
	})

	When("the model answers with a transcription", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"message": map[string]any{
						"role":    "assistant",
						"content": "```json\n{\"text\": \"Sender\\nJUAN PEREZ\", \"confidence\": 0.8}\n```",
					},
					"done": true,
				}),
			))
		})

		It("should parse the transcription", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Text).To(Equal("Sender\nJUAN PEREZ"))
			Expect(*out.Confidence).To(BeNumerically("~", 0.8, 1e-9))
		})
	})

	When("the API returns an error", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("should return an error", func() {
			Expect(err).To(MatchError(ContainSubstring("status 500")))
		})
	})
})

var _ = Describe("parseTranscript", func() {
	It("should read a percent confidence", func() {
		out, err := parseTranscript(`{"text": "hola", "confidence": 91}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Scale).To(Equal(ScalePercent))
		Expect(MeanConfidence(out)).To(BeNumerically("~", 0.91, 1e-9))
	})

	It("should leave a missing confidence unset", func() {
		out, err := parseTranscript(`Here you go: {"text": ""}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Confidence).To(BeNil())
	})

	It("should reject replies without JSON", func() {
		_, err := parseTranscript("I cannot read this image")
		Expect(err).To(MatchError("no JSON object found in response"))
	})
})

var _ = Describe("promptFor", func() {
	It("should spell out known languages", func() {
		Expect(promptFor(Request{Languages: "eng+spa+deu"})).To(ContainSubstring("Expected languages: English, Spanish, deu"))
	})
})
