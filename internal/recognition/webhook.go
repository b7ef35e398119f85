package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Webhook implements the Recognizer interface by posting the region to a
// remote workflow that answers with a Vision-style annotation document
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a new Webhook Recognizer
func NewWebhook(url string, client *http.Client) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Webhook{url: url, client: client}, nil
}

// Name returns "webhook"
func (w *Webhook) Name() string {
	return "webhook"
}

type annotationResponse struct {
	Responses []struct {
		FullTextAnnotation *struct {
			Text  string `json:"text"`
			Pages []struct {
				Confidence *float64 `json:"confidence"`
				Blocks     []struct {
					Paragraphs []struct {
						Words []struct {
							Confidence float64 `json:"confidence"`
							Symbols    []struct {
								Text string `json:"text"`
							} `json:"symbols"`
						} `json:"words"`
					} `json:"paragraphs"`
				} `json:"blocks"`
			} `json:"pages"`
		} `json:"fullTextAnnotation"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error,omitempty"`
	} `json:"responses"`
}

// Recognize posts the region as multipart field "data" and reads
// responses[0].fullTextAnnotation. Page-segmentation and language settings
// belong to the remote workflow and are not sent.
func (w *Webhook) Recognize(ctx context.Context, req Request) (*Output, error) {
	data, err := req.Image.PNG()
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("data", "region.png")
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("webhook error %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var annotated annotationResponse
	if err := json.NewDecoder(resp.Body).Decode(&annotated); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	out := &Output{Scale: ScaleUnit}
	if len(annotated.Responses) == 0 {
		return out, nil
	}
	first := annotated.Responses[0]
	if first.Error != nil {
		return nil, fmt.Errorf("webhook annotation error %d: %s", first.Error.Code, first.Error.Message)
	}
	if first.FullTextAnnotation == nil {
		return out, nil
	}

	out.Text = first.FullTextAnnotation.Text
	var pageSum float64
	var pages int
	for _, page := range first.FullTextAnnotation.Pages {
		if page.Confidence != nil {
			pageSum += *page.Confidence
			pages++
		}
		for _, block := range page.Blocks {
			for _, para := range block.Paragraphs {
				for _, word := range para.Words {
					var sb strings.Builder
					for _, sym := range word.Symbols {
						sb.WriteString(sym.Text)
					}
					out.Words = append(out.Words, Word{Text: sb.String(), Confidence: word.Confidence})
				}
			}
		}
	}
	if pages > 0 {
		mean := pageSum / float64(pages)
		out.Confidence = &mean
	}
	return out, nil
}

// Close is a no-op for the HTTP client
func (w *Webhook) Close() error {
	return nil
}
