package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// Blob is encoded image data with an optional MIME type
type Blob struct {
	Data        []byte
	ContentType string
}

// Loader turns image-like inputs into surfaces
type Loader struct {
	client *http.Client
}

// NewLoader creates a Loader that fetches remote locators with client.
// A nil client gets a default one with a 30 second timeout.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{client: client}
}

var defaultLoader = NewLoader(nil)

// Prepare normalizes input with the default loader
func Prepare(ctx context.Context, input any) (*Surface, error) {
	return defaultLoader.Prepare(ctx, input)
}

// Prepare accepts a *Surface, an image.Image, a Blob, raw bytes, or a string
// locator (file path, file:// or http(s):// URL) and returns a surface with the
// natural pixel dimensions of the source.
func (l *Loader) Prepare(ctx context.Context, input any) (*Surface, error) {
	switch v := input.(type) {
	case nil:
		return nil, ErrNoImage
	case *Surface:
		if v == nil {
			return nil, ErrNoImage
		}
		return v, nil
	case Blob:
		return Decode(v.Data, v.ContentType)
	case *Blob:
		if v == nil {
			return nil, ErrNoImage
		}
		return Decode(v.Data, v.ContentType)
	case []byte:
		return Decode(v, "")
	case string:
		return l.open(ctx, v)
	case image.Image:
		return FromImage(v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, input)
	}
}

func (l *Loader) open(ctx context.Context, locator string) (*Surface, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, ErrNoImage
	}
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return l.fetch(ctx, locator)
	}
	data, err := os.ReadFile(strings.TrimPrefix(locator, "file://"))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrDecode, locator, err)
	}
	return Decode(data, "")
}

func (l *Loader) fetch(ctx context.Context, url string) (*Surface, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrDecode, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: status %d", ErrDecode, url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrDecode, url, err)
	}
	return Decode(data, resp.Header.Get("Content-Type"))
}

// Decode turns encoded image data into a surface.
// PDFs render their first page; HEIC/HEIF go through a pure Go decoder;
// everything else is decoded with EXIF orientation applied.
func Decode(data []byte, contentType string) (*Surface, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	var (
		img image.Image
		err error
	)
	switch {
	case isPDF(data, mimeType):
		img, err = renderPDF(data)
	case isHEICFormat(data) || isHEICMimeType(mimeType):
		img, err = heic.Decode(bytes.NewReader(data))
	default:
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return FromImage(img)
}

// renderPDF renders the first page; the document handle is closed before returning
func renderPDF(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

func isPDF(data []byte, mimeType string) bool {
	return mimeType == "application/pdf" || bytes.HasPrefix(data, []byte("%PDF-"))
}

// isHEICFormat looks for an ftyp box with a HEIC/HEIF brand
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
