package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zombor/receipt-extract/internal/fields"
	"github.com/zombor/receipt-extract/internal/raster"
	"github.com/zombor/receipt-extract/internal/reconcile"
)

// maxUploadSize bounds multipart uploads; phone photos can be large
const maxUploadSize = int64(50 << 20)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var gateErr *reconcile.GateError
	switch {
	case errors.As(err, &gateErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, raster.ErrNoImage),
		errors.Is(err, raster.ErrDecode),
		errors.Is(err, raster.ErrUnsupported),
		errors.Is(err, fields.ErrUnknownTemplate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// contentTypeFor guesses a MIME type from the file extension
func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// parseGate reads the optional gate form values
func parseGate(r *http.Request) (reconcile.Gate, error) {
	var gate reconcile.Gate
	for _, name := range strings.Split(r.FormValue("gate"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			gate.Fields = append(gate.Fields, name)
		}
	}
	if raw := strings.TrimSpace(r.FormValue("min_confidence")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			return gate, errors.New("min_confidence must be a number between 0 and 1")
		}
		gate.MinConfidence = v
	}
	return gate, nil
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtract recognizes an uploaded receipt and reads its fields
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		writeError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		writeError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	gate, err := parseGate(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFor(header.Filename)
	}

	ex, err := s.service.Extract(r.Context(), Request{
		Filename:    header.Filename,
		Data:        data,
		ContentType: contentType,
		Template:    strings.TrimSpace(r.FormValue("template")),
		Gate:        gate,
	})
	if err != nil {
		code := statusFor(err)
		if code == http.StatusUnprocessableEntity {
			var gateErr *reconcile.GateError
			errors.As(err, &gateErr)
			writeJSON(w, code, map[string]any{
				"error":      err.Error(),
				"failures":   gateErr.Failures,
				"extraction": ex,
			})
			return
		}
		slog.Error("Error extracting receipt", "filename", header.Filename, "error", err)
		writeError(w, err.Error(), code)
		return
	}

	writeJSON(w, http.StatusOK, ex)
}

// handleParse reads fields from text recognized elsewhere
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string `json:"text"`
		Template string `json:"template"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, "text is required", http.StatusBadRequest)
		return
	}

	rec, err := s.service.ParseText(req.Text, req.Template)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleListTemplates lists the registered templates
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Templates())
}
