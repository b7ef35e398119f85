package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-extract/internal/fields"
	"github.com/zombor/receipt-extract/internal/pipeline"
	"github.com/zombor/receipt-extract/internal/receipt"
	"github.com/zombor/receipt-extract/internal/recognition"
	"github.com/zombor/receipt-extract/internal/recognition/tesseract"
	"github.com/zombor/receipt-extract/internal/reconcile"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env file is fine
	_ = godotenv.Load()

	fs := ff.NewFlagSet("receipt-extract")
	var (
		port            = fs.IntLong("port", 8080, "HTTP server port")
		backend         = fs.StringLong("backend", "tesseract", "Recognition backend: tesseract, webhook, gemini or ollama")
		tessdata        = fs.StringLong("tessdata", "", "Tesseract tessdata directory (optional)")
		languages       = fs.StringLong("languages", recognition.DefaultLanguages, "Recognition languages joined with +")
		webhookURL      = fs.StringLong("webhook-url", "", "Remote OCR webhook URL")
		geminiKey       = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = fs.StringLong("gemini-model", recognition.DefaultGeminiModel, "Google Gemini model name")
		ollamaURL       = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel     = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		cachePath       = fs.StringLong("cache", "", "Recognition cache database path (optional)")
		cropDir         = fs.StringLong("crops", "", "Directory for exported band crops (optional)")
		noFallback      = fs.BoolLong("no-fallback", "Disable the full-page pass for short bands")
		continueOnError = fs.BoolLong("continue-on-error", "Keep going when a band fails and mark the result partial")
		template        = fs.StringLong("template", "", "Field template for file arguments (empty detects it)")
		gateFields      = fs.StringLong("gate", "", "Comma separated fields that must pass the confidence gate")
		minConfidence   = fs.Float64Long("min-confidence", 0.8, "Minimum confidence for gated fields")
		authUser        = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel        = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		logFormat       = fs.StringLong("log-format", "text", "Log format: text or json")
		_               = fs.StringLong("config", "", "Config file with one 'flag value' per line (optional)")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_EXTRACT"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logger, err := newLogger(*logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize recognizer based on backend
	var recognizer recognition.Recognizer
	switch *backend {
	case "tesseract":
		slog.Info("Initializing Tesseract recognizer...", "tessdata", *tessdata, "languages", *languages)
		recognizer = tesseract.New(*tessdata)
	case "webhook":
		slog.Info("Initializing webhook recognizer...", "url", *webhookURL)
		recognizer, err = recognition.NewWebhook(*webhookURL, nil)
		if err != nil {
			slog.Error("Failed to initialize webhook", "error", err)
			os.Exit(1)
		}
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini recognizer...", "model", *geminiModel)
		recognizer, err = recognition.NewGemini(ctx, apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama recognizer...", "url", *ollamaURL, "model", *ollamaModel)
		recognizer = recognition.NewOllama(*ollamaURL, *ollamaModel)
	default:
		slog.Error("Invalid backend", "backend", *backend, "valid", "tesseract, webhook, gemini or ollama")
		os.Exit(1)
	}

	if *cachePath != "" {
		slog.Info("Initializing recognition cache...", "path", *cachePath)
		store, err := recognition.NewBoltStore(*cachePath)
		if err != nil {
			slog.Error("Failed to initialize cache", "error", err)
			os.Exit(1)
		}
		recognizer = recognition.NewCache(recognizer, store)
	}
	defer recognizer.Close()

	opts := pipeline.DefaultOptions()
	opts.Languages = *languages
	opts.Fallback = !*noFallback
	opts.ContinueOnBandError = *continueOnError
	if *cropDir != "" {
		crops, err := pipeline.NewDirCropSink(*cropDir)
		if err != nil {
			slog.Error("Failed to initialize crop directory", "error", err)
			os.Exit(1)
		}
		opts.Crops = crops
	}

	service := receipt.NewService(pipeline.New(recognizer, opts, slog.Default()), fields.DefaultRegistry())

	if files := fs.GetArgs(); len(files) > 0 {
		gate := reconcile.Gate{MinConfidence: *minConfidence, Fields: splitList(*gateFields)}
		code := extractFiles(ctx, service, files, *template, gate)
		recognizer.Close()
		os.Exit(code)
	}

	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           receipt.NewServer(service, basicAuth).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	<-ctx.Done()

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown error", "error", err)
	}
}

// extractFiles reads each file and prints its extraction as JSON.
// It returns 2 when any file fails the gate and 1 on other errors.
func extractFiles(ctx context.Context, service *receipt.Service, files []string, template string, gate reconcile.Gate) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	code := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("Failed to read file", "path", path, "error", err)
			code = max(code, 1)
			continue
		}

		ex, err := service.Extract(ctx, receipt.Request{
			Filename: path,
			Data:     data,
			Template: template,
			Gate:     gate,
			Progress: pipeline.ProgressFunc(func(f float64) {
				slog.Debug("Progress", "path", path, "fraction", f)
			}),
		})
		var gateErr *reconcile.GateError
		switch {
		case errors.As(err, &gateErr):
			slog.Warn("Extraction failed validation", "path", path, "fields", gateErr.Fields())
			code = 2
		case err != nil:
			slog.Error("Failed to extract receipt", "path", path, "error", err)
			code = max(code, 1)
			continue
		}

		if err := enc.Encode(ex); err != nil {
			slog.Error("Error encoding extraction", "path", path, "error", err)
			code = max(code, 1)
		}
	}
	return code
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
