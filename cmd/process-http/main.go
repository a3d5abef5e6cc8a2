package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/pdfnarration/internal/models"
	"github.com/Lllllllleong/pdfnarration/internal/services"
)

var (
	pipeline *services.Orchestrator
	once     sync.Once
	initErr  error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleProcessDocument", handleProcessDocument)
	functions.HTTP("HandleNarrationStatus", handleNarrationStatus)
	functions.HTTP("HandleUploadLink", handleUploadLink)
}

// main is required by the Go Functions Framework.
func main() {}

func initPipeline() error {
	once.Do(func() {
		pipeline, initErr = services.NewPipelineFromEnv(context.Background())
	})
	return initErr
}

// handleProcessDocument accepts {"source": {"namespace", "rawKey"}} and answers with the envelope.
func handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	if err := initPipeline(); err != nil {
		slog.Error("Pipeline initialization failed", "error", err)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body", "error", err)
		writeJSON(w, http.StatusBadRequest, &models.PipelineResult{
			Status:    models.StatusError,
			Message:   "PDF processing failed",
			Error:     "could not parse JSON: " + err.Error(),
			ErrorKind: string(services.KindInvalidInput),
		})
		return
	}

	result := pipeline.Process(r.Context(), req)
	code := services.HTTPStatus(result.Status == models.StatusError, services.Kind(result.ErrorKind))
	writeJSON(w, code, result)
}

// handleNarrationStatus accepts {"namespace", "audioKey", "taskId"}.
func handleNarrationStatus(w http.ResponseWriter, r *http.Request) {
	if err := initPipeline(); err != nil {
		slog.Error("Pipeline initialization failed", "error", err)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.NarrationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	resp, err := pipeline.CheckNarration(r.Context(), req)
	writeJSON(w, services.HTTPStatus(err != nil, services.KindOf(err)), resp)
}

// handleUploadLink accepts an optional {"fileName"} and answers with a signed PUT URL.
func handleUploadLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := initPipeline(); err != nil {
		slog.Error("Pipeline initialization failed", "error", err)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.UploadLinkRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			slog.Error("Could not decode request body", "error", err)
			http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
			return
		}
	}

	resp, err := pipeline.IssueUploadLink(r.Context(), req)
	writeJSON(w, services.HTTPStatus(err != nil, services.KindOf(err)), resp)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
