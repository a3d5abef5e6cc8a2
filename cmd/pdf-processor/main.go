package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/pdfnarration/internal/models"
	"github.com/Lllllllleong/pdfnarration/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	pipeline *services.Orchestrator
	once     sync.Once
	initErr  error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Triggered by google.cloud.storage.object.v1.finalized on the source bucket.
	functions.CloudEvent("ProcessDocument", processDocument)
}

// main is required by the Go Functions Framework.
func main() {}

// processDocument never returns a processing failure: the outcome is logged as an
// envelope and redelivery is left to the trigger's own retry setting.
func processDocument(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		pipeline, initErr = services.NewPipelineFromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var storageEvent models.StorageEvent
	if err := json.Unmarshal(e.Data(), &storageEvent); err != nil {
		slog.Error("Failed to unmarshal event data. Dropping event.", "error", err, "eventId", e.ID(), "data", string(e.Data()))
		return nil
	}

	result := pipeline.ProcessStorageEvent(ctx, storageEvent)
	slog.Info("Document event handled.", "eventId", e.ID(), "status", result.Status, "result", result)
	return nil
}
