package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/pdfnarration/internal/cache"
	"github.com/Lllllllleong/pdfnarration/internal/gcp"
	minioStore "github.com/Lllllllleong/pdfnarration/internal/minio"
	"github.com/Lllllllleong/pdfnarration/internal/pdf"
)

// signingStore is an object store that can also sign read and upload links.
type signingStore interface {
	ObjectStore
	URLSigner
	UploadSigner
}

// pdfcpuLibrary adapts the pdf package to DocumentLibrary.
type pdfcpuLibrary struct {
	lib *pdf.Library
}

func (l pdfcpuLibrary) Open(raw []byte) (DocumentHandle, error) {
	doc, err := l.lib.Open(raw)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// NewPDFParser returns a Parser backed by pdfcpu.
func NewPDFParser(concurrency int) *Parser {
	return NewParser(pdfcpuLibrary{lib: pdf.NewLibrary()}, concurrency)
}

// NewPipelineFromEnv loads PipelineConfig and creates every client the pipeline needs.
func NewPipelineFromEnv(ctx context.Context) (*Orchestrator, error) {
	config, err := LoadPipelineConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return NewPipeline(ctx, config)
}

// NewPipeline creates the clients selected by config and wires the orchestrator.
func NewPipeline(ctx context.Context, config PipelineConfig) (*Orchestrator, error) {
	store, err := newStore(ctx, config)
	if err != nil {
		return nil, err
	}

	var (
		narrator *NarrationSubmitter
		status   NarrationStatusSource
	)
	if config.NarrationEnabled {
		synth, err := gcp.NewWorkflowSynthesizer(ctx, config.ProjectID, config.WorkflowLocation, config.WorkflowID)
		if err != nil {
			return nil, err
		}
		ledger, err := newLedger(ctx, config)
		if err != nil {
			return nil, err
		}
		narrator = NewNarrationSubmitter(synth, ledger, config.NarrationVoice, config.AudioBucket)
		status = synth
	}

	orchestrator := NewOrchestrator(store, NewPDFParser(config.ParseConcurrency), narrator, NewLinkIssuer(store), status, config.orchestratorConfig())
	if config.UploadBucket != "" {
		orchestrator.uploads = NewUploadIssuer(store, config.UploadBucket, config.UploadLinkTTL)
	}
	slog.Info("Pipeline initialized.",
		"storageBackend", config.StorageBackend,
		"saveText", config.SaveTextArtifact,
		"narration", config.NarrationEnabled,
		"failurePolicy", config.NarrationFailurePolicy,
		"ledger", config.NarrationLedger,
		"uploadBucket", config.UploadBucket,
	)
	return orchestrator, nil
}

func newStore(ctx context.Context, config PipelineConfig) (signingStore, error) {
	switch config.StorageBackend {
	case BackendMinIO:
		client, err := minioStore.InitMinIOClient(config.MinIOEndpoint, config.MinIOUser, config.MinIOPassword, config.MinIOUseSSL)
		if err != nil {
			return nil, err
		}
		if config.NarrationEnabled && config.AudioBucket != "" {
			if err := minioStore.EnsureBucketExists(ctx, client, config.AudioBucket); err != nil {
				return nil, err
			}
		}
		return minioStore.NewStore(client), nil
	default:
		return gcp.NewGCSStore(ctx)
	}
}

func newLedger(ctx context.Context, config PipelineConfig) (NarrationLedger, error) {
	switch config.NarrationLedger {
	case LedgerFirestore:
		client, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		return gcp.NewFirestoreLedger(client, config.FirestoreCollection), nil
	case LedgerRedis:
		client, err := cache.NewRedisClient(config.RedisHost, config.RedisPort, config.RedisPassword)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisLedger(client, config.LedgerTTL), nil
	default:
		return nil, nil
	}
}
