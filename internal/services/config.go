package services

import (
	"fmt"
	"time"

	"github.com/Lllllllleong/pdfnarration/internal/gcp"
)

const (
	BackendGCS   = "gcs"
	BackendMinIO = "minio"

	LedgerNone      = ""
	LedgerFirestore = "firestore"
	LedgerRedis     = "redis"
)

// PipelineConfig holds configuration for the document pipeline.
type PipelineConfig struct {
	StorageBackend string
	ProjectID      string

	SaveTextArtifact bool
	ParseConcurrency int
	LinkTTL          time.Duration

	UploadBucket  string
	UploadLinkTTL time.Duration

	NarrationEnabled       bool
	NarrationFailurePolicy FailurePolicy
	NarrationVoice         string
	AudioBucket            string
	WorkflowID             string
	WorkflowLocation       string

	NarrationLedger     string
	FirestoreCollection string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	LedgerTTL           time.Duration

	MinIOEndpoint string
	MinIOUser     string
	MinIOPassword string
	MinIOUseSSL   bool
}

// LoadPipelineConfig reads the environment and validates the combination of settings.
func LoadPipelineConfig() (PipelineConfig, error) {
	config := PipelineConfig{
		StorageBackend:         gcp.GetEnv("STORAGE_BACKEND", BackendGCS),
		ProjectID:              gcp.GetEnv("PROJECT_ID", ""),
		NarrationFailurePolicy: FailurePolicy(gcp.GetEnv("NARRATION_FAILURE_POLICY", string(FailClosed))),
		NarrationVoice:         gcp.GetEnv("NARRATION_VOICE", "en-US-Standard-C"),
		AudioBucket:            gcp.GetEnv("AUDIO_BUCKET", ""),
		UploadBucket:           gcp.GetEnv("UPLOAD_BUCKET", ""),
		WorkflowID:             gcp.GetEnv("NARRATION_WORKFLOW_ID", "narration-synthesizer"),
		WorkflowLocation:       gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		NarrationLedger:        gcp.GetEnv("NARRATION_LEDGER", LedgerNone),
		FirestoreCollection:    gcp.GetEnv("FIRESTORE_COLLECTION", "narrations"),
		RedisHost:              gcp.GetEnv("REDIS_HOST", "localhost"),
		RedisPort:              gcp.GetEnv("REDIS_PORT", "6379"),
		RedisPassword:          gcp.GetEnv("REDIS_PASSWORD", ""),
		MinIOEndpoint:          gcp.GetEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOUser:              gcp.GetEnv("MINIO_ROOT_USER", ""),
		MinIOPassword:          gcp.GetEnv("MINIO_ROOT_PASSWORD", ""),
	}

	var err error
	if config.SaveTextArtifact, err = gcp.GetEnvBool("SAVE_TEXT_ARTIFACT", true); err != nil {
		return config, err
	}
	if config.NarrationEnabled, err = gcp.GetEnvBool("NARRATION_ENABLED", false); err != nil {
		return config, err
	}
	if config.MinIOUseSSL, err = gcp.GetEnvBool("MINIO_USE_SSL", false); err != nil {
		return config, err
	}
	if config.ParseConcurrency, err = gcp.GetEnvInt("PARSE_CONCURRENCY", defaultParseConcurrency); err != nil {
		return config, err
	}
	if config.LinkTTL, err = gcp.GetEnvDuration("LINK_TTL", DefaultLinkTTL); err != nil {
		return config, err
	}
	if config.UploadLinkTTL, err = gcp.GetEnvDuration("UPLOAD_LINK_TTL", DefaultUploadTTL); err != nil {
		return config, err
	}
	if config.LedgerTTL, err = gcp.GetEnvDuration("NARRATION_LEDGER_TTL", 24*time.Hour); err != nil {
		return config, err
	}

	return config, config.Validate()
}

// Validate checks that the settings can be used together.
func (c PipelineConfig) Validate() error {
	switch c.StorageBackend {
	case BackendGCS, BackendMinIO:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendGCS, BackendMinIO, c.StorageBackend)
	}
	switch c.NarrationFailurePolicy {
	case FailClosed, Degrade:
	default:
		return fmt.Errorf("NARRATION_FAILURE_POLICY must be %q or %q, got %q", FailClosed, Degrade, c.NarrationFailurePolicy)
	}
	switch c.NarrationLedger {
	case LedgerNone, LedgerRedis:
	case LedgerFirestore:
		if c.ProjectID == "" {
			return fmt.Errorf("PROJECT_ID environment variable must be set for the firestore ledger")
		}
	default:
		return fmt.Errorf("NARRATION_LEDGER must be empty, %q or %q, got %q", LedgerFirestore, LedgerRedis, c.NarrationLedger)
	}
	if c.LinkTTL <= 0 {
		return fmt.Errorf("LINK_TTL must be positive")
	}
	if c.UploadBucket != "" && c.UploadLinkTTL <= 0 {
		return fmt.Errorf("UPLOAD_LINK_TTL must be positive")
	}
	if c.StorageBackend == BackendMinIO && (c.MinIOUser == "" || c.MinIOPassword == "") {
		return fmt.Errorf("MINIO_ROOT_USER and MINIO_ROOT_PASSWORD must be set")
	}
	if c.NarrationEnabled && c.ProjectID == "" {
		return fmt.Errorf("PROJECT_ID environment variable must be set when narration is enabled")
	}
	return nil
}

func (c PipelineConfig) orchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		SaveText:         c.SaveTextArtifact,
		NarrationEnabled: c.NarrationEnabled,
		FailurePolicy:    c.NarrationFailurePolicy,
		LinkTTL:          c.LinkTTL,
	}
}
