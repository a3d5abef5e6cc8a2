package models

import "time"

// These structs define the JSON payloads exchanged with the trigger infrastructure.

// StorageEvent is the data of a Cloud Storage "object finalized" CloudEvent.
type StorageEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Generation  string `json:"generation,omitempty"`
}

// ProcessRequest is the store-agnostic trigger event accepted over HTTP.
type ProcessRequest struct {
	Source struct {
		Namespace string `json:"namespace"`
		RawKey    string `json:"rawKey"`
	} `json:"source"`
}

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// ObjectLocation points at a stored object.
type ObjectLocation struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	URI       string `json:"uri"`
}

// NarrationBlock describes a submitted narration job. The audio at URL only
// exists once the job completes; until then the link returns not found.
type NarrationBlock struct {
	TaskID    string         `json:"taskId"`
	AudioKey  string         `json:"audioKey"`
	URL       string         `json:"url"`
	State     NarrationState `json:"state"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Reused    bool           `json:"reused,omitempty"`
	Note      string         `json:"note,omitempty"`
}

// PipelineResult is the response envelope returned for every invocation.
type PipelineResult struct {
	Status       string             `json:"status"`
	Message      string             `json:"message"`
	InvocationID string             `json:"invocationId,omitempty"`
	Source       *SourceObjectRef   `json:"source,omitempty"`
	Metadata     map[string]*string `json:"metadata,omitempty"`
	PageCount    int                `json:"pageCount"`
	TextLocation *ObjectLocation    `json:"textLocation,omitempty"`
	TextLength   int                `json:"textLength"`
	TextSample   string             `json:"textSample,omitempty"`
	Narration    *NarrationBlock    `json:"narration,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
	Error        string             `json:"error,omitempty"`
	ErrorKind    string             `json:"errorKind,omitempty"`
	Retryable    bool               `json:"retryable,omitempty"`
	FailedStage  string             `json:"failedStage,omitempty"`
}

// NarrationStatusRequest asks whether a previously submitted narration has finished.
type NarrationStatusRequest struct {
	Namespace string `json:"namespace"`
	AudioKey  string `json:"audioKey"`
	TaskID    string `json:"taskId"`
}

// NarrationStatusResponse reports the state of a narration job. URL is only set
// once the audio is ready.
type NarrationStatusResponse struct {
	TaskID    string         `json:"taskId"`
	AudioKey  string         `json:"audioKey"`
	State     NarrationState `json:"state"`
	URL       string         `json:"url,omitempty"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// UploadLinkRequest asks for a URL a client can PUT a PDF to. FileName is optional.
type UploadLinkRequest struct {
	FileName string `json:"fileName"`
}

// UploadLinkResponse carries the signed upload URL. The client must send
// ContentType with the PUT.
type UploadLinkResponse struct {
	URL         string     `json:"url,omitempty"`
	FileName    string     `json:"fileName,omitempty"`
	Namespace   string     `json:"namespace,omitempty"`
	ContentType string     `json:"contentType,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}
