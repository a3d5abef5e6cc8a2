package models

import "time"

// SourceObjectRef identifies the stored object that triggered an invocation.
// Key is the percent-decoded form of RawKey and every derived name is built from it.
type SourceObjectRef struct {
	Namespace string `json:"namespace"`
	RawKey    string `json:"rawKey"`
	Key       string `json:"key"`
}

// PageResult is the text of one page. NoText marks a page where extraction
// produced nothing usable.
type PageResult struct {
	Number int    `json:"pageNumber"`
	Text   string `json:"text,omitempty"`
	NoText bool   `json:"noText,omitempty"`
}

// ExtractedDocument is the parser output. Pages are numbered 1..PageCount.
type ExtractedDocument struct {
	Pages     []PageResult       `json:"pages"`
	Metadata  map[string]*string `json:"metadata"`
	PageCount int                `json:"pageCount"`
	Warnings  []string           `json:"warnings,omitempty"`
}

// LazyValue is a metadata value that has to be resolved before it can be used,
// such as an indirect object reference inside a PDF.
type LazyValue interface {
	Resolve() (any, error)
}

// NarrationTask is an accepted synthesis job. AudioKey is where the audio is
// expected to appear once the job finishes; it is not checked at submit time.
type NarrationTask struct {
	TaskID    string `json:"taskId"`
	Namespace string `json:"namespace"`
	AudioKey  string `json:"audioKey"`
	DedupKey  string `json:"dedupKey,omitempty"`
	Reused    bool   `json:"reused,omitempty"`
}

// AccessLink is a signed, time-limited URL for a stored object.
type AccessLink struct {
	Namespace string        `json:"namespace"`
	Key       string        `json:"key"`
	URL       string        `json:"url"`
	TTL       time.Duration `json:"ttl"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// NarrationState describes how far an asynchronous synthesis job has progressed.
type NarrationState string

const (
	NarrationRequested NarrationState = "REQUESTED"
	NarrationPending   NarrationState = "PENDING"
	NarrationReady     NarrationState = "READY"
	NarrationFailed    NarrationState = "FAILED"
)
