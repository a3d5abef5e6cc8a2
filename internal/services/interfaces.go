package services

import (
	"context"
	"time"

	"github.com/Lllllllleong/pdfnarration/internal/models"
)

// DocumentLibrary opens raw PDF bytes.
type DocumentLibrary interface {
	Open(raw []byte) (DocumentHandle, error)
}

// DocumentHandle is an opened document. ExtractPageText takes a zero-based index
// and may return the text read before an error alongside it.
// Metadata values may be models.LazyValue and must be resolved before use.
type DocumentHandle interface {
	PageCount() int
	Metadata() (map[string]any, error)
	ExtractPageText(pageIndex int) (string, error)
}

// ObjectStore reads and writes objects in a namespace (a bucket).
type ObjectStore interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Put(ctx context.Context, namespace, key string, content []byte, contentType string) error
	// Scheme is the URI scheme of the store, e.g. "gs".
	Scheme() string
}

// URLSigner produces time-limited read URLs. The object does not have to exist.
type URLSigner interface {
	Sign(ctx context.Context, namespace, key string, ttl time.Duration) (string, error)
}

// UploadSigner produces time-limited URLs that accept a PUT of one object with
// the given content type.
type UploadSigner interface {
	SignUpload(ctx context.Context, namespace, key, contentType string, ttl time.Duration) (string, error)
}

// SynthesisService starts asynchronous text-to-speech jobs. The job writes its
// audio to outputPrefix + taskID + ".mp3" in outputNamespace.
type SynthesisService interface {
	SubmitJob(ctx context.Context, text, voice, outputNamespace, outputPrefix string) (string, error)
}

// NarrationStatusSource reports how far a submitted job has progressed.
type NarrationStatusSource interface {
	Status(ctx context.Context, taskID string) (models.NarrationState, error)
}

// NarrationLedger remembers submitted jobs by dedup key. Lookup returns nil and
// no error when nothing has been recorded.
type NarrationLedger interface {
	Lookup(ctx context.Context, dedupKey string) (*models.NarrationRecord, error)
	Record(ctx context.Context, rec models.NarrationRecord) error
}
