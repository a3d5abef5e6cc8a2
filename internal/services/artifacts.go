package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lllllllleong/pdfnarration/internal/models"
)

const (
	textArtifactPrefix = "extracted-text/"
	textContentType    = "text/plain; charset=utf-8"
	pdfExtension       = ".pdf"
)

// IsPDFKey reports whether a decoded key names a PDF, ignoring case.
func IsPDFKey(key string) bool {
	return strings.HasSuffix(strings.ToLower(key), pdfExtension)
}

// KeyBase is the decoded key without its .pdf extension.
func KeyBase(key string) string {
	if IsPDFKey(key) {
		return key[:len(key)-len(pdfExtension)]
	}
	return key
}

// DeriveTextKey returns where the text artifact of a source key is written.
func DeriveTextKey(key string) string {
	return textArtifactPrefix + KeyBase(key) + ".txt"
}

// ObjectURI formats a location the way the backing store names it, e.g. gs://bucket/key.
func ObjectURI(scheme, namespace, key string) string {
	return fmt.Sprintf("%s://%s/%s", scheme, namespace, key)
}

// ArtifactStore writes derived text next to the source document.
type ArtifactStore struct {
	store ObjectStore
}

func NewArtifactStore(store ObjectStore) *ArtifactStore {
	return &ArtifactStore{store: store}
}

// PutText writes content to the derived key in the source namespace. An existing
// artifact is overwritten.
func (a *ArtifactStore) PutText(ctx context.Context, ref models.SourceObjectRef, content string) (*models.ObjectLocation, error) {
	key := DeriveTextKey(ref.Key)
	if err := a.store.Put(ctx, ref.Namespace, key, []byte(content), textContentType); err != nil {
		return nil, newError(KindStorageWriteFailed, StagePersist, fmt.Errorf("failed to write %s: %w", key, err))
	}
	return &models.ObjectLocation{
		Namespace: ref.Namespace,
		Key:       key,
		URI:       ObjectURI(a.store.Scheme(), ref.Namespace, key),
	}, nil
}
