package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/pdfnarration/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreLedger stores narration records in a collection, one document per dedup key.
type FirestoreLedger struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreLedger(client *firestore.Client, collection string) *FirestoreLedger {
	return &FirestoreLedger{client: client, collection: collection}
}

// Lookup finds the record for dedupKey, or returns nil when there is none.
func (l *FirestoreLedger) Lookup(ctx context.Context, dedupKey string) (*models.NarrationRecord, error) {
	iter := l.client.Collection(l.collection).Where("dedupKey", "==", dedupKey).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query narration ledger: %w", err)
	}
	var rec models.NarrationRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode narration record %s: %w", snap.Ref.ID, err)
	}
	return &rec, nil
}

// Record creates the document for rec.DedupKey. A concurrent writer that got there
// first wins and is not an error.
func (l *FirestoreLedger) Record(ctx context.Context, rec models.NarrationRecord) error {
	_, err := l.client.Collection(l.collection).Doc(rec.DedupKey).Create(ctx, rec)
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create narration record: %w", err)
	}
	return nil
}
