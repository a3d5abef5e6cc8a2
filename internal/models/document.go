package models

import "time"

// NarrationRecord is the ledger entry written when a narration job is submitted.
// It lets a redelivered event for the same key and content reuse the task instead
// of starting a second synthesis job.
type NarrationRecord struct {
	DedupKey       string    `firestore:"dedupKey,omitempty" json:"dedupKey"`
	SourceBucket   string    `firestore:"sourceBucket,omitempty" json:"sourceBucket"`
	SourceKey      string    `firestore:"sourceKey,omitempty" json:"sourceKey"`
	TaskID         string    `firestore:"taskId,omitempty" json:"taskId"`
	AudioNamespace string    `firestore:"audioNamespace,omitempty" json:"audioNamespace"`
	AudioKey       string    `firestore:"audioKey,omitempty" json:"audioKey"`
	CreatedAt      time.Time `firestore:"createdAt,omitempty" json:"createdAt"`
}
