package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/pdfnarration/internal/models"
)

const audioPrefix = "audio/"

// AudioPrefix is the key prefix a synthesis job for keyBase writes under.
func AudioPrefix(keyBase string) string {
	return audioPrefix + keyBase + "/"
}

// AudioKey is where the audio of a job is expected once it completes.
func AudioKey(keyBase, taskID string) string {
	return AudioPrefix(keyBase) + taskID + ".mp3"
}

// DedupKey identifies a narration request by source location and text, so a
// redelivered event for unchanged content maps to the same job.
func DedupKey(namespace, keyBase, text string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(keyBase))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// NarrationSubmitter starts synthesis jobs for extracted text.
type NarrationSubmitter struct {
	synth  SynthesisService
	ledger NarrationLedger
	voice  string
	// audioNamespace overrides the source namespace as the job output location.
	audioNamespace string
	now            func() time.Time
}

// NewNarrationSubmitter builds a submitter. ledger may be nil, which disables
// duplicate detection.
func NewNarrationSubmitter(synth SynthesisService, ledger NarrationLedger, voice, audioNamespace string) *NarrationSubmitter {
	return &NarrationSubmitter{
		synth:          synth,
		ledger:         ledger,
		voice:          voice,
		audioNamespace: audioNamespace,
		now:            time.Now,
	}
}

// OutputNamespace returns where audio for a source in namespace is written.
func (n *NarrationSubmitter) OutputNamespace(namespace string) string {
	if n.audioNamespace != "" {
		return n.audioNamespace
	}
	return namespace
}

// Submit requests narration of text for the document at namespace/keyBase. It
// returns once the job is accepted; the audio key is computed, not confirmed.
func (n *NarrationSubmitter) Submit(ctx context.Context, text, namespace, keyBase string) (*models.NarrationTask, error) {
	if text == "" {
		return nil, newError(KindSynthesisSubmitFailed, StageNarration, errors.New("no text to narrate"))
	}
	outNamespace := n.OutputNamespace(namespace)
	dedupKey := DedupKey(namespace, keyBase, text)
	logCtx := slog.With("namespace", namespace, "keyBase", keyBase, "dedupKey", dedupKey)

	if n.ledger != nil {
		rec, err := n.ledger.Lookup(ctx, dedupKey)
		if err != nil {
			logCtx.Warn("Narration ledger lookup failed, submitting a new job.", "error", err)
		} else if rec != nil && rec.TaskID != "" {
			logCtx.Info("Narration already requested for this content. Reusing task.", "taskId", rec.TaskID)
			return &models.NarrationTask{
				TaskID:    rec.TaskID,
				Namespace: rec.AudioNamespace,
				AudioKey:  rec.AudioKey,
				DedupKey:  dedupKey,
				Reused:    true,
			}, nil
		}
	}

	taskID, err := n.synth.SubmitJob(ctx, text, n.voice, outNamespace, AudioPrefix(keyBase))
	if err != nil {
		return nil, newError(KindSynthesisSubmitFailed, StageNarration, err)
	}
	if taskID == "" {
		return nil, newError(KindSynthesisSubmitFailed, StageNarration, errors.New("synthesis service returned an empty task id"))
	}

	task := &models.NarrationTask{
		TaskID:    taskID,
		Namespace: outNamespace,
		AudioKey:  AudioKey(keyBase, taskID),
		DedupKey:  dedupKey,
	}
	logCtx.Info("Narration job accepted.", "taskId", taskID, "audioKey", task.AudioKey)

	if n.ledger != nil {
		rec := models.NarrationRecord{
			DedupKey:       dedupKey,
			SourceBucket:   namespace,
			SourceKey:      keyBase,
			TaskID:         taskID,
			AudioNamespace: outNamespace,
			AudioKey:       task.AudioKey,
			CreatedAt:      n.now().UTC(),
		}
		if err := n.ledger.Record(ctx, rec); err != nil {
			logCtx.Warn("Failed to record narration in ledger.", "taskId", taskID, "error", fmt.Errorf("ledger record: %w", err))
		}
	}
	return task, nil
}
