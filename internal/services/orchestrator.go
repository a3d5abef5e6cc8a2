package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Lllllllleong/pdfnarration/internal/models"
	"github.com/google/uuid"
)

// FailurePolicy decides what a failed narration submission does to the invocation.
type FailurePolicy string

const (
	// FailClosed turns a narration failure into an error result.
	FailClosed FailurePolicy = "fail"
	// Degrade completes without narration and records a warning.
	Degrade FailurePolicy = "degrade"
)

const (
	textSampleLength = 500

	messageSuccess = "PDF processed successfully"
	messageSkipped = "Object is not a PDF document, nothing to do"
	messageFailed  = "PDF processing failed"

	pendingAudioNote = "The audio is produced asynchronously; the link returns not found until the narration job completes."
)

// OrchestratorConfig switches the optional stages.
type OrchestratorConfig struct {
	SaveText         bool
	NarrationEnabled bool
	FailurePolicy    FailurePolicy
	LinkTTL          time.Duration
}

// Orchestrator runs one document through the pipeline and always answers with an envelope.
type Orchestrator struct {
	store     ObjectStore
	parser    *Parser
	artifacts *ArtifactStore
	narrator  *NarrationSubmitter
	links     *LinkIssuer
	status    NarrationStatusSource
	uploads   *UploadIssuer
	config    OrchestratorConfig
	newID     func() string
}

// NewOrchestrator wires the stages together. narrator and status may be nil when
// narration is disabled.
func NewOrchestrator(store ObjectStore, parser *Parser, narrator *NarrationSubmitter, links *LinkIssuer, status NarrationStatusSource, config OrchestratorConfig) *Orchestrator {
	if config.FailurePolicy == "" {
		config.FailurePolicy = FailClosed
	}
	if config.LinkTTL <= 0 {
		config.LinkTTL = DefaultLinkTTL
	}
	return &Orchestrator{
		store:     store,
		parser:    parser,
		artifacts: NewArtifactStore(store),
		narrator:  narrator,
		links:     links,
		status:    status,
		config:    config,
		newID:     uuid.NewString,
	}
}

// DecodeSource builds the source reference from a trigger event. The raw key is
// percent-decoded before anything looks at it.
func DecodeSource(namespace, rawKey string) (models.SourceObjectRef, error) {
	ref := models.SourceObjectRef{Namespace: namespace, RawKey: rawKey}
	if namespace == "" {
		return ref, newError(KindInvalidInput, StageValidate, errors.New("event has no namespace"))
	}
	if rawKey == "" {
		return ref, newError(KindInvalidInput, StageValidate, errors.New("event has no object key"))
	}
	key, err := url.QueryUnescape(rawKey)
	if err != nil {
		return ref, newError(KindInvalidInput, StageValidate, fmt.Errorf("failed to decode key %q: %w", rawKey, err))
	}
	ref.Key = key
	return ref, nil
}

// ProcessStorageEvent handles a Cloud Storage finalize event. Storage delivers
// object names unescaped, so the name is escaped into raw key form first.
func (o *Orchestrator) ProcessStorageEvent(ctx context.Context, e models.StorageEvent) *models.PipelineResult {
	var req models.ProcessRequest
	req.Source.Namespace = e.Bucket
	req.Source.RawKey = url.QueryEscape(e.Name)
	return o.Process(ctx, req)
}

// Process runs validate, fetch, parse, persist, narrate and link for one event.
func (o *Orchestrator) Process(ctx context.Context, req models.ProcessRequest) (result *models.PipelineResult) {
	result = &models.PipelineResult{InvocationID: o.newID()}
	logCtx := slog.With("bucket", req.Source.Namespace, "object", req.Source.RawKey, "invocationId", result.InvocationID)
	logCtx.Info("Processing new storage object.")

	defer func() {
		if r := recover(); r != nil {
			logCtx.Error("Pipeline panicked.", "panic", r)
			result.Status = models.StatusError
			result.Message = messageFailed
			result.Error = fmt.Sprintf("internal error: %v", r)
			result.ErrorKind, result.Retryable, result.FailedStage = "", false, ""
			result.Narration = nil
		}
	}()

	// Received -> Validated
	ref, err := DecodeSource(req.Source.Namespace, req.Source.RawKey)
	if err != nil {
		return o.fail(logCtx, result, err)
	}
	result.Source = &ref
	logCtx = logCtx.With("key", ref.Key)

	if !IsPDFKey(ref.Key) {
		logCtx.Info("Object is not a PDF. Skipping.")
		result.Status = models.StatusSkipped
		result.Message = messageSkipped
		return result
	}
	keyBase := KeyBase(ref.Key)
	if strings.TrimSpace(keyBase) == "" || strings.HasSuffix(keyBase, "/") {
		return o.fail(logCtx, result, newError(KindInvalidInput, StageValidate, fmt.Errorf("key %q has no file name", ref.Key)))
	}

	raw, err := o.store.Get(ctx, ref.Namespace, ref.Key)
	if err != nil {
		return o.fail(logCtx, result, newError(KindStoreError, StageFetch, err))
	}
	logCtx.Info("Downloaded source document.", "bytes", len(raw))

	// Validated -> Parsed
	doc, err := o.parser.Parse(ctx, raw)
	if err != nil {
		return o.fail(logCtx, result, err)
	}
	result.Metadata = doc.Metadata
	result.PageCount = doc.PageCount
	result.Warnings = append(result.Warnings, doc.Warnings...)

	text := JoinPages(doc.Pages)
	result.TextLength, result.TextSample = TextSummary(text)
	logCtx.Info("Document parsed.", "pageCount", doc.PageCount, "textLength", result.TextLength)

	// Parsed -> TextPersisted
	if o.config.SaveText {
		loc, err := o.artifacts.PutText(ctx, ref, text)
		if err != nil {
			return o.fail(logCtx, result, err)
		}
		result.TextLocation = loc
		logCtx.Info("Text artifact written.", "textKey", loc.Key)
	}

	// TextPersisted -> NarrationRequested
	if o.config.NarrationEnabled {
		block, err := o.narrate(ctx, logCtx, ref, keyBase, text, doc, result)
		if err != nil {
			return o.fail(logCtx, result, err)
		}
		result.Narration = block
	}

	result.Status = models.StatusSuccess
	result.Message = messageSuccess
	logCtx.Info("Pipeline completed.", "narration", result.Narration != nil, "warnings", len(result.Warnings))
	return result
}

// narrate submits the job and signs a link to where the audio will appear. A nil
// block with a nil error means narration was left out.
func (o *Orchestrator) narrate(ctx context.Context, logCtx *slog.Logger, ref models.SourceObjectRef, keyBase, text string, doc *models.ExtractedDocument, result *models.PipelineResult) (*models.NarrationBlock, error) {
	if o.narrator == nil {
		return nil, newError(KindSynthesisSubmitFailed, StageNarration, errors.New("narration is enabled but no synthesis service is configured"))
	}
	if !HasText(doc) {
		logCtx.Warn("No page has text. Narration skipped.")
		result.Warnings = append(result.Warnings, "narration skipped: no text detected in document")
		return nil, nil
	}

	task, err := o.narrator.Submit(ctx, text, ref.Namespace, keyBase)
	if err != nil {
		if o.config.FailurePolicy == Degrade {
			logCtx.Warn("Narration submission failed. Continuing without narration.", "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("narration unavailable: %v", err))
			return nil, nil
		}
		return nil, err
	}

	link, err := o.links.Issue(ctx, task.Namespace, task.AudioKey, o.config.LinkTTL)
	if err != nil {
		return nil, err
	}
	return &models.NarrationBlock{
		TaskID:    task.TaskID,
		AudioKey:  task.AudioKey,
		URL:       link.URL,
		State:     models.NarrationRequested,
		ExpiresAt: link.ExpiresAt,
		Reused:    task.Reused,
		Note:      pendingAudioNote,
	}, nil
}

func (o *Orchestrator) fail(logCtx *slog.Logger, result *models.PipelineResult, err error) *models.PipelineResult {
	result.Status = models.StatusError
	result.Message = messageFailed
	result.Error = err.Error()
	result.Narration = nil

	var perr *PipelineError
	if errors.As(err, &perr) {
		result.ErrorKind = string(perr.Kind)
		result.Retryable = perr.Retryable()
		result.FailedStage = perr.Stage
	}
	logCtx.Error("Pipeline failed.", "stage", result.FailedStage, "errorKind", result.ErrorKind, "retryable", result.Retryable, "error", err)
	return result
}

// TextSummary returns the rune length of text and its first 500 runes, with "..." when cut.
func TextSummary(text string) (int, string) {
	runes := []rune(text)
	if len(runes) <= textSampleLength {
		return len(runes), text
	}
	return len(runes), string(runes[:textSampleLength]) + "..."
}

// CheckNarration reports the state of a narration job and, once the audio is
// ready, a fresh link to it.
func (o *Orchestrator) CheckNarration(ctx context.Context, req models.NarrationStatusRequest) (*models.NarrationStatusResponse, error) {
	resp := &models.NarrationStatusResponse{TaskID: req.TaskID, AudioKey: req.AudioKey}
	logCtx := slog.With("taskId", req.TaskID, "audioKey", req.AudioKey)

	if err := validateStatusRequest(req); err != nil {
		resp.Error = err.Error()
		return resp, err
	}
	if o.status == nil {
		err := newError(KindSynthesisSubmitFailed, StageNarration, errors.New("narration status is not configured"))
		resp.Error = err.Error()
		return resp, err
	}

	state, err := o.status.Status(ctx, req.TaskID)
	if err != nil {
		perr := newError(KindSynthesisSubmitFailed, StageNarration, err)
		logCtx.Error("Failed to read narration status.", "error", err)
		resp.Error = perr.Error()
		return resp, perr
	}
	resp.State = state
	if state != models.NarrationReady {
		logCtx.Info("Narration not ready.", "state", state)
		return resp, nil
	}

	link, err := o.links.Issue(ctx, req.Namespace, req.AudioKey, o.config.LinkTTL)
	if err != nil {
		resp.Error = err.Error()
		return resp, err
	}
	resp.URL = link.URL
	resp.ExpiresAt = &link.ExpiresAt
	logCtx.Info("Narration ready.")
	return resp, nil
}

func validateStatusRequest(req models.NarrationStatusRequest) error {
	switch {
	case req.Namespace == "":
		return newError(KindInvalidInput, StageValidate, errors.New("namespace is required"))
	case req.TaskID == "":
		return newError(KindInvalidInput, StageValidate, errors.New("taskId is required"))
	case !strings.HasPrefix(req.AudioKey, audioPrefix) || !strings.HasSuffix(req.AudioKey, "/"+req.TaskID+".mp3"):
		return newError(KindInvalidInput, StageValidate, fmt.Errorf("audio key %q does not belong to task %q", req.AudioKey, req.TaskID))
	}
	return nil
}

// IssueUploadLink signs a PUT link into the upload bucket. The response always
// carries the error text when err is non-nil.
func (o *Orchestrator) IssueUploadLink(ctx context.Context, req models.UploadLinkRequest) (*models.UploadLinkResponse, error) {
	logCtx := slog.With("fileName", req.FileName)
	if o.uploads == nil {
		err := newError(KindLinkIssuanceFailed, StageLink, fmt.Errorf("uploads are not configured: UPLOAD_BUCKET is not set"))
		logCtx.Error("Upload link refused.", "error", err)
		return &models.UploadLinkResponse{Error: err.Error()}, err
	}

	resp, err := o.uploads.Issue(ctx, req)
	if err != nil {
		logCtx.Error("Upload link failed.", "error", err)
		return &models.UploadLinkResponse{Error: err.Error()}, err
	}
	logCtx.Info("Upload link issued.", "namespace", resp.Namespace, "key", resp.FileName, "expiresAt", resp.ExpiresAt)
	return resp, nil
}
