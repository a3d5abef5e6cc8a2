package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindInvalidInput          Kind = "InvalidInput"
	KindMalformedDocument     Kind = "MalformedDocument"
	KindStoreError            Kind = "StoreError"
	KindStorageWriteFailed    Kind = "StorageWriteFailed"
	KindSynthesisSubmitFailed Kind = "SynthesisSubmitFailed"
	KindLinkIssuanceFailed    Kind = "LinkIssuanceFailed"
	KindCancelled             Kind = "Cancelled"
)

// Retryable reports whether a redelivery of the same event could succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindStoreError, KindStorageWriteFailed, KindSynthesisSubmitFailed, KindCancelled:
		return true
	}
	return false
}

// Stage names used in envelopes and logs.
const (
	StageValidate  = "validate"
	StageFetch     = "fetch"
	StageParse     = "parse"
	StagePersist   = "persist"
	StageNarration = "narration"
	StageLink      = "link"
)

// PipelineError is the error every stage returns.
type PipelineError struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed (%s)", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient.
func (e *PipelineError) Retryable() bool { return e.Kind.Retryable() }

func newError(kind Kind, stage string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Err: err}
}

// KindOf returns the kind of the first PipelineError in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

// HTTPStatus maps an outcome onto the status code an HTTP trigger answers with.
// Retryable failures get 503 so the caller redelivers; other failures are final.
func HTTPStatus(failed bool, kind Kind) int {
	switch {
	case !failed:
		return http.StatusOK
	case kind == KindInvalidInput:
		return http.StatusBadRequest
	case kind.Retryable():
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}
