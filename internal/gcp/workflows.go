package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/pdfnarration/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MaxExecutionArgumentBytes is the Workflows limit on an execution argument.
const MaxExecutionArgumentBytes = 32 * 1024

// narrationArgument is the input of the narration workflow.
type narrationArgument struct {
	Text         string `json:"text"`
	Voice        string `json:"voice,omitempty"`
	OutputBucket string `json:"outputBucket"`
	OutputPrefix string `json:"outputPrefix"`
}

// WorkflowSynthesizer runs text-to-speech as a Cloud Workflows execution. The
// execution id is the task id; the workflow writes outputPrefix + id + ".mp3".
type WorkflowSynthesizer struct {
	client     *executions.Client
	projectID  string
	location   string
	workflowID string
}

func NewWorkflowSynthesizer(ctx context.Context, projectID, location, workflowID string) (*WorkflowSynthesizer, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to start narration workflows")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowSynthesizer{
		client:     client,
		projectID:  projectID,
		location:   location,
		workflowID: workflowID,
	}, nil
}

func (w *WorkflowSynthesizer) workflowName() string {
	return fmt.Sprintf("projects/%s/locations/%s/workflows/%s", w.projectID, w.location, w.workflowID)
}

// ExecutionID returns the last path segment of a full execution name.
func ExecutionID(name string) string {
	if name == "" {
		return ""
	}
	return path.Base(name)
}

// BuildNarrationArgument encodes the execution argument and enforces the size limit.
func BuildNarrationArgument(text, voice, outputBucket, outputPrefix string) (string, error) {
	payload, err := json.Marshal(narrationArgument{
		Text:         text,
		Voice:        voice,
		OutputBucket: outputBucket,
		OutputPrefix: outputPrefix,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	if len(payload) > MaxExecutionArgumentBytes {
		return "", fmt.Errorf("text too long: workflow argument is %d bytes, limit is %d", len(payload), MaxExecutionArgumentBytes)
	}
	return string(payload), nil
}

// SubmitJob starts an execution and returns its id.
func (w *WorkflowSynthesizer) SubmitJob(ctx context.Context, text, voice, outputBucket, outputPrefix string) (string, error) {
	argument, err := BuildNarrationArgument(text, voice, outputBucket, outputPrefix)
	if err != nil {
		return "", err
	}
	exec, err := w.client.CreateExecution(ctx, &executionspb.CreateExecutionRequest{
		Parent: w.workflowName(),
		Execution: &executionspb.Execution{
			Argument: argument,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return ExecutionID(exec.GetName()), nil
}

// Status maps the execution state onto a narration state.
func (w *WorkflowSynthesizer) Status(ctx context.Context, taskID string) (models.NarrationState, error) {
	exec, err := w.client.GetExecution(ctx, &executionspb.GetExecutionRequest{
		Name: w.workflowName() + "/executions/" + taskID,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return models.NarrationFailed, nil
		}
		return "", fmt.Errorf("failed to get workflow execution %s: %w", taskID, err)
	}
	return NarrationStateOf(exec.GetState()), nil
}

// NarrationStateOf converts a Workflows execution state.
func NarrationStateOf(state executionspb.Execution_State) models.NarrationState {
	switch state {
	case executionspb.Execution_SUCCEEDED:
		return models.NarrationReady
	case executionspb.Execution_FAILED, executionspb.Execution_CANCELLED, executionspb.Execution_UNAVAILABLE:
		return models.NarrationFailed
	default:
		return models.NarrationPending
	}
}

func (w *WorkflowSynthesizer) Close() error {
	return w.client.Close()
}
