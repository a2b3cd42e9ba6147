package backlog

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	pipelineerrors "github.com/tidewell/autopsy/internal/errors"
)

// File names the pipeline writes into a session directory.
const (
	// BacklogFileName is the backlog snapshot within a session directory.
	BacklogFileName = "backlog.yaml"
	// FailuresFileName is the failure-record file within a session directory.
	FailuresFileName = "failures.yaml"
)

// LoadBacklog reads a backlog snapshot from a YAML file.
func LoadBacklog(path string) (*Backlog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backlog: %w", err)
	}
	var b Backlog
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse backlog: %w", err)
	}
	return &b, nil
}

// failureRecord is the on-disk shape of one failure entry.
type failureRecord struct {
	SubtaskID string    `yaml:"subtask_id"`
	Title     string    `yaml:"title"`
	Kind      string    `yaml:"kind,omitempty"`
	Code      string    `yaml:"code,omitempty"`
	Message   string    `yaml:"message"`
	Trace     string    `yaml:"trace,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
	Phase     string    `yaml:"phase,omitempty"`
	Milestone string    `yaml:"milestone,omitempty"`
}

// failuresFile is the on-disk shape of the failure-record file.
type failuresFile struct {
	Failures []failureRecord `yaml:"failures"`
}

// LoadFailures reads the failure records from a YAML file into the map
// shape the report builder consumes. Each record's error is reconstructed
// as a pipeline taxonomy error from its recorded kind, code, and message;
// records with an unrecognized kind fall back to a task-kind error.
func LoadFailures(path string) (map[string]TaskFailure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read failures: %w", err)
	}
	var file failuresFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse failures: %w", err)
	}

	failures := make(map[string]TaskFailure, len(file.Failures))
	for _, rec := range file.Failures {
		failures[rec.SubtaskID] = TaskFailure{
			SubtaskID: rec.SubtaskID,
			Title:     rec.Title,
			Err:       reconstructError(rec),
			Code:      rec.Code,
			Trace:     rec.Trace,
			Timestamp: rec.Timestamp,
			Phase:     rec.Phase,
			Milestone: rec.Milestone,
		}
	}
	return failures, nil
}

// reconstructError rebuilds a taxonomy error from a failure record.
func reconstructError(rec failureRecord) error {
	var err *pipelineerrors.PipelineError
	switch pipelineerrors.Kind(rec.Kind) {
	case pipelineerrors.KindSession:
		err = pipelineerrors.NewSessionError(rec.Message, nil)
	case pipelineerrors.KindAgent:
		err = pipelineerrors.NewAgentError(rec.Message, nil)
	case pipelineerrors.KindValidation:
		err = pipelineerrors.NewValidationError(rec.Message, nil)
	default:
		err = pipelineerrors.NewTaskError(rec.Message, nil)
	}
	return err.WithCode(pipelineerrors.Code(rec.Code)).WithContext(map[string]any{
		"taskId": rec.SubtaskID,
	})
}
