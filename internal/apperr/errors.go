// Package apperr holds the error taxonomy shared by every build stage.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrNotReady            = errors.New("no build available yet")
	ErrMalformedHeader     = errors.New("malformed artifact header")
	ErrDuplicateName       = errors.New("duplicate artifact name")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrAggregationMiss     = errors.New("no log rows match")
	ErrEvaluation          = errors.New("inline evaluation failed")
)

// Build stages reported in ArtifactError.
const (
	StageIngest   = "ingest"
	StageRegistry = "registry"
	StageFirst    = "first-pass"
	StageSecond   = "second-pass"
	StageAssemble = "assemble"
	StageWrite    = "write"
)

// ArtifactError ties a failure to the artifact and stage that produced it.
// A failing artifact is excluded from output; the rest of the batch builds.
type ArtifactError struct {
	Artifact string
	Stage    string
	Err      error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Artifact, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// ForArtifact wraps err with artifact and stage context. A nil err stays nil.
func ForArtifact(artifact, stage string, err error) error {
	if err == nil {
		return nil
	}
	var ae *ArtifactError
	if errors.As(err, &ae) && ae.Artifact == artifact {
		return err
	}
	return &ArtifactError{Artifact: artifact, Stage: stage, Err: err}
}

// Malformed reports a header problem in the named source file.
func Malformed(source, format string, args ...any) error {
	return &ArtifactError{
		Artifact: source,
		Stage:    StageIngest,
		Err:      fmt.Errorf("%w: %s", ErrMalformedHeader, fmt.Sprintf(format, args...)),
	}
}

// Evaluation reports a failed inline expression.
func Evaluation(expr string, err error) error {
	return fmt.Errorf("%w: %q: %v", ErrEvaluation, expr, err)
}

// Recoverable reports whether a build may continue past err for the
// artifact that produced it.
func Recoverable(err error) bool {
	return errors.Is(err, ErrUnresolvedReference) || errors.Is(err, ErrAggregationMiss)
}
