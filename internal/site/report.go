package site

import (
	"errors"
	"time"

	"github.com/starford/vos/internal/apperr"
)

// Failure is one artifact excluded from the output.
type Failure struct {
	Artifact string `json:"artifact"`
	Stage    string `json:"stage"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}

// Report summarises a build.
type Report struct {
	Written   []string      `json:"written"`
	Unchanged []string      `json:"unchanged"`
	Failed    []Failure     `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Pages is the number of pages present in the output after the build.
func (r *Report) Pages() int { return len(r.Written) + len(r.Unchanged) }

func (r *Report) fail(err error) {
	f := Failure{Err: err, Message: err.Error()}
	var ae *apperr.ArtifactError
	if errors.As(err, &ae) {
		f.Artifact, f.Stage = ae.Artifact, ae.Stage
	}
	r.Failed = append(r.Failed, f)
}
