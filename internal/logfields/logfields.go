// Package logfields holds canonical slog attribute keys so packages log alike.
package logfields

import (
	"log/slog"
	"time"
)

const (
	KeyArtifact   = "artifact"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func Artifact(name string) slog.Attr { return slog.String(KeyArtifact, name) }
func Stage(name string) slog.Attr    { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr          { return slog.Int(KeyCount, n) }

func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
