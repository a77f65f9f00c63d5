// Package logfields holds the canonical slog attribute names shared by the build packages.
package logfields

import (
	"log/slog"
	"time"
)

const (
	KeyPath       = "path"
	KeyJobID      = "job_id"
	KeyJobKind    = "job_kind"
	KeyWorker     = "worker"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

func Path(p string) slog.Attr      { return slog.String(KeyPath, p) }
func JobID(id string) slog.Attr    { return slog.String(KeyJobID, id) }
func JobKind(k string) slog.Attr   { return slog.String(KeyJobKind, k) }
func Worker(name string) slog.Attr { return slog.String(KeyWorker, name) }
func Count(n int) slog.Attr        { return slog.Int(KeyCount, n) }

func DurationMS(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
