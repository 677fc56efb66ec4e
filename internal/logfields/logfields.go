// Package logfields holds the canonical slog attribute keys used across folio.
package logfields

import (
	"log/slog"
	"time"
)

const (
	KeySlug       = "slug"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyMode       = "mode"
	KeyKind       = "kind"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func Slug(s string) slog.Attr     { return slog.String(KeySlug, s) }
func Stage(name string) slog.Attr { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr     { return slog.String(KeyPath, p) }
func Mode(m string) slog.Attr     { return slog.String(KeyMode, m) }
func Kind(k string) slog.Attr     { return slog.String(KeyKind, k) }
func Count(n int) slog.Attr       { return slog.Int(KeyCount, n) }

// Duration reports d in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
