// Package apperr holds the error kinds shared across folio packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrDirectoryNotFound    = errors.New("content directory not found")
	ErrUnreadableFile       = errors.New("unreadable file")
	ErrMalformedFrontmatter = errors.New("malformed frontmatter")
	ErrTransformFailure     = errors.New("transform failure")
	ErrNotFound             = errors.New("not found")
)

// DocumentError ties a failure to the document that produced it.
// Kind is one of the sentinels above; Err is the underlying cause.
type DocumentError struct {
	Slug string
	Kind error
	Err  error
}

// NewDocumentError wraps err for slug under the given kind.
func NewDocumentError(slug string, kind, err error) *DocumentError {
	return &DocumentError{Slug: slug, Kind: kind, Err: err}
}

func (e *DocumentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Slug, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Slug, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *DocumentError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the sentinel kind carried by err, or nil when err is not
// one of the known kinds.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrDirectoryNotFound,
		ErrUnreadableFile,
		ErrMalformedFrontmatter,
		ErrTransformFailure,
		ErrNotFound,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// SlugOf returns the slug of the first DocumentError in err's chain.
func SlugOf(err error) string {
	var de *DocumentError
	if errors.As(err, &de) {
		return de.Slug
	}
	return ""
}
