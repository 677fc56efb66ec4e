// Package models defines the domain types for folio.
package models

import (
	"fmt"
	"strings"
	"time"
)

// RawDocument is a content file as read from disk, before any parsing.
type RawDocument struct {
	Slug   string
	Source []byte
}

// Frontmatter is the metadata block at the top of every post.
type Frontmatter struct {
	Title       string       `yaml:"title" json:"title"`
	Description string       `yaml:"description" json:"description"`
	Date        string       `yaml:"date" json:"date"`
	Topic       string       `yaml:"topic" json:"topic"`
	Image       string       `yaml:"image" json:"image"`
	Draft       bool         `yaml:"draft" json:"draft,omitempty"`
	Kind        DocumentKind `yaml:"kind" json:"kind,omitempty"`

	// Published is Date resolved to an instant. It is filled by the parser.
	Published time.Time `yaml:"-" json:"-"`
}

// Post is a listed document: its slug plus parsed frontmatter. The body is
// not retained; render on demand instead.
type Post struct {
	Slug        string       `json:"slug"`
	Frontmatter Frontmatter  `json:"frontmatter"`
	Kind        DocumentKind `json:"kind"`
}

// RenderedPost is a single post compiled to HTML.
type RenderedPost struct {
	Post
	HTML  string `json:"html"`
	Steps int    `json:"steps"`
}

// BuildMode selects the visibility policy for listings.
type BuildMode string

const (
	ModeProduction  BuildMode = "production"
	ModeDevelopment BuildMode = "development"
)

// ParseBuildMode accepts "production"/"prod" and "development"/"dev",
// case-insensitively.
func ParseBuildMode(s string) (BuildMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return ModeProduction, nil
	case "development", "dev":
		return ModeDevelopment, nil
	}
	return "", fmt.Errorf("models: unknown build mode %q", s)
}

// UnmarshalText lets BuildMode be decoded directly from config files.
func (m *BuildMode) UnmarshalText(text []byte) error {
	parsed, err := ParseBuildMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m BuildMode) String() string { return string(m) }

// DocumentKind is the rendering strategy a post is written for.
type DocumentKind string

const (
	// KindSteps marks a post that is a pure step sequence ("scrolly").
	KindSteps DocumentKind = "steps"
	// KindProse marks a regular article that may embed step sequences.
	KindProse DocumentKind = "prose"
)

// Valid reports whether k is a known kind. The empty kind is not valid.
func (k DocumentKind) Valid() bool {
	return k == KindSteps || k == KindProse
}
