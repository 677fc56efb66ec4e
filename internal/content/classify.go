package content

import (
	"strings"

	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/logfields"
	"github.com/starford/folio/internal/models"
)

// Classify reports whether source is a pure step sequence: everything after
// the second marker, trimmed, opens with the steps heading. It only looks at
// text and never fails.
func Classify(source []byte) bool {
	parts := strings.Split(string(source), frontmatter.Marker)
	if len(parts) < 3 {
		return false
	}
	return frontmatter.BodyKind(strings.Join(parts[2:], frontmatter.Marker)) == models.KindSteps
}

// IsScrollyPost reads the post's file directly and classifies it. A missing
// or unreadable file is simply not scrolly.
func (s *Service) IsScrollyPost(slug string) bool {
	if slug == "" {
		return false
	}
	data, err := s.store.Read(slug + s.ext)
	if err != nil {
		s.logger.Debug("content: classify read failed", logfields.Slug(slug), logfields.Error(err))
		return false
	}
	return Classify(data)
}
