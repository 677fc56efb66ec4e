// Package frontmatter separates a post's YAML metadata block from its body
// and validates the metadata.
package frontmatter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// Marker delimits the metadata block.
const Marker = "---"

// StepsHeading opens a step sequence. A body that starts with it is a
// pure step sequence.
const StepsHeading = "## !!steps"

// dateLayouts are tried in order when resolving the date field.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

const bom = "\uFEFF"

// Document is a parsed source: metadata plus the untouched body.
type Document struct {
	Frontmatter models.Frontmatter
	Body        string
	// Kind is the explicit frontmatter kind, or the one inferred from Body.
	Kind models.DocumentKind
}

// Split cuts source on every Marker. The first segment must be blank, the
// second is the metadata and the rest, rejoined with Marker, is the body.
// A leading byte order mark is ignored.
func Split(source string) (meta, body string, err error) {
	source = strings.TrimPrefix(source, bom)
	parts := strings.Split(source, Marker)
	if len(parts) < 3 {
		return "", "", fmt.Errorf("frontmatter: %w: expected two %q markers, found %d",
			apperr.ErrMalformedFrontmatter, Marker, len(parts)-1)
	}
	if strings.TrimSpace(parts[0]) != "" {
		return "", "", fmt.Errorf("frontmatter: %w: content before opening marker", apperr.ErrMalformedFrontmatter)
	}
	return parts[1], strings.Join(parts[2:], Marker), nil
}

// Parse splits source, decodes and validates its metadata, and resolves
// the publication date and the document kind.
func Parse(source []byte) (*Document, error) {
	meta, body, err := Split(string(source))
	if err != nil {
		return nil, err
	}

	var fm models.Frontmatter
	if err := yaml.Unmarshal([]byte(meta), &fm); err != nil {
		return nil, fmt.Errorf("frontmatter: %w: %w", apperr.ErrMalformedFrontmatter, err)
	}
	if err := validate(&fm); err != nil {
		return nil, fmt.Errorf("frontmatter: %w: %w", apperr.ErrMalformedFrontmatter, err)
	}

	fm.Published, _ = ParseDate(fm.Date)
	kind := fm.Kind
	if kind == "" {
		kind = BodyKind(body)
	}
	return &Document{Frontmatter: fm, Body: body, Kind: kind}, nil
}

func validate(fm *models.Frontmatter) error {
	return validation.ValidateStruct(fm,
		validation.Field(&fm.Title, validation.Required),
		validation.Field(&fm.Description, validation.Required),
		validation.Field(&fm.Date, validation.Required, validation.By(checkDate)),
		validation.Field(&fm.Topic, validation.Required),
		validation.Field(&fm.Image, validation.Required),
		validation.Field(&fm.Kind, validation.In(models.KindSteps, models.KindProse)),
	)
}

func checkDate(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := ParseDate(s)
	return err
}

var errBadDate = errors.New("not a recognised date")

// ParseDate resolves s with the first matching layout.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errBadDate, s)
}

// BodyKind reports KindSteps when the trimmed body opens with StepsHeading.
func BodyKind(body string) models.DocumentKind {
	if strings.HasPrefix(strings.TrimSpace(body), StepsHeading) {
		return models.KindSteps
	}
	return models.KindProse
}
