package content

import (
	"slices"

	"github.com/starford/folio/internal/models"
)

// SortByDate orders posts newest first. Posts with equal dates keep their
// relative order.
func SortByDate(posts []models.Post) {
	slices.SortStableFunc(posts, func(a, b models.Post) int {
		return b.Frontmatter.Published.Compare(a.Frontmatter.Published)
	})
}
