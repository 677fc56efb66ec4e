package content

import "github.com/starford/folio/internal/models"

// Visible reports whether p is listed under mode. Production hides drafts;
// development shows everything.
func Visible(p models.Post, mode models.BuildMode) bool {
	return mode != models.ModeProduction || !p.Frontmatter.Draft
}

// FilterVisible keeps the posts visible under mode, in their original order.
func FilterVisible(posts []models.Post, mode models.BuildMode) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if Visible(p, mode) {
			out = append(out, p)
		}
	}
	return out
}
