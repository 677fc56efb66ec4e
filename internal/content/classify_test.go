package content

import (
	"slices"
	"testing"
	"time"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/testutil"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   bool
	}{
		{"steps first", "---\ntitle: a\n---\n\n## !!steps Intro\n", true},
		{"steps after whitespace", "---\ntitle: a\n---\n  \n\t## !!steps", true},
		{"prose first", "---\ntitle: a\n---\nHello\n\n## !!steps Later\n", false},
		{"plain heading", "---\ntitle: a\n---\n## Steps\n", false},
		{"no markers", "## !!steps Intro", false},
		{"single marker", "---\n## !!steps Intro", false},
		{"empty", "", false},
		{"marker in body keeps rest", "---\nt: 1\n---\n## !!steps A\n---\nmore", true},
		{"malformed yaml still classified", "---\n: [\n---\n## !!steps A", true},
		{"text before first marker", "junk---\nt: 1\n---\n## !!steps A", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify([]byte(tt.source)); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsScrollyPost(t *testing.T) {
	dir, svc := testService(t)
	testutil.WritePost(t, dir, "scrolly", testutil.DefaultMeta("S", "2024-01-01"), "\n## !!steps One\n\nx\n")
	testutil.WritePost(t, dir, "prose", testutil.DefaultMeta("P", "2024-01-01"), "Intro\n\n## !!steps One\n")
	testutil.WriteFile(t, dir, "nofm.mdx", "## !!steps One")

	cases := map[string]bool{
		"scrolly": true,
		"prose":   false,
		"nofm":    false,
		"missing": false,
		"../oops": false,
	}
	for slug, want := range cases {
		if got := svc.IsScrollyPost(slug); got != want {
			t.Errorf("IsScrollyPost(%q) = %v, want %v", slug, got, want)
		}
	}
}

func TestVisible(t *testing.T) {
	draft := models.Post{Slug: "d", Frontmatter: models.Frontmatter{Draft: true}}
	live := models.Post{Slug: "l"}

	if Visible(draft, models.ModeProduction) {
		t.Error("draft visible in production")
	}
	if !Visible(draft, models.ModeDevelopment) {
		t.Error("draft hidden in development")
	}
	if !Visible(live, models.ModeProduction) {
		t.Error("live post hidden in production")
	}

	got := FilterVisible([]models.Post{live, draft, live}, models.ModeProduction)
	if len(got) != 2 {
		t.Errorf("FilterVisible = %v", got)
	}
}

func TestSortByDate_Stable(t *testing.T) {
	day := func(d int) models.Frontmatter {
		return models.Frontmatter{Published: time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)}
	}
	posts := []models.Post{
		{Slug: "a", Frontmatter: day(1)},
		{Slug: "b", Frontmatter: day(3)},
		{Slug: "c", Frontmatter: day(1)},
		{Slug: "d", Frontmatter: day(3)},
		{Slug: "e", Frontmatter: day(2)},
	}
	SortByDate(posts)
	if got, want := slugsOf(posts), []string{"b", "d", "e", "a", "c"}; !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}
