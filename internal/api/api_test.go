package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/testutil"
	"github.com/starford/folio/internal/transform"
	"github.com/starford/folio/internal/watch"
)

type testEnv struct {
	dir    string
	svc    *content.Service
	db     *catalog.DB
	router http.Handler
}

// newTestEnv sets up a temp content directory, catalogue, service and router.
// An empty token means auth is disabled.
func newTestEnv(t *testing.T, token string, sseHandler http.Handler) *testEnv {
	t.Helper()

	dir, store := testutil.TestContent(t)
	stages, err := transform.DefaultStages(transform.HighlightOptions{Classes: true})
	if err != nil {
		t.Fatal(err)
	}
	pipeline, err := transform.New(stages)
	if err != nil {
		t.Fatal(err)
	}
	svc := content.NewService(store, pipeline)
	db := testutil.TestCatalog(t)

	router := NewRouter(svc, db, models.ModeProduction, token != "", token, sseHandler)
	return &testEnv{dir: dir, svc: svc, db: db, router: router}
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func seed(t *testing.T, dir string) {
	t.Helper()
	testutil.WritePost(t, dir, "older", testutil.DefaultMeta("Older", "2023-03-01"), "Plain prose about a lighthouse.\n")
	testutil.WritePost(t, dir, "newer", testutil.DefaultMeta("Newer", "2024-05-10"), "## !!steps One\n\nfirst\n\n## !!steps Two\n\nsecond\n")
	draft := testutil.DefaultMeta("Draft", "2025-01-01")
	draft.Draft = true
	testutil.WritePost(t, dir, "draft", draft, "not yet\n")
}

func TestListPosts(t *testing.T) {
	env := newTestEnv(t, "", nil)
	seed(t, env.dir)

	w := env.get(t, "/posts")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[PostListResponse](t, w)
	if resp.Mode != models.ModeProduction {
		t.Errorf("mode = %q", resp.Mode)
	}
	if len(resp.Posts) != 2 || resp.Posts[0].Slug != "newer" || resp.Posts[1].Slug != "older" {
		t.Errorf("posts = %+v", resp.Posts)
	}
	if resp.Posts[0].Kind != models.KindSteps {
		t.Errorf("kind = %q, want steps", resp.Posts[0].Kind)
	}

	w = env.get(t, "/posts?mode=dev")
	resp = decode[PostListResponse](t, w)
	if len(resp.Posts) != 3 || resp.Posts[0].Slug != "draft" {
		t.Errorf("development posts = %+v", resp.Posts)
	}
}

func TestListPosts_Empty(t *testing.T) {
	env := newTestEnv(t, "", nil)
	w := env.get(t, "/posts")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"posts":[]`) {
		t.Errorf("body = %s, want empty array", w.Body.String())
	}
}

func TestListSlugs(t *testing.T) {
	env := newTestEnv(t, "", nil)
	seed(t, env.dir)

	resp := decode[SlugListResponse](t, env.get(t, "/slugs"))
	if strings.Join(resp.Slugs, ",") != "newer,older" {
		t.Errorf("slugs = %v", resp.Slugs)
	}
}

func TestBadMode(t *testing.T) {
	env := newTestEnv(t, "", nil)
	for _, target := range []string{"/posts?mode=staging", "/slugs?mode=x", "/posts/a?mode=x"} {
		if w := env.get(t, target); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, w.Code)
		}
	}
}

func TestListPosts_MalformedFrontmatter(t *testing.T) {
	env := newTestEnv(t, "", nil)
	seed(t, env.dir)
	testutil.WriteFile(t, env.dir, "broken.mdx", "---\ntitle: Only a title\n---\nbody\n")

	w := env.get(t, "/posts")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decode[errResponse](t, w)
	if body.Slug != "broken" || body.Kind != "malformed frontmatter" {
		t.Errorf("error body = %+v", body)
	}
}

func TestListPosts_TransformFailure(t *testing.T) {
	env := newTestEnv(t, "", nil)
	testutil.WritePost(t, env.dir, "odd", testutil.DefaultMeta("Odd", "2024-01-01"), "## !!carousel Nope\n\ntext\n")

	w := env.get(t, "/posts")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decode[errResponse](t, w)
	if body.Slug != "odd" || body.Kind != "transform failure" {
		t.Errorf("error body = %+v", body)
	}
}

func TestListPosts_DirectoryGone(t *testing.T) {
	env := newTestEnv(t, "", nil)
	if err := os.RemoveAll(env.dir); err != nil {
		t.Fatal(err)
	}
	w := env.get(t, "/posts")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if body := decode[errResponse](t, w); body.Error != "internal error" {
		t.Errorf("error body = %+v", body)
	}
}

func TestGetPost(t *testing.T) {
	env := newTestEnv(t, "", nil)
	seed(t, env.dir)

	w := env.get(t, "/posts/newer")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	post := decode[models.RenderedPost](t, w)
	if post.Slug != "newer" || post.Steps != 2 {
		t.Errorf("post = %+v", post)
	}
	if !strings.Contains(post.HTML, `<section class="steps" data-count="2">`) {
		t.Errorf("html = %s", post.HTML)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	env := newTestEnv(t, "", nil)
	seed(t, env.dir)

	for _, target := range []string{"/posts/missing", "/posts/draft"} {
		if w := env.get(t, target); w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, w.Code)
		}
	}
	if w := env.get(t, "/posts/draft?mode=development"); w.Code != http.StatusOK {
		t.Errorf("draft in development: status = %d", w.Code)
	}
}

func TestScrolly(t *testing.T) {
	env := newTestEnv(t, "", nil)
	seed(t, env.dir)

	tests := []struct {
		slug string
		want bool
	}{
		{"newer", true},
		{"older", false},
		{"missing", false},
	}
	for _, tt := range tests {
		w := env.get(t, "/posts/"+tt.slug+"/scrolly")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.slug, w.Code)
		}
		resp := decode[ScrollyResponse](t, w)
		if resp.Slug != tt.slug || resp.Scrolly != tt.want {
			t.Errorf("%s: resp = %+v, want scrolly=%v", tt.slug, resp, tt.want)
		}
	}
}

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv(t, "", nil)
	seed(t, env.dir)
	if _, err := watch.Sync(context.Background(), env.svc, env.db, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	w := env.get(t, "/search?q=lighthouse")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[SearchResponse](t, w)
	if len(resp.Results) != 1 || resp.Results[0].Slug != "older" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	env := newTestEnv(t, "", nil)
	if w := env.get(t, "/search"); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchWithoutCatalog(t *testing.T) {
	_, store := testutil.TestContent(t)
	stages, _ := transform.DefaultStages(transform.HighlightOptions{})
	pipeline, err := transform.New(stages)
	if err != nil {
		t.Fatal(err)
	}
	router := NewRouter(content.NewService(store, pipeline), nil, "", false, "", nil)

	req := httptest.NewRequest(http.MethodGet, "/search?q=x", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, "secret", nil)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer secret", http.StatusOK},
		{"missing token", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/slugs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate challenge")
			}
		})
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	env := newTestEnv(t, "", nil)
	if w := env.get(t, "/slugs"); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	env := newTestEnv(t, "tok", blockingSSE)
	if w := env.get(t, "/events"); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	env := newTestEnv(t, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
}
