package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/kiln/internal/apperr"
	"github.com/starford/kiln/internal/build"
	"github.com/starford/kiln/internal/docservice"
	"github.com/starford/kiln/internal/testutil"
)

var site = map[string]string{
	"index.md":          "---\ntitle: Home\n---\n# Home\n",
	"posts/first.md":    "---\ntitle: First\ntags: [go, web]\n---\nFirst\n",
	"posts/second.md":   "---\ntitle: Second\ntags: [go]\n---\nSecond\n",
	"posts/2024/old.md": "---\ntitle: Old\ntags: [\"qwik city\"]\n---\nOld\n",
}

type testEnvOpts struct {
	authEnabled bool
	token       string
	sse         http.Handler
	builder     docservice.Builder
}

// testEnv builds a small site into a temp index and mounts the router over it.
func testEnv(t *testing.T, o testEnvOpts) http.Handler {
	t.Helper()
	_, store := testutil.TestSite(t, site)
	_, out := testutil.TestOutput(t)
	idx := testutil.TestIndex(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	b := build.New(store, out, build.WithIndex(idx), build.WithLogger(logger))
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	var builder docservice.Builder = b
	if o.builder != nil {
		builder = o.builder
	}
	svc := docservice.NewService(store, idx, docservice.WithBuilder(builder), docservice.WithLogger(logger))
	return NewRouter(svc, o.authEnabled, o.token, o.sse)
}

func do(t *testing.T, router http.Handler, method, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestListDocuments(t *testing.T) {
	router := testEnv(t, testEnvOpts{})

	w := do(t, router, http.MethodGet, "/documents")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[DocumentListResponse](t, w)
	if resp.Total != 4 || len(resp.Documents) != 4 {
		t.Errorf("total = %d, len = %d", resp.Total, len(resp.Documents))
	}

	resp = decode[DocumentListResponse](t, do(t, router, http.MethodGet, "/documents?limit=1&offset=1"))
	if resp.Total != 4 || len(resp.Documents) != 1 {
		t.Errorf("paged total = %d, len = %d", resp.Total, len(resp.Documents))
	}
}

func TestListDocuments_Filters(t *testing.T) {
	router := testEnv(t, testEnvOpts{})

	resp := decode[DocumentListResponse](t, do(t, router, http.MethodGet, "/documents?tag=go"))
	if resp.Total != 2 {
		t.Errorf("tag=go total = %d, want 2", resp.Total)
	}

	resp = decode[DocumentListResponse](t, do(t, router, http.MethodGet, "/documents?taxonomy=2024"))
	if resp.Total != 1 || resp.Documents[0].Path != "posts/2024/old.md" {
		t.Errorf("taxonomy=2024 = %+v", resp)
	}

	w := do(t, router, http.MethodGet, "/documents?tag=go&taxonomy=posts")
	if w.Code != http.StatusBadRequest {
		t.Errorf("both filters = %d, want 400", w.Code)
	}
}

func TestGetDocument(t *testing.T) {
	router := testEnv(t, testEnvOpts{})

	for _, target := range []string{"/documents/posts/first.md", "/documents/posts%2Ffirst.md"} {
		w := do(t, router, http.MethodGet, target)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", target, w.Code)
		}
		doc := decode[DocumentDetail](t, w)
		if doc.Path != "posts/first.md" || doc.Title != "First" {
			t.Errorf("doc = %+v", doc)
		}
		if doc.Live == nil || doc.Live.Projection != `{ "title": "First", "tags": [ "go", "web" ] }` {
			t.Errorf("live = %+v", doc.Live)
		}
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	router := testEnv(t, testEnvOpts{})

	w := do(t, router, http.MethodGet, "/documents/nope.md")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing document = %d, want 404", w.Code)
	}
}

func TestCollections(t *testing.T) {
	router := testEnv(t, testEnvOpts{})

	groups := decode[GroupListResponse](t, do(t, router, http.MethodGet, "/collections"))
	if len(groups.Groups) != 3 {
		t.Fatalf("collections = %+v", groups)
	}

	w := do(t, router, http.MethodGet, "/collections/qwik%20city")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	g := decode[GroupResponse](t, w)
	if g.Name != "qwik city" || g.Total != 1 || g.Kind != "collection" {
		t.Errorf("group = %+v", g)
	}

	if w := do(t, router, http.MethodGet, "/collections/missing"); w.Code != http.StatusNotFound {
		t.Errorf("missing collection = %d, want 404", w.Code)
	}
}

func TestTaxonomies(t *testing.T) {
	router := testEnv(t, testEnvOpts{})

	groups := decode[GroupListResponse](t, do(t, router, http.MethodGet, "/taxonomies"))
	if len(groups.Groups) != 2 || groups.Groups[0].Name != "2024" || groups.Groups[1].Count != 3 {
		t.Fatalf("taxonomies = %+v", groups)
	}

	g := decode[GroupResponse](t, do(t, router, http.MethodGet, "/taxonomies/posts?limit=2"))
	if g.Total != 3 || len(g.Documents) != 2 {
		t.Errorf("posts = %+v", g)
	}
}

func TestBuildEndpoint(t *testing.T) {
	router := testEnv(t, testEnvOpts{})

	w := do(t, router, http.MethodPost, "/build")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	rep := decode[build.Report](t, w)
	if rep.Documents != 4 || rep.Skipped != 4 {
		t.Errorf("report = %+v", rep)
	}
}

type busyBuilder struct{}

func (busyBuilder) Build(context.Context) (*build.Report, error) { return nil, apperr.ErrBuildRunning }

func TestBuildEndpoint_Running(t *testing.T) {
	router := testEnv(t, testEnvOpts{builder: busyBuilder{}})

	w := do(t, router, http.MethodPost, "/build")
	if w.Code != http.StatusConflict {
		t.Errorf("busy build = %d, want 409", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, testEnvOpts{authEnabled: true, token: "secret123"})

	w := do(t, router, http.MethodGet, "/documents", "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, testEnvOpts{authEnabled: true, token: "secret123"})

	w := do(t, router, http.MethodGet, "/documents")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, testEnvOpts{authEnabled: true, token: "secret123"})

	w := do(t, router, http.MethodGet, "/documents", "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testEnv(t, testEnvOpts{})

	w := do(t, router, http.MethodGet, "/collections")
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// Minimal SSE handler stub: writes headers and blocks until context done.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnv(t, testEnvOpts{authEnabled: true, token: "secret", sse: sseStub})

	w := do(t, router, http.MethodGet, "/events")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnv(t, testEnvOpts{authEnabled: true, token: "tok", sse: sseStub})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

func TestSSEEvents_NotMounted(t *testing.T) {
	router := testEnv(t, testEnvOpts{})

	w := do(t, router, http.MethodGet, "/events")
	if w.Code != http.StatusNotFound {
		t.Errorf("unmounted SSE = %d, want 404", w.Code)
	}
}
