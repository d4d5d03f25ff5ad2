package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/vos/internal/siteservice"
	"github.com/starford/vos/internal/testutil"
)

// testEnv builds the sample site and returns a router over it. An empty
// token disables auth on the mutating routes.
func testEnv(t *testing.T, token string, build bool) (http.Handler, string) {
	t.Helper()
	b, outDir := testutil.TestBuilder(t, testutil.SiteTree())
	if build {
		if _, err := b.Build(context.Background()); err != nil {
			t.Fatalf("Build: %v", err)
		}
	}
	svc := siteservice.NewService(b, testutil.Media, 1)
	return NewRouter(svc, token, nil), outDir
}

func do(t *testing.T, h http.Handler, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestListArtifacts(t *testing.T) {
	router, _ := testEnv(t, "", true)

	w := do(t, router, http.MethodGet, "/artifacts?tag=x", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ArtifactListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
}

func TestGetArtifact(t *testing.T) {
	router, _ := testEnv(t, "", true)

	w := do(t, router, http.MethodGet, "/artifacts/Beta", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var a siteservice.ArtifactDetail
	_ = json.Unmarshal(w.Body.Bytes(), &a)
	if a.Name != "Beta" || !strings.Contains(a.Content, "localLink") {
		t.Errorf("unexpected artifact: %+v", a)
	}

	w = do(t, router, http.MethodGet, "/artifacts/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing artifact = %d, want 404", w.Code)
	}
}

func TestNotReady(t *testing.T) {
	router, _ := testEnv(t, "", false)
	w := do(t, router, http.MethodGet, "/artifacts", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestLogEndpoints(t *testing.T) {
	router, _ := testEnv(t, "", true)

	w := do(t, router, http.MethodGet, "/log/summary?project=vos", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary status = %d", w.Code)
	}
	var sum siteservice.LogSummary
	_ = json.Unmarshal(w.Body.Bytes(), &sum)
	if sum.Hours != 4 || sum.Logs != 3 {
		t.Errorf("summary = %+v", sum)
	}

	w = do(t, router, http.MethodGet, "/log/recent?count=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("recent status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"task":"Parser"`) || strings.Contains(w.Body.String(), `"task":"Styles"`) {
		t.Errorf("recent body = %s", w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/log/recent?count=-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative count = %d, want 400", w.Code)
	}
}

func TestRenderAndEvaluate(t *testing.T) {
	router, _ := testEnv(t, "", true)

	w := do(t, router, http.MethodPost, "/render", RenderRequest{Text: "=[x]"})
	if w.Code != http.StatusOK {
		t.Fatalf("render status = %d, body = %s", w.Code, w.Body.String())
	}
	var rendered RenderResponse
	_ = json.Unmarshal(w.Body.Bytes(), &rendered)
	if !strings.Contains(rendered.HTML, `<a href="Alpha" class="localLink">Alpha</a>`) {
		t.Errorf("render html = %q", rendered.HTML)
	}

	w = do(t, router, http.MethodPost, "/render", RenderRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty render = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPost, "/evaluate", EvaluateRequest{Expression: "logCount('vos')"})
	var ev EvaluateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &ev)
	if w.Code != http.StatusOK || ev.Result != "3" {
		t.Errorf("evaluate = %d %q", w.Code, ev.Result)
	}

	w = do(t, router, http.MethodPost, "/evaluate", EvaluateRequest{Expression: "missing()"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad expression = %d, want 422", w.Code)
	}
}

func TestRebuildRequiresToken(t *testing.T) {
	router, _ := testEnv(t, "secret", false)

	w := do(t, router, http.MethodPost, "/rebuild", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d, want 401", w.Code)
	}

	w = do(t, router, http.MethodPost, "/rebuild", nil, "Authorization", "Bearer secret")
	if w.Code != http.StatusOK {
		t.Fatalf("rebuild = %d, body = %s", w.Code, w.Body.String())
	}
	var resp RebuildResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Written) != 3 || len(resp.Failed) != 0 {
		t.Errorf("rebuild response = %+v", resp)
	}

	// Reads stay open.
	w = do(t, router, http.MethodGet, "/artifacts", nil)
	if w.Code != http.StatusOK {
		t.Errorf("list without token = %d, want 200", w.Code)
	}
}

func TestStaticHandler(t *testing.T) {
	_, outDir := testEnv(t, "", true)
	if err := os.WriteFile(filepath.Join(outDir, "style.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := NewStaticHandler(outDir)

	w := do(t, h, http.MethodGet, "/Beta", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("page status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, ReloadScript+"</body>") {
		t.Errorf("reload script not injected before </body>: %s", body)
	}

	w = do(t, h, http.MethodGet, "/style.css", nil)
	if w.Body.String() != "body{}" || strings.Contains(w.Body.String(), "EventSource") {
		t.Errorf("asset body = %q", w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/nothing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing page = %d, want 404", w.Code)
	}
}

func TestPageName(t *testing.T) {
	for in, want := range map[string]string{
		"/":             "/home.html",
		"/Beta":         "/beta.html",
		"/beta.html":    "/beta.html",
		"/../etc/x":     "/etc/x.html",
		"/assets/a.css": "/assets/a.css",
	} {
		if got := pageName(in); got != want {
			t.Errorf("pageName(%q) = %q, want %q", in, got, want)
		}
	}
}
