package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"novel-planner/internal/application/feasibility"
	"novel-planner/internal/application/market"
	"novel-planner/internal/application/outline"
	"novel-planner/internal/application/pipeline"
	"novel-planner/internal/application/planning"
	"novel-planner/internal/application/validation"
	"novel-planner/internal/catalog"
	"novel-planner/internal/config"
	"novel-planner/internal/domain/repository"
	"novel-planner/internal/infrastructure/persistence/sqlite"
	"novel-planner/internal/interfaces/http/handler"
)

type echoGenerator struct{ calls int }

func (g *echoGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	g.calls++
	return fmt.Sprintf("第%d次生成：%s", g.calls, prompt), nil
}

func (g *echoGenerator) ModelName() string { return "echo" }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		ErrorCode string          `json:"error_code"`
		Details   string          `json:"details"`
		Result    json.RawMessage `json:"result"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cat := catalog.Default()
	svc := pipeline.NewService(pipeline.Deps{
		Artifacts:   repository.NewArtifacts(store),
		Transactor:  store,
		Acquirer:    market.NewAcquirer(nil),
		Scorer:      feasibility.NewScorer(cat),
		Synthesizer: outline.NewSynthesizer(cat),
		Gate:        validation.NewGate(validation.NewConsistencyValidator(cat), validation.NewCopyrightValidator(cat)),
		Projects:    validation.NewProjectValidator(cat),
		Planner:     planning.NewPlanner(cat),
		Content:     validation.NewContentFilter(cat),
		Generator:   &echoGenerator{},
	}, pipeline.Config{ContextChapters: 2, ContextMaxRunes: 2000})

	cfg := &config.Config{App: config.AppConfig{Name: "novel-planner", Version: "test", Env: "test"}}
	health := handler.NewHealthHandler("test", map[string]handler.Pinger{"storage": store}, nil)
	return New(cfg, Deps{Service: svc, Health: health}).Engine()
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, env
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, want, w.Body.String())
	}
}

func createProject(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/v1/projects", map[string]any{
		"name":              "九州问道",
		"summary":           "废灵根少年踏上修仙之路的故事",
		"genre":             "xianxia",
		"target_word_count": 250000,
	})
	expectStatus(t, w, http.StatusCreated)
	var p struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		TotalChapters uint32 `json:"total_chapters"`
	}
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatal(err)
	}
	if p.ID == "" || p.Status != "draft" {
		t.Fatalf("project = %+v", p)
	}
	if p.TotalChapters != 25 {
		t.Errorf("total_chapters = %d, want 25", p.TotalChapters)
	}
	return p.ID
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/health", "/live", "/ready"} {
		w, _ := do(t, r, http.MethodGet, path, nil)
		expectStatus(t, w, http.StatusOK)
	}
}

func TestRequestIDHeader(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestCreateProject_Invalid(t *testing.T) {
	r := newTestRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/projects", map[string]any{"name": "x", "genre": "western"})
	expectStatus(t, w, http.StatusBadRequest)
	if env.Error == nil || env.Error.ErrorCode != "1001" {
		t.Fatalf("error = %+v", env.Error)
	}
	if len(env.Error.Result) == 0 {
		t.Error("validation result missing from error detail")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestProjectNotFound(t *testing.T) {
	r := newTestRouter(t)
	w, env := do(t, r, http.MethodGet, "/api/v1/projects/missing", nil)
	expectStatus(t, w, http.StatusNotFound)
	if env.Error == nil || env.Error.ErrorCode != "3001" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestListProjects(t *testing.T) {
	r := newTestRouter(t)
	createProject(t, r)
	createProject(t, r)

	w, _ := do(t, r, http.MethodGet, "/api/v1/projects?page=1&page_size=1", nil)
	expectStatus(t, w, http.StatusOK)
	var resp struct {
		Data []json.RawMessage `json:"data"`
		Meta struct {
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 1 || resp.Meta.Total != 2 || resp.Meta.TotalPages != 2 {
		t.Errorf("items = %d, meta = %+v", len(resp.Data), resp.Meta)
	}
}

func TestAnalyze(t *testing.T) {
	r := newTestRouter(t)
	pid := createProject(t, r)

	w, _ := do(t, r, http.MethodGet, "/api/v1/projects/"+pid+"/feasibility", nil)
	expectStatus(t, w, http.StatusNotFound)

	w, env := do(t, r, http.MethodPost, "/api/v1/projects/"+pid+"/analyze", nil)
	expectStatus(t, w, http.StatusOK)
	var report struct {
		Provenance     string `json:"provenance"`
		Recommendation string `json:"recommendation"`
	}
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Provenance != "synthetic" {
		t.Errorf("provenance = %q", report.Provenance)
	}

	w, _ = do(t, r, http.MethodGet, "/api/v1/projects/"+pid+"/feasibility", nil)
	expectStatus(t, w, http.StatusOK)
}

func TestPlanningFlow(t *testing.T) {
	r := newTestRouter(t)
	pid := createProject(t, r)
	base := "/api/v1/projects/" + pid

	w, env := do(t, r, http.MethodPost, base+"/plan", nil)
	expectStatus(t, w, http.StatusNotFound)
	if env.Error.ErrorCode != "3002" {
		t.Errorf("error_code = %s", env.Error.ErrorCode)
	}

	w, _ = do(t, r, http.MethodPost, base+"/outline", nil)
	expectStatus(t, w, http.StatusCreated)

	w, _ = do(t, r, http.MethodPut, base+"/outline", map[string]any{})
	expectStatus(t, w, http.StatusBadRequest)

	w, _ = do(t, r, http.MethodPost, base+"/plan", nil)
	expectStatus(t, w, http.StatusConflict)

	w, env = do(t, r, http.MethodPost, base+"/outline/validate", nil)
	expectStatus(t, w, http.StatusOK)
	var verdict struct {
		Passed bool `json:"passed"`
	}
	if err := json.Unmarshal(env.Data, &verdict); err != nil {
		t.Fatal(err)
	}
	if !verdict.Passed {
		t.Fatalf("outline did not pass: %s", env.Data)
	}

	w, env = do(t, r, http.MethodPost, base+"/plan", nil)
	expectStatus(t, w, http.StatusCreated)
	var plan struct {
		TotalChapters      uint32   `json:"total_chapters"`
		PlotTwistPositions []uint32 `json:"plot_twist_positions"`
	}
	if err := json.Unmarshal(env.Data, &plan); err != nil {
		t.Fatal(err)
	}
	if plan.TotalChapters != 25 {
		t.Errorf("total_chapters = %d", plan.TotalChapters)
	}

	w, _ = do(t, r, http.MethodPost, base+"/outline", nil)
	expectStatus(t, w, http.StatusConflict)

	w, env = do(t, r, http.MethodPut, base+"/plan/chapters/3", map[string]any{
		"title":   "第3章 夜探藏经阁",
		"summary": "主角潜入藏经阁寻找功法",
	})
	expectStatus(t, w, http.StatusOK)
	var summary struct {
		Number uint32 `json:"number"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Number != 3 || summary.Title != "第3章 夜探藏经阁" {
		t.Errorf("summary = %+v", summary)
	}

	w, _ = do(t, r, http.MethodPut, base+"/plan/chapters/abc", map[string]any{"title": "x"})
	expectStatus(t, w, http.StatusBadRequest)
	w, _ = do(t, r, http.MethodPut, base+"/plan/chapters/3", map[string]any{"summary": "缺少标题"})
	expectStatus(t, w, http.StatusBadRequest)
	w, _ = do(t, r, http.MethodPut, base+"/plan/chapters/99", map[string]any{"title": "越界"})
	if w.Code < 400 || w.Code >= 500 {
		t.Errorf("out of range chapter status = %d", w.Code)
	}

	w, _ = do(t, r, http.MethodPost, base+"/chapters/1/generate", nil)
	expectStatus(t, w, http.StatusCreated)
	w, _ = do(t, r, http.MethodGet, base+"/chapters/1", nil)
	expectStatus(t, w, http.StatusOK)
	w, _ = do(t, r, http.MethodGet, base+"/chapters/2", nil)
	expectStatus(t, w, http.StatusNotFound)

	w, env = do(t, r, http.MethodGet, base+"/chapters", nil)
	expectStatus(t, w, http.StatusOK)
	var chapters []struct {
		Number uint32 `json:"number"`
		Model  string `json:"model"`
	}
	if err := json.Unmarshal(env.Data, &chapters); err != nil {
		t.Fatal(err)
	}
	if len(chapters) != 1 || chapters[0].Number != 1 || chapters[0].Model != "echo" {
		t.Errorf("chapters = %+v", chapters)
	}

	w, _ = do(t, r, http.MethodPost, base+"/chapters/2/jobs", nil)
	expectStatus(t, w, http.StatusServiceUnavailable)
	w, _ = do(t, r, http.MethodPost, base+"/chapters/jobs", map[string]any{"from": 4, "to": 2})
	expectStatus(t, w, http.StatusBadRequest)
	w, _ = do(t, r, http.MethodPost, base+"/chapters/jobs", map[string]any{"from": 2, "to": 4})
	expectStatus(t, w, http.StatusServiceUnavailable)

	w, env = do(t, r, http.MethodGet, base, nil)
	expectStatus(t, w, http.StatusOK)
	var p struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatal(err)
	}
	if p.Status != "writing" {
		t.Errorf("status = %q, want writing", p.Status)
	}
}
