package viewer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cosmos/internal/catalog"
	"cosmos/internal/httpkit"
	"cosmos/internal/models"
	"cosmos/internal/orchestrator"
	"cosmos/internal/pkg/errors"
	"cosmos/internal/pkg/logger"
	"cosmos/internal/remotejob"
	"cosmos/internal/resource"
)

type fakeService struct {
	subjects []models.Subject
	listErr  error
}

func (f *fakeService) ListSubjects(ctx context.Context, limit int) ([]models.Subject, error) {
	return f.subjects, f.listErr
}

func (f *fakeService) Submit(ctx context.Context, subjectID int64) (models.RenderJob, error) {
	return models.RenderJob{ID: subjectID + 10, Status: models.JobQueued}, nil
}

func (f *fakeService) Poll(ctx context.Context, jobID int64) (models.RenderJob, error) {
	return models.RenderJob{ID: jobID, Status: models.JobDone, Message: "render complete"}, nil
}

func (f *fakeService) FetchAsset(ctx context.Context, jobID int64) (remotejob.Asset, error) {
	return remotejob.Asset{Data: []byte("glTF-model"), ContentType: "model/gltf-binary"}, nil
}

type testEnv struct {
	svc   *fakeService
	cat   *catalog.Catalog
	orch  *orchestrator.Orchestrator
	store *resource.Store
	h     http.Handler
}

func newEnv(t *testing.T, subjects []models.Subject) *testEnv {
	t.Helper()
	log := logger.Discard()
	svc := &fakeService{subjects: subjects}
	cat := catalog.New(svc, log)
	if _, err := cat.Load(context.Background()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	store := resource.NewStore()
	orch := orchestrator.New(orchestrator.Config{PollInterval: time.Millisecond}, svc, store, log)
	t.Cleanup(func() { _ = orch.Close(context.Background()) })

	return &testEnv{
		svc:   svc,
		cat:   cat,
		orch:  orch,
		store: store,
		h:     NewRouter(Deps{Catalog: cat, Orchestrator: orch, Store: store, Log: log}),
	}
}

func (e *testEnv) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

var subjects = []models.Subject{
	{ID: 1, Title: "Big Bang", TimeNorm: 0},
	{ID: 2, Title: "Recombination", TimeNorm: 0.37},
}

func TestHealth(t *testing.T) {
	env := newEnv(t, subjects)
	rec := env.do(t, http.MethodGet, "/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestSubjects(t *testing.T) {
	env := newEnv(t, subjects)

	rec := env.do(t, http.MethodGet, "/subjects")
	body := decode[subjectsResponse](t, rec)
	if len(body.Subjects) != 2 || body.SelectedID == nil || *body.SelectedID != 1 {
		t.Fatalf("subjects = %+v", body)
	}
	if body.TimeLabel != "Big Bang · normalized 0.000%" {
		t.Errorf("time label = %q", body.TimeLabel)
	}

	tests := []struct {
		path     string
		status   int
		wantCode string
	}{
		{"/subjects/abc/select", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"/subjects/9/select", http.StatusNotFound, "NOT_FOUND"},
		{"/subjects/2/select", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.wantCode != "" {
				if env := decode[httpkit.ErrorEnvelope](t, rec); env.Error.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", env.Error.Code, tt.wantCode)
				}
			}
		})
	}

	body = decode[subjectsResponse](t, env.do(t, http.MethodGet, "/subjects"))
	if *body.SelectedID != 2 || body.TimeLabel != "Recombination · normalized 37.000%" {
		t.Errorf("after select = %+v", body)
	}
}

func TestReloadFailure(t *testing.T) {
	env := newEnv(t, subjects)
	env.svc.listErr = errors.RequestStatus("remotejob.list_subjects", 503)

	rec := env.do(t, http.MethodPost, "/subjects/reload")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	body := decode[subjectsResponse](t, env.do(t, http.MethodGet, "/subjects"))
	if len(body.Subjects) != 0 || body.SelectedID != nil || body.LoadError == "" {
		t.Errorf("after failed reload = %+v", body)
	}
}

func TestRenderWithoutSelection(t *testing.T) {
	env := newEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/render")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env := decode[httpkit.ErrorEnvelope](t, rec); env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", env.Error.Code)
	}
	if snap := env.orch.Snapshot(); snap.Message != orchestrator.MsgSelectSubject {
		t.Errorf("message = %q", snap.Message)
	}
}

func TestRenderLifecycle(t *testing.T) {
	env := newEnv(t, subjects)

	rec := env.do(t, http.MethodPost, "/render")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var body renderResponse
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		body = decode[renderResponse](t, env.do(t, http.MethodGet, "/render"))
		if body.State == orchestrator.StateReady {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if body.State != orchestrator.StateReady || body.ModelURL == "" {
		t.Fatalf("render = %+v", body)
	}
	if body.Job == nil || body.Job.ID != 11 {
		t.Errorf("job = %+v", body.Job)
	}

	model := env.do(t, http.MethodGet, body.ModelURL)
	if model.Code != http.StatusOK || model.Body.String() != "glTF-model" {
		t.Fatalf("model = %d %q", model.Code, model.Body.String())
	}
	if ct := model.Header().Get("Content-Type"); ct != "model/gltf-binary" {
		t.Errorf("content type = %q", ct)
	}

	events := decode[struct {
		Events  []orchestrator.Event `json:"events"`
		LastSeq int64                `json:"last_seq"`
	}](t, env.do(t, http.MethodGet, "/render/events?since=0"))
	if len(events.Events) == 0 || events.LastSeq != events.Events[len(events.Events)-1].Seq {
		t.Errorf("events = %+v", events)
	}
	if rec := env.do(t, http.MethodGet, "/render/events?since=-1"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad since status = %d", rec.Code)
	}

	if err := env.orch.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rec := env.do(t, http.MethodGet, body.ModelURL); rec.Code != http.StatusNotFound {
		t.Errorf("released model status = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/render"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("render after close status = %d, want 503", rec.Code)
	}
}
