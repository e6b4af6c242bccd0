package renderer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	contracts "cosmos/internal/contracts/renderer/v0"
	"cosmos/internal/pkg/errors"
)

func TestRenderPostsSpec(t *testing.T) {
	var got contracts.RendererSpec
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/render" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	spec := contracts.RendererSpec{JobID: 9, Params: map[string]any{"event_title": "Present Day"}}
	spec.Output.ModelObjectKey = "renders/9/model.glb"

	if err := NewHTTPClient(srv.URL+"/").Render(context.Background(), spec); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got.JobID != 9 || got.Output.ModelObjectKey != "renders/9/model.glb" {
		t.Errorf("spec = %+v", got)
	}
}

func TestRenderNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.URL).Render(context.Background(), contracts.RendererSpec{JobID: 1})
	if !errors.IsCode(err, errors.CodeRequest) {
		t.Fatalf("err = %v, want REQUEST_ERROR", err)
	}
	if errors.GetFields(err)["status"] != http.StatusInternalServerError {
		t.Errorf("fields = %v", errors.GetFields(err))
	}
}

func TestRenderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTPClient(url).Render(context.Background(), contracts.RendererSpec{JobID: 1})
	if !errors.IsCode(err, errors.CodeRequest) {
		t.Fatalf("err = %v, want REQUEST_ERROR", err)
	}
}
