package catalog

import (
	"context"
	"fmt"
	"testing"

	"cosmos/internal/models"
	"cosmos/internal/pkg/errors"
	"cosmos/internal/pkg/logger"
)

type stubSource struct {
	subjects []models.Subject
	err      error
	calls    int
}

func (s *stubSource) ListSubjects(ctx context.Context, limit int) ([]models.Subject, error) {
	s.calls++
	return s.subjects, s.err
}

var seed = []models.Subject{
	{ID: 1, Title: "Big Bang", TimeNorm: 0},
	{ID: 2, Title: "Recombination", TimeNorm: 0.37},
	{ID: 3, Title: "First Stars", TimeNorm: 0.55},
}

func TestLoadSelectsFirst(t *testing.T) {
	src := &stubSource{subjects: seed}
	c := New(src, logger.Discard())

	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 || src.calls != 1 {
		t.Fatalf("got %d subjects after %d calls", len(got), src.calls)
	}
	if sel := c.Selected(); sel == nil || sel.ID != 1 {
		t.Errorf("Selected = %+v, want subject 1", sel)
	}
}

func TestLoadEmpty(t *testing.T) {
	c := New(&stubSource{}, logger.Discard())
	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Selected() != nil {
		t.Error("expected no selection for an empty catalog")
	}
}

func TestLoadFailureLeavesCatalogEmpty(t *testing.T) {
	src := &stubSource{subjects: seed}
	c := New(src, logger.Discard())
	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	src.err = errors.RequestStatus("remotejob.list_subjects", 500)
	if _, err := c.Load(context.Background()); !errors.IsCode(err, errors.CodeRequest) {
		t.Fatalf("Load error = %v, want REQUEST_ERROR", err)
	}
	if len(c.Subjects()) != 0 || c.Selected() != nil {
		t.Error("expected empty catalog after failed load")
	}
	if c.LoadError() == nil {
		t.Error("expected load error to be kept")
	}
}

func TestLoadSkipsInvalidSubjects(t *testing.T) {
	src := &stubSource{subjects: []models.Subject{
		{ID: 1, Title: "Too late", TimeNorm: 1.5},
		{ID: 2, Title: "Recombination", TimeNorm: 0.37},
		{ID: 3, Title: "   ", TimeNorm: 0.5},
		{ID: 4, Title: "Too early", TimeNorm: -0.1},
	}}
	c := New(src, logger.Discard())

	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("got %+v", got)
	}
	if sel := c.Selected(); sel == nil || sel.ID != 2 {
		t.Errorf("Selected = %+v", sel)
	}
}

func TestSelect(t *testing.T) {
	src := &stubSource{subjects: seed}
	c := New(src, logger.Discard())
	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		id      int64
		wantErr bool
	}{
		{3, false},
		{2, false},
		{42, true},
		{0, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.id), func(t *testing.T) {
			err := c.Select(tt.id)
			if tt.wantErr {
				if !errors.IsNotFound(err) {
					t.Errorf("Select(%d) error = %v, want not found", tt.id, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select(%d): %v", tt.id, err)
			}
			if sel := c.Selected(); sel.ID != tt.id {
				t.Errorf("Selected = %d, want %d", sel.ID, tt.id)
			}
		})
	}
}

func TestReloadKeepsSelection(t *testing.T) {
	src := &stubSource{subjects: seed}
	c := New(src, logger.Discard())
	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.Select(3); err != nil {
		t.Fatalf("Select: %v", err)
	}

	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if sel := c.Selected(); sel.ID != 3 {
		t.Errorf("Selected = %d, want 3", sel.ID)
	}

	src.subjects = seed[:2]
	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if sel := c.Selected(); sel.ID != 1 {
		t.Errorf("Selected = %d, want fallback to 1", sel.ID)
	}
}

func TestSubjectsReturnsCopy(t *testing.T) {
	c := New(&stubSource{subjects: seed}, logger.Discard())
	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := c.Subjects()
	got[0].Title = "mutated"
	if c.Subjects()[0].Title != "Big Bang" {
		t.Error("Subjects must not expose internal storage")
	}
}
