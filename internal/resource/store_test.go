package resource

import (
	"bytes"
	"testing"
)

func TestAcquireOpenRelease(t *testing.T) {
	s := NewStore()
	data := []byte("glTF")

	h := s.Acquire(data, "model/gltf-binary")
	if h.IsZero() {
		t.Fatal("expected non-zero handle")
	}
	if h.Size != 4 || h.Path() != "/models/"+h.Token {
		t.Errorf("unexpected handle %+v", h)
	}

	got, ct, ok := s.Open(h.Token)
	if !ok || !bytes.Equal(got, data) || ct != "model/gltf-binary" {
		t.Fatalf("Open = (%q, %q, %v)", got, ct, ok)
	}

	if !s.Release(h) {
		t.Fatal("expected first release to succeed")
	}
	if _, _, ok := s.Open(h.Token); ok {
		t.Error("expected released handle to be unreachable")
	}
	if s.Release(h) {
		t.Error("expected second release to report false")
	}

	st := s.Stats()
	if st.Acquired != 1 || st.Released != 1 || st.Live != 0 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestTokensAreUnique(t *testing.T) {
	s := NewStore()
	a := s.Acquire(nil, "")
	b := s.Acquire(nil, "")
	if a.Token == b.Token {
		t.Fatal("expected distinct tokens")
	}
	if s.Live() != 2 {
		t.Errorf("Live = %d, want 2", s.Live())
	}
}

func TestZeroHandle(t *testing.T) {
	s := NewStore()
	var h Handle
	if !h.IsZero() || h.Path() != "" {
		t.Errorf("unexpected zero handle %+v", h)
	}
	if s.Release(h) {
		t.Error("releasing the zero handle should report false")
	}
}
