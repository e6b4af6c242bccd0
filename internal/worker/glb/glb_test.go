package glb

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/qmuntal/gltf"
)

func TestMarkerX(t *testing.T) {
	tests := []struct {
		norm float64
		want float64
	}{
		{0, -0.8},
		{0.5, 0},
		{1, 0.8},
		{-1, -0.8},
		{2, 0.8},
	}
	for _, tt := range tests {
		if got := MarkerX(tt.norm); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MarkerX(%v) = %v, want %v", tt.norm, got, tt.want)
		}
	}
}

func TestEncodeFraming(t *testing.T) {
	data, err := Encode(Scene{EventID: 7, Title: "Recombination", Category: "epoch", TimeNorm: 0.25})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if len(data)%4 != 0 {
		t.Errorf("length %d is not 4-byte aligned", len(data))
	}
	if string(data[0:4]) != "glTF" {
		t.Errorf("magic = %q", data[0:4])
	}
	if got := binary.LittleEndian.Uint32(data[8:12]); int(got) != len(data) {
		t.Errorf("header length = %d, want %d", got, len(data))
	}

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Asset.Version != "2.0" || doc.Asset.Generator != "cosmos-worker" {
		t.Errorf("asset = %+v", doc.Asset)
	}
	if len(doc.Buffers) != 1 || doc.Buffers[0].URI != "" {
		t.Fatalf("expected one embedded buffer, got %d", len(doc.Buffers))
	}
	buf := doc.Buffers[0]
	if len(buf.Data) < buf.ByteLength {
		t.Errorf("buffer holds %d bytes, declares %d", len(buf.Data), buf.ByteLength)
	}
	for i, bv := range doc.BufferViews {
		if bv.ByteOffset+bv.ByteLength > buf.ByteLength {
			t.Errorf("buffer view %d overruns the buffer", i)
		}
	}
}

func TestEncodeGeometry(t *testing.T) {
	data, err := Encode(Scene{Title: "Present Day", TimeNorm: 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(doc.Meshes) != 2 || len(doc.Nodes) != 2 || len(doc.Accessors) != 4 || len(doc.Materials) != 2 {
		t.Fatalf("unexpected layout: %d meshes, %d nodes, %d accessors, %d materials",
			len(doc.Meshes), len(doc.Nodes), len(doc.Accessors), len(doc.Materials))
	}

	marker := doc.Nodes[1]
	if marker.Name != "marker" || marker.Mesh == nil || *marker.Mesh != 1 {
		t.Fatalf("marker node = %+v", marker)
	}
	if math.Abs(marker.Translation[0]-0.8) > 1e-6 {
		t.Errorf("marker x = %v, want 0.8", marker.Translation[0])
	}

	bin := doc.Buffers[0].Data
	// Every index must address a vertex of its own mesh.
	for _, mesh := range doc.Meshes {
		prim := mesh.Primitives[0]
		if prim.Indices == nil {
			t.Fatalf("%s: primitive has no indices", mesh.Name)
		}
		pos := doc.Accessors[prim.Attributes["POSITION"]]
		idx := doc.Accessors[*prim.Indices]
		if idx.ComponentType != gltf.ComponentUshort {
			t.Errorf("%s: index component type = %v", mesh.Name, idx.ComponentType)
		}
		view := doc.BufferViews[*idx.BufferView]
		start := view.ByteOffset + idx.ByteOffset
		if idx.Count%3 != 0 {
			t.Errorf("%s: %d indices is not a triangle list", mesh.Name, idx.Count)
		}
		for i := 0; i < idx.Count; i++ {
			v := binary.LittleEndian.Uint16(bin[start+2*i:])
			if int(v) >= pos.Count {
				t.Errorf("%s: index %d out of range (%d vertices)", mesh.Name, v, pos.Count)
			}
		}
		if len(pos.Min) != 3 || len(pos.Max) != 3 {
			t.Errorf("%s: POSITION needs min/max", mesh.Name)
		}
	}

	timeline := doc.Accessors[doc.Meshes[0].Primitives[0].Attributes["POSITION"]]
	if timeline.Count != 8 || math.Abs(timeline.Max[0]-timelineHalfLength) > 1e-6 {
		t.Errorf("timeline accessor = %+v", timeline)
	}
}

func TestEncodeExtras(t *testing.T) {
	data, err := Encode(Scene{
		EventID:     3,
		Title:       "First Stars",
		Category:    "structure",
		TimeRange:   "100-200 Myr",
		Description: "population III stars ignite",
		TimeNorm:    0.4,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	extras, ok := doc.Scenes[0].Extras.(map[string]any)
	if !ok {
		t.Fatalf("extras = %T", doc.Scenes[0].Extras)
	}
	if extras["title"] != "First Stars" || extras["time_range"] != "100-200 Myr" {
		t.Errorf("extras = %v", extras)
	}
	if extras["event_id"] != float64(3) || extras["time_norm"] != 0.4 {
		t.Errorf("extras = %v", extras)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	valid, err := Encode(Scene{Title: "x"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("glTF")},
		{"bad magic", append([]byte("gLTF"), valid[4:]...)},
		{"truncated", valid[:len(valid)-4]},
		{"json gltf", []byte(`{"asset":{"version":"2.0"}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}
