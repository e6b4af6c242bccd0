// Package glb writes the placeholder model produced by the built-in
// renderer: a glTF 2.0 binary holding a timeline bar and a marker placed
// at the event's normalized time.
package glb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

const (
	headerLen = 12

	// Timeline geometry, in model units.
	timelineHalfLength = 0.8
	timelineHalfWidth  = 0.02
	markerRadius       = 0.08

	generator = "cosmos-worker"
)

var magic = []byte("glTF")

// Scene is the event metadata baked into the model.
type Scene struct {
	EventID     int64
	Title       string
	Category    string
	TimeRange   string
	Description string
	TimeNorm    float64
}

func (s Scene) extras() map[string]any {
	return map[string]any{
		"event_id":    s.EventID,
		"title":       s.Title,
		"category":    s.Category,
		"time_range":  s.TimeRange,
		"description": s.Description,
		"time_norm":   s.TimeNorm,
	}
}

// MarkerX returns the marker's x position for timeNorm, clamped to the bar.
func MarkerX(timeNorm float64) float64 {
	t := math.Max(0, math.Min(1, timeNorm))
	return -timelineHalfLength + 2*timelineHalfLength*t
}

type geometry struct {
	positions [][3]float32
	indices   []uint16
}

func box(hx, hy, hz float32) geometry {
	return geometry{
		positions: [][3]float32{
			{-hx, -hy, -hz},
			{hx, -hy, -hz},
			{hx, hy, -hz},
			{-hx, hy, -hz},
			{-hx, -hy, hz},
			{hx, -hy, hz},
			{hx, hy, hz},
			{-hx, hy, hz},
		},
		indices: []uint16{
			0, 2, 1, 0, 3, 2, // -z
			4, 5, 6, 4, 6, 7, // +z
			0, 1, 5, 0, 5, 4, // -y
			3, 7, 6, 3, 6, 2, // +y
			0, 4, 7, 0, 7, 3, // -x
			1, 2, 6, 1, 6, 5, // +x
		},
	}
}

func octahedron(r float32) geometry {
	return geometry{
		positions: [][3]float32{
			{r, 0, 0},
			{-r, 0, 0},
			{0, r, 0},
			{0, -r, 0},
			{0, 0, r},
			{0, 0, -r},
		},
		indices: []uint16{
			0, 2, 4, 1, 4, 2, 0, 4, 3, 1, 3, 4,
			0, 5, 2, 1, 2, 5, 0, 3, 5, 1, 5, 3,
		},
	}
}

func material(name string, color [4]float64, roughness float64) *gltf.Material {
	return &gltf.Material{
		Name: name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &color,
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(roughness),
		},
	}
}

// Document builds the glTF document for s. Geometry lives in the first
// buffer, which the binary encoder writes as the BIN chunk.
func Document(s Scene) *gltf.Document {
	doc := &gltf.Document{
		Asset:   gltf.Asset{Version: "2.0", Generator: generator},
		Buffers: []*gltf.Buffer{{}},
		Scene:   gltf.Index(0),
		Scenes: []*gltf.Scene{{
			Name:   s.Title,
			Nodes:  []int{0, 1},
			Extras: s.extras(),
		}},
		Materials: []*gltf.Material{
			material("timeline", [4]float64{0.55, 0.6, 0.75, 1}, 0.8),
			material("marker", [4]float64{1, 0.75, 0.2, 1}, 0.4),
		},
	}

	parts := []struct {
		name string
		geometry
	}{
		{"timeline", box(timelineHalfLength, timelineHalfWidth, timelineHalfWidth)},
		{"marker", octahedron(markerRadius)},
	}
	for i, p := range parts {
		position := modeler.WritePosition(doc, p.positions)
		indices := modeler.WriteIndices(doc, p.indices)
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: p.name,
			Primitives: []*gltf.Primitive{{
				Attributes: map[string]int{"POSITION": position},
				Indices:    gltf.Index(indices),
				Material:   gltf.Index(i),
			}},
		})
	}

	doc.Nodes = []*gltf.Node{
		{Name: "timeline", Mesh: gltf.Index(0)},
		{Name: "marker", Mesh: gltf.Index(1), Translation: [3]float64{MarkerX(s.TimeNorm), 0, 0}},
	}
	return doc
}

// Encode builds the GLB for s.
func Encode(s Scene) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the GLB for s to w.
func Write(w io.Writer, s Scene) error {
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(Document(s)); err != nil {
		return fmt.Errorf("glb: encode: %w", err)
	}
	return nil
}

// Parse decodes a GLB. Plain JSON glTF is rejected, and the header length
// must match the data.
func Parse(data []byte) (*gltf.Document, error) {
	if len(data) < headerLen || !bytes.HasPrefix(data, magic) {
		return nil, fmt.Errorf("glb: not a binary glTF")
	}
	if n := binary.LittleEndian.Uint32(data[8:12]); int(n) != len(data) {
		return nil, fmt.Errorf("glb: header length %d, have %d bytes", n, len(data))
	}

	var doc gltf.Document
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("glb: decode: %w", err)
	}
	return &doc, nil
}
