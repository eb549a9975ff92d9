package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/smokesim/internal/cache"
	"github.com/san-kum/smokesim/internal/sim"
	"github.com/san-kum/smokesim/internal/viz"
)

func TestSliceToSVG(t *testing.T) {
	s := &viz.Slice{
		Channel:  "density",
		Axis:     viz.AxisY,
		Width:    2,
		Height:   2,
		Values:   []float64{0, 1, 0.5, 0},
		Obstacle: []bool{false, false, false, true},
		Max:      1,
	}
	svg := SliceToSVG(s, 10, viz.ThemeSmoke)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("expected an svg document")
	}
	// Background plus two smoke cells and one obstacle.
	if got := strings.Count(svg, "<rect"); got != 4 {
		t.Errorf("expected 4 rects, got %d", got)
	}
	if !strings.Contains(svg, string(viz.ThemeSmoke.Obstacle)) {
		t.Error("expected obstacle colour")
	}
	if SliceToSVG(nil, 10, viz.ThemeSmoke) != "" {
		t.Error("expected empty output for nil slice")
	}
}

func TestSeriesToSVG(t *testing.T) {
	svg := SeriesToSVG([]float64{1, 2, 3}, []float64{0, 4, 2}, 200, 100, "#00ff88")
	if strings.Count(svg, " L") != 2 {
		t.Errorf("expected 2 line segments, got %q", svg)
	}
	if SeriesToSVG([]float64{1}, []float64{1}, 10, 10, "#fff") != "" {
		t.Error("expected empty output for a single point")
	}
}

func TestExportJSON(t *testing.T) {
	meta := cache.RunMetadata{ID: "plume_1", Preset: "plume", Frames: 2, Metrics: map[string]float64{"total_density": 1.25}}
	frames := []sim.FrameStats{{Frame: 1, Cells: 64}, {Frame: 2, Cells: 64, TotalDensity: 2.5}}

	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, meta, frames); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var got ExportData
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.Run.Preset != "plume" || len(got.Frames) != 2 {
		t.Errorf("unexpected export %+v", got)
	}
	if got.Frames[1].TotalDensity != 2.5 || got.Metrics["total_density"] != 1.25 {
		t.Errorf("expected frame and metric values, got %+v", got)
	}
	if !bytes.Contains(raw, []byte(`"total_density"`)) {
		t.Error("expected snake case field names")
	}
}
