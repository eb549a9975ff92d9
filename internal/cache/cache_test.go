package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/domain"
	"github.com/san-kum/smokesim/internal/grid"
	"github.com/san-kum/smokesim/internal/sim"
)

var _ sim.PointCache = (*Memory)(nil)
var _ sim.PointCache = (*Run)(nil)

func testSnapshot(t *testing.T, highRes bool) *domain.Snapshot {
	t.Helper()
	d, err := domain.New(nil, domain.Options{Resolution: 4, HighRes: highRes, Amplify: 1})
	if err != nil {
		t.Fatalf("new domain failed: %v", err)
	}
	if err := d.Reset(mgl64.Translate3D(1, 2, 3), mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	d.Grid.Density[7] = 0.25
	d.Grid.Vz[3] = -1.5
	d.Grid.Obstacle[9] = grid.FlagOccupied | grid.FlagStatic
	if d.High != nil {
		d.High.Density[11] = 0.75
	}
	return d.Snapshot()
}

func TestCodecRoundTrip(t *testing.T) {
	for _, high := range []bool{false, true} {
		snap := testSnapshot(t, high)
		var buf bytes.Buffer
		if err := encodeSnapshot(&buf, snap); err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		got, err := decodeSnapshot(&buf)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if got.State != snap.State {
			t.Errorf("expected state %+v, got %+v", snap.State, got.State)
		}
		if !reflect.DeepEqual(got.Grid, snap.Grid) {
			t.Error("expected identical grid")
		}
		if !reflect.DeepEqual(got.High, snap.High) {
			t.Errorf("expected identical high resolution grid (high=%v)", high)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decodeSnapshot(bytes.NewReader([]byte("not a snapshot at all, really")))
	if !errors.Is(err, ErrBadSnapshot) {
		t.Errorf("expected ErrBadSnapshot, got %v", err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	if _, ok, _ := m.Read(1); ok {
		t.Error("expected miss on empty cache")
	}
	snap := testSnapshot(t, false)
	for _, f := range []int{3, 1, 2} {
		if err := m.Write(f, snap); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	if got := m.Frames(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("expected frames [1 2 3], got %v", got)
	}
	m.Invalidate(1)
	if got := m.Frames(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("expected frames [1], got %v", got)
	}
	got, ok, err := m.Read(1)
	if err != nil || !ok || got != snap {
		t.Errorf("expected cached snapshot, got %v %v %v", got, ok, err)
	}
}

func TestDiskRun(t *testing.T) {
	tmpDir := t.TempDir()
	d := NewDisk(tmpDir)
	if err := d.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	run, err := d.Create(RunMetadata{Preset: "plume", StartFrame: 1, EndFrame: 3, Resolution: 4, FPS: 25})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if run.ID() == "" {
		t.Error("expected non-empty run id")
	}

	if _, ok, err := run.Read(2); ok || err != nil {
		t.Errorf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	snap := testSnapshot(t, true)
	if err := run.Write(2, snap); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(run.Dir(), "frame_0002.bin.gz")); err != nil {
		t.Errorf("expected frame file: %v", err)
	}
	got, ok, err := run.Read(2)
	if err != nil || !ok {
		t.Fatalf("read failed: ok=%v err=%v", ok, err)
	}
	if got.Grid.Density[7] != 0.25 || got.High.Density[11] != 0.75 {
		t.Error("expected frame contents to survive the disk round trip")
	}

	stats := []sim.FrameStats{
		{Frame: 1, ResX: 4, ResY: 4, ResZ: 4, Cells: 64},
		{Frame: 2, ResX: 4, ResY: 4, ResZ: 4, Cells: 64, TotalDensity: 1.5, Resized: true},
	}
	if err := run.Finish(stats, map[string]float64{"total_density": 1.5}); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	meta, err := d.Load(run.ID())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Preset != "plume" {
		t.Errorf("expected preset 'plume', got '%s'", meta.Preset)
	}
	if meta.Frames != 2 {
		t.Errorf("expected 2 frames, got %d", meta.Frames)
	}
	if meta.Metrics["total_density"] != 1.5 {
		t.Errorf("expected total_density 1.5, got %f", meta.Metrics["total_density"])
	}

	loaded, err := d.LoadStats(run.ID())
	if err != nil {
		t.Fatalf("load stats failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(loaded))
	}
	if loaded[1].TotalDensity != 1.5 || !loaded[1].Resized || loaded[1].Res() != [3]int{4, 4, 4} {
		t.Errorf("expected frame 2 stats, got %+v", loaded[1])
	}

	reopened, err := d.Open(run.ID())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, ok, _ := reopened.Read(2); !ok {
		t.Error("expected reopened run to see frame 2")
	}
}

func TestDiskList(t *testing.T) {
	tmpDir := t.TempDir()
	d := NewDisk(tmpDir)

	runs, err := d.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := d.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	a, err := d.Create(RunMetadata{Preset: "wind"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	b, err := d.Create(RunMetadata{Preset: "wind"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if a.ID() == b.ID() {
		t.Errorf("expected distinct run ids, got %s twice", a.ID())
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "stray"), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	runs, err = d.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}
