package cache

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/smokesim/internal/domain"
	"github.com/san-kum/smokesim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statsFile    = "frames.csv"
)

// Disk is a directory of runs. Each run holds metadata.json, frames.csv
// and one gzip compressed snapshot per frame.
type Disk struct {
	baseDir string
}

func NewDisk(baseDir string) *Disk {
	return &Disk{baseDir: baseDir}
}

func (d *Disk) Init() error {
	return os.MkdirAll(d.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	StartFrame int                `json:"start_frame"`
	EndFrame   int                `json:"end_frame"`
	Frames     int                `json:"frames"`
	Resolution int                `json:"resolution"`
	Adaptive   bool               `json:"adaptive"`
	FPS        float64            `json:"fps"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Run is one run directory. It implements sim.PointCache.
type Run struct {
	dir  string
	meta RunMetadata
}

// Create starts a new run directory named after the preset and the
// current time.
func (d *Disk) Create(meta RunMetadata) (*Run, error) {
	if meta.Preset == "" {
		meta.Preset = "run"
	}
	meta.Timestamp = time.Now()
	base := fmt.Sprintf("%s_%d", meta.Preset, meta.Timestamp.Unix())
	meta.ID = base
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(d.baseDir, meta.ID)); os.IsNotExist(err) {
			break
		}
		meta.ID = fmt.Sprintf("%s_%d", base, i)
	}

	r := &Run{dir: filepath.Join(d.baseDir, meta.ID), meta: meta}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, err
	}
	if err := r.writeMetadata(); err != nil {
		return nil, err
	}
	return r, nil
}

// Open returns an existing run for reading or appending frames.
func (d *Disk) Open(runID string) (*Run, error) {
	meta, err := d.Load(runID)
	if err != nil {
		return nil, err
	}
	return &Run{dir: filepath.Join(d.baseDir, runID), meta: *meta}, nil
}

func (d *Disk) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(d.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := d.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (d *Disk) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(d.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStats reads the per-frame statistics of a finished run.
func (d *Disk) LoadStats(runID string) ([]sim.FrameStats, error) {
	f, err := os.Open(filepath.Join(d.baseDir, runID, statsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var stats []sim.FrameStats
	if err := gocsv.UnmarshalFile(f, &stats); err != nil {
		return nil, fmt.Errorf("read %s: %w", statsFile, err)
	}
	return stats, nil
}

func (r *Run) ID() string            { return r.meta.ID }
func (r *Run) Dir() string           { return r.dir }
func (r *Run) Metadata() RunMetadata { return r.meta }

func (r *Run) framePath(frame int) string {
	return filepath.Join(r.dir, fmt.Sprintf("frame_%04d.bin.gz", frame))
}

func (r *Run) Write(frame int, s *domain.Snapshot) error {
	tmp := r.framePath(frame) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(f)
	if err := encodeSnapshot(zw, s); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode frame %d: %w", frame, err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, r.framePath(frame))
}

// Read reports false when the frame was never written.
func (r *Run) Read(frame int) (*domain.Snapshot, bool, error) {
	f, err := os.Open(r.framePath(frame))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, false, fmt.Errorf("frame %d: %w", frame, err)
	}
	defer zr.Close()

	s, err := decodeSnapshot(zr)
	if err != nil {
		return nil, false, fmt.Errorf("frame %d: %w", frame, err)
	}
	return s, true, nil
}

// Finish writes the frame statistics and updates the metadata with the
// frame count and final metric values.
func (r *Run) Finish(stats []sim.FrameStats, metrics map[string]float64) error {
	f, err := os.Create(filepath.Join(r.dir, statsFile))
	if err != nil {
		return fmt.Errorf("creating %s: %w", statsFile, err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&stats, f); err != nil {
		return fmt.Errorf("write %s: %w", statsFile, err)
	}

	r.meta.Frames = len(stats)
	r.meta.Metrics = metrics
	return r.writeMetadata()
}

func (r *Run) writeMetadata() error {
	f, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(r.meta)
}
