package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/smokesim/internal/cache"
	"github.com/san-kum/smokesim/internal/sim"
)

type ExportData struct {
	Run     cache.RunMetadata  `json:"run"`
	Frames  []sim.FrameStats   `json:"frames"`
	Metrics map[string]float64 `json:"metrics"`
}

// WriteJSON writes a run's metadata and frame table as indented JSON.
func WriteJSON(w io.Writer, meta cache.RunMetadata, frames []sim.FrameStats) error {
	data := ExportData{
		Run:     meta,
		Frames:  frames,
		Metrics: meta.Metrics,
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, meta cache.RunMetadata, frames []sim.FrameStats) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, frames)
}
