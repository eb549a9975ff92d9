package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/smokesim/internal/analysis"
	"github.com/san-kum/smokesim/internal/cache"
	"github.com/san-kum/smokesim/internal/config"
	"github.com/san-kum/smokesim/internal/export"
	"github.com/san-kum/smokesim/internal/sim"
	"github.com/san-kum/smokesim/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := cache.NewDisk(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tFRAMES\tRES\tADAPTIVE\tFPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%v\t%.0f\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Resolution,
			run.Adaptive,
			run.FPS,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*cache.RunMetadata, []sim.FrameStats, error) {
	disk := cache.NewDisk(dataDir)
	meta, err := disk.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	stats, err := disk.LoadStats(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(stats) == 0 {
		return nil, nil, fmt.Errorf("run %s has no frames", runID)
	}
	return meta, stats, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, stats, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("frames: %d\n\n", len(stats))

	columns := []struct {
		caption string
		value   func(sim.FrameStats) float64
	}{
		{"total density", func(s sim.FrameStats) float64 { return s.TotalDensity }},
		{"max velocity (cells/s)", func(s sim.FrameStats) float64 { return s.MaxVelocity }},
		{"domain cells", func(s sim.FrameStats) float64 { return float64(s.Cells) }},
		{"step time (ms)", func(s sim.FrameStats) float64 { return s.ElapsedMS }},
	}
	for _, c := range columns {
		data := make([]float64, len(stats))
		for i, s := range stats {
			data[i] = c.value(s)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(c.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, stats, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if output == "" {
		return export.WriteJSON(os.Stdout, *meta, stats)
	}
	if err := export.ExportJSON(output, *meta, stats); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", output)
	return nil
}

// frameSlice reads one stored frame and reduces it to a slice.
func frameSlice(run *cache.Run, f int, ax viz.Axis) (*viz.Slice, error) {
	snap, ok, err := run.Read(f)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("frame %d not stored in run %s", f, run.ID())
	}
	return viz.Project(snap.Grid, channel, ax)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, stats, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if output == "" {
		output = meta.ID + ".svg"
	}

	var svg string
	if series {
		xs := make([]float64, len(stats))
		ys := make([]float64, len(stats))
		for i, s := range stats {
			xs[i], ys[i] = s.Time, s.TotalDensity
		}
		svg = export.SeriesToSVG(xs, ys, 800, 300, "#00ff88")
	} else {
		ax, err := viz.ParseAxis(axis)
		if err != nil {
			return err
		}
		run, err := cache.NewDisk(dataDir).Open(meta.ID)
		if err != nil {
			return err
		}
		f := frame
		if f == 0 {
			f = stats[len(stats)-1].Frame
		}
		slice, err := frameSlice(run, f, ax)
		if err != nil {
			return err
		}
		svg = export.SliceToSVG(slice, float64(scale), viz.CurrentTheme)
	}

	if err := os.WriteFile(output, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", output)
	return nil
}

func exportGIF(cmd *cobra.Command, args []string) error {
	meta, stats, err := loadRun(args[0])
	if err != nil {
		return err
	}
	ax, err := viz.ParseAxis(axis)
	if err != nil {
		return err
	}
	run, err := cache.NewDisk(dataDir).Open(meta.ID)
	if err != nil {
		return err
	}
	if output == "" {
		output = meta.ID + ".gif"
	}

	slices := make([]*viz.Slice, 0, len(stats))
	for _, s := range stats {
		slice, err := frameSlice(run, s.Frame, ax)
		if err != nil {
			return err
		}
		slices = append(slices, slice)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	delay := max(int(100/meta.FPS), 1)
	if err := viz.WriteGIF(f, slices, scale, delay); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d frames)\n", output, len(slices))
	return nil
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tRES\tFRAMES\tADAPTIVE\tOBJECTS")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%d\n",
			name,
			cfg.Domain.Resolution,
			cfg.Timing.EndFrame-cfg.Timing.StartFrame+1,
			cfg.Domain.Adaptive,
			len(cfg.Scene.Objects),
		)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, stats, err := loadRun(args[0])
	if err != nil {
		return err
	}

	times := make([]float64, len(stats))
	density := make([]float64, len(stats))
	for i, s := range stats {
		times[i], density[i] = s.Time, s.TotalDensity
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("preset: %s\n\n", meta.Preset)

	sum := analysis.Summarize(times, density)
	fmt.Printf("density mean: %.4f  stddev: %.4f  min: %.4f  max: %.4f\n", sum.Mean, sum.StdDev, sum.Min, sum.Max)
	fmt.Printf("density trend: %+.4f / s\n\n", sum.Trend)

	ps, err := analysis.PowerSpectrum(density, meta.FPS)
	if err != nil {
		return err
	}
	graph := asciigraph.Plot(ps.Power[1:],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (total density)"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, _ := ps.Dominant()
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}
