package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/smokesim/internal/cache"
	"github.com/san-kum/smokesim/internal/config"
	"github.com/san-kum/smokesim/internal/metrics"
	"github.com/san-kum/smokesim/internal/sim"
	"github.com/san-kum/smokesim/internal/tui"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

func newScheduler(cfg *config.Config, log *slog.Logger) (*sim.Scheduler, error) {
	sc, opts, eng, err := config.Build(cfg)
	if err != nil {
		return nil, err
	}
	sched, err := sim.New(sc, eng, opts)
	if err != nil {
		return nil, err
	}
	return sched.WithLogger(log), nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	sched, err := newScheduler(cfg, log)
	if err != nil {
		return err
	}
	for _, m := range metrics.Default() {
		sched.AddMetric(m)
	}

	var run *cache.Run
	if noCache {
		sched.WithCache(cache.NewMemory())
	} else {
		disk := cache.NewDisk(dataDir)
		if err := disk.Init(); err != nil {
			return err
		}
		run, err = disk.Create(cache.RunMetadata{
			Preset:     presetName(cfg),
			StartFrame: cfg.Timing.StartFrame,
			EndFrame:   cfg.Timing.EndFrame,
			Resolution: cfg.Domain.Resolution,
			Adaptive:   cfg.Domain.Adaptive,
			FPS:        cfg.Timing.FPS,
		})
		if err != nil {
			return err
		}
		sched.WithCache(run)
	}

	log.Info("simulation started", "preset", presetName(cfg), "frames", cfg.Timing.EndFrame-cfg.Timing.StartFrame+1, "res", cfg.Domain.Resolution)
	began := time.Now()
	stats, runErr := sched.Run(cmd.Context())
	elapsed := time.Since(began)

	if run != nil {
		// Keep what was simulated even when the run stopped early.
		if err := run.Finish(stats, sched.Metrics()); err != nil {
			log.Error("failed to store run", "run", run.ID(), "err", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	printSummary(os.Stdout, run, stats, sched.Metrics(), elapsed)
	return nil
}

func printSummary(w io.Writer, run *cache.Run, stats []sim.FrameStats, values map[string]float64, elapsed time.Duration) {
	row := func(label, value string) {
		fmt.Fprintln(w, labelStyle.Render(label)+valueStyle.Render(value))
	}
	fmt.Fprintln(w, headerStyle.Render("SIMULATION COMPLETE"))
	if run != nil {
		row("run id", run.ID())
	}
	row("frames", fmt.Sprintf("%d", len(stats)))
	row("elapsed", elapsed.Round(time.Millisecond).String())
	if n := len(stats); n > 0 {
		last := stats[n-1]
		res := last.Res()
		row("final res", fmt.Sprintf("%dx%dx%d", res[0], res[1], res[2]))
		row("ms / frame", fmt.Sprintf("%.1f", float64(elapsed.Milliseconds())/float64(n)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("METRICS"))
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row(name, fmt.Sprintf("%.6f", values[name]))
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Log lines would tear the alternate screen.
	sched, err := newScheduler(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}
	return tui.RunLive(cmd.Context(), sched, presetName(cfg))
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	fmt.Printf("benchmarking %s\n\n", presetName(cfg))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RES\tCELLS\tFRAMES\tTIME\tMS/FRAME")

	for _, res := range sizes {
		c := cfg.Clone()
		c.Domain.Resolution = res
		c.Timing.EndFrame = c.Timing.StartFrame + frames - 1
		sched, err := newScheduler(c, quiet)
		if err != nil {
			return err
		}

		began := time.Now()
		stats, err := sched.Run(cmd.Context())
		if err != nil {
			return err
		}
		elapsed := time.Since(began)

		cells := 0
		if len(stats) > 0 {
			cells = stats[len(stats)-1].Cells
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.2f\n",
			res, cells, len(stats), elapsed.Round(time.Millisecond), float64(elapsed.Microseconds())/1000/float64(max(len(stats), 1)))
	}
	return w.Flush()
}
