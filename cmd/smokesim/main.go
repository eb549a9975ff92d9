package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/san-kum/smokesim/internal/config"
	"github.com/san-kum/smokesim/internal/parallel"
	"github.com/san-kum/smokesim/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFormat  string

	resolution int
	startFrame int
	endFrame   int
	fps        float64
	timeScale  float64
	adaptive   bool
	highRes    bool
	amplify    int
	shadows    bool
	dissolve   int
	workers    int
	noCache    bool

	frame   int
	channel string
	axis    string
	output  string
	scale   int
	series  bool
	dump    bool
	frames  int
	sizes   []int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "smokesim",
		Short:         "smoke domain simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunMenu(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".smokesim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a scene and store every frame",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	sceneFlags(runCmd)
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "keep frames in memory only")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "simulate a scene in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	sceneFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time a scene at several resolutions",
		Args:  cobra.NoArgs,
		RunE:  benchScene,
	}
	sceneFlags(benchCmd)
	benchCmd.Flags().IntVar(&frames, "bench-frames", 20, "frames per resolution")
	benchCmd.Flags().IntSliceVar(&sizes, "sizes", []int{16, 32, 48}, "resolutions to time")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot frame statistics of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the total density",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run statistics to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a frame slice or the density curve to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	sliceFlags(exportSVGCmd)
	exportSVGCmd.Flags().IntVar(&frame, "frame", 0, "frame to draw (default last)")
	exportSVGCmd.Flags().BoolVar(&series, "series", false, "draw total density over time instead of a slice")

	exportGIFCmd := &cobra.Command{
		Use:   "export-gif [run_id]",
		Short: "export every frame of a run as an animated GIF",
		Args:  cobra.ExactArgs(1),
		RunE:  exportGIF,
	}
	sliceFlags(exportGIFCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, exportSVGCmd, exportGIFCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func sceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&resolution, "res", config.DefaultResolution, "cells along the longest domain axis")
	cmd.Flags().IntVar(&startFrame, "start", config.DefaultStartFrame, "first frame")
	cmd.Flags().IntVar(&endFrame, "end", config.DefaultEndFrame, "last frame")
	cmd.Flags().Float64Var(&fps, "fps", config.DefaultFPS, "frames per second")
	cmd.Flags().Float64Var(&timeScale, "time-scale", config.DefaultTimeScale, "time scale")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "fit the domain to the smoke")
	cmd.Flags().BoolVar(&highRes, "high-res", false, "carry a high resolution density grid")
	cmd.Flags().IntVar(&amplify, "amplify", config.DefaultAmplify, "high resolution amplification")
	cmd.Flags().BoolVar(&shadows, "shadows", true, "compute light shadows")
	cmd.Flags().IntVar(&dissolve, "dissolve", 0, "dissolve smoke over this many frames (0 disables)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 uses all CPUs)")
}

func sliceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&channel, "channel", "density", "grid channel")
	cmd.Flags().StringVar(&axis, "axis", "y", "projection axis (x, y, z)")
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file")
	cmd.Flags().IntVar(&scale, "scale", 8, "pixels per cell")
}

// loadConfig resolves the preset, then the config file, then any flags
// set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("res") {
		cfg.Domain.Resolution = resolution
	}
	if flags.Changed("start") {
		cfg.Timing.StartFrame = startFrame
	}
	if flags.Changed("end") {
		cfg.Timing.EndFrame = endFrame
	}
	if flags.Changed("fps") {
		cfg.Timing.FPS = fps
	}
	if flags.Changed("time-scale") {
		cfg.Timing.TimeScale = timeScale
	}
	if flags.Changed("adaptive") {
		cfg.Domain.Adaptive = adaptive
	}
	if flags.Changed("high-res") {
		cfg.HighRes.Enabled = highRes
	}
	if flags.Changed("amplify") {
		cfg.HighRes.Amplify = amplify
	}
	if flags.Changed("shadows") {
		cfg.Shadow.Enabled = shadows
	}
	if flags.Changed("dissolve") {
		cfg.Dissolve.Enabled = dissolve > 0
		cfg.Dissolve.Speed = dissolve
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	parallel.SetWorkers(cfg.Workers)
	return cfg, nil
}

// newLogger builds the process logger from the log section.
func newLogger(lc config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if lc.Level != "" {
		if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(lc.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format: %s", lc.Format)
}

// presetName labels a run by where its scene came from.
func presetName(cfg *config.Config) string {
	if configFile != "" {
		name := configFile[strings.LastIndexAny(configFile, `/\`)+1:]
		return strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
	}
	return cfg.Preset
}
