// go-aruco - live ArUco marker pose display
// Detects the mission's target markers and overlays marker and camera pose
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-aruco/internal/log"
	"github.com/teslashibe/go-aruco/pkg/app"
	"github.com/teslashibe/go-aruco/pkg/camera"
	"github.com/teslashibe/go-aruco/pkg/marker"
	"github.com/teslashibe/go-aruco/pkg/mission"
)

func main() {
	cfg := parseFlags()
	log.Init(cfg.LogLevel)

	a, err := app.New(cfg)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := a.Init(); err != nil {
		a.Shutdown()
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		a.Shutdown()
		os.Exit(1)
	}
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() app.Config {
	cfg := app.DefaultConfig()
	cfg.LoadEnvConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	debugFrames := flag.Bool("debug-frames", false, "Log every detection (camera rate)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	device := flag.Int("device", cfg.Camera.Device, "Camera device index (ARUCO_CAMERA_DEVICE)")
	preset := flag.String("preset", "", "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	width := flag.Int("width", 0, "Capture width (overrides preset)")
	height := flag.Int("height", 0, "Capture height (overrides preset)")
	calibDir := flag.String("calib-dir", cfg.CalibDir, "Directory holding the calibration files (ARUCO_CALIB_DIR)")
	matrixFile := flag.String("camera-matrix", cfg.MatrixFile, "Camera matrix file name")
	distortionFile := flag.String("camera-distortion", cfg.DistortionFile, "Distortion coefficients file name")
	markerSize := flag.Float64("marker-size", cfg.MarkerSize, "Marker side length, positions use the same unit")
	dict := flag.String("dict", cfg.Dictionary, "ArUco dictionary name")
	targets := flag.String("targets", mission.String(cfg.Stages), "Target markers, e.g. 1,2,0 or pickup=1,landing=0")
	record := flag.String("record", cfg.RecordPath, "Record samples to this SQLite file (ARUCO_RECORD)")
	webPort := flag.String("web-port", cfg.WebPort, "Serve the dashboard API on this port (ARUCO_WEB_PORT)")
	headless := flag.Bool("headless", false, "Run without a display window (needs --web-port)")
	listPresets := flag.Bool("list-presets", false, "List camera presets and exit")
	listDicts := flag.Bool("list-dicts", false, "List marker dictionaries and exit")
	generate := flag.Int("generate", -1, "Write the image of this marker id (from --dict) and exit")
	generateOut := flag.String("generate-out", "", "Output file for --generate (default marker_<dict>_<id>.png)")
	generatePixels := flag.Int("generate-pixels", 400, "Marker side in pixels for --generate")
	flag.Parse()

	if *listPresets {
		presets := camera.Presets()
		for _, name := range camera.PresetNames() {
			p := presets[name]
			fmt.Printf("%-8s %dx%d\n", name, p.Width, p.Height)
		}
		os.Exit(0)
	}
	if *listDicts {
		fmt.Println(strings.Join(marker.DictionaryNames(), "\n"))
		os.Exit(0)
	}

	if *generate >= 0 {
		out := *generateOut
		if out == "" {
			out = fmt.Sprintf("marker_%s_%d.png", strings.ToLower(*dict), *generate)
		}
		if err := marker.WriteImage(out, *dict, *generate, *generatePixels, *generatePixels/8); err != nil {
			fmt.Fprintf(os.Stderr, "generate marker: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", out)
		os.Exit(0)
	}

	if *preset != "" {
		p := camera.GetPreset(*preset)
		if p == nil {
			fmt.Fprintf(os.Stderr, "unknown preset %q (have: %s)\n", *preset, strings.Join(camera.PresetNames(), ", "))
			os.Exit(2)
		}
		cfg.Camera = *p
	}
	cfg.Camera.Device = *device
	if *width > 0 {
		cfg.Camera.Width = *width
	}
	if *height > 0 {
		cfg.Camera.Height = *height
	}

	stages, err := mission.Parse(*targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --targets: %v\n", err)
		os.Exit(2)
	}

	cfg.Debug, cfg.DebugFrames, cfg.LogLevel = *debug, *debugFrames, *logLevel
	if cfg.Debug && cfg.LogLevel == app.DefaultLogLevel {
		cfg.LogLevel = "debug"
	}
	cfg.CalibDir, cfg.MatrixFile, cfg.DistortionFile = *calibDir, *matrixFile, *distortionFile
	cfg.MarkerSize, cfg.Dictionary, cfg.Stages = *markerSize, *dict, stages
	cfg.RecordPath, cfg.WebPort, cfg.Headless = *record, *webPort, *headless
	return cfg
}
