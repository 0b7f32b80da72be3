// Package app runs the marker pose display: it loads the calibration,
// opens the camera and walks the mission stages frame by frame.
package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teslashibe/go-aruco/internal/config"
	"github.com/teslashibe/go-aruco/pkg/calibration"
	"github.com/teslashibe/go-aruco/pkg/camera"
	"github.com/teslashibe/go-aruco/pkg/marker"
	"github.com/teslashibe/go-aruco/pkg/mission"
)

// Default configuration values.
const (
	DefaultMarkerSize = 10.0
	DefaultCalibDir   = "."
	DefaultWindowName = "frame"
	DefaultLogLevel   = "info"
)

// Config holds all configuration for a run.
// Flag parsing is done in cmd/aruco/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// DebugFrames enables per-frame detection logs.
	DebugFrames bool

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// Camera is the capture device configuration.
	Camera camera.Config

	// Calibration files, relative to CalibDir.
	CalibDir       string
	MatrixFile     string
	DistortionFile string

	// MarkerSize is the marker side length. Positions are reported in the
	// same unit.
	MarkerSize float64

	// Dictionary names the ArUco dictionary, see marker.DictionaryNames.
	Dictionary string

	// Stages is the target sequence.
	Stages []mission.Stage

	// RecordPath enables the SQLite sample log when non-empty.
	RecordPath string

	// WebPort enables the dashboard API when non-empty.
	WebPort string

	// Headless disables the display window. Stages then only advance on
	// remote commands, so it requires WebPort.
	Headless   bool
	WindowName string
}

// DefaultConfig returns the settings the bundled webcam calibration was
// made for.
func DefaultConfig() Config {
	return Config{
		LogLevel:       DefaultLogLevel,
		Camera:         camera.DefaultConfig(),
		CalibDir:       DefaultCalibDir,
		MatrixFile:     calibration.DefaultMatrixFile,
		DistortionFile: calibration.DefaultDistortionFile,
		MarkerSize:     DefaultMarkerSize,
		Dictionary:     marker.DefaultDictionary,
		Stages:         mission.Default(),
		WindowName:     DefaultWindowName,
	}
}

// LoadEnvConfig applies environment overrides.
// Call this before flag parsing so flags win over the environment.
func (c *Config) LoadEnvConfig() {
	c.CalibDir = config.CalibDir(c.CalibDir)
	c.Camera.Device = config.CameraDevice(c.Camera.Device)
	c.WebPort = config.WebPort(c.WebPort)
	c.RecordPath = config.RecordPath(c.RecordPath)
}

// Validate checks that the configuration can be run.
func (c *Config) Validate() error {
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "Camera", Message: "camera: " + strings.Join(errs, "; ")}
	}
	if c.MarkerSize <= 0 {
		return &ConfigError{Field: "MarkerSize", Message: fmt.Sprintf("marker size must be positive, got %g", c.MarkerSize)}
	}
	if _, err := marker.LookupDictionary(c.Dictionary); err != nil {
		return &ConfigError{Field: "Dictionary", Message: err.Error()}
	}
	if len(c.Stages) == 0 {
		return &ConfigError{Field: "Stages", Message: "at least one target marker is required"}
	}
	size, _ := marker.DictionarySize(c.Dictionary)
	for _, s := range c.Stages {
		if s.MarkerID < 0 || s.MarkerID >= size {
			return &ConfigError{Field: "Stages", Message: fmt.Sprintf("stage %s: marker %d not in dictionary %s (0-%d)", s.Name, s.MarkerID, c.Dictionary, size-1)}
		}
	}
	if c.MatrixFile == "" || c.DistortionFile == "" {
		return &ConfigError{Field: "MatrixFile", Message: "calibration file names must not be empty"}
	}
	if c.WebPort != "" {
		port, err := strconv.Atoi(c.WebPort)
		if err != nil || port < 1 || port > 65535 {
			return &ConfigError{Field: "WebPort", Message: fmt.Sprintf("invalid web port %q", c.WebPort)}
		}
	}
	if c.Headless && c.WebPort == "" {
		return &ConfigError{Field: "Headless", Message: "headless mode needs a web port to receive stage commands"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
