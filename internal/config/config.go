// Package config provides environment helpers for go-aruco commands.
package config

import (
	"os"
	"strconv"
)

// Environment variables read by the commands.
const (
	EnvCalibDir     = "ARUCO_CALIB_DIR"
	EnvCameraDevice = "ARUCO_CAMERA_DEVICE"
	EnvWebPort      = "ARUCO_WEB_PORT"
	EnvRecordPath   = "ARUCO_RECORD"
)

// CalibDir returns the calibration directory from ARUCO_CALIB_DIR.
// Falls back to the provided default if not set.
func CalibDir(defaultDir string) string {
	return String(EnvCalibDir, defaultDir)
}

// CameraDevice returns the capture device index from ARUCO_CAMERA_DEVICE.
// Falls back to the default if unset or not an integer.
func CameraDevice(defaultDevice int) int {
	return Int(EnvCameraDevice, defaultDevice)
}

// WebPort returns the dashboard port from ARUCO_WEB_PORT, or the default.
func WebPort(defaultPort string) string {
	return String(EnvWebPort, defaultPort)
}

// RecordPath returns the SQLite recording path from ARUCO_RECORD, or the default.
func RecordPath(defaultPath string) string {
	return String(EnvRecordPath, defaultPath)
}

// String returns the value of key, or def when unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the integer value of key, or def when unset or unparsable.
func Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
