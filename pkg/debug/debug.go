// Package debug provides global debug logging flags
package debug

import "github.com/teslashibe/go-aruco/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether per-frame detection logs are shown.
// These fire at camera rate; use --debug-frames to enable them.
var Frames bool

// Log emits a debug record only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Info(msg, args...)
	}
}

// FrameLog emits a record only if per-frame debug mode is enabled
func FrameLog(msg string, args ...any) {
	if Frames {
		log.Info(msg, args...)
	}
}
