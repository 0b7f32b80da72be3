package camera

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-aruco/internal/log"
	"gocv.io/x/gocv"
)

var (
	// ErrInvalidConfig is returned by Open when Validate reports problems.
	ErrInvalidConfig = errors.New("camera: invalid config")

	// ErrNotOpened is returned when the device cannot be opened.
	ErrNotOpened = errors.New("camera: device not opened")

	// ErrReadFailed is returned when a frame cannot be grabbed.
	ErrReadFailed = errors.New("camera: read failed")

	// ErrEmptyFrame is returned when the device hands back an empty frame.
	ErrEmptyFrame = errors.New("camera: empty frame")
)

// FrameSource delivers camera frames.
type FrameSource interface {
	// Read grabs the next frame into img.
	Read(img *gocv.Mat) error

	// Close releases the source.
	Close() error
}

// Source is an open capture device.
type Source struct {
	capture *gocv.VideoCapture
	config  Config
}

// Open acquires the capture device and requests the configured resolution.
func Open(cfg Config) (*Source, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}

	capture, err := gocv.VideoCaptureDevice(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open device %d: %w", cfg.Device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %d", ErrNotOpened, cfg.Device)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	if cfg.Framerate > 0 {
		capture.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}

	gotW := int(capture.Get(gocv.VideoCaptureFrameWidth))
	gotH := int(capture.Get(gocv.VideoCaptureFrameHeight))
	if gotW != cfg.Width || gotH != cfg.Height {
		log.Warn("camera resolution differs from request",
			"device", cfg.Device,
			"requested", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
			"actual", fmt.Sprintf("%dx%d", gotW, gotH))
	}

	return &Source{capture: capture, config: cfg}, nil
}

// Read grabs the next frame into img. Blocks until the device delivers.
func (s *Source) Read(img *gocv.Mat) error {
	if ok := s.capture.Read(img); !ok {
		return fmt.Errorf("%w: device %d", ErrReadFailed, s.config.Device)
	}
	if img.Empty() {
		return ErrEmptyFrame
	}
	return nil
}

// Close releases the device.
func (s *Source) Close() error {
	return s.capture.Close()
}
