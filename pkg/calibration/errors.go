package calibration

import "errors"

var (
	// ErrMalformed is returned when a calibration file contains a value
	// that is not a number.
	ErrMalformed = errors.New("calibration: malformed matrix file")

	// ErrShape is returned when a matrix has the wrong dimensions.
	ErrShape = errors.New("calibration: unexpected matrix shape")

	// ErrBehindCamera is returned by Project for points with z <= 0 in the
	// camera frame.
	ErrBehindCamera = errors.New("calibration: point behind camera")
)
