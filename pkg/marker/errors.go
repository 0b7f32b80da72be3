package marker

import "errors"

var (
	// ErrUnknownDictionary is returned for an unrecognized dictionary name.
	ErrUnknownDictionary = errors.New("marker: unknown dictionary")

	// ErrInvalidSize is returned when the marker side length is not positive.
	ErrInvalidSize = errors.New("marker: size must be positive")

	// ErrPoseNotFound is returned when PnP fails to converge.
	ErrPoseNotFound = errors.New("marker: pose not found")
)

var (
	// ErrInvalidID is returned when a marker id is outside its dictionary.
	ErrInvalidID = errors.New("marker: id out of dictionary range")

	// ErrGenerate is returned when OpenCV produces no marker image.
	ErrGenerate = errors.New("marker: generate failed")
)
