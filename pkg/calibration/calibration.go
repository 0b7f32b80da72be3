// Package calibration loads the camera intrinsics and distortion
// coefficients a marker pose is solved against, and projects 3-D points
// back into the image with the same model.
package calibration

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Default file names, as written by the calibration script.
const (
	DefaultMatrixFile     = "cameraMatrix_webcam.txt"
	DefaultDistortionFile = "cameraDistortion_webcam.txt"
)

// Calibration holds a pinhole camera model.
type Calibration struct {
	// CameraMatrix is the 3x3 intrinsic matrix K.
	CameraMatrix *mat.Dense

	// Distortion is the OpenCV coefficient vector
	// (k1, k2, p1, p2[, k3[, k4, k5, k6[, s1, s2, s3, s4[, τx, τy]]]]).
	Distortion []float64
}

// Point2 is an image point in pixels.
type Point2 struct {
	X, Y float64
}

// Point3 is a point in a 3-D frame.
type Point3 struct {
	X, Y, Z float64
}

// validDistortionLengths are the coefficient counts OpenCV accepts.
var validDistortionLengths = map[int]bool{4: true, 5: true, 8: true, 12: true, 14: true}

// New validates the intrinsics and distortion and returns a Calibration.
func New(k *mat.Dense, distortion []float64) (*Calibration, error) {
	if k == nil {
		return nil, fmt.Errorf("%w: camera matrix is nil", ErrShape)
	}
	if r, c := k.Dims(); r != 3 || c != 3 {
		return nil, fmt.Errorf("%w: camera matrix is %dx%d, want 3x3", ErrShape, r, c)
	}
	if k.At(0, 0) <= 0 || k.At(1, 1) <= 0 {
		return nil, fmt.Errorf("%w: focal lengths must be positive (fx=%g fy=%g)", ErrShape, k.At(0, 0), k.At(1, 1))
	}
	if !validDistortionLengths[len(distortion)] {
		return nil, fmt.Errorf("%w: %d distortion coefficients, want 4, 5, 8, 12 or 14", ErrShape, len(distortion))
	}

	return &Calibration{
		CameraMatrix: mat.DenseCopyOf(k),
		Distortion:   append([]float64(nil), distortion...),
	}, nil
}

// Load reads the camera matrix and distortion files from dir.
func Load(dir, matrixFile, distortionFile string) (*Calibration, error) {
	rows, err := readMatrixFile(filepath.Join(dir, matrixFile))
	if err != nil {
		return nil, err
	}
	if len(rows) != 3 || len(rows[0]) != 3 {
		return nil, fmt.Errorf("%w: %s is not 3x3", ErrShape, matrixFile)
	}
	k := mat.NewDense(3, 3, flatten(rows))

	drows, err := readMatrixFile(filepath.Join(dir, distortionFile))
	if err != nil {
		return nil, err
	}

	// A row or a column vector are both fine.
	cal, err := New(k, flatten(drows))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", distortionFile, err)
	}
	return cal, nil
}

func readMatrixFile(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open calibration file: %w", err)
	}
	defer f.Close()

	rows, err := ParseMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// ParseMatrix reads comma-delimited rows of numbers. Blank lines and lines
// starting with '#' are skipped; every row must have the same width.
func ParseMatrix(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]float64
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		line, _ := cr.FieldPos(0)
		row := make([]float64, 0, len(record))
		for _, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q", ErrMalformed, line, field)
			}
			row = append(row, v)
		}

		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%w: line %d has %d values, want %d", ErrShape, line, len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrMalformed)
	}
	return rows, nil
}

func flatten(rows [][]float64) []float64 {
	var out []float64
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

// Fx returns the horizontal focal length in pixels.
func (c *Calibration) Fx() float64 { return c.CameraMatrix.At(0, 0) }

// Fy returns the vertical focal length in pixels.
func (c *Calibration) Fy() float64 { return c.CameraMatrix.At(1, 1) }

// Cx returns the principal point x coordinate.
func (c *Calibration) Cx() float64 { return c.CameraMatrix.At(0, 2) }

// Cy returns the principal point y coordinate.
func (c *Calibration) Cy() float64 { return c.CameraMatrix.At(1, 2) }

// coefficient returns the i-th distortion coefficient or zero.
func (c *Calibration) coefficient(i int) float64 {
	if i < len(c.Distortion) {
		return c.Distortion[i]
	}
	return 0
}

// Project maps object points through rotation r and translation t into
// pixel coordinates, applying radial, tangential and thin-prism
// distortion. The sensor tilt terms of a 14-coefficient model are ignored.
func (c *Calibration) Project(r mat.Matrix, t [3]float64, points []Point3) ([]Point2, error) {
	k1, k2, p1, p2, k3 := c.coefficient(0), c.coefficient(1), c.coefficient(2), c.coefficient(3), c.coefficient(4)
	k4, k5, k6 := c.coefficient(5), c.coefficient(6), c.coefficient(7)
	s1, s2, s3, s4 := c.coefficient(8), c.coefficient(9), c.coefficient(10), c.coefficient(11)
	skew := c.CameraMatrix.At(0, 1)

	out := make([]Point2, 0, len(points))
	for _, p := range points {
		obj := mat.NewVecDense(3, []float64{p.X, p.Y, p.Z})
		var cam mat.VecDense
		cam.MulVec(r, obj)
		x, y, z := cam.AtVec(0)+t[0], cam.AtVec(1)+t[1], cam.AtVec(2)+t[2]
		if z <= 0 {
			return nil, fmt.Errorf("%w: (%g, %g, %g)", ErrBehindCamera, p.X, p.Y, p.Z)
		}

		xn, yn := x/z, y/z
		r2 := xn*xn + yn*yn
		r4 := r2 * r2
		r6 := r4 * r2

		radial := (1 + k1*r2 + k2*r4 + k3*r6) / (1 + k4*r2 + k5*r4 + k6*r6)
		xd := xn*radial + 2*p1*xn*yn + p2*(r2+2*xn*xn) + s1*r2 + s2*r4
		yd := yn*radial + p1*(r2+2*yn*yn) + 2*p2*xn*yn + s3*r2 + s4*r4

		out = append(out, Point2{
			X: c.Fx()*xd + skew*yd + c.Cx(),
			Y: c.Fy()*yd + c.Cy(),
		})
	}
	return out, nil
}
