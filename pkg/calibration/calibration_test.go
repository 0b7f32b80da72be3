package calibration

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const webcamMatrix = `9.183659124183394669e+02,0.000000000000000000e+00,6.403275848327345551e+02
0.000000000000000000e+00,9.170149396698508149e+02,3.594717203658003158e+02
0.000000000000000000e+00,0.000000000000000000e+00,1.000000000000000000e+00
`

const webcamDistortion = "1.2e-01,-2.5e-01,1.0e-03,-2.0e-03,1.1e-01\n"

func writeCalibration(t *testing.T, matrix, distortion string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultMatrixFile), []byte(matrix), 0o644); err != nil {
		t.Fatalf("write matrix: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DefaultDistortionFile), []byte(distortion), 0o644); err != nil {
		t.Fatalf("write distortion: %v", err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeCalibration(t, webcamMatrix, webcamDistortion)

	cal, err := Load(dir, DefaultMatrixFile, DefaultDistortionFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if math.Abs(cal.Fx()-918.3659124183394669) > 1e-9 {
		t.Errorf("Fx: got %v", cal.Fx())
	}
	if math.Abs(cal.Cy()-359.4717203658003158) > 1e-9 {
		t.Errorf("Cy: got %v", cal.Cy())
	}
	if len(cal.Distortion) != 5 {
		t.Fatalf("Distortion: got %d coefficients, want 5", len(cal.Distortion))
	}
	if cal.Distortion[1] != -0.25 {
		t.Errorf("k2: got %v, want -0.25", cal.Distortion[1])
	}
}

func TestLoad_ColumnDistortion(t *testing.T) {
	dir := writeCalibration(t, webcamMatrix, "0.1\n-0.2\n0\n0\n")

	cal, err := Load(dir, DefaultMatrixFile, DefaultDistortionFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cal.Distortion) != 4 {
		t.Errorf("Distortion: got %d coefficients, want 4", len(cal.Distortion))
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name       string
		matrix     string
		distortion string
		wantErr    error
	}{
		{name: "matrix not 3x3", matrix: "1,0\n0,1\n", distortion: webcamDistortion, wantErr: ErrShape},
		{name: "ragged matrix", matrix: "1,0,0\n0,1\n0,0,1\n", distortion: webcamDistortion, wantErr: ErrShape},
		{name: "not a number", matrix: "1,0,x\n0,1,0\n0,0,1\n", distortion: webcamDistortion, wantErr: ErrMalformed},
		{name: "empty distortion", matrix: webcamMatrix, distortion: "", wantErr: ErrMalformed},
		{name: "three coefficients", matrix: webcamMatrix, distortion: "0.1,0.2,0.3\n", wantErr: ErrShape},
		{name: "zero focal length", matrix: "0,0,640\n0,0,360\n0,0,1\n", distortion: webcamDistortion, wantErr: ErrShape},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeCalibration(t, tc.matrix, tc.distortion)
			_, err := Load(dir, DefaultMatrixFile, DefaultDistortionFile)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Load: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), DefaultMatrixFile, DefaultDistortionFile)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load: got %v, want os.ErrNotExist", err)
	}
}

func TestParseMatrix_CommentsAndBlankLines(t *testing.T) {
	input := "# intrinsics\n1, 2, 3\n\n4,5,6\n"
	rows, err := ParseMatrix(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseMatrix failed: %v", err)
	}
	if len(rows) != 2 || rows[1][2] != 6 || rows[0][1] != 2 {
		t.Errorf("ParseMatrix: got %v", rows)
	}
}

func TestProject_NoDistortion(t *testing.T) {
	k := mat.NewDense(3, 3, []float64{
		800, 0, 320,
		0, 800, 240,
		0, 0, 1,
	})
	cal, err := New(k, []float64{0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	identity := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	pts, err := cal.Project(identity, [3]float64{0, 0, 100}, []Point3{
		{0, 0, 0},
		{10, 0, 0},
		{0, -5, 0},
	})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	want := []Point2{{320, 240}, {400, 240}, {320, 200}}
	for i := range want {
		if math.Abs(pts[i].X-want[i].X) > 1e-9 || math.Abs(pts[i].Y-want[i].Y) > 1e-9 {
			t.Errorf("point %d: got %+v, want %+v", i, pts[i], want[i])
		}
	}
}

func TestProject_RadialDistortion(t *testing.T) {
	k := mat.NewDense(3, 3, []float64{
		100, 0, 0,
		0, 100, 0,
		0, 0, 1,
	})
	cal, err := New(k, []float64{0.5, 0, 0, 0})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	identity := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	// Normalized x = 0.5, r² = 0.25, radial = 1.125.
	pts, err := cal.Project(identity, [3]float64{0, 0, 1}, []Point3{{0.5, 0, 0}})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if math.Abs(pts[0].X-56.25) > 1e-9 || pts[0].Y != 0 {
		t.Errorf("got %+v, want {56.25 0}", pts[0])
	}
}

func TestProject_BehindCamera(t *testing.T) {
	k := mat.NewDense(3, 3, []float64{100, 0, 0, 0, 100, 0, 0, 0, 1})
	cal, err := New(k, []float64{0, 0, 0, 0})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	identity := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	_, err = cal.Project(identity, [3]float64{0, 0, -1}, []Point3{{0, 0, 0}})
	if !errors.Is(err, ErrBehindCamera) {
		t.Errorf("Project: got %v, want ErrBehindCamera", err)
	}
}
