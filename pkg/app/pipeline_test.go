package app

import (
	"context"
	"errors"
	"math"
	"net/http/httptest"
	"testing"

	"github.com/teslashibe/go-aruco/pkg/calibration"
	"github.com/teslashibe/go-aruco/pkg/camera"
	"github.com/teslashibe/go-aruco/pkg/marker"
	"github.com/teslashibe/go-aruco/pkg/mission"
	"github.com/teslashibe/go-aruco/pkg/telemetry"
	"github.com/teslashibe/go-aruco/pkg/web"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// stillSource hands out copies of one BGR frame.
type stillSource struct {
	frame gocv.Mat
	reads int
	err   error
}

func (s *stillSource) Read(img *gocv.Mat) error {
	s.reads++
	if s.err != nil {
		return s.err
	}
	s.frame.CopyTo(img)
	return nil
}

func (s *stillSource) Close() error {
	return s.frame.Close()
}

// newStill renders marker id squarely facing a 800 px focal camera.
func newStill(t *testing.T, id int) *stillSource {
	t.Helper()
	gray, err := marker.Generate(marker.DefaultDictionary, id, 200, 140)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer gray.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(gray, &bgr, gocv.ColorGrayToBGR)
	return &stillSource{frame: bgr}
}

// newPipelineApp wires an App around src without opening a device or a
// window.
func newPipelineApp(t *testing.T, src *stillSource, stages []mission.Stage) (*App, *[]telemetry.Sample) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Stages = stages
	cfg.Headless = true
	cfg.WebPort = "8080"

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	k := mat.NewDense(3, 3, []float64{800, 0, 240, 0, 800, 240, 0, 0, 1})
	a.calib, err = calibration.New(k, make([]float64, 5))
	if err != nil {
		t.Fatalf("calibration.New: %v", err)
	}
	if a.estimator, err = marker.NewEstimator(a.calib, cfg.MarkerSize); err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}
	if a.detector, err = marker.NewAruco(cfg.Dictionary); err != nil {
		t.Fatalf("NewAruco: %v", err)
	}
	a.source = src
	// Port 0 picks a free port when Run starts the server.
	a.webServer = web.NewServer("0", a.session, stages)

	var samples []telemetry.Sample
	a.publisher = telemetry.Multi{telemetry.PublisherFunc(func(s telemetry.Sample) error {
		samples = append(samples, s)
		return nil
	})}

	t.Cleanup(func() {
		a.webServer = nil
		a.Shutdown()
	})
	return a, &samples
}

func postControl(t *testing.T, a *App, action string) {
	t.Helper()
	resp, err := a.webServer.App().Test(httptest.NewRequest("POST", "/api/control/"+action, nil))
	if err != nil {
		t.Fatalf("POST %s: %v", action, err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("POST %s: status %d", action, resp.StatusCode)
	}
}

func TestRunStage_PublishesAndAdvances(t *testing.T) {
	stage := mission.Stage{Name: mission.StagePickup, MarkerID: 1}
	a, samples := newPipelineApp(t, newStill(t, 1), []mission.Stage{stage})

	postControl(t, a, "next")

	action, err := a.runStage(context.Background(), stage)
	if err != nil {
		t.Fatalf("runStage: %v", err)
	}
	if action != mission.Next {
		t.Errorf("action: got %v, want next", action)
	}
	if a.frames != 1 || a.published != 1 {
		t.Errorf("frames/published: got %d/%d, want 1/1", a.frames, a.published)
	}
	if len(*samples) != 1 {
		t.Fatalf("samples: got %d, want 1", len(*samples))
	}

	s := (*samples)[0]
	if s.MarkerID != 1 || s.Stage != mission.StagePickup || s.Session != a.Session() {
		t.Errorf("sample: got %+v", s)
	}
	// 800 px focal, 10 unit marker, 200 px wide: 40 units away.
	if math.Abs(s.MarkerPosition.Z-40) > 1 {
		t.Errorf("marker z: got %.2f, want about 40", s.MarkerPosition.Z)
	}
	if math.Abs(s.MarkerAttitude.Roll) > 3 || math.Abs(s.CameraAttitude.Pitch) > 3 {
		t.Errorf("attitude: got marker %+v camera %+v, want about zero", s.MarkerAttitude, s.CameraAttitude)
	}

	st := a.webServer.Status()
	if st.Frames != 1 || !st.Locked {
		t.Errorf("status: got frames=%d locked=%v", st.Frames, st.Locked)
	}
}

func TestRunStage_OtherMarkerNotPublished(t *testing.T) {
	stage := mission.Stage{Name: mission.StageLanding, MarkerID: 0}
	a, samples := newPipelineApp(t, newStill(t, 5), []mission.Stage{stage})

	postControl(t, a, "abort")

	action, err := a.runStage(context.Background(), stage)
	if err != nil {
		t.Fatalf("runStage: %v", err)
	}
	if action != mission.Abort {
		t.Errorf("action: got %v, want abort", action)
	}
	if len(*samples) != 0 {
		t.Errorf("samples: got %d, want 0", len(*samples))
	}
	if a.webServer.Status().Locked {
		t.Error("status locked on a non-target marker")
	}
}

func TestRunStage_ReadFailures(t *testing.T) {
	stage := mission.Default()[0]
	src := newStill(t, 1)
	src.err = camera.ErrReadFailed
	a, _ := newPipelineApp(t, src, []mission.Stage{stage})

	if _, err := a.runStage(context.Background(), stage); !errors.Is(err, camera.ErrReadFailed) {
		t.Fatalf("runStage: got %v, want read error", err)
	}
	if src.reads != maxReadFailures {
		t.Errorf("reads: got %d, want %d", src.reads, maxReadFailures)
	}
}

func TestRunStage_Cancelled(t *testing.T) {
	stage := mission.Default()[0]
	a, _ := newPipelineApp(t, newStill(t, 1), []mission.Stage{stage})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	action, err := a.runStage(ctx, stage)
	if err != nil || action != mission.Abort {
		t.Errorf("runStage: got %v, %v; want abort, nil", action, err)
	}
	if a.frames != 0 {
		t.Errorf("frames: got %d, want 0", a.frames)
	}
}

func TestRun_WalksStages(t *testing.T) {
	stages := []mission.Stage{
		{Name: mission.StagePickup, MarkerID: 1},
		{Name: mission.StageLanding, MarkerID: 1},
	}
	a, samples := newPipelineApp(t, newStill(t, 1), stages)
	srv := a.webServer

	postControl(t, a, "next")
	postControl(t, a, "next")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(*samples) != 2 {
		t.Fatalf("samples: got %d, want 2", len(*samples))
	}
	if (*samples)[1].Stage != mission.StageLanding {
		t.Errorf("second sample stage: got %q", (*samples)[1].Stage)
	}
	if st := srv.Status(); st.StageIndex != 1 {
		t.Errorf("stage index: got %d, want 1", st.StageIndex)
	}
}
