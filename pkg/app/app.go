package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-aruco/internal/log"
	"github.com/teslashibe/go-aruco/pkg/calibration"
	"github.com/teslashibe/go-aruco/pkg/camera"
	"github.com/teslashibe/go-aruco/pkg/debug"
	"github.com/teslashibe/go-aruco/pkg/marker"
	"github.com/teslashibe/go-aruco/pkg/mission"
	"github.com/teslashibe/go-aruco/pkg/overlay"
	"github.com/teslashibe/go-aruco/pkg/pose"
	"github.com/teslashibe/go-aruco/pkg/recorder"
	"github.com/teslashibe/go-aruco/pkg/telemetry"
	"github.com/teslashibe/go-aruco/pkg/web"
	"gocv.io/x/gocv"
)

// maxReadFailures is how many consecutive failed grabs end the run.
const maxReadFailures = 30

// App is the pose display orchestrator.
// It owns the camera, detector and publishers for one session.
type App struct {
	config  Config
	session string
	log     *slog.Logger

	calib     *calibration.Calibration
	source    camera.FrameSource
	detector  marker.Detector
	estimator *marker.Estimator
	window    *gocv.Window

	recorder  *recorder.Recorder
	webServer *web.Server
	publisher telemetry.Multi

	frames    int
	published int
}

// New creates an application with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames

	session := telemetry.NewSession()
	return &App{
		config:  cfg,
		session: session,
		log:     log.With("component", "app", "session", session),
	}, nil
}

// Session returns the telemetry session id of this run.
func (a *App) Session() string {
	return a.session
}

// Init loads the calibration and acquires the camera, detector, window
// and publishers. Call this after New() and before Run().
func (a *App) Init() error {
	fmt.Println("🎯 go-aruco - marker pose display")
	fmt.Println("================================")
	if debug.Enabled {
		fmt.Println("🐛 Debug mode enabled")
	}

	calib, err := calibration.Load(a.config.CalibDir, a.config.MatrixFile, a.config.DistortionFile)
	if err != nil {
		return fmt.Errorf("calibration: %w", err)
	}
	a.calib = calib
	a.log.Info("calibration loaded",
		"dir", a.config.CalibDir,
		"fx", calib.Fx(), "fy", calib.Fy(),
		"distortion", len(calib.Distortion))

	if a.estimator, err = marker.NewEstimator(calib, a.config.MarkerSize); err != nil {
		return fmt.Errorf("estimator: %w", err)
	}

	detector, err := marker.NewAruco(a.config.Dictionary)
	if err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	a.detector = detector

	fmt.Print("📹 Opening camera... ")
	source, err := camera.Open(a.config.Camera)
	if err != nil {
		fmt.Println("❌")
		return fmt.Errorf("camera: %w", err)
	}
	a.source = source
	fmt.Println("✅")

	if err := a.initPublishers(); err != nil {
		return err
	}

	if !a.config.Headless {
		a.window = gocv.NewWindow(a.config.WindowName)
	}

	a.log.Info("initialized",
		"device", a.config.Camera.Device,
		"dictionary", a.config.Dictionary,
		"marker_size", a.config.MarkerSize,
		"stages", mission.String(a.config.Stages),
		"headless", a.config.Headless)
	return nil
}

func (a *App) initPublishers() error {
	if a.config.RecordPath != "" {
		rec, err := recorder.Open(a.config.RecordPath)
		if err != nil {
			return fmt.Errorf("recorder: %w", err)
		}
		a.recorder = rec
		a.publisher = append(a.publisher, rec)
		fmt.Printf("💾 Recording samples to %s\n", rec.Path())
	}

	if a.config.WebPort != "" {
		a.webServer = web.NewServer(a.config.WebPort, a.session, a.config.Stages)
		a.publisher = append(a.publisher, a.webServer)
		fmt.Printf("🌐 Dashboard API on http://localhost:%s/api/status\n", a.config.WebPort)
	}
	return nil
}

// Run walks the mission stages. It returns nil when the last stage ends,
// when the mission is aborted and when ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.source == nil {
		return errors.New("app: Run called before Init")
	}

	if a.webServer != nil {
		a.webServer.StartAsync(ctx)
	}

	if a.window != nil {
		fmt.Println("\n⌨️  [q] next stage   [esc] abort   (Ctrl+C to exit)")
	} else {
		fmt.Println("\n⌨️  Headless: advance with POST /api/control/next   (Ctrl+C to exit)")
	}

	for i, stage := range a.config.Stages {
		fmt.Printf("🎯 Stage %d/%d: %s (marker %d)\n", i+1, len(a.config.Stages), stage.Name, stage.MarkerID)
		a.log.Info("stage started", "index", i, "stage", stage.Name, "marker", stage.MarkerID)
		if a.webServer != nil {
			a.webServer.SetStage(i, stage)
		}

		action, err := a.runStage(ctx, stage)
		if err != nil {
			return fmt.Errorf("stage %s: %w", stage.Name, err)
		}
		if ctx.Err() != nil {
			return nil
		}
		if action == mission.Abort {
			fmt.Println("🛑 Mission aborted")
			a.log.Info("mission aborted", "stage", stage.Name)
			return nil
		}
		a.log.Info("stage finished", "stage", stage.Name)
	}

	fmt.Println("✅ Mission complete")
	return nil
}

// runStage processes frames for one target until the operator moves on.
func (a *App) runStage(ctx context.Context, stage mission.Stage) (mission.Action, error) {
	img := gocv.NewMat()
	defer img.Close()
	gray := gocv.NewMat()
	defer gray.Close()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return mission.Abort, nil
		default:
		}

		if err := a.source.Read(&img); err != nil {
			failures++
			if failures >= maxReadFailures {
				return mission.None, err
			}
			debug.Log("frame skipped", "error", err, "failures", failures)
			continue
		}
		failures = 0
		a.frames++

		a.processFrame(&img, &gray, stage)

		action := mission.None
		if a.window != nil {
			a.window.IMShow(img)
			action = mission.KeyAction(a.window.WaitKey(1))
		}
		action = merge(action, a.remoteAction())

		if action != mission.None {
			return action, nil
		}
	}
}

// processFrame detects markers in img, solves the target's pose,
// publishes it and draws the overlay onto img.
func (a *App) processFrame(img, gray *gocv.Mat, stage mission.Stage) {
	gocv.CvtColor(*img, gray, gocv.ColorBGRToGray)
	dets := a.detector.Detect(*gray)
	overlay.Markers(img, dets)

	locked := false
	var lines []string

	if det := marker.Find(dets, stage.MarkerID); det != nil {
		p, err := a.estimator.Estimate(*det)
		if err != nil {
			debug.FrameLog("pose not solved", "marker", det.ID, "error", err)
		} else {
			locked = true
			est := pose.Solve(det.ID, p)
			overlay.Target(img, *det)
			overlay.Axes(img, a.calib, p, a.estimator.Size())
			lines = overlay.Lines(est)
			a.publish(telemetry.FromEstimate(a.session, stage.Name, a.frames, est, time.Now()))
		}
	}

	overlay.Text(img, overlay.Banner(stage.Name, stage.MarkerID, locked), lines)
	if a.webServer != nil {
		a.webServer.SetFrame(a.frames, locked)
	}
}

func (a *App) publish(s telemetry.Sample) {
	if len(a.publisher) == 0 {
		return
	}
	if err := a.publisher.Publish(s); err != nil {
		a.log.Warn("publish failed", "frame", s.Frame, "error", err)
		return
	}
	a.published++
}

// remoteAction returns a pending dashboard command, if any.
func (a *App) remoteAction() mission.Action {
	if a.webServer == nil {
		return mission.None
	}
	select {
	case action := <-a.webServer.Controls():
		return action
	default:
		return mission.None
	}
}

// merge combines two simultaneous inputs; abort wins over next.
func merge(x, y mission.Action) mission.Action {
	if x == mission.Abort || y == mission.Abort {
		return mission.Abort
	}
	if x == mission.Next || y == mission.Next {
		return mission.Next
	}
	return mission.None
}

// Shutdown releases the camera, closes the window and stops publishers.
func (a *App) Shutdown() {
	fmt.Println("\n👋 Goodbye!")

	if a.window != nil {
		if err := a.window.Close(); err != nil {
			a.log.Warn("close window", "error", err)
		}
	}
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			a.log.Warn("close camera", "error", err)
		}
	}
	if a.detector != nil {
		a.detector.Close()
	}
	if a.estimator != nil {
		a.estimator.Close()
	}
	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.log.Warn("close dashboard", "error", err)
		}
	}
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			a.log.Warn("close recorder", "error", err)
		}
	}

	a.log.Info("session ended", "frames", a.frames, "published", a.published)
}
