// Package web serves the live pose dashboard API: current status over
// HTTP, a websocket stream of pose samples and a websocket for remote
// stage control.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-aruco/internal/log"
	"github.com/teslashibe/go-aruco/pkg/hub"
	"github.com/teslashibe/go-aruco/pkg/mission"
	"github.com/teslashibe/go-aruco/pkg/telemetry"
)

// ErrControlQueueFull is returned when remote commands arrive faster than
// the frame loop consumes them.
var ErrControlQueueFull = errors.New("web: control queue full")

// Status is the dashboard view of a run.
type Status struct {
	Session    string            `json:"session"`
	Stage      *mission.Stage    `json:"stage,omitempty"`
	StageIndex int               `json:"stage_index"`
	Locked     bool              `json:"locked"`
	Frames     int               `json:"frames"`
	Last       *telemetry.Sample `json:"last,omitempty"`
	Clients    int               `json:"clients"`
	Dropped    int64             `json:"dropped"`
	Streaming  bool              `json:"streaming"`
}

// Server is the dashboard server
type Server struct {
	app  *fiber.App
	port string
	log  *slog.Logger

	stages  []mission.Stage
	poseHub *hub.Hub

	status   Status
	statusMu sync.RWMutex

	controls chan mission.Action
}

// NewServer creates a dashboard server for one session.
func NewServer(port, session string, stages []mission.Stage) *Server {
	s := &Server{
		port:     port,
		log:      log.Component("web"),
		stages:   append([]mission.Stage(nil), stages...),
		poseHub:  hub.New("pose"),
		status:   Status{Session: session},
		controls: make(chan mission.Action, 8),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-aruco",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/stages", s.handleStages)
	api.Post("/control/:action", s.handleControl)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/pose", websocket.New(s.handlePoseWS))
	app.Get("/ws/control", controlHandler(s))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on the configured port and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return err
	}
	s.log.Info("dashboard listening", "url", "http://localhost:"+s.port)
	return s.Serve(ctx, ln)
}

// Serve runs the hubs and serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.poseHub.Run(ctx)
	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			s.log.Warn("shutdown", "error", err)
		}
	}()
	return s.app.Listener(ln)
}

// StartAsync starts the server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.log.Error("web server error", "error", err)
		}
	}()
}

// Publish records s as the latest sample and streams it to subscribers.
// It implements telemetry.Publisher.
func (s *Server) Publish(sample telemetry.Sample) error {
	s.statusMu.Lock()
	s.status.Last = &sample
	s.statusMu.Unlock()

	return s.poseHub.BroadcastJSON(sample)
}

// SetStage records the stage currently running.
func (s *Server) SetStage(index int, stage mission.Stage) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.StageIndex = index
	s.status.Stage = &stage
	s.status.Locked = false
}

// SetFrame records frame progress and whether the target is in view.
func (s *Server) SetFrame(frames int, locked bool) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Frames = frames
	s.status.Locked = locked
}

// Status returns a copy of the current status.
func (s *Server) Status() Status {
	s.statusMu.RLock()
	st := s.status
	s.statusMu.RUnlock()
	st.Clients = s.poseHub.ClientCount()
	st.Dropped = s.poseHub.Dropped()
	st.Streaming = s.poseHub.IsRunning()
	return st
}

// Controls delivers remote stage commands to the frame loop.
func (s *Server) Controls() <-chan mission.Action {
	return s.controls
}

func (s *Server) enqueue(a mission.Action) error {
	select {
	case s.controls <- a:
		s.log.Info("remote command", "action", a.String())
		return nil
	default:
		return ErrControlQueueFull
	}
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
