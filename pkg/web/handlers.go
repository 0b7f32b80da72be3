package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-aruco/pkg/hub"
	"github.com/teslashibe/go-aruco/pkg/mission"
)

// handleStatus returns the current run status
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

// handleStages returns the mission stages
func (s *Server) handleStages(c *fiber.Ctx) error {
	return c.JSON(s.stages)
}

// handleControl queues a stage command (next, abort)
func (s *Server) handleControl(c *fiber.Ctx) error {
	action, ok := mission.ParseAction(c.Params("action"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown action: " + c.Params("action"),
		})
	}

	if err := s.enqueue(action); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"action": action.String()})
}

// handlePoseWS streams pose samples until the client goes away
func (s *Server) handlePoseWS(c *websocket.Conn) {
	hub.NewClient(s.poseHub, c).Run()
}
