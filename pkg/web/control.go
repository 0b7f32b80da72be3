package web

import (
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-aruco/pkg/mission"
)

// controlReply acknowledges a remote command.
type controlReply struct {
	Action string `json:"action,omitempty"`
	Error  string `json:"error,omitempty"`
}

// controlHandler accepts text commands ("next", "abort") and answers each
// with a JSON reply.
func controlHandler(s *Server) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		defer c.Close()

		for {
			mt, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.TextMessage {
				continue
			}

			cmd := strings.ToLower(strings.TrimSpace(string(msg)))
			action, ok := mission.ParseAction(cmd)
			reply := controlReply{Action: action.String()}
			switch {
			case !ok:
				reply = controlReply{Error: "unknown command: " + cmd}
			default:
				if err := s.enqueue(action); err != nil {
					reply = controlReply{Error: err.Error()}
				}
			}

			if err := c.WriteJSON(reply); err != nil {
				return
			}
		}
	})
}
