package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// upgrader promotes tracking requests to WebSocket connections.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) currentPosition(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	pos, err := s.pub.CurrentPosition(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pos)
}

func (s *Server) trackingHistory(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if _, err := s.reg.Get(id); err != nil {
		return respondError(c, err)
	}

	limit := 0
	if q := c.QueryParam("limit"); q != "" {
		limit, err = strconv.Atoi(q)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid limit"})
		}
	}
	history := s.pub.History(id, limit)
	return c.JSON(http.StatusOK, history)
}

// streamDrone pushes live position updates for one drone until the client
// disconnects. Updates the client is too slow to read are dropped, never
// queued against the simulator.
func (s *Server) streamDrone(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if _, err := s.reg.Get(id); err != nil {
		return respondError(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := s.pub.Subscribe(id)
	defer sub.Cancel()

	// Drain client frames so we notice the close handshake.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case sample, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(sample); err != nil {
				return nil
			}
		case <-closed:
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
