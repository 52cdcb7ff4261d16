package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"dronedispatch/internal/bridge"
	"dronedispatch/internal/dispatch"
	"dronedispatch/internal/fleet"
)

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid drone id")
	}
	return id, nil
}

func (s *Server) createDrone(c echo.Context) error {
	var req createDroneRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	base := s.cfg.DefaultBase
	if req.Base != nil {
		base = req.Base.point()
	}

	d := s.reg.Create(fleet.Spec{
		Name:         req.Name,
		Model:        req.Model,
		MaxPayloadKG: req.MaxPayloadKG,
		MaxRangeKM:   req.MaxRangeKM,
		Base:         base,
		BatteryPct:   req.BatteryPct,
	})
	return c.JSON(http.StatusCreated, d)
}

func (s *Server) listDrones(c echo.Context) error {
	var filter []fleet.Status
	if q := c.QueryParam("status"); q != "" {
		st := fleet.Status(q)
		if !st.Valid() {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "unknown status " + q})
		}
		filter = append(filter, st)
	}
	return c.JSON(http.StatusOK, s.reg.List(filter...))
}

func (s *Server) getDrone(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := s.reg.Get(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) assignDrone(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	d, err := s.reg.CompareAndAssign(id, req.OrderID, req.Destination.point())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) dispatchOrder(c echo.Context) error {
	var req dispatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	d, err := s.asn.Assign(dispatch.Request{
		OrderID:     req.OrderID,
		WeightKG:    req.WeightKG,
		Origin:      req.Origin.point(),
		Destination: req.Destination.point(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) orderEvent(c echo.Context) error {
	var ev bridge.Event
	if err := c.Bind(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}
	if err := c.Validate(&ev); err != nil {
		return err
	}

	d, err := s.events.Apply(ev)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) returnDrone(c echo.Context) error {
	return s.transition(c, s.reg.ReturnToBase)
}

func (s *Server) chargeDrone(c echo.Context) error {
	return s.transition(c, s.reg.SetCharging)
}

func (s *Server) completeCharging(c echo.Context) error {
	return s.transition(c, s.reg.CompleteCharging)
}

func (s *Server) setMaintenance(c echo.Context) error {
	return s.transition(c, s.reg.SetMaintenance)
}

func (s *Server) clearMaintenance(c echo.Context) error {
	return s.transition(c, s.reg.ClearMaintenance)
}

// transition runs one id-keyed registry state change and returns the updated
// drone.
func (s *Server) transition(c echo.Context, op func(int64) (fleet.Drone, error)) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := op(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) droneStats(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	stats, err := s.reg.Stats(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
