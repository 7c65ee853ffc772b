package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/and161185/clinic-keeper/internal/model"
)

func (s *Server) listChairs(c echo.Context) error {
	ctx := c.Request().Context()
	if c.QueryParam("available") == "true" {
		items, err := s.assign.ListAvailableChairs(ctx)
		return list(c, items, err)
	}
	items, err := s.assign.ListChairs(ctx)
	return list(c, items, err)
}

func (s *Server) getChair(c echo.Context) error {
	ch, ok, err := s.assign.GetChair(c.Request().Context(), c.Param("id"))
	return respond(c, "chair", ch, ok, err)
}

func (s *Server) createChair(c echo.Context) error {
	var in model.Chair
	if err := c.Bind(&in); err != nil {
		return badBody(err)
	}
	ch, err := s.assign.CreateChair(c.Request().Context(), in)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, ch)
}

func (s *Server) updateChair(c echo.Context) error {
	var patch model.ChairPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(err)
	}
	ch, ok, err := s.assign.UpdateChair(c.Request().Context(), c.Param("id"), patch)
	return respond(c, "chair", ch, ok, err)
}

func (s *Server) deleteChair(c echo.Context) error {
	ok, err := s.assign.DeleteChair(c.Request().Context(), c.Param("id"))
	return deleted(c, "chair", ok, err)
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

func (s *Server) setAvailability(c echo.Context) error {
	var req availabilityRequest
	if err := c.Bind(&req); err != nil {
		return badBody(err)
	}
	if req.Available == nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "available is required")
	}
	ch, ok, err := s.assign.SetChairAvailability(c.Request().Context(), c.Param("id"), *req.Available)
	return respond(c, "chair", ch, ok, err)
}

func (s *Server) occupant(c echo.Context) error {
	p, ok, err := s.assign.OccupantOf(c.Request().Context(), c.Param("id"))
	return respond(c, "occupant of chair", p, ok, err)
}

func (s *Server) checkConsistency(c echo.Context) error {
	v, err := s.assign.CheckConsistency(c.Request().Context())
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"consistent": len(v) == 0, "violations": v})
}
