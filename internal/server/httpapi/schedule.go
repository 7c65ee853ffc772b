package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/and161185/clinic-keeper/internal/model"
)

func (s *Server) listAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	if pid := c.QueryParam("patientId"); pid != "" {
		items, err := s.sched.ListAppointmentsByPatient(ctx, pid)
		return list(c, items, err)
	}
	items, err := s.sched.ListAppointments(ctx)
	return list(c, items, err)
}

func (s *Server) getAppointment(c echo.Context) error {
	a, ok, err := s.sched.GetAppointment(c.Request().Context(), c.Param("id"))
	return respond(c, "appointment", a, ok, err)
}

func (s *Server) createAppointment(c echo.Context) error {
	var in model.Appointment
	if err := c.Bind(&in); err != nil {
		return badBody(err)
	}
	a, err := s.sched.CreateAppointment(c.Request().Context(), in)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (s *Server) updateAppointment(c echo.Context) error {
	var patch model.AppointmentPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(err)
	}
	a, ok, err := s.sched.UpdateAppointment(c.Request().Context(), c.Param("id"), patch)
	return respond(c, "appointment", a, ok, err)
}

func (s *Server) deleteAppointment(c echo.Context) error {
	ok, err := s.sched.DeleteAppointment(c.Request().Context(), c.Param("id"))
	return deleted(c, "appointment", ok, err)
}

func (s *Server) listVisits(c echo.Context) error {
	ctx := c.Request().Context()
	if pid := c.QueryParam("patientId"); pid != "" {
		items, err := s.sched.ListVisitsByPatient(ctx, pid)
		return list(c, items, err)
	}
	items, err := s.sched.ListVisits(ctx)
	return list(c, items, err)
}

func (s *Server) recordVisit(c echo.Context) error {
	var in model.Visit
	if err := c.Bind(&in); err != nil {
		return badBody(err)
	}
	v, err := s.sched.RecordVisit(c.Request().Context(), in)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (s *Server) updateVisit(c echo.Context) error {
	var patch model.VisitPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(err)
	}
	v, ok, err := s.sched.UpdateVisit(c.Request().Context(), c.Param("id"), patch)
	return respond(c, "visit", v, ok, err)
}

func (s *Server) deleteVisit(c echo.Context) error {
	ok, err := s.sched.DeleteVisit(c.Request().Context(), c.Param("id"))
	return deleted(c, "visit", ok, err)
}
