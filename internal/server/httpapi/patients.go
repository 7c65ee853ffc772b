package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/and161185/clinic-keeper/internal/model"
)

func (s *Server) listPatients(c echo.Context) error {
	items, err := s.assign.ListPatients(c.Request().Context())
	return list(c, items, err)
}

func (s *Server) getPatient(c echo.Context) error {
	p, ok, err := s.assign.GetPatient(c.Request().Context(), c.Param("id"))
	return respond(c, "patient", p, ok, err)
}

func (s *Server) createPatient(c echo.Context) error {
	var in model.Patient
	if err := c.Bind(&in); err != nil {
		return badBody(err)
	}
	p, err := s.assign.CreatePatient(c.Request().Context(), in)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) updatePatient(c echo.Context) error {
	var patch model.PatientPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(err)
	}
	p, ok, err := s.assign.UpdatePatient(c.Request().Context(), c.Param("id"), patch)
	return respond(c, "patient", p, ok, err)
}

func (s *Server) deletePatient(c echo.Context) error {
	ok, err := s.assign.DeletePatient(c.Request().Context(), c.Param("id"))
	return deleted(c, "patient", ok, err)
}
