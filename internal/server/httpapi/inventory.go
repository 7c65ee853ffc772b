package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/and161185/clinic-keeper/internal/model"
)

// listMedications supports ?lowStock=true and ?expiry=expired|expiring|valid.
func (s *Server) listMedications(c echo.Context) error {
	ctx := c.Request().Context()
	switch {
	case c.QueryParam("lowStock") == "true":
		items, err := s.inv.ListLowStock(ctx)
		return list(c, items, err)
	case c.QueryParam("expiry") != "":
		st := model.ExpiryStatus(c.QueryParam("expiry"))
		if st != model.ExpiryExpired && st != model.ExpiryExpiring && st != model.ExpiryValid {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "expiry must be expired, expiring or valid")
		}
		items, err := s.inv.ListByExpiry(ctx, st)
		return list(c, items, err)
	}
	items, err := s.inv.ListMedications(ctx)
	return list(c, items, err)
}

func (s *Server) getMedication(c echo.Context) error {
	m, ok, err := s.inv.GetMedication(c.Request().Context(), c.Param("id"))
	return respond(c, "medication", m, ok, err)
}

func (s *Server) createMedication(c echo.Context) error {
	var in model.Medication
	if err := c.Bind(&in); err != nil {
		return badBody(err)
	}
	m, err := s.inv.CreateMedication(c.Request().Context(), in)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (s *Server) updateMedication(c echo.Context) error {
	var patch model.MedicationPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(err)
	}
	m, ok, err := s.inv.UpdateMedication(c.Request().Context(), c.Param("id"), patch)
	return respond(c, "medication", m, ok, err)
}

func (s *Server) deleteMedication(c echo.Context) error {
	ok, err := s.inv.DeleteMedication(c.Request().Context(), c.Param("id"))
	return deleted(c, "medication", ok, err)
}
