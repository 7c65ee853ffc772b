// Package httpapi exposes the clinic services as a local JSON-over-HTTP API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/clinic-keeper/internal/metrics"
	"github.com/and161185/clinic-keeper/internal/model"
	"github.com/and161185/clinic-keeper/internal/service"
)

// Server wires services into echo handlers.
type Server struct {
	auth     service.AuthService
	assign   service.AssignmentService
	inv      service.InventoryService
	sched    service.ScheduleService
	verifier TokenVerifier
	met      *metrics.Recorder
	log      *zap.Logger
}

// Deps are the services behind the API.
type Deps struct {
	Auth       service.AuthService
	Assignment service.AssignmentService
	Inventory  service.InventoryService
	Schedule   service.ScheduleService
	Verifier   TokenVerifier
	Metrics    *metrics.Recorder
	Logger     *zap.Logger
}

// New constructs a Server with injected services.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Server{
		auth:     d.Auth,
		assign:   d.Assignment,
		inv:      d.Inventory,
		sched:    d.Schedule,
		verifier: d.Verifier,
		met:      d.Metrics,
		log:      d.Logger.Named("http"),
	}
}

// Echo builds the router with middleware and all routes.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(Logging(s.log), Recover(s.log))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(s.met.Handler()))

	v1 := e.Group("/v1")
	v1.POST("/auth/login", s.login)

	p := v1.Group("", RequireSession(s.verifier))
	p.POST("/auth/logout", s.logout)
	p.GET("/me", s.me)

	p.GET("/patients", s.listPatients)
	p.POST("/patients", s.createPatient)
	p.GET("/patients/:id", s.getPatient)
	p.PATCH("/patients/:id", s.updatePatient)
	p.DELETE("/patients/:id", s.deletePatient)

	p.GET("/chairs", s.listChairs)
	p.POST("/chairs", s.createChair)
	p.GET("/chairs/consistency", s.checkConsistency)
	p.GET("/chairs/:id", s.getChair)
	p.PATCH("/chairs/:id", s.updateChair)
	p.DELETE("/chairs/:id", s.deleteChair)
	p.PUT("/chairs/:id/availability", s.setAvailability)
	p.GET("/chairs/:id/occupant", s.occupant)

	p.GET("/medications", s.listMedications)
	p.POST("/medications", s.createMedication)
	p.GET("/medications/:id", s.getMedication)
	p.PATCH("/medications/:id", s.updateMedication)
	p.DELETE("/medications/:id", s.deleteMedication)

	p.GET("/appointments", s.listAppointments)
	p.POST("/appointments", s.createAppointment)
	p.GET("/appointments/:id", s.getAppointment)
	p.PATCH("/appointments/:id", s.updateAppointment)
	p.DELETE("/appointments/:id", s.deleteAppointment)

	p.GET("/visits", s.listVisits)
	p.POST("/visits", s.recordVisit)
	p.PATCH("/visits/:id", s.updateVisit)
	p.DELETE("/visits/:id", s.deleteVisit)

	return e
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badBody(err)
	}
	rec, ok, err := s.auth.Login(c.Request().Context(), req.Username, req.Password, c.RealIP())
	if err != nil {
		return toHTTP(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "bad credentials")
	}
	return c.JSON(http.StatusOK, loginResponse{Token: rec.Token, ExpiresAt: rec.ExpiresAt, User: rec.User})
}

func (s *Server) logout(c echo.Context) error {
	if err := s.auth.Logout(c.Request().Context()); err != nil {
		return toHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) me(c echo.Context) error {
	u, ok := UserFromCtx(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	return c.JSON(http.StatusOK, u)
}

// respond writes rec, or 404 when the lookup found nothing.
func respond[T any](c echo.Context, what string, rec T, ok bool, err error) error {
	if err != nil {
		return toHTTP(err)
	}
	if !ok {
		return notFound(what, c.Param("id"))
	}
	return c.JSON(http.StatusOK, rec)
}

func deleted(c echo.Context, what string, ok bool, err error) error {
	if err != nil {
		return toHTTP(err)
	}
	if !ok {
		return notFound(what, c.Param("id"))
	}
	return c.NoContent(http.StatusNoContent)
}

func list[T any](c echo.Context, items []T, err error) error {
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}
