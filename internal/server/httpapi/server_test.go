package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	pkgcrypto "github.com/and161185/clinic-keeper/internal/crypto"
	"github.com/and161185/clinic-keeper/internal/limiter"
	"github.com/and161185/clinic-keeper/internal/metrics"
	"github.com/and161185/clinic-keeper/internal/model"
	"github.com/and161185/clinic-keeper/internal/repository/kvrepo"
	"github.com/and161185/clinic-keeper/internal/service"
	"github.com/and161185/clinic-keeper/internal/session"
	"github.com/and161185/clinic-keeper/internal/storage/memory"
)

type apiFixture struct {
	e     *echo.Echo
	token string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	kv := memory.New()
	repo := kvrepo.NewSet(kv, kvrepo.Deps{Logger: log})
	met := metrics.New()

	sess, err := session.New(ctx, kv, session.Options{Logger: log})
	require.NoError(t, err)
	auth := service.NewAuthService(repo.Users, sess, pkgcrypto.NewHasher(pkgcrypto.Params{Time: 1, Memory: 1024}),
		limiter.NewMemory(0, 0, 0), log, met)
	_, err = auth.EnsureDefaultUser(ctx)
	require.NoError(t, err)

	srv := New(Deps{
		Auth:       auth,
		Assignment: service.NewAssignmentService(repo.Patients, repo.Chairs, service.AssignmentOptions{Logger: log, Metrics: met}),
		Inventory:  service.NewInventoryService(repo.Medications, nil, nil, log),
		Schedule:   service.NewScheduleService(repo.Appointments, repo.Visits, nil, log),
		Verifier:   sess,
		Metrics:    met,
		Logger:     log,
	})
	f := &apiFixture{e: srv.Echo()}

	rec := f.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"username": service.DefaultUsername, "password": service.DefaultPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var lr loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lr))
	require.NotEmpty(t, lr.Token)
	f.token = lr.Token
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if f.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAPI_AuthRequired(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	f.token = ""
	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/v1/patients", nil).Code)

	f.token = "garbage"
	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/v1/patients", nil).Code)

	f.token = ""
	rec := f.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"username": "admin", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", nil).Code)
}

func TestAPI_MeAndLogout(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	rec := f.do(t, http.MethodGet, "/v1/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[model.User](t, rec)
	require.Equal(t, service.DefaultUsername, me.Username)
	require.NotContains(t, rec.Body.String(), "passwordHash")

	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/v1/auth/logout", nil).Code)
	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/v1/me", nil).Code)
}

func TestAPI_ChairOccupancyFlow(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	rec := f.do(t, http.MethodPost, "/v1/chairs", model.Chair{Number: 1, Name: "Chair 1", Available: true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	chair := decode[model.Chair](t, rec)

	rec = f.do(t, http.MethodPost, "/v1/chairs", model.Chair{Number: 1, Name: "Dup", Available: true})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/patients", map[string]any{
		"givenNames": "Ana", "familyNames": "Rojas", "phone": "+56912345678",
		"email": "ana@clinic.cl", "assignedChairId": chair.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	patient := decode[model.Patient](t, rec)

	got := decode[model.Chair](t, f.do(t, http.MethodGet, "/v1/chairs/"+chair.ID, nil))
	require.False(t, got.Available)
	require.Equal(t, patient.ID, got.OccupantPatientID)

	occ := decode[model.Patient](t, f.do(t, http.MethodGet, "/v1/chairs/"+chair.ID+"/occupant", nil))
	require.Equal(t, patient.ID, occ.ID)

	require.Equal(t, http.StatusConflict, f.do(t, http.MethodDelete, "/v1/chairs/"+chair.ID, nil).Code)
	require.Equal(t, http.StatusConflict, f.do(t, http.MethodPut, "/v1/chairs/"+chair.ID+"/availability", map[string]bool{"available": true}).Code)
	require.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodPatch, "/v1/chairs/"+chair.ID, map[string]bool{"available": true}).Code)

	avail := decode[[]model.Chair](t, f.do(t, http.MethodGet, "/v1/chairs?available=true", nil))
	require.Empty(t, avail)

	report := decode[map[string]any](t, f.do(t, http.MethodGet, "/v1/chairs/consistency", nil))
	require.Equal(t, true, report["consistent"])

	rec = f.do(t, http.MethodPatch, "/v1/patients/"+patient.ID, map[string]string{"assignedChairId": ""})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got = decode[model.Chair](t, f.do(t, http.MethodGet, "/v1/chairs/"+chair.ID, nil))
	require.True(t, got.Available)

	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/v1/patients/"+patient.ID, nil).Code)
	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/v1/patients/"+patient.ID, nil).Code)
	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/v1/chairs/"+chair.ID, nil).Code)
}

func TestAPI_ValidationAndNotFound(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	rec := f.do(t, http.MethodPost, "/v1/patients", map[string]any{"givenNames": "Ana", "phone": "123"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/patients", map[string]any{
		"givenNames": "Ana", "familyNames": "Rojas", "phone": "912345678",
		"email": "ana@clinic.cl", "assignedChairId": "ghost",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/v1/patients/ghost", nil).Code)
	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodPatch, "/v1/medications/ghost", map[string]any{"name": "x"}).Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/chairs", bytes.NewBufferString("{broken"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+f.token)
	out := httptest.NewRecorder()
	f.e.ServeHTTP(out, req)
	require.Equal(t, http.StatusBadRequest, out.Code)
}

func TestAPI_InventoryAndSchedule(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	rec := f.do(t, http.MethodPost, "/v1/medications", map[string]any{
		"name": "Ondansetron", "unit": "mg", "quantity": 4, "expirationDate": "2099-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	low := decode[[]model.Medication](t, f.do(t, http.MethodGet, "/v1/medications?lowStock=true", nil))
	require.Len(t, low, 1)
	valid := decode[[]model.Medication](t, f.do(t, http.MethodGet, "/v1/medications?expiry=valid", nil))
	require.Len(t, valid, 1)
	require.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodGet, "/v1/medications?expiry=soon", nil).Code)

	rec = f.do(t, http.MethodPost, "/v1/appointments", map[string]any{
		"patientId": "p1", "date": "2025-07-01T00:00:00Z", "time": "10:00", "reason": "control",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	appts := decode[[]model.Appointment](t, f.do(t, http.MethodGet, "/v1/appointments?patientId=p1", nil))
	require.Len(t, appts, 1)

	rec = f.do(t, http.MethodPost, "/v1/visits", map[string]any{"patientId": "p1", "chairId": "c1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	visit := decode[model.Visit](t, rec)
	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/v1/visits/"+visit.ID, nil).Code)
}

func TestAPI_Metrics(t *testing.T) {
	t.Parallel()
	f := newAPI(t)
	f.do(t, http.MethodGet, "/v1/chairs", nil)

	rec := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `clinic_logins_total{result="ok"} 1`)
}

func TestRecover_TurnsPanicInto500(t *testing.T) {
	t.Parallel()
	e := echo.New()
	log := zaptest.NewLogger(t)
	e.Use(Logging(log), Recover(log))
	e.GET("/boom", func(echo.Context) error { panic("kaboom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "kaboom")
}
