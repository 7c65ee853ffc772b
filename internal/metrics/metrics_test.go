package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	t.Parallel()
	r := New()

	r.Op("create_patient", OutcomeOK)
	r.Op("create_patient", OutcomeOK)
	r.Op("delete_chair", OutcomeRejected)
	r.Rejected("chair_occupied")
	r.SideEffectFailed("occupy", "best-effort")
	r.Login("ok")

	require.Equal(t, 2.0, testutil.ToFloat64(r.ops.WithLabelValues("create_patient", OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(r.ops.WithLabelValues("delete_chair", OutcomeRejected)))
	require.Equal(t, 1.0, testutil.ToFloat64(r.rejections.WithLabelValues("chair_occupied")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.sideEffect.WithLabelValues("occupy", "best-effort")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.logins.WithLabelValues("ok")))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	t.Parallel()
	var r *Recorder
	require.NotPanics(t, func() {
		r.Op("x", OutcomeOK)
		r.Rejected("x")
		r.SideEffectFailed("x", "y")
		r.Login("x")
	})
	require.Nil(t, r.Registry())
	require.NotNil(t, r.Handler())
}

func TestRecorder_Handler(t *testing.T) {
	t.Parallel()
	r := New()
	r.Op("list_chairs", OutcomeOK)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `clinic_operations_total{op="list_chairs",outcome="ok"} 1`)
}
