package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/salon-booking/internal/api/middleware"
	"github.com/m04kA/salon-booking/pkg/metrics"
)

const secret = "s3cret"

func sign(t *testing.T, method jwt.SigningMethod, role string, expires time.Time) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "owner@salon",
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAdminAuth(t *testing.T) {
	var subject string
	protected := middleware.AdminAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ = middleware.GetSubject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	future := time.Now().Add(time.Hour)
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no header", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc.def.ghi", want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + sign(t, jwt.SigningMethodHS256, "admin", time.Now().Add(-time.Minute)), want: http.StatusUnauthorized},
		{name: "wrong algorithm", header: "Bearer " + sign(t, jwt.SigningMethodHS512, "admin", future), want: http.StatusUnauthorized},
		{name: "not admin", header: "Bearer " + sign(t, jwt.SigningMethodHS256, "client", future), want: http.StatusForbidden},
		{name: "admin", header: "bearer " + sign(t, jwt.SigningMethodHS256, "admin", future), want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Equal(t, "owner@salon", subject)
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), "salon-booking")

	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware(m, "salon-booking"))
	r.HandleFunc("/bookings/{reference}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/ABCD1234", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("salon-booking", http.MethodGet, "/bookings/{reference}", "404"))
	assert.Equal(t, float64(2), got)
}
