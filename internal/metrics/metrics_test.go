package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSubscriptionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSubscriptionMetrics(reg).(*subscriptionMetrics)

	m.IncCheckoutConfirmed(30, "DAILY")
	m.IncCheckoutConfirmed(30, "DAILY")
	m.IncSkipRejected("past_date")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.confirmed.WithLabelValues("30", "DAILY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipsRejected.WithLabelValues("past_date")))
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", Handler(reg))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/5", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/items/:id", "204")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
