package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	applogger "TransferDesk/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type allowN struct{ n int }

func (a *allowN) Allow(string, float64, float64) bool {
	a.n--
	return a.n >= 0
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(Recover(applogger.NewWriter(&buf, zerolog.ErrorLevel)))
	e.GET("/boom", func(echo.Context) error { panic("validated request rejected") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(&allowN{n: 1}, 1, 1))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, want, rec.Code)
	}
}

func TestMetricsAndLoggingRecordFinalStatus(t *testing.T) {
	var buf bytes.Buffer
	l := applogger.NewWriter(&buf, zerolog.DebugLevel)
	m := NewHTTPMetrics(prometheus.NewRegistry())

	e := echo.New()
	e.Use(m.Middleware(l, 0))
	e.Use(RequestLogging(l))
	e.GET("/missing/:id", func(echo.Context) error { return echo.ErrNotFound })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing/1", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/missing/:id", http.MethodGet, "404")))
	assert.Contains(t, buf.String(), "http request rejected")
}
