package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Skufu/glucorisk/pkg/logger"
	"github.com/Skufu/glucorisk/pkg/metrics"
	"github.com/Skufu/glucorisk/web"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, mw ...gin.HandlerFunc) *gin.Engine {
	t.Helper()

	tmpl, err := web.Templates()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(mw...)
	return r
}

func TestRecoveryRendersGenericPage(t *testing.T) {
	core, recorded := observer.New(zap.ErrorLevel)
	t.Cleanup(logger.Replace(zap.New(core)))

	r := newRouter(t, Recovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("secret table name")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret table name")
	assert.NotEmpty(t, recorded.FilterMessage("panic").All())
}

func TestNotFound(t *testing.T) {
	r := newRouter(t)
	r.NoRoute(NotFound)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")
}

func TestLoggerIncludesRequestID(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	t.Cleanup(logger.Replace(zap.New(core)))

	r := newRouter(t, RequestID(), Logger())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	entries := recorded.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/ping", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, w.Header().Get(RequestIDHeader), fields["request_id"])
}

func TestRequestIDReusesValidHeader(t *testing.T) {
	r := newRouter(t, RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	inbound := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, inbound)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, inbound, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

func TestMetricsObservesLatency(t *testing.T) {
	r := newRouter(t, Metrics())
	r.GET("/observed", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.CollectAndCount(metrics.APILatency)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/observed", nil))

	assert.Equal(t, before+1, testutil.CollectAndCount(metrics.APILatency))
}

func TestLimitBodySize(t *testing.T) {
	r := newRouter(t, LimitBodySize(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	t.Run("within limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("12345")))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("01234567890")))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestMetricsRecordsRecoveredPanics(t *testing.T) {
	t.Cleanup(logger.Replace(zap.NewNop()))

	r := newRouter(t, Metrics(), Recovery())
	r.GET("/panics", func(c *gin.Context) { panic("boom") })

	before := testutil.CollectAndCount(metrics.APILatency)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panics", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, before+1, testutil.CollectAndCount(metrics.APILatency))
}
