package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	t.Fatalf("metric family %q not found", name)
	return nil
}

func labelValue(metric *dto.Metric, name string) string {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}

func TestHTTPMetrics_RecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/orders/1", "/orders/2", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	family := findFamily(t, reg, "admin_api_http_requests_total")
	counts := map[string]float64{}
	for _, metric := range family.GetMetric() {
		counts[labelValue(metric, "route")+" "+labelValue(metric, "status")] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, 2.0, counts["/orders/:id 200"])
	assert.Equal(t, 1.0, counts["unmatched 404"])

	latency := findFamily(t, reg, "admin_api_http_request_duration_seconds")
	assert.NotEmpty(t, latency.GetMetric())
}

func TestRegister_ReusesExistingCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewPurgeMetrics(reg)
	second := NewPurgeMetrics(reg)
	assert.Same(t, first.deleted, second.deleted)
}

func TestPurgeMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPurgeMetrics(reg)

	m.Observe(3, nil)
	m.Observe(0, errors.New("db down"))
	m.Observe(2, nil)

	assert.Equal(t, 5.0, findFamily(t, reg, "admin_api_idempotency_purge_deleted_total").GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 2.0, findFamily(t, reg, "admin_api_idempotency_purge_last_deleted").GetMetric()[0].GetGauge().GetValue())

	runs := map[string]float64{}
	for _, metric := range findFamily(t, reg, "admin_api_idempotency_purge_runs_total").GetMetric() {
		runs[labelValue(metric, "result")] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"ok": 2, "error": 1}, runs)
}

func TestHandler_ServesTextFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPurgeMetrics(reg).Observe(1, nil)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "admin_api_idempotency_purge_deleted_total 1"))
}
