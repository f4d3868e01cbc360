package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletionsCounter(t *testing.T) {
	before := testutil.ToFloat64(DeletionsTotal.WithLabelValues("floor", "blocked"))
	DeletionsTotal.WithLabelValues("floor", "blocked").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DeletionsTotal.WithLabelValues("floor", "blocked")))
}

func TestHandlerExposesCampusMetrics(t *testing.T) {
	RegionValidationsTotal.WithLabelValues("accepted").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `campusmap_region_validations_total{outcome="accepted"}`))
}
