package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ConnOpened()
	m.ConnOpened()
	m.ConnClosed()
	m.Event("vote", nil)
	m.Event("vote", errors.New("boom"))
	m.Event("vote", nil)
	m.Revealed()
	m.Dropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("vote", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("vote", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reveals))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped))
}

func TestMetrics_HandlerExposesRoomsGauge(t *testing.T) {
	m := New()
	m.TrackRooms(func() int { return 3 })

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	assert.Contains(t, string(body), "planningpoker_rooms 3")
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ConnOpened()
		m.ConnClosed()
		m.Event("x", nil)
		m.Revealed()
		m.Dropped()
		m.TrackRooms(func() int { return 1 })
	})
}
