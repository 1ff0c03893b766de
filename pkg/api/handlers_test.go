package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/audit"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/config"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/ledger"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/network"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/relief"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/requests"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/routing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	return newTestRouterWithSink(t, nil)
}

func newTestRouterWithSink(t *testing.T, sink audit.Sink) *gin.Engine {
	t.Helper()
	cfg, err := config.Load("../../relief.toml")
	require.NoError(t, err)
	svc, err := relief.NewFromSeed(cfg.Network, cfg.Seed, sink)
	require.NoError(t, err)
	return NewRouter(DefaultConfig(":0"), NewHandlers(svc))
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func TestHandleHealth(t *testing.T) {
	w := do(t, newTestRouter(t), "GET", "/api/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, w).Status)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestHandleStats(t *testing.T) {
	w := do(t, newTestRouter(t), "GET", "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[relief.Stats](t, w)
	assert.Equal(t, 7, st.Cities)
	assert.Equal(t, 10, st.Roads)
}

func TestHandleCities(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, "GET", "/api/v1/cities", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]network.City](t, w), 7)

	w = do(t, r, "POST", "/api/v1/cities", `{"name":"Solapur","population":950000,"damage":2,"resources":700,"lat":17.6599,"lng":75.9064}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c := decode[network.City](t, w)
	assert.Equal(t, 7, c.ID)
	assert.Equal(t, 75.9064, c.Lon)

	w = do(t, r, "GET", "/api/v1/cities/Solapur", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 700, decode[network.City](t, w).Resources)

	w = do(t, r, "GET", "/api/v1/cities/Goa", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "city_not_found", decode[ErrorResponse](t, w).Error)
}

func TestHandleAddCityErrors(t *testing.T) {
	r := newTestRouter(t)
	tests := []struct {
		name   string
		body   string
		status int
		code   string
		field  string
	}{
		{"bad json", `{"name":`, http.StatusBadRequest, "invalid_request", ""},
		{"duplicate", `{"name":"Pune"}`, http.StatusConflict, "duplicate_city", "name"},
		{"damage out of range", `{"name":"X","damage":11}`, http.StatusBadRequest, "invalid_city", ""},
		{"latitude out of range", `{"name":"X","lat":123}`, http.StatusBadRequest, "invalid_coordinates", "lat"},
		{"longitude out of range", `{"name":"X","lat":18.5,"lng":200}`, http.StatusBadRequest, "invalid_coordinates", "lng"},
		{"both out of range", `{"name":"X","lat":-91,"lng":-181}`, http.StatusBadRequest, "invalid_coordinates", "lat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, "POST", "/api/v1/cities", tt.body)
			assert.Equal(t, tt.status, w.Code)
			e := decode[ErrorResponse](t, w)
			assert.Equal(t, tt.code, e.Error)
			assert.Equal(t, tt.field, e.Field)
		})
	}
}

func TestMissingContentType(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest("POST", "/api/v1/requests", strings.NewReader(`{"city":"Pune","urgency":5,"resources_needed":10}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleNearestCity(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, "GET", "/api/v1/cities/nearest?lat=18.6&lng=73.8", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pune", decode[NearestCityResponse](t, w).City.Name)

	for _, tt := range []struct{ query, field string }{
		{"lat=abc&lng=73.8", "lat"},
		{"lat=18.6&lng=abc", "lng"},
		{"lat=95&lng=73.8", "lat"},
		{"lat=18.6&lng=-190", "lng"},
		{"lat=18.6&lng=NaN", "lng"},
	} {
		w = do(t, r, "GET", "/api/v1/cities/nearest?"+tt.query, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, tt.query)
		assert.Equal(t, tt.field, decode[ErrorResponse](t, w).Field, tt.query)
	}
}

func TestInvalidCoord(t *testing.T) {
	assert.Equal(t, "", invalidCoord(0, 0))
	assert.Equal(t, "", invalidCoord(-90, 180))
	assert.Equal(t, "lat", invalidCoord(90.5, 0))
	assert.Equal(t, "lat", invalidCoord(math.Inf(1), 0))
	assert.Equal(t, "lng", invalidCoord(0, 180.5))
	assert.Equal(t, "lng", invalidCoord(0, math.NaN()))
}

func TestHandleAddRoad(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, "POST", "/api/v1/roads", `{"from":"Thane","to":"Pune","distance_km":140}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, "GET", "/api/v1/route?from=Thane&to=Pune", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 140, decode[routing.RouteResult](t, w).DistanceKm)

	w = do(t, r, "POST", "/api/v1/roads", `{"from":"Thane","to":"Pune","distance_km":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, "POST", "/api/v1/roads", `{"from":"Thane","to":"Pune","distance_km":9223372036854775807}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_distance", decode[ErrorResponse](t, w).Error)
	w = do(t, r, "POST", "/api/v1/roads", `{"from":"Thane","to":"Goa","distance_km":10}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAllocationFlow(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, "POST", "/api/v1/allocations", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no_pending_requests", decode[ErrorResponse](t, w).Error)

	w = do(t, r, "POST", "/api/v1/requests", `{"city":"Mumbai","urgency":10,"resources_needed":1000}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[requests.Request](t, w)
	assert.Equal(t, requests.Pending, created.Status)

	w = do(t, r, "GET", "/api/v1/requests", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]requests.Request](t, w), 1)

	w = do(t, r, "POST", "/api/v1/allocations", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Request   requests.Request `json:"request"`
		Status    requests.Status  `json:"status"`
		Allocated int              `json:"allocated"`
		Support   string           `json:"support_city"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, created.ID, out.Request.ID)
	assert.Equal(t, requests.InTransit, out.Status)
	assert.Equal(t, 1000, out.Allocated)
	assert.Equal(t, ledger.SupportMultiple, out.Support)

	w = do(t, r, "GET", "/api/v1/status/Mumbai", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, requests.InTransit, decode[ledger.Entry](t, w).Status)

	w = do(t, r, "POST", "/api/v1/status/Mumbai/delivered", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, requests.Completed, decode[ledger.Entry](t, w).Status)

	w = do(t, r, "POST", "/api/v1/status/Mumbai/delivered", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, "GET", "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]ledger.Entry](t, w), 1)

	w = do(t, r, "GET", "/api/v1/status/Pune", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleRaiseRequestInvalid(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, "POST", "/api/v1/requests", `{"city":"Pune","urgency":12,"resources_needed":10}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, "POST", "/api/v1/requests", `{"city":"Goa","urgency":2,"resources_needed":10}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleRoute(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, "GET", "/api/v1/route?from=Mumbai&to=Nagpur", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[routing.RouteResult](t, w)
	assert.Equal(t, 495, res.DistanceKm)
	assert.Equal(t, []string{"Mumbai", "Nashik", "Nagpur"}, res.Cities)

	w = do(t, r, "GET", "/api/v1/route?from=Mumbai", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "to", decode[ErrorResponse](t, w).Field)

	do(t, r, "POST", "/api/v1/cities", `{"name":"Port Blair"}`)
	w = do(t, r, "GET", "/api/v1/route?from=Mumbai&to=Port%20Blair", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no_route_found", decode[ErrorResponse](t, w).Error)

	w = do(t, r, "GET", "/api/v1/connectivity", "")
	require.Equal(t, http.StatusOK, w.Code)
	conn := decode[ConnectivityResponse](t, w)
	assert.False(t, conn.Connected)
	assert.Len(t, conn.Components, 2)
}

func TestHandleSupport(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, "GET", "/api/v1/support?city=Mumbai&need=1000", "")
	require.Equal(t, http.StatusOK, w.Code)
	var d struct {
		City       string `json:"city"`
		DistanceKm int    `json:"distance_km"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, "Pune", d.City)
	assert.Equal(t, 150, d.DistanceKm)

	w = do(t, r, "GET", "/api/v1/support?city=Mumbai&need=99999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no_support_city", decode[ErrorResponse](t, w).Error)

	w = do(t, r, "GET", "/api/v1/support?city=Mumbai&need=lots", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "need", decode[ErrorResponse](t, w).Field)
}

// replaySink keeps every record and serves the newest n back.
type replaySink struct {
	records []audit.Record
	asked   []int
}

func (s *replaySink) Write(_ context.Context, r *audit.Record) error {
	s.records = append(s.records, *r)
	return nil
}

func (s *replaySink) Recent(_ context.Context, n int) ([]audit.Record, error) {
	s.asked = append(s.asked, n)
	if n > len(s.records) {
		n = len(s.records)
	}
	return s.records[len(s.records)-n:], nil
}

func (s *replaySink) Close() error { return nil }

func TestHandleRecentAudit(t *testing.T) {
	w := do(t, newTestRouter(t), "GET", "/api/v1/audit/recent", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "audit_history_unavailable", decode[ErrorResponse](t, w).Error)

	sink := &replaySink{}
	r := newTestRouterWithSink(t, sink)
	for _, city := range []string{"Kolhapur", "Nashik", "Thane"} {
		w = do(t, r, "POST", "/api/v1/requests", `{"city":"`+city+`","urgency":5,"resources_needed":10}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		w = do(t, r, "POST", "/api/v1/allocations", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = do(t, r, "GET", "/api/v1/audit/recent?n=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	records := decode[[]audit.Record](t, w)
	require.Len(t, records, 2)
	assert.Equal(t, "Nashik", records[0].DisasterCity)
	assert.Equal(t, "Thane", records[1].DisasterCity)

	w = do(t, r, "GET", "/api/v1/audit/recent", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]audit.Record](t, w), 3)

	for _, q := range []string{"0", "-3", "abc", "501"} {
		w = do(t, r, "GET", "/api/v1/audit/recent?n="+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, "n", decode[ErrorResponse](t, w).Field, q)
	}
	assert.Equal(t, []int{2, defaultRecentAudit}, sink.asked, "rejected counts never reach the sink")
}
