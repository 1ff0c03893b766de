package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/allocation"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/audit"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/ledger"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/network"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/relief"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/requests"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/routing"
)

const (
	defaultRecentAudit = 20
	maxRecentAudit     = 500
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	svc *relief.Service
}

// NewHandlers creates handlers backed by svc.
func NewHandlers(svc *relief.Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

// HandleListCities handles GET /api/v1/cities.
func (h *Handlers) HandleListCities(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Cities())
}

// HandleAddCity handles POST /api/v1/cities.
func (h *Handlers) HandleAddCity(c *gin.Context) {
	var req CityRequest
	if !bindJSON(c, &req) {
		return
	}
	if field := invalidCoord(req.Lat, req.Lng); field != "" {
		writeError(c, http.StatusBadRequest, "invalid_coordinates", field)
		return
	}

	city, err := h.svc.AddCity(network.CityInfo{
		Name:       req.Name,
		Population: req.Population,
		Damage:     req.Damage,
		Resources:  req.Resources,
		Lat:        req.Lat,
		Lon:        req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, city)
}

// HandleGetCity handles GET /api/v1/cities/:name.
func (h *Handlers) HandleGetCity(c *gin.Context) {
	city, err := h.svc.FindCity(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

// HandleNearestCity handles GET /api/v1/cities/nearest?lat=&lng=.
func (h *Handlers) HandleNearestCity(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_coordinates", "lat")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_coordinates", "lng")
		return
	}
	if field := invalidCoord(lat, lng); field != "" {
		writeError(c, http.StatusBadRequest, "invalid_coordinates", field)
		return
	}

	city, meters, err := h.svc.NearestCity(lat, lng)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NearestCityResponse{City: city, DistanceMeters: meters})
}

// HandleAddRoad handles POST /api/v1/roads.
func (h *Handlers) HandleAddRoad(c *gin.Context) {
	var req RoadRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.AddRoad(req.From, req.To, req.DistanceKm); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// HandleListRequests handles GET /api/v1/requests.
func (h *Handlers) HandleListRequests(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.PendingRequests())
}

// HandleRaiseRequest handles POST /api/v1/requests.
func (h *Handlers) HandleRaiseRequest(c *gin.Context) {
	var req DisasterRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.svc.RaiseRequest(req.City, req.Urgency, req.ResourcesNeeded)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// HandleAllocate handles POST /api/v1/allocations.
func (h *Handlers) HandleAllocate(c *gin.Context) {
	out, err := h.svc.Allocate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := AllocationResponse{Outcome: out}
	if out.AuditErr != nil {
		resp.AuditWarning = out.AuditErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// HandleRecentAudit handles GET /api/v1/audit/recent?n=.
func (h *Handlers) HandleRecentAudit(c *gin.Context) {
	n := defaultRecentAudit
	if q := c.Query("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 || v > maxRecentAudit {
			writeError(c, http.StatusBadRequest, "invalid_request", "n")
			return
		}
		n = v
	}

	records, err := h.svc.RecentAudit(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// HandleListStatuses handles GET /api/v1/status.
func (h *Handlers) HandleListStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListStatuses())
}

// HandleGetStatus handles GET /api/v1/status/:city.
func (h *Handlers) HandleGetStatus(c *gin.Context) {
	e, err := h.svc.QueryStatus(c.Param("city"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// HandleMarkDelivered handles POST /api/v1/status/:city/delivered.
func (h *Handlers) HandleMarkDelivered(c *gin.Context) {
	e, err := h.svc.MarkDelivered(c.Param("city"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// HandleRoute handles GET /api/v1/route?from=&to=.
func (h *Handlers) HandleRoute(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "from")
		return
	}
	if to == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "to")
		return
	}

	result, err := h.svc.ShortestPath(from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleSupport handles GET /api/v1/support?city=&need=.
func (h *Handlers) HandleSupport(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "city")
		return
	}
	need, err := strconv.Atoi(c.Query("need"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "need")
		return
	}

	d, err := h.svc.NearestSupport(city, need)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// HandleConnectivity handles GET /api/v1/connectivity.
func (h *Handlers) HandleConnectivity(c *gin.Context) {
	groups := h.svc.Connectivity()
	c.JSON(http.StatusOK, ConnectivityResponse{
		Connected:  len(groups) <= 1,
		Components: groups,
	})
}

func bindJSON(c *gin.Context, v any) bool {
	if c.ContentType() != "application/json" {
		writeError(c, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 4096)
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	return true
}

// respondError maps service errors onto status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, relief.ErrCityNotFound):
		writeError(c, http.StatusNotFound, "city_not_found", "")
	case errors.Is(err, ledger.ErrNotFound):
		writeError(c, http.StatusNotFound, "status_not_found", "")
	case errors.Is(err, routing.ErrNoRoute):
		writeError(c, http.StatusNotFound, "no_route_found", "")
	case errors.Is(err, allocation.ErrNoSupportCity):
		writeError(c, http.StatusNotFound, "no_support_city", "")
	case errors.Is(err, relief.ErrInvalidRequest):
		writeError(c, http.StatusBadRequest, "invalid_request", "")
	case errors.Is(err, network.ErrInvalidCity):
		writeError(c, http.StatusBadRequest, "invalid_city", "")
	case errors.Is(err, network.ErrInvalidDistance):
		writeError(c, http.StatusBadRequest, "invalid_distance", "distance_km")
	case errors.Is(err, network.ErrDuplicateCity):
		writeError(c, http.StatusConflict, "duplicate_city", "name")
	case errors.Is(err, network.ErrCapacityExceeded):
		writeError(c, http.StatusConflict, "capacity_exceeded", "")
	case errors.Is(err, requests.ErrQueueFull):
		writeError(c, http.StatusConflict, "queue_full", "")
	case errors.Is(err, allocation.ErrNoPendingRequests):
		writeError(c, http.StatusConflict, "no_pending_requests", "")
	case errors.Is(err, relief.ErrNotInTransit):
		writeError(c, http.StatusConflict, "not_in_transit", "")
	case errors.Is(err, audit.ErrNoHistory):
		writeError(c, http.StatusNotFound, "audit_history_unavailable", "")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusServiceUnavailable, "request_timeout", "")
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("Unhandled error")
		writeError(c, http.StatusInternalServerError, "internal_error", "")
	}
}

// invalidCoord names the first coordinate that is not a finite value in
// range, or returns "" when both are usable.
func invalidCoord(lat, lng float64) string {
	switch {
	case !finite(lat) || lat < -90 || lat > 90:
		return "lat"
	case !finite(lng) || lng < -180 || lng > 180:
		return "lng"
	}
	return ""
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func writeError(c *gin.Context, status int, code, field string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Field: field})
}
