package api

import (
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/allocation"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/network"
)

// CityRequest is the JSON body for POST /api/v1/cities.
type CityRequest struct {
	Name       string  `json:"name"`
	Population int     `json:"population"`
	Damage     int     `json:"damage"`
	Resources  int     `json:"resources"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

// RoadRequest is the JSON body for POST /api/v1/roads.
type RoadRequest struct {
	From       string `json:"from"`
	To         string `json:"to"`
	DistanceKm int    `json:"distance_km"`
}

// DisasterRequest is the JSON body for POST /api/v1/requests.
type DisasterRequest struct {
	City            string `json:"city"`
	Urgency         int    `json:"urgency"`
	ResourcesNeeded int    `json:"resources_needed"`
}

// AllocationResponse is the JSON response for POST /api/v1/allocations.
type AllocationResponse struct {
	*allocation.Outcome
	AuditWarning string `json:"audit_warning,omitempty"`
}

// NearestCityResponse is the JSON response for GET /api/v1/cities/nearest.
type NearestCityResponse struct {
	City           network.City `json:"city"`
	DistanceMeters float64      `json:"distance_meters"`
}

// ConnectivityResponse is the JSON response for GET /api/v1/connectivity.
type ConnectivityResponse struct {
	Connected  bool       `json:"connected"`
	Components [][]string `json:"components"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
