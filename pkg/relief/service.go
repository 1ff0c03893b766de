package relief

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/allocation"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/audit"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/config"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/geo"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/ledger"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/network"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/requests"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/routing"
)

var (
	ErrCityNotFound   = errors.New("relief: city not found")
	ErrInvalidRequest = errors.New("relief: invalid request")
	ErrNotInTransit   = errors.New("relief: allocation not in transit")
)

// Stats summarises the service state.
type Stats struct {
	Cities          int `json:"cities"`
	Roads           int `json:"roads"`
	PendingRequests int `json:"pending_requests"`
	LedgerEntries   int `json:"ledger_entries"`
	TotalResources  int `json:"total_resources"`
	Allocations     int `json:"allocations"`
}

// Service owns the network, request queue and ledger. Every method holds the
// same lock for its whole duration, so an allocation cycle never interleaves
// with another operation.
type Service struct {
	mu          sync.Mutex
	net         *network.Network
	queue       *requests.Queue
	ledger      *ledger.Ledger
	engine      *allocation.Engine
	index       *geo.Index
	allocations int
}

// New creates an empty service sized by cfg that audits to sink.
func New(cfg config.NetworkConfig, sink audit.Sink) *Service {
	engine := allocation.NewEngine(sink)
	engine.DamageThreshold = cfg.DamageThreshold
	return &Service{
		net:    network.New(cfg.MaxCities, cfg.MaxRoads),
		queue:  requests.NewQueue(cfg.QueueCapacity),
		ledger: ledger.New(cfg.LedgerBuckets),
		engine: engine,
		index:  geo.NewIndex(),
	}
}

// NewFromSeed creates a service and loads the seed network into it.
func NewFromSeed(cfg config.NetworkConfig, seed config.Seed, sink audit.Sink) (*Service, error) {
	s := New(cfg, sink)
	for _, c := range seed.Cities {
		if _, err := s.AddCity(network.CityInfo{
			Name:       c.Name,
			Population: c.Population,
			Damage:     c.Damage,
			Resources:  c.Resources,
			Lat:        c.Lat,
			Lon:        c.Lon,
		}); err != nil {
			return nil, fmt.Errorf("seed city %q: %w", c.Name, err)
		}
	}
	for _, r := range seed.Roads {
		if err := s.AddRoad(r.From, r.To, r.DistanceKm); err != nil {
			return nil, fmt.Errorf("seed road %s-%s: %w", r.From, r.To, err)
		}
	}
	log.WithFields(log.Fields{
		"cities": len(seed.Cities),
		"roads":  len(seed.Roads),
	}).Info("Seed network loaded")
	return s, nil
}

// AddCity appends a city to the network.
func (s *Service) AddCity(info network.CityInfo) (network.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.net.AddCity(info)
	if err != nil {
		return network.City{}, err
	}
	s.index.Insert(id, info.Lat, info.Lon)
	return s.net.City(id)
}

// AddRoad joins two named cities with a road of km kilometres.
func (s *Service) AddRoad(from, to string, km int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.lookup(from)
	if err != nil {
		return err
	}
	v, err := s.lookup(to)
	if err != nil {
		return err
	}
	return s.net.AddEdge(u, v, km)
}

// FindCity returns the named city.
func (s *Service) FindCity(name string) (network.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.lookup(name)
	if err != nil {
		return network.City{}, err
	}
	return s.net.City(id)
}

// RaiseRequest queues a relief request for a city and marks it pending in
// the ledger.
func (s *Service) RaiseRequest(city string, urgency, need int) (requests.Request, error) {
	if urgency < requests.MinUrgency || urgency > requests.MaxUrgency {
		return requests.Request{}, fmt.Errorf("%w: urgency %d outside %d-%d", ErrInvalidRequest, urgency, requests.MinUrgency, requests.MaxUrgency)
	}
	if need <= 0 {
		return requests.Request{}, fmt.Errorf("%w: resources needed must be positive, got %d", ErrInvalidRequest, need)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.lookup(city)
	if err != nil {
		return requests.Request{}, err
	}
	req := requests.New(id, s.net.Name(id), urgency, need)
	if err := s.queue.Insert(req); err != nil {
		return requests.Request{}, err
	}
	s.ledger.Upsert(req.CityName, requests.Pending, 0, ledger.SupportNone, 0)

	log.WithFields(log.Fields{
		"request": req.ID,
		"city":    req.CityName,
		"urgency": urgency,
		"needed":  need,
	}).Info("Disaster request raised")
	return req, nil
}

// Allocate runs one allocation cycle for the most urgent pending request.
func (s *Service) Allocate(ctx context.Context) (*allocation.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.engine.Allocate(ctx, s.net, s.queue, s.ledger)
	if err != nil {
		return nil, err
	}
	s.allocations++
	return out, nil
}

// RecentAudit returns up to n of the newest audit records, oldest first.
// It fails with audit.ErrNoHistory when no sink keeps readable history.
func (s *Service) RecentAudit(ctx context.Context, n int) ([]audit.Record, error) {
	r, ok := s.engine.Sink.(audit.Reader)
	if !ok {
		return nil, audit.ErrNoHistory
	}
	return r.Recent(ctx, n)
}

// QueryStatus returns the ledger entry for a city.
func (s *Service) QueryStatus(city string) (ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.ledger.Get(city)
	if !ok {
		return ledger.Entry{}, fmt.Errorf("%w: %q", ledger.ErrNotFound, city)
	}
	return e, nil
}

// ListStatuses returns every ledger entry.
func (s *Service) ListStatuses() []ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.All()
}

// MarkDelivered completes an in-transit allocation.
func (s *Service) MarkDelivered(city string) (ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.ledger.Get(city)
	if !ok {
		return ledger.Entry{}, fmt.Errorf("%w: %q", ledger.ErrNotFound, city)
	}
	if e.Status != requests.InTransit {
		return ledger.Entry{}, fmt.Errorf("%w: %s is %s", ErrNotInTransit, city, e.Status)
	}
	if err := s.ledger.SetStatus(city, requests.Completed); err != nil {
		return ledger.Entry{}, err
	}
	e.Status = requests.Completed
	return e, nil
}

// ShortestPath returns the road route between two named cities.
func (s *Service) ShortestPath(from, to string) (*routing.RouteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.lookup(from)
	if err != nil {
		return nil, err
	}
	v, err := s.lookup(to)
	if err != nil {
		return nil, err
	}
	return routing.Route(s.net, u, v)
}

// NearestSupport finds the closest city able to cover need on its own.
func (s *Service) NearestSupport(city string, need int) (allocation.Donation, error) {
	if need <= 0 {
		return allocation.Donation{}, fmt.Errorf("%w: resources needed must be positive, got %d", ErrInvalidRequest, need)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.lookup(city)
	if err != nil {
		return allocation.Donation{}, err
	}
	return allocation.NearestSupport(s.net, id, need)
}

// NearestCity returns the city closest to a coordinate and its straight-line
// distance in meters.
func (s *Service) NearestCity(lat, lon float64) (network.City, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, meters, ok := s.index.Nearest(lat, lon)
	if !ok {
		return network.City{}, 0, ErrCityNotFound
	}
	c, err := s.net.City(id)
	return c, meters, err
}

// Connectivity returns the names of mutually reachable cities, largest
// group first.
func (s *Service) Connectivity() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := s.net.Components()
	out := make([][]string, len(groups))
	for i, g := range groups {
		names := make([]string, len(g))
		for j, id := range g {
			names[j] = s.net.Name(id)
		}
		out[i] = names
	}
	return out
}

// PendingRequests returns queued requests, most urgent first.
func (s *Service) PendingRequests() []requests.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Pending()
}

// Cities returns every city in index order.
func (s *Service) Cities() []network.City {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Cities()
}

// Roads returns every road in insertion order.
func (s *Service) Roads() []network.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Roads()
}

func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Cities:          s.net.Len(),
		Roads:           len(s.net.Roads()),
		PendingRequests: s.queue.Len(),
		LedgerEntries:   s.ledger.Len(),
		Allocations:     s.allocations,
	}
	for _, c := range s.net.Cities() {
		st.TotalResources += c.Resources
	}
	return st
}

// Close releases the audit sink.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.Sink == nil {
		return nil
	}
	return s.engine.Sink.Close()
}

func (s *Service) lookup(name string) (int, error) {
	id, ok := s.net.FindByName(name)
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrCityNotFound, name)
	}
	return id, nil
}
