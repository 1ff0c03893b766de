package allocation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/audit"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/ledger"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/network"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/requests"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/routing"
)

// DefaultDamageThreshold is the damage level above which a city never donates.
const DefaultDamageThreshold = 6

// DefaultAuditTimeout bounds one audit write.
const DefaultAuditTimeout = 5 * time.Second

// ErrNoPendingRequests is returned by Allocate when the queue is empty.
var ErrNoPendingRequests = errors.New("allocation: no pending requests")

// Donation is one donor's contribution to a request.
type Donation struct {
	CityID     int    `json:"city_id"`
	City       string `json:"city"`
	Sent       int    `json:"sent"`
	DistanceKm int    `json:"distance_km"`
}

// Outcome is the result of one allocation cycle.
type Outcome struct {
	Request   requests.Request `json:"request"`
	Status    requests.Status  `json:"status"`
	Allocated int              `json:"allocated"`
	Remaining int              `json:"remaining"`
	Donations []Donation       `json:"donations"`
	Support   string           `json:"support_city"`
	Distance  int              `json:"distance_km"`

	// AuditErr is set when the audit sink rejected the record. The
	// allocation itself stands.
	AuditErr error `json:"-"`
}

// Engine runs allocation cycles.
type Engine struct {
	DamageThreshold int
	Sink            audit.Sink
	Now             func() time.Time
	AuditTimeout    time.Duration
}

// NewEngine returns an engine with the default damage threshold writing to sink.
func NewEngine(sink audit.Sink) *Engine {
	return &Engine{
		DamageThreshold: DefaultDamageThreshold,
		Sink:            sink,
		Now:             time.Now,
		AuditTimeout:    DefaultAuditTimeout,
	}
}

// Allocate serves the most urgent request in q. The request is consumed
// whatever the outcome; shortfalls are recorded as Failed, not retried.
// A cancelled ctx stops the cycle before anything changes. Once the cycle has
// started, its audit record is written even if ctx is cancelled later.
func (e *Engine) Allocate(ctx context.Context, net *network.Network, q *requests.Queue, l *ledger.Ledger) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.IsEmpty() {
		return nil, ErrNoPendingRequests
	}
	req, err := q.ExtractMostUrgent()
	if err != nil {
		return nil, err
	}

	tree, err := routing.ShortestPaths(net, req.CityID)
	if err != nil {
		return nil, fmt.Errorf("allocation: request %s: %w", req.ID, err)
	}

	out := &Outcome{Request: req, Remaining: req.Needed}
	for _, id := range Rank(tree.Dist) {
		if out.Remaining == 0 {
			break
		}
		if !e.eligible(net, tree, req.CityID, id) {
			continue
		}
		city, _ := net.City(id)
		give := min(out.Remaining, city.Resources)
		if err := net.Withdraw(id, give); err != nil {
			return nil, fmt.Errorf("allocation: request %s: %w", req.ID, err)
		}
		out.Allocated += give
		out.Remaining -= give
		out.Donations = append(out.Donations, Donation{
			CityID:     id,
			City:       city.Name,
			Sent:       give,
			DistanceKm: tree.Dist[id],
		})
	}

	switch {
	case out.Remaining == 0 && len(out.Donations) == 1:
		out.Status = requests.InTransit
		out.Support = out.Donations[0].City
		out.Distance = out.Donations[0].DistanceKm
	case out.Remaining == 0:
		out.Status = requests.InTransit
		out.Support = ledger.SupportMultiple
	case len(out.Donations) > 0:
		out.Status = requests.Failed
		out.Support = ledger.SupportPartial
	default:
		out.Status = requests.Failed
		out.Support = ledger.SupportNone
	}
	out.Request.Status = out.Status

	l.Upsert(req.CityName, out.Status, out.Allocated, out.Support, out.Distance)

	log.WithFields(log.Fields{
		"request":   req.ID,
		"city":      req.CityName,
		"needed":    req.Needed,
		"allocated": out.Allocated,
		"donors":    len(out.Donations),
		"status":    out.Status,
	}).Info("allocation cycle complete")

	if err := e.record(ctx, out); err != nil {
		log.WithError(err).WithField("request", req.ID).Warn("audit record not written")
		out.AuditErr = err
	}
	return out, nil
}

func (e *Engine) eligible(net *network.Network, tree *routing.Tree, disaster, id int) bool {
	if id == disaster || !tree.Reachable(id) {
		return false
	}
	city, err := net.City(id)
	if err != nil {
		return false
	}
	return city.Damage <= e.DamageThreshold && city.Resources > 0
}

func (e *Engine) record(ctx context.Context, out *Outcome) error {
	if e.Sink == nil {
		return nil
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	rec := &audit.Record{
		RequestID:    out.Request.ID,
		Timestamp:    now(),
		DisasterCity: out.Request.CityName,
		Needed:       out.Request.Needed,
		Unfulfilled:  out.Remaining,
	}
	for _, d := range out.Donations {
		rec.Contributions = append(rec.Contributions, audit.Contribution{
			City:       d.City,
			Sent:       d.Sent,
			DistanceKm: d.DistanceKm,
		})
	}
	timeout := e.AuditTimeout
	if timeout <= 0 {
		timeout = DefaultAuditTimeout
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return e.Sink.Write(wctx, rec)
}

// Rank orders city indices by ascending distance. Ties keep index order and
// unreachable cities sort last.
func Rank(dist []int) []int {
	order := make([]int, len(dist))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dist[order[a]] < dist[order[b]]
	})
	return order
}
