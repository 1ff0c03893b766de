package ledger

import (
	"errors"
	"fmt"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/requests"
)

// DefaultBuckets is the bucket count used when none is configured.
const DefaultBuckets = 50

// Support labels written by the allocation engine.
const (
	SupportMultiple = "Multiple"
	SupportPartial  = "Partial"
	SupportNone     = "N/A"
)

// ErrNotFound is returned when a city has no ledger entry.
var ErrNotFound = errors.New("ledger: entry not found")

// Entry is the allocation status recorded for one city.
type Entry struct {
	City      string          `json:"city"`
	Status    requests.Status `json:"status"`
	Allocated int             `json:"resources_allocated"`
	Support   string          `json:"support_city"`
	Distance  int             `json:"distance_km"`
}

// Ledger maps city name to its latest allocation status.
// It is a hash table with separate chaining; entries are never removed.
type Ledger struct {
	buckets [][]Entry // chain head at index 0
	size    int
}

// New creates a ledger with n buckets (DefaultBuckets if n <= 0).
func New(n int) *Ledger {
	if n <= 0 {
		n = DefaultBuckets
	}
	return &Ledger{buckets: make([][]Entry, n)}
}

// Hash is a polynomial rolling hash (multiplier 31) over the key's bytes,
// reduced modulo buckets.
func Hash(key string, buckets int) int {
	var h uint32
	for i := 0; i < len(key); i++ {
		h = h*31 + uint32(key[i])
	}
	return int(h % uint32(buckets))
}

// Upsert records the status for city. An existing entry is overwritten in
// place; otherwise a new entry is prepended to its chain.
func (l *Ledger) Upsert(city string, status requests.Status, allocated int, support string, distance int) {
	idx := Hash(city, len(l.buckets))
	chain := l.buckets[idx]
	for i := range chain {
		if chain[i].City == city {
			chain[i].Status = status
			chain[i].Allocated = allocated
			chain[i].Support = support
			chain[i].Distance = distance
			return
		}
	}

	entry := Entry{
		City:      city,
		Status:    status,
		Allocated: allocated,
		Support:   support,
		Distance:  distance,
	}
	l.buckets[idx] = append([]Entry{entry}, chain...)
	l.size++
}

// Get returns the entry for city.
func (l *Ledger) Get(city string) (Entry, bool) {
	for _, e := range l.buckets[Hash(city, len(l.buckets))] {
		if e.City == city {
			return e, true
		}
	}
	return Entry{}, false
}

// SetStatus changes only the status of an existing entry.
func (l *Ledger) SetStatus(city string, status requests.Status) error {
	chain := l.buckets[Hash(city, len(l.buckets))]
	for i := range chain {
		if chain[i].City == city {
			chain[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrNotFound, city)
}

// All returns every entry in bucket order, then chain order.
func (l *Ledger) All() []Entry {
	out := make([]Entry, 0, l.size)
	for _, chain := range l.buckets {
		out = append(out, chain...)
	}
	return out
}

// Len returns the number of distinct cities recorded.
func (l *Ledger) Len() int { return l.size }
