package requests

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrQueueFull  = errors.New("requests: queue full")
	ErrEmptyQueue = errors.New("requests: queue empty")
)

// Urgency bounds; 10 is the most urgent.
const (
	MinUrgency = 1
	MaxUrgency = 10
)

// Request is a disaster relief request raised for one city.
// CityName is a snapshot taken when the request is created.
type Request struct {
	ID       string `json:"id"`
	CityID   int    `json:"city_id"`
	CityName string `json:"city_name"`
	Urgency  int    `json:"urgency"`
	Needed   int    `json:"resources_needed"`
	Status   Status `json:"status"`
}

// New builds a pending request with a fresh ID.
func New(cityID int, cityName string, urgency, needed int) Request {
	return Request{
		ID:       uuid.NewString(),
		CityID:   cityID,
		CityName: cityName,
		Urgency:  urgency,
		Needed:   needed,
		Status:   Pending,
	}
}

// Queue is a bounded max-heap of requests keyed by urgency.
// The order of requests with equal urgency is not specified.
type Queue struct {
	items    []Request
	capacity int
}

// NewQueue creates an empty queue holding at most capacity requests.
func NewQueue(capacity int) *Queue {
	return &Queue{capacity: capacity}
}

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) IsEmpty() bool { return len(q.items) == 0 }

// Insert adds a request. O(log n).
func (q *Queue) Insert(req Request) error {
	if len(q.items) >= q.capacity {
		return fmt.Errorf("%w: %d requests", ErrQueueFull, q.capacity)
	}
	q.items = append(q.items, req)
	q.siftUp(len(q.items) - 1)
	return nil
}

// ExtractMostUrgent removes and returns the request with the highest urgency.
func (q *Queue) ExtractMostUrgent() (Request, error) {
	n := len(q.items)
	if n == 0 {
		return Request{}, ErrEmptyQueue
	}
	top := q.items[0]
	q.items[0] = q.items[n-1]
	q.items = q.items[:n-1]
	if len(q.items) > 0 {
		q.siftDown(0)
	}
	return top, nil
}

// Pending returns a copy of the queued requests, most urgent first.
func (q *Queue) Pending() []Request {
	out := make([]Request, len(q.items))
	copy(out, q.items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Urgency > out[j].Urgency
	})
	return out
}

func (q *Queue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if q.items[i].Urgency <= q.items[parent].Urgency {
			break
		}
		q.items[i], q.items[parent] = q.items[parent], q.items[i]
		i = parent
	}
}

func (q *Queue) siftDown(i int) {
	n := len(q.items)
	for {
		largest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && q.items[left].Urgency > q.items[largest].Urgency {
			largest = left
		}
		if right < n && q.items[right].Urgency > q.items[largest].Urgency {
			largest = right
		}
		if largest == i {
			break
		}
		q.items[i], q.items[largest] = q.items[largest], q.items[i]
		i = largest
	}
}
