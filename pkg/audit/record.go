package audit

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// TimeLayout is the timestamp layout of the text audit log.
const TimeLayout = "2006-01-02 15:04:05"

var separator = strings.Repeat("-", 55)

// Contribution is what one donor city sent for a request.
type Contribution struct {
	City       string `json:"city"`
	Sent       int    `json:"sent"`
	DistanceKm int    `json:"distance_km"`
}

// Record summarises one allocation cycle.
type Record struct {
	RequestID     string         `json:"request_id"`
	Timestamp     time.Time      `json:"timestamp"`
	DisasterCity  string         `json:"disaster_city"`
	Needed        int            `json:"resources_needed"`
	Contributions []Contribution `json:"contributions"`
	Unfulfilled   int            `json:"unfulfilled"`
}

// Fulfilled reports whether the whole need was covered.
func (r *Record) Fulfilled() bool { return r.Unfulfilled == 0 }

// StatusText is the value of the record's Status line.
func (r *Record) StatusText() string {
	if r.Fulfilled() {
		return "SUCCESS"
	}
	return fmt.Sprintf("PARTIAL/FAILED (Unfulfilled %d units)", r.Unfulfilled)
}

// Format writes r in the text log format. Readers depend on the field order.
func Format(w io.Writer, r *Record) error {
	var b strings.Builder
	b.WriteString(separator)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Timestamp: %s\n", r.Timestamp.Format(TimeLayout))
	fmt.Fprintf(&b, "Disaster City: %s\n", r.DisasterCity)
	fmt.Fprintf(&b, "Resources Needed: %d\n", r.Needed)
	for _, c := range r.Contributions {
		fmt.Fprintf(&b, "Support City: %s | Sent: %d | Distance: %d km\n", c.City, c.Sent, c.DistanceKm)
	}
	fmt.Fprintf(&b, "Status: %s\n", r.StatusText())
	b.WriteString(separator)
	b.WriteString("\n\n")

	_, err := io.WriteString(w, b.String())
	return err
}
