package requests

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of a relief request.
type Status int

const (
	Pending Status = iota
	InTransit
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case InTransit:
		return "IN_TRANSIT"
	case Completed:
		return "COMPLETED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ParseStatus is the inverse of String.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "PENDING":
		return Pending, nil
	case "IN_TRANSIT":
		return InTransit, nil
	case "COMPLETED":
		return Completed, nil
	case "FAILED":
		return Failed, nil
	default:
		return 0, fmt.Errorf("requests: unknown status %q", s)
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	v, err := ParseStatus(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
