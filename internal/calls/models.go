package calls

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CallRecord is one customer contact submitted for an automated feedback call.
//
// Invariant: CustomerName and PhoneNumber must be non-empty before any
// submission is attempted. The optional fields pass through to the
// provisioning backend untouched.
type CallRecord struct {
	CustomerName       string `json:"customerName"`
	PhoneNumber        string `json:"phoneNumber"`
	VehicleNumber      string `json:"vehicleNumber,omitempty"`
	ServiceType        string `json:"serviceType,omitempty"`
	ServiceAdvisorName string `json:"serviceAdvisorName,omitempty"`
	AppointmentDate    string `json:"appointmentDate,omitempty"`
}

var ErrMissingRequiredField = errors.New("calls: customerName and phoneNumber are required")

func (r CallRecord) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" || strings.TrimSpace(r.PhoneNumber) == "" {
		return ErrMissingRequiredField
	}
	return nil
}

// TrackedCall is a call owned by the lifecycle tracker.
type TrackedCall struct {
	ID        string     `json:"call_id"`
	Status    CallStatus `json:"status"`
	Record    CallRecord `json:"record"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CallStatus string

const (
	StatusReady      CallStatus = "ready"
	StatusRinging    CallStatus = "ringing"
	StatusInProgress CallStatus = "in_progress"
	StatusCompleted  CallStatus = "completed"
	StatusFailed     CallStatus = "failed"
)

// ParseCallStatus normalizes a raw provider status string ("Ready", "Ringing",
// "In Progress", "Completed", "Failed", case-insensitive) to the canonical enum.
func ParseCallStatus(raw string) (CallStatus, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")
	switch CallStatus(key) {
	case StatusReady, StatusRinging, StatusInProgress, StatusCompleted, StatusFailed:
		return CallStatus(key), nil
	default:
		return "", fmt.Errorf("calls: unknown status %q", raw)
	}
}

func (s CallStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s CallStatus) IsTransient() bool {
	return s == StatusRinging || s == StatusInProgress
}

// rank orders statuses along the lifecycle. Both terminal statuses share the
// top rank; terminal absorption is handled separately in CanTransitionTo.
func (s CallStatus) rank() int {
	switch s {
	case StatusReady:
		return 0
	case StatusRinging:
		return 1
	case StatusInProgress:
		return 2
	case StatusCompleted, StatusFailed:
		return 3
	default:
		return -1
	}
}

// CanTransitionTo reports whether an observed status may replace the current
// one. Terminal statuses are absorbing, and a status strictly earlier in the
// ordering never overwrites a later one. This protects against out-of-order
// poll responses arriving after a terminal transition.
func (s CallStatus) CanTransitionTo(next CallStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return next.rank() >= s.rank()
}
