package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Canonical complaint statuses.
const (
	StatusNew       = "new"
	StatusInProcess = "in_process"
	StatusToCRC     = "to_crc"
	StatusEscalated = "escalated"
	StatusClosed    = "closed"
)

var (
	ErrUnknownStatus     = errors.New("unknown status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrComplaintNotFound = errors.New("complaint not found")
	ErrComplaintLocked   = errors.New("complaint is closed")
	ErrMissingField      = errors.New("missing required field")
)

// legacy and display spellings seen from older clients
var statusAliases = map[string]string{
	"new":         StatusNew,
	"in_process":  StatusInProcess,
	"in_progress": StatusInProcess,
	"in process":  StatusInProcess,
	"to_crc":      StatusToCRC,
	"escalated":   StatusEscalated,
	"closed":      StatusClosed,
	"close":       StatusClosed,
}

// NormalizeStatus maps any accepted spelling onto a canonical status.
func NormalizeStatus(s string) (string, error) {
	if canonical, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return canonical, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// AllStatuses in display order.
func AllStatuses() []string {
	return []string{StatusNew, StatusInProcess, StatusToCRC, StatusEscalated, StatusClosed}
}

var transitions = map[string][]string{
	StatusNew:       {StatusInProcess, StatusToCRC, StatusEscalated, StatusClosed},
	StatusInProcess: {StatusToCRC, StatusEscalated, StatusClosed},
	StatusToCRC:     {StatusInProcess, StatusEscalated, StatusClosed},
	StatusEscalated: {StatusInProcess, StatusToCRC, StatusClosed},
	StatusClosed:    {},
}

// CanTransition reports whether from -> to is allowed. Staying in the same
// open status is always allowed; nothing leaves closed.
func CanTransition(from, to string) bool {
	if from == StatusClosed {
		return false
	}
	if from == to {
		_, known := transitions[from]
		return known
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition wraps ErrInvalidTransition or ErrComplaintLocked.
func ValidateTransition(from, to string) error {
	if from == StatusClosed {
		return ErrComplaintLocked
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// IsOpen is true for every status except closed.
func IsOpen(status string) bool {
	return status != StatusClosed
}
