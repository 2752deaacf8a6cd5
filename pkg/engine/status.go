package engine

import "fmt"

// Status is the outcome of a lifecycle command that reached the provisioning
// step. A provisioning failure is reported as StatusFailed with a nil error so
// that an external redelivery layer does not provision twice.
type Status string

const (
	// StatusSuccess indicates the command completed every step.
	StatusSuccess Status = "SUCCESS"

	// StatusFailed indicates the provisioning engine rejected the change.
	// No later step ran.
	StatusFailed Status = "FAILED"
)

// Validate checks if the status is one of the known values.
func (s Status) Validate() error {
	switch s {
	case StatusSuccess, StatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid status: %q", s)
	}
}

// Succeeded reports whether s is StatusSuccess.
func (s Status) Succeeded() bool {
	return s == StatusSuccess
}

// StackStatusUnknown is reported when live stack status could not be resolved.
const StackStatusUnknown = "UNKNOWN"
