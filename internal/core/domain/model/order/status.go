package order

import (
	"fmt"
	"strings"

	"orderflow/internal/pkg/errs"
)

// Status is the lifecycle state of an order. The string value is the wire
// and storage token.
type Status string

const (
	// StatusUnknown stands for a token this build does not recognise. It is
	// never stored; ParseStatus returns it so that readers of newer data degrade
	// gracefully instead of failing.
	StatusUnknown Status = "UNKNOWN"

	StatusCreated    Status = "CREATED"
	StatusCooking    Status = "COOKING"
	StatusReady      Status = "READY"
	StatusDelivering Status = "DELIVERING"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// ParseStatus maps a token (case-insensitive) onto a Status, returning
// StatusUnknown for anything unrecognised.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusCreated, StatusCooking, StatusReady, StatusDelivering, StatusDelivered, StatusCancelled:
		return st
	default:
		return StatusUnknown
	}
}

// Validate rejects StatusUnknown and any value outside the lifecycle.
func (s Status) Validate() error {
	switch s {
	case StatusCreated, StatusCooking, StatusReady, StatusDelivering, StatusDelivered, StatusCancelled:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", string(s)))
	}
}

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}
