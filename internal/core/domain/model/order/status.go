package order

import (
	"errors"
	"fmt"
	"strings"

	"gasdelivery/internal/pkg/errs"
)

// ErrInvalidTransition is matched by every rejected status change.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError describes a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Status is the lifecycle state of an order.
//
// State transitions:
//
//	Pending ──assign──────────> InProgress ──confirmDelivery──> Delivered
//	   │                            │
//	   └──cancel──> Declined <──────┘ reportFailure
//
// Delivered and Declined are terminal. The numeric values are persisted, so
// they must never be reordered.
type Status int

const (
	// Unknown is the zero value and is never valid.
	Unknown Status = iota

	// Pending orders wait for an administrator to pick a driver.
	Pending

	// InProgress orders are held by exactly one driver, who is unavailable
	// for other assignments until the order is resolved.
	InProgress

	// Delivered is terminal and triggers the customer notification.
	Delivered

	// Declined is terminal. It is reached by cancelling a pending order or by
	// the driver reporting a failed delivery.
	Declined
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "Unknown",
		Pending:    "Pending",
		InProgress: "InProgress",
		Delivered:  "Delivered",
		Declined:   "Declined",
	}
}

// transitions lists the legal edges of the state machine.
func transitions() map[Status][]Status {
	//nolint:exhaustive // terminal and unknown statuses have no outgoing edges
	return map[Status][]Status{
		Pending:    {InProgress, Declined},
		InProgress: {Delivered, Declined},
	}
}

// AllStatuses returns the valid statuses in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, InProgress, Delivered, Declined}
}

// ParseStatus accepts the String form case-insensitively, with or without an
// underscore ("in_progress").
func ParseStatus(s string) (Status, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "")
	for _, status := range AllStatuses() {
		if strings.ToLower(status.String()) == normalized {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a known status", s))
}

// Validate rejects Unknown and out-of-range values.
func (s Status) Validate() error {
	if s < Pending || s > Declined {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Declined
}

// CanTransitionTo reports whether s -> target is an edge of the state machine.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions()[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition returns target when s -> target is legal and a *TransitionError
// otherwise.
func (s Status) Transition(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return Unknown, &TransitionError{From: s, To: target}
	}
	return target, nil
}

// Assign is the Pending -> InProgress edge.
func (s Status) Assign() (Status, error) {
	return s.Transition(InProgress)
}

// Cancel is the Pending -> Declined edge.
func (s Status) Cancel() (Status, error) {
	if s != Pending {
		return Unknown, &TransitionError{From: s, To: Declined}
	}
	return Declined, nil
}

// ConfirmDelivery is the InProgress -> Delivered edge.
func (s Status) ConfirmDelivery() (Status, error) {
	return s.Transition(Delivered)
}

// ReportFailure is the InProgress -> Declined edge.
func (s Status) ReportFailure() (Status, error) {
	if s != InProgress {
		return Unknown, &TransitionError{From: s, To: Declined}
	}
	return Declined, nil
}

// ValidateCanHaveDriver checks the status/driver linkage:
//   - Pending orders never carry a driver
//   - InProgress and Delivered orders always carry one
//   - Declined orders carry one only if they were declined after assignment
func (s Status) ValidateCanHaveDriver(hasDriver bool) error {
	if hasDriver && s == Pending {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have a driver", s),
		)
	}

	if !hasDriver && (s == InProgress || s == Delivered) {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have no driver", s),
		)
	}

	return nil
}
