// internal/domain/delivery/lifecycle.go
package delivery

import (
	"time"

	"dairy-subscription-service/internal/domain/schedule"
	xerrors "dairy-subscription-service/internal/pkg/errors"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusDelivered, StatusNotDelivered, StatusCancelled, StatusSkipped:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	return s == StatusPending || s.Terminal()
}

// CanTransition reports whether from -> to is an edge of the lifecycle. Every
// edge leaves PENDING.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.Terminal()
}

// CheckTransition validates an operator transition (deliver, not delivered, cancel).
func CheckTransition(e *Entry, to Status) error {
	if !to.Valid() || to == StatusPending {
		return xerrors.Newf("unknown target status %q", to).Mark(xerrors.ErrValidation)
	}
	if !CanTransition(e.Status, to) {
		return xerrors.Newf("entry %d is %s", e.ID, e.Status).
			WithHintf("delivery is already %s", e.Status).
			Mark(xerrors.ErrConflict)
	}
	return nil
}

// CheckFulfillment validates an operator transition on a given day. Outcomes
// (DELIVERED, NOT_DELIVERED) cannot be recorded ahead of the delivery date.
func CheckFulfillment(e *Entry, to Status, today time.Time) error {
	if err := CheckTransition(e, to); err != nil {
		return err
	}
	if to == StatusCancelled {
		return nil
	}
	if schedule.DateOf(e.DeliveryDate).After(schedule.DateOf(today)) {
		return xerrors.Newf("entry %d dated %s is in the future", e.ID, e.DeliveryDate.Format(time.DateOnly)).
			WithHint("delivery outcomes can only be recorded on or after the delivery date").
			Mark(xerrors.ErrInvalidOperation)
	}
	return nil
}

// CheckSkip validates a customer skip. Only a PENDING entry dated strictly
// after today can be skipped.
func CheckSkip(e *Entry, today time.Time) error {
	if e.Status != StatusPending {
		return xerrors.Newf("entry %d is %s", e.ID, e.Status).
			WithHintf("delivery is already %s", e.Status).
			Mark(xerrors.ErrConflict)
	}
	if !schedule.DateOf(e.DeliveryDate).After(schedule.DateOf(today)) {
		return xerrors.Newf("entry %d dated %s is not in the future", e.ID, e.DeliveryDate.Format(time.DateOnly)).
			WithHint("only future deliveries can be skipped").
			Mark(xerrors.ErrInvalidOperation)
	}
	return nil
}

// DisplayStatus derives the storefront label: a PENDING entry dated today
// reads SCHEDULED, everything else shows its stored status.
func DisplayStatus(status Status, deliveryDate, today time.Time) DisplayLabel {
	if status == StatusPending && schedule.DateOf(deliveryDate).Equal(schedule.DateOf(today)) {
		return LabelScheduled
	}
	return DisplayLabel(status)
}

// Views attaches display labels to entries.
func Views(entries []Entry, today time.Time) []EntryView {
	out := make([]EntryView, len(entries))
	for i, e := range entries {
		out[i] = EntryView{Entry: e, Display: DisplayStatus(e.Status, e.DeliveryDate, today)}
	}
	return out
}
