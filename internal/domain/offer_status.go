package entity

import "fmt"

type OfferStatus string

const (
	StatusPending   OfferStatus = "pending"
	StatusAccepted  OfferStatus = "accepted"
	StatusCompleted OfferStatus = "completed"
	StatusRejected  OfferStatus = "rejected"
)

var offerTransitions = map[OfferStatus][]OfferStatus{
	StatusPending:  {StatusAccepted, StatusRejected},
	StatusAccepted: {StatusCompleted, StatusRejected},
}

func (s OfferStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s OfferStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Open reports whether the balanced-sides invariant applies to s.
func (s OfferStatus) Open() bool {
	return s == StatusPending || s == StatusAccepted
}

func (s OfferStatus) CanTransitionTo(next OfferStatus) bool {
	for _, allowed := range offerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next if the move from s is legal, otherwise an error
// wrapping ErrInvalidTransition.
func (s OfferStatus) Transition(next OfferStatus) (OfferStatus, error) {
	if !next.Valid() {
		return s, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}

// TransitionTo moves the offer to next in place.
func (o *Offer) TransitionTo(next OfferStatus) error {
	status, err := o.Status.Transition(next)
	if err != nil {
		return err
	}
	o.Status = status
	return nil
}
