package entity

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid offer status transition")
	ErrOfferNotFound     = errors.New("offer not found")
	ErrOfferItemNotFound = errors.New("offer item not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrNotParticipant    = errors.New("access denied: you are not a participant of this offer")
	ErrConcurrentUpdate  = errors.New("offer was modified concurrently")
	ErrPersistence       = errors.New("persistence failure")
	// ErrCascadeFailed means a removal had to reject the whole offer and that
	// rejection could not be stored. The offer is unchanged and the call may be retried.
	ErrCascadeFailed   = errors.New("cascade rejection failed")
	ErrAlreadyReviewed = errors.New("offer already reviewed by this user")
)
