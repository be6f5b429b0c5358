package service

import (
	"testing"

	entity "swap-market/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedOffer(t *testing.T, h *harness) *entity.Offer {
	t.Helper()
	offer, _ := h.propose([]string{"100"}, []string{"100"})
	_, err := h.svc.AcceptOffer(h.ctx, h.to, offer.ID)
	require.NoError(t, err)
	done, err := h.svc.CompleteOffer(h.ctx, h.to, offer.ID)
	require.NoError(t, err)
	return done
}

func TestRatingTarget_selectsCounterpart(t *testing.T) {
	h := newHarness(t)
	offer := completedOffer(t, h)

	fromView, err := h.svc.RatingTarget(h.ctx, h.from, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, h.from, fromView.FromUserID)
	assert.Equal(t, h.to, fromView.ToUserID)
	assert.Equal(t, offer.ID, fromView.OfferID)

	toView, err := h.svc.RatingTarget(h.ctx, h.to, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, h.to, toView.FromUserID)
	assert.Equal(t, h.from, toView.ToUserID)

	_, err = h.svc.RatingTarget(h.ctx, uuid.New(), offer.ID)
	assert.ErrorIs(t, err, entity.ErrNotParticipant)
}

func TestRatingTarget_requiresCompleted(t *testing.T) {
	h := newHarness(t)
	offer, _ := h.propose([]string{"100"}, []string{"100"})

	_, err := h.svc.RatingTarget(h.ctx, h.from, offer.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestSubmitReview(t *testing.T) {
	h := newHarness(t)
	offer := completedOffer(t, h)

	review, err := h.svc.SubmitReview(h.ctx, h.to, offer.ID, entity.CreateReviewInput{Rating: 5, Comment: "  smooth swap "})
	require.NoError(t, err)
	assert.Equal(t, h.to.String(), review.FromUserID)
	assert.Equal(t, h.from.String(), review.ToUserID)
	assert.Equal(t, "smooth swap", review.Comment)

	_, err = h.svc.SubmitReview(h.ctx, h.to, offer.ID, entity.CreateReviewInput{Rating: 4})
	assert.ErrorIs(t, err, entity.ErrAlreadyReviewed)

	_, err = h.svc.SubmitReview(h.ctx, h.from, offer.ID, entity.CreateReviewInput{Rating: 0})
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = h.svc.SubmitReview(h.ctx, h.from, offer.ID, entity.CreateReviewInput{Rating: 3})
	require.NoError(t, err)
	assert.Len(t, h.reviews.reviews, 2)
}

func TestListReviews(t *testing.T) {
	h := newHarness(t)
	offer := completedOffer(t, h)
	_, err := h.svc.SubmitReview(h.ctx, h.from, offer.ID, entity.CreateReviewInput{Rating: 4})
	require.NoError(t, err)

	reviews, err := h.svc.ListReviews(h.ctx, h.to, offer.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 4, reviews[0].Rating)

	_, err = h.svc.ListReviews(h.ctx, uuid.New(), offer.ID)
	assert.ErrorIs(t, err, entity.ErrNotParticipant)
}
