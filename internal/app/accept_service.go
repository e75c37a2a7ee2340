package app

import (
	"context"
	"errors"
	"time"

	"github.com/foodbridge/api/internal/clock"
	"github.com/foodbridge/api/internal/domain"
)

type AcceptRepository interface {
	// AcceptPending atomically transitions a donation from pending to
	// accepted. The write must only apply while the stored status is still
	// pending and the expiry is in the future, and must report
	// ErrDonationUnavailable when it did not apply. A read-then-write
	// sequence with a gap is not an acceptable implementation.
	AcceptPending(ctx context.Context, donationID, recipientID string, at time.Time) (domain.Donation, error)
	Get(ctx context.Context, id string) (domain.Donation, error)
}

// AcceptService is the gate through which recipients claim donations. For
// any number of concurrent callers targeting the same donation, exactly one
// succeeds; everyone else gets a definitive, non-retryable rejection.
type AcceptService struct {
	repo   AcceptRepository
	events Events
	clock  clock.Clock
}

func NewAcceptService(repo AcceptRepository, events Events, clk clock.Clock) *AcceptService {
	return &AcceptService{
		repo:   repo,
		events: events,
		clock:  clk,
	}
}

// Accept claims the donation for recipientID. Rejections distinguish a
// donation that never existed (ErrDonationNotFound) from one that is no
// longer claimable because someone else won, it expired, or it was
// withdrawn (ErrDonationUnavailable).
func (s *AcceptService) Accept(ctx context.Context, donationID, recipientID string) (domain.Donation, error) {
	donation, err := s.repo.AcceptPending(ctx, donationID, recipientID, s.clock.Now())
	if err != nil {
		if errors.Is(err, domain.ErrDonationUnavailable) {
			if _, getErr := s.repo.Get(ctx, donationID); errors.Is(getErr, domain.ErrDonationNotFound) {
				return domain.Donation{}, domain.ErrDonationNotFound
			}
			return domain.Donation{}, domain.ErrDonationUnavailable
		}
		return domain.Donation{}, err
	}

	s.events.DonationAccepted(donation)
	return donation, nil
}
