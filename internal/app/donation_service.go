package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/foodbridge/api/internal/clock"
	"github.com/foodbridge/api/internal/domain"
	"github.com/foodbridge/api/internal/geo"
)

const maxInstructionsLength = 500

type DonationRepository interface {
	Create(ctx context.Context, donation domain.Donation) error
	Get(ctx context.Context, id string) (domain.Donation, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Donation, error)
	ListByRecipient(ctx context.Context, recipientID string) ([]domain.Donation, error)
	Update(ctx context.Context, donation domain.Donation) error
	DeletePending(ctx context.Context, id string) error
	MarkPickedUp(ctx context.Context, id, recipientID string, at time.Time) error
	MarkExpired(ctx context.Context, id string) error
}

// Events receives lifecycle transitions after they commit. Implementations
// must not block and must never return an error into the calling path.
type Events interface {
	DonationCreated(donation domain.Donation)
	DonationAccepted(donation domain.Donation)
	DonationPickedUp(donation domain.Donation)
}

// DonationService owns the donation state machine: creation, owner edits,
// withdrawal, pickup, and the lazy expiry check applied wherever a pending
// donation is read.
type DonationService struct {
	repo   DonationRepository
	events Events
	clock  clock.Clock
}

func NewDonationService(repo DonationRepository, events Events, clk clock.Clock) *DonationService {
	return &DonationService{
		repo:   repo,
		events: events,
		clock:  clk,
	}
}

type CreateDonationInput struct {
	FoodName           string
	QuantityText       string
	Category           domain.Category
	PickupInstructions string
	ExpiryAt           time.Time
	PickupAddress      domain.Address
	Latitude           float64
	Longitude          float64
}

func (in CreateDonationInput) validate(now time.Time) error {
	if strings.TrimSpace(in.FoodName) == "" {
		return domain.ErrFoodNameRequired
	}
	if strings.TrimSpace(in.QuantityText) == "" {
		return domain.ErrQuantityRequired
	}
	if !in.Category.Valid() {
		return domain.ErrInvalidCategory
	}
	if !in.ExpiryAt.After(now) {
		return domain.ErrExpiryNotInFuture
	}
	if in.PickupAddress.Street == "" || in.PickupAddress.City == "" {
		return domain.ErrPickupAddressRequired
	}
	if !(geo.Point{Lat: in.Latitude, Lng: in.Longitude}).Valid() {
		return domain.ErrInvalidCoordinates
	}
	if len(in.PickupInstructions) > maxInstructionsLength {
		return domain.ErrInstructionsTooLong
	}
	return nil
}

func (s *DonationService) Create(ctx context.Context, ownerID string, in CreateDonationInput) (domain.Donation, error) {
	now := s.clock.Now()
	if err := in.validate(now); err != nil {
		return domain.Donation{}, err
	}

	donation := domain.Donation{
		ID:                 newID(),
		OwnerID:            ownerID,
		FoodName:           strings.TrimSpace(in.FoodName),
		QuantityText:       strings.TrimSpace(in.QuantityText),
		Category:           in.Category,
		PickupInstructions: in.PickupInstructions,
		ExpiryAt:           in.ExpiryAt.UTC(),
		CreatedAt:          now,
		PickupAddress:      in.PickupAddress,
		Latitude:           in.Latitude,
		Longitude:          in.Longitude,
		Status:             domain.StatusPending,
		IsActive:           true,
	}

	if err := s.repo.Create(ctx, donation); err != nil {
		return domain.Donation{}, err
	}

	s.events.DonationCreated(donation)
	return donation, nil
}

func (s *DonationService) Get(ctx context.Context, id string) (domain.Donation, error) {
	donation, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Donation{}, err
	}
	return s.freshen(ctx, donation), nil
}

// ListForActor returns the caller's view of donations: donors see their own
// listings, recipients see donations they accepted or picked up.
func (s *DonationService) ListForActor(ctx context.Context, actor domain.Actor) ([]domain.Donation, error) {
	var (
		donations []domain.Donation
		err       error
	)
	switch actor.Role {
	case domain.RoleDonor:
		donations, err = s.repo.ListByOwner(ctx, actor.ID)
	case domain.RoleRecipient:
		donations, err = s.repo.ListByRecipient(ctx, actor.ID)
	case domain.RoleAdmin:
		donations, err = s.repo.ListByOwner(ctx, actor.ID)
	default:
		return nil, domain.ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	for i := range donations {
		donations[i] = s.freshen(ctx, donations[i])
	}
	return donations, nil
}

type UpdateDonationInput struct {
	FoodName           *string
	QuantityText       *string
	Category           *domain.Category
	PickupInstructions *string
	ExpiryAt           *time.Time
}

// Update edits a pending donation. Only the owner may edit, and only while
// the listing has not been claimed.
func (s *DonationService) Update(ctx context.Context, id string, actor domain.Actor, in UpdateDonationInput) (domain.Donation, error) {
	donation, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Donation{}, err
	}
	if donation.OwnerID != actor.ID {
		return domain.Donation{}, domain.ErrForbidden
	}
	donation = s.freshen(ctx, donation)
	if donation.Status != domain.StatusPending {
		return domain.Donation{}, domain.ErrNotPending
	}

	if in.FoodName != nil {
		if strings.TrimSpace(*in.FoodName) == "" {
			return domain.Donation{}, domain.ErrFoodNameRequired
		}
		donation.FoodName = strings.TrimSpace(*in.FoodName)
	}
	if in.QuantityText != nil {
		if strings.TrimSpace(*in.QuantityText) == "" {
			return domain.Donation{}, domain.ErrQuantityRequired
		}
		donation.QuantityText = strings.TrimSpace(*in.QuantityText)
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return domain.Donation{}, domain.ErrInvalidCategory
		}
		donation.Category = *in.Category
	}
	if in.PickupInstructions != nil {
		if len(*in.PickupInstructions) > maxInstructionsLength {
			return domain.Donation{}, domain.ErrInstructionsTooLong
		}
		donation.PickupInstructions = *in.PickupInstructions
	}
	if in.ExpiryAt != nil {
		if !in.ExpiryAt.After(s.clock.Now()) {
			return domain.Donation{}, domain.ErrExpiryNotInFuture
		}
		donation.ExpiryAt = in.ExpiryAt.UTC()
	}

	if err := s.repo.Update(ctx, donation); err != nil {
		return domain.Donation{}, err
	}
	return donation, nil
}

// Withdraw removes a pending donation. This is the owner pulling the listing
// before anyone claimed it; the record is deleted rather than cancelled.
func (s *DonationService) Withdraw(ctx context.Context, id string, actor domain.Actor) error {
	donation, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if donation.OwnerID != actor.ID {
		return domain.ErrForbidden
	}
	donation = s.freshen(ctx, donation)
	if donation.Status != domain.StatusPending {
		return domain.ErrNotPending
	}
	// The delete is conditional on the pending status, so an accept that
	// lands between the read above and this statement wins and the withdraw
	// reports the conflict instead of destroying the claim.
	return s.repo.DeletePending(ctx, id)
}

// MarkPickedUp completes an accepted donation. Only the recipient who
// accepted it may confirm the pickup.
func (s *DonationService) MarkPickedUp(ctx context.Context, id string, actor domain.Actor) (domain.Donation, error) {
	donation, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Donation{}, err
	}
	if donation.Status != domain.StatusAccepted {
		return domain.Donation{}, domain.ErrNotAccepted
	}
	if donation.AcceptedBy == nil || *donation.AcceptedBy != actor.ID {
		return domain.Donation{}, domain.ErrForbidden
	}

	now := s.clock.Now()
	// The update stays conditional on status and accepted_by so a concurrent
	// caller cannot complete the transition twice.
	if err := s.repo.MarkPickedUp(ctx, id, actor.ID, now); err != nil {
		return domain.Donation{}, err
	}

	donation.Status = domain.StatusPickedUp
	donation.PickedUpAt = &now
	donation.IsActive = false

	s.events.DonationPickedUp(donation)
	return donation, nil
}

// freshen applies the lazy expiry check: a pending donation past its
// deadline is marked expired on read. The write is advisory; losing the
// race to an accept leaves the stored row authoritative.
func (s *DonationService) freshen(ctx context.Context, donation domain.Donation) domain.Donation {
	if donation.Status != domain.StatusPending || donation.ExpiryAt.After(s.clock.Now()) {
		return donation
	}
	if err := s.repo.MarkExpired(ctx, donation.ID); err != nil {
		if errors.Is(err, domain.ErrNotPending) {
			if fresh, gerr := s.repo.Get(ctx, donation.ID); gerr == nil {
				return fresh
			}
		}
		return donation
	}
	donation.Status = domain.StatusExpired
	donation.IsActive = false
	return donation
}
