package app

import (
	"context"

	"github.com/foodbridge/api/internal/domain"
	"github.com/foodbridge/api/internal/impact"
)

type StatsRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Donation, error)
}

// StatsService aggregates a donor's impact figures for the dashboard.
type StatsService struct {
	repo StatsRepository
}

func NewStatsService(repo StatsRepository) *StatsService {
	return &StatsService{repo: repo}
}

type DonorStats struct {
	TotalListed int
	Pending     int
	Accepted    int
	PickedUp    int
	Expired     int
	PeopleFed   float64
	FoodSavedKg float64
	MealsSaved  float64
}

// DonorStats sums impact over completed pickups. Listings that never made
// it to a recipient do not count toward the fed/saved figures.
func (s *StatsService) DonorStats(ctx context.Context, ownerID string) (DonorStats, error) {
	donations, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return DonorStats{}, err
	}

	var stats DonorStats
	stats.TotalListed = len(donations)
	for _, d := range donations {
		switch d.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusAccepted:
			stats.Accepted++
		case domain.StatusPickedUp:
			stats.PickedUp++
			stats.PeopleFed += impact.EstimatePeopleFed(d.QuantityText)
			kg, meals := impact.EstimateFoodWeightAndMeals(d.QuantityText)
			stats.FoodSavedKg += kg
			stats.MealsSaved += meals
		case domain.StatusExpired:
			stats.Expired++
		}
	}
	return stats, nil
}
