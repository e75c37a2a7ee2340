package app

import (
	"context"
	"sort"

	"github.com/foodbridge/api/internal/domain"
	"github.com/foodbridge/api/internal/geo"
)

const defaultRadiusMeters = 10000

type MatchRepository interface {
	// ListAvailable returns pending, active donations newest-first,
	// optionally restricted to a category.
	ListAvailable(ctx context.Context, category domain.Category) ([]domain.Donation, error)
}

// MatchService is the read-only discovery query recipients use to find
// claimable donations near them.
type MatchService struct {
	repo MatchRepository
}

func NewMatchService(repo MatchRepository) *MatchService {
	return &MatchService{repo: repo}
}

type MatchFilter struct {
	Origin       *geo.Point
	RadiusMeters float64
	Category     domain.Category
}

// FindAvailable lists claimable donations. With an origin the result is
// bounded by the radius and ordered nearest-first; without one it is
// ordered by creation time, newest first. The listing does not re-check
// expiry deadlines; the background sweep bounds how stale a pending status
// can be.
func (s *MatchService) FindAvailable(ctx context.Context, filter MatchFilter) ([]domain.Donation, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, domain.ErrInvalidCategory
	}
	if filter.Origin != nil && !filter.Origin.Valid() {
		return nil, domain.ErrInvalidCoordinates
	}

	donations, err := s.repo.ListAvailable(ctx, filter.Category)
	if err != nil {
		return nil, err
	}
	if filter.Origin == nil {
		return donations, nil
	}

	radius := filter.RadiusMeters
	if radius <= 0 {
		radius = defaultRadiusMeters
	}

	origin := *filter.Origin
	type scored struct {
		donation domain.Donation
		distance float64
	}
	within := make([]scored, 0, len(donations))
	for _, d := range donations {
		dist := geo.Distance(origin, geo.Point{Lat: d.Latitude, Lng: d.Longitude})
		if dist <= radius {
			within = append(within, scored{donation: d, distance: dist})
		}
	}
	sort.SliceStable(within, func(i, j int) bool {
		return within[i].distance < within[j].distance
	})

	out := make([]domain.Donation, 0, len(within))
	for _, s := range within {
		out = append(out, s.donation)
	}
	return out, nil
}
