package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/foodbridge/api/internal/app"
	"github.com/foodbridge/api/internal/domain"
	"github.com/foodbridge/api/internal/geo"
)

// DonationLifecycle is the slice of the donation service the collection and
// item handlers need.
type DonationLifecycle interface {
	Create(ctx context.Context, ownerID string, in app.CreateDonationInput) (domain.Donation, error)
	Get(ctx context.Context, id string) (domain.Donation, error)
	ListForActor(ctx context.Context, actor domain.Actor) ([]domain.Donation, error)
	Update(ctx context.Context, id string, actor domain.Actor, in app.UpdateDonationInput) (domain.Donation, error)
	Withdraw(ctx context.Context, id string, actor domain.Actor) error
	MarkPickedUp(ctx context.Context, id string, actor domain.Actor) (domain.Donation, error)
}

// DonationAccepter is the minimal interface needed to claim a donation.
type DonationAccepter interface {
	Accept(ctx context.Context, donationID, recipientID string) (domain.Donation, error)
}

// DonationMatcher is the minimal interface behind the nearby listing.
type DonationMatcher interface {
	FindAvailable(ctx context.Context, filter app.MatchFilter) ([]domain.Donation, error)
}

// DonorStatsProvider is the minimal interface behind the stats endpoint.
type DonorStatsProvider interface {
	DonorStats(ctx context.Context, ownerID string) (app.DonorStats, error)
}

// HandleDonations returns the handler for the /donations collection:
// POST creates a listing (donors only), GET lists the actor's view.
func HandleDonations(svc DonationLifecycle, limiter *RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			actor, ok := requireRole(w, r, domain.RoleDonor)
			if !ok {
				return
			}
			if !limiter.check(w, actor.ID) {
				return
			}

			var req createDonationRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeMessage(w, http.StatusBadRequest, "invalid request body")
				return
			}

			donation, err := svc.Create(r.Context(), actor.ID, req.toInput())
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeData(w, http.StatusCreated, toDonationResponse(donation))

		case http.MethodGet:
			actor, ok := requireActor(w, r)
			if !ok {
				return
			}
			donations, err := svc.ListForActor(r.Context(), actor)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeData(w, http.StatusOK, toDonationResponses(donations))

		default:
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleNearbyDonations returns the handler for GET /donations/nearby.
// Recipients pass lat, lng, maxDistance (meters) and category as query
// parameters; lat and lng must come as a pair.
func HandleNearbyDonations(svc DonationMatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if _, ok := requireRole(w, r, domain.RoleRecipient); !ok {
			return
		}

		filter, err := parseMatchFilter(r.URL.Query())
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		donations, err := svc.FindAvailable(r.Context(), filter)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeData(w, http.StatusOK, toDonationResponses(donations))
	}
}

// HandleDonorStats returns the handler for GET /donations/stats.
func HandleDonorStats(svc DonorStatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		actor, ok := requireRole(w, r, domain.RoleDonor)
		if !ok {
			return
		}

		stats, err := svc.DonorStats(r.Context(), actor.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeData(w, http.StatusOK, donorStatsResponse{
			TotalListed: stats.TotalListed,
			Pending:     stats.Pending,
			Accepted:    stats.Accepted,
			PickedUp:    stats.PickedUp,
			Expired:     stats.Expired,
			PeopleFed:   stats.PeopleFed,
			FoodSavedKg: stats.FoodSavedKg,
			MealsSaved:  stats.MealsSaved,
		})
	}
}

// HandleDonationItem returns the handler for the /donations/{id} subtree:
// GET, PATCH and DELETE on the item itself, plus the accept and picked-up
// transitions.
func HandleDonationItem(svc DonationLifecycle, accepter DonationAccepter, limiter *RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, action, ok := parseDonationPath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}

		switch action {
		case "":
			handleDonationByID(w, r, svc, id)
		case "accept":
			handleAccept(w, r, accepter, limiter, id)
		case "picked-up":
			handlePickedUp(w, r, svc, id)
		default:
			http.NotFound(w, r)
		}
	}
}

func handleDonationByID(w http.ResponseWriter, r *http.Request, svc DonationLifecycle, id string) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := requireActor(w, r); !ok {
			return
		}
		donation, err := svc.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeData(w, http.StatusOK, toDonationResponse(donation))

	case http.MethodPatch:
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		var req updateDonationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		donation, err := svc.Update(r.Context(), id, actor, req.toInput())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeData(w, http.StatusOK, toDonationResponse(donation))

	case http.MethodDelete:
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		if err := svc.Withdraw(r.Context(), id, actor); err != nil {
			writeDomainError(w, err)
			return
		}
		writeData(w, http.StatusOK, map[string]string{"id": id})

	default:
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func handleAccept(w http.ResponseWriter, r *http.Request, accepter DonationAccepter, limiter *RateLimiter, id string) {
	if r.Method != http.MethodPatch {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	actor, ok := requireRole(w, r, domain.RoleRecipient)
	if !ok {
		return
	}
	if !limiter.check(w, actor.ID) {
		return
	}

	donation, err := accepter.Accept(r.Context(), id, actor.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, toDonationResponse(donation))
}

func handlePickedUp(w http.ResponseWriter, r *http.Request, svc DonationLifecycle, id string) {
	if r.Method != http.MethodPatch {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	donation, err := svc.MarkPickedUp(r.Context(), id, actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, toDonationResponse(donation))
}

// parseDonationPath splits /donations/{id} and /donations/{id}/{action}.
func parseDonationPath(path string) (id, action string, ok bool) {
	rest, found := strings.CutPrefix(path, "/donations/")
	if !found || rest == "" {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	switch len(parts) {
	case 1:
		return parts[0], "", parts[0] != ""
	case 2:
		return parts[0], parts[1], parts[0] != "" && parts[1] != ""
	}
	return "", "", false
}

func parseMatchFilter(q map[string][]string) (app.MatchFilter, error) {
	get := func(key string) string {
		if vs := q[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	var filter app.MatchFilter
	latStr, lngStr := get("lat"), get("lng")
	if (latStr == "") != (lngStr == "") {
		return app.MatchFilter{}, domain.ErrInvalidCoordinates
	}
	if latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return app.MatchFilter{}, domain.ErrInvalidCoordinates
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return app.MatchFilter{}, domain.ErrInvalidCoordinates
		}
		filter.Origin = &geo.Point{Lat: lat, Lng: lng}
	}
	if distStr := get("maxDistance"); distStr != "" {
		dist, err := strconv.ParseFloat(distStr, 64)
		if err != nil || dist <= 0 {
			return app.MatchFilter{}, domain.ErrInvalidCoordinates
		}
		filter.RadiusMeters = dist
	}
	filter.Category = domain.Category(get("category"))
	return filter, nil
}

type addressPayload struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type coordinatesPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type createDonationRequest struct {
	FoodName           string             `json:"foodName"`
	QuantityText       string             `json:"quantityText"`
	Category           string             `json:"category"`
	PickupInstructions string             `json:"pickupInstructions"`
	ExpiryAt           time.Time          `json:"expiryAt"`
	PickupAddress      addressPayload     `json:"pickupAddress"`
	PickupCoordinates  coordinatesPayload `json:"pickupCoordinates"`
}

func (r createDonationRequest) toInput() app.CreateDonationInput {
	return app.CreateDonationInput{
		FoodName:           r.FoodName,
		QuantityText:       r.QuantityText,
		Category:           domain.Category(r.Category),
		PickupInstructions: r.PickupInstructions,
		ExpiryAt:           r.ExpiryAt,
		PickupAddress: domain.Address{
			Street: r.PickupAddress.Street,
			City:   r.PickupAddress.City,
			State:  r.PickupAddress.State,
			Zip:    r.PickupAddress.Zip,
		},
		Latitude:  r.PickupCoordinates.Lat,
		Longitude: r.PickupCoordinates.Lng,
	}
}

type updateDonationRequest struct {
	FoodName           *string    `json:"foodName"`
	QuantityText       *string    `json:"quantityText"`
	Category           *string    `json:"category"`
	PickupInstructions *string    `json:"pickupInstructions"`
	ExpiryAt           *time.Time `json:"expiryAt"`
}

func (r updateDonationRequest) toInput() app.UpdateDonationInput {
	in := app.UpdateDonationInput{
		FoodName:           r.FoodName,
		QuantityText:       r.QuantityText,
		PickupInstructions: r.PickupInstructions,
		ExpiryAt:           r.ExpiryAt,
	}
	if r.Category != nil {
		category := domain.Category(*r.Category)
		in.Category = &category
	}
	return in
}

type donationResponse struct {
	ID                 string             `json:"id"`
	OwnerID            string             `json:"ownerId"`
	FoodName           string             `json:"foodName"`
	QuantityText       string             `json:"quantityText"`
	Category           string             `json:"category"`
	PickupInstructions string             `json:"pickupInstructions,omitempty"`
	ExpiryAt           time.Time          `json:"expiryAt"`
	CreatedAt          time.Time          `json:"createdAt"`
	AcceptedAt         *time.Time         `json:"acceptedAt,omitempty"`
	PickedUpAt         *time.Time         `json:"pickedUpAt,omitempty"`
	PickupAddress      addressPayload     `json:"pickupAddress"`
	PickupCoordinates  coordinatesPayload `json:"pickupCoordinates"`
	Status             string             `json:"status"`
	AcceptedBy         *string            `json:"acceptedBy,omitempty"`
	IsActive           bool               `json:"isActive"`
}

func toDonationResponse(d domain.Donation) donationResponse {
	return donationResponse{
		ID:                 d.ID,
		OwnerID:            d.OwnerID,
		FoodName:           d.FoodName,
		QuantityText:       d.QuantityText,
		Category:           string(d.Category),
		PickupInstructions: d.PickupInstructions,
		ExpiryAt:           d.ExpiryAt,
		CreatedAt:          d.CreatedAt,
		AcceptedAt:         d.AcceptedAt,
		PickedUpAt:         d.PickedUpAt,
		PickupAddress: addressPayload{
			Street: d.PickupAddress.Street,
			City:   d.PickupAddress.City,
			State:  d.PickupAddress.State,
			Zip:    d.PickupAddress.Zip,
		},
		PickupCoordinates: coordinatesPayload{Lat: d.Latitude, Lng: d.Longitude},
		Status:            string(d.Status),
		AcceptedBy:        d.AcceptedBy,
		IsActive:          d.IsActive,
	}
}

func toDonationResponses(donations []domain.Donation) []donationResponse {
	out := make([]donationResponse, 0, len(donations))
	for _, d := range donations {
		out = append(out, toDonationResponse(d))
	}
	return out
}

type donorStatsResponse struct {
	TotalListed int     `json:"totalListed"`
	Pending     int     `json:"pending"`
	Accepted    int     `json:"accepted"`
	PickedUp    int     `json:"pickedUp"`
	Expired     int     `json:"expired"`
	PeopleFed   float64 `json:"peopleFed"`
	FoodSavedKg float64 `json:"foodSavedKg"`
	MealsSaved  float64 `json:"mealsSaved"`
}
