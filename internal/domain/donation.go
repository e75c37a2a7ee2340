package domain

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusPickedUp  Status = "picked_up"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

type Category string

const (
	CategoryProduce   Category = "produce"
	CategoryBakery    Category = "bakery"
	CategoryDairy     Category = "dairy"
	CategoryPrepared  Category = "prepared"
	CategoryCanned    Category = "canned"
	CategoryBeverages Category = "beverages"
	CategoryOther     Category = "other"
)

// Valid reports whether c is one of the known donation categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryProduce, CategoryBakery, CategoryDairy, CategoryPrepared, CategoryCanned, CategoryBeverages, CategoryOther:
		return true
	}
	return false
}

// Address is the structured pickup location of a donation.
type Address struct {
	Street string
	City   string
	State  string
	Zip    string
}

// Donation represents a surplus-food listing posted by a donor organization.
//
// AcceptedBy is set exactly when the status is accepted or picked_up, and
// once set it never changes to a different recipient. IsActive mirrors
// status ∈ {pending, accepted}.
type Donation struct {
	ID                 string
	OwnerID            string
	FoodName           string
	QuantityText       string
	Category           Category
	PickupInstructions string
	ExpiryAt           time.Time
	CreatedAt          time.Time
	AcceptedAt         *time.Time
	PickedUpAt         *time.Time
	PickupAddress      Address
	Latitude           float64
	Longitude          float64
	Status             Status
	AcceptedBy         *string
	IsActive           bool
}

// Claimable reports whether the donation can still be accepted at the given
// instant. Pending donations past their expiry remain stored as pending
// until something marks them expired, so callers must check the deadline
// themselves.
func (d Donation) Claimable(now time.Time) bool {
	return d.Status == StatusPending && d.ExpiryAt.After(now)
}
