package domain

import "time"

type Role string

const (
	RoleDonor     Role = "donor"
	RoleRecipient Role = "recipient"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleRecipient, RoleAdmin:
		return true
	}
	return false
}

// Account is an organization registered on the platform, either a donor
// posting listings or a recipient claiming them.
type Account struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Verified  bool
	Active    bool
	CreatedAt time.Time
}

// Actor is the authenticated caller of an operation, resolved by the
// transport layer before any service call.
type Actor struct {
	ID   string
	Role Role
}
