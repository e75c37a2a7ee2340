package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/foodbridge/api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DonationRepository is the single source of truth for donation state. All
// state transitions are conditional single-statement updates, so they are
// atomic without explicit transactions.
type DonationRepository struct {
	pool *pgxpool.Pool
}

func NewDonationRepository(pool *pgxpool.Pool) *DonationRepository {
	return &DonationRepository{pool: pool}
}

const donationColumns = `
id, owner_id, food_name, quantity_text, category, pickup_instructions,
expiry_at, created_at, accepted_at, picked_up_at,
street, city, state, zip, latitude, longitude,
status, accepted_by, is_active`

func scanDonation(row pgx.Row) (domain.Donation, error) {
	var d domain.Donation
	var status string
	var category string
	err := row.Scan(
		&d.ID, &d.OwnerID, &d.FoodName, &d.QuantityText, &category, &d.PickupInstructions,
		&d.ExpiryAt, &d.CreatedAt, &d.AcceptedAt, &d.PickedUpAt,
		&d.PickupAddress.Street, &d.PickupAddress.City, &d.PickupAddress.State, &d.PickupAddress.Zip,
		&d.Latitude, &d.Longitude,
		&status, &d.AcceptedBy, &d.IsActive,
	)
	if err != nil {
		return domain.Donation{}, err
	}
	d.Status = domain.Status(status)
	d.Category = domain.Category(category)
	return d, nil
}

func (r *DonationRepository) Create(ctx context.Context, d domain.Donation) error {
	const stmt = `
INSERT INTO donations (
	id, owner_id, food_name, quantity_text, category, pickup_instructions,
	expiry_at, created_at, street, city, state, zip, latitude, longitude,
	status, is_active
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.pool.Exec(ctx, stmt,
		d.ID, d.OwnerID, d.FoodName, d.QuantityText, string(d.Category), d.PickupInstructions,
		d.ExpiryAt, d.CreatedAt,
		d.PickupAddress.Street, d.PickupAddress.City, d.PickupAddress.State, d.PickupAddress.Zip,
		d.Latitude, d.Longitude,
		string(d.Status), d.IsActive,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

func (r *DonationRepository) Get(ctx context.Context, id string) (domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`

	d, err := scanDonation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Donation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Donation{}, domain.ErrDonationNotFound
		}
		return domain.Donation{}, fmt.Errorf("get donation: %w", err)
	}
	return d, nil
}

func (r *DonationRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *DonationRepository) ListByRecipient(ctx context.Context, recipientID string) ([]domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE accepted_by = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, recipientID)
}

// ListAvailable returns claimable listings newest-first. An empty category
// means no category restriction.
func (r *DonationRepository) ListAvailable(ctx context.Context, category domain.Category) ([]domain.Donation, error) {
	query := `
SELECT ` + donationColumns + `
FROM donations
WHERE status = 'pending' AND is_active AND ($1 = '' OR category = $1)
ORDER BY created_at DESC`
	return r.list(ctx, query, string(category))
}

func (r *DonationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Donation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var out []domain.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return out, nil
}

// Update rewrites the owner-editable fields of a pending donation.
func (r *DonationRepository) Update(ctx context.Context, d domain.Donation) error {
	const stmt = `
UPDATE donations
SET food_name = $2, quantity_text = $3, category = $4, pickup_instructions = $5, expiry_at = $6
WHERE id = $1`

	tag, err := r.pool.Exec(ctx, stmt,
		d.ID, d.FoodName, d.QuantityText, string(d.Category), d.PickupInstructions, d.ExpiryAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update donation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDonationNotFound
	}
	return nil
}

// DeletePending withdraws a listing. The delete is conditional on the
// stored status so it cannot destroy a claim that landed after the caller
// last read the row; on zero rows a follow-up lookup tells a vanished
// donation apart from one that is no longer pending.
func (r *DonationRepository) DeletePending(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM donations WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete donation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM donations WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("delete donation: %w", err)
		}
		if exists {
			return domain.ErrNotPending
		}
		return domain.ErrDonationNotFound
	}
	return nil
}

// AcceptPending is the acceptance compare-and-swap. The row only changes
// while its stored status is still pending and the deadline has not passed;
// the database applies the condition and the write as one atomic statement,
// so concurrent callers cannot both see pending.
func (r *DonationRepository) AcceptPending(ctx context.Context, donationID, recipientID string, at time.Time) (domain.Donation, error) {
	stmt := `
UPDATE donations
SET status = 'accepted', accepted_by = $2, accepted_at = $3
WHERE id = $1 AND status = 'pending' AND expiry_at > $3
RETURNING ` + donationColumns

	d, err := scanDonation(r.pool.QueryRow(ctx, stmt, donationID, recipientID, at))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Donation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Donation{}, domain.ErrDonationUnavailable
		}
		return domain.Donation{}, fmt.Errorf("accept donation: %w", err)
	}
	return d, nil
}

// MarkPickedUp completes the accepted->picked_up transition, conditional on
// the accepting recipient so a stale caller cannot complete it twice.
func (r *DonationRepository) MarkPickedUp(ctx context.Context, id, recipientID string, at time.Time) error {
	const stmt = `
UPDATE donations
SET status = 'picked_up', picked_up_at = $3, is_active = FALSE
WHERE id = $1 AND status = 'accepted' AND accepted_by = $2`

	tag, err := r.pool.Exec(ctx, stmt, id, recipientID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("mark picked up: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotAccepted
	}
	return nil
}

// MarkExpired lazily expires one pending donation. Losing the condition to
// a concurrent accept reports ErrNotPending.
func (r *DonationRepository) MarkExpired(ctx context.Context, id string) error {
	const stmt = `
UPDATE donations
SET status = 'expired', is_active = FALSE
WHERE id = $1 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, stmt, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("mark expired: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotPending
	}
	return nil
}

// ExpireDue bulk-expires every pending donation past its deadline. Used by
// the background sweep.
func (r *DonationRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	const stmt = `
UPDATE donations
SET status = 'expired', is_active = FALSE
WHERE status = 'pending' AND expiry_at <= $1`

	tag, err := r.pool.Exec(ctx, stmt, now)
	if err != nil {
		return 0, fmt.Errorf("expire due donations: %w", err)
	}
	return tag.RowsAffected(), nil
}
