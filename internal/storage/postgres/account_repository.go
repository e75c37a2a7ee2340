package postgres

import (
	"context"
	"fmt"

	"github.com/foodbridge/api/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// ListActiveVerifiedRecipients returns every recipient organization
// eligible for new-listing fan-out.
func (r *AccountRepository) ListActiveVerifiedRecipients(ctx context.Context) ([]domain.Account, error) {
	const query = `
SELECT id, name, email, role, verified, active, created_at
FROM accounts
WHERE role = 'recipient' AND verified AND active
ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var a domain.Account
		var role string
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &role, &a.Verified, &a.Active, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Role = domain.Role(role)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return out, nil
}
