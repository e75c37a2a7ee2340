package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/foodbridge/api/internal/domain"
	"github.com/foodbridge/api/internal/testutil"
	"github.com/google/uuid"
)

func TestDonationRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewDonationRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("Get returns donation and ErrDonationNotFound", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		ownerID := testutil.InsertAccount(t, ctx, pool, domain.RoleDonor, true, true)
		donationID := testutil.InsertDonation(t, ctx, pool, ownerID, domain.Donation{})

		d, err := repo.Get(ctx, donationID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if d.ID != donationID || d.OwnerID != ownerID || d.Status != domain.StatusPending {
			t.Fatalf("unexpected donation: %+v", d)
		}

		_, err = repo.Get(ctx, uuid.NewString())
		if !errors.Is(err, domain.ErrDonationNotFound) {
			t.Fatalf("expected ErrDonationNotFound, got %v", err)
		}

		_, err = repo.Get(ctx, "not-a-uuid")
		if !errors.Is(err, domain.ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("AcceptPending applies once", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		ownerID := testutil.InsertAccount(t, ctx, pool, domain.RoleDonor, true, true)
		recipientA := testutil.InsertAccount(t, ctx, pool, domain.RoleRecipient, true, true)
		recipientB := testutil.InsertAccount(t, ctx, pool, domain.RoleRecipient, true, true)
		donationID := testutil.InsertDonation(t, ctx, pool, ownerID, domain.Donation{})

		now := time.Now().UTC()
		d, err := repo.AcceptPending(ctx, donationID, recipientA, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if d.Status != domain.StatusAccepted {
			t.Fatalf("expected status accepted, got %s", d.Status)
		}
		if d.AcceptedBy == nil || *d.AcceptedBy != recipientA {
			t.Fatalf("expected accepted_by %s, got %v", recipientA, d.AcceptedBy)
		}

		_, err = repo.AcceptPending(ctx, donationID, recipientB, now)
		if !errors.Is(err, domain.ErrDonationUnavailable) {
			t.Fatalf("expected ErrDonationUnavailable, got %v", err)
		}

		stored, err := repo.Get(ctx, donationID)
		if err != nil {
			t.Fatalf("get after accept: %v", err)
		}
		if stored.AcceptedBy == nil || *stored.AcceptedBy != recipientA {
			t.Fatalf("expected accepted_by unchanged, got %v", stored.AcceptedBy)
		}
	})

	t.Run("AcceptPending rejects expired pending donation", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		ownerID := testutil.InsertAccount(t, ctx, pool, domain.RoleDonor, true, true)
		recipientID := testutil.InsertAccount(t, ctx, pool, domain.RoleRecipient, true, true)
		donationID := testutil.InsertDonation(t, ctx, pool, ownerID, domain.Donation{
			ExpiryAt: time.Now().Add(-time.Minute).UTC(),
		})

		_, err := repo.AcceptPending(ctx, donationID, recipientID, time.Now().UTC())
		if !errors.Is(err, domain.ErrDonationUnavailable) {
			t.Fatalf("expected ErrDonationUnavailable, got %v", err)
		}
	})

	t.Run("concurrent accepts admit exactly one winner", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		ownerID := testutil.InsertAccount(t, ctx, pool, domain.RoleDonor, true, true)
		donationID := testutil.InsertDonation(t, ctx, pool, ownerID, domain.Donation{})

		const callers = 8
		recipients := make([]string, callers)
		for i := range recipients {
			recipients[i] = testutil.InsertAccount(t, ctx, pool, domain.RoleRecipient, true, true)
		}

		var wg sync.WaitGroup
		results := make([]error, callers)
		now := time.Now().UTC()
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = repo.AcceptPending(ctx, donationID, recipients[i], now)
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range results {
			if err == nil {
				winners++
			} else if !errors.Is(err, domain.ErrDonationUnavailable) {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if winners != 1 {
			t.Fatalf("expected exactly 1 winner, got %d", winners)
		}
	})

	t.Run("MarkPickedUp requires accepted status and matching recipient", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		ownerID := testutil.InsertAccount(t, ctx, pool, domain.RoleDonor, true, true)
		recipientID := testutil.InsertAccount(t, ctx, pool, domain.RoleRecipient, true, true)
		otherID := testutil.InsertAccount(t, ctx, pool, domain.RoleRecipient, true, true)
		donationID := testutil.InsertDonation(t, ctx, pool, ownerID, domain.Donation{})

		now := time.Now().UTC()
		if err := repo.MarkPickedUp(ctx, donationID, recipientID, now); !errors.Is(err, domain.ErrNotAccepted) {
			t.Fatalf("expected ErrNotAccepted on pending donation, got %v", err)
		}

		if _, err := repo.AcceptPending(ctx, donationID, recipientID, now); err != nil {
			t.Fatalf("accept: %v", err)
		}

		if err := repo.MarkPickedUp(ctx, donationID, otherID, now); !errors.Is(err, domain.ErrNotAccepted) {
			t.Fatalf("expected ErrNotAccepted for wrong recipient, got %v", err)
		}

		if err := repo.MarkPickedUp(ctx, donationID, recipientID, now.Add(time.Minute)); err != nil {
			t.Fatalf("mark picked up: %v", err)
		}

		stored, err := repo.Get(ctx, donationID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if stored.Status != domain.StatusPickedUp || stored.IsActive {
			t.Fatalf("unexpected donation after pickup: %+v", stored)
		}
		if stored.PickedUpAt == nil || stored.AcceptedAt == nil || stored.PickedUpAt.Before(*stored.AcceptedAt) {
			t.Fatalf("expected accepted_at <= picked_up_at, got %v / %v", stored.AcceptedAt, stored.PickedUpAt)
		}
	})

	t.Run("ListAvailable filters status and category, newest first", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		ownerID := testutil.InsertAccount(t, ctx, pool, domain.RoleDonor, true, true)
		recipientID := testutil.InsertAccount(t, ctx, pool, domain.RoleRecipient, true, true)

		bakeryID := testutil.InsertDonation(t, ctx, pool, ownerID, domain.Donation{Category: domain.CategoryBakery})
		produceID := testutil.InsertDonation(t, ctx, pool, ownerID, domain.Donation{Category: domain.CategoryProduce})

		acceptedAt := time.Now().UTC()
		claimed := testutil.InsertDonation(t, ctx, pool, ownerID, domain.Donation{Category: domain.CategoryBakery})
		if _, err := repo.AcceptPending(ctx, claimed, recipientID, acceptedAt); err != nil {
			t.Fatalf("accept: %v", err)
		}

		all, err := repo.ListAvailable(ctx, "")
		if err != nil {
			t.Fatalf("list available: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 available donations, got %d", len(all))
		}

		bakery, err := repo.ListAvailable(ctx, domain.CategoryBakery)
		if err != nil {
			t.Fatalf("list bakery: %v", err)
		}
		if len(bakery) != 1 || bakery[0].ID != bakeryID {
			t.Fatalf("expected only %s, got %+v", bakeryID, bakery)
		}
		_ = produceID
	})

	t.Run("MarkExpired and ExpireDue", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		ownerID := testutil.InsertAccount(t, ctx, pool, domain.RoleDonor, true, true)
		dueID := testutil.InsertDonation(t, ctx, pool, ownerID, domain.Donation{
			ExpiryAt: time.Now().Add(-time.Hour).UTC(),
		})
		freshID := testutil.InsertDonation(t, ctx, pool, ownerID, domain.Donation{})

		if err := repo.MarkExpired(ctx, dueID); err != nil {
			t.Fatalf("mark expired: %v", err)
		}
		if err := repo.MarkExpired(ctx, dueID); !errors.Is(err, domain.ErrNotPending) {
			t.Fatalf("expected ErrNotPending on second expiry, got %v", err)
		}

		expired, err := repo.ExpireDue(ctx, time.Now().UTC())
		if err != nil {
			t.Fatalf("expire due: %v", err)
		}
		if expired != 0 {
			t.Fatalf("expected no further expirations, got %d", expired)
		}

		fresh, err := repo.Get(ctx, freshID)
		if err != nil {
			t.Fatalf("get fresh: %v", err)
		}
		if fresh.Status != domain.StatusPending {
			t.Fatalf("expected fresh donation untouched, got %s", fresh.Status)
		}
	})

	t.Run("DeletePending removes pending donation", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		ownerID := testutil.InsertAccount(t, ctx, pool, domain.RoleDonor, true, true)
		donationID := testutil.InsertDonation(t, ctx, pool, ownerID, domain.Donation{})

		if err := repo.DeletePending(ctx, donationID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := repo.DeletePending(ctx, donationID); !errors.Is(err, domain.ErrDonationNotFound) {
			t.Fatalf("expected ErrDonationNotFound, got %v", err)
		}
	})

	t.Run("schema rejects is_active out of step with status", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		ownerID := testutil.InsertAccount(t, ctx, pool, domain.RoleDonor, true, true)

		_, err := pool.Exec(ctx, `
INSERT INTO donations (
	id, owner_id, food_name, quantity_text, category,
	expiry_at, street, city, latitude, longitude, status, is_active
)
VALUES ($1, $2, 'Bread', '10 kg', 'bakery', NOW() + INTERVAL '1 hour', '1 Main St', 'Springfield', 51.5, -0.12, 'pending', FALSE)`,
			uuid.NewString(), ownerID,
		)
		if err == nil {
			t.Fatal("expected check violation for inactive pending donation")
		}
	})

	t.Run("DeletePending leaves a claimed donation intact", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		ownerID := testutil.InsertAccount(t, ctx, pool, domain.RoleDonor, true, true)
		recipientID := testutil.InsertAccount(t, ctx, pool, domain.RoleRecipient, true, true)
		donationID := testutil.InsertDonation(t, ctx, pool, ownerID, domain.Donation{})

		if _, err := repo.AcceptPending(ctx, donationID, recipientID, time.Now().UTC()); err != nil {
			t.Fatalf("accept: %v", err)
		}

		if err := repo.DeletePending(ctx, donationID); !errors.Is(err, domain.ErrNotPending) {
			t.Fatalf("expected ErrNotPending, got %v", err)
		}

		kept, err := repo.Get(ctx, donationID)
		if err != nil {
			t.Fatalf("expected claim to survive, got %v", err)
		}
		if kept.Status != domain.StatusAccepted || kept.AcceptedBy == nil || *kept.AcceptedBy != recipientID {
			t.Fatalf("expected accepted donation intact, got %+v", kept)
		}
	})
}
