package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/foodbridge/api/internal/clock"
	"github.com/foodbridge/api/internal/domain"
	"github.com/foodbridge/api/internal/impact"
	"github.com/sirupsen/logrus"
)

const dispatchTimeout = 10 * time.Second

type NotificationWriter interface {
	Create(ctx context.Context, notification domain.Notification) error
}

type RecipientLister interface {
	ListActiveVerifiedRecipients(ctx context.Context) ([]domain.Account, error)
}

type eventKind int

const (
	eventCreated eventKind = iota
	eventAccepted
	eventPickedUp
)

type event struct {
	kind     eventKind
	donation domain.Donation
}

// Dispatcher fans out notification records on lifecycle transitions. It
// runs decoupled from the transactional path: emits never block the caller,
// and delivery failures are logged and swallowed.
//
// A single worker drains the queue in FIFO order, so events for one
// donation are delivered in the order its transitions committed. No
// ordering holds across donations.
type Dispatcher struct {
	notifications NotificationWriter
	recipients    RecipientLister
	clock         clock.Clock
	log           *logrus.Logger

	queue     chan event
	done      chan struct{}
	closeOnce sync.Once
}

func NewDispatcher(notifications NotificationWriter, recipients RecipientLister, clk clock.Clock, log *logrus.Logger) *Dispatcher {
	d := &Dispatcher{
		notifications: notifications,
		recipients:    recipients,
		clock:         clk,
		log:           log,
		queue:         make(chan event, 256),
		done:          make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) DonationCreated(donation domain.Donation) {
	d.enqueue(event{kind: eventCreated, donation: donation})
}

func (d *Dispatcher) DonationAccepted(donation domain.Donation) {
	d.enqueue(event{kind: eventAccepted, donation: donation})
}

func (d *Dispatcher) DonationPickedUp(donation domain.Donation) {
	d.enqueue(event{kind: eventPickedUp, donation: donation})
}

// Close stops accepting events and waits until the queued ones are
// delivered.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	<-d.done
}

func (d *Dispatcher) enqueue(ev event) {
	defer func() {
		// Emitting after Close is a programming error upstream; swallowing
		// the panic keeps it from failing a committed transition.
		if r := recover(); r != nil {
			d.log.WithField("donation_id", ev.donation.ID).Warn("event emitted after dispatcher close")
		}
	}()
	select {
	case d.queue <- ev:
	default:
		d.log.WithField("donation_id", ev.donation.ID).Warn("event queue full, dropping event")
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		if err := d.handle(ctx, ev); err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"donation_id": ev.donation.ID,
				"event":       ev.kind,
			}).Warn("event dispatch failed")
		}
		cancel()
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev event) error {
	switch ev.kind {
	case eventCreated:
		return d.handleCreated(ctx, ev.donation)
	case eventAccepted:
		return d.handleAccepted(ctx, ev.donation)
	case eventPickedUp:
		return d.handlePickedUp(ctx, ev.donation)
	}
	return nil
}

// handleCreated notifies every active, verified recipient organization.
// There is no geographic filtering on this fan-out.
func (d *Dispatcher) handleCreated(ctx context.Context, donation domain.Donation) error {
	recipients, err := d.recipients.ListActiveVerifiedRecipients(ctx)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}

	var firstErr error
	for _, recipient := range recipients {
		notification := domain.Notification{
			ID:                newID(),
			RecipientID:       recipient.ID,
			Type:              domain.NotificationNewListing,
			Title:             "New donation available",
			Message:           fmt.Sprintf("%s (%s) was just listed for pickup.", donation.FoodName, donation.QuantityText),
			RelatedDonationID: &donation.ID,
			CreatedAt:         d.clock.Now(),
		}
		if err := d.notifications.Create(ctx, notification); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("notify recipient %s: %w", recipient.ID, err)
		}
	}
	return firstErr
}

func (d *Dispatcher) handleAccepted(ctx context.Context, donation domain.Donation) error {
	notification := domain.Notification{
		ID:                newID(),
		RecipientID:       donation.OwnerID,
		Type:              domain.NotificationAccepted,
		Title:             "Donation accepted",
		Message:           fmt.Sprintf("Your donation %q has been claimed and is awaiting pickup.", donation.FoodName),
		RelatedDonationID: &donation.ID,
		CreatedAt:         d.clock.Now(),
	}
	if err := d.notifications.Create(ctx, notification); err != nil {
		return fmt.Errorf("notify donor: %w", err)
	}
	return nil
}

func (d *Dispatcher) handlePickedUp(ctx context.Context, donation domain.Donation) error {
	if donation.AcceptedBy == nil {
		return fmt.Errorf("picked-up donation %s has no accepting recipient", donation.ID)
	}
	fed := impact.EstimatePeopleFed(donation.QuantityText)
	notification := domain.Notification{
		ID:                newID(),
		RecipientID:       *donation.AcceptedBy,
		Type:              domain.NotificationCompleted,
		Title:             "Pickup confirmed",
		Message:           fmt.Sprintf("Pickup of %q confirmed. Estimated impact: %.0f people fed.", donation.FoodName, fed),
		RelatedDonationID: &donation.ID,
		CreatedAt:         d.clock.Now(),
	}
	if err := d.notifications.Create(ctx, notification); err != nil {
		return fmt.Errorf("notify recipient: %w", err)
	}
	return nil
}
