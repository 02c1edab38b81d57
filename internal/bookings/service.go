package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baucrew/baucrew/internal/identity"
)

// Fee computation is deferred: bookings are created with a zero platform fee
// and zero payout, matching the launch pricing. A fee schedule plugs in here.
const platformFeeCents = 0

// Service implements the offer-acceptance workflow and the booking read
// projections on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// AcceptResult reports the outcome of a successful acceptance. Participant
// ids are included so callers can fan out notifications after commit.
type AcceptResult struct {
	BookingID   string
	JobTitle    string
	CustomerID  string
	ProviderID  string
	AmountCents int64
}

// AcceptOffer converts a SENT offer into a booking. All effects happen in one
// transaction: the offer is accepted, sibling SENT offers are rejected, the
// booking and its payment transaction are created, the offer and thread gain
// the booking reference, and the job request moves to ASSIGNED. Any failure
// rolls everything back.
//
// The job_requests row is locked before any offer row. Concurrent acceptances
// on the same request, even of different offers, serialize there: the second
// caller waits for the first to commit, then finds the offer no longer SENT
// and gets a conflict instead of a deadlock abort.
func (s *Service) AcceptOffer(ctx context.Context, caller identity.Identity, offerID string) (*AcceptResult, error) {
	if !identity.CanActAsCustomer(caller.Role) {
		return nil, NewError(CodeAuthorization, "customer role required")
	}

	var result *AcceptResult
	err := s.store.WithTx(ctx, func(tx Tx) error {
		requestID, err := tx.FindOfferRequest(ctx, offerID)
		if err != nil {
			return err
		}

		jr, err := tx.LockJobRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if jr.CustomerID != caller.ID {
			return NewError(CodeAuthorization, "not your request")
		}

		offer, err := tx.LockOffer(ctx, offerID)
		if err != nil {
			return err
		}

		switch offer.Status {
		case OfferSent:
			// proceed
		case OfferAccepted:
			return NewError(CodeConflict, "offer already accepted")
		default:
			return NewError(CodeConflict, "offer no longer available")
		}

		now := s.now()
		if err := tx.MarkOfferAccepted(ctx, offer.ID, now); err != nil {
			return err
		}
		if err := tx.RejectOpenOffers(ctx, offer.JobRequestID, offer.ID); err != nil {
			return err
		}

		booking := &Booking{
			ID:           s.newID(),
			Type:         TypeBooking,
			Status:       BookingNeedsPayment,
			JobRequestID: jr.ID,
			CustomerID:   jr.CustomerID,
			ProviderID:   offer.ProviderID,
			Title:        jr.Title,
			Description:  jr.Description,
			PhotoURLs:    jr.PhotoURLs,
			AddressLine1: jr.AddressLine1,
			AddressLine2: jr.AddressLine2,
			City:         jr.City,
			PostalCode:   jr.PostalCode,
			Country:      jr.Country,
			Currency:     "EUR",
			PriceType:    PriceTypeQuote,

			QuotedPriceCents:    offer.AmountCents,
			PlatformFeeCents:    platformFeeCents,
			ProviderPayoutCents: 0,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := tx.CreateBooking(ctx, booking); err != nil {
			return err
		}
		if err := tx.SetOfferBooking(ctx, offer.ID, booking.ID); err != nil {
			return err
		}
		if err := tx.LinkThreadToBooking(ctx, offer.ThreadID, booking.ID); err != nil {
			return err
		}
		if err := tx.SetJobRequestStatus(ctx, jr.ID, RequestAssigned); err != nil {
			return err
		}

		pt := &PaymentTransaction{
			ID:                  s.newID(),
			BookingID:           booking.ID,
			AmountCents:         offer.AmountCents,
			PlatformFeeCents:    platformFeeCents,
			ProviderAmountCents: offer.AmountCents,
			Currency:            "EUR",
			Status:              PaymentRequiresPayment,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := tx.CreatePaymentTransaction(ctx, pt); err != nil {
			return err
		}

		result = &AcceptResult{
			BookingID:   booking.ID,
			JobTitle:    booking.Title,
			CustomerID:  booking.CustomerID,
			ProviderID:  booking.ProviderID,
			AmountCents: offer.AmountCents,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListCustomerBookings returns the caller's bookings as customer, newest
// first. The customer owns the address, so nothing is redacted.
func (s *Service) ListCustomerBookings(ctx context.Context, caller identity.Identity) ([]CustomerBookingRow, error) {
	if !identity.CanActAsCustomer(caller.Role) {
		return nil, NewError(CodeAuthorization, "customer role required")
	}
	return s.store.ListCustomerBookings(ctx, caller.ID)
}

// ListProviderBookings returns the caller's bookings as provider, newest
// first. The projection never carries street address fields.
func (s *Service) ListProviderBookings(ctx context.Context, caller identity.Identity) ([]ProviderBookingRow, error) {
	if !identity.CanActAsProvider(caller.Role) {
		return nil, NewError(CodeAuthorization, "provider role required")
	}
	return s.store.ListProviderBookings(ctx, caller.ID)
}

// GetProviderBookingDetail returns a single booking for its provider, with
// street lines redacted until payment per the visibility policy, plus the
// originating job request and the conversation thread.
func (s *Service) GetProviderBookingDetail(ctx context.Context, caller identity.Identity, bookingID string) (*ProviderBookingDetail, error) {
	if !identity.CanActAsProvider(caller.Role) {
		return nil, NewError(CodeAuthorization, "provider role required")
	}

	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID != caller.ID {
		return nil, NewError(CodeAuthorization, "not your booking")
	}

	detail := &ProviderBookingDetail{Booking: redactForProvider(*b)}

	ref, err := s.store.GetJobRequestRef(ctx, b.JobRequestID)
	if err != nil {
		return nil, err
	}
	detail.JobRequest = *ref

	thread, err := s.store.GetThreadByBooking(ctx, b.ID)
	if err != nil {
		if CodeOf(err) != CodeNotFound {
			return nil, err
		}
		// A booking without a linked thread is legal for admin-created rows
	} else {
		detail.Thread = thread
	}
	return detail, nil
}
