package bookings

import (
	"context"
	"time"
)

// Store is the persistence boundary for the booking workflow. WithTx runs fn
// inside a single database transaction: if fn returns an error every write it
// made is rolled back.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetBooking(ctx context.Context, id string) (*Booking, error)
	ListCustomerBookings(ctx context.Context, customerID string) ([]CustomerBookingRow, error)
	ListProviderBookings(ctx context.Context, providerID string) ([]ProviderBookingRow, error)
	GetJobRequestRef(ctx context.Context, id string) (*JobRequestRef, error)
	GetThreadByBooking(ctx context.Context, bookingID string) (*ThreadView, error)
}

// Tx exposes the writes the acceptance workflow performs inside one
// transaction. Row locks are taken parent-first: FindOfferRequest reads the
// offer's request id without locking, LockJobRequest locks the job_requests
// row, and only then LockOffer locks the offer row. Every acceptance on the
// same request therefore queues at the request row before holding any offer
// lock, so two concurrent acceptances of different offers cannot deadlock on
// each other's offer rows. The loser observes the winner's status change
// after the winner commits.
type Tx interface {
	FindOfferRequest(ctx context.Context, offerID string) (string, error)
	LockJobRequest(ctx context.Context, id string) (*JobRequest, error)
	LockOffer(ctx context.Context, offerID string) (*RequestOffer, error)
	MarkOfferAccepted(ctx context.Context, offerID string, acceptedAt time.Time) error
	RejectOpenOffers(ctx context.Context, jobRequestID, exceptOfferID string) error
	CreateBooking(ctx context.Context, b *Booking) error
	SetOfferBooking(ctx context.Context, offerID, bookingID string) error
	LinkThreadToBooking(ctx context.Context, threadID, bookingID string) error
	SetJobRequestStatus(ctx context.Context, id string, status JobRequestStatus) error
	CreatePaymentTransaction(ctx context.Context, pt *PaymentTransaction) error
}
