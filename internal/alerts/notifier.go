package alerts

import (
	"context"

	"github.com/baucrew/baucrew/internal/bookings"
)

// BookingNotifier fans booking workflow events out to the in-app
// notifications table and the async queue. All deliveries are best-effort.
type BookingNotifier struct{}

func (BookingNotifier) OfferAccepted(_ context.Context, res *bookings.AcceptResult) {
	ref := res.BookingID
	meta := "{}"
	_ = CreateNotification(res.ProviderID, "offer:accepted", "Your offer was accepted", res.JobTitle, &ref, &meta)
	_ = EnqueueOfferAccepted(res.BookingID, res.JobTitle, res.CustomerID, res.ProviderID, res.AmountCents)
}
