package bookings

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baucrew/baucrew/internal/identity"
)

var (
	testNow      = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	customer     = identity.Identity{ID: "cust-1", Role: identity.RoleCustomer}
	provider     = identity.Identity{ID: "prov-1", Role: identity.RoleProvider}
	otherProv    = identity.Identity{ID: "prov-2", Role: identity.RoleProvider}
	strangerCust = identity.Identity{ID: "cust-2", Role: identity.RoleCustomer}
)

func newTestService(store *fakeStore) *Service {
	n := 0
	svc := NewService(store)
	svc.now = func() time.Time { return testNow }
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc
}

// seedAcceptScenario sets up one OPEN request owned by cust-1 with a SENT
// offer from each provider and a withdrawn one from prov-2.
func seedAcceptScenario(store *fakeStore) {
	store.requests["req-1"] = &JobRequest{
		ID:           "req-1",
		CustomerID:   customer.ID,
		Title:        "Bathroom retiling",
		Description:  "Replace tiles in 8sqm bathroom",
		Category:     "tiling",
		PhotoURLs:    []string{"https://cdn.example/p1.jpg"},
		AddressLine1: "Hauptstrasse 12",
		AddressLine2: "Apt 3",
		City:         "Berlin",
		PostalCode:   "10115",
		Country:      "DE",
		Status:       RequestOpen,
		CreatedAt:    testNow.Add(-48 * time.Hour),
	}
	store.offers["offer-a"] = &RequestOffer{
		ID:           "offer-a",
		JobRequestID: "req-1",
		ProviderID:   provider.ID,
		ThreadID:     "thread-a",
		AmountCents:  50000,
		Status:       OfferSent,
		CreatedAt:    testNow.Add(-24 * time.Hour),
	}
	store.offers["offer-b"] = &RequestOffer{
		ID:           "offer-b",
		JobRequestID: "req-1",
		ProviderID:   otherProv.ID,
		ThreadID:     "thread-b",
		AmountCents:  62000,
		Status:       OfferSent,
		CreatedAt:    testNow.Add(-20 * time.Hour),
	}
	store.offers["offer-c"] = &RequestOffer{
		ID:           "offer-c",
		JobRequestID: "req-1",
		ProviderID:   otherProv.ID,
		ThreadID:     "thread-c",
		AmountCents:  45000,
		Status:       OfferWithdrawn,
		CreatedAt:    testNow.Add(-30 * time.Hour),
	}
}

func TestAcceptOffer(t *testing.T) {
	store := newFakeStore()
	seedAcceptScenario(store)
	svc := newTestService(store)

	res, err := svc.AcceptOffer(context.Background(), customer, "offer-a")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "Bathroom retiling", res.JobTitle)
	assert.Equal(t, customer.ID, res.CustomerID)
	assert.Equal(t, provider.ID, res.ProviderID)
	assert.Equal(t, int64(50000), res.AmountCents)

	// Accepted offer carries the acceptance time and booking reference
	accepted := store.offers["offer-a"]
	assert.Equal(t, OfferAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)
	assert.Equal(t, testNow, *accepted.AcceptedAt)
	require.NotNil(t, accepted.BookingID)
	assert.Equal(t, res.BookingID, *accepted.BookingID)

	// Sibling SENT offer is rejected, the withdrawn one is left alone
	assert.Equal(t, OfferRejected, store.offers["offer-b"].Status)
	assert.Equal(t, OfferWithdrawn, store.offers["offer-c"].Status)

	// Booking snapshots the request and waits for payment
	booking := store.bookings[res.BookingID]
	require.NotNil(t, booking)
	assert.Equal(t, BookingNeedsPayment, booking.Status)
	assert.Equal(t, TypeBooking, booking.Type)
	assert.Equal(t, PriceTypeQuote, booking.PriceType)
	assert.Equal(t, "EUR", booking.Currency)
	assert.Equal(t, int64(50000), booking.QuotedPriceCents)
	assert.Equal(t, int64(0), booking.PlatformFeeCents)
	assert.Equal(t, "Hauptstrasse 12", booking.AddressLine1)
	assert.Equal(t, "Berlin", booking.City)
	assert.Equal(t, customer.ID, booking.CustomerID)
	assert.Equal(t, provider.ID, booking.ProviderID)

	// Request is assigned, thread linked, payment transaction open
	assert.Equal(t, RequestAssigned, store.requests["req-1"].Status)
	assert.Equal(t, res.BookingID, store.threadLinks["thread-a"])

	require.Len(t, store.payments, 1)
	for _, pt := range store.payments {
		assert.Equal(t, res.BookingID, pt.BookingID)
		assert.Equal(t, PaymentRequiresPayment, pt.Status)
		assert.Equal(t, int64(50000), pt.AmountCents)
		assert.Equal(t, int64(50000), pt.ProviderAmountCents)
		assert.Equal(t, "EUR", pt.Currency)
	}
}

func TestAcceptOfferRollsBackOnFailure(t *testing.T) {
	// A failure at any point in the transaction must leave no trace. Fail on
	// the last write, after every other effect already happened.
	for _, failOn := range []string{
		"MarkOfferAccepted",
		"RejectOpenOffers",
		"CreateBooking",
		"SetOfferBooking",
		"LinkThreadToBooking",
		"SetJobRequestStatus",
		"CreatePaymentTransaction",
	} {
		t.Run(failOn, func(t *testing.T) {
			store := newFakeStore()
			seedAcceptScenario(store)
			store.failOn = failOn
			svc := newTestService(store)

			_, err := svc.AcceptOffer(context.Background(), customer, "offer-a")
			require.Error(t, err)

			assert.Equal(t, OfferSent, store.offers["offer-a"].Status)
			assert.Nil(t, store.offers["offer-a"].AcceptedAt)
			assert.Nil(t, store.offers["offer-a"].BookingID)
			assert.Equal(t, OfferSent, store.offers["offer-b"].Status)
			assert.Equal(t, RequestOpen, store.requests["req-1"].Status)
			assert.Empty(t, store.bookings)
			assert.Empty(t, store.payments)
			assert.Empty(t, store.threadLinks)
		})
	}
}

func TestAcceptOfferLocksRequestBeforeOffers(t *testing.T) {
	store := newFakeStore()
	seedAcceptScenario(store)
	svc := newTestService(store)

	_, err := svc.AcceptOffer(context.Background(), customer, "offer-a")
	require.NoError(t, err)

	reqLock := slices.Index(store.txCalls, "LockJobRequest")
	offerLock := slices.Index(store.txCalls, "LockOffer")
	require.GreaterOrEqual(t, reqLock, 0)
	require.GreaterOrEqual(t, offerLock, 0)
	// The request row is the serialization point. Locking an offer row first
	// would let two acceptances on one request deadlock on each other's
	// sibling offer locks during RejectOpenOffers.
	assert.Less(t, reqLock, offerLock)
	assert.NotContains(t, store.txCalls[:reqLock], "LockOffer")
}

func TestAcceptOfferOwnership(t *testing.T) {
	store := newFakeStore()
	seedAcceptScenario(store)
	svc := newTestService(store)

	_, err := svc.AcceptOffer(context.Background(), strangerCust, "offer-a")
	require.Error(t, err)
	assert.Equal(t, CodeAuthorization, CodeOf(err))

	// Admins pass the role gate but still cannot accept on someone's behalf
	admin := identity.Identity{ID: "admin-1", Role: identity.RoleAdmin}
	_, err = svc.AcceptOffer(context.Background(), admin, "offer-a")
	require.Error(t, err)
	assert.Equal(t, CodeAuthorization, CodeOf(err))

	assert.Equal(t, OfferSent, store.offers["offer-a"].Status)
	assert.Empty(t, store.bookings)
}

func TestAcceptOfferRoleGate(t *testing.T) {
	store := newFakeStore()
	seedAcceptScenario(store)
	svc := newTestService(store)

	_, err := svc.AcceptOffer(context.Background(), provider, "offer-a")
	require.Error(t, err)
	assert.Equal(t, CodeAuthorization, CodeOf(err))
}

func TestAcceptOfferStatusConflicts(t *testing.T) {
	store := newFakeStore()
	seedAcceptScenario(store)
	svc := newTestService(store)

	_, err := svc.AcceptOffer(context.Background(), customer, "offer-a")
	require.NoError(t, err)

	// Accepting the same offer again reports the prior acceptance
	_, err = svc.AcceptOffer(context.Background(), customer, "offer-a")
	require.Error(t, err)
	assert.Equal(t, CodeConflict, CodeOf(err))
	assert.EqualError(t, err, "offer already accepted")

	// The losing sibling was rejected in the same transaction
	_, err = svc.AcceptOffer(context.Background(), customer, "offer-b")
	require.Error(t, err)
	assert.Equal(t, CodeConflict, CodeOf(err))
	assert.EqualError(t, err, "offer no longer available")

	// Only one booking exists after all three attempts
	assert.Len(t, store.bookings, 1)
	assert.Len(t, store.payments, 1)
}

func TestAcceptOfferNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.AcceptOffer(context.Background(), customer, "nope")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestListBookingsRoleGates(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.ListCustomerBookings(context.Background(), provider)
	assert.Equal(t, CodeAuthorization, CodeOf(err))

	_, err = svc.ListProviderBookings(context.Background(), customer)
	assert.Equal(t, CodeAuthorization, CodeOf(err))

	both := identity.Identity{ID: "user-both", Role: identity.RoleBoth}
	_, err = svc.ListCustomerBookings(context.Background(), both)
	assert.NoError(t, err)
	_, err = svc.ListProviderBookings(context.Background(), both)
	assert.NoError(t, err)
}

func TestProviderBookingRowOmitsStreetAddress(t *testing.T) {
	row := ProviderBookingRow{
		ID:               "bk-1",
		Status:           BookingCompleted,
		JobTitle:         "Bathroom retiling",
		City:             "Berlin",
		PostalCode:       "10115",
		QuotedPriceCents: 50000,
		Currency:         "EUR",
		CustomerName:     "Anna Schmidt",
		CreatedAt:        testNow,
	}
	data, err := json.Marshal(row)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	// Even a paid booking's list row never carries street lines
	assert.NotContains(t, fields, "address_line1")
	assert.NotContains(t, fields, "address_line2")
	assert.Contains(t, fields, "city")
	assert.Contains(t, fields, "postal_code")
}

func seedDetailScenario(store *fakeStore, status BookingStatus) {
	store.bookings["bk-1"] = &Booking{
		ID:           "bk-1",
		Type:         TypeBooking,
		Status:       status,
		JobRequestID: "req-1",
		CustomerID:   customer.ID,
		ProviderID:   provider.ID,
		Title:        "Bathroom retiling",
		AddressLine1: "Hauptstrasse 12",
		AddressLine2: "Apt 3",
		City:         "Berlin",
		PostalCode:   "10115",
		Country:      "DE",
		Currency:     "EUR",
		PriceType:    PriceTypeQuote,
	}
	store.requestRefs["req-1"] = &JobRequestRef{ID: "req-1", Category: "tiling"}
	store.threads["bk-1"] = &ThreadView{
		ID: "thread-a",
		Messages: []ThreadMessage{
			{ID: "msg-1", SenderID: provider.ID, SenderName: "Max Bauer", Content: "Can start Monday", CreatedAt: testNow},
		},
	}
}

func TestGetProviderBookingDetailRedaction(t *testing.T) {
	cases := []struct {
		status      BookingStatus
		wantAddress bool
	}{
		{BookingRequested, false},
		{BookingAccepted, false},
		{BookingDeclined, false},
		{BookingNeedsPayment, false},
		{BookingPaid, true},
		{BookingScheduled, true},
		{BookingInProgress, true},
		{BookingCompleted, true},
		{BookingCanceled, true},
		{BookingDisputed, true},
		{BookingRefunded, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			store := newFakeStore()
			seedDetailScenario(store, tc.status)
			svc := newTestService(store)

			detail, err := svc.GetProviderBookingDetail(context.Background(), provider, "bk-1")
			require.NoError(t, err)

			if tc.wantAddress {
				assert.Equal(t, "Hauptstrasse 12", detail.AddressLine1)
				assert.Equal(t, "Apt 3", detail.AddressLine2)
			} else {
				assert.Empty(t, detail.AddressLine1)
				assert.Empty(t, detail.AddressLine2)
			}
			// Coarse location is always visible
			assert.Equal(t, "Berlin", detail.City)
			assert.Equal(t, "10115", detail.PostalCode)

			assert.Equal(t, "tiling", detail.JobRequest.Category)
			require.NotNil(t, detail.Thread)
			assert.Len(t, detail.Thread.Messages, 1)
		})
	}
}

func TestGetProviderBookingDetailRedactionDoesNotPersist(t *testing.T) {
	store := newFakeStore()
	seedDetailScenario(store, BookingNeedsPayment)
	svc := newTestService(store)

	detail, err := svc.GetProviderBookingDetail(context.Background(), provider, "bk-1")
	require.NoError(t, err)
	assert.Empty(t, detail.AddressLine1)

	// The stored booking keeps its address; only the view is masked
	assert.Equal(t, "Hauptstrasse 12", store.bookings["bk-1"].AddressLine1)
}

func TestGetProviderBookingDetailAccess(t *testing.T) {
	store := newFakeStore()
	seedDetailScenario(store, BookingPaid)
	svc := newTestService(store)

	_, err := svc.GetProviderBookingDetail(context.Background(), otherProv, "bk-1")
	require.Error(t, err)
	assert.Equal(t, CodeAuthorization, CodeOf(err))

	_, err = svc.GetProviderBookingDetail(context.Background(), customer, "bk-1")
	require.Error(t, err)
	assert.Equal(t, CodeAuthorization, CodeOf(err))

	_, err = svc.GetProviderBookingDetail(context.Background(), provider, "missing")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestGetProviderBookingDetailWithoutThread(t *testing.T) {
	store := newFakeStore()
	seedDetailScenario(store, BookingPaid)
	delete(store.threads, "bk-1")
	svc := newTestService(store)

	detail, err := svc.GetProviderBookingDetail(context.Background(), provider, "bk-1")
	require.NoError(t, err)
	assert.Nil(t, detail.Thread)
}
