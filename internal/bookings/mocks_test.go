package bookings

import (
	"context"
	"errors"
	"time"
)

// fakeStore is an in-memory Store. WithTx snapshots all state before running
// fn and restores the snapshot when fn fails, mirroring transaction rollback.
// Setting failOn to a Tx method name makes that method return an error, which
// lets tests verify that a mid-transaction failure leaves nothing behind.
type fakeStore struct {
	offers   map[string]*RequestOffer
	requests map[string]*JobRequest
	bookings map[string]*Booking
	payments map[string]*PaymentTransaction
	// threadID -> bookingID, written by LinkThreadToBooking
	threadLinks map[string]string
	// bookingID -> thread, served by GetThreadByBooking
	threads map[string]*ThreadView

	customerRows []CustomerBookingRow
	providerRows []ProviderBookingRow
	requestRefs  map[string]*JobRequestRef

	failOn string
	// Tx method names in invocation order, kept across rollback
	txCalls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		offers:      map[string]*RequestOffer{},
		requests:    map[string]*JobRequest{},
		bookings:    map[string]*Booking{},
		payments:    map[string]*PaymentTransaction{},
		threadLinks: map[string]string{},
		threads:     map[string]*ThreadView{},
		requestRefs: map[string]*JobRequestRef{},
	}
}

func copyOffer(o *RequestOffer) *RequestOffer {
	c := *o
	if o.AcceptedAt != nil {
		t := *o.AcceptedAt
		c.AcceptedAt = &t
	}
	if o.BookingID != nil {
		id := *o.BookingID
		c.BookingID = &id
	}
	return &c
}

func copyRequest(jr *JobRequest) *JobRequest {
	c := *jr
	c.PhotoURLs = append([]string(nil), jr.PhotoURLs...)
	return &c
}

func copyBooking(b *Booking) *Booking {
	c := *b
	c.PhotoURLs = append([]string(nil), b.PhotoURLs...)
	if b.ScheduledAt != nil {
		t := *b.ScheduledAt
		c.ScheduledAt = &t
	}
	return &c
}

type storeSnapshot struct {
	offers      map[string]*RequestOffer
	requests    map[string]*JobRequest
	bookings    map[string]*Booking
	payments    map[string]*PaymentTransaction
	threadLinks map[string]string
}

func (s *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		offers:      map[string]*RequestOffer{},
		requests:    map[string]*JobRequest{},
		bookings:    map[string]*Booking{},
		payments:    map[string]*PaymentTransaction{},
		threadLinks: map[string]string{},
	}
	for id, o := range s.offers {
		snap.offers[id] = copyOffer(o)
	}
	for id, jr := range s.requests {
		snap.requests[id] = copyRequest(jr)
	}
	for id, b := range s.bookings {
		snap.bookings[id] = copyBooking(b)
	}
	for id, pt := range s.payments {
		c := *pt
		snap.payments[id] = &c
	}
	for tid, bid := range s.threadLinks {
		snap.threadLinks[tid] = bid
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.offers = snap.offers
	s.requests = snap.requests
	s.bookings = snap.bookings
	s.payments = snap.payments
	s.threadLinks = snap.threadLinks
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	snap := s.snapshot()
	if err := fn(&fakeTx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *fakeStore) GetBooking(ctx context.Context, id string) (*Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, NewError(CodeNotFound, "booking not found")
	}
	return copyBooking(b), nil
}

func (s *fakeStore) ListCustomerBookings(ctx context.Context, customerID string) ([]CustomerBookingRow, error) {
	return s.customerRows, nil
}

func (s *fakeStore) ListProviderBookings(ctx context.Context, providerID string) ([]ProviderBookingRow, error) {
	return s.providerRows, nil
}

func (s *fakeStore) GetJobRequestRef(ctx context.Context, id string) (*JobRequestRef, error) {
	ref, ok := s.requestRefs[id]
	if !ok {
		return nil, NewError(CodeNotFound, "job request not found")
	}
	c := *ref
	return &c, nil
}

func (s *fakeStore) GetThreadByBooking(ctx context.Context, bookingID string) (*ThreadView, error) {
	t, ok := s.threads[bookingID]
	if !ok {
		return nil, NewError(CodeNotFound, "thread not found")
	}
	return t, nil
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) fail(method string) error {
	t.store.txCalls = append(t.store.txCalls, method)
	if t.store.failOn == method {
		return errors.New("injected failure in " + method)
	}
	return nil
}

func (t *fakeTx) FindOfferRequest(ctx context.Context, offerID string) (string, error) {
	if err := t.fail("FindOfferRequest"); err != nil {
		return "", err
	}
	o, ok := t.store.offers[offerID]
	if !ok {
		return "", NewError(CodeNotFound, "offer not found")
	}
	return o.JobRequestID, nil
}

func (t *fakeTx) LockJobRequest(ctx context.Context, id string) (*JobRequest, error) {
	if err := t.fail("LockJobRequest"); err != nil {
		return nil, err
	}
	jr, ok := t.store.requests[id]
	if !ok {
		return nil, NewError(CodeNotFound, "job request not found")
	}
	return copyRequest(jr), nil
}

func (t *fakeTx) LockOffer(ctx context.Context, offerID string) (*RequestOffer, error) {
	if err := t.fail("LockOffer"); err != nil {
		return nil, err
	}
	o, ok := t.store.offers[offerID]
	if !ok {
		return nil, NewError(CodeNotFound, "offer not found")
	}
	return copyOffer(o), nil
}

func (t *fakeTx) MarkOfferAccepted(ctx context.Context, offerID string, acceptedAt time.Time) error {
	if err := t.fail("MarkOfferAccepted"); err != nil {
		return err
	}
	o := t.store.offers[offerID]
	o.Status = OfferAccepted
	o.AcceptedAt = &acceptedAt
	return nil
}

func (t *fakeTx) RejectOpenOffers(ctx context.Context, jobRequestID, exceptOfferID string) error {
	if err := t.fail("RejectOpenOffers"); err != nil {
		return err
	}
	for _, o := range t.store.offers {
		if o.JobRequestID == jobRequestID && o.ID != exceptOfferID && o.Status == OfferSent {
			o.Status = OfferRejected
		}
	}
	return nil
}

func (t *fakeTx) CreateBooking(ctx context.Context, b *Booking) error {
	if err := t.fail("CreateBooking"); err != nil {
		return err
	}
	t.store.bookings[b.ID] = copyBooking(b)
	return nil
}

func (t *fakeTx) SetOfferBooking(ctx context.Context, offerID, bookingID string) error {
	if err := t.fail("SetOfferBooking"); err != nil {
		return err
	}
	id := bookingID
	t.store.offers[offerID].BookingID = &id
	return nil
}

func (t *fakeTx) LinkThreadToBooking(ctx context.Context, threadID, bookingID string) error {
	if err := t.fail("LinkThreadToBooking"); err != nil {
		return err
	}
	t.store.threadLinks[threadID] = bookingID
	return nil
}

func (t *fakeTx) SetJobRequestStatus(ctx context.Context, id string, status JobRequestStatus) error {
	if err := t.fail("SetJobRequestStatus"); err != nil {
		return err
	}
	t.store.requests[id].Status = status
	return nil
}

func (t *fakeTx) CreatePaymentTransaction(ctx context.Context, pt *PaymentTransaction) error {
	if err := t.fail("CreatePaymentTransaction"); err != nil {
		return err
	}
	c := *pt
	t.store.payments[pt.ID] = &c
	return nil
}
