package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	DB *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// textOrEmpty normalizes a nullable text column: a NULL address_line2 reads
// back as "" everywhere above this layer.
func textOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *PostgresStore) GetBooking(ctx context.Context, id string) (*Booking, error) {
	var b Booking
	var line2 *string
	err := s.DB.QueryRow(ctx, `
        SELECT id, type, status, job_request_id, customer_id, provider_id,
               title, description, photo_urls,
               address_line1, address_line2, city, postal_code, country,
               currency, price_type, quoted_price_cents, platform_fee_cents,
               provider_payout_cents, scheduled_at, created_at, updated_at
        FROM bookings WHERE id = $1`, id,
	).Scan(
		&b.ID, &b.Type, &b.Status, &b.JobRequestID, &b.CustomerID, &b.ProviderID,
		&b.Title, &b.Description, &b.PhotoURLs,
		&b.AddressLine1, &line2, &b.City, &b.PostalCode, &b.Country,
		&b.Currency, &b.PriceType, &b.QuotedPriceCents, &b.PlatformFeeCents,
		&b.ProviderPayoutCents, &b.ScheduledAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewError(CodeNotFound, "booking not found")
		}
		return nil, err
	}
	b.AddressLine2 = textOrEmpty(line2)
	return &b, nil
}

func (s *PostgresStore) ListCustomerBookings(ctx context.Context, customerID string) ([]CustomerBookingRow, error) {
	rows, err := s.DB.Query(ctx, `
        SELECT b.id, b.status, b.title, b.city, b.postal_code,
               b.quoted_price_cents, b.currency, u.name, COALESCE(u.company, ''), b.created_at
        FROM bookings b
        JOIN users u ON u.id = b.provider_id
        WHERE b.customer_id = $1
        ORDER BY b.created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CustomerBookingRow
	for rows.Next() {
		var r CustomerBookingRow
		if err := rows.Scan(&r.ID, &r.Status, &r.JobTitle, &r.City, &r.PostalCode,
			&r.QuotedPriceCents, &r.Currency, &r.ProviderName, &r.ProviderCompany, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListProviderBookings(ctx context.Context, providerID string) ([]ProviderBookingRow, error) {
	// Street address columns are deliberately not selected here
	rows, err := s.DB.Query(ctx, `
        SELECT b.id, b.status, b.title, b.city, b.postal_code,
               b.quoted_price_cents, b.currency, u.name, b.created_at
        FROM bookings b
        JOIN users u ON u.id = b.customer_id
        WHERE b.provider_id = $1
        ORDER BY b.created_at DESC`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProviderBookingRow
	for rows.Next() {
		var r ProviderBookingRow
		if err := rows.Scan(&r.ID, &r.Status, &r.JobTitle, &r.City, &r.PostalCode,
			&r.QuotedPriceCents, &r.Currency, &r.CustomerName, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetJobRequestRef(ctx context.Context, id string) (*JobRequestRef, error) {
	var ref JobRequestRef
	err := s.DB.QueryRow(ctx, `SELECT id, category FROM job_requests WHERE id = $1`, id).
		Scan(&ref.ID, &ref.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewError(CodeNotFound, "job request not found")
		}
		return nil, err
	}
	return &ref, nil
}

func (s *PostgresStore) GetThreadByBooking(ctx context.Context, bookingID string) (*ThreadView, error) {
	var threadID string
	err := s.DB.QueryRow(ctx, `SELECT id FROM message_threads WHERE booking_id = $1`, bookingID).
		Scan(&threadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewError(CodeNotFound, "thread not found")
		}
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
        SELECT m.id, m.sender_id, u.name, m.content, m.created_at
        FROM messages m
        JOIN users u ON u.id = m.sender_id
        WHERE m.thread_id = $1
        ORDER BY m.created_at ASC`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	view := &ThreadView{ID: threadID}
	for rows.Next() {
		var m ThreadMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		view.Messages = append(view.Messages, m)
	}
	return view, rows.Err()
}

// pgTx implements Tx on an open pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

// FindOfferRequest resolves the offer's parent request id without taking any
// lock. job_request_id is immutable, so reading it before the request row
// lock is safe.
func (t *pgTx) FindOfferRequest(ctx context.Context, offerID string) (string, error) {
	var requestID string
	err := t.tx.QueryRow(ctx,
		`SELECT job_request_id FROM request_offers WHERE id = $1`, offerID,
	).Scan(&requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", NewError(CodeNotFound, "offer not found")
		}
		return "", err
	}
	return requestID, nil
}

// LockJobRequest takes the request row lock. Acceptances lock this row before
// any offer row, so concurrent callers on one request queue here instead of
// deadlocking on each other's offer locks.
func (t *pgTx) LockJobRequest(ctx context.Context, id string) (*JobRequest, error) {
	var jr JobRequest
	var line2 *string
	err := t.tx.QueryRow(ctx, `
        SELECT id, customer_id, title, description, category, photo_urls,
               address_line1, address_line2, city, postal_code, country,
               status, created_at
        FROM job_requests WHERE id = $1
        FOR UPDATE`, id,
	).Scan(&jr.ID, &jr.CustomerID, &jr.Title, &jr.Description, &jr.Category, &jr.PhotoURLs,
		&jr.AddressLine1, &line2, &jr.City, &jr.PostalCode, &jr.Country,
		&jr.Status, &jr.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewError(CodeNotFound, "job request not found")
		}
		return nil, err
	}
	jr.AddressLine2 = textOrEmpty(line2)
	return &jr, nil
}

func (t *pgTx) LockOffer(ctx context.Context, offerID string) (*RequestOffer, error) {
	var o RequestOffer
	var message *string
	err := t.tx.QueryRow(ctx, `
        SELECT id, job_request_id, provider_id, thread_id, amount_cents, message,
               status, accepted_at, booking_id, created_at
        FROM request_offers WHERE id = $1
        FOR UPDATE`, offerID,
	).Scan(&o.ID, &o.JobRequestID, &o.ProviderID, &o.ThreadID, &o.AmountCents, &message,
		&o.Status, &o.AcceptedAt, &o.BookingID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewError(CodeNotFound, "offer not found")
		}
		return nil, err
	}
	o.Message = textOrEmpty(message)
	return &o, nil
}

func (t *pgTx) MarkOfferAccepted(ctx context.Context, offerID string, acceptedAt time.Time) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE request_offers SET status = $1, accepted_at = $2 WHERE id = $3`,
		OfferAccepted, acceptedAt, offerID)
	return err
}

func (t *pgTx) RejectOpenOffers(ctx context.Context, jobRequestID, exceptOfferID string) error {
	// Only SENT siblings flip to REJECTED; withdrawn offers stay as they are
	_, err := t.tx.Exec(ctx,
		`UPDATE request_offers SET status = $1
         WHERE job_request_id = $2 AND id <> $3 AND status = $4`,
		OfferRejected, jobRequestID, exceptOfferID, OfferSent)
	return err
}

func (t *pgTx) CreateBooking(ctx context.Context, b *Booking) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO bookings (
            id, type, status, job_request_id, customer_id, provider_id,
            title, description, photo_urls,
            address_line1, address_line2, city, postal_code, country,
            currency, price_type, quoted_price_cents, platform_fee_cents,
            provider_payout_cents, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		b.ID, b.Type, b.Status, b.JobRequestID, b.CustomerID, b.ProviderID,
		b.Title, b.Description, b.PhotoURLs,
		b.AddressLine1, b.AddressLine2, b.City, b.PostalCode, b.Country,
		b.Currency, b.PriceType, b.QuotedPriceCents, b.PlatformFeeCents,
		b.ProviderPayoutCents, b.CreatedAt, b.UpdatedAt)
	return err
}

func (t *pgTx) SetOfferBooking(ctx context.Context, offerID, bookingID string) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE request_offers SET booking_id = $1 WHERE id = $2`, bookingID, offerID)
	return err
}

func (t *pgTx) LinkThreadToBooking(ctx context.Context, threadID, bookingID string) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE message_threads SET booking_id = $1 WHERE id = $2`, bookingID, threadID)
	return err
}

func (t *pgTx) SetJobRequestStatus(ctx context.Context, id string, status JobRequestStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE job_requests SET status = $1 WHERE id = $2`, status, id)
	return err
}

func (t *pgTx) CreatePaymentTransaction(ctx context.Context, pt *PaymentTransaction) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO payment_transactions (
            id, booking_id, amount_cents, platform_fee_cents, provider_amount_cents,
            currency, status, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		pt.ID, pt.BookingID, pt.AmountCents, pt.PlatformFeeCents, pt.ProviderAmountCents,
		pt.Currency, pt.Status, pt.CreatedAt, pt.UpdatedAt)
	return err
}
