package payments

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/baucrew/baucrew/internal/alerts"
	"github.com/baucrew/baucrew/internal/db"
	"github.com/baucrew/baucrew/internal/identity"
)

// =========================
// PayBooking - Customer confirms payment for a booking
// =========================
// The gateway call happens client-side; this endpoint settles the intent
// record and unlocks the address for the provider.
func PayBooking(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing booking id"})
	}

	ctx := context.Background()

	var customerID, providerID, status, title string
	var amount int64
	err := db.Conn.QueryRow(ctx,
		`SELECT customer_id, provider_id, status, title, quoted_price_cents FROM bookings WHERE id = $1`,
		bookingID,
	).Scan(&customerID, &providerID, &status, &title, &amount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	if customerID != ident.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
	}
	if status != "NEEDS_PAYMENT" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not awaiting payment"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE bookings SET status = 'PAID', updated_at = NOW() WHERE id = $1 AND status = 'NEEDS_PAYMENT'`,
		bookingID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update booking"})
	}

	_, err = tx.Exec(ctx,
		`UPDATE payment_transactions SET status = 'SUCCEEDED', updated_at = NOW()
         WHERE booking_id = $1 AND status = 'REQUIRES_PAYMENT'`,
		bookingID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to settle payment"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	// Notify provider (best-effort)
	ref := bookingID
	meta := "{}"
	_ = alerts.CreateNotification(providerID, "payment:received", "Booking paid", title, &ref, &meta)
	_ = alerts.EnqueuePaymentReceived(bookingID, customerID, providerID, amount)

	return c.JSON(http.StatusOK, echo.Map{"message": "Payment confirmed", "status": "PAID"})
}

// =========================
// ScheduleBooking - Provider sets the work date
// =========================
func ScheduleBooking(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing booking id"})
	}

	var req struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if err := c.Bind(&req); err != nil || req.ScheduledAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid scheduled_at"})
	}

	res, err := db.Conn.Exec(context.Background(),
		`UPDATE bookings SET status = 'SCHEDULED', scheduled_at = $1, updated_at = NOW()
         WHERE id = $2 AND provider_id = $3 AND status = 'PAID'`,
		req.ScheduledAt, bookingID, ident.ID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to schedule booking"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking not found, not yours, or not paid"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Booking scheduled"})
}

// =========================
// StartBooking - Provider starts the work
// =========================
func StartBooking(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing booking id"})
	}

	res, err := db.Conn.Exec(context.Background(),
		`UPDATE bookings SET status = 'IN_PROGRESS', updated_at = NOW()
         WHERE id = $1 AND provider_id = $2 AND status = 'SCHEDULED'`,
		bookingID, ident.ID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update booking"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking not found, not yours, or not scheduled"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Work started"})
}

// providerPayout is the amount released to the provider when a booking
// completes. The fee never pushes the payout below zero.
func providerPayout(amountCents, feeCents int64) int64 {
	if feeCents >= amountCents {
		return 0
	}
	return amountCents - feeCents
}

// =========================
// CompleteBooking - Customer confirms the work is done
// =========================
func CompleteBooking(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing booking id"})
	}

	ctx := context.Background()

	var providerID string
	var amount, fee int64
	err := db.Conn.QueryRow(ctx,
		`SELECT provider_id, quoted_price_cents, platform_fee_cents FROM bookings
         WHERE id = $1 AND customer_id = $2 AND status = 'IN_PROGRESS'`,
		bookingID, ident.ID,
	).Scan(&providerID, &amount, &fee)
	if err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking not found or not in progress"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	payout := providerPayout(amount, fee)
	_, err = tx.Exec(ctx,
		`UPDATE bookings SET status = 'COMPLETED', provider_payout_cents = $1, updated_at = NOW() WHERE id = $2`,
		payout, bookingID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to complete booking"})
	}

	// The payout lands on the payment transaction in the same transaction as
	// the status flip, so the two records never disagree
	_, err = tx.Exec(ctx,
		`UPDATE payment_transactions SET provider_amount_cents = $1, updated_at = NOW()
         WHERE booking_id = $2 AND status = 'SUCCEEDED'`,
		payout, bookingID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record payout"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	// Notify provider of completion/payout (best-effort)
	ref := bookingID
	meta := "{}"
	_ = alerts.CreateNotification(providerID, "booking:completed", "Booking completed", "", &ref, &meta)

	return c.JSON(http.StatusOK, echo.Map{"message": "Booking completed"})
}

// =========================
// GetTransaction - Participant views the payment transaction
// =========================
func GetTransaction(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing booking id"})
	}

	var customerID, providerID string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT customer_id, provider_id FROM bookings WHERE id = $1`, bookingID,
	).Scan(&customerID, &providerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	if ident.ID != customerID && ident.ID != providerID && ident.Role != identity.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this booking"})
	}

	var id, currency, status string
	var amount, fee, providerAmount int64
	var createdAt, updatedAt time.Time
	err = db.Conn.QueryRow(context.Background(), `
        SELECT id, amount_cents, platform_fee_cents, provider_amount_cents, currency, status, created_at, updated_at
        FROM payment_transactions WHERE booking_id = $1`, bookingID,
	).Scan(&id, &amount, &fee, &providerAmount, &currency, &status, &createdAt, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch transaction"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":                    id,
		"booking_id":            bookingID,
		"amount_cents":          amount,
		"platform_fee_cents":    fee,
		"provider_amount_cents": providerAmount,
		"currency":              currency,
		"status":                status,
		"created_at":            createdAt,
		"updated_at":            updatedAt,
	})
}
