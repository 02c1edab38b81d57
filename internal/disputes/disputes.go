package disputes

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/baucrew/baucrew/internal/alerts"
	"github.com/baucrew/baucrew/internal/db"
	"github.com/baucrew/baucrew/internal/identity"
)

// Statuses a booking can be disputed from. Before payment there is nothing
// to dispute; after a refund the dispute already ran its course.
var disputableStatuses = map[string]bool{
	"PAID":        true,
	"SCHEDULED":   true,
	"IN_PROGRESS": true,
	"COMPLETED":   true,
}

// OpenDispute allows a customer or provider to open a dispute on a booking
// POST /bookings/:id/dispute
func OpenDispute(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing booking id"})
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil || req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload: reason required"})
	}

	ctx := context.Background()

	// Verify participation
	var customerID, providerID, status string
	if err := db.Conn.QueryRow(ctx,
		`SELECT customer_id, provider_id, status FROM bookings WHERE id = $1`, bookingID,
	).Scan(&customerID, &providerID, &status); err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	if ident.ID != customerID && ident.ID != providerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this booking"})
	}
	if !disputableStatuses[status] {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking cannot be disputed at this stage"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	disputeID := uuid.New().String()
	var createdAt time.Time
	if err := tx.QueryRow(ctx,
		`INSERT INTO disputes (id, booking_id, filer_id, reason) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		disputeID, bookingID, ident.ID, req.Reason,
	).Scan(&createdAt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not open dispute"})
	}

	if _, err := tx.Exec(ctx,
		`UPDATE bookings SET status = 'DISPUTED', updated_at = NOW() WHERE id = $1`, bookingID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update booking"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	// Notify other participant and admins (best-effort)
	other := customerID
	if ident.ID == customerID {
		other = providerID
	}
	ref := disputeID
	meta := "{}"
	_ = alerts.CreateNotification(other, "dispute:opened", "Dispute opened on your booking", req.Reason, &ref, &meta)
	_ = alerts.EnqueueDisputeOpened(disputeID, bookingID, ident.ID, req.Reason)

	return c.JSON(http.StatusCreated, echo.Map{"dispute_id": disputeID, "created_at": createdAt.UTC().Format(time.RFC3339)})
}

// ListDisputes - admin lists disputes, optionally filtered by status
// GET /admin/disputes
func ListDisputes(c echo.Context) error {
	status := c.QueryParam("status")

	query := `
        SELECT id, booking_id, filer_id, reason, status,
               COALESCE(resolution, ''), COALESCE(notes, ''), created_at, resolved_at
        FROM disputes`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch disputes"})
	}
	defer rows.Close()

	var items []echo.Map
	for rows.Next() {
		var id, bookingID, filerID, reason, dstatus, resolution, notes string
		var createdAt time.Time
		var resolvedAt *time.Time
		if err := rows.Scan(&id, &bookingID, &filerID, &reason, &dstatus, &resolution, &notes, &createdAt, &resolvedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse dispute"})
		}
		items = append(items, echo.Map{
			"id": id, "booking_id": bookingID, "filer_id": filerID, "reason": reason,
			"status": dstatus, "resolution": resolution, "notes": notes,
			"created_at": createdAt, "resolved_at": resolvedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"disputes": items})
}

// ResolveDispute - admin resolves a dispute
// POST /admin/disputes/:id/resolve
// resolution "refund" refunds the customer; "release" completes the booking
// in the provider's favor.
func ResolveDispute(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	disputeID := c.Param("id")
	if disputeID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing dispute id"})
	}

	var req struct {
		Resolution string `json:"resolution"`
		Notes      string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil || (req.Resolution != "refund" && req.Resolution != "release") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resolution must be 'refund' or 'release'"})
	}

	ctx := context.Background()

	var bookingID, dstatus string
	err := db.Conn.QueryRow(ctx,
		`SELECT booking_id, status FROM disputes WHERE id = $1`, disputeID,
	).Scan(&bookingID, &dstatus)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "dispute not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch dispute"})
	}
	if dstatus != "open" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "dispute already resolved"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	if req.Resolution == "refund" {
		if _, err := tx.Exec(ctx,
			`UPDATE bookings SET status = 'REFUNDED', updated_at = NOW() WHERE id = $1 AND status = 'DISPUTED'`,
			bookingID,
		); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to refund booking"})
		}
		if _, err := tx.Exec(ctx,
			`UPDATE payment_transactions SET status = 'REFUNDED', updated_at = NOW() WHERE booking_id = $1`,
			bookingID,
		); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to refund payment"})
		}
	} else {
		if _, err := tx.Exec(ctx,
			`UPDATE bookings SET status = 'COMPLETED', provider_payout_cents = quoted_price_cents - platform_fee_cents, updated_at = NOW()
             WHERE id = $1 AND status = 'DISPUTED'`,
			bookingID,
		); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release booking"})
		}
	}

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}
	if _, err := tx.Exec(ctx,
		`UPDATE disputes SET status = 'resolved', resolution = $1, notes = $2, resolved_by = $3, resolved_at = NOW() WHERE id = $4`,
		req.Resolution, notes, ident.ID, disputeID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update dispute"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Dispute resolved", "resolution": req.Resolution})
}
