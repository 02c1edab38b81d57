package jobrequests

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

// =========================
// CreateRequest - Customer posts a job request
// =========================
func CreateRequest(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		Category     string   `json:"category"`
		PhotoURLs    []string `json:"photo_urls"`
		AddressLine1 string   `json:"address_line1"`
		AddressLine2 string   `json:"address_line2"`
		City         string   `json:"city"`
		PostalCode   string   `json:"postal_code"`
		Country      string   `json:"country"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if req.Title == "" || req.Description == "" || req.AddressLine1 == "" || req.City == "" || req.PostalCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, description and address are required"})
	}
	if req.Category == "" {
		req.Category = "general"
	}
	if req.Country == "" {
		req.Country = "DE"
	}
	if req.PhotoURLs == nil {
		req.PhotoURLs = []string{}
	}

	var line2 *string
	if req.AddressLine2 != "" {
		line2 = &req.AddressLine2
	}

	requestID := uuid.New().String()
	_, err := db.Conn.Exec(context.Background(), `
        INSERT INTO job_requests (id, customer_id, title, description, category, photo_urls,
                                  address_line1, address_line2, city, postal_code, country, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'OPEN', $12)`,
		requestID, ident.ID, req.Title, req.Description, req.Category, req.PhotoURLs,
		req.AddressLine1, line2, req.City, req.PostalCode, req.Country, time.Now(),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create request"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"request_id": requestID, "status": "OPEN"})
}

// =========================
// MyRequests - Customer lists own requests
// =========================
func MyRequests(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(), `
        SELECT id, title, description, category, photo_urls,
               address_line1, COALESCE(address_line2, ''), city, postal_code, country, status, created_at
        FROM job_requests WHERE customer_id = $1 ORDER BY created_at DESC`, ident.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch requests"})
	}
	defer rows.Close()

	var items []echo.Map
	for rows.Next() {
		var id, title, description, category, line1, line2, city, postalCode, country, status string
		var photos []string
		var createdAt time.Time
		if err := rows.Scan(&id, &title, &description, &category, &photos,
			&line1, &line2, &city, &postalCode, &country, &status, &createdAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		items = append(items, echo.Map{
			"id": id, "title": title, "description": description, "category": category,
			"photo_urls": photos, "address_line1": line1, "address_line2": line2,
			"city": city, "postal_code": postalCode, "country": country,
			"status": status, "created_at": createdAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": items})
}

// =========================
// OpenRequests - Provider browses open requests
// =========================
// Street address is never part of the browse projection; providers see the
// coarse location only until a booking is paid.
func OpenRequests(c echo.Context) error {
	if _, ok := identity.FromContext(c); !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	category := c.QueryParam("category")

	query := `
        SELECT id, title, description, category, photo_urls, city, postal_code, country, created_at
        FROM job_requests WHERE status = 'OPEN'`
	args := []interface{}{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch requests"})
	}
	defer rows.Close()

	var items []echo.Map
	for rows.Next() {
		var id, title, description, cat, city, postalCode, country string
		var photos []string
		var createdAt time.Time
		if err := rows.Scan(&id, &title, &description, &cat, &photos, &city, &postalCode, &country, &createdAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		items = append(items, echo.Map{
			"id": id, "title": title, "description": description, "category": cat,
			"photo_urls": photos, "city": city, "postal_code": postalCode,
			"country": country, "created_at": createdAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": items})
}

// canBid decides whether a provider may bid on a request, with the refusal
// reason for the response body.
func canBid(requestOwner, providerID, status string) (bool, string) {
	if requestOwner == providerID {
		return false, "you cannot bid on your own request"
	}
	if status != "OPEN" {
		return false, "request is no longer open"
	}
	return true, ""
}

// =========================
// CreateOffer - Provider bids on an open request
// =========================
func CreateOffer(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	requestID := c.Param("id")
	if requestID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing request id"})
	}

	var req struct {
		AmountCents int64  `json:"amount_cents"`
		Message     string `json:"message"`
	}
	if err := c.Bind(&req); err != nil || req.AmountCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amount_cents"})
	}

	ctx := context.Background()

	// Checks and inserts share one transaction. The request row lock means an
	// acceptance running at the same time cannot flip the request to ASSIGNED
	// between the OPEN check and the offer insert.
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	var customerID, status string
	err = tx.QueryRow(ctx,
		`SELECT customer_id, status FROM job_requests WHERE id = $1 FOR UPDATE`, requestID,
	).Scan(&customerID, &status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch request"})
	}
	if ok, reason := canBid(customerID, ident.ID, status); !ok {
		return c.JSON(http.StatusConflict, echo.Map{"error": reason})
	}

	// One live offer per provider per request
	var existing int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM request_offers WHERE job_request_id = $1 AND provider_id = $2 AND status = 'SENT'`,
		requestID, ident.ID,
	).Scan(&existing)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check existing offers"})
	}
	if existing > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "you already have an open offer on this request"})
	}

	threadID := uuid.New().String()
	offerID := uuid.New().String()
	now := time.Now()

	_, err = tx.Exec(ctx, `
        INSERT INTO message_threads (id, job_request_id, offer_id, customer_id, provider_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		threadID, requestID, offerID, customerID, ident.ID, now,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create thread"})
	}

	var message *string
	if req.Message != "" {
		message = &req.Message
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO request_offers (id, job_request_id, provider_id, thread_id, amount_cents, message, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, 'SENT', $7)`,
		offerID, requestID, ident.ID, threadID, req.AmountCents, message, now,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create offer"})
	}

	if req.Message != "" {
		_, err = tx.Exec(ctx, `
            INSERT INTO messages (id, thread_id, sender_id, content, created_at)
            VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), threadID, ident.ID, req.Message, now,
		)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record message"})
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	// Notify the customer (best-effort)
	ref := offerID
	meta := "{}"
	_ = alerts.CreateNotification(customerID, "offer:received", "New offer on your request", req.Message, &ref, &meta)
	_ = alerts.EnqueueOfferReceived(requestID, offerID, customerID, ident.ID, req.AmountCents)

	return c.JSON(http.StatusCreated, echo.Map{"offer_id": offerID, "thread_id": threadID, "status": "SENT"})
}

// =========================
// WithdrawOffer - Provider withdraws a SENT offer
// =========================
func WithdrawOffer(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	offerID := c.Param("id")
	if offerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing offer id"})
	}

	res, err := db.Conn.Exec(context.Background(),
		`UPDATE request_offers SET status = 'WITHDRAWN' WHERE id = $1 AND provider_id = $2 AND status = 'SENT'`,
		offerID, ident.ID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to withdraw offer"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "offer not found, not yours, or no longer open"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Offer withdrawn"})
}

// =========================
// ListRequestOffers - Customer lists offers on own request
// =========================
func ListRequestOffers(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	requestID := c.Param("id")
	if requestID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing request id"})
	}

	var customerID string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT customer_id FROM job_requests WHERE id = $1`, requestID,
	).Scan(&customerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch request"})
	}
	if customerID != ident.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your request"})
	}

	rows, err := db.Conn.Query(context.Background(), `
        SELECT o.id, o.provider_id, u.name, COALESCE(u.company, ''), o.thread_id,
               o.amount_cents, COALESCE(o.message, ''), o.status, o.booking_id, o.created_at
        FROM request_offers o
        JOIN users u ON u.id = o.provider_id
        WHERE o.job_request_id = $1
        ORDER BY o.created_at ASC`, requestID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offers"})
	}
	defer rows.Close()

	var items []echo.Map
	for rows.Next() {
		var id, providerID, providerName, providerCompany, threadID, message, status string
		var bookingID *string
		var amountCents int64
		var createdAt time.Time
		if err := rows.Scan(&id, &providerID, &providerName, &providerCompany, &threadID,
			&amountCents, &message, &status, &bookingID, &createdAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		items = append(items, echo.Map{
			"id": id, "provider_id": providerID, "provider_name": providerName,
			"provider_company": providerCompany, "thread_id": threadID,
			"amount_cents": amountCents, "message": message, "status": status,
			"booking_id": bookingID, "created_at": createdAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"offers": items})
}
