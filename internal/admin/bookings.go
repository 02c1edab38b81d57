package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/baucrew/baucrew/internal/db"
)

type AdminBooking struct {
	ID               string    `json:"id"`
	CustomerID       string    `json:"customer_id"`
	ProviderID       string    `json:"provider_id"`
	JobRequestID     string    `json:"job_request_id"`
	Title            string    `json:"title"`
	QuotedPriceCents int64     `json:"quoted_price_cents"`
	Currency         string    `json:"currency"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// GET /admin/bookings
func ListBookings(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, customer_id, provider_id, job_request_id, title, quoted_price_cents, currency, status, created_at, updated_at
         FROM bookings ORDER BY created_at DESC`,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch bookings"})
	}
	defer rows.Close()

	var bookings []AdminBooking
	for rows.Next() {
		var b AdminBooking
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.ProviderID, &b.JobRequestID, &b.Title,
			&b.QuotedPriceCents, &b.Currency, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read booking record"})
		}
		bookings = append(bookings, b)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}
