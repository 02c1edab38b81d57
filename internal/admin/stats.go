package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/baucrew/baucrew/internal/db"
)

// GET /admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var users, requests, offers, bookings, transactions, openDisputes int

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM job_requests`).Scan(&requests)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM request_offers`).Scan(&offers)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&bookings)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM payment_transactions`).Scan(&transactions)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM disputes WHERE status = 'open'`).Scan(&openDisputes)

	return c.JSON(http.StatusOK, echo.Map{
		"users":         users,
		"job_requests":  requests,
		"offers":        offers,
		"bookings":      bookings,
		"transactions":  transactions,
		"open_disputes": openDisputes,
	})
}
