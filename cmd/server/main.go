package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/baucrew/baucrew/internal/admin"
	"github.com/baucrew/baucrew/internal/alerts"
	"github.com/baucrew/baucrew/internal/auth"
	"github.com/baucrew/baucrew/internal/bookings"
	"github.com/baucrew/baucrew/internal/db"
	"github.com/baucrew/baucrew/internal/disputes"
	"github.com/baucrew/baucrew/internal/jobrequests"
	"github.com/baucrew/baucrew/internal/messaging"
	mware "github.com/baucrew/baucrew/internal/middleware"
	"github.com/baucrew/baucrew/internal/payments"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Init subsystems
	db.Init()
	alerts.Init()
	defer alerts.Close()

	bookingSvc := bookings.NewService(bookings.NewPostgresStore(db.Conn))
	bookingHandler := bookings.NewHandler(bookingSvc, alerts.BookingNotifier{})

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "baucrew"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)

	// Job requests and offers
	api.POST("/requests", jobrequests.CreateRequest, mware.RequireRoles("customer", "both", "admin"))
	api.GET("/requests/me", jobrequests.MyRequests, mware.RequireRoles("customer", "both", "admin"))
	api.GET("/requests/open", jobrequests.OpenRequests, mware.RequireRoles("provider", "both", "admin"))
	api.POST("/requests/:id/offers", jobrequests.CreateOffer, mware.RequireRoles("provider", "both", "admin"))
	api.GET("/requests/:id/offers", jobrequests.ListRequestOffers, mware.RequireRoles("customer", "both", "admin"))
	api.POST("/offers/:id/withdraw", jobrequests.WithdrawOffer, mware.RequireRoles("provider", "both", "admin"))

	// Offer acceptance and booking views
	api.POST("/offers/:id/accept", bookingHandler.AcceptOffer, mware.RequireRoles("customer", "both", "admin"))
	api.GET("/bookings/customer", bookingHandler.ListCustomerBookings, mware.RequireRoles("customer", "both", "admin"))
	api.GET("/bookings/provider", bookingHandler.ListProviderBookings, mware.RequireRoles("provider", "both", "admin"))
	api.GET("/bookings/provider/:id", bookingHandler.GetProviderBookingDetail, mware.RequireRoles("provider", "both", "admin"))

	// Booking lifecycle
	api.POST("/bookings/:id/pay", payments.PayBooking, mware.RequireRoles("customer", "both", "admin"))
	api.POST("/bookings/:id/schedule", payments.ScheduleBooking, mware.RequireRoles("provider", "both", "admin"))
	api.POST("/bookings/:id/start", payments.StartBooking, mware.RequireRoles("provider", "both", "admin"))
	api.POST("/bookings/:id/complete", payments.CompleteBooking, mware.RequireRoles("customer", "both", "admin"))
	api.GET("/bookings/:id/transaction", payments.GetTransaction)
	api.POST("/bookings/:id/dispute", disputes.OpenDispute)

	// Messaging
	api.POST("/threads/:id/messages", messaging.SendMessage)
	api.GET("/threads/:id", messaging.GetThread)
	api.GET("/threads/:id/ws", messaging.ThreadWS)

	// Notifications
	api.GET("/notifications", alerts.ListNotifications)
	api.POST("/notifications/:id/read", alerts.MarkNotificationRead)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.JWTMiddleware)
	adminGroup.Use(mware.AdminGuard)
	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/bookings", admin.ListBookings)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users/:id/suspend", admin.SuspendUser)
	adminGroup.POST("/users/:id/activate", admin.ActivateUser)
	adminGroup.GET("/disputes", disputes.ListDisputes)
	adminGroup.POST("/disputes/:id/resolve", disputes.ResolveDispute)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
