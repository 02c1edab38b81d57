package bookings

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/baucrew/baucrew/internal/identity"
)

// Notifier fans out best-effort notifications after a successful acceptance.
type Notifier interface {
	OfferAccepted(ctx context.Context, res *AcceptResult)
}

// Handler exposes the booking workflow over HTTP.
type Handler struct {
	svc      *Service
	notifier Notifier
}

func NewHandler(svc *Service, notifier Notifier) *Handler {
	return &Handler{svc: svc, notifier: notifier}
}

// AcceptOffer - customer accepts a provider's offer
// POST /offers/:id/accept
func (h *Handler) AcceptOffer(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	offerID := c.Param("id")
	if offerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing offer id"})
	}

	res, err := h.svc.AcceptOffer(c.Request().Context(), ident, offerID)
	if err != nil {
		return c.JSON(HTTPStatus(err), echo.Map{"error": err.Error()})
	}

	// Notifications are best-effort and happen outside the transaction
	if h.notifier != nil {
		h.notifier.OfferAccepted(c.Request().Context(), res)
	}

	return c.JSON(http.StatusOK, echo.Map{"ok": true, "booking_id": res.BookingID})
}

// ListCustomerBookings - GET /bookings/customer
func (h *Handler) ListCustomerBookings(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := h.svc.ListCustomerBookings(c.Request().Context(), ident)
	if err != nil {
		return c.JSON(HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": rows})
}

// ListProviderBookings - GET /bookings/provider
func (h *Handler) ListProviderBookings(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := h.svc.ListProviderBookings(c.Request().Context(), ident)
	if err != nil {
		return c.JSON(HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": rows})
}

// GetProviderBookingDetail - GET /bookings/provider/:id
func (h *Handler) GetProviderBookingDetail(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing booking id"})
	}

	detail, err := h.svc.GetProviderBookingDetail(c.Request().Context(), ident, bookingID)
	if err != nil {
		return c.JSON(HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, detail)
}
