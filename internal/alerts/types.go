package alerts

import "time"

// Task type constants
const (
	TaskOfferReceived   = "notify:offer_received"
	TaskOfferAccepted   = "notify:offer_accepted"
	TaskPaymentReceived = "notify:payment_received"
	TaskDisputeOpened   = "notify:dispute_opened"
	TaskAdminAlert      = "notify:admin_alert"
)

// Offer received payload (sent to the customer)
type OfferReceivedPayload struct {
	JobRequestID string    `json:"job_request_id"`
	OfferID      string    `json:"offer_id"`
	CustomerID   string    `json:"customer_id"`
	ProviderID   string    `json:"provider_id"`
	AmountCents  int64     `json:"amount_cents"`
	SentAt       time.Time `json:"sent_at"`
}

// Offer accepted payload (sent to the provider)
type OfferAcceptedPayload struct {
	BookingID   string    `json:"booking_id"`
	JobTitle    string    `json:"job_title"`
	CustomerID  string    `json:"customer_id"`
	ProviderID  string    `json:"provider_id"`
	AmountCents int64     `json:"amount_cents"`
	SentAt      time.Time `json:"sent_at"`
}

// Payment received payload (sent to the provider)
type PaymentReceivedPayload struct {
	BookingID   string    `json:"booking_id"`
	CustomerID  string    `json:"customer_id"`
	ProviderID  string    `json:"provider_id"`
	AmountCents int64     `json:"amount_cents"`
	SentAt      time.Time `json:"sent_at"`
}

// Dispute opened payload (sent to admins)
type DisputeOpenedPayload struct {
	DisputeID string    `json:"dispute_id"`
	BookingID string    `json:"booking_id"`
	FilerID   string    `json:"filer_id"`
	Reason    string    `json:"reason"`
	SentAt    time.Time `json:"sent_at"`
}

// Admin alert payload
type AdminAlertPayload struct {
	Severity string    `json:"severity"` // info|warning|critical
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}
