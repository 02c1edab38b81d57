package bookings

import "time"

type (
	BookingStatus    string
	OfferStatus      string
	JobRequestStatus string
	PaymentStatus    string
)

const (
	BookingRequested    BookingStatus = "REQUESTED"
	BookingAccepted     BookingStatus = "ACCEPTED"
	BookingDeclined     BookingStatus = "DECLINED"
	BookingNeedsPayment BookingStatus = "NEEDS_PAYMENT"
	BookingPaid         BookingStatus = "PAID"
	BookingScheduled    BookingStatus = "SCHEDULED"
	BookingInProgress   BookingStatus = "IN_PROGRESS"
	BookingCompleted    BookingStatus = "COMPLETED"
	BookingCanceled     BookingStatus = "CANCELED"
	BookingDisputed     BookingStatus = "DISPUTED"
	BookingRefunded     BookingStatus = "REFUNDED"

	OfferSent      OfferStatus = "SENT"
	OfferAccepted  OfferStatus = "ACCEPTED"
	OfferRejected  OfferStatus = "REJECTED"
	OfferWithdrawn OfferStatus = "WITHDRAWN"

	RequestOpen     JobRequestStatus = "OPEN"
	RequestAssigned JobRequestStatus = "ASSIGNED"
	RequestClosed   JobRequestStatus = "CLOSED"

	PaymentRequiresPayment PaymentStatus = "REQUIRES_PAYMENT"
	PaymentProcessing      PaymentStatus = "PROCESSING"
	PaymentSucceeded       PaymentStatus = "SUCCEEDED"
	PaymentFailed          PaymentStatus = "FAILED"
	PaymentRefunded        PaymentStatus = "REFUNDED"
)

// BookingType and PriceType carry a single value today; kept as columns so
// instant-book and hourly pricing can land without a schema change.
const (
	TypeBooking    = "BOOKING"
	PriceTypeQuote = "QUOTE"
)

// JobRequest is a customer's posted work request.
type JobRequest struct {
	ID           string           `json:"id"`
	CustomerID   string           `json:"customer_id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Category     string           `json:"category"`
	PhotoURLs    []string         `json:"photo_urls"`
	AddressLine1 string           `json:"address_line1"`
	AddressLine2 string           `json:"address_line2"`
	City         string           `json:"city"`
	PostalCode   string           `json:"postal_code"`
	Country      string           `json:"country"`
	Status       JobRequestStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
}

// RequestOffer is a provider's bid against a job request.
type RequestOffer struct {
	ID           string      `json:"id"`
	JobRequestID string      `json:"job_request_id"`
	ProviderID   string      `json:"provider_id"`
	ThreadID     string      `json:"thread_id"`
	AmountCents  int64       `json:"amount_cents"`
	Message      string      `json:"message,omitempty"`
	Status       OfferStatus `json:"status"`
	AcceptedAt   *time.Time  `json:"accepted_at,omitempty"`
	BookingID    *string     `json:"booking_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Booking is the contractual record created when an offer is accepted. Job
// fields are snapshot-copied from the request at acceptance time, so later
// edits to the request never change an existing booking.
type Booking struct {
	ID                  string        `json:"id"`
	Type                string        `json:"type"`
	Status              BookingStatus `json:"status"`
	JobRequestID        string        `json:"job_request_id"`
	CustomerID          string        `json:"customer_id"`
	ProviderID          string        `json:"provider_id"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	PhotoURLs           []string      `json:"photo_urls"`
	AddressLine1        string        `json:"address_line1"`
	AddressLine2        string        `json:"address_line2"`
	City                string        `json:"city"`
	PostalCode          string        `json:"postal_code"`
	Country             string        `json:"country"`
	Currency            string        `json:"currency"`
	PriceType           string        `json:"price_type"`
	QuotedPriceCents    int64         `json:"quoted_price_cents"`
	PlatformFeeCents    int64         `json:"platform_fee_cents"`
	ProviderPayoutCents int64         `json:"provider_payout_cents"`
	ScheduledAt         *time.Time    `json:"scheduled_at,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// PaymentTransaction is the payment-intent record tied 1:1 to a booking.
type PaymentTransaction struct {
	ID                  string        `json:"id"`
	BookingID           string        `json:"booking_id"`
	AmountCents         int64         `json:"amount_cents"`
	PlatformFeeCents    int64         `json:"platform_fee_cents"`
	ProviderAmountCents int64         `json:"provider_amount_cents"`
	Currency            string        `json:"currency"`
	Status              PaymentStatus `json:"status"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// CustomerBookingRow is the narrow projection for the customer's booking list.
type CustomerBookingRow struct {
	ID               string        `json:"id"`
	Status           BookingStatus `json:"status"`
	JobTitle         string        `json:"job_title"`
	City             string        `json:"city"`
	PostalCode       string        `json:"postal_code"`
	QuotedPriceCents int64         `json:"quoted_price_cents"`
	Currency         string        `json:"currency"`
	ProviderName     string        `json:"provider_name"`
	ProviderCompany  string        `json:"provider_company,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// ProviderBookingRow is the provider's list projection. Street address fields
// are absent from the struct on purpose: the list never carries them, no
// matter the booking status.
type ProviderBookingRow struct {
	ID               string        `json:"id"`
	Status           BookingStatus `json:"status"`
	JobTitle         string        `json:"job_title"`
	City             string        `json:"city"`
	PostalCode       string        `json:"postal_code"`
	QuotedPriceCents int64         `json:"quoted_price_cents"`
	Currency         string        `json:"currency"`
	CustomerName     string        `json:"customer_name"`
	CreatedAt        time.Time     `json:"created_at"`
}

// JobRequestRef is the request summary attached to a booking detail.
type JobRequestRef struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

// ThreadMessage is one message in a booking's conversation.
type ThreadMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// ThreadView is the conversation attached to a booking detail, messages in
// chronological order.
type ThreadView struct {
	ID       string          `json:"id"`
	Messages []ThreadMessage `json:"messages"`
}

// ProviderBookingDetail is the provider-facing detail view. Address lines are
// already redacted per the visibility policy by the time this struct exists.
type ProviderBookingDetail struct {
	Booking
	JobRequest JobRequestRef `json:"job_request"`
	Thread     *ThreadView   `json:"thread,omitempty"`
}
