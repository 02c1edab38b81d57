package alerts

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

// EnqueueOfferReceived notifies the customer that a new offer arrived
func EnqueueOfferReceived(jobRequestID, offerID, customerID, providerID string, amountCents int64) error {
	payload := OfferReceivedPayload{
		JobRequestID: jobRequestID,
		OfferID:      offerID,
		CustomerID:   customerID,
		ProviderID:   providerID,
		AmountCents:  amountCents,
		SentAt:       time.Now(),
	}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOfferReceived, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("notifications"))
	return err
}

// EnqueueOfferAccepted notifies the provider after the customer accepts
func EnqueueOfferAccepted(bookingID, jobTitle, customerID, providerID string, amountCents int64) error {
	payload := OfferAcceptedPayload{
		BookingID:   bookingID,
		JobTitle:    jobTitle,
		CustomerID:  customerID,
		ProviderID:  providerID,
		AmountCents: amountCents,
		SentAt:      time.Now(),
	}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOfferAccepted, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("notifications"))
	return err
}

// EnqueuePaymentReceived notifies the provider after payment is confirmed
func EnqueuePaymentReceived(bookingID, customerID, providerID string, amountCents int64) error {
	payload := PaymentReceivedPayload{
		BookingID:   bookingID,
		CustomerID:  customerID,
		ProviderID:  providerID,
		AmountCents: amountCents,
		SentAt:      time.Now(),
	}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskPaymentReceived, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("notifications"))
	return err
}

// EnqueueDisputeOpened alerts admins about a new dispute
func EnqueueDisputeOpened(disputeID, bookingID, filerID, reason string) error {
	payload := DisputeOpenedPayload{
		DisputeID: disputeID,
		BookingID: bookingID,
		FilerID:   filerID,
		Reason:    reason,
		SentAt:    time.Now(),
	}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskDisputeOpened, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("alerts"))
	return err
}

// EnqueueAdminAlert sends an alert to admins
func EnqueueAdminAlert(severity, message string) error {
	payload := AdminAlertPayload{Severity: severity, Message: message, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskAdminAlert, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("alerts"))
	return err
}
