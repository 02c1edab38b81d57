package alerts

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/hibiken/asynq"
)

var (
	client *asynq.Client
	server *asynq.Server
)

// Init starts the Asynq server and initializes a shared client.
func Init() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		if host := os.Getenv("REDIS_HOST"); host != "" {
			port := os.Getenv("REDIS_PORT")
			if port == "" {
				port = "6379"
			}
			redisAddr = host + ":" + port
		} else {
			redisAddr = "127.0.0.1:6379"
		}
	}

	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client = asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskOfferReceived, handleOfferReceived)
	mux.HandleFunc(TaskOfferAccepted, handleOfferAccepted)
	mux.HandleFunc(TaskPaymentReceived, handlePaymentReceived)
	mux.HandleFunc(TaskDisputeOpened, handleDisputeOpened)
	mux.HandleFunc(TaskAdminAlert, handleAdminAlert)

	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"notifications": 10,
			"alerts":        5,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			log.Printf("Asynq server stopped: %v", err)
		}
	}()

	log.Printf("Asynq initialized (addr=%s)", redisAddr)
}

// Close releases client and stops server.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

// Handlers below parse payloads and deliver with logs; email delivery plugs
// in behind these once a vendor is chosen.

func handleOfferReceived(_ context.Context, t *asynq.Task) error {
	var p OfferReceivedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	log.Printf("[notify] OfferReceived -> customer=%s request=%s amount=%d", p.CustomerID, p.JobRequestID, p.AmountCents)
	return nil
}

func handleOfferAccepted(_ context.Context, t *asynq.Task) error {
	var p OfferAcceptedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	log.Printf("[notify] OfferAccepted -> provider=%s booking=%s amount=%d", p.ProviderID, p.BookingID, p.AmountCents)
	return nil
}

func handlePaymentReceived(_ context.Context, t *asynq.Task) error {
	var p PaymentReceivedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	log.Printf("[notify] PaymentReceived -> provider=%s booking=%s amount=%d", p.ProviderID, p.BookingID, p.AmountCents)
	return nil
}

func handleDisputeOpened(_ context.Context, t *asynq.Task) error {
	var p DisputeOpenedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	log.Printf("[notify] DisputeOpened -> dispute=%s booking=%s filer=%s", p.DisputeID, p.BookingID, p.FilerID)
	return nil
}

func handleAdminAlert(_ context.Context, t *asynq.Task) error {
	var p AdminAlertPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	log.Printf("[notify] AdminAlert severity=%s: %s", p.Severity, p.Message)
	return nil
}
