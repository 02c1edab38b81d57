package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres
func Init() {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	// Bootstrap schema in dependency order
	ensureUsersTable()
	ensureJobRequestsTable()
	ensureOffersAndThreads()
	ensureBookingsSchema()
	ensurePaymentTransactionsTable()
	ensureDisputesTable()
	ensureNotificationsTable()
}

// ensureUsersTable creates users table if missing
func ensureUsersTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            company TEXT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'customer' CHECK (role IN ('customer','provider','both','admin')),
            is_active BOOLEAN DEFAULT TRUE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
    `)
	if err != nil {
		log.Printf("failed to create users table: %v", err)
	}
}

// ensureJobRequestsTable creates job_requests if missing
func ensureJobRequestsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS job_requests (
            id UUID PRIMARY KEY,
            customer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            description TEXT NOT NULL,
            category TEXT NOT NULL DEFAULT 'general',
            photo_urls TEXT[] NOT NULL DEFAULT '{}',
            address_line1 TEXT NOT NULL,
            address_line2 TEXT NULL,
            city TEXT NOT NULL,
            postal_code TEXT NOT NULL,
            country TEXT NOT NULL DEFAULT 'DE',
            status TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN','ASSIGNED','CLOSED')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_job_requests_customer ON job_requests(customer_id);
        CREATE INDEX IF NOT EXISTS idx_job_requests_status ON job_requests(status);
    `)
	if err != nil {
		log.Printf("failed to create job_requests table: %v", err)
	}
}

// ensureOffersAndThreads creates request_offers and message tables if missing.
// A thread's booking_id is a lookup link, not ownership; the thread exists
// before the booking does.
func ensureOffersAndThreads() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS message_threads (
            id UUID PRIMARY KEY,
            job_request_id UUID NOT NULL REFERENCES job_requests(id) ON DELETE CASCADE,
            offer_id UUID NULL,
            customer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            provider_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            booking_id UUID NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE TABLE IF NOT EXISTS request_offers (
            id UUID PRIMARY KEY,
            job_request_id UUID NOT NULL REFERENCES job_requests(id) ON DELETE CASCADE,
            provider_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            thread_id UUID NOT NULL REFERENCES message_threads(id) ON DELETE CASCADE,
            amount_cents BIGINT NOT NULL,
            message TEXT NULL,
            status TEXT NOT NULL DEFAULT 'SENT' CHECK (status IN ('SENT','ACCEPTED','REJECTED','WITHDRAWN')),
            accepted_at TIMESTAMP WITH TIME ZONE NULL,
            booking_id UUID NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_request_offers_request ON request_offers(job_request_id);
        CREATE INDEX IF NOT EXISTS idx_request_offers_provider ON request_offers(provider_id);
        CREATE TABLE IF NOT EXISTS messages (
            id UUID PRIMARY KEY,
            thread_id UUID NOT NULL REFERENCES message_threads(id) ON DELETE CASCADE,
            sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            content TEXT NOT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_messages_thread_created ON messages(thread_id, created_at);
    `)
	if err != nil {
		log.Printf("failed to create offer/thread tables: %v", err)
	}
}

// ensureBookingsSchema creates bookings and keeps the status constraint in
// sync with the statuses the handlers use
func ensureBookingsSchema() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS bookings (
            id UUID PRIMARY KEY,
            type TEXT NOT NULL DEFAULT 'BOOKING',
            status TEXT NOT NULL DEFAULT 'NEEDS_PAYMENT',
            job_request_id UUID NOT NULL REFERENCES job_requests(id) ON DELETE CASCADE,
            customer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            provider_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            description TEXT NOT NULL,
            photo_urls TEXT[] NOT NULL DEFAULT '{}',
            address_line1 TEXT NOT NULL,
            address_line2 TEXT NULL,
            city TEXT NOT NULL,
            postal_code TEXT NOT NULL,
            country TEXT NOT NULL DEFAULT 'DE',
            currency TEXT NOT NULL DEFAULT 'EUR',
            price_type TEXT NOT NULL DEFAULT 'QUOTE',
            quoted_price_cents BIGINT NOT NULL,
            platform_fee_cents BIGINT NOT NULL DEFAULT 0,
            provider_payout_cents BIGINT NOT NULL DEFAULT 0,
            scheduled_at TIMESTAMP WITH TIME ZONE NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_bookings_customer_created ON bookings(customer_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_bookings_provider_created ON bookings(provider_id, created_at);
    `)
	if err != nil {
		log.Printf("failed to create bookings table: %v", err)
	}

	// Refresh the status check so older databases accept runtime statuses
	_, _ = Conn.Exec(ctx, `ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_status_check`)
	_, err = Conn.Exec(ctx, `
        ALTER TABLE bookings
        ADD CONSTRAINT bookings_status_check
        CHECK (status IN (
            'REQUESTED', 'ACCEPTED', 'DECLINED', 'NEEDS_PAYMENT', 'PAID',
            'SCHEDULED', 'IN_PROGRESS', 'COMPLETED', 'CANCELED', 'DISPUTED', 'REFUNDED'
        ))`)
	if err != nil {
		log.Printf("failed to update bookings status constraint: %v", err)
	}
}

// ensurePaymentTransactionsTable creates payment_transactions if missing
func ensurePaymentTransactionsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS payment_transactions (
            id UUID PRIMARY KEY,
            booking_id UUID NOT NULL UNIQUE REFERENCES bookings(id) ON DELETE CASCADE,
            amount_cents BIGINT NOT NULL,
            platform_fee_cents BIGINT NOT NULL DEFAULT 0,
            provider_amount_cents BIGINT NOT NULL,
            currency TEXT NOT NULL DEFAULT 'EUR',
            status TEXT NOT NULL DEFAULT 'REQUIRES_PAYMENT'
                CHECK (status IN ('REQUIRES_PAYMENT','PROCESSING','SUCCEEDED','FAILED','REFUNDED')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
    `)
	if err != nil {
		log.Printf("failed to create payment_transactions table: %v", err)
	}
}

// ensureDisputesTable creates disputes table if not present
func ensureDisputesTable() {
	ctx := context.Background()
	var exists bool
	_ = Conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_schema = 'public' AND table_name = 'disputes'
        )`).Scan(&exists)
	if exists {
		return
	}
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS disputes (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            booking_id UUID NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
            filer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            reason TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open','resolved')),
            resolution TEXT NULL CHECK (resolution IN ('refund','release','none')),
            notes TEXT NULL,
            resolved_by UUID NULL REFERENCES users(id) ON DELETE SET NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            resolved_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_disputes_booking ON disputes(booking_id);
        CREATE INDEX IF NOT EXISTS idx_disputes_status ON disputes(status);
    `)
	if err != nil {
		log.Printf("failed to create disputes table: %v", err)
	}
}

// ensureNotificationsTable creates notifications table if it doesn't exist
func ensureNotificationsTable() {
	ctx := context.Background()
	var exists bool
	_ = Conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_schema = 'public' AND table_name = 'notifications'
        )`).Scan(&exists)
	if exists {
		return
	}
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            type TEXT NOT NULL,
            title TEXT NOT NULL,
            body TEXT,
            reference UUID NULL,
            metadata JSONB NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            read_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE read_at IS NULL;
    `)
	if err != nil {
		log.Printf("failed to create notifications table: %v", err)
	}
}
