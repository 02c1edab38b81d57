package messaging

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

// SendMessage - customer or provider sends a message in an offer thread
func SendMessage(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	threadID := c.Param("id")
	if threadID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing thread id"})
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&body); err != nil || body.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	// Ensure user is a thread participant and derive recipient
	var customerID, providerID string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT customer_id, provider_id FROM message_threads WHERE id = $1`, threadID,
	).Scan(&customerID, &providerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "thread not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch thread"})
	}

	var recipientID string
	switch ident.ID {
	case customerID:
		recipientID = providerID
	case providerID:
		recipientID = customerID
	default:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this thread"})
	}

	msgID := uuid.New().String()
	createdAt := time.Now()
	_, err = db.Conn.Exec(context.Background(),
		`INSERT INTO messages (id, thread_id, sender_id, content, created_at)
         VALUES ($1, $2, $3, $4, $5)`,
		msgID, threadID, ident.ID, body.Content, createdAt,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}

	// Broadcast new message event to WS subscribers
	BroadcastNewMessage(threadID, echo.Map{
		"id":         msgID,
		"thread_id":  threadID,
		"sender_id":  ident.ID,
		"content":    body.Content,
		"created_at": createdAt.UTC().Format(time.RFC3339),
	})

	// In-app notification for recipient (best-effort)
	ref := msgID
	meta := "{}"
	_ = alerts.CreateNotification(recipientID, "message:new", "New message", body.Content, &ref, &meta)

	return c.JSON(http.StatusOK, echo.Map{"message_id": msgID})
}

// GetThread - get the conversation for a thread
func GetThread(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	threadID := c.Param("id")
	if threadID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing thread id"})
	}

	// Verify participation
	var customerID, providerID string
	var bookingID *string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT customer_id, provider_id, booking_id FROM message_threads WHERE id = $1`, threadID,
	).Scan(&customerID, &providerID, &bookingID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "thread not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch thread"})
	}
	if ident.ID != customerID && ident.ID != providerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this thread"})
	}

	rows, err := db.Conn.Query(context.Background(), `
        SELECT m.id, m.sender_id, u.name, m.content, m.created_at
        FROM messages m
        JOIN users u ON u.id = m.sender_id
        WHERE m.thread_id = $1
        ORDER BY m.created_at ASC`, threadID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch messages"})
	}
	defer rows.Close()

	var items []echo.Map
	for rows.Next() {
		var id, senderID, senderName, content string
		var createdAt time.Time
		if err := rows.Scan(&id, &senderID, &senderName, &content, &createdAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse message"})
		}
		items = append(items, echo.Map{
			"id": id, "sender_id": senderID, "sender_name": senderName,
			"content": content, "created_at": createdAt,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"thread_id":  threadID,
		"booking_id": bookingID,
		"messages":   items,
	})
}
