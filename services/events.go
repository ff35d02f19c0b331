package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"motomar-api/logger"
)

// Subjects of the domain events published after successful writes.
const (
	SubjectListingCreated  = "listing.created"
	SubjectListingUpdated  = "listing.updated"
	SubjectListingDeleted  = "listing.deleted"
	SubjectFavoriteToggled = "favorite.toggled"
)

type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type ListingEvent struct {
	ListingID  string    `json:"listing_id"`
	SellerID   string    `json:"seller_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type FavoriteEvent struct {
	ListingID  string    `json:"listing_id"`
	AccountID  string    `json:"account_id"`
	Favorited  bool      `json:"favorited"`
	OccurredAt time.Time `json:"occurred_at"`
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("motomar-api"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{conn: conn}, nil
}

func (p *NatsPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, payload)
}

func (p *NatsPublisher) Close() {
	p.conn.Close()
}

// NoopPublisher drops events; used when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// publishEvent sends one event with a bounded wait; failures are only logged.
func publishEvent(events EventPublisher, subject string, data interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := events.Publish(ctx, subject, data); err != nil {
		logger.Log.Warnw("failed to publish event", "subject", subject, "error", err)
	}
}

func runAsync(f func()) { go f() }
