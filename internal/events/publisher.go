package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/noah-isme/ternak-go-api/internal/models"
)

// ActivityCreated is broadcast whenever an activity is appended for an animal.
type ActivityCreated struct {
	EventID  string          `json:"event_id"`
	Source   string          `json:"source"`
	Activity models.Activity `json:"activity"`
	SentAt   time.Time       `json:"sent_at"`
}

// Publisher fans activity events out to other services.
type Publisher interface {
	PublishActivity(ctx context.Context, activity models.Activity) error
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	nodeID  string
}

// NewNATSPublisher publishes activity events on subject. A nil connection disables publication.
func NewNATSPublisher(conn *nats.Conn, subject string) Publisher {
	if conn == nil || subject == "" {
		return Discard()
	}
	return &natsPublisher{conn: conn, subject: subject + ".created", nodeID: uuid.NewString()}
}

func (p *natsPublisher) PublishActivity(_ context.Context, activity models.Activity) error {
	payload, err := json.Marshal(ActivityCreated{
		EventID:  uuid.NewString(),
		Source:   p.nodeID,
		Activity: activity,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject, payload)
}

type discard struct{}

// Discard returns a Publisher that drops every event.
func Discard() Publisher {
	return discard{}
}

func (discard) PublishActivity(context.Context, models.Activity) error { return nil }
