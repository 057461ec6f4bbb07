package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventLogEntry is one handled fan-out event (MongoDB)
type EventLogEntry struct {
	EventID    string    `bson:"_id"`
	Type       string    `bson:"type"`
	ActorID    uint      `bson:"actor_id"`
	PostID     *uint     `bson:"post_id,omitempty"`
	Recipients int       `bson:"recipients"`
	Written    int       `bson:"written"`
	Dropped    bool      `bson:"dropped,omitempty"`
	Error      string    `bson:"error,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
	HandledAt  time.Time `bson:"handled_at"`
}

// EventLogRepository records fan-out outcomes
type EventLogRepository interface {
	AppendEvent(ctx context.Context, entry EventLogEntry) error
	GetEvent(ctx context.Context, eventID string) (*EventLogEntry, error)
}

// MongoEventLogRepository implements EventLogRepository for MongoDB
type MongoEventLogRepository struct {
	collection *mongo.Collection
}

// NewMongoEventLogRepository creates a new MongoEventLogRepository on the "events" collection
func NewMongoEventLogRepository(db *mongo.Database) *MongoEventLogRepository {
	return &MongoEventLogRepository{collection: db.Collection("events")}
}

// AppendEvent upserts by event id so a replayed event overwrites its earlier entry
func (r *MongoEventLogRepository) AppendEvent(ctx context.Context, entry EventLogEntry) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": entry.EventID}, entry, opts)
	return translate(err)
}

// GetEvent retrieves an entry by event id
func (r *MongoEventLogRepository) GetEvent(ctx context.Context, eventID string) (*EventLogEntry, error) {
	var entry EventLogEntry
	if err := r.collection.FindOne(ctx, bson.M{"_id": eventID}).Decode(&entry); err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}
