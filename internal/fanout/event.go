package fanout

import (
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/google/uuid"
)

// Actor is the user whose action produced an event
type Actor struct {
	ID       uint
	Username string
}

// Event is one domain event waiting to be materialized as notifications.
// Recipients are resolved by the publisher at publish time.
type Event struct {
	ID         uuid.UUID
	Type       models.NotificationType
	Actor      Actor
	Recipients []uint
	PostID     *uint
	OccurredAt time.Time
}

func newEvent(t models.NotificationType, actor Actor, recipients []uint, postID *uint) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		Actor:      actor,
		Recipients: recipients,
		PostID:     postID,
		OccurredAt: time.Now().UTC(),
	}
}

// NewPostEvent targets the author's subscribers as of now
func NewPostEvent(author Actor, postID uint, subscriberIDs []uint) Event {
	return newEvent(models.NotificationNewPost, author, subscriberIDs, &postID)
}

func NewLikeEvent(liker Actor, postID, ownerID uint) Event {
	return newEvent(models.NotificationNewLike, liker, []uint{ownerID}, &postID)
}

func NewCommentEvent(commenter Actor, postID, ownerID uint) Event {
	return newEvent(models.NotificationNewComment, commenter, []uint{ownerID}, &postID)
}

func NewSubscriberEvent(subscriber Actor, targetID uint) Event {
	return newEvent(models.NotificationNewSubscriber, subscriber, []uint{targetID}, nil)
}

// Message renders the notification text for the event type, or "" for an unknown type
func (e Event) Message() string {
	switch e.Type {
	case models.NotificationNewLike:
		return e.Actor.Username + " liked your post"
	case models.NotificationNewComment:
		return e.Actor.Username + " commented on your post"
	case models.NotificationNewSubscriber:
		return e.Actor.Username + " subscribed to you"
	case models.NotificationNewPost:
		return e.Actor.Username + " published a new post"
	}
	return ""
}

// recipients drops duplicates and the actor, keeping first-seen order
func (e Event) recipients() []uint {
	seen := make(map[uint]struct{}, len(e.Recipients))
	out := make([]uint, 0, len(e.Recipients))
	for _, id := range e.Recipients {
		if id == e.Actor.ID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
