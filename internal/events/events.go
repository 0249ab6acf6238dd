// Package events publishes article lifecycle events to a message broker.
// Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"time"
)

// Routing keys for article lifecycle events.
const (
	ArticleCreated       = "article.created"
	ArticleUpdated       = "article.updated"
	ArticleDeleted       = "article.deleted"
	ArticleRestored      = "article.restored"
	ArticleStatusChanged = "article.status_changed"
	ArticlePurged        = "article.purged"
)

// Event is the JSON payload of a lifecycle message.
type Event struct {
	Type       string    `json:"type"`
	ArticleID  string    `json:"article_id"`
	Slug       string    `json:"slug,omitempty"`
	Status     string    `json:"status,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	Force      bool      `json:"force,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
