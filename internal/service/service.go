// Package service orchestrates policy checks and persistence for the HTTP layer.
package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"newsdesk/internal/events"
)

// isUUID reports whether an identifier is a canonical hyphenated uuid.
// uuid.Parse also accepts the braced, urn and bare hex forms, which are
// valid slugs and must not be routed to an id lookup.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	id, err := uuid.Parse(s)
	return err == nil && id.String() == strings.ToLower(s)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// emitter publishes events without ever failing the caller.
type emitter struct {
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func (e emitter) emit(ctx context.Context, evt events.Event) {
	if e.publisher == nil {
		return
	}
	evt.OccurredAt = e.now().UTC()
	if err := e.publisher.Publish(ctx, evt); err != nil {
		e.logger.Warn("event dropped", zap.String("type", evt.Type), zap.String("article_id", evt.ArticleID), zap.Error(err))
	}
}
