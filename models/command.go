package models

import (
	"context"

	"github.com/google/uuid"
)

type commandIDKey struct{}

// WithCommandID attaches the client-generated id of a scoring command; stores record it
// in Match.RecentCommands together with the change.
func WithCommandID(ctx context.Context, id uuid.UUID) context.Context {
	if id == uuid.Nil {
		return ctx
	}
	return context.WithValue(ctx, commandIDKey{}, id)
}

func CommandIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(commandIDKey{}).(uuid.UUID)
	return id
}
