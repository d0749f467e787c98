package grpcserver

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/account-manager/internal/convert"
)

type ctxKey string

const userIDKey ctxKey = "am.userID"

// WithUserID stores the authenticated caller in ctx.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromCtx returns the caller set by AuthUnary.
func UserIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return id, true
}

// subject returns the caller and the owner addressed by the request. A missing
// caller comes back as uuid.Nil, which the services reject as unauthenticated.
func subject(ctx context.Context, userID string) (actor, owner uuid.UUID, err error) {
	actor, _ = UserIDFromCtx(ctx)
	owner, err = convert.ParseUserID(userID)
	return actor, owner, err
}
