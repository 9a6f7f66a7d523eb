// Package auth carries the authenticated caller from the HTTP layer to services.
package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the verified caller of a request.
type Identity struct {
	UserID string
}

// ObjectID returns the caller id as a Mongo ObjectID. Identities are only
// minted from verified tokens, so a parse failure means a token was issued
// for an id this service never created.
func (i Identity) ObjectID() (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(i.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by the authentication middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != ""
}
