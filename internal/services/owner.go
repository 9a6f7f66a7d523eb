package services

import (
	"context"
	"errors"
	"strings"

	"github.com/AnshRaj112/multilink-backend/internal/apperrors"
	"github.com/AnshRaj112/multilink-backend/internal/auth"
	"github.com/AnshRaj112/multilink-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func callerID(id auth.Identity) (primitive.ObjectID, error) {
	oid, ok := id.ObjectID()
	if !ok {
		return primitive.NilObjectID, apperrors.NewInvalidToken("Invalid token")
	}
	return oid, nil
}

// checkOwner allows the write only when owner is the caller.
func checkOwner(caller, owner primitive.ObjectID) error {
	if caller != owner {
		return apperrors.NewForbidden()
	}
	return nil
}

// publicOwner resolves username to the id whose active resources are public.
func publicOwner(ctx context.Context, users UserLookup, username string) (primitive.ObjectID, error) {
	user, err := users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return primitive.NilObjectID, apperrors.NewNotFound("User not found")
		}
		return primitive.NilObjectID, apperrors.Wrap(err, "find user")
	}
	return user.ID, nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
