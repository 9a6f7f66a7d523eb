package services

import (
	"context"

	"github.com/AnshRaj112/multilink-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the credential store. repository.UserRepository implements it.
type UserStore interface {
	FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, username, email *string) (*models.User, error)
	SetPassword(ctx context.Context, id primitive.ObjectID, currentHash, newHash string) error
	SetMfaSecret(ctx context.Context, id primitive.ObjectID, secret string) error
	EnableMfa(ctx context.Context, id primitive.ObjectID, secret string) error
	DisableMfa(ctx context.Context, id primitive.ObjectID, secret string) error
	ReplaceMfaSecret(ctx context.Context, id primitive.ObjectID, current, replacement string) error
	ExistsOther(ctx context.Context, field, value string, excludeID primitive.ObjectID) (bool, error)
}

// UserLookup resolves public profiles by username.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type LinkStore interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID, activeOnly bool) ([]models.Link, error)
	FindByID(ctx context.Context, id string) (*models.Link, error)
	Create(ctx context.Context, l *models.Link) error
	Update(ctx context.Context, id, owner primitive.ObjectID, patch models.LinkPatch) (*models.Link, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	UpdateOrder(ctx context.Context, userID primitive.ObjectID, id string, order int) (bool, error)
}

type ProductStore interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID, activeOnly bool) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id, owner primitive.ObjectID, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
