package repository

import (
	"context"
	"time"

	"github.com/AnshRaj112/multilink-backend/internal/database"
	"github.com/AnshRaj112/multilink-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository is the credential store. Uniqueness of username and email
// is enforced by the indexes created in database.EnsureIndexes.
type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(database.UsersCollection), now: time.Now}
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindByEmailOrUsername returns any user holding either value.
func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// Create inserts u, assigning its id and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	now := r.now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.coll.InsertOne(ctx, u)
	return translate(err)
}

// UpdateProfile sets the non-nil fields and returns the user as stored
// afterwards. A value held by another user is reported as ErrDuplicateKey.
func (r *UserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, username, email *string) (*models.User, error) {
	f := newFields()
	setIf(f, "username", username)
	setIf(f, "email", email)
	f.set["updatedAt"] = r.now().UTC()

	var u models.User
	if err := updateAndGet(ctx, r.coll, bson.M{"_id": id}, f.update(), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetPassword replaces the password hash only while it still equals
// currentHash, so of two concurrent changes verified against the same hash
// one fails with ErrNotFound.
func (r *UserRepository) SetPassword(ctx context.Context, id primitive.ObjectID, currentHash, newHash string) error {
	return updateOne(ctx, r.coll,
		bson.M{"_id": id, "password": currentHash},
		bson.M{"$set": bson.M{"password": newHash, "updatedAt": r.now().UTC()}},
	)
}

// SetMfaSecret stores a pending secret. It fails with ErrNotFound once MFA is
// enabled.
func (r *UserRepository) SetMfaSecret(ctx context.Context, id primitive.ObjectID, secret string) error {
	return updateOne(ctx, r.coll,
		bson.M{"_id": id, "mfaEnabled": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"mfaSecret": secret, "updatedAt": r.now().UTC()}},
	)
}

// EnableMfa turns MFA on if the stored secret is still the one the code was
// checked against.
func (r *UserRepository) EnableMfa(ctx context.Context, id primitive.ObjectID, secret string) error {
	return updateOne(ctx, r.coll,
		bson.M{"_id": id, "mfaSecret": secret},
		bson.M{"$set": bson.M{"mfaEnabled": true, "updatedAt": r.now().UTC()}},
	)
}

// DisableMfa turns MFA off and removes the secret, under the same condition
// as EnableMfa.
func (r *UserRepository) DisableMfa(ctx context.Context, id primitive.ObjectID, secret string) error {
	return updateOne(ctx, r.coll,
		bson.M{"_id": id, "mfaSecret": secret},
		bson.M{
			"$set":   bson.M{"mfaEnabled": false, "updatedAt": r.now().UTC()},
			"$unset": bson.M{"mfaSecret": ""},
		},
	)
}

// ReplaceMfaSecret swaps the stored secret for an equivalent encoding of it.
func (r *UserRepository) ReplaceMfaSecret(ctx context.Context, id primitive.ObjectID, current, replacement string) error {
	return updateOne(ctx, r.coll,
		bson.M{"_id": id, "mfaSecret": current},
		bson.M{"$set": bson.M{"mfaSecret": replacement}},
	)
}

// ExistsOther reports whether a user other than excludeID has field == value.
func (r *UserRepository) ExistsOther(ctx context.Context, field, value string, excludeID primitive.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		field: value,
		"_id": bson.M{"$ne": excludeID},
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
