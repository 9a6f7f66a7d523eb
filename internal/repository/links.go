package repository

import (
	"context"
	"time"

	"github.com/AnshRaj112/multilink-backend/internal/database"
	"github.com/AnshRaj112/multilink-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type LinkRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewLinkRepository(db *mongo.Database) *LinkRepository {
	return &LinkRepository{coll: db.Collection(database.LinksCollection), now: time.Now}
}

// ListByUser returns the owner's links by ascending order.
func (r *LinkRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, activeOnly bool) ([]models.Link, error) {
	filter := bson.M{"userId": userID}
	if activeOnly {
		filter["isActive"] = true
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	links := []models.Link{}
	if err := cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *LinkRepository) FindByID(ctx context.Context, id string) (*models.Link, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var l models.Link
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&l); err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *LinkRepository) Create(ctx context.Context, l *models.Link) error {
	now := r.now().UTC()
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	l.CreatedAt, l.UpdatedAt = now, now

	_, err := r.coll.InsertOne(ctx, l)
	return translate(err)
}

// Update applies patch to link id, matching only when owner holds it, and
// returns the link as stored afterwards.
func (r *LinkRepository) Update(ctx context.Context, id, owner primitive.ObjectID, patch models.LinkPatch) (*models.Link, error) {
	f := newFields()
	setIf(f, "title", patch.Title)
	setIf(f, "url", patch.URL)
	setOrUnset(f, "icon", patch.Icon)
	setIf(f, "isActive", patch.IsActive)
	setIf(f, "order", patch.Order)
	f.set["updatedAt"] = r.now().UTC()

	var l models.Link
	if err := updateAndGet(ctx, r.coll, bson.M{"_id": id, "userId": owner}, f.update(), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LinkRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateOrder sets the order of one link, matching only when userID owns it.
// It reports whether a document matched.
func (r *LinkRepository) UpdateOrder(ctx context.Context, userID primitive.ObjectID, id string, order int) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, nil
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{"$set": bson.M{"order": order, "updatedAt": r.now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
