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

type ProductRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(database.ProductsCollection), now: time.Now}
}

// ListByUser returns the owner's products, newest first.
func (r *ProductRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, activeOnly bool) ([]models.Product, error) {
	filter := bson.M{"userId": userID}
	if activeOnly {
		filter["isActive"] = true
	}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	now := r.now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.coll.InsertOne(ctx, p)
	return translate(err)
}

// Update applies patch to product id, matching only when owner holds it, and
// returns the product as stored afterwards.
func (r *ProductRepository) Update(ctx context.Context, id, owner primitive.ObjectID, patch models.ProductPatch) (*models.Product, error) {
	f := newFields()
	setIf(f, "name", patch.Name)
	setIf(f, "description", patch.Description)
	setIf(f, "price", patch.Price)
	setIf(f, "currency", patch.Currency)
	setOrUnset(f, "imageUrl", patch.ImageURL)
	setIf(f, "isActive", patch.IsActive)
	f.set["updatedAt"] = r.now().UTC()

	var p models.Product
	if err := updateAndGet(ctx, r.coll, bson.M{"_id": id, "userId": owner}, f.update(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
