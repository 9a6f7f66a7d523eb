// Package repository persists users, links and products in MongoDB.
package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// objectID parses a client-supplied hex id. Ids that cannot exist are reported
// as not found rather than as a separate cast failure.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicateKey, err)
	default:
		return err
	}
}

// fields collects the $set and $unset parts of a partial update.
type fields struct {
	set   bson.M
	unset bson.M
}

func newFields() fields {
	return fields{set: bson.M{}, unset: bson.M{}}
}

func setIf[T any](f fields, key string, v *T) {
	if v != nil {
		f.set[key] = *v
	}
}

// setOrUnset removes key for an empty string, matching the omitempty tag on
// the stored document.
func setOrUnset(f fields, key string, v *string) {
	switch {
	case v == nil:
	case *v == "":
		f.unset[key] = ""
	default:
		f.set[key] = *v
	}
}

func (f fields) update() bson.M {
	u := bson.M{"$set": f.set}
	if len(f.unset) > 0 {
		u["$unset"] = f.unset
	}
	return u
}

// updateOne applies update to the document matching filter. A filter that
// matches nothing is reported as ErrNotFound.
func updateOne(ctx context.Context, coll *mongo.Collection, filter, update bson.M) error {
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// updateAndGet applies update and decodes the document as stored afterwards.
func updateAndGet(ctx context.Context, coll *mongo.Collection, filter, update bson.M, out any) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return translate(coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(out))
}
