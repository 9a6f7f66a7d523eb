package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Link is a profile link owned by UserID. Only active links are public.
type Link struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Title     string             `bson:"title" json:"title"`
	URL       string             `bson:"url" json:"url"`
	Icon      string             `bson:"icon,omitempty" json:"icon,omitempty"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	Order     int                `bson:"order" json:"order"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// LinkPatch names the link fields to change. Nil fields are left as stored and
// an empty Icon removes it.
type LinkPatch struct {
	Title    *string
	URL      *string
	Icon     *string
	IsActive *bool
	Order    *int
}
