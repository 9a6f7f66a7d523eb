package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Currencies accepted for product prices.
var Currencies = []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD"}

const DefaultCurrency = "USD"

// Product is a digital product listed on a profile.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Currency    string             `bson:"currency" json:"currency"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProductPatch names the product fields to change. Nil fields are left as
// stored and an empty ImageURL removes it.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Currency    *string
	ImageURL    *string
	IsActive    *bool
}
