package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the identity root. Username and email are unique across users.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	IsVerified   bool               `bson:"isVerified" json:"isVerified"`
	MfaEnabled   bool               `bson:"mfaEnabled" json:"mfaEnabled"`
	// MfaSecret is set while enrollment is pending or MFA is active. It may be
	// sealed with the configured encryption key.
	MfaSecret string    `bson:"mfaSecret,omitempty" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the shape returned alongside tokens.
type UserSummary struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
	MfaEnabled bool   `json:"mfaEnabled"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID.Hex(),
		Username:   u.Username,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		MfaEnabled: u.MfaEnabled,
	}
}
