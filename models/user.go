package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string        `bson:"username" json:"username"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"passwordHash" json:"-"` // never expose
	AvatarURL    string        `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Biography    string        `bson:"biography,omitempty" json:"biography,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is what other users may see of an account.
type PublicUser struct {
	ID        bson.ObjectID `bson:"_id" json:"id"`
	Username  string        `bson:"username" json:"username"`
	AvatarURL string        `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Biography string        `bson:"biography,omitempty" json:"biography,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL, Biography: u.Biography}
}

// ProfileUpdate holds the fields a user may change on their own profile.
// Nil pointers are left untouched.
type ProfileUpdate struct {
	Username    *string
	Biography   *string
	AvatarURL   *string
	ClearAvatar bool
	UpdatedAt   time.Time
}

// RefreshToken is a persisted refresh credential. Only the SHA-256 of the
// opaque token value is stored.
type RefreshToken struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"userId"`
	TokenHash string        `bson:"tokenHash"`
	IssuedAt  time.Time     `bson:"issuedAt"`
	ExpiresAt time.Time     `bson:"expiresAt"`
}
