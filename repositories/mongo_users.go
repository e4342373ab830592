package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type MongoUsers struct {
	col *mongo.Collection
}

func (r *MongoUsers) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if utils.IsDuplicateKey(err) {
			return apperr.Conflict("Username or email already exists.")
		}
		return apperr.Internal("insert user", err)
	}
	return nil
}

func (r *MongoUsers) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, findErr(err, "User not found.")
	}
	return &u, nil
}

func (r *MongoUsers) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var u models.User
	filter := bson.M{"$or": bson.A{
		bson.M{"username": identifier},
		bson.M{"email": identifier},
	}}
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, findErr(err, "User not found.")
	}
	return &u, nil
}

func (r *MongoUsers) UpdateProfile(ctx context.Context, id bson.ObjectID, upd models.ProfileUpdate) error {
	set := bson.M{"updatedAt": upd.UpdatedAt}
	unset := bson.M{}
	if upd.Username != nil {
		set["username"] = *upd.Username
	}
	if upd.Biography != nil {
		set["biography"] = *upd.Biography
	}
	if upd.AvatarURL != nil {
		set["avatarUrl"] = *upd.AvatarURL
	} else if upd.ClearAvatar {
		unset["avatarUrl"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return apperr.Conflict("Username already taken.")
		}
		return apperr.Internal("update user", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("User not found.")
	}
	return nil
}

type MongoRefreshTokens struct {
	col *mongo.Collection
}

func (r *MongoRefreshTokens) Insert(ctx context.Context, t *models.RefreshToken) error {
	if t.ID.IsZero() {
		t.ID = bson.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, t); err != nil {
		return apperr.Internal("insert refresh token", err)
	}
	return nil
}

func (r *MongoRefreshTokens) Consume(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := r.col.FindOneAndDelete(ctx, bson.M{"tokenHash": hash}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("refresh token not found")
	}
	if err != nil {
		return nil, apperr.Internal("consume refresh token", err)
	}
	return &t, nil
}

func (r *MongoRefreshTokens) DeleteByHash(ctx context.Context, hash string) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"tokenHash": hash}); err != nil {
		return apperr.Internal("delete refresh token", err)
	}
	return nil
}

func (r *MongoRefreshTokens) DeleteExpired(ctx context.Context, userID bson.ObjectID, now time.Time) error {
	_, err := r.col.DeleteMany(ctx, bson.M{
		"userId":    userID,
		"expiresAt": bson.M{"$lte": now},
	})
	if err != nil {
		return apperr.Internal("delete expired refresh tokens", err)
	}
	return nil
}
