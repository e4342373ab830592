package membership

import (
	"context"
	"errors"
	"time"

	"github.com/princinho/cragbase/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// FieldCounter is an integer field of the documents in Col.
type FieldCounter struct {
	Col   *mongo.Collection
	Field string
}

func (c FieldCounter) Exists(ctx context.Context, id bson.ObjectID) (bool, error) {
	n, err := c.Col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

func (c FieldCounter) Increment(ctx context.Context, id bson.ObjectID, delta int) (bool, error) {
	res, err := c.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{c.Field: delta}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// UserListSet keeps one document per user holding an array of entity ids,
// e.g. {userId, likedPostIds: [...]}.
type UserListSet struct {
	Col   *mongo.Collection
	Field string
}

func (s UserListSet) Add(ctx context.Context, userID, entityID bson.ObjectID) (bool, error) {
	res, err := s.Col.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$addToSet": bson.M{s.Field: entityID}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1 || res.UpsertedCount == 1, nil
}

func (s UserListSet) Remove(ctx context.Context, userID, entityID bson.ObjectID) (bool, error) {
	res, err := s.Col.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$pull": bson.M{s.Field: entityID}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// IDs returns the entity ids stored for userID.
func (s UserListSet) IDs(ctx context.Context, userID bson.ObjectID) ([]bson.ObjectID, error) {
	raw, err := s.Col.FindOne(ctx, bson.M{"userId": userID}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []bson.ObjectID{}, nil
	}
	if err != nil {
		return nil, err
	}
	ids := make([]bson.ObjectID, 0)
	arr, ok := raw.Lookup(s.Field).ArrayOK()
	if !ok {
		return ids, nil
	}
	values, err := arr.Values()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if id, ok := v.ObjectIDOK(); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// EmbeddedSet is an array of user ids stored on the entity itself, e.g.
// communities.memberIds. Remove also pulls the user from AlsoPull fields.
type EmbeddedSet struct {
	Col      *mongo.Collection
	Field    string
	AlsoPull []string
}

func (s EmbeddedSet) Add(ctx context.Context, userID, entityID bson.ObjectID) (bool, error) {
	res, err := s.Col.UpdateOne(ctx,
		bson.M{"_id": entityID, s.Field: bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{s.Field: userID}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s EmbeddedSet) Remove(ctx context.Context, userID, entityID bson.ObjectID) (bool, error) {
	pull := bson.M{s.Field: userID}
	for _, f := range s.AlsoPull {
		pull[f] = userID
	}
	res, err := s.Col.UpdateOne(ctx,
		bson.M{"_id": entityID, s.Field: userID},
		bson.M{"$pull": pull},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// PairSet stores one document per (entity, user) pair and relies on a
// unique compound index to reject duplicates.
type PairSet struct {
	Col         *mongo.Collection
	EntityField string
	TimeField   string
	Now         func() time.Time
}

func (s PairSet) Add(ctx context.Context, userID, entityID bson.ObjectID) (bool, error) {
	doc := bson.M{s.EntityField: entityID, "userId": userID}
	if s.TimeField != "" {
		doc[s.TimeField] = s.Now().UTC()
	}
	if _, err := s.Col.InsertOne(ctx, doc); err != nil {
		if utils.IsDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s PairSet) Remove(ctx context.Context, userID, entityID bson.ObjectID) (bool, error) {
	res, err := s.Col.DeleteOne(ctx, bson.M{s.EntityField: entityID, "userId": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}
