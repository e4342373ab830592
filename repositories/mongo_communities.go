package repositories

import (
	"context"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoCommunities struct {
	col *mongo.Collection
}

func communitySort(sort string) bson.D {
	if sort == "members" {
		return bson.D{{Key: "memberCount", Value: -1}, {Key: "createdAt", Value: -1}}
	}
	return bson.D{{Key: "createdAt", Value: -1}}
}

func (r *MongoCommunities) Create(ctx context.Context, c *models.Community) error {
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, c); err != nil {
		if utils.IsDuplicateKey(err) {
			return apperr.Conflict("A community with this name already exists.")
		}
		return apperr.Internal("insert community", err)
	}
	return nil
}

func (r *MongoCommunities) FindByID(ctx context.Context, id bson.ObjectID) (*models.Community, error) {
	var c models.Community
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, findErr(err, "Community not found.")
	}
	return &c, nil
}

func (r *MongoCommunities) List(ctx context.Context, q models.ListQuery) ([]models.Community, int64, error) {
	opts := options.Find().
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit)).
		SetSort(communitySort(q.Sort))

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, apperr.Internal("find communities", err)
	}
	defer cursor.Close(ctx)

	items, err := decodeAll[models.Community](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, apperr.Internal("count communities", err)
	}
	return items, total, nil
}

func (r *MongoCommunities) ListForMember(ctx context.Context, userID bson.ObjectID) ([]models.Community, error) {
	return r.findMany(ctx, bson.M{"memberIds": userID}, options.Find().SetSort(communitySort("")))
}

func (r *MongoCommunities) Search(ctx context.Context, text string, limit int) ([]models.Community, error) {
	return r.findMany(ctx, bson.M{"name": titleRegex(text)}, options.Find().SetLimit(int64(limit)))
}

func (r *MongoCommunities) findMany(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]models.Community, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Internal("find communities", err)
	}
	defer cursor.Close(ctx)
	return decodeAll[models.Community](ctx, cursor)
}

func (r *MongoCommunities) Update(ctx context.Context, id bson.ObjectID, upd models.CommunityUpdate) error {
	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Image != nil {
		set["image"] = *upd.Image
	}
	if len(set) == 0 {
		return nil
	}
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return apperr.Conflict("A community with this name already exists.")
		}
		return apperr.Internal("update community", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Community not found.")
	}
	return nil
}

func (r *MongoCommunities) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Internal("delete community", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Community not found.")
	}
	return nil
}

func (r *MongoCommunities) modified(ctx context.Context, filter, update bson.M, what string) (bool, error) {
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, apperr.Internal(what, err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoCommunities) AddAdmin(ctx context.Context, id, userID bson.ObjectID) (bool, error) {
	return r.modified(ctx,
		bson.M{"_id": id, "memberIds": userID, "adminIds": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"adminIds": userID}},
		"add admin")
}

func (r *MongoCommunities) RemoveAdmin(ctx context.Context, id, userID bson.ObjectID) (bool, error) {
	// adminIds.1 exists means at least two admins, so the set never empties.
	return r.modified(ctx,
		bson.M{"_id": id, "adminIds": userID, "adminIds.1": bson.M{"$exists": true}},
		bson.M{"$pull": bson.M{"adminIds": userID}},
		"remove admin")
}

func (r *MongoCommunities) AddChallenge(ctx context.Context, id, challengeID bson.ObjectID) (bool, error) {
	return r.modified(ctx,
		bson.M{"_id": id, "challengeIds": bson.M{"$ne": challengeID}},
		bson.M{"$addToSet": bson.M{"challengeIds": challengeID}},
		"add community challenge")
}

func (r *MongoCommunities) RemoveChallenge(ctx context.Context, id, challengeID bson.ObjectID) (bool, error) {
	return r.modified(ctx,
		bson.M{"_id": id, "challengeIds": challengeID},
		bson.M{"$pull": bson.M{"challengeIds": challengeID}},
		"remove community challenge")
}
