package repositories

import (
	"context"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/membership"
	"github.com/princinho/cragbase/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoChallenges struct {
	col *mongo.Collection
}

func challengeSort(sort string) bson.D {
	switch sort {
	case "recent":
		return bson.D{{Key: "createdAt", Value: -1}}
	case "popular":
		return bson.D{{Key: "currentParticipants", Value: -1}, {Key: "startDate", Value: 1}}
	default:
		return bson.D{{Key: "startDate", Value: 1}}
	}
}

func (r *MongoChallenges) Create(ctx context.Context, c *models.Challenge) error {
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, c); err != nil {
		return apperr.Internal("insert challenge", err)
	}
	return nil
}

func (r *MongoChallenges) FindByID(ctx context.Context, id bson.ObjectID) (*models.Challenge, error) {
	var c models.Challenge
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, findErr(err, "Challenge not found.")
	}
	return &c, nil
}

func (r *MongoChallenges) List(ctx context.Context, q models.ListQuery) ([]models.Challenge, int64, error) {
	opts := options.Find().
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit)).
		SetSort(challengeSort(q.Sort))

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, apperr.Internal("find challenges", err)
	}
	defer cursor.Close(ctx)

	items, err := decodeAll[models.Challenge](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, apperr.Internal("count challenges", err)
	}
	return items, total, nil
}

func (r *MongoChallenges) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.Challenge, error) {
	if len(ids) == 0 {
		return []models.Challenge{}, nil
	}
	return r.findMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(challengeSort("")))
}

func (r *MongoChallenges) Search(ctx context.Context, text string, limit int) ([]models.Challenge, error) {
	return r.findMany(ctx, bson.M{"title": titleRegex(text)}, options.Find().SetLimit(int64(limit)))
}

func (r *MongoChallenges) findMany(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]models.Challenge, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Internal("find challenges", err)
	}
	defer cursor.Close(ctx)
	return decodeAll[models.Challenge](ctx, cursor)
}

func (r *MongoChallenges) Update(ctx context.Context, id bson.ObjectID, upd models.ChallengeUpdate) error {
	set := bson.M{}
	if upd.StartDate != nil {
		set["startDate"] = *upd.StartDate
	}
	if upd.EndDate != nil {
		set["endDate"] = *upd.EndDate
	}
	if upd.MaxParticipants != nil {
		set["maxParticipants"] = *upd.MaxParticipants
	} else if upd.ClearMax {
		set["maxParticipants"] = nil
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Image != nil {
		set["image"] = *upd.Image
	}
	if len(set) == 0 {
		return nil
	}

	filter := bson.M{"_id": id}
	if upd.MaxParticipants != nil {
		// never shrink below the current head count, even under concurrent registrations
		filter["currentParticipants"] = bson.M{"$lte": *upd.MaxParticipants}
	}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return apperr.Internal("update challenge", err)
	}
	if res.MatchedCount == 0 {
		if upd.MaxParticipants != nil {
			if _, err := r.FindByID(ctx, id); err != nil {
				return err
			}
			return apperr.Validation("maxParticipants cannot be lower than the current number of participants.")
		}
		return apperr.NotFound("Challenge not found.")
	}
	return nil
}

func (r *MongoChallenges) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Internal("delete challenge", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Challenge not found.")
	}
	return nil
}

// ChallengeSlots is the currentParticipants counter. A slot is only handed
// out while the challenge is open and below maxParticipants, in one update.
type ChallengeSlots struct {
	membership.FieldCounter
}

func (s ChallengeSlots) Reserve(ctx context.Context, id bson.ObjectID) (bool, error) {
	filter := bson.M{
		"_id":    id,
		"status": models.ChallengeOpen,
		"$or": bson.A{
			bson.M{"maxParticipants": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$" + s.Field, "$maxParticipants"}}},
		},
	}
	res, err := s.Col.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{s.Field: 1}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// MongoParticipants stores one document per registration in challengeparticipants.
type MongoParticipants struct {
	membership.PairSet
	col   *mongo.Collection
	users string
}

func (r *MongoParticipants) List(ctx context.Context, challengeID bson.ObjectID) ([]models.Participant, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"challengeId": challengeID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         r.users,
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$project", Value: bson.M{
			"_id":          0,
			"userId":       1,
			"registeredAt": 1,
			"username":     "$user.username",
			"avatarUrl":    "$user.avatarUrl",
		}}},
		{{Key: "$sort", Value: bson.M{"registeredAt": 1}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Internal("aggregate participants", err)
	}
	defer cursor.Close(ctx)
	return decodeAll[models.Participant](ctx, cursor)
}

func (r *MongoParticipants) ChallengeIDs(ctx context.Context, userID bson.ObjectID) ([]bson.ObjectID, error) {
	cursor, err := r.col.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.M{"registeredAt": -1}))
	if err != nil {
		return nil, apperr.Internal("find participations", err)
	}
	defer cursor.Close(ctx)

	rows, err := decodeAll[models.Participation](ctx, cursor)
	if err != nil {
		return nil, err
	}
	ids := make([]bson.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ChallengeID)
	}
	return ids, nil
}

func (r *MongoParticipants) DeleteForChallenge(ctx context.Context, challengeID bson.ObjectID) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{"challengeId": challengeID}); err != nil {
		return apperr.Internal("delete participants", err)
	}
	return nil
}
