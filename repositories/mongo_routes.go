package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/membership"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoRoutes struct {
	col *mongo.Collection
}

func routeSort(sort string) bson.D {
	if sort == "recent" {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return bson.D{{Key: "likes", Value: -1}, {Key: "createdAt", Value: -1}}
}

func (r *MongoRoutes) Create(ctx context.Context, route *models.Route) error {
	if route.ID.IsZero() {
		route.ID = bson.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, route); err != nil {
		return apperr.Internal("insert route", err)
	}
	return nil
}

func (r *MongoRoutes) FindByID(ctx context.Context, id bson.ObjectID) (*models.Route, error) {
	var route models.Route
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&route); err != nil {
		return nil, findErr(err, "Route not found.")
	}
	return &route, nil
}

func (r *MongoRoutes) List(ctx context.Context, q models.ListQuery) ([]models.Route, int64, error) {
	return r.find(ctx, bson.M{}, q)
}

func (r *MongoRoutes) find(ctx context.Context, filter bson.M, q models.ListQuery) ([]models.Route, int64, error) {
	opts := options.Find().
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit)).
		SetSort(routeSort(q.Sort))

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperr.Internal("find routes", err)
	}
	defer cursor.Close(ctx)

	items, err := decodeAll[models.Route](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal("count routes", err)
	}
	return items, total, nil
}

func (r *MongoRoutes) ListByCreator(ctx context.Context, creatorID bson.ObjectID) ([]models.Route, error) {
	return r.findMany(ctx, bson.M{"creatorId": creatorID}, options.Find().SetSort(routeSort("recent")))
}

func (r *MongoRoutes) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.Route, error) {
	if len(ids) == 0 {
		return []models.Route{}, nil
	}
	return r.findMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

func (r *MongoRoutes) Search(ctx context.Context, text string, limit int) ([]models.Route, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSort(routeSort("likes"))
	return r.findMany(ctx, bson.M{"title": titleRegex(text)}, opts)
}

func (r *MongoRoutes) findMany(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]models.Route, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Internal("find routes", err)
	}
	defer cursor.Close(ctx)
	return decodeAll[models.Route](ctx, cursor)
}

func (r *MongoRoutes) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Internal("delete route", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Route not found.")
	}
	return nil
}

// MongoClimbs keeps {userId, climbedRoutes: [{routeId, climbedAt}]} per user.
// Add relies on the unique userId index: when the user document exists and
// already holds the route the filter does not match and the upsert fails
// with a duplicate key, which means "unchanged".
type MongoClimbs struct {
	col *mongo.Collection
	now func() time.Time
}

func (r *MongoClimbs) Add(ctx context.Context, userID, routeID bson.ObjectID) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"userId": userID, "climbedRoutes.routeId": bson.M{"$ne": routeID}},
		bson.M{"$push": bson.M{"climbedRoutes": models.ClimbRecord{RouteID: routeID, ClimbedAt: r.now().UTC()}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return res.ModifiedCount == 1 || res.UpsertedCount == 1, nil
}

func (r *MongoClimbs) Remove(ctx context.Context, userID, routeID bson.ObjectID) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$pull": bson.M{"climbedRoutes": bson.M{"routeId": routeID}}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

type climbDoc struct {
	UserID        bson.ObjectID        `bson:"userId"`
	ClimbedRoutes []models.ClimbRecord `bson:"climbedRoutes"`
}

func (r *MongoClimbs) Climbs(ctx context.Context, userID bson.ObjectID) ([]models.ClimbRecord, error) {
	var doc climbDoc
	err := r.col.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []models.ClimbRecord{}, nil
	}
	if err != nil {
		return nil, apperr.Internal("find climbs", err)
	}
	if doc.ClimbedRoutes == nil {
		doc.ClimbedRoutes = []models.ClimbRecord{}
	}
	return doc.ClimbedRoutes, nil
}

func (r *MongoClimbs) ClimbedAt(ctx context.Context, userID, routeID bson.ObjectID) (time.Time, bool, error) {
	climbs, err := r.Climbs(ctx, userID)
	if err != nil {
		return time.Time{}, false, err
	}
	for _, c := range climbs {
		if c.RouteID == routeID {
			return c.ClimbedAt, true, nil
		}
	}
	return time.Time{}, false, nil
}

type MongoLikes struct {
	membership.UserListSet
}

func (r *MongoLikes) LikedIDs(ctx context.Context, userID bson.ObjectID) ([]bson.ObjectID, error) {
	ids, err := r.IDs(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("find likes", err)
	}
	return ids, nil
}
