package repositories

import (
	"context"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoPosts struct {
	col *mongo.Collection
}

func postSort(sort string) bson.D {
	if sort == "likes" {
		return bson.D{{Key: "likes", Value: -1}, {Key: "date", Value: -1}}
	}
	return bson.D{{Key: "date", Value: -1}}
}

func (r *MongoPosts) Create(ctx context.Context, p *models.Post) error {
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return apperr.Internal("insert post", err)
	}
	return nil
}

func (r *MongoPosts) FindByID(ctx context.Context, id bson.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, findErr(err, "Post not found.")
	}
	return &p, nil
}

func (r *MongoPosts) List(ctx context.Context, q models.ListQuery) ([]models.Post, int64, error) {
	opts := options.Find().
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit)).
		SetSort(postSort(q.Sort))

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, apperr.Internal("find posts", err)
	}
	defer cursor.Close(ctx)

	items, err := decodeAll[models.Post](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, apperr.Internal("count posts", err)
	}
	return items, total, nil
}

func (r *MongoPosts) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(postSort("")))
	if err != nil {
		return nil, apperr.Internal("find posts", err)
	}
	defer cursor.Close(ctx)
	return decodeAll[models.Post](ctx, cursor)
}

func (r *MongoPosts) Update(ctx context.Context, id bson.ObjectID, upd models.PostUpdate) error {
	set := bson.M{}
	unset := bson.M{}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Photo != nil {
		set["photo"] = *upd.Photo
	} else if upd.ClearPhoto {
		unset["photo"] = ""
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(update) == 0 {
		return nil
	}
	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return apperr.Internal("update post", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Post not found.")
	}
	return nil
}

func (r *MongoPosts) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Internal("delete post", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Post not found.")
	}
	return nil
}
