package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Post struct {
	ID        bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title     string         `bson:"title" json:"title"`
	Photo     string         `bson:"photo,omitempty" json:"photo,omitempty"`
	Likes     int            `bson:"likes" json:"likes"`
	CreatorID bson.ObjectID  `bson:"creatorId" json:"creatorId"`
	RouteID   *bson.ObjectID `bson:"routeId,omitempty" json:"routeId,omitempty"`
	Date      time.Time      `bson:"date" json:"date"`
}

type PostUpdate struct {
	Title      *string
	Photo      *string
	ClearPhoto bool
}
