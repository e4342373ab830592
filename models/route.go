package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Route struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string        `bson:"title" json:"title"`
	Description     string        `bson:"description" json:"description"`
	Images          []string      `bson:"images" json:"images"`
	Videos          []string      `bson:"videos" json:"videos"`
	DifficultyLevel string        `bson:"difficultyLevel" json:"difficultyLevel"`
	GeoLocation     string        `bson:"geoLocation" json:"geoLocation"`
	AccessCost      float64       `bson:"accessCost" json:"accessCost"`
	ClimbType       string        `bson:"climbType" json:"climbType"`
	RecommendedGear string        `bson:"recommendedGear,omitempty" json:"recommendedGear,omitempty"`
	Likes           int           `bson:"likes" json:"likes"`
	ClimbedCount    int           `bson:"climbedCount" json:"climbedCount"`
	AttemptedCount  int           `bson:"attemptedCount" json:"attemptedCount"`
	CreatorID       bson.ObjectID `bson:"creatorId" json:"creatorId"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
	LastUpdated     time.Time     `bson:"lastUpdated" json:"lastUpdated"`
}

// ClimbRecord marks that a user completed a route at ClimbedAt.
type ClimbRecord struct {
	RouteID   bson.ObjectID `bson:"routeId" json:"routeId"`
	ClimbedAt time.Time     `bson:"climbedAt" json:"climbedAt"`
}

// ClimbedRoute is a route the user climbed, with the completion time.
type ClimbedRoute struct {
	Route     Route     `json:"route"`
	ClimbedAt time.Time `json:"climbedAt"`
}
