package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Community struct {
	ID           bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string          `bson:"name" json:"name"`
	Image        string          `bson:"image,omitempty" json:"image,omitempty"`
	Description  string          `bson:"description" json:"description"`
	MemberCount  int             `bson:"memberCount" json:"memberCount"`
	AdminIDs     []bson.ObjectID `bson:"adminIds" json:"adminIds"`
	MemberIDs    []bson.ObjectID `bson:"memberIds" json:"memberIds"`
	ChallengeIDs []bson.ObjectID `bson:"challengeIds" json:"challengeIds"`
	CreatorID    bson.ObjectID   `bson:"creatorId" json:"creatorId"`
	CreatedAt    time.Time       `bson:"createdAt" json:"createdAt"`
}

func (c *Community) IsAdmin(id bson.ObjectID) bool  { return containsID(c.AdminIDs, id) }
func (c *Community) IsMember(id bson.ObjectID) bool { return containsID(c.MemberIDs, id) }

type CommunityUpdate struct {
	Name        *string
	Description *string
	Image       *string
}

func containsID(ids []bson.ObjectID, id bson.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
