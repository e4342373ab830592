package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ChallengeStatus string

const (
	ChallengeOpen     ChallengeStatus = "open"
	ChallengeClosed   ChallengeStatus = "closed"
	ChallengeFinished ChallengeStatus = "finished"
)

func (s ChallengeStatus) Valid() bool {
	switch s {
	case ChallengeOpen, ChallengeClosed, ChallengeFinished:
		return true
	}
	return false
}

type Challenge struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Image       string        `bson:"image" json:"image"`
	Description string        `bson:"description" json:"description"`
	StartDate   time.Time     `bson:"startDate" json:"startDate"`
	EndDate     time.Time     `bson:"endDate" json:"endDate"`
	// MaxParticipants nil means unlimited.
	MaxParticipants     *int            `bson:"maxParticipants" json:"maxParticipants"`
	CurrentParticipants int             `bson:"currentParticipants" json:"currentParticipants"`
	Status              ChallengeStatus `bson:"status" json:"status"`
	CreatorID           bson.ObjectID   `bson:"creatorId" json:"creatorId"`
	CreatedAt           time.Time       `bson:"createdAt" json:"createdAt"`
}

func (c *Challenge) Full() bool {
	return c.MaxParticipants != nil && c.CurrentParticipants >= *c.MaxParticipants
}

type ChallengeUpdate struct {
	StartDate       *time.Time
	EndDate         *time.Time
	MaxParticipants *int
	ClearMax        bool
	Status          *ChallengeStatus
	Image           *string
}

// Participation is one row of the challenge/user relation.
type Participation struct {
	ChallengeID  bson.ObjectID `bson:"challengeId" json:"challengeId"`
	UserID       bson.ObjectID `bson:"userId" json:"userId"`
	RegisteredAt time.Time     `bson:"registeredAt" json:"registeredAt"`
}

// Participant is a participation joined with the user's public fields.
type Participant struct {
	UserID       bson.ObjectID `bson:"userId" json:"userId"`
	Username     string        `bson:"username" json:"username"`
	AvatarURL    string        `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	RegisteredAt time.Time     `bson:"registeredAt" json:"registeredAt"`
}
