// Package services holds the application logic behind the HTTP handlers.
package services

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/membership"
	"github.com/princinho/cragbase/repositories"
	"github.com/princinho/cragbase/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// Uploader stores user media and returns public URLs.
type Uploader interface {
	Upload(ctx context.Context, folder string, files []*multipart.FileHeader) ([]string, error)
	Remove(ctx context.Context, urls []string)
}

// Recorder receives auth and membership events for metrics.
type Recorder interface {
	membership.Recorder
	RecordAuth(event, outcome string)
}

type Deps struct {
	Store      *repositories.Store
	Signer     *utils.TokenSigner
	RefreshTTL time.Duration
	Media      Uploader
	Recorder   Recorder
	Log        *zap.Logger
	Now        func() time.Time
}

type Services struct {
	Auth        *AuthService
	Routes      *RouteService
	Posts       *PostService
	Challenges  *ChallengeService
	Communities *CommunityService
	Profiles    *ProfileService
	Search      *SearchService
}

func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	s := d.Store

	postLikes := membership.NewMutator("post_like", s.PostLikes, s.PostLikeCounter, membership.Messages{
		TargetNotFound: "Post not found.",
		AlreadyMember:  "Post already liked.",
		NotMember:      "Post was not liked.",
	}, d.Recorder)
	routeLikes := membership.NewMutator("route_like", s.RouteLikes, s.RouteLikeCounter, membership.Messages{
		TargetNotFound: "Route not found.",
		AlreadyMember:  "Route already liked.",
		NotMember:      "Route was not liked.",
	}, d.Recorder)
	climbs := membership.NewMutator("route_climb", s.Climbs, s.RouteClimbCounter, membership.Messages{
		TargetNotFound: "Route not found.",
		AlreadyMember:  "Route already marked as climbed.",
		NotMember:      "Route was not marked as climbed.",
	}, d.Recorder)
	registrations := membership.NewMutator("challenge_participant", s.Participants, s.ParticipantCounter, membership.Messages{
		TargetNotFound: "Challenge not found.",
		AlreadyMember:  "User is already registered for this challenge.",
		NotMember:      "User was not registered for this challenge.",
		Rejected:       "Challenge is already full.",
	}, d.Recorder)
	members := membership.NewMutator("community_member", s.CommunityMembers, s.CommunityMemberCounter, membership.Messages{
		TargetNotFound: "Community not found.",
		AlreadyMember:  "User is already a member of this community.",
		NotMember:      "User is not a member of this community.",
	}, d.Recorder)

	return &Services{
		Auth: &AuthService{
			users: s.Users, tokens: s.RefreshTokens, signer: d.Signer,
			refreshTTL: d.RefreshTTL, now: d.Now, recorder: d.Recorder, log: d.Log,
		},
		Routes: &RouteService{
			routes: s.Routes, likes: routeLikes, climbs: climbs, climbLog: s.Climbs,
			media: d.Media, now: d.Now, log: d.Log,
		},
		Posts: &PostService{
			posts: s.Posts, routes: s.Routes, likes: postLikes, likeLog: s.PostLikes,
			media: d.Media, now: d.Now,
		},
		Challenges: &ChallengeService{
			challenges: s.Challenges, participants: s.Participants, registrations: registrations,
			media: d.Media, now: d.Now,
		},
		Communities: &CommunityService{
			communities: s.Communities, challenges: s.Challenges, members: members,
			media: d.Media, now: d.Now,
		},
		Profiles: &ProfileService{
			users: s.Users, routes: s.Routes, routeLikes: s.RouteLikes, climbs: s.Climbs,
			communities: s.Communities, challenges: s.Challenges, participants: s.Participants,
			media: d.Media, now: d.Now,
		},
		Search: &SearchService{routes: s.Routes, challenges: s.Challenges, communities: s.Communities},
	}
}

// ParseID turns a path parameter into an ObjectID or a validation error.
func ParseID(raw, what string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		return bson.NilObjectID, apperr.Validation("Invalid " + what + " ID format.")
	}
	return id, nil
}
