package services

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/repositories"
	"github.com/princinho/cragbase/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const maxBiographyLen = 500

type ProfileService struct {
	users        repositories.UserRepository
	routes       repositories.RouteRepository
	routeLikes   repositories.LikeRepository
	climbs       repositories.ClimbRepository
	communities  repositories.CommunityRepository
	challenges   repositories.ChallengeRepository
	participants repositories.ParticipantRepository
	media        Uploader
	now          func() time.Time
}

func (s *ProfileService) Me(ctx context.Context, userID bson.ObjectID) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *ProfileService) Public(ctx context.Context, id bson.ObjectID) (*models.PublicUser, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := u.Public()
	return &p, nil
}

func (s *ProfileService) UpdateMe(ctx context.Context, userID bson.ObjectID, in dto.UpdateProfileDTO, avatar *multipart.FileHeader) (*models.User, error) {
	current, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	upd := models.ProfileUpdate{UpdatedAt: s.now().UTC()}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" || utils.SanitizeText(username) != username || strings.ContainsAny(username, " \t\n@") {
			return nil, apperr.Validation("Invalid username.")
		}
		upd.Username = &username
	}
	if in.Biography != nil {
		bio := utils.SanitizeText(*in.Biography)
		if len([]rune(bio)) > maxBiographyLen {
			return nil, apperr.Validation("Biography is too long (max 500 characters).")
		}
		upd.Biography = &bio
	}

	var stale []string
	if avatar != nil {
		urls, err := s.media.Upload(ctx, "avatars", []*multipart.FileHeader{avatar})
		if err != nil {
			return nil, err
		}
		upd.AvatarURL = &urls[0]
		stale = append(stale, current.AvatarURL)
	} else if in.DeleteExistingAvatar && current.AvatarURL != "" {
		upd.ClearAvatar = true
		stale = append(stale, current.AvatarURL)
	}

	if err := s.users.UpdateProfile(ctx, userID, upd); err != nil {
		if upd.AvatarURL != nil {
			s.media.Remove(ctx, []string{*upd.AvatarURL})
		}
		return nil, err
	}
	s.media.Remove(ctx, stale)
	return s.users.FindByID(ctx, userID)
}

func (s *ProfileService) CreatedRoutes(ctx context.Context, userID bson.ObjectID) ([]models.Route, error) {
	return s.routes.ListByCreator(ctx, userID)
}

func (s *ProfileService) LikedRoutes(ctx context.Context, userID bson.ObjectID) ([]models.Route, error) {
	ids, err := s.routeLikes.LikedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.routes.FindByIDs(ctx, ids)
}

// ClimbedRoutes lists the user's climbed routes, most recent climb first.
// Climbs of routes that no longer exist are skipped.
func (s *ProfileService) ClimbedRoutes(ctx context.Context, userID bson.ObjectID) ([]models.ClimbedRoute, error) {
	climbs, err := s.climbs.Climbs(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]bson.ObjectID, 0, len(climbs))
	for _, c := range climbs {
		ids = append(ids, c.RouteID)
	}
	routes, err := s.routes.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[bson.ObjectID]models.Route, len(routes))
	for _, r := range routes {
		byID[r.ID] = r
	}

	out := make([]models.ClimbedRoute, 0, len(climbs))
	for i := len(climbs) - 1; i >= 0; i-- {
		if r, ok := byID[climbs[i].RouteID]; ok {
			out = append(out, models.ClimbedRoute{Route: r, ClimbedAt: climbs[i].ClimbedAt})
		}
	}
	return out, nil
}

func (s *ProfileService) Communities(ctx context.Context, userID bson.ObjectID) ([]models.Community, error) {
	return s.communities.ListForMember(ctx, userID)
}

func (s *ProfileService) Challenges(ctx context.Context, userID bson.ObjectID) ([]models.Challenge, error) {
	ids, err := s.participants.ChallengeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.challenges.FindByIDs(ctx, ids)
}
