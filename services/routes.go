package services

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/membership"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/repositories"
	"github.com/princinho/cragbase/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

const (
	// UndoClimbWindow bounds how long after marking a route as climbed the mark can be undone.
	UndoClimbWindow = 10 * time.Minute

	maxRouteImages = 10
	maxRouteVideos = 5
)

type RouteService struct {
	routes   repositories.RouteRepository
	likes    *membership.Mutator
	climbs   *membership.Mutator
	climbLog repositories.ClimbRepository
	media    Uploader
	now      func() time.Time
	log      *zap.Logger
}

func (s *RouteService) List(ctx context.Context, q models.ListQuery) (*models.Page[models.Route], error) {
	if q.Sort != "recent" {
		q.Sort = "likes"
	}
	items, total, err := s.routes.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.Route]{Items: items, Page: q.Page, Limit: q.Limit, Total: total}, nil
}

func (s *RouteService) Get(ctx context.Context, id bson.ObjectID) (*models.Route, error) {
	return s.routes.FindByID(ctx, id)
}

func (s *RouteService) Create(ctx context.Context, creatorID bson.ObjectID, in dto.CreateRouteDTO, images, videos []*multipart.FileHeader) (*models.Route, error) {
	route := &models.Route{
		Title:           utils.SanitizeText(in.Title),
		Description:     utils.SanitizeText(in.Description),
		DifficultyLevel: utils.SanitizeText(in.DifficultyLevel),
		ClimbType:       utils.SanitizeText(in.ClimbType),
		GeoLocation:     utils.SanitizeText(in.GeoLocation),
		RecommendedGear: utils.SanitizeText(in.RecommendedGear),
		Images:          []string{},
		Videos:          []string{},
		CreatorID:       creatorID,
	}
	if route.Title == "" || route.Description == "" || route.DifficultyLevel == "" || route.ClimbType == "" || route.GeoLocation == "" {
		return nil, apperr.Validation("Missing required route fields (title, description, difficultyLevel, climbType, geoLocation).")
	}
	if in.AccessCost != nil {
		if *in.AccessCost < 0 {
			return nil, apperr.Validation("accessCost cannot be negative.")
		}
		route.AccessCost = *in.AccessCost
	}
	if len(images) > maxRouteImages || len(videos) > maxRouteVideos {
		return nil, apperr.Validation("Too many files: at most 10 images and 5 videos.")
	}

	var err error
	if len(images) > 0 {
		if route.Images, err = s.media.Upload(ctx, "routes/images", images); err != nil {
			return nil, err
		}
	}
	if len(videos) > 0 {
		if route.Videos, err = s.media.Upload(ctx, "routes/videos", videos); err != nil {
			s.media.Remove(ctx, route.Images)
			return nil, err
		}
	}

	now := s.now().UTC()
	route.CreatedAt = now
	route.LastUpdated = now
	if err := s.routes.Create(ctx, route); err != nil {
		s.media.Remove(ctx, append(route.Images, route.Videos...))
		return nil, err
	}
	return route, nil
}

func (s *RouteService) Delete(ctx context.Context, userID, id bson.ObjectID) error {
	route, err := s.routes.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if route.CreatorID != userID {
		return apperr.Forbidden("Only the creator can delete this route.")
	}
	if err := s.routes.Delete(ctx, id); err != nil {
		return err
	}
	s.media.Remove(ctx, append(route.Images, route.Videos...))
	return nil
}

func (s *RouteService) Like(ctx context.Context, userID, id bson.ObjectID) error {
	return s.likes.Add(ctx, userID, id)
}

func (s *RouteService) Unlike(ctx context.Context, userID, id bson.ObjectID) error {
	return s.likes.Remove(ctx, userID, id)
}

func (s *RouteService) MarkClimbed(ctx context.Context, userID, id bson.ObjectID) error {
	return s.climbs.Add(ctx, userID, id)
}

// UndoClimbed removes the climbed mark, but only within UndoClimbWindow of
// when it was made. Outside the window the record and the counter are left
// untouched.
func (s *RouteService) UndoClimbed(ctx context.Context, userID, id bson.ObjectID) error {
	climbedAt, ok, err := s.climbLog.ClimbedAt(ctx, userID, id)
	if err != nil {
		return apperr.Internal("find climb", err)
	}
	if ok && s.now().Sub(climbedAt) > UndoClimbWindow {
		return apperr.Forbidden("A climb can only be undone within 10 minutes.")
	}
	return s.climbs.Remove(ctx, userID, id)
}
