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
)

// PostEditWindow is how long after publishing the creator may still edit a post.
const PostEditWindow = time.Hour

type PostService struct {
	posts   repositories.PostRepository
	routes  repositories.RouteRepository
	likes   *membership.Mutator
	likeLog repositories.LikeRepository
	media   Uploader
	now     func() time.Time
}

func (s *PostService) List(ctx context.Context, q models.ListQuery) (*models.Page[models.Post], error) {
	if q.Sort != "likes" {
		q.Sort = "date"
	}
	items, total, err := s.posts.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.Post]{Items: items, Page: q.Page, Limit: q.Limit, Total: total}, nil
}

func (s *PostService) Get(ctx context.Context, id bson.ObjectID) (*models.Post, error) {
	return s.posts.FindByID(ctx, id)
}

func (s *PostService) Create(ctx context.Context, creatorID bson.ObjectID, in dto.CreatePostDTO, photo *multipart.FileHeader) (*models.Post, error) {
	title := utils.SanitizeText(in.Title)
	if title == "" || photo == nil {
		return nil, apperr.Validation("Title and photo are required.")
	}

	post := &models.Post{Title: title, CreatorID: creatorID}
	if in.RouteID != "" {
		routeID, err := ParseID(in.RouteID, "route")
		if err != nil {
			return nil, err
		}
		if _, err := s.routes.FindByID(ctx, routeID); err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return nil, apperr.Validation("routeId does not reference an existing route.")
			}
			return nil, err
		}
		post.RouteID = &routeID
	}

	urls, err := s.media.Upload(ctx, "posts", []*multipart.FileHeader{photo})
	if err != nil {
		return nil, err
	}
	post.Photo = urls[0]
	post.Date = s.now().UTC()

	if err := s.posts.Create(ctx, post); err != nil {
		s.media.Remove(ctx, urls)
		return nil, err
	}
	return post, nil
}

// Update lets the creator change a post during PostEditWindow.
func (s *PostService) Update(ctx context.Context, userID, id bson.ObjectID, in dto.UpdatePostDTO, photo *multipart.FileHeader) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.CreatorID != userID {
		return nil, apperr.Forbidden("Only the creator can edit this post.")
	}
	if s.now().Sub(post.Date) > PostEditWindow {
		return nil, apperr.Forbidden("Posts can only be edited within 1 hour of creation.")
	}

	var upd models.PostUpdate
	if in.Title != nil {
		title := utils.SanitizeText(*in.Title)
		if title == "" {
			return nil, apperr.Validation("Title cannot be empty.")
		}
		upd.Title = &title
	}

	var stale []string
	if photo != nil {
		urls, err := s.media.Upload(ctx, "posts", []*multipart.FileHeader{photo})
		if err != nil {
			return nil, err
		}
		upd.Photo = &urls[0]
		stale = append(stale, post.Photo)
	} else if in.DeleteExistingPhoto && post.Photo != "" {
		upd.ClearPhoto = true
		stale = append(stale, post.Photo)
	}

	if err := s.posts.Update(ctx, id, upd); err != nil {
		if upd.Photo != nil {
			s.media.Remove(ctx, []string{*upd.Photo})
		}
		return nil, err
	}
	s.media.Remove(ctx, stale)
	return s.posts.FindByID(ctx, id)
}

func (s *PostService) Delete(ctx context.Context, userID, id bson.ObjectID) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if post.CreatorID != userID {
		return apperr.Forbidden("Only the creator can delete this post.")
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.media.Remove(ctx, []string{post.Photo})
	return nil
}

func (s *PostService) Like(ctx context.Context, userID, id bson.ObjectID) error {
	return s.likes.Add(ctx, userID, id)
}

func (s *PostService) Unlike(ctx context.Context, userID, id bson.ObjectID) error {
	return s.likes.Remove(ctx, userID, id)
}

func (s *PostService) Liked(ctx context.Context, userID bson.ObjectID) ([]models.Post, error) {
	ids, err := s.likeLog.LikedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.posts.FindByIDs(ctx, ids)
}
