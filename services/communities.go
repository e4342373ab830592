package services

import (
	"context"
	"mime/multipart"
	"time"
	"unicode/utf8"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/membership"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/repositories"
	"github.com/princinho/cragbase/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const minCommunityNameLen = 3

// CommunityService enforces the community rules: the creator is always a
// member and an admin, and the admin set is never empty.
type CommunityService struct {
	communities repositories.CommunityRepository
	challenges  repositories.ChallengeRepository
	members     *membership.Mutator
	media       Uploader
	now         func() time.Time
}

func validName(raw string) (string, error) {
	name := utils.SanitizeText(raw)
	if utf8.RuneCountInString(name) < minCommunityNameLen {
		return "", apperr.Validation("Community name must be at least 3 characters long.")
	}
	return name, nil
}

func (s *CommunityService) List(ctx context.Context, q models.ListQuery) (*models.Page[models.Community], error) {
	if q.Sort != "members" {
		q.Sort = "createdAt"
	}
	items, total, err := s.communities.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.Community]{Items: items, Page: q.Page, Limit: q.Limit, Total: total}, nil
}

func (s *CommunityService) Get(ctx context.Context, id bson.ObjectID) (*models.Community, error) {
	return s.communities.FindByID(ctx, id)
}

func (s *CommunityService) Create(ctx context.Context, creatorID bson.ObjectID, in dto.CreateCommunityDTO, image *multipart.FileHeader) (*models.Community, error) {
	name, err := validName(in.Name)
	if err != nil {
		return nil, err
	}
	description := utils.SanitizeText(in.Description)
	if description == "" {
		return nil, apperr.Validation("Description is required.")
	}

	c := &models.Community{
		Name:         name,
		Description:  description,
		MemberCount:  1,
		AdminIDs:     []bson.ObjectID{creatorID},
		MemberIDs:    []bson.ObjectID{creatorID},
		ChallengeIDs: []bson.ObjectID{},
		CreatorID:    creatorID,
		CreatedAt:    s.now().UTC(),
	}
	if image != nil {
		urls, err := s.media.Upload(ctx, "communities", []*multipart.FileHeader{image})
		if err != nil {
			return nil, err
		}
		c.Image = urls[0]
	}
	if err := s.communities.Create(ctx, c); err != nil {
		s.media.Remove(ctx, []string{c.Image})
		return nil, err
	}
	return c, nil
}

// loadAsAdmin returns the community when actor is one of its admins.
func (s *CommunityService) loadAsAdmin(ctx context.Context, actor, id bson.ObjectID) (*models.Community, error) {
	c, err := s.communities.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsAdmin(actor) {
		return nil, apperr.Forbidden("Only community admins can do this.")
	}
	return c, nil
}

func (s *CommunityService) Update(ctx context.Context, actor, id bson.ObjectID, in dto.UpdateCommunityDTO, image *multipart.FileHeader) (*models.Community, error) {
	c, err := s.loadAsAdmin(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	var upd models.CommunityUpdate
	if in.Name != nil {
		name, err := validName(*in.Name)
		if err != nil {
			return nil, err
		}
		upd.Name = &name
	}
	if in.Description != nil {
		description := utils.SanitizeText(*in.Description)
		if description == "" {
			return nil, apperr.Validation("Description cannot be empty.")
		}
		upd.Description = &description
	}
	if image != nil {
		urls, err := s.media.Upload(ctx, "communities", []*multipart.FileHeader{image})
		if err != nil {
			return nil, err
		}
		upd.Image = &urls[0]
	}

	if err := s.communities.Update(ctx, id, upd); err != nil {
		if upd.Image != nil {
			s.media.Remove(ctx, []string{*upd.Image})
		}
		return nil, err
	}
	if upd.Image != nil {
		s.media.Remove(ctx, []string{c.Image})
	}
	return s.communities.FindByID(ctx, id)
}

func (s *CommunityService) Delete(ctx context.Context, actor, id bson.ObjectID) error {
	c, err := s.communities.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c.CreatorID != actor {
		return apperr.Forbidden("Only the creator can delete this community.")
	}
	if err := s.communities.Delete(ctx, id); err != nil {
		return err
	}
	s.media.Remove(ctx, []string{c.Image})
	return nil
}

func (s *CommunityService) Join(ctx context.Context, userID, id bson.ObjectID) error {
	return s.members.Add(ctx, userID, id)
}

func (s *CommunityService) Leave(ctx context.Context, userID, id bson.ObjectID) error {
	c, err := s.communities.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c.CreatorID == userID {
		return apperr.Forbidden("The creator cannot leave the community.")
	}
	return s.members.Remove(ctx, userID, id)
}

func (s *CommunityService) RemoveMember(ctx context.Context, actor, id, member bson.ObjectID) error {
	c, err := s.loadAsAdmin(ctx, actor, id)
	if err != nil {
		return err
	}
	if member == c.CreatorID {
		return apperr.Forbidden("The creator cannot be removed from the community.")
	}
	if member == actor {
		return apperr.Validation("Use leave to remove yourself from the community.")
	}
	return s.members.Remove(ctx, member, id)
}

func (s *CommunityService) AddAdmin(ctx context.Context, actor, id, target bson.ObjectID) error {
	c, err := s.loadAsAdmin(ctx, actor, id)
	if err != nil {
		return err
	}
	if !c.IsMember(target) {
		return apperr.Forbidden("User must be a member to become an admin.")
	}
	if c.IsAdmin(target) {
		return apperr.Conflict("User is already an admin.")
	}
	changed, err := s.communities.AddAdmin(ctx, id, target)
	if err != nil {
		return err
	}
	if !changed {
		return apperr.Conflict("User is already an admin or no longer a member.")
	}
	return nil
}

func (s *CommunityService) RemoveAdmin(ctx context.Context, actor, id, target bson.ObjectID) error {
	c, err := s.loadAsAdmin(ctx, actor, id)
	if err != nil {
		return err
	}
	if target == c.CreatorID {
		return apperr.Forbidden("The creator's admin rights cannot be removed.")
	}
	if target == actor {
		return apperr.Validation("Admins cannot remove their own admin rights.")
	}
	if !c.IsAdmin(target) {
		return apperr.NotFound("User is not an admin of this community.")
	}
	if len(c.AdminIDs) < 2 {
		return apperr.Forbidden("Cannot remove the last admin.")
	}
	changed, err := s.communities.RemoveAdmin(ctx, id, target)
	if err != nil {
		return err
	}
	if !changed {
		return apperr.Forbidden("Admin could not be removed.")
	}
	return nil
}

func (s *CommunityService) AddChallenge(ctx context.Context, actor, id, challengeID bson.ObjectID) error {
	if _, err := s.loadAsAdmin(ctx, actor, id); err != nil {
		return err
	}
	if _, err := s.challenges.FindByID(ctx, challengeID); err != nil {
		return err
	}
	changed, err := s.communities.AddChallenge(ctx, id, challengeID)
	if err != nil {
		return err
	}
	if !changed {
		return apperr.Conflict("Challenge is already part of this community.")
	}
	return nil
}

func (s *CommunityService) RemoveChallenge(ctx context.Context, actor, id, challengeID bson.ObjectID) error {
	if _, err := s.loadAsAdmin(ctx, actor, id); err != nil {
		return err
	}
	changed, err := s.communities.RemoveChallenge(ctx, id, challengeID)
	if err != nil {
		return err
	}
	if !changed {
		return apperr.NotFound("Challenge is not part of this community.")
	}
	return nil
}

func (s *CommunityService) Members(ctx context.Context, id bson.ObjectID) ([]bson.ObjectID, error) {
	c, err := s.communities.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.MemberIDs, nil
}

func (s *CommunityService) Admins(ctx context.Context, id bson.ObjectID) ([]bson.ObjectID, error) {
	c, err := s.communities.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.AdminIDs, nil
}

func (s *CommunityService) Challenges(ctx context.Context, id bson.ObjectID) ([]bson.ObjectID, error) {
	c, err := s.communities.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.ChallengeIDs, nil
}
