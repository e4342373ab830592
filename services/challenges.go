package services

import (
	"context"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/membership"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/repositories"
	"github.com/princinho/cragbase/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type ChallengeService struct {
	challenges    repositories.ChallengeRepository
	participants  repositories.ParticipantRepository
	registrations *membership.Mutator
	media         Uploader
	now           func() time.Time
}

func parseDate(raw, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Validation("Invalid " + field + ".")
}

// parseMax returns nil for an empty value, meaning no participant limit.
func parseMax(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, apperr.Validation("maxParticipants must be a non-negative integer.")
	}
	return &n, nil
}

func (s *ChallengeService) List(ctx context.Context, q models.ListQuery) (*models.Page[models.Challenge], error) {
	switch q.Sort {
	case "recent", "popular":
	default:
		q.Sort = "startDate"
	}
	items, total, err := s.challenges.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.Challenge]{Items: items, Page: q.Page, Limit: q.Limit, Total: total}, nil
}

func (s *ChallengeService) Get(ctx context.Context, id bson.ObjectID) (*models.Challenge, error) {
	return s.challenges.FindByID(ctx, id)
}

func (s *ChallengeService) Participants(ctx context.Context, id bson.ObjectID) ([]models.Participant, error) {
	if _, err := s.challenges.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.participants.List(ctx, id)
}

func (s *ChallengeService) Create(ctx context.Context, creatorID bson.ObjectID, in dto.CreateChallengeDTO, image *multipart.FileHeader) (*models.Challenge, error) {
	title := utils.SanitizeText(in.Title)
	description := utils.SanitizeText(in.Description)
	if title == "" || description == "" || in.StartDate == "" || in.EndDate == "" || image == nil {
		return nil, apperr.Validation("Title, description, startDate, endDate and image are required.")
	}
	start, err := parseDate(in.StartDate, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := parseDate(in.EndDate, "endDate")
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, apperr.Validation("startDate must be before endDate.")
	}
	limit, err := parseMax(in.MaxParticipants)
	if err != nil {
		return nil, err
	}

	urls, err := s.media.Upload(ctx, "challenges", []*multipart.FileHeader{image})
	if err != nil {
		return nil, err
	}

	c := &models.Challenge{
		Title:           title,
		Description:     description,
		Image:           urls[0],
		StartDate:       start,
		EndDate:         end,
		MaxParticipants: limit,
		Status:          models.ChallengeOpen,
		CreatorID:       creatorID,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.challenges.Create(ctx, c); err != nil {
		s.media.Remove(ctx, urls)
		return nil, err
	}
	return c, nil
}

func (s *ChallengeService) Update(ctx context.Context, userID, id bson.ObjectID, in dto.UpdateChallengeDTO, image *multipart.FileHeader) (*models.Challenge, error) {
	c, err := s.challenges.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.CreatorID != userID {
		return nil, apperr.Forbidden("Only the creator can update this challenge.")
	}

	var upd models.ChallengeUpdate
	start, end := c.StartDate, c.EndDate
	if in.StartDate != nil {
		if start, err = parseDate(*in.StartDate, "startDate"); err != nil {
			return nil, err
		}
		upd.StartDate = &start
	}
	if in.EndDate != nil {
		if end, err = parseDate(*in.EndDate, "endDate"); err != nil {
			return nil, err
		}
		upd.EndDate = &end
	}
	if !start.Before(end) {
		return nil, apperr.Validation("startDate must be before endDate.")
	}
	if in.MaxParticipants != nil {
		limit, err := parseMax(*in.MaxParticipants)
		if err != nil {
			return nil, err
		}
		if limit == nil {
			upd.ClearMax = true
		} else if *limit < c.CurrentParticipants {
			return nil, apperr.Validation("maxParticipants cannot be lower than the current number of participants.")
		} else {
			upd.MaxParticipants = limit
		}
	}
	if in.Status != nil {
		status := models.ChallengeStatus(strings.ToLower(strings.TrimSpace(*in.Status)))
		if !status.Valid() {
			return nil, apperr.Validation("status must be one of open, closed, finished.")
		}
		upd.Status = &status
	}
	if image != nil {
		urls, err := s.media.Upload(ctx, "challenges", []*multipart.FileHeader{image})
		if err != nil {
			return nil, err
		}
		upd.Image = &urls[0]
	}

	if err := s.challenges.Update(ctx, id, upd); err != nil {
		if upd.Image != nil {
			s.media.Remove(ctx, []string{*upd.Image})
		}
		return nil, err
	}
	if upd.Image != nil {
		s.media.Remove(ctx, []string{c.Image})
	}
	return s.challenges.FindByID(ctx, id)
}

// Delete removes the challenge and its participant records. Only the creator may delete.
func (s *ChallengeService) Delete(ctx context.Context, userID, id bson.ObjectID) error {
	c, err := s.challenges.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c.CreatorID != userID {
		return apperr.Forbidden("Only the creator can delete this challenge.")
	}
	if err := s.participants.DeleteForChallenge(ctx, id); err != nil {
		return err
	}
	if err := s.challenges.Delete(ctx, id); err != nil {
		return err
	}
	s.media.Remove(ctx, []string{c.Image})
	return nil
}

// Register signs userID up for an open challenge that still has room. The
// slot is reserved atomically on the challenge before the participant record
// is written, so concurrent registrations never exceed maxParticipants.
func (s *ChallengeService) Register(ctx context.Context, userID, id bson.ObjectID) error {
	c, err := s.challenges.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != models.ChallengeOpen {
		return apperr.Forbidden("Challenge is not open for registration.")
	}
	if c.Full() {
		return apperr.Forbidden("Challenge is already full.")
	}
	err = s.registrations.Add(ctx, userID, id)
	if apperr.Is(err, apperr.KindForbidden) {
		// status may have changed since the read above
		if latest, ferr := s.challenges.FindByID(ctx, id); ferr == nil && latest.Status != models.ChallengeOpen {
			return apperr.Forbidden("Challenge is not open for registration.")
		}
	}
	return err
}

func (s *ChallengeService) Unregister(ctx context.Context, userID, id bson.ObjectID) error {
	c, err := s.challenges.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != models.ChallengeOpen {
		return apperr.Forbidden("Challenge is not open for unregistration.")
	}
	return s.registrations.Remove(ctx, userID, id)
}

// Registered lists the challenges userID is registered for, latest registration first.
func (s *ChallengeService) Registered(ctx context.Context, userID bson.ObjectID) ([]models.Challenge, error) {
	ids, err := s.participants.ChallengeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.challenges.FindByIDs(ctx, ids)
}
