package services

import (
	"context"
	"strings"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/repositories"
)

const searchLimitPerType = 20

type SearchService struct {
	routes      repositories.RouteRepository
	challenges  repositories.ChallengeRepository
	communities repositories.CommunityRepository
}

// Search matches q case-insensitively against route and challenge titles and
// community names. kind is route, challenge, community or all.
func (s *SearchService) Search(ctx context.Context, q, kind string) ([]models.SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperr.Validation("Search query 'q' is required.")
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = "all"
	}
	switch kind {
	case "route", "challenge", "community", "all":
	default:
		return nil, apperr.Validation("Invalid search type. Use route, challenge, community or all.")
	}

	results := make([]models.SearchResult, 0)
	if kind == "route" || kind == "all" {
		routes, err := s.routes.Search(ctx, q, searchLimitPerType)
		if err != nil {
			return nil, err
		}
		for _, r := range routes {
			res := models.SearchResult{Type: "route", ID: r.ID.Hex(), Title: r.Title}
			if len(r.Images) > 0 {
				res.Image = r.Images[0]
			}
			results = append(results, res)
		}
	}
	if kind == "challenge" || kind == "all" {
		challenges, err := s.challenges.Search(ctx, q, searchLimitPerType)
		if err != nil {
			return nil, err
		}
		for _, c := range challenges {
			results = append(results, models.SearchResult{Type: "challenge", ID: c.ID.Hex(), Title: c.Title, Image: c.Image})
		}
	}
	if kind == "community" || kind == "all" {
		communities, err := s.communities.Search(ctx, q, searchLimitPerType)
		if err != nil {
			return nil, err
		}
		for _, c := range communities {
			results = append(results, models.SearchResult{Type: "community", ID: c.ID.Hex(), Title: c.Name, Image: c.Image})
		}
	}
	return results, nil
}
