package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/services"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GET /communities?page=1&limit=20&sort=createdAt|members
func GetCommunities(communities *services.CommunityService, paging Paging) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := communities.List(c.Request.Context(), paging.query(c, "createdAt"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func GetCommunity(communities *services.CommunityService) gin.HandlerFunc {
	return byID("community", communities.Get)
}

func GetCommunityMembers(communities *services.CommunityService) gin.HandlerFunc {
	return byID("community", communities.Members)
}

func GetCommunityAdmins(communities *services.CommunityService) gin.HandlerFunc {
	return byID("community", communities.Admins)
}

func GetCommunityChallenges(communities *services.CommunityService) gin.HandlerFunc {
	return byID("community", communities.Challenges)
}

// ====== CreateCommunity ======
// POST /communities
// multipart/form-data: name, description, image (optional)
func CreateCommunity(communities *services.CommunityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := currentUserID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var body dto.CreateCommunityDTO
		if err := bind(c, &body); err != nil {
			respondError(c, err)
			return
		}
		image, err := formFile(c, "image")
		if err != nil {
			respondError(c, err)
			return
		}

		community, err := communities.Create(c.Request.Context(), userID, body, image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, community)
	}
}

// ====== UpdateCommunity ======
// PATCH /communities/:id (admins)
func UpdateCommunity(communities *services.CommunityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := currentUserID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		id, err := pathID(c, "id", "community")
		if err != nil {
			respondError(c, err)
			return
		}
		var body dto.UpdateCommunityDTO
		if err := bind(c, &body); err != nil {
			respondError(c, err)
			return
		}
		image, err := formFile(c, "image")
		if err != nil {
			respondError(c, err)
			return
		}

		community, err := communities.Update(c.Request.Context(), userID, id, body, image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, community)
	}
}

func DeleteCommunity(communities *services.CommunityService) gin.HandlerFunc {
	return actOnID(communities.Delete, "community", "Community deleted.")
}

func JoinCommunity(communities *services.CommunityService) gin.HandlerFunc {
	return actOnID(communities.Join, "community", "Joined community.")
}

func LeaveCommunity(communities *services.CommunityService) gin.HandlerFunc {
	return actOnID(communities.Leave, "community", "Left community.")
}

type adminOp func(ctx context.Context, actor, id, target bson.ObjectID) error

// adminAction adapts an admin operation on :id targeting the :param entity.
func adminAction(op adminOp, param, what, okMessage string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := currentUserID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		id, err := pathID(c, "id", "community")
		if err != nil {
			respondError(c, err)
			return
		}
		target, err := pathID(c, param, what)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := op(c.Request.Context(), actor, id, target); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": okMessage})
	}
}

// POST /communities/:id/members/:memberId/remove
func RemoveCommunityMember(communities *services.CommunityService) gin.HandlerFunc {
	return adminAction(communities.RemoveMember, "memberId", "member", "Member removed.")
}

// POST /communities/:id/admins/:userId/add
func AddCommunityAdmin(communities *services.CommunityService) gin.HandlerFunc {
	return adminAction(communities.AddAdmin, "userId", "user", "Admin added.")
}

// POST /communities/:id/admins/:userId/remove
func RemoveCommunityAdmin(communities *services.CommunityService) gin.HandlerFunc {
	return adminAction(communities.RemoveAdmin, "userId", "user", "Admin removed.")
}

// POST /communities/:id/challenges/:challengeId/add
func AddCommunityChallenge(communities *services.CommunityService) gin.HandlerFunc {
	return adminAction(communities.AddChallenge, "challengeId", "challenge", "Challenge added to community.")
}

// POST /communities/:id/challenges/:challengeId/remove
func RemoveCommunityChallenge(communities *services.CommunityService) gin.HandlerFunc {
	return adminAction(communities.RemoveChallenge, "challengeId", "challenge", "Challenge removed from community.")
}
