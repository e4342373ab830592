package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/services"
)

func GetMyProfile(profiles *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := currentUserID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		user, err := profiles.Me(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// ====== UpdateMyProfile ======
// PATCH /profile/me
// multipart/form-data: username, biography, avatar, deleteExistingAvatar
func UpdateMyProfile(profiles *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := currentUserID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var body dto.UpdateProfileDTO
		if err := bind(c, &body); err != nil {
			respondError(c, err)
			return
		}
		avatar, err := formFile(c, "avatar")
		if err != nil {
			respondError(c, err)
			return
		}

		user, err := profiles.UpdateMe(c.Request.Context(), userID, body, avatar)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// GET /profile/:id
func GetPublicProfile(profiles *services.ProfileService) gin.HandlerFunc {
	return byID("user", profiles.Public)
}

func GetMyCreatedRoutes(profiles *services.ProfileService) gin.HandlerFunc {
	return userList(profiles.CreatedRoutes)
}

func GetMyLikedRoutes(profiles *services.ProfileService) gin.HandlerFunc {
	return userList(profiles.LikedRoutes)
}

func GetMyClimbedRoutes(profiles *services.ProfileService) gin.HandlerFunc {
	return userList(profiles.ClimbedRoutes)
}

func GetMyCommunities(profiles *services.ProfileService) gin.HandlerFunc {
	return userList(profiles.Communities)
}

func GetMyChallenges(profiles *services.ProfileService) gin.HandlerFunc {
	return userList(profiles.Challenges)
}
