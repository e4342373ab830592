package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/services"
)

// GET /challenges?page=1&limit=20&sort=startDate|recent|popular
func GetChallenges(challenges *services.ChallengeService, paging Paging) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := challenges.List(c.Request.Context(), paging.query(c, "startDate"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func GetChallenge(challenges *services.ChallengeService) gin.HandlerFunc {
	return byID("challenge", challenges.Get)
}

func GetChallengeParticipants(challenges *services.ChallengeService) gin.HandlerFunc {
	return byID("challenge", challenges.Participants)
}

// ====== CreateChallenge ======
// POST /challenges
// multipart/form-data: title, description, startDate, endDate,
// maxParticipants (empty for no limit), image
func CreateChallenge(challenges *services.ChallengeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := currentUserID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var body dto.CreateChallengeDTO
		if err := bind(c, &body); err != nil {
			respondError(c, err)
			return
		}
		image, err := formFile(c, "image")
		if err != nil {
			respondError(c, err)
			return
		}

		challenge, err := challenges.Create(c.Request.Context(), userID, body, image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, challenge)
	}
}

// ====== UpdateChallenge ======
// PATCH /challenges/:id
// multipart/form-data: startDate, endDate, maxParticipants, status, image
func UpdateChallenge(challenges *services.ChallengeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := currentUserID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		id, err := pathID(c, "id", "challenge")
		if err != nil {
			respondError(c, err)
			return
		}
		var body dto.UpdateChallengeDTO
		if err := bind(c, &body); err != nil {
			respondError(c, err)
			return
		}
		image, err := formFile(c, "image")
		if err != nil {
			respondError(c, err)
			return
		}

		challenge, err := challenges.Update(c.Request.Context(), userID, id, body, image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, challenge)
	}
}

func DeleteChallenge(challenges *services.ChallengeService) gin.HandlerFunc {
	return actOnID(challenges.Delete, "challenge", "Challenge deleted.")
}

func RegisterForChallenge(challenges *services.ChallengeService) gin.HandlerFunc {
	return actOnID(challenges.Register, "challenge", "Registered for challenge.")
}

func UnregisterFromChallenge(challenges *services.ChallengeService) gin.HandlerFunc {
	return actOnID(challenges.Unregister, "challenge", "Unregistered from challenge.")
}

// GET /challenges/registered
func GetRegisteredChallenges(challenges *services.ChallengeService) gin.HandlerFunc {
	return userList(challenges.Registered)
}
