package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/services"
)

// GET /routes?page=1&limit=20&sort=likes|recent
func GetRoutes(routes *services.RouteService, paging Paging) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := routes.List(c.Request.Context(), paging.query(c, "likes"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func GetRoute(routes *services.RouteService) gin.HandlerFunc {
	return byID("route", routes.Get)
}

// ====== CreateRoute ======
// POST /routes
// multipart/form-data: title, description, difficultyLevel, climbType,
// geoLocation, accessCost, recommendedGear, images[], videos[]
func CreateRoute(routes *services.RouteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := currentUserID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var body dto.CreateRouteDTO
		if err := bind(c, &body); err != nil {
			respondError(c, err)
			return
		}

		route, err := routes.Create(c.Request.Context(), userID, body, formFiles(c, "images"), formFiles(c, "videos"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, route)
	}
}

func DeleteRoute(routes *services.RouteService) gin.HandlerFunc {
	return actOnID(routes.Delete, "route", "Route deleted.")
}

func LikeRoute(routes *services.RouteService) gin.HandlerFunc {
	return actOnID(routes.Like, "route", "Route liked.")
}

func UnlikeRoute(routes *services.RouteService) gin.HandlerFunc {
	return actOnID(routes.Unlike, "route", "Route unliked.")
}

func ClimbRoute(routes *services.RouteService) gin.HandlerFunc {
	return actOnID(routes.MarkClimbed, "route", "Route marked as climbed.")
}

func UnclimbRoute(routes *services.RouteService) gin.HandlerFunc {
	return actOnID(routes.UndoClimbed, "route", "Climb undone.")
}
