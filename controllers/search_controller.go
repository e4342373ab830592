package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/cragbase/services"
)

// GET /search?q=...&type=route|challenge|community|all
func Search(search *services.SearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := search.Search(c.Request.Context(), c.Query("q"), c.Query("type"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}
