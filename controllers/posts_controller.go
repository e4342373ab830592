package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/services"
)

// GET /posts?page=1&limit=20&sort=date|likes
func GetPosts(posts *services.PostService, paging Paging) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := posts.List(c.Request.Context(), paging.query(c, "date"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func GetPost(posts *services.PostService) gin.HandlerFunc {
	return byID("post", posts.Get)
}

// ====== CreatePost ======
// POST /posts
// multipart/form-data: title, routeId (optional), photo
func CreatePost(posts *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := currentUserID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var body dto.CreatePostDTO
		if err := bind(c, &body); err != nil {
			respondError(c, err)
			return
		}
		photo, err := formFile(c, "photo")
		if err != nil {
			respondError(c, err)
			return
		}

		post, err := posts.Create(c.Request.Context(), userID, body, photo)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, post)
	}
}

// ====== UpdatePost ======
// PATCH /posts/:id
// multipart/form-data: title, photo, deleteExistingPhoto
func UpdatePost(posts *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := currentUserID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		id, err := pathID(c, "id", "post")
		if err != nil {
			respondError(c, err)
			return
		}
		var body dto.UpdatePostDTO
		if err := bind(c, &body); err != nil {
			respondError(c, err)
			return
		}
		photo, err := formFile(c, "photo")
		if err != nil {
			respondError(c, err)
			return
		}

		post, err := posts.Update(c.Request.Context(), userID, id, body, photo)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

func DeletePost(posts *services.PostService) gin.HandlerFunc {
	return actOnID(posts.Delete, "post", "Post deleted.")
}

func LikePost(posts *services.PostService) gin.HandlerFunc {
	return actOnID(posts.Like, "post", "Post liked.")
}

func UnlikePost(posts *services.PostService) gin.HandlerFunc {
	return actOnID(posts.Unlike, "post", "Post unliked.")
}

// GET /posts/liked
func GetLikedPosts(posts *services.PostService) gin.HandlerFunc {
	return userList(posts.Liked)
}
