// Package controllers holds the gin handlers. Each constructor closes over the
// service it needs.
package controllers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/middleware"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/services"
	"github.com/princinho/cragbase/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Paging bounds the page size of list endpoints.
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

func (p Paging) query(c *gin.Context, sort string) models.ListQuery {
	page, limit := utils.ClampPage(
		utils.ParseIntDefault(c.Query("page"), 1),
		utils.ParseIntDefault(c.Query("limit"), p.DefaultLimit),
		p.DefaultLimit, p.MaxLimit,
	)
	return models.ListQuery{Page: page, Limit: limit, Sort: c.DefaultQuery("sort", sort)}
}

// respondError writes err as {"error": msg}. Infrastructure failures are
// attached to the context for the request logger and reach the client only
// as a generic message.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

func currentUserID(c *gin.Context) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(c.GetString(middleware.UserIDKey))
	if err != nil {
		return bson.NilObjectID, apperr.Unauthenticated("Authentication required.")
	}
	return id, nil
}

func pathID(c *gin.Context, param, what string) (bson.ObjectID, error) {
	return services.ParseID(c.Param(param), what)
}

// formFile returns the uploaded file under field, or nil when none was sent.
func formFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperr.Validation("Invalid multipart form.")
	}
	return fh, nil
}

func formFiles(c *gin.Context, field string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[field]
}

func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBind(dst); err != nil {
		return apperr.Validation("Invalid request body.")
	}
	return nil
}

type idOp func(ctx context.Context, userID, id bson.ObjectID) error

// membershipAction adapts a like/join/register style operation on the entity
// named by the :id parameter.
func actOnID(op idOp, what, okMessage string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := currentUserID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		id, err := pathID(c, "id", what)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := op(c.Request.Context(), userID, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": okMessage})
	}
}

// userList serves GET endpoints that list something belonging to the caller.
func userList[T any](list func(ctx context.Context, userID bson.ObjectID) ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := currentUserID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		items, err := list(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// byID serves GET endpoints that load one entity by the :id parameter.
func byID[T any](what string, get func(ctx context.Context, id bson.ObjectID) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id", what)
		if err != nil {
			respondError(c, err)
			return
		}
		v, err := get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}
