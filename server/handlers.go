package server

import (
	"net/http"

	"github.com/Luismorlan/birdbrain/classify"
	"github.com/Luismorlan/birdbrain/ingest"
	"github.com/Luismorlan/birdbrain/model"
	"github.com/Luismorlan/birdbrain/twitter"
	"github.com/Luismorlan/birdbrain/utils"
	Logger "github.com/Luismorlan/birdbrain/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CompareRequest is the JSON body of POST /compare.
type CompareRequest struct {
	UserA string `json:"user_a" binding:"required"`
	UserB string `json:"user_b" binding:"required"`
	Text  string `json:"text" binding:"required"`
}

// SyncUserHandler triggers an incremental timeline sync for the username in
// the route. Returns 204 on success, including the case of no new tweets.
func SyncUserHandler(engine *ingest.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")
		if err := engine.SyncUser(c.Request.Context(), username); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// CompareHandler answers which of two ingested users more plausibly wrote
// the submitted text. The response carries both the canonical label and the
// username it maps back to.
func CompareHandler(service *classify.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CompareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		label, err := service.Compare(c.Request.Context(), req.UserA, req.UserB, req.Text)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"label":    label,
			"username": classify.Winner(req.UserA, req.UserB, label),
		})
	}
}

// ListUsersHandler lists all ingested users.
func ListUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []model.User
		if err := db.WithContext(c.Request.Context()).Order("username").Find(&users).Error; err != nil {
			abortWithError(c, err)
			return
		}
		usernames := make([]string, 0, len(users))
		for _, user := range users {
			usernames = append(usernames, user.Username)
		}
		c.JSON(http.StatusOK, gin.H{"users": usernames})
	}
}

// ResetHandler drops and recreates the content store tables. Development
// convenience, wired only when running in dev mode.
func ResetHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Migrator().DropTable(&model.Post{}, &model.User{}); err != nil {
			abortWithError(c, err)
			return
		}
		utils.DatabaseSetupAndMigration(db)
		c.JSON(http.StatusOK, gin.H{"message": "database has been reset"})
	}
}

// abortWithError translates typed domain errors into response statuses. The
// core only guarantees clean failure; presentation happens here.
func abortWithError(c *gin.Context, err error) {
	Logger.Log.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, twitter.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, twitter.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, twitter.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, classify.ErrSameUser) || errors.Is(err, classify.ErrInsufficientData):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrStoreConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
