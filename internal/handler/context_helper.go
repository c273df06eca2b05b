package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// pathID returns the :id parameter, answering 400 with message when it is not a UUID.
func pathID(c *gin.Context, message string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, message))
		return "", false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid request payload"))
		return false
	}
	return true
}

// meta returns the response metadata gathered by middleware, stamped with version when set.
func meta(c *gin.Context, version ...int64) map[string]interface{} {
	if len(version) > 0 {
		middleware.SetCacheVersion(c, version[0])
	}
	m := middleware.ExtractMeta(c)
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
