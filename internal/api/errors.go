package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

// respondError translates an error from the store or the membership policy
// into a JSON response. Anything else is an internal error: it is logged and
// the client only sees "failed to <action>".
func respondError(c *gin.Context, logger *zap.Logger, err error, action string) {
	var pe *PolicyError
	if errors.As(err, &pe) {
		c.JSON(http.StatusForbidden, gin.H{"error": pe.Message, "code": pe.Code})
		return
	}

	var se *store.Error
	if errors.As(err, &se) {
		status := http.StatusBadRequest
		switch se.Kind {
		case store.KindNotFound:
			status = http.StatusNotFound
		case store.KindConflict:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": se.Message, "code": string(se.Kind)})
		return
	}

	logger.Error("failed to "+action, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": string(store.KindInvalidArgument)})
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found", "code": string(store.KindNotFound)})
}
