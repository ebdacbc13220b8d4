package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/logger"
)

// ErrorHandler renders the last error attached to the context as
// {"error":{"code","message"}}. Errors that are not AppErrors, and AppErrors
// wrapping an internal cause, are logged and never shown to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			logger.Get().Errorw("unhandled error",
				"error", err.Error(),
				"request_id", RequestID(c),
				"method", c.Request.Method,
				"route", c.FullPath(),
			)
			appErr = apperrors.ErrInternalServer
		} else if appErr.Internal != nil {
			logger.Get().Errorw("request failed",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"request_id", RequestID(c),
				"route", c.FullPath(),
			)
		}

		abortWithAppError(c, appErr)
	}
}
