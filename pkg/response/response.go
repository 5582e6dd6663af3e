package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/Skufu/glucorisk/pkg/errors"
	"github.com/Skufu/glucorisk/pkg/logger"
)

const errorTemplate = "error.html"

// Page renders the named HTML template.
func Page(c *gin.Context, statusCode int, name string, data gin.H) {
	c.HTML(statusCode, name, data)
}

// Error logs err and renders the generic error page. Only the AppError message reaches the
// client; internal causes stay in the log.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	logger.WithModule("http").Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("code", appErr.Code),
		zap.Error(err),
	)

	c.HTML(status, errorTemplate, gin.H{
		"Title":   http.StatusText(status),
		"Message": appErr.Message,
	})
	c.Abort()
}
