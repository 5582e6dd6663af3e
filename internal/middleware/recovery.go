package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/Skufu/glucorisk/pkg/errors"
	"github.com/Skufu/glucorisk/pkg/logger"
	"github.com/Skufu/glucorisk/pkg/response"
)

// Recovery converts panics into the generic 500 page and logs the panic value.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic",
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", r),
				)
				response.Error(c, fmt.Errorf("panic: %v", r))
			}
		}()
		c.Next()
	}
}

// NotFound renders the error page for unknown routes.
func NotFound(c *gin.Context) {
	response.Page(c, appErrors.ErrNotFound.StatusCode, "error.html", gin.H{
		"Title":   http.StatusText(appErrors.ErrNotFound.StatusCode),
		"Message": appErrors.ErrNotFound.Message,
	})
}
