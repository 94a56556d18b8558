package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/utils"
)

// ErrorHandler writes errors attached with c.Error when the handler wrote no response
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		utils.HandleError(c, c.Errors.Last().Err)
	}
}
