package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/capitalpay/capitalpay-api/utils"
)

// RequestID tags every request with a uuid, honoring an inbound
// X-Request-ID so IDs survive proxies.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set(utils.ContextRequestIDKey, id)
		ctx.Header("X-Request-ID", id)
		ctx.Next()
	}
}
