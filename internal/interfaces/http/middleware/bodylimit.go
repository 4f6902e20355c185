package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/advisory/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at maxBytes. Declared lengths over the cap
// are refused up front; chunked bodies fail on read with *http.MaxBytesError,
// which handlers turn into the same 413 through IsBodyTooLarge.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	message := fmt.Sprintf("Request body exceeds the %d MB limit", max(maxBytes>>20, 1))

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(dto.ErrCodePayloadTooLarge, message, GetRequestID(c)))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from reading past the body limit
func IsBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}
