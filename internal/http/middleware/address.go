package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ctxKeyAddress holds the normalized wallet address of the caller. It keeps
// the "userID" name used by the rate limiter and loggers.
const ctxKeyAddress = "userID"

// AddressNormalizer validates and canonicalizes a wallet address.
type AddressNormalizer func(string) (string, error)

// Address validates the :address path parameter and stores its normalized
// form in the context. Malformed addresses are rejected with
// 400 invalid_address before any handler runs.
func Address(normalize AddressNormalizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr, err := normalize(c.Param("address"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "invalid_address",
				"message":    err.Error(),
			})
			return
		}
		c.Set(ctxKeyAddress, addr)
		c.Next()
	}
}

// AddressFrom returns the address stored by Address, or "".
func AddressFrom(c *gin.Context) string {
	return c.GetString(ctxKeyAddress)
}
