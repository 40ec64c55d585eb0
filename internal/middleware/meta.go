package middleware

import "github.com/gin-gonic/gin"

const responseMetaKey = "response_meta"

// SetMeta records a response metadata entry for the current request.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta := ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
		c.Set(responseMetaKey, meta)
	}
	meta[key] = value
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}
