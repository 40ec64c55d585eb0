package handler

import (
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-studyhub-api/internal/middleware"
	"github.com/noah-isme/campus-studyhub-api/internal/models"
)

// newTestRouter attaches claims from the X-Test-Role header so handlers can be exercised
// without issuing tokens.
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			userID, _ := strconv.ParseInt(c.GetHeader("X-Test-User"), 10, 64)
			c.Set(middleware.ContextUserKey, &models.JWTClaims{
				UserID: userID,
				Role:   models.UserRole(role),
				Email:  "tester@campus.com",
			})
		}
		c.Next()
	})
	return router
}

func performRequest(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
