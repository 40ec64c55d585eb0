package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-studyhub-api/internal/models"
	appErrors "github.com/noah-isme/campus-studyhub-api/pkg/errors"
)

type tokenStub struct {
	claims *models.JWTClaims
}

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.ErrUnauthorized
	}
	return s.claims, nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		if v, ok := c.Get(ContextUserKey); ok {
			c.String(http.StatusOK, string(v.(*models.JWTClaims).Role))
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/", handlers...)
	return r
}

func serve(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresBearerToken(t *testing.T) {
	r := newEngine(JWT(tokenStub{claims: &models.JWTClaims{UserID: 1, Role: models.RoleStudent}}))

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer bad").Code)

	w := serve(r, "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "STUDENT", w.Body.String())
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	r := newEngine(OptionalJWT(tokenStub{claims: &models.JWTClaims{UserID: 1, Role: models.RoleAdmin}}))

	assert.Equal(t, "anonymous", serve(r, "").Body.String())
	assert.Equal(t, "anonymous", serve(r, "Bearer bad").Body.String())
	assert.Equal(t, "ADMIN", serve(r, "bearer good").Body.String())
}

func TestRequireRoles(t *testing.T) {
	student := tokenStub{claims: &models.JWTClaims{UserID: 2, Role: models.RoleStudent}}
	admin := tokenStub{claims: &models.JWTClaims{UserID: 1, Role: models.RoleAdmin}}

	w := serve(newEngine(JWT(student), RequireRoles(models.RoleAdmin)), "Bearer good")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient permissions")

	w = serve(newEngine(JWT(admin), RequireRoles(models.RoleAdmin)), "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(newEngine(RequireRoles(models.RoleAdmin)), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type observerStub struct {
	path   string
	status int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.path = path
	o.status = status
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obs := &observerStub{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/subjects/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subjects/42", nil))
	assert.Equal(t, "/subjects/:id", obs.path)
	assert.Equal(t, http.StatusNoContent, obs.status)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, "unmatched", obs.path)
	assert.Equal(t, http.StatusNotFound, obs.status)
}
