package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-studyhub-api/internal/handler"
	"github.com/noah-isme/campus-studyhub-api/internal/models"
	"github.com/noah-isme/campus-studyhub-api/internal/service"
	appErrors "github.com/noah-isme/campus-studyhub-api/pkg/errors"
)

type tokenTable map[string]*models.JWTClaims

func (t tokenTable) ValidateToken(token string) (*models.JWTClaims, error) {
	claims, ok := t[token]
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

// newEngine mounts the routes with handlers whose services are never reached: every request
// below stops at middleware or at path parameter parsing.
func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r, "/api/v1", Handlers{
		Auth:      handler.NewAuthHandler(nil, nil),
		Catalog:   handler.NewCatalogHandler(nil, nil),
		Resources: handler.NewResourceHandler(nil, 0),
		Exports:   handler.NewExportHandler(nil),
		Metrics:   handler.NewMetricsHandler(service.NewMetricsService(), nil),
	}, tokenTable{
		"admin-token":   {UserID: 1, Role: models.RoleAdmin},
		"student-token": {UserID: 2, Role: models.RoleStudent},
	})
	return r
}

func request(r *gin.Engine, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRegisterGuardsRoutes(t *testing.T) {
	r := newEngine()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"ready is public", http.MethodGet, "/ready", "", http.StatusOK},
		{"catalog needs token", http.MethodGet, "/api/v1/subjects", "", http.StatusUnauthorized},
		{"catalog rejects unknown token", http.MethodGet, "/api/v1/semesters", "forged", http.StatusUnauthorized},
		{"me needs token", http.MethodGet, "/api/v1/auth/me", "", http.StatusUnauthorized},
		{"me with token", http.MethodGet, "/api/v1/auth/me", "student-token", http.StatusOK},
		{"student reaches subject route", http.MethodGet, "/api/v1/subjects/abc", "student-token", http.StatusBadRequest},
		{"student blocked from admin", http.MethodDelete, "/api/v1/admin/subjects/abc", "student-token", http.StatusForbidden},
		{"student blocked from uploads", http.MethodPost, "/api/v1/admin/notes", "student-token", http.StatusForbidden},
		{"student blocked from exports", http.MethodGet, "/api/v1/admin/exports/subjects", "student-token", http.StatusForbidden},
		{"admin passes fence", http.MethodDelete, "/api/v1/admin/subjects/abc", "admin-token", http.StatusBadRequest},
		{"admin without token", http.MethodPost, "/api/v1/admin/semesters", "", http.StatusUnauthorized},
		{"download needs no token", http.MethodGet, "/api/v1/files/videos/1/download", "", http.StatusNotFound},
		{"link needs token", http.MethodGet, "/api/v1/files/notes/1/link", "", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, request(r, tc.method, tc.path, tc.token))
		})
	}
}
