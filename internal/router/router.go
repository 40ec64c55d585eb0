package router

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-studyhub-api/internal/handler"
	"github.com/noah-isme/campus-studyhub-api/internal/middleware"
	"github.com/noah-isme/campus-studyhub-api/internal/models"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth      *handler.AuthHandler
	Catalog   *handler.CatalogHandler
	Resources *handler.ResourceHandler
	Exports   *handler.ExportHandler
	Metrics   *handler.MetricsHandler
}

// Register mounts every route under the API prefix. Operational endpoints stay at the root.
func Register(r *gin.Engine, prefix string, h Handlers, tokens middleware.TokenValidator) {
	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.GET("/me", middleware.JWT(tokens), h.Auth.Me)
	}

	// Signed links carry their own authorization, so a bearer token is optional here.
	api.GET("/files/:kind/:id/download", middleware.OptionalJWT(tokens), h.Resources.Download)

	authenticated := api.Group("")
	authenticated.Use(middleware.JWT(tokens))
	{
		authenticated.GET("/semesters", h.Catalog.ListSemesters)
		authenticated.GET("/semesters/:id", h.Catalog.GetSemester)
		authenticated.GET("/semesters/:id/subjects", h.Catalog.ListSemesterSubjects)
		authenticated.GET("/semesters/number/:number/subjects", h.Catalog.ListSubjectsBySemesterNumber)

		authenticated.GET("/subjects", h.Catalog.ListSubjects)
		authenticated.GET("/subjects/search", h.Catalog.SearchSubjects)
		authenticated.GET("/subjects/:id", h.Catalog.GetSubject)

		authenticated.GET("/notes/:id", h.Resources.GetNote)
		authenticated.GET("/papers/:id", h.Resources.GetPaper)
		authenticated.GET("/videos/:id", h.Resources.GetVideo)

		authenticated.GET("/files/:kind/:id/link", h.Resources.DownloadLink)
	}

	admin := authenticated.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/semesters", h.Catalog.CreateSemester)
		admin.DELETE("/semesters/:id", h.Catalog.DeleteSemester)

		admin.POST("/subjects", h.Catalog.CreateSubject)
		admin.PUT("/subjects/:id", h.Catalog.UpdateSubject)
		admin.DELETE("/subjects/:id", h.Catalog.DeleteSubject)

		admin.POST("/notes", h.Resources.UploadNote)
		admin.DELETE("/notes/:id", h.Resources.DeleteNote)
		admin.POST("/papers", h.Resources.UploadPaper)
		admin.DELETE("/papers/:id", h.Resources.DeletePaper)
		admin.POST("/videos", h.Resources.AddVideo)
		admin.DELETE("/videos/:id", h.Resources.DeleteVideo)

		admin.GET("/exports/subjects", h.Exports.ExportSubjects)
	}
}
