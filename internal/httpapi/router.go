package httpapi

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/companion-studio/internal/common"
	"github.com/suPer8Hu/companion-studio/internal/companion"
	"github.com/suPer8Hu/companion-studio/internal/config"
	"github.com/suPer8Hu/companion-studio/internal/httpapi/handlers"
	"github.com/suPer8Hu/companion-studio/internal/httpapi/middleware"
	"github.com/suPer8Hu/companion-studio/internal/store/redisstore"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

type fieldView struct {
	Name        string
	Label       string
	Description string
	Value       string
	Placeholder string
	Error       string
	Disabled    bool
}

func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"field": func(name, label, description, value, placeholder, errMsg string, disabled bool) fieldView {
			return fieldView{
				Name:        name,
				Label:       label,
				Description: description,
				Value:       value,
				Placeholder: placeholder,
				Error:       errMsg,
				Disabled:    disabled,
			}
		},
	}
	return template.Must(template.New("").Option("missingkey=zero").Funcs(funcs).ParseFS(templatesFS, "templates/*.tmpl"))
}

// NewRouter builds the engine. rds and notifier may be nil; the category
// cache and companion events are then disabled.
func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, notifier companion.Notifier, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(newTemplates())

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, rds, notifier, log)

	r.GET("/ping", h.Ping)

	// pages
	pages := r.Group("/companion")
	if cfg.AuthEnabled {
		pages.Use(middleware.AuthRequired(cfg.JWTSecret))
	}
	pages.Use(middleware.Subscription(middleware.AllowAll{}))
	pages.GET("/:companion_id", h.CompanionPage)
	pages.POST("/:companion_id", h.SubmitCompanionPage)

	// JSON API
	api := r.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		MaxAge:           12 * time.Hour,
	}))
	api.GET("/categories", h.ListCategories)

	companions := api.Group("/companions")
	if cfg.AuthEnabled {
		companions.Use(middleware.AuthRequired(cfg.JWTSecret))
	}
	companions.Use(middleware.Subscription(middleware.AllowAll{}))
	companions.GET("/:companion_id/form", h.GetCompanionForm)
	companions.POST("", h.CreateCompanion)
	companions.PATCH("/:companion_id", h.UpdateCompanion)

	return r
}
