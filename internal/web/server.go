package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fotokruzhok/star-cabinet-bot/internal/config"
	"github.com/fotokruzhok/star-cabinet-bot/pkg/logger"
	"github.com/fotokruzhok/star-cabinet-bot/types"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	cfg    *config.Config
}

func NewServer(cfg *config.Config, users types.UserStore, catalog types.CatalogStore, posts types.PostStore) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	handlers := NewWebHandlers(users, catalog, posts, cfg)

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Admin-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := router.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		api.GET("/classes", handlers.GetClasses)
		api.GET("/characters", handlers.GetCharacters)

		api.GET("/users/:id", handlers.GetUser)
		api.GET("/users/:id/history", handlers.GetHistory)
		api.POST("/users/:id/register", handlers.RegisterUser)
		api.POST("/users/:id/photo-works", handlers.SubmitPhotoWork)

		api.GET("/quizzes", handlers.GetQuizzes)
		api.GET("/quizzes/:id", handlers.GetQuiz)
		api.POST("/quizzes/:id/submit", handlers.SubmitQuiz)

		admin := api.Group("/admin")
		admin.Use(handlers.AdminAuthMiddleware())
		{
			admin.GET("/dashboard", handlers.AdminDashboard)
			admin.GET("/posts", handlers.GetPosts)
			admin.POST("/posts", handlers.CreatePost)
		}
	}

	// Mini App bundle.
	router.Static("/static", "./web/static")

	return &Server{
		router: router,
		cfg:    cfg,
		http: &http.Server{
			Addr:    ":" + cfg.WebPort,
			Handler: router,
		},
	}
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start blocks until the listener fails or Shutdown is called. A shutdown
// initiated by Shutdown is not an error.
func (s *Server) Start() error {
	logger.Infof("web server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
