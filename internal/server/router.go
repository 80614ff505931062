// Package server assemble le routeur HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlexanderUp/hw05-final/internal/admin"
	"github.com/AlexanderUp/hw05-final/internal/auth"
	"github.com/AlexanderUp/hw05-final/internal/events"
	"github.com/AlexanderUp/hw05-final/internal/feed"
	"github.com/AlexanderUp/hw05-final/internal/follow"
	"github.com/AlexanderUp/hw05-final/internal/middleware"
	"github.com/AlexanderUp/hw05-final/internal/pagecache"
	"github.com/AlexanderUp/hw05-final/internal/post"
	"github.com/AlexanderUp/hw05-final/internal/rest"
	"github.com/AlexanderUp/hw05-final/internal/store"
	"github.com/AlexanderUp/hw05-final/internal/user"
)

// Deps regroupe les dépendances du routeur. Cache, Events, Images, Provider et
// Identity sont optionnels.
type Deps struct {
	Store         store.Store
	Cache         *pagecache.Cache
	Events        events.Publisher
	Images        post.ImageStore
	Provider      auth.Provider
	Identity      admin.IdentityDeleter
	JWTSecret     []byte
	PostsPerPage  int
	IndexCacheTTL time.Duration
}

func New(d Deps) *gin.Engine {
	if d.Events == nil {
		d.Events = events.Nop{}
	}

	follows := follow.NewManager(d.Store, d.Events)
	assembler := feed.NewAssembler(d.Store, follows, d.PostsPerPage)

	feedHandler := feed.NewHandler(assembler, d.Store, follows, d.Cache, d.IndexCacheTTL)
	followHandler := follow.NewHandler(d.Store, follows)
	postHandler := post.NewHandler(d.Store, d.Images, d.Events)
	restHandler := rest.NewHandler(d.Store)
	userHandler := user.NewHandler(d.Store)
	adminHandler := admin.NewHandler(d.Store, d.Cache, d.Identity)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.OptionalAuthMiddleware(d.JWTSecret), middleware.SessionKey())

	// Inscription & Connexion
	if d.Provider != nil {
		authHandler := auth.NewHandler(d.Store, d.Provider)
		api.POST("/signup", authHandler.Signup)
		api.POST("/login", authHandler.Login)
	}

	// Fils
	api.GET("/", feedHandler.Index)
	api.GET("/group/:slug", feedHandler.GroupPosts)
	api.GET("/profile/:username", feedHandler.Profile)
	api.GET("/groups", adminHandler.ListGroups)

	// Posts et commentaires en lecture
	api.GET("/posts/:id", postHandler.GetPost)
	api.GET("/posts/:id/comments", postHandler.GetCommentsByPostID)
	api.GET("/comments/:id", postHandler.GetComment)

	// API REST en lecture seule
	v1 := api.Group("/v1")
	v1.GET("/", restHandler.Root)
	v1.GET("/posts", restHandler.ListPosts)
	v1.GET("/posts/:id", restHandler.GetPost)
	v1.GET("/users", restHandler.ListUsers)
	v1.GET("/users/:id", restHandler.GetUser)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(d.JWTSecret))
	{
		protected.GET("/me", userHandler.GetMe)
		protected.PATCH("/me", userHandler.UpdateMe)

		protected.GET("/follow", feedHandler.FollowIndex)
		protected.GET("/following", followHandler.GetFollowing)
		protected.POST("/profile/:username/follow", followHandler.FollowUser)
		protected.POST("/profile/:username/unfollow", followHandler.UnfollowUser)

		protected.POST("/posts", postHandler.CreatePost)
		protected.GET("/posts/:id/edit", postHandler.EditPostForm)
		protected.POST("/posts/:id/edit", postHandler.EditPost)
		protected.DELETE("/posts/:id", postHandler.DeletePost)
		protected.POST("/posts/:id/comment", postHandler.CreateComment)

		protected.GET("/comments/:id/edit", postHandler.EditCommentForm)
		protected.POST("/comments/:id/edit", postHandler.EditComment)
		protected.DELETE("/comments/:id", postHandler.DeleteComment)
	}

	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AuthMiddleware(d.JWTSecret), middleware.AdminOnlyMiddleware(d.Store))
	{
		adminGroup.GET("/stats", adminHandler.GetDashboardStats)
		adminGroup.POST("/groups", adminHandler.CreateGroup)
		adminGroup.DELETE("/groups/:slug", adminHandler.DeleteGroup)
		adminGroup.DELETE("/users/:username", adminHandler.DeleteUser)
		adminGroup.DELETE("/cache", adminHandler.ClearCache)
	}

	return r
}
