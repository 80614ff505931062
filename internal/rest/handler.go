// Package rest est l'API en lecture seule /api/v1 : posts et utilisateurs.
package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AlexanderUp/hw05-final/internal/logs"
	"github.com/AlexanderUp/hw05-final/internal/models"
	"github.com/AlexanderUp/hw05-final/internal/store"
)

// Store est la partie du store lue par l'API.
type Store interface {
	store.UserStore
	store.PostStore
}

type Handler struct {
	store Store
}

func NewHandler(s Store) *Handler {
	return &Handler{store: s}
}

func serializePost(p models.Post) gin.H {
	return gin.H{
		"id":       p.ID,
		"author":   p.Author.Username,
		"group":    p.GroupID,
		"text":     p.Text,
		"pub_date": p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"image":    p.ImageURL,
	}
}

func (h *Handler) serializeUser(c *gin.Context, u models.User) (gin.H, error) {
	ids, err := h.store.PostIDsByAuthor(c.Request.Context(), u.ID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return gin.H{
		"id":       u.ID,
		"username": u.Username,
		"posts":    ids,
	}, nil
}

func internalError(c *gin.Context, err error, message, logMessage string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	logs.LogJSON("ERROR", logMessage, map[string]interface{}{
		"error": err.Error(),
		"route": c.FullPath(),
	})
}

// Root GET /api/v1/
func (h *Handler) Root(c *gin.Context) {
	base := "/api/v1/"
	c.JSON(http.StatusOK, gin.H{
		"posts": base + "posts/",
		"users": base + "users/",
	})
}

// ListPosts GET /api/v1/posts
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.store.ListPosts(c.Request.Context(), store.PostFilter{}, 0, -1)
	if err != nil {
		internalError(c, err, "Erreur lors de la récupération des posts", "Error listing posts")
		return
	}

	out := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		out = append(out, serializePost(p))
	}
	c.JSON(http.StatusOK, out)
}

// GetPost GET /api/v1/posts/:id
func (h *Handler) GetPost(c *gin.Context) {
	p, err := h.store.PostByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post non trouvé"})
		return
	}
	if err != nil {
		internalError(c, err, "Erreur lors de la récupération du post", "Error retrieving post")
		return
	}
	c.JSON(http.StatusOK, serializePost(*p))
}

// ListUsers GET /api/v1/users
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		internalError(c, err, "Erreur lors de la récupération des utilisateurs", "Error listing users")
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		serialized, err := h.serializeUser(c, u)
		if err != nil {
			internalError(c, err, "Erreur lors de la récupération des posts", "Error listing user posts")
			return
		}
		out = append(out, serialized)
	}
	c.JSON(http.StatusOK, out)
}

// GetUser GET /api/v1/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.store.UserByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}
	if err != nil {
		internalError(c, err, "Erreur de récupération de l'utilisateur", "Error retrieving user")
		return
	}

	serialized, err := h.serializeUser(c, *u)
	if err != nil {
		internalError(c, err, "Erreur lors de la récupération des posts", "Error listing user posts")
		return
	}
	c.JSON(http.StatusOK, serialized)
}
