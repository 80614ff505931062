package follow

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AlexanderUp/hw05-final/internal/logs"
	"github.com/AlexanderUp/hw05-final/internal/middleware"
	"github.com/AlexanderUp/hw05-final/internal/models"
	"github.com/AlexanderUp/hw05-final/internal/render"
	"github.com/AlexanderUp/hw05-final/internal/store"
)

type Handler struct {
	users   store.UserStore
	manager *Manager
}

func NewHandler(users store.UserStore, manager *Manager) *Handler {
	return &Handler{users: users, manager: manager}
}

// resolveAuthor charge l'auteur ciblé par :username, ou répond 404.
func (h *Handler) resolveAuthor(c *gin.Context) (*models.User, bool) {
	route := c.FullPath()
	username := c.Param("username")

	author, err := h.users.UserByUsername(c.Request.Context(), username)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		logs.LogJSON("WARN", "User not found", map[string]interface{}{
			"route":    route,
			"username": username,
			"userID":   c.GetString(middleware.UserIDKey),
		})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur de récupération de l'utilisateur"})
		logs.LogJSON("ERROR", "Error retrieving user", map[string]interface{}{
			"error":    err.Error(),
			"route":    route,
			"username": username,
		})
		return nil, false
	}
	return author, true
}

func (h *Handler) respondState(c *gin.Context, author *models.User) {
	followerID := c.GetString(middleware.UserIDKey)
	following, err := h.manager.IsFollowing(c.Request.Context(), followerID, author.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la vérification du suivi"})
		logs.LogJSON("ERROR", "Error during follow-up verification", map[string]interface{}{
			"error":  err.Error(),
			"route":  c.FullPath(),
			"userID": followerID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username":  author.Username,
		"following": following,
	})
}

// FollowUser POST /api/profile/:username/follow
func (h *Handler) FollowUser(c *gin.Context) {
	route := c.FullPath()
	followerID := c.GetString(middleware.UserIDKey)

	author, ok := h.resolveAuthor(c)
	if !ok {
		return
	}

	err := h.manager.Follow(c.Request.Context(), followerID, author.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Le token est valide mais son utilisateur n'existe plus en base.
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		logs.LogJSON("WARN", "Follower not found", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": followerID,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur ajout du follow"})
		logs.LogJSON("ERROR", "Error adding follow", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": followerID,
			"extra":  "authorID : " + author.ID,
		})
		return
	}

	logs.LogJSON("INFO", "Followed user", map[string]interface{}{
		"route":  route,
		"userID": followerID,
		"extra":  "authorID : " + author.ID,
	})
	h.respondState(c, author)
}

// UnfollowUser POST /api/profile/:username/unfollow
func (h *Handler) UnfollowUser(c *gin.Context) {
	route := c.FullPath()
	followerID := c.GetString(middleware.UserIDKey)

	author, ok := h.resolveAuthor(c)
	if !ok {
		return
	}

	if err := h.manager.Unfollow(c.Request.Context(), followerID, author.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur unfollow"})
		logs.LogJSON("ERROR", "Error unfollow", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": followerID,
			"extra":  "authorID : " + author.ID,
		})
		return
	}

	logs.LogJSON("INFO", "User unfollow", map[string]interface{}{
		"route":  route,
		"userID": followerID,
		"extra":  "authorID : " + author.ID,
	})
	h.respondState(c, author)
}

// GetFollowing GET /api/following
func (h *Handler) GetFollowing(c *gin.Context) {
	route := c.FullPath()
	followerID := c.GetString(middleware.UserIDKey)

	ids, err := h.manager.FollowedAuthorIDs(c.Request.Context(), followerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération des utilisateurs suivis"})
		logs.LogJSON("ERROR", "Error retrieving followed users", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": followerID,
		})
		return
	}

	following := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		u, err := h.users.UserByID(c.Request.Context(), id)
		if err != nil {
			continue
		}
		following = append(following, render.User(*u))
	}

	c.JSON(http.StatusOK, gin.H{"following": following})
}
