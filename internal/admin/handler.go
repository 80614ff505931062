// Package admin regroupe les routes réservées aux administrateurs : statistiques,
// groupes, suppression de comptes et vidage du cache de pages.
package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AlexanderUp/hw05-final/internal/logs"
	"github.com/AlexanderUp/hw05-final/internal/middleware"
	"github.com/AlexanderUp/hw05-final/internal/models"
	"github.com/AlexanderUp/hw05-final/internal/pagecache"
	"github.com/AlexanderUp/hw05-final/internal/render"
	"github.com/AlexanderUp/hw05-final/internal/store"
	"github.com/AlexanderUp/hw05-final/internal/validation"
)

// IdentityDeleter supprime le compte chez le fournisseur d'identité.
type IdentityDeleter interface {
	DeleteUser(ctx context.Context, userID string) error
}

type Handler struct {
	store    store.Store
	cache    *pagecache.Cache
	identity IdentityDeleter
}

// NewHandler construit les handlers admin. cache et identity peuvent être nil.
func NewHandler(s store.Store, cache *pagecache.Cache, identity IdentityDeleter) *Handler {
	return &Handler{store: s, cache: cache, identity: identity}
}

type groupForm struct {
	Title       string `form:"title" json:"title" validate:"required,max=200"`
	Slug        string `form:"slug" json:"slug" validate:"required,max=50,slug"`
	Description string `form:"description" json:"description" validate:"required"`
}

func (h *Handler) internalError(c *gin.Context, err error, message, logMessage string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	logs.LogJSON("ERROR", logMessage, map[string]interface{}{
		"error":  err.Error(),
		"route":  c.FullPath(),
		"userID": c.GetString(middleware.UserIDKey),
	})
}

// GetDashboardStats GET /api/admin/stats
func (h *Handler) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.store.ListUsers(ctx)
	if err != nil {
		h.internalError(c, err, "Erreur lors du calcul des statistiques", "Error counting users")
		return
	}
	groups, err := h.store.ListGroups(ctx)
	if err != nil {
		h.internalError(c, err, "Erreur lors du calcul des statistiques", "Error counting groups")
		return
	}
	totalPosts, err := h.store.CountPosts(ctx, store.PostFilter{})
	if err != nil {
		h.internalError(c, err, "Erreur lors du calcul des statistiques", "Error counting posts")
		return
	}
	totalComments, err := h.store.CountComments(ctx)
	if err != nil {
		h.internalError(c, err, "Erreur lors du calcul des statistiques", "Error counting comments")
		return
	}
	totalFollows, err := h.store.CountFollows(ctx)
	if err != nil {
		h.internalError(c, err, "Erreur lors du calcul des statistiques", "Error counting follows")
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": gin.H{
		"total_users":    len(users),
		"total_groups":   len(groups),
		"total_posts":    totalPosts,
		"total_comments": totalComments,
		"total_follows":  totalFollows,
	}})
	logs.LogJSON("INFO", "Admin stats retrieved successfully", map[string]interface{}{
		"route":  c.FullPath(),
		"userID": c.GetString(middleware.UserIDKey),
	})
}

// ListGroups GET /api/groups
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.store.ListGroups(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "Erreur lors de la récupération des groupes", "Error listing groups")
		return
	}

	out := make([]interface{}, 0, len(groups))
	for i := range groups {
		out = append(out, render.Group(&groups[i]))
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

// CreateGroup POST /api/admin/groups
func (h *Handler) CreateGroup(c *gin.Context) {
	ctx := c.Request.Context()

	var input groupForm
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Slug = strings.TrimSpace(input.Slug)

	errs := validation.Struct(input)
	if errs["slug"] == nil {
		_, err := h.store.GroupBySlug(ctx, input.Slug)
		switch {
		case err == nil:
			errs.Add("slug", "Un groupe avec ce slug existe déjà.")
		case !errors.Is(err, store.ErrNotFound):
			h.internalError(c, err, "Erreur lors de la récupération du groupe", "Error retrieving group")
			return
		}
	}
	if !errs.Empty() {
		validation.Respond(c, errs)
		return
	}

	group := &models.Group{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Slug:        input.Slug,
		Description: input.Description,
	}
	if err := h.store.CreateGroup(ctx, group); err != nil {
		if errors.Is(err, store.ErrConstraint) {
			errs.Add("slug", "Un groupe avec ce slug existe déjà.")
			validation.Respond(c, errs)
			return
		}
		h.internalError(c, err, "Erreur lors de la création du groupe", "Error creating group")
		return
	}

	logs.LogJSON("INFO", "Group created", map[string]interface{}{
		"route":  c.FullPath(),
		"userID": c.GetString(middleware.UserIDKey),
		"extra":  "slug : " + group.Slug,
	})
	c.JSON(http.StatusCreated, gin.H{"group": render.Group(group)})
}

// DeleteGroup DELETE /api/admin/groups/:slug
// Les posts du groupe sont conservés, sans groupe.
func (h *Handler) DeleteGroup(c *gin.Context) {
	ctx := c.Request.Context()
	slug := c.Param("slug")

	group, err := h.store.GroupBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Groupe introuvable"})
		return
	}
	if err != nil {
		h.internalError(c, err, "Erreur lors de la récupération du groupe", "Error retrieving group")
		return
	}

	if err := h.store.DeleteGroup(ctx, group.ID); err != nil {
		h.internalError(c, err, "Erreur lors de la suppression du groupe", "Error deleting group")
		return
	}

	logs.LogJSON("INFO", "Group deleted", map[string]interface{}{
		"route":  c.FullPath(),
		"userID": c.GetString(middleware.UserIDKey),
		"extra":  "slug : " + slug,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Groupe supprimé"})
}

// DeleteUser DELETE /api/admin/users/:username
// Supprime aussi ses posts, commentaires et abonnements.
func (h *Handler) DeleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	route := c.FullPath()
	currentUserID := c.GetString(middleware.UserIDKey)
	username := c.Param("username")

	u, err := h.store.UserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}
	if err != nil {
		h.internalError(c, err, "Erreur de récupération de l'utilisateur", "Error retrieving user")
		return
	}

	if h.identity != nil {
		err := h.identity.DeleteUser(ctx, u.ID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Erreur Supabase de suppression d'utilisateur", "details": err.Error()})
			logs.LogJSON("ERROR", "Supabase user deletion error", map[string]interface{}{
				"error":  err.Error(),
				"route":  route,
				"userID": currentUserID,
				"extra":  "deleted user : " + u.ID,
			})
			return
		}
	}

	if err := h.store.DeleteUser(ctx, u.ID); err != nil {
		h.internalError(c, err, "Erreur lors de la suppression de l'utilisateur", "Error deleting user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Utilisateur supprimé"})
	logs.LogJSON("INFO", "User deleted successfully", map[string]interface{}{
		"route":  route,
		"userID": currentUserID,
		"extra":  "deleted user : " + u.ID,
	})
}

// ClearCache DELETE /api/admin/cache
func (h *Handler) ClearCache(c *gin.Context) {
	if h.cache != nil {
		if err := h.cache.Clear(c.Request.Context()); err != nil {
			h.internalError(c, err, "Erreur lors du vidage du cache", "Error clearing page cache")
			return
		}
	}

	logs.LogJSON("INFO", "Page cache cleared", map[string]interface{}{
		"route":  c.FullPath(),
		"userID": c.GetString(middleware.UserIDKey),
	})
	c.JSON(http.StatusOK, gin.H{"message": "Cache vidé"})
}
