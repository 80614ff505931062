// Package post expose les posts et leurs commentaires : détail, création,
// édition et suppression réservées à l'auteur.
package post

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AlexanderUp/hw05-final/internal/authz"
	"github.com/AlexanderUp/hw05-final/internal/events"
	"github.com/AlexanderUp/hw05-final/internal/logs"
	"github.com/AlexanderUp/hw05-final/internal/middleware"
	"github.com/AlexanderUp/hw05-final/internal/models"
	"github.com/AlexanderUp/hw05-final/internal/render"
	"github.com/AlexanderUp/hw05-final/internal/store"
	"github.com/AlexanderUp/hw05-final/internal/validation"
)

// ImageStore héberge les images des posts.
type ImageStore interface {
	Upload(ctx context.Context, r io.Reader, filename, contentType, folder string) (string, error)
	Delete(ctx context.Context, url string) error
}

// Store est la partie du store utilisée par les handlers de posts.
type Store interface {
	store.GroupStore
	store.PostStore
	store.CommentStore
}

type Handler struct {
	store  Store
	images ImageStore
	events events.Publisher
	now    func() time.Time
}

// NewHandler construit les handlers. images peut être nil : l'envoi d'image
// est alors refusé avec une erreur de champ.
func NewHandler(s Store, images ImageStore, pub events.Publisher) *Handler {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Handler{store: s, images: images, events: pub, now: time.Now}
}

func (h *Handler) publish(ctx context.Context, subject, userID string, payload interface{}) {
	if err := h.events.Publish(ctx, subject, payload); err != nil {
		logs.LogJSON("ERROR", "Error publishing event", map[string]interface{}{
			"error":   err.Error(),
			"subject": subject,
			"userID":  userID,
		})
	}
}

// loadPost charge le post :id, ou répond 404.
func (h *Handler) loadPost(c *gin.Context) (*models.Post, bool) {
	postID := c.Param("id")

	p, err := h.store.PostByID(c.Request.Context(), postID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post non trouvé"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la récupération du post"})
		logs.LogJSON("ERROR", "Error retrieving post", map[string]interface{}{
			"error":  err.Error(),
			"route":  c.FullPath(),
			"userID": c.GetString(middleware.UserIDKey),
			"extra":  "postID : " + postID,
		})
		return nil, false
	}
	return p, true
}

// respondDetail rend la page de détail d'un post. L'édition par un autre
// utilisateur que l'auteur aboutit ici aussi.
func (h *Handler) respondDetail(c *gin.Context, p *models.Post) {
	comments, err := h.store.CommentsByPost(c.Request.Context(), p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la récupération des commentaires"})
		logs.LogJSON("ERROR", "Error retrieving comments", map[string]interface{}{
			"error": err.Error(),
			"route": c.FullPath(),
			"extra": "postID : " + p.ID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":           render.Post(*p),
		"comments":       render.Comments(comments),
		"comments_count": len(comments),
	})
}

// GetPost GET /api/posts/:id
func (h *Handler) GetPost(c *gin.Context) {
	p, ok := h.loadPost(c)
	if !ok {
		return
	}
	h.respondDetail(c, p)
}

// CreatePost POST /api/posts
func (h *Handler) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()
	route := c.FullPath()
	userID := c.GetString(middleware.UserIDKey)

	form, group, image, errs, err := h.bindPostForm(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la récupération du groupe"})
		logs.LogJSON("ERROR", "Error retrieving group", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": userID,
		})
		return
	}
	if !errs.Empty() {
		validation.Respond(c, errs)
		return
	}

	newPost := models.Post{
		ID:        uuid.New().String(),
		CreatedAt: h.now(),
		Text:      form.Text,
		AuthorID:  userID,
	}
	if group != nil {
		newPost.GroupID = &group.ID
	}

	if image != nil {
		url, err := h.uploadImage(ctx, newPost.ID, image)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de l'upload", "details": err.Error()})
			logs.LogJSON("ERROR", "Error uploading image", map[string]interface{}{
				"error":  err.Error(),
				"route":  route,
				"userID": userID,
			})
			return
		}
		newPost.ImageURL = &url
	}

	if err := h.store.CreatePost(ctx, &newPost); err != nil {
		// L'image déjà envoyée ne doit pas rester orpheline.
		if newPost.ImageURL != nil {
			_ = h.images.Delete(ctx, *newPost.ImageURL)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la création du post"})
		logs.LogJSON("ERROR", "Error creating post", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": userID,
		})
		return
	}

	created, err := h.store.PostByID(ctx, newPost.ID)
	if err != nil {
		created = &newPost
	}

	h.publish(ctx, events.PostCreated, userID, events.PostEvent{
		PostID:    newPost.ID,
		AuthorID:  userID,
		GroupID:   newPost.GroupID,
		Timestamp: newPost.CreatedAt,
	})
	logs.LogJSON("INFO", "Post created", map[string]interface{}{
		"route":  route,
		"userID": userID,
		"extra":  "postID : " + newPost.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post créé avec succès",
		"post":    render.Post(*created),
	})
}

// EditPostForm GET /api/posts/:id/edit
func (h *Handler) EditPostForm(c *gin.Context) {
	p, ok := h.loadPost(c)
	if !ok {
		return
	}
	if !authz.CanModify(middleware.Principal(c), p) {
		h.respondDetail(c, p)
		return
	}

	group := ""
	if p.Group != nil {
		group = p.Group.Slug
	}
	c.JSON(http.StatusOK, gin.H{
		"post":    render.Post(*p),
		"is_edit": true,
		"form": gin.H{
			"text":  p.Text,
			"group": group,
		},
	})
}

// EditPost POST /api/posts/:id/edit
func (h *Handler) EditPost(c *gin.Context) {
	ctx := c.Request.Context()
	route := c.FullPath()
	userID := c.GetString(middleware.UserIDKey)

	p, ok := h.loadPost(c)
	if !ok {
		return
	}
	if !authz.CanModify(middleware.Principal(c), p) {
		logs.LogJSON("WARN", "Edit attempt by non-author", map[string]interface{}{
			"route":  route,
			"userID": userID,
			"extra":  "postID : " + p.ID,
		})
		h.respondDetail(c, p)
		return
	}

	form, group, image, errs, err := h.bindPostForm(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la récupération du groupe"})
		logs.LogJSON("ERROR", "Error retrieving group", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": userID,
		})
		return
	}
	if !errs.Empty() {
		validation.Respond(c, errs)
		return
	}

	oldImage := p.ImageURL
	p.Text = form.Text
	p.GroupID = nil
	p.Group = group
	if group != nil {
		p.GroupID = &group.ID
	}
	if image != nil {
		url, err := h.uploadImage(ctx, p.ID, image)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de l'upload", "details": err.Error()})
			logs.LogJSON("ERROR", "Error uploading image", map[string]interface{}{
				"error":  err.Error(),
				"route":  route,
				"userID": userID,
			})
			return
		}
		p.ImageURL = &url
	}

	if err := h.store.UpdatePost(ctx, p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la modification du post"})
		logs.LogJSON("ERROR", "Error updating post", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": userID,
			"extra":  "postID : " + p.ID,
		})
		return
	}
	if image != nil && oldImage != nil && *oldImage != *p.ImageURL {
		h.deleteImage(ctx, route, userID, *oldImage)
	}

	updated, err := h.store.PostByID(ctx, p.ID)
	if err != nil {
		updated = p
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Post modifié avec succès",
		"post":    render.Post(*updated),
	})
}

func (h *Handler) deleteImage(ctx context.Context, route, userID, url string) {
	if h.images == nil {
		return
	}
	if err := h.images.Delete(ctx, url); err != nil {
		// La suppression en base continue même si l'image reste sur S3.
		logs.LogJSON("ERROR", "Error deleting image", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": userID,
			"extra":  "url : " + url,
		})
	}
}

// DeletePost DELETE /api/posts/:id
func (h *Handler) DeletePost(c *gin.Context) {
	ctx := c.Request.Context()
	route := c.FullPath()
	userID := c.GetString(middleware.UserIDKey)

	p, ok := h.loadPost(c)
	if !ok {
		return
	}
	if !authz.CanModify(middleware.Principal(c), p) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Vous n'êtes pas autorisé à supprimer ce post"})
		return
	}

	if p.ImageURL != nil {
		h.deleteImage(ctx, route, userID, *p.ImageURL)
	}

	if err := h.store.DeletePost(ctx, p.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la suppression du post"})
		logs.LogJSON("ERROR", "Error deleting post", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": userID,
			"extra":  "postID : " + p.ID,
		})
		return
	}

	h.publish(ctx, events.PostDeleted, userID, events.PostEvent{
		PostID:    p.ID,
		AuthorID:  p.AuthorID,
		GroupID:   p.GroupID,
		Timestamp: h.now(),
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Post supprimé avec succès",
	})
}
