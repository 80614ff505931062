package post

import (
	"errors"
	"net/http"

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

// loadComment charge le commentaire :id, ou répond 404.
func (h *Handler) loadComment(c *gin.Context) (*models.Comment, bool) {
	commentID := c.Param("id")

	comment, err := h.store.CommentByID(c.Request.Context(), commentID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commentaire non trouvé"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la récupération du commentaire"})
		logs.LogJSON("ERROR", "Error retrieving comment", map[string]interface{}{
			"error":  err.Error(),
			"route":  c.FullPath(),
			"userID": c.GetString(middleware.UserIDKey),
			"extra":  "commentID : " + commentID,
		})
		return nil, false
	}
	return comment, true
}

func respondComment(c *gin.Context, comment *models.Comment) {
	c.JSON(http.StatusOK, gin.H{"comment": render.Comment(*comment)})
}

// GetCommentsByPostID GET /api/posts/:id/comments
func (h *Handler) GetCommentsByPostID(c *gin.Context) {
	p, ok := h.loadPost(c)
	if !ok {
		return
	}

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
		"comments": render.Comments(comments),
	})
}

// CreateComment POST /api/posts/:id/comment
// Un commentaire vide est refusé avec une erreur de champ.
func (h *Handler) CreateComment(c *gin.Context) {
	ctx := c.Request.Context()
	route := c.FullPath()
	userID := c.GetString(middleware.UserIDKey)

	p, ok := h.loadPost(c)
	if !ok {
		return
	}

	form, errs := h.bindCommentForm(c)
	if !errs.Empty() {
		validation.Respond(c, errs)
		return
	}

	comment := models.Comment{
		ID:        uuid.New().String(),
		CreatedAt: h.now(),
		Text:      form.Text,
		AuthorID:  userID,
		PostID:    p.ID,
	}
	if err := h.store.CreateComment(ctx, &comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la création du commentaire"})
		logs.LogJSON("ERROR", "Error creating comment", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": userID,
			"extra":  "postID : " + p.ID,
		})
		return
	}

	created, err := h.store.CommentByID(ctx, comment.ID)
	if err != nil {
		created = &comment
	}

	h.publish(ctx, events.CommentCreated, userID, events.CommentEvent{
		CommentID: comment.ID,
		PostID:    p.ID,
		AuthorID:  userID,
		Timestamp: comment.CreatedAt,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Commentaire ajouté avec succès",
		"comment": render.Comment(*created),
	})
}

// GetComment GET /api/comments/:id
func (h *Handler) GetComment(c *gin.Context) {
	comment, ok := h.loadComment(c)
	if !ok {
		return
	}
	respondComment(c, comment)
}

// EditCommentForm GET /api/comments/:id/edit
func (h *Handler) EditCommentForm(c *gin.Context) {
	comment, ok := h.loadComment(c)
	if !ok {
		return
	}
	if !authz.CanModify(middleware.Principal(c), comment) {
		respondComment(c, comment)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comment": render.Comment(*comment),
		"is_edit": true,
		"form":    gin.H{"text": comment.Text},
	})
}

// EditComment POST /api/comments/:id/edit
func (h *Handler) EditComment(c *gin.Context) {
	ctx := c.Request.Context()
	route := c.FullPath()
	userID := c.GetString(middleware.UserIDKey)

	comment, ok := h.loadComment(c)
	if !ok {
		return
	}
	if !authz.CanModify(middleware.Principal(c), comment) {
		respondComment(c, comment)
		return
	}

	form, errs := h.bindCommentForm(c)
	if !errs.Empty() {
		validation.Respond(c, errs)
		return
	}

	comment.Text = form.Text
	if err := h.store.UpdateComment(ctx, comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la modification du commentaire"})
		logs.LogJSON("ERROR", "Error updating comment", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": userID,
			"extra":  "commentID : " + comment.ID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Commentaire modifié avec succès",
		"comment": render.Comment(*comment),
	})
}

// DeleteComment DELETE /api/comments/:id
func (h *Handler) DeleteComment(c *gin.Context) {
	route := c.FullPath()
	userID := c.GetString(middleware.UserIDKey)

	comment, ok := h.loadComment(c)
	if !ok {
		return
	}
	if !authz.CanModify(middleware.Principal(c), comment) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Vous n'êtes pas autorisé à supprimer ce commentaire"})
		return
	}

	if err := h.store.DeleteComment(c.Request.Context(), comment.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la suppression du commentaire"})
		logs.LogJSON("ERROR", "Error deleting comment", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": userID,
			"extra":  "commentID : " + comment.ID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Commentaire supprimé avec succès",
	})
}
