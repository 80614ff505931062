// Package user expose le compte de l'utilisateur connecté.
package user

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AlexanderUp/hw05-final/internal/logs"
	"github.com/AlexanderUp/hw05-final/internal/middleware"
	"github.com/AlexanderUp/hw05-final/internal/models"
	"github.com/AlexanderUp/hw05-final/internal/store"
	"github.com/AlexanderUp/hw05-final/internal/validation"
)

type Handler struct {
	users store.UserStore
}

func NewHandler(users store.UserStore) *Handler {
	return &Handler{users: users}
}

type updateForm struct {
	Username  *string `form:"username" json:"username" validate:"omitempty,max=150,username"`
	Firstname *string `form:"firstname" json:"firstname" validate:"omitempty,max=150"`
	Lastname  *string `form:"lastname" json:"lastname" validate:"omitempty,max=150"`
}

func meResponse(u *models.User) gin.H {
	response := gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"username":   u.Username,
		"firstname":  u.Firstname,
		"lastname":   u.Lastname,
		"created_at": u.CreatedAt,
	}
	if u.IsAdmin {
		response["is_admin"] = true
	}
	return response
}

func (h *Handler) loadMe(c *gin.Context) (*models.User, bool) {
	userID := c.GetString(middleware.UserIDKey)

	u, err := h.users.UserByID(c.Request.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur non trouvé"})
		logs.LogJSON("WARN", "User not found", map[string]interface{}{
			"route":  c.FullPath(),
			"userID": userID,
		})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur de récupération de l'utilisateur"})
		logs.LogJSON("ERROR", "Error retrieving user", map[string]interface{}{
			"error":  err.Error(),
			"route":  c.FullPath(),
			"userID": userID,
		})
		return nil, false
	}
	return u, true
}

// GetMe GET /api/me
func (h *Handler) GetMe(c *gin.Context) {
	u, ok := h.loadMe(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": meResponse(u)})
}

// UpdateMe PATCH /api/me
// Seuls les champs fournis sont modifiés.
func (h *Handler) UpdateMe(c *gin.Context) {
	route := c.FullPath()

	u, ok := h.loadMe(c)
	if !ok {
		return
	}

	var input updateForm
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}
	if input.Username != nil {
		trimmed := strings.TrimSpace(*input.Username)
		input.Username = &trimmed
	}
	if errs := validation.Struct(input); !errs.Empty() {
		validation.Respond(c, errs)
		return
	}

	if input.Username != nil && *input.Username != "" {
		u.Username = *input.Username
	}
	if input.Firstname != nil {
		u.Firstname = *input.Firstname
	}
	if input.Lastname != nil {
		u.Lastname = *input.Lastname
	}

	err := h.users.UpdateUser(c.Request.Context(), u)
	if errors.Is(err, store.ErrConstraint) {
		errs := validation.Errors{}
		errs.Add("username", "Un utilisateur avec ce nom existe déjà.")
		validation.Respond(c, errs)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour utilisateur"})
		logs.LogJSON("ERROR", "User update error", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": u.ID,
		})
		return
	}

	logs.LogJSON("INFO", "User updated successfully", map[string]interface{}{
		"route":  route,
		"userID": u.ID,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Profil mis à jour", "user": meResponse(u)})
}
