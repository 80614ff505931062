// Package auth relie l'inscription et la connexion à Supabase Auth. Les
// tokens émis par Supabase sont ensuite vérifiés par le middleware.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AlexanderUp/hw05-final/internal/logs"
	"github.com/AlexanderUp/hw05-final/internal/models"
	"github.com/AlexanderUp/hw05-final/internal/store"
	"github.com/AlexanderUp/hw05-final/internal/validation"
)

// Provider est le fournisseur d'identité.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	Token(ctx context.Context, credentials interface{}) (int, []byte, error)
}

type Handler struct {
	users    store.UserStore
	provider Provider
	now      func() time.Time
}

func NewHandler(users store.UserStore, provider Provider) *Handler {
	return &Handler{users: users, provider: provider, now: time.Now}
}

type signupForm struct {
	Email     string `form:"email" json:"email" validate:"required,email"`
	Password  string `form:"password" json:"password" validate:"required,min=8"`
	Username  string `form:"username" json:"username" validate:"required,max=150,username"`
	Firstname string `form:"firstname" json:"firstname" validate:"max=150"`
	Lastname  string `form:"lastname" json:"lastname" validate:"max=150"`
}

type loginForm struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

// Signup POST /api/signup
func (h *Handler) Signup(c *gin.Context) {
	ctx := c.Request.Context()
	route := c.FullPath()

	var input signupForm
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}
	input.Email = strings.TrimSpace(input.Email)
	input.Username = strings.TrimSpace(input.Username)

	errs := validation.Struct(input)
	if errs["username"] == nil {
		_, err := h.users.UserByUsername(ctx, input.Username)
		switch {
		case err == nil:
			errs.Add("username", "Un utilisateur avec ce nom existe déjà.")
		case !errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur de récupération de l'utilisateur"})
			logs.LogJSON("ERROR", "Error retrieving user", map[string]interface{}{
				"error": err.Error(),
				"route": route,
			})
			return
		}
	}
	if !errs.Empty() {
		validation.Respond(c, errs)
		return
	}

	// Étape 1 : compte Supabase Auth
	userID, err := h.provider.SignUp(ctx, input.Email, input.Password)
	if err != nil {
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			c.JSON(providerErr.Status, gin.H{"error": "Erreur Auth", "details": providerErr.Body})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur Supabase Auth"})
		}
		logs.LogJSON("ERROR", "Supabase signup error", map[string]interface{}{
			"error": err.Error(),
			"route": route,
		})
		return
	}

	// Étape 2 : utilisateur applicatif avec le même id
	newUser := models.User{
		ID:        userID,
		CreatedAt: h.now(),
		Username:  input.Username,
		Firstname: input.Firstname,
		Lastname:  input.Lastname,
		Email:     input.Email,
	}
	if err := h.users.CreateUser(ctx, &newUser); err != nil {
		if errors.Is(err, store.ErrConstraint) {
			errs.Add("username", "Un utilisateur avec ce nom existe déjà.")
			validation.Respond(c, errs)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur insertion base utilisateurs"})
		logs.LogJSON("ERROR", "Error inserting user", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": userID,
		})
		return
	}

	logs.LogJSON("INFO", "User signed up", map[string]interface{}{
		"route":  route,
		"userID": userID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Utilisateur inscrit 🎉",
		"user": gin.H{
			"id":       newUser.ID,
			"username": newUser.Username,
			"email":    newUser.Email,
		},
	})
}

// Login POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var input loginForm
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}
	if errs := validation.Struct(input); !errs.Empty() {
		validation.Respond(c, errs)
		return
	}

	status, body, err := h.provider.Token(c.Request.Context(), map[string]string{
		"email":    input.Email,
		"password": input.Password,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion Supabase"})
		logs.LogJSON("ERROR", "Supabase login error", map[string]interface{}{
			"error": err.Error(),
			"route": c.FullPath(),
		})
		return
	}
	c.Data(status, "application/json", body)
}
