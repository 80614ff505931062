// Package testutil regroupe les helpers partagés par les tests des handlers.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AlexanderUp/hw05-final/internal/models"
	"github.com/AlexanderUp/hw05-final/internal/store"
)

// Secret signe les tokens de test.
var Secret = []byte("test-secret")

// Epoch sert d'horloge de départ pour des posts ordonnés de façon déterministe.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Token renvoie un token HS256 au format Supabase pour userID.
func Token(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(Secret)
	require.NoError(t, err)
	return signed
}

// Bearer renvoie la valeur du header Authorization pour userID.
func Bearer(t *testing.T, userID string) string {
	return "Bearer " + Token(t, userID)
}

func NewUser(t *testing.T, s store.UserStore, username string) *models.User {
	t.Helper()
	u := &models.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    username + "@example.com",
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func NewGroup(t *testing.T, s store.GroupStore, title, slug string) *models.Group {
	t.Helper()
	g := &models.Group{
		ID:          uuid.New().String(),
		Title:       title,
		Slug:        slug,
		Description: "Description de " + title,
	}
	require.NoError(t, s.CreateGroup(context.Background(), g))
	return g
}

// NewPost crée un post publié à Epoch + minute minutes.
func NewPost(t *testing.T, s store.PostStore, author *models.User, group *models.Group, text string, minute int) *models.Post {
	t.Helper()
	p := &models.Post{
		ID:        uuid.New().String(),
		CreatedAt: Epoch.Add(time.Duration(minute) * time.Minute),
		Text:      text,
		AuthorID:  author.ID,
	}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, s.CreatePost(context.Background(), p))
	return p
}

func NewComment(t *testing.T, s store.CommentStore, author *models.User, post *models.Post, text string, minute int) *models.Comment {
	t.Helper()
	c := &models.Comment{
		ID:        uuid.New().String(),
		CreatedAt: Epoch.Add(time.Duration(minute) * time.Minute),
		Text:      text,
		AuthorID:  author.ID,
		PostID:    post.ID,
	}
	require.NoError(t, s.CreateComment(context.Background(), c))
	return c
}
