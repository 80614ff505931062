// Package render construit les réponses JSON à partir des entités. Seuls les
// champs publics sortent (pas d'email, pas de flag admin).
package render

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AlexanderUp/hw05-final/internal/models"
)

// Bytes sérialise une réponse, pour les pages mises en cache.
func Bytes(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func User(u models.User) gin.H {
	return gin.H{
		"id":       u.ID,
		"username": u.Username,
	}
}

func Group(g *models.Group) interface{} {
	if g == nil {
		return nil
	}
	return gin.H{
		"id":          g.ID,
		"title":       g.Title,
		"slug":        g.Slug,
		"description": g.Description,
	}
}

func Post(p models.Post) gin.H {
	return gin.H{
		"id":       p.ID,
		"text":     p.Text,
		"pub_date": p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"author":   User(p.Author),
		"group":    Group(p.Group),
		"image":    p.ImageURL,
	}
}

func Posts(posts []models.Post) []gin.H {
	out := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		out = append(out, Post(p))
	}
	return out
}

func Comment(c models.Comment) gin.H {
	return gin.H{
		"id":      c.ID,
		"post_id": c.PostID,
		"text":    c.Text,
		"created": c.CreatedAt.UTC().Format(time.RFC3339Nano),
		"author":  User(c.Author),
	}
}

func Comments(comments []models.Comment) []gin.H {
	out := make([]gin.H, 0, len(comments))
	for _, c := range comments {
		out = append(out, Comment(c))
	}
	return out
}

// Viewer décrit l'utilisateur connecté dans les pages ; nil pour un anonyme.
func Viewer(u *models.User) interface{} {
	if u == nil {
		return nil
	}
	return User(*u)
}
