// Package authz décide qui peut modifier quoi. Les fonctions sont pures :
// elles ne modifient rien, c'est à l'appelant de rediriger ou refuser.
package authz

import "github.com/AlexanderUp/hw05-final/internal/models"

// Principal est l'utilisateur à l'origine de la requête. UserID vide = anonyme.
type Principal struct {
	UserID string
}

var Anonymous = Principal{}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// Owned est implémenté par les ressources qui ont un auteur (Post, Comment).
type Owned interface {
	OwnerID() string
}

// CanModify est vrai si et seulement si le principal est l'auteur de la ressource.
func CanModify(p Principal, r Owned) bool {
	if !p.Authenticated() || isNil(r) {
		return false
	}
	return p.UserID == r.OwnerID()
}

// isNil détecte aussi un *models.Post ou *models.Comment nil dans l'interface.
func isNil(r Owned) bool {
	switch v := r.(type) {
	case nil:
		return true
	case *models.Post:
		return v == nil
	case *models.Comment:
		return v == nil
	}
	return false
}
