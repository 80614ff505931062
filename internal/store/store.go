package store

import (
	"context"
	"errors"

	"github.com/AlexanderUp/hw05-final/internal/models"
)

var (
	// ErrNotFound : l'enregistrement demandé n'existe pas.
	ErrNotFound = errors.New("store: record not found")
	// ErrConstraint : une contrainte d'intégrité (unicité, check) a été violée.
	ErrConstraint = errors.New("store: constraint violation")
)

// PostFilter restreint les posts listés. Un champ vide ne filtre rien.
type PostFilter struct {
	GroupID   string
	AuthorIDs []string
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdateUser modifie username, prénom et nom. ErrConstraint si le
	// username est déjà pris.
	UpdateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type GroupStore interface {
	CreateGroup(ctx context.Context, g *models.Group) error
	GroupBySlug(ctx context.Context, slug string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	DeleteGroup(ctx context.Context, id string) error
}

type PostStore interface {
	CreatePost(ctx context.Context, p *models.Post) error
	PostByID(ctx context.Context, id string) (*models.Post, error)
	// UpdatePost ne touche ni à l'auteur ni à la date de création.
	UpdatePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id string) error
	CountPosts(ctx context.Context, filter PostFilter) (int64, error)
	ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error)
	PostIDsByAuthor(ctx context.Context, authorID string) ([]string, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	CommentByID(ctx context.Context, id string) (*models.Comment, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id string) error
	CommentsByPost(ctx context.Context, postID string) ([]models.Comment, error)
	CountComments(ctx context.Context) (int64, error)
}

type FollowStore interface {
	// CreateFollow renvoie ErrConstraint si l'arête existe déjà ou si
	// followerID == authorID.
	CreateFollow(ctx context.Context, f *models.Follow) error
	// DeleteFollow renvoie le nombre d'arêtes supprimées (0 ou 1).
	DeleteFollow(ctx context.Context, followerID, authorID string) (int64, error)
	FollowExists(ctx context.Context, followerID, authorID string) (bool, error)
	FollowedAuthorIDs(ctx context.Context, followerID string) ([]string, error)
	CountFollowers(ctx context.Context, authorID string) (int64, error)
	CountFollowing(ctx context.Context, followerID string) (int64, error)
	CountFollows(ctx context.Context) (int64, error)
}

// Store regroupe l'accès à toutes les entités.
type Store interface {
	UserStore
	GroupStore
	PostStore
	CommentStore
	FollowStore
	Close() error
}
