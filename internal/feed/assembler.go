// Package feed assemble les fils paginés : accueil, groupe, profil et abonnements.
package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexanderUp/hw05-final/internal/models"
	"github.com/AlexanderUp/hw05-final/internal/store"
)

// ErrNotFound : le slug ou le username du fil ne correspond à rien.
var ErrNotFound = store.ErrNotFound

// ErrViewerRequired : le fil des abonnements demande un utilisateur connecté.
var ErrViewerRequired = errors.New("feed: followed view requires a viewer")

type Kind int

const (
	KindGlobal Kind = iota
	KindGroup
	KindAuthor
	KindFollowed
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindAuthor:
		return "author"
	case KindFollowed:
		return "followed"
	default:
		return "global"
	}
}

// View décrit quel fil assembler.
type View struct {
	Kind     Kind
	Slug     string
	Username string
	ViewerID string
}

func Global() View { return View{Kind: KindGlobal} }
func ByGroup(slug string) View { return View{Kind: KindGroup, Slug: slug} }
func ByAuthor(username string) View { return View{Kind: KindAuthor, Username: username} }
func Followed(viewerID string) View { return View{Kind: KindFollowed, ViewerID: viewerID} }

// Result porte la page et l'entité résolue par la vue (groupe ou auteur).
type Result struct {
	Page   *Page
	Group  *models.Group
	Author *models.User
}

// Source est la partie du store dont l'assembleur a besoin.
type Source interface {
	GroupBySlug(ctx context.Context, slug string) (*models.Group, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	CountPosts(ctx context.Context, filter store.PostFilter) (int64, error)
	ListPosts(ctx context.Context, filter store.PostFilter, offset, limit int) ([]models.Post, error)
}

// FollowGraph donne les auteurs suivis par un utilisateur.
type FollowGraph interface {
	FollowedAuthorIDs(ctx context.Context, followerID string) ([]string, error)
}

type Assembler struct {
	source  Source
	graph   FollowGraph
	perPage int
}

func NewAssembler(source Source, graph FollowGraph, perPage int) *Assembler {
	return &Assembler{source: source, graph: graph, perPage: perPage}
}

func (a *Assembler) PerPage() int {
	return a.perPage
}

// Assemble renvoie la page demandée du fil, du plus récent au plus ancien.
// Une page hors limites est ramenée à la première ou à la dernière.
func (a *Assembler) Assemble(ctx context.Context, view View, page int) (*Result, error) {
	result := &Result{}
	var filter store.PostFilter

	switch view.Kind {
	case KindGlobal:
	case KindGroup:
		group, err := a.source.GroupBySlug(ctx, view.Slug)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", view.Slug, err)
		}
		result.Group = group
		filter.GroupID = group.ID
	case KindAuthor:
		author, err := a.source.UserByUsername(ctx, view.Username)
		if err != nil {
			return nil, fmt.Errorf("author %q: %w", view.Username, err)
		}
		result.Author = author
		filter.AuthorIDs = []string{author.ID}
	case KindFollowed:
		if view.ViewerID == "" {
			return nil, ErrViewerRequired
		}
		ids, err := a.graph.FollowedAuthorIDs(ctx, view.ViewerID)
		if err != nil {
			return nil, fmt.Errorf("followed authors: %w", err)
		}
		if len(ids) == 0 {
			// Un filtre vide ne restreint rien : sans abonnement, le fil est vide.
			result.Page = Paginate(0, a.perPage, page)
			return result, nil
		}
		filter.AuthorIDs = ids
	default:
		return nil, fmt.Errorf("feed: unknown view kind %d", view.Kind)
	}

	count, err := a.source.CountPosts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count %s posts: %w", view.Kind, err)
	}

	p := Paginate(count, a.perPage, page)
	if count > 0 {
		posts, err := a.source.ListPosts(ctx, filter, p.Offset(), p.PerPage)
		if err != nil {
			return nil, fmt.Errorf("list %s posts: %w", view.Kind, err)
		}
		p.Posts = posts
	}
	result.Page = p
	return result, nil
}
