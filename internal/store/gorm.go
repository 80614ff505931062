package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AlexanderUp/hw05-final/internal/models"
)

// Codes SQLSTATE postgres.
const (
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02" // ex. un id qui n'est pas un UUID
)

// Gorm est le Store adossé à postgres. Les contraintes (unicité, check,
// cascades) sont portées par le schéma, voir internal/database/migrations.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate convertit les erreurs gorm/pgx en erreurs du package.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isDanglingReference(err) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}

// isDanglingReference couvre les ids mal formés et les clés étrangères vers
// un enregistrement absent : les deux se traduisent par ErrNotFound.
func isDanglingReference(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation || pgErr.Code == pgInvalidText
	}
	return false
}

func isConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation || pgErr.Code == pgCheckViolation
	}
	return false
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Users ---

func (s *Gorm) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Gorm) UserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Gorm) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Gorm) UpdateUser(ctx context.Context, u *models.User) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{ID: u.ID}).
		Select("username", "firstname", "lastname").
		Updates(map[string]interface{}{
			"username":  u.Username,
			"firstname": u.Firstname,
			"lastname":  u.Lastname,
		})
	return affected(res)
}

func (s *Gorm) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (s *Gorm) DeleteUser(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id))
}

// --- Groups ---

func (s *Gorm) CreateGroup(ctx context.Context, g *models.Group) error {
	return translate(s.db.WithContext(ctx).Create(g).Error)
}

func (s *Gorm) GroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&g).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (s *Gorm) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Order("title").Find(&groups).Error; err != nil {
		return nil, translate(err)
	}
	return groups, nil
}

func (s *Gorm) DeleteGroup(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Group{}, "id = ?", id))
}

// --- Posts ---

func (s *Gorm) CreatePost(ctx context.Context, p *models.Post) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error)
}

func (s *Gorm) PostByID(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Gorm) UpdatePost(ctx context.Context, p *models.Post) error {
	res := s.db.WithContext(ctx).
		Model(&models.Post{ID: p.ID}).
		Select("text", "group_id", "image_url").
		Updates(map[string]interface{}{
			"text":      p.Text,
			"group_id":  p.GroupID,
			"image_url": p.ImageURL,
		})
	return affected(res)
}

func (s *Gorm) DeletePost(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id))
}

func (s *Gorm) filteredPosts(ctx context.Context, filter PostFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Post{})
	if filter.GroupID != "" {
		query = query.Where("group_id = ?", filter.GroupID)
	}
	if len(filter.AuthorIDs) > 0 {
		query = query.Where("author_id IN ?", filter.AuthorIDs)
	}
	return query
}

func (s *Gorm) CountPosts(ctx context.Context, filter PostFilter) (int64, error) {
	var count int64
	if err := s.filteredPosts(ctx, filter).Count(&count).Error; err != nil {
		return 0, translate(err)
	}
	return count, nil
}

func (s *Gorm) ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.filteredPosts(ctx, filter).
		Preload("Author").
		Preload("Group").
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func (s *Gorm) PostIDsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	return ids, nil
}

// --- Comments ---

func (s *Gorm) CreateComment(ctx context.Context, c *models.Comment) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error)
}

func (s *Gorm) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).Preload("Author").First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Gorm) UpdateComment(ctx context.Context, c *models.Comment) error {
	return affected(s.db.WithContext(ctx).Model(&models.Comment{ID: c.ID}).Update("text", c.Text))
}

func (s *Gorm) DeleteComment(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id))
}

func (s *Gorm) CommentsByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, translate(err)
	}
	return comments, nil
}

func (s *Gorm) CountComments(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Count(&count).Error; err != nil {
		return 0, translate(err)
	}
	return count, nil
}

// --- Follows ---

func (s *Gorm) CreateFollow(ctx context.Context, f *models.Follow) error {
	return translate(s.db.WithContext(ctx).Create(f).Error)
}

func (s *Gorm) DeleteFollow(ctx context.Context, followerID, authorID string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND author_id = ?", followerID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Gorm) FollowExists(ctx context.Context, followerID, authorID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND author_id = ?", followerID, authorID).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (s *Gorm) FollowedAuthorIDs(ctx context.Context, followerID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	return ids, nil
}

func (s *Gorm) CountFollowers(ctx context.Context, authorID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, translate(err)
}

func (s *Gorm) CountFollowing(ctx context.Context, followerID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", followerID).Count(&count).Error
	return count, translate(err)
}

func (s *Gorm) CountFollows(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).Count(&count).Error
	return count, translate(err)
}

var _ Store = (*Gorm)(nil)
