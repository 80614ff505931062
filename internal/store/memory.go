package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AlexanderUp/hw05-final/internal/models"
)

// Memory est un Store en mémoire. Il vérifie lui-même les contraintes que le
// schéma postgres impose (unicité, pas d'auto-abonnement, cascades).
type Memory struct {
	mu       sync.RWMutex
	users    map[string]models.User
	groups   map[string]models.Group
	posts    map[string]models.Post
	comments map[string]models.Comment
	follows  map[string]models.Follow
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]models.User),
		groups:   make(map[string]models.Group),
		posts:    make(map[string]models.Post),
		comments: make(map[string]models.Comment),
		follows:  make(map[string]models.Follow),
		now:      time.Now,
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) stamp(t *time.Time) {
	if t.IsZero() {
		*t = m.now()
	}
}

// --- Users ---

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; ok {
		return fmt.Errorf("%w: duplicate user id %s", ErrConstraint, u.ID)
	}
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return fmt.Errorf("%w: duplicate username %s", ErrConstraint, u.Username)
		}
	}
	m.stamp(&u.CreatedAt)
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) UserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, existing := range m.users {
		if id != u.ID && existing.Username == u.Username {
			return fmt.Errorf("%w: duplicate username %s", ErrConstraint, u.Username)
		}
	}
	stored.Username = u.Username
	stored.Firstname = u.Firstname
	stored.Lastname = u.Lastname
	m.users[u.ID] = stored
	return nil
}

func (m *Memory) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	for postID, p := range m.posts {
		if p.AuthorID == id {
			m.deletePostLocked(postID)
		}
	}
	for commentID, c := range m.comments {
		if c.AuthorID == id {
			delete(m.comments, commentID)
		}
	}
	for followID, f := range m.follows {
		if f.FollowerID == id || f.AuthorID == id {
			delete(m.follows, followID)
		}
	}
	return nil
}

// --- Groups ---

func (m *Memory) CreateGroup(_ context.Context, g *models.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[g.ID]; ok {
		return fmt.Errorf("%w: duplicate group id %s", ErrConstraint, g.ID)
	}
	for _, existing := range m.groups {
		if existing.Slug == g.Slug {
			return fmt.Errorf("%w: duplicate slug %s", ErrConstraint, g.Slug)
		}
	}
	m.groups[g.ID] = *g
	return nil
}

func (m *Memory) GroupBySlug(_ context.Context, slug string) (*models.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, g := range m.groups {
		if g.Slug == slug {
			g := g
			return &g, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListGroups(_ context.Context) ([]models.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	groups := make([]models.Group, 0, len(m.groups))
	for _, g := range m.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Title < groups[j].Title })
	return groups, nil
}

func (m *Memory) DeleteGroup(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[id]; !ok {
		return ErrNotFound
	}
	delete(m.groups, id)
	// ON DELETE SET NULL
	for postID, p := range m.posts {
		if p.GroupID != nil && *p.GroupID == id {
			p.GroupID = nil
			m.posts[postID] = p
		}
	}
	return nil
}

// --- Posts ---

func (m *Memory) CreatePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[p.ID]; ok {
		return fmt.Errorf("%w: duplicate post id %s", ErrConstraint, p.ID)
	}
	if _, ok := m.users[p.AuthorID]; !ok {
		return fmt.Errorf("%w: unknown author %s", ErrNotFound, p.AuthorID)
	}
	if p.GroupID != nil {
		if _, ok := m.groups[*p.GroupID]; !ok {
			return fmt.Errorf("%w: unknown group %s", ErrNotFound, *p.GroupID)
		}
	}
	m.stamp(&p.CreatedAt)
	stored := *p
	stored.Author = models.User{}
	stored.Group = nil
	m.posts[p.ID] = stored
	return nil
}

// hydrate remplit les associations comme le ferait un Preload.
func (m *Memory) hydrate(p models.Post) models.Post {
	p.Author = m.users[p.AuthorID]
	p.Group = nil
	if p.GroupID != nil {
		if g, ok := m.groups[*p.GroupID]; ok {
			p.Group = &g
		}
	}
	return p
}

func (m *Memory) PostByID(_ context.Context, id string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = m.hydrate(p)
	return &p, nil
}

func (m *Memory) UpdatePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.posts[p.ID]
	if !ok {
		return ErrNotFound
	}
	if p.GroupID != nil {
		if _, ok := m.groups[*p.GroupID]; !ok {
			return fmt.Errorf("%w: unknown group %s", ErrNotFound, *p.GroupID)
		}
	}
	stored.Text = p.Text
	stored.GroupID = p.GroupID
	stored.ImageURL = p.ImageURL
	m.posts[p.ID] = stored
	return nil
}

func (m *Memory) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	m.deletePostLocked(id)
	return nil
}

func (m *Memory) deletePostLocked(id string) {
	delete(m.posts, id)
	for commentID, c := range m.comments {
		if c.PostID == id {
			delete(m.comments, commentID)
		}
	}
}

func (m *Memory) matching(filter PostFilter) []models.Post {
	var authors map[string]bool
	if len(filter.AuthorIDs) > 0 {
		authors = make(map[string]bool, len(filter.AuthorIDs))
		for _, id := range filter.AuthorIDs {
			authors[id] = true
		}
	}

	var posts []models.Post
	for _, p := range m.posts {
		if filter.GroupID != "" && (p.GroupID == nil || *p.GroupID != filter.GroupID) {
			continue
		}
		if authors != nil && !authors[p.AuthorID] {
			continue
		}
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (m *Memory) CountPosts(_ context.Context, filter PostFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.matching(filter))), nil
}

func (m *Memory) ListPosts(_ context.Context, filter PostFilter, offset, limit int) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts := m.matching(filter)
	if offset >= len(posts) {
		return []models.Post{}, nil
	}
	end := offset + limit
	if limit < 0 || end > len(posts) {
		end = len(posts)
	}
	page := make([]models.Post, 0, end-offset)
	for _, p := range posts[offset:end] {
		page = append(page, m.hydrate(p))
	}
	return page, nil
}

func (m *Memory) PostIDsByAuthor(_ context.Context, authorID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts := m.matching(PostFilter{AuthorIDs: []string{authorID}})
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// --- Comments ---

func (m *Memory) CreateComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.comments[c.ID]; ok {
		return fmt.Errorf("%w: duplicate comment id %s", ErrConstraint, c.ID)
	}
	if _, ok := m.posts[c.PostID]; !ok {
		return fmt.Errorf("%w: unknown post %s", ErrNotFound, c.PostID)
	}
	if _, ok := m.users[c.AuthorID]; !ok {
		return fmt.Errorf("%w: unknown author %s", ErrNotFound, c.AuthorID)
	}
	m.stamp(&c.CreatedAt)
	stored := *c
	stored.Author = models.User{}
	m.comments[c.ID] = stored
	return nil
}

func (m *Memory) CommentByID(_ context.Context, id string) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Author = m.users[c.AuthorID]
	return &c, nil
}

func (m *Memory) UpdateComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.comments[c.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Text = c.Text
	m.comments[c.ID] = stored
	return nil
}

func (m *Memory) DeleteComment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.comments[id]; !ok {
		return ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *Memory) CommentsByPost(_ context.Context, postID string) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	comments := []models.Comment{}
	for _, c := range m.comments {
		if c.PostID == postID {
			c.Author = m.users[c.AuthorID]
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID > comments[j].ID
		}
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return comments, nil
}

func (m *Memory) CountComments(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.comments)), nil
}

// --- Follows ---

func (m *Memory) CreateFollow(_ context.Context, f *models.Follow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f.FollowerID == f.AuthorID {
		return fmt.Errorf("%w: follower_can_not_follow_self", ErrConstraint)
	}
	for _, existing := range m.follows {
		if existing.FollowerID == f.FollowerID && existing.AuthorID == f.AuthorID {
			return fmt.Errorf("%w: unique_pair_follower_author", ErrConstraint)
		}
	}
	if _, ok := m.users[f.FollowerID]; !ok {
		return fmt.Errorf("%w: unknown follower %s", ErrNotFound, f.FollowerID)
	}
	if _, ok := m.users[f.AuthorID]; !ok {
		return fmt.Errorf("%w: unknown author %s", ErrNotFound, f.AuthorID)
	}
	m.stamp(&f.CreatedAt)
	m.follows[f.ID] = *f
	return nil
}

func (m *Memory) DeleteFollow(_ context.Context, followerID, authorID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, f := range m.follows {
		if f.FollowerID == followerID && f.AuthorID == authorID {
			delete(m.follows, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *Memory) FollowExists(_ context.Context, followerID, authorID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range m.follows {
		if f.FollowerID == followerID && f.AuthorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) FollowedAuthorIDs(_ context.Context, followerID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := []string{}
	for _, f := range m.follows {
		if f.FollowerID == followerID {
			ids = append(ids, f.AuthorID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) CountFollowers(_ context.Context, authorID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, f := range m.follows {
		if f.AuthorID == authorID {
			count++
		}
	}
	return count, nil
}

func (m *Memory) CountFollowing(_ context.Context, followerID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, f := range m.follows {
		if f.FollowerID == followerID {
			count++
		}
	}
	return count, nil
}

func (m *Memory) CountFollows(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.follows)), nil
}

var _ Store = (*Memory)(nil)
