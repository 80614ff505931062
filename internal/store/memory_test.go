package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexanderUp/hw05-final/internal/models"
)

func seedUsers(t *testing.T, m *Memory, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, m.CreateUser(context.Background(), &models.User{ID: name + "-id", Username: name}))
	}
}

func TestMemoryFollowConstraints(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedUsers(t, m, "alice", "bob")

	tests := []struct {
		name          string
		follow        models.Follow
		expectedError error
	}{
		{
			name:   "First edge is created",
			follow: models.Follow{ID: "f1", FollowerID: "bob-id", AuthorID: "alice-id"},
		},
		{
			name:          "Duplicate pair is rejected",
			follow:        models.Follow{ID: "f2", FollowerID: "bob-id", AuthorID: "alice-id"},
			expectedError: ErrConstraint,
		},
		{
			name:          "Self follow is rejected",
			follow:        models.Follow{ID: "f3", FollowerID: "bob-id", AuthorID: "bob-id"},
			expectedError: ErrConstraint,
		},
		{
			name:   "Reverse edge is a different pair",
			follow: models.Follow{ID: "f4", FollowerID: "alice-id", AuthorID: "bob-id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.follow
			err := m.CreateFollow(ctx, &f)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	count, err := m.CountFollows(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMemoryDeleteFollowIsNoopWhenAbsent(t *testing.T) {
	m := NewMemory()
	seedUsers(t, m, "alice", "bob")

	deleted, err := m.DeleteFollow(context.Background(), "bob-id", "alice-id")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestMemoryCascades(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedUsers(t, m, "alice", "bob")

	group := models.Group{ID: "g-id", Title: "G", Slug: "g"}
	require.NoError(t, m.CreateGroup(ctx, &group))

	groupID := group.ID
	post := models.Post{ID: "p1", Text: "hello", AuthorID: "alice-id", GroupID: &groupID}
	require.NoError(t, m.CreatePost(ctx, &post))
	require.NoError(t, m.CreateComment(ctx, &models.Comment{ID: "c1", Text: "hi", AuthorID: "bob-id", PostID: "p1"}))
	require.NoError(t, m.CreateFollow(ctx, &models.Follow{ID: "f1", FollowerID: "bob-id", AuthorID: "alice-id"}))

	t.Run("Deleting a group keeps its posts", func(t *testing.T) {
		require.NoError(t, m.DeleteGroup(ctx, "g-id"))
		p, err := m.PostByID(ctx, "p1")
		require.NoError(t, err)
		assert.Nil(t, p.GroupID)
		assert.Nil(t, p.Group)
	})

	t.Run("Deleting the author removes posts, comments and follows", func(t *testing.T) {
		require.NoError(t, m.DeleteUser(ctx, "alice-id"))

		_, err := m.PostByID(ctx, "p1")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = m.CommentByID(ctx, "c1")
		assert.ErrorIs(t, err, ErrNotFound)

		ids, err := m.FollowedAuthorIDs(ctx, "bob-id")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestMemoryListPostsOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedUsers(t, m, "alice", "bob")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, author := range []string{"alice-id", "bob-id", "alice-id"} {
		p := models.Post{ID: string(rune('a' + i)), Text: "t", AuthorID: author, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, m.CreatePost(ctx, &p))
	}

	posts, err := m.ListPosts(ctx, PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{posts[0].ID, posts[1].ID, posts[2].ID})
	assert.Equal(t, "alice", posts[0].Author.Username)

	posts, err = m.ListPosts(ctx, PostFilter{AuthorIDs: []string{"alice-id"}}, 1, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "a", posts[0].ID)

	count, err := m.CountPosts(ctx, PostFilter{AuthorIDs: []string{"bob-id"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryUpdatePostKeepsAuthorAndDate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedUsers(t, m, "alice")

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.CreatePost(ctx, &models.Post{ID: "p1", Text: "old", AuthorID: "alice-id", CreatedAt: created}))

	require.NoError(t, m.UpdatePost(ctx, &models.Post{ID: "p1", Text: "new", AuthorID: "someone-else", CreatedAt: time.Now()}))

	p, err := m.PostByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "new", p.Text)
	assert.Equal(t, "alice-id", p.AuthorID)
	assert.True(t, created.Equal(p.CreatedAt))
}

func TestMemoryUpdateUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedUsers(t, m, "alice", "bob")

	require.NoError(t, m.UpdateUser(ctx, &models.User{ID: "alice-id", Username: "alice2", Firstname: "Alice"}))

	u, err := m.UserByUsername(ctx, "alice2")
	require.NoError(t, err)
	assert.Equal(t, "alice-id", u.ID)
	assert.Equal(t, "Alice", u.Firstname)

	_, err = m.UserByUsername(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.UpdateUser(ctx, &models.User{ID: "alice-id", Username: "bob"}), ErrConstraint)
	assert.ErrorIs(t, m.UpdateUser(ctx, &models.User{ID: "ghost-id", Username: "ghost"}), ErrNotFound)
}

func TestMemoryCreateFollowUnknownUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedUsers(t, m, "alice")

	err := m.CreateFollow(ctx, &models.Follow{ID: "f1", FollowerID: "ghost-id", AuthorID: "alice-id"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConstraint)

	err = m.CreateFollow(ctx, &models.Follow{ID: "f2", FollowerID: "alice-id", AuthorID: "ghost-id"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConstraint)
}
