package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexanderUp/hw05-final/internal/models"
	"github.com/AlexanderUp/hw05-final/internal/pagecache"
	"github.com/AlexanderUp/hw05-final/internal/store"
	"github.com/AlexanderUp/hw05-final/internal/testutil"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	router *gin.Engine
	store  *store.Memory
	clock  *clock
	admin  *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		store: store.NewMemory(),
		clock: &clock{now: testutil.Epoch},
		admin: &models.User{ID: "admin-id", Username: "admin", IsAdmin: true},
	}
	require.NoError(t, f.store.CreateUser(context.Background(), f.admin))

	f.router = New(Deps{
		Store:         f.store,
		Cache:         pagecache.New(pagecache.NewMemoryWithClock(f.clock.Now)),
		JWTSecret:     testutil.Secret,
		PostsPerPage:  10,
		IndexCacheTTL: 20 * time.Second,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		req.Header.Set("Authorization", testutil.Bearer(t, userID))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type pageBody struct {
	Posts []struct {
		ID     string `json:"id"`
		Text   string `json:"text"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
	} `json:"posts"`
	Page struct {
		Number   int   `json:"number"`
		Count    int64 `json:"count"`
		NumPages int   `json:"num_pages"`
	} `json:"page"`
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) pageBody {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body pageBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestIndexServesStaleUntilCleared(t *testing.T) {
	f := newFixture(t)
	alice := testutil.NewUser(t, f.store, "alice")
	testutil.NewPost(t, f.store, alice, nil, "premier", 1)
	doomed := testutil.NewPost(t, f.store, alice, nil, "second", 2)

	first := f.do(t, http.MethodGet, "/api/", "")
	assert.Len(t, decodePage(t, first).Posts, 2)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/posts/"+doomed.ID, alice.ID).Code)

	f.clock.Advance(10 * time.Second)
	stale := f.do(t, http.MethodGet, "/api/", "")
	assert.Equal(t, first.Body.String(), stale.Body.String())

	// La page de groupe ou de détail n'est pas en cache.
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/posts/"+doomed.ID, "").Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/admin/cache", f.admin.ID).Code)

	fresh := f.do(t, http.MethodGet, "/api/", "")
	body := decodePage(t, fresh)
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "premier", body.Posts[0].Text)
}

func TestIndexRefreshesAfterTTL(t *testing.T) {
	f := newFixture(t)
	alice := testutil.NewUser(t, f.store, "alice")
	testutil.NewPost(t, f.store, alice, nil, "premier", 1)

	assert.Len(t, decodePage(t, f.do(t, http.MethodGet, "/api/", "")).Posts, 1)

	testutil.NewPost(t, f.store, alice, nil, "second", 2)
	assert.Len(t, decodePage(t, f.do(t, http.MethodGet, "/api/", "")).Posts, 1)

	f.clock.Advance(20 * time.Second)
	assert.Len(t, decodePage(t, f.do(t, http.MethodGet, "/api/", "")).Posts, 2)
}

func TestIndexCacheVariesBySession(t *testing.T) {
	f := newFixture(t)
	alice := testutil.NewUser(t, f.store, "alice")
	testutil.NewPost(t, f.store, alice, nil, "premier", 1)

	anonymous := f.do(t, http.MethodGet, "/api/", "")
	decodePage(t, anonymous)

	testutil.NewPost(t, f.store, alice, nil, "second", 2)

	// Un utilisateur connecté n'a pas la même clé que l'anonyme.
	connected := f.do(t, http.MethodGet, "/api/", alice.ID)
	assert.Len(t, decodePage(t, connected).Posts, 2)
	assert.NotContains(t, connected.Body.String(), `"viewer":null`)

	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	req.Header.Set("Cookie", "sessionid=abc")
	withCookie := httptest.NewRecorder()
	f.router.ServeHTTP(withCookie, req)
	assert.Len(t, decodePage(t, withCookie).Posts, 2)

	assert.Len(t, decodePage(t, f.do(t, http.MethodGet, "/api/", "")).Posts, 1)
}

func TestGroupPagination(t *testing.T) {
	f := newFixture(t)
	alice := testutil.NewUser(t, f.store, "alice")
	g := testutil.NewGroup(t, f.store, "G", "g")
	for i := 0; i < 13; i++ {
		testutil.NewPost(t, f.store, alice, g, fmt.Sprintf("post %d", i), i)
	}

	first := decodePage(t, f.do(t, http.MethodGet, "/api/group/g", ""))
	assert.Len(t, first.Posts, 10)
	assert.Equal(t, 2, first.Page.NumPages)
	assert.Equal(t, int64(13), first.Page.Count)

	second := decodePage(t, f.do(t, http.MethodGet, "/api/group/g?page=2", ""))
	assert.Len(t, second.Posts, 3)

	clamped := decodePage(t, f.do(t, http.MethodGet, "/api/group/g?page=3", ""))
	assert.Equal(t, 2, clamped.Page.Number)
	assert.Equal(t, second.Posts, clamped.Posts)

	garbage := decodePage(t, f.do(t, http.MethodGet, "/api/group/g?page=abc", ""))
	assert.Equal(t, 1, garbage.Page.Number)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/group/missing", "").Code)
}

func TestFollowScenario(t *testing.T) {
	f := newFixture(t)
	alice := testutil.NewUser(t, f.store, "alice")
	bob := testutil.NewUser(t, f.store, "bob")
	carol := testutil.NewUser(t, f.store, "carol")
	testutil.NewPost(t, f.store, alice, nil, "de alice", 1)
	testutil.NewPost(t, f.store, carol, nil, "de carol", 2)

	followed := func() []string {
		ids, err := f.store.FollowedAuthorIDs(context.Background(), bob.ID)
		require.NoError(t, err)
		return ids
	}

	assert.Empty(t, followed())
	assert.Empty(t, decodePage(t, f.do(t, http.MethodGet, "/api/follow", bob.ID)).Posts)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/profile/alice/follow", bob.ID).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/profile/alice/follow", bob.ID).Code)
	assert.Equal(t, []string{alice.ID}, followed())

	feed := decodePage(t, f.do(t, http.MethodGet, "/api/follow", bob.ID))
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, "alice", feed.Posts[0].Author.Username)

	profile := f.do(t, http.MethodGet, "/api/profile/alice", bob.ID)
	require.Equal(t, http.StatusOK, profile.Code)
	var profileBody map[string]interface{}
	require.NoError(t, json.Unmarshal(profile.Body.Bytes(), &profileBody))
	assert.Equal(t, true, profileBody["following"])
	assert.Equal(t, float64(1), profileBody["followers_count"])
	assert.Equal(t, float64(1), profileBody["posts_count"])

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/profile/alice/unfollow", bob.ID).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/profile/alice/unfollow", bob.ID).Code)
	assert.Empty(t, followed())
	assert.Empty(t, decodePage(t, f.do(t, http.MethodGet, "/api/follow", bob.ID)).Posts)
}

func TestSelfFollowIsIgnored(t *testing.T) {
	f := newFixture(t)
	alice := testutil.NewUser(t, f.store, "alice")

	w := f.do(t, http.MethodPost, "/api/profile/alice/follow", alice.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"username":"alice","following":false}`, w.Body.String())

	count, err := f.store.CountFollows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	testutil.NewUser(t, f.store, "alice")

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/follow", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/api/profile/alice/follow", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/me", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/profile/nobody/follow", f.admin.ID).Code)
}

func TestFollowFromDeletedAccount(t *testing.T) {
	f := newFixture(t)
	testutil.NewUser(t, f.store, "alice")

	w := f.do(t, http.MethodPost, "/api/profile/alice/follow", "ghost-user")
	assert.Equal(t, http.StatusNotFound, w.Code)

	count, err := f.store.CountFollows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/metrics", "").Code)
}
