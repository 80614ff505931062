package post

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexanderUp/hw05-final/internal/events"
	"github.com/AlexanderUp/hw05-final/internal/middleware"
	"github.com/AlexanderUp/hw05-final/internal/store"
	"github.com/AlexanderUp/hw05-final/internal/testutil"
)

type fakeImages struct {
	uploaded map[string]string
	deleted  []string
}

func (f *fakeImages) Upload(_ context.Context, r io.Reader, filename, _ string, folder string) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u := "https://images.test/" + folder + "/" + filename
	f.uploaded[u] = string(body)
	return u, nil
}

func (f *fakeImages) Delete(_ context.Context, u string) error {
	f.deleted = append(f.deleted, u)
	return nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	router *gin.Engine
	store  *store.Memory
	images *fakeImages
	events *recordingPublisher
}

func newFixture(t *testing.T, withImages bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		store:  store.NewMemory(),
		images: &fakeImages{uploaded: map[string]string{}},
		events: &recordingPublisher{},
	}
	var images ImageStore
	if withImages {
		images = f.images
	}
	h := NewHandler(f.store, images, f.events)

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.OptionalAuthMiddleware(testutil.Secret))
	api.GET("/posts/:id", h.GetPost)
	api.GET("/posts/:id/comments", h.GetCommentsByPostID)
	api.GET("/comments/:id", h.GetComment)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(testutil.Secret))
	protected.POST("/posts", h.CreatePost)
	protected.GET("/posts/:id/edit", h.EditPostForm)
	protected.POST("/posts/:id/edit", h.EditPost)
	protected.DELETE("/posts/:id", h.DeletePost)
	protected.POST("/posts/:id/comment", h.CreateComment)
	protected.GET("/comments/:id/edit", h.EditCommentForm)
	protected.POST("/comments/:id/edit", h.EditComment)
	protected.DELETE("/comments/:id", h.DeleteComment)

	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path, userID string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if userID != "" {
		req.Header.Set("Authorization", testutil.Bearer(t, userID))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreatePost(t *testing.T) {
	f := newFixture(t, false)
	alice := testutil.NewUser(t, f.store, "alice")
	testutil.NewGroup(t, f.store, "G", "g")

	w := f.do(t, http.MethodPost, "/api/posts", alice.ID, url.Values{"text": {"  Bonjour  "}, "group": {"g"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	post := decode(t, w)["post"].(map[string]interface{})
	assert.Equal(t, "Bonjour", post["text"])
	assert.Equal(t, "g", post["group"].(map[string]interface{})["slug"])
	assert.Equal(t, "alice", post["author"].(map[string]interface{})["username"])

	count, err := f.store.CountPosts(context.Background(), store.PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, []string{events.PostCreated}, f.events.subjects)
}

func TestCreatePostValidation(t *testing.T) {
	f := newFixture(t, false)
	alice := testutil.NewUser(t, f.store, "alice")

	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{name: "Missing text", form: url.Values{}, field: "text"},
		{name: "Blank text", form: url.Values{"text": {"   "}}, field: "text"},
		{name: "Unknown group", form: url.Values{"text": {"ok"}, "group": {"nope"}}, field: "group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/posts", alice.ID, tt.form)
			require.Equal(t, http.StatusBadRequest, w.Code)
			errs := decode(t, w)["errors"].(map[string]interface{})
			assert.Contains(t, errs, tt.field)
		})
	}

	count, err := f.store.CountPosts(context.Background(), store.PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCreatePostRequiresAuthentication(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodPost, "/api/posts", "", url.Values{"text": {"hello"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func multipartPost(t *testing.T, text, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("text", text))
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreatePostWithImage(t *testing.T) {
	f := newFixture(t, true)
	alice := testutil.NewUser(t, f.store, "alice")

	body, contentType := multipartPost(t, "avec image", "chat.PNG")
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", testutil.Bearer(t, alice.ID))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode(t, w)["post"].(map[string]interface{})
	image, ok := post["image"].(string)
	require.True(t, ok)
	assert.Equal(t, "fake-image", f.images.uploaded[image])
	assert.True(t, strings.HasSuffix(image, ".png"))
}

func TestCreatePostImageRejected(t *testing.T) {
	tests := []struct {
		name       string
		withImages bool
		filename   string
	}{
		{name: "No image store", withImages: false, filename: "chat.png"},
		{name: "Unsupported extension", withImages: true, filename: "script.exe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.withImages)
			alice := testutil.NewUser(t, f.store, "alice")

			body, contentType := multipartPost(t, "texte", tt.filename)
			req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", testutil.Bearer(t, alice.ID))
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w)["errors"], "image")
			assert.Empty(t, f.images.uploaded)
		})
	}
}

func TestGetPostNotFound(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodGet, "/api/posts/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEditByNonOwnerShowsDetail(t *testing.T) {
	f := newFixture(t, false)
	alice := testutil.NewUser(t, f.store, "alice")
	bob := testutil.NewUser(t, f.store, "bob")
	p := testutil.NewPost(t, f.store, alice, nil, "texte d'origine", 1)
	testutil.NewComment(t, f.store, bob, p, "joli", 2)

	detail := f.do(t, http.MethodGet, "/api/posts/"+p.ID, bob.ID, nil)
	require.Equal(t, http.StatusOK, detail.Code)

	editForm := f.do(t, http.MethodGet, "/api/posts/"+p.ID+"/edit", bob.ID, nil)
	assert.Equal(t, detail.Code, editForm.Code)
	assert.Equal(t, detail.Body.String(), editForm.Body.String())

	editPost := f.do(t, http.MethodPost, "/api/posts/"+p.ID+"/edit", bob.ID, url.Values{"text": {"piraté"}})
	assert.Equal(t, detail.Code, editPost.Code)
	assert.Equal(t, detail.Body.String(), editPost.Body.String())

	stored, err := f.store.PostByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "texte d'origine", stored.Text)
}

func TestEditByOwner(t *testing.T) {
	f := newFixture(t, false)
	alice := testutil.NewUser(t, f.store, "alice")
	g := testutil.NewGroup(t, f.store, "G", "g")
	p := testutil.NewPost(t, f.store, alice, g, "avant", 1)

	form := f.do(t, http.MethodGet, "/api/posts/"+p.ID+"/edit", alice.ID, nil)
	require.Equal(t, http.StatusOK, form.Code)
	body := decode(t, form)
	assert.Equal(t, true, body["is_edit"])
	assert.Equal(t, "g", body["form"].(map[string]interface{})["group"])

	w := f.do(t, http.MethodPost, "/api/posts/"+p.ID+"/edit", alice.ID, url.Values{"text": {"après"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := f.store.PostByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "après", stored.Text)
	assert.Nil(t, stored.GroupID)
	assert.Equal(t, alice.ID, stored.AuthorID)
	assert.True(t, p.CreatedAt.Equal(stored.CreatedAt))

	invalid := f.do(t, http.MethodPost, "/api/posts/"+p.ID+"/edit", alice.ID, url.Values{"text": {""}})
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t, true)
	alice := testutil.NewUser(t, f.store, "alice")
	bob := testutil.NewUser(t, f.store, "bob")
	p := testutil.NewPost(t, f.store, alice, nil, "à supprimer", 1)
	image := "https://images.test/posts/post_" + p.ID + ".png"
	p.ImageURL = &image
	require.NoError(t, f.store.UpdatePost(context.Background(), p))
	c := testutil.NewComment(t, f.store, bob, p, "commentaire", 2)

	forbidden := f.do(t, http.MethodDelete, "/api/posts/"+p.ID, bob.ID, nil)
	assert.Equal(t, http.StatusForbidden, forbidden.Code)

	w := f.do(t, http.MethodDelete, "/api/posts/"+p.ID, alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := f.store.PostByID(context.Background(), p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.store.CommentByID(context.Background(), c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, []string{image}, f.images.deleted)
	assert.Equal(t, []string{events.PostDeleted}, f.events.subjects)
}

func TestCreateComment(t *testing.T) {
	f := newFixture(t, false)
	alice := testutil.NewUser(t, f.store, "alice")
	bob := testutil.NewUser(t, f.store, "bob")
	p := testutil.NewPost(t, f.store, alice, nil, "post", 1)

	blank := f.do(t, http.MethodPost, "/api/posts/"+p.ID+"/comment", bob.ID, url.Values{"text": {"  "}})
	require.Equal(t, http.StatusBadRequest, blank.Code)
	assert.Contains(t, decode(t, blank)["errors"], "text")

	w := f.do(t, http.MethodPost, "/api/posts/"+p.ID+"/comment", bob.ID, url.Values{"text": {"Super post"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode(t, w)["comment"].(map[string]interface{})
	assert.Equal(t, "bob", comment["author"].(map[string]interface{})["username"])

	list := f.do(t, http.MethodGet, "/api/posts/"+p.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decode(t, list)["comments"], 1)
	assert.Equal(t, []string{events.CommentCreated}, f.events.subjects)

	missing := f.do(t, http.MethodPost, "/api/posts/missing/comment", bob.ID, url.Values{"text": {"x"}})
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestCommentOwnership(t *testing.T) {
	f := newFixture(t, false)
	alice := testutil.NewUser(t, f.store, "alice")
	bob := testutil.NewUser(t, f.store, "bob")
	p := testutil.NewPost(t, f.store, alice, nil, "post", 1)
	c := testutil.NewComment(t, f.store, bob, p, "d'origine", 2)

	detail := f.do(t, http.MethodGet, "/api/comments/"+c.ID, alice.ID, nil)
	editForm := f.do(t, http.MethodGet, "/api/comments/"+c.ID+"/edit", alice.ID, nil)
	assert.Equal(t, detail.Body.String(), editForm.Body.String())

	editPost := f.do(t, http.MethodPost, "/api/comments/"+c.ID+"/edit", alice.ID, url.Values{"text": {"modifié"}})
	assert.Equal(t, detail.Body.String(), editPost.Body.String())

	forbidden := f.do(t, http.MethodDelete, "/api/comments/"+c.ID, alice.ID, nil)
	assert.Equal(t, http.StatusForbidden, forbidden.Code)

	edited := f.do(t, http.MethodPost, "/api/comments/"+c.ID+"/edit", bob.ID, url.Values{"text": {"modifié"}})
	require.Equal(t, http.StatusOK, edited.Code)
	stored, err := f.store.CommentByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "modifié", stored.Text)

	deleted := f.do(t, http.MethodDelete, "/api/comments/"+c.ID, bob.ID, nil)
	assert.Equal(t, http.StatusOK, deleted.Code)
}
