package feed

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AlexanderUp/hw05-final/internal/follow"
	"github.com/AlexanderUp/hw05-final/internal/logs"
	"github.com/AlexanderUp/hw05-final/internal/middleware"
	"github.com/AlexanderUp/hw05-final/internal/models"
	"github.com/AlexanderUp/hw05-final/internal/pagecache"
	"github.com/AlexanderUp/hw05-final/internal/render"
	"github.com/AlexanderUp/hw05-final/internal/store"
)

type Handler struct {
	assembler *Assembler
	users     store.UserStore
	follows   *follow.Manager
	cache     *pagecache.Cache
	indexTTL  time.Duration
}

// NewHandler construit les handlers des fils. cache peut être nil : l'accueil
// est alors rendu à chaque requête.
func NewHandler(assembler *Assembler, users store.UserStore, follows *follow.Manager, cache *pagecache.Cache, indexTTL time.Duration) *Handler {
	return &Handler{
		assembler: assembler,
		users:     users,
		follows:   follows,
		cache:     cache,
		indexTTL:  indexTTL,
	}
}

// PageJSON décrit une page et ses métadonnées de pagination.
func PageJSON(p *Page) gin.H {
	var next, previous interface{}
	if p.HasNext {
		next = p.NextNumber()
	}
	if p.HasPrevious {
		previous = p.PreviousNumber()
	}
	return gin.H{
		"posts": render.Posts(p.Posts),
		"page": gin.H{
			"number":       p.Number,
			"per_page":     p.PerPage,
			"count":        p.Count,
			"num_pages":    p.NumPages,
			"has_next":     p.HasNext,
			"has_previous": p.HasPrevious,
			"next":         next,
			"previous":     previous,
		},
	}
}

func (h *Handler) viewer(ctx context.Context, userID string) *models.User {
	if userID == "" {
		return nil
	}
	u, err := h.users.UserByID(ctx, userID)
	if err != nil {
		return nil
	}
	return u
}

func (h *Handler) fail(c *gin.Context, err error, message string) {
	route := c.FullPath()
	userID := c.GetString(middleware.UserIDKey)

	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": message})
		logs.LogJSON("WARN", "Feed target not found", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": userID,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la récupération des posts"})
	logs.LogJSON("ERROR", "Error assembling feed", map[string]interface{}{
		"error":  err.Error(),
		"route":  route,
		"userID": userID,
	})
}

// Index GET /api/
// Seule page mise en cache : une suppression n'y apparaît qu'après expiration.
func (h *Handler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(middleware.UserIDKey)
	page := ParsePage(c.Query("page"))

	renderIndex := func(ctx context.Context) ([]byte, error) {
		result, err := h.assembler.Assemble(ctx, Global(), page)
		if err != nil {
			return nil, err
		}
		body := PageJSON(result.Page)
		body["viewer"] = render.Viewer(h.viewer(ctx, userID))
		return render.Bytes(body)
	}

	var (
		body []byte
		err  error
	)
	if h.cache != nil {
		key := pagecache.Key(c.Request.URL.RequestURI(), middleware.CurrentSessionKey(c))
		body, err = h.cache.GetOrRender(ctx, key, h.indexTTL, renderIndex)
	} else {
		body, err = renderIndex(ctx)
	}
	if err != nil {
		h.fail(c, err, "Page introuvable")
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GroupPosts GET /api/group/:slug
func (h *Handler) GroupPosts(c *gin.Context) {
	slug := c.Param("slug")

	result, err := h.assembler.Assemble(c.Request.Context(), ByGroup(slug), ParsePage(c.Query("page")))
	if err != nil {
		h.fail(c, err, "Groupe introuvable")
		return
	}

	body := PageJSON(result.Page)
	body["group"] = render.Group(result.Group)
	c.JSON(http.StatusOK, body)
}

// Profile GET /api/profile/:username
func (h *Handler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	route := c.FullPath()
	viewerID := c.GetString(middleware.UserIDKey)

	result, err := h.assembler.Assemble(ctx, ByAuthor(c.Param("username")), ParsePage(c.Query("page")))
	if err != nil {
		h.fail(c, err, "Utilisateur introuvable")
		return
	}
	author := result.Author

	followers, following, err := h.follows.Counts(ctx, author.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la récupération des abonnements"})
		logs.LogJSON("ERROR", "Error counting follows", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": viewerID,
		})
		return
	}

	isFollowing, err := h.follows.IsFollowing(ctx, viewerID, author.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la vérification du suivi"})
		logs.LogJSON("ERROR", "Error during follow-up verification", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": viewerID,
		})
		return
	}

	body := PageJSON(result.Page)
	body["author"] = render.User(*author)
	body["posts_count"] = result.Page.Count
	body["followers_count"] = followers
	body["following_count"] = following
	body["following"] = isFollowing
	c.JSON(http.StatusOK, body)
}

// FollowIndex GET /api/follow
func (h *Handler) FollowIndex(c *gin.Context) {
	viewerID := c.GetString(middleware.UserIDKey)

	result, err := h.assembler.Assemble(c.Request.Context(), Followed(viewerID), ParsePage(c.Query("page")))
	if errors.Is(err, ErrViewerRequired) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}
	if err != nil {
		h.fail(c, err, "Page introuvable")
		return
	}

	c.JSON(http.StatusOK, PageJSON(result.Page))
}
