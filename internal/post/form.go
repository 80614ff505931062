package post

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AlexanderUp/hw05-final/internal/models"
	"github.com/AlexanderUp/hw05-final/internal/store"
	"github.com/AlexanderUp/hw05-final/internal/validation"
)

var validImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".webp": true,
}

type postForm struct {
	Text  string `form:"text" json:"text" validate:"required"`
	Group string `form:"group" json:"group" validate:"omitempty,max=50,slug"`
}

type commentForm struct {
	Text string `form:"text" json:"text" validate:"required"`
}

// bindPostForm lit le formulaire, résout le groupe et contrôle l'image
// éventuelle. group vaut nil si aucun slug n'est fourni.
func (h *Handler) bindPostForm(c *gin.Context) (form postForm, group *models.Group, image *multipart.FileHeader, errs validation.Errors, err error) {
	_ = c.ShouldBind(&form)
	form.Text = strings.TrimSpace(form.Text)
	form.Group = strings.TrimSpace(form.Group)

	errs = validation.Struct(form)

	if form.Group != "" && errs["group"] == nil {
		group, err = h.store.GroupBySlug(c.Request.Context(), form.Group)
		if errors.Is(err, store.ErrNotFound) {
			errs.Add("group", "Groupe inconnu.")
			err = nil
		}
		if err != nil {
			return form, nil, nil, errs, err
		}
	}

	image, ferr := c.FormFile("image")
	if ferr != nil && !errors.Is(ferr, http.ErrMissingFile) && !errors.Is(ferr, http.ErrNotMultipart) {
		errs.Add("image", "Fichier illisible.")
	}
	if image != nil {
		switch {
		case h.images == nil:
			errs.Add("image", "L'envoi d'images n'est pas disponible.")
		case !validImageExtensions[strings.ToLower(filepath.Ext(image.Filename))]:
			errs.Add("image", "Format d'image non supporté.")
		}
	}
	return form, group, image, errs, nil
}

func (h *Handler) bindCommentForm(c *gin.Context) (commentForm, validation.Errors) {
	var form commentForm
	_ = c.ShouldBind(&form)
	form.Text = strings.TrimSpace(form.Text)
	return form, validation.Struct(form)
}

// uploadImage dépose l'image du post postID et renvoie son URL.
func (h *Handler) uploadImage(ctx context.Context, postID string, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := fmt.Sprintf("post_%s%s", postID, ext)
	return h.images.Upload(ctx, file, filename, header.Header.Get("Content-Type"), "posts")
}
