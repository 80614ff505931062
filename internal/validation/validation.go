// Package validation vérifie les formulaires et produit les erreurs par champ
// renvoyées au client sous la forme {"errors": {"champ": ["message"]}}.
package validation

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// Errors associe à chaque champ ses messages d'erreur.
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e Errors) Empty() bool {
	return len(e) == 0
}

// Struct valide v selon ses tags `validate` et renvoie les erreurs par champ.
func Struct(v interface{}) Errors {
	errs := Errors{}

	err := validate.Struct(v)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add("__all__", "Formulaire invalide.")
		return errs
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Ce champ est obligatoire."
	case "max":
		return "Ce champ ne doit pas dépasser " + fe.Param() + " caractères."
	case "min":
		return "Ce champ doit contenir au moins " + fe.Param() + " caractères."
	case "email":
		return "Saisissez une adresse e-mail valide."
	case "username":
		return "Seuls les lettres, chiffres et @/./+/-/_ sont autorisés."
	case "slug":
		return "Seuls les lettres, chiffres, tirets et underscores sont autorisés."
	default:
		return "Valeur invalide."
	}
}

// Respond renvoie 400 avec les erreurs par champ.
func Respond(c *gin.Context, errs Errors) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
}
