package feed

import (
	"strconv"

	"github.com/AlexanderUp/hw05-final/internal/models"
)

// Page est une tranche ordonnée des posts d'un fil.
type Page struct {
	Posts       []models.Post
	Number      int
	PerPage     int
	Count       int64
	NumPages    int
	HasNext     bool
	HasPrevious bool
}

func (p *Page) NextNumber() int {
	if !p.HasNext {
		return p.Number
	}
	return p.Number + 1
}

func (p *Page) PreviousNumber() int {
	if !p.HasPrevious {
		return p.Number
	}
	return p.Number - 1
}

// Offset est l'index du premier post de la page dans le fil complet.
func (p *Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Paginate calcule le nombre de pages pour count posts et ramène la page
// demandée dans [1, NumPages]. Un fil vide a une seule page, vide.
func Paginate(count int64, perPage, requested int) *Page {
	if perPage < 1 {
		perPage = 1
	}

	numPages := int((count + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}

	return &Page{
		Posts:       []models.Post{},
		Number:      number,
		PerPage:     perPage,
		Count:       count,
		NumPages:    numPages,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
}

// ParsePage lit le paramètre ?page= ; une valeur absente ou non numérique vaut 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return n
}
