package archive

import (
	"strings"

	"ganjhub/pkg/models"
)

// Wire structs mirror the remote archive's JSON shapes. Everything external
// is mapped into pkg/models before it leaves this package; absent or null
// fields become zero values or nil, never an error.

type wirePoet struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	FullURL     string `json:"fullUrl"`
	Description string `json:"description"`
	BirthYear   *int   `json:"birthYear"`
	DeathYear   *int   `json:"deathYear"`
}

type wireCat struct {
	ID        int       `json:"id"`
	PoetID    int       `json:"poetId"`
	ParentID  *int      `json:"parentId"`
	Title     string    `json:"title"`
	FullURL   string    `json:"fullUrl"`
	PoemCount int       `json:"poemCount"`
	Children  []wireCat `json:"children"`
	Poems     []struct {
		ID      int    `json:"id"`
		Title   string `json:"title"`
		Excerpt string `json:"excerpt"`
	} `json:"poems"`
}

type wirePoetResponse struct {
	Poet wirePoet `json:"poet"`
	Cat  *wireCat `json:"cat"`
}

type wireCatResponse struct {
	Poet wirePoet `json:"poet"`
	Cat  wireCat  `json:"cat"`
}

type wireVerse struct {
	Order int    `json:"vOrder"`
	Text  string `json:"text"`
}

type wirePoem struct {
	ID     int         `json:"id"`
	Title  string      `json:"title"`
	Poet   wirePoet    `json:"poet"`
	Cat    *wireCat    `json:"cat"`
	Verses []wireVerse `json:"verses"`
}

func toPoet(w wirePoet) models.Poet {
	return models.Poet{
		ID:          w.ID,
		Name:        w.Name,
		Slug:        slugFromURL(w.FullURL),
		Description: w.Description,
		BirthYear:   w.BirthYear,
		DeathYear:   w.DeathYear,
	}
}

func toCategory(poetID int, w wireCat) models.Category {
	c := models.Category{
		ID:        w.ID,
		PoetID:    poetID,
		ParentID:  w.ParentID,
		Title:     w.Title,
		URLSlug:   slugFromURL(w.FullURL),
		PoemCount: w.PoemCount,
	}
	if w.PoetID != 0 {
		c.PoetID = w.PoetID
	}
	for _, child := range w.Children {
		c.Children = append(c.Children, toCategory(c.PoetID, child))
	}
	return c
}

// toListingPoems maps the poem stubs embedded in a category listing. Only
// title and excerpt are available at this depth; verses stay empty.
func toListingPoems(poetID int, w wireCat) []models.Poem {
	catID := w.ID
	out := make([]models.Poem, 0, len(w.Poems))
	for _, p := range w.Poems {
		out = append(out, models.Poem{
			ID:         p.ID,
			PoetID:     poetID,
			CategoryID: &catID,
			Title:      p.Title,
			Snippet:    p.Excerpt,
		})
	}
	return out
}

// toPoem maps a full poem response. Verses are appended in the order the
// remote returned them; the order field is informational only and is never
// used to re-sort.
func toPoem(w wirePoem) models.Poem {
	p := models.Poem{
		ID:     w.ID,
		PoetID: w.Poet.ID,
		Title:  w.Title,
	}
	if w.Cat != nil {
		catID := w.Cat.ID
		p.CategoryID = &catID
		if w.Cat.PoetID != 0 {
			p.PoetID = w.Cat.PoetID
		}
	}
	for _, v := range w.Verses {
		p.Verses = append(p.Verses, v.Text)
	}
	if len(p.Verses) > 0 {
		p.Snippet = p.Verses[0]
	}
	return p
}

func slugFromURL(u string) string {
	u = strings.Trim(strings.TrimSpace(u), "/")
	if u == "" {
		return ""
	}
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
