package models

import "strings"

// Poem is the canonical form of a poem. Both sources map into this structure
// first, then every downstream layer (resolver, search, handlers) works on
// this representation.
//
// Verses holds one line per element in the poem's original order. That order
// reconstructs the poem on screen and is semantically meaningful: no layer
// may sort or dedupe it.
type Poem struct {
	ID         int      `json:"id"`
	PoetID     int      `json:"poet_id"`
	CategoryID *int     `json:"category_id,omitempty"`
	ChapterID  *int     `json:"chapter_id,omitempty"`
	Title      string   `json:"title"`
	Verses     []string `json:"verses,omitempty"`

	// Snippet is a short excerpt (first verse or the listing preview) used
	// when the full verse text was not fetched, e.g. preview-tier imports
	// and search hits.
	Snippet string `json:"snippet,omitempty"`
}

// JoinedVerses returns the verse lines joined with spaces, the form used for
// substring matching. Derived only; never stored back onto the poem.
func (p Poem) JoinedVerses() string {
	return strings.Join(p.Verses, " ")
}
