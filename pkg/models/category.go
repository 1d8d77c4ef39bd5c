package models

// Category groups poems under a poet. A category with a non-nil ParentID is
// a chapter: the same shape nested one level below a root category.
type Category struct {
	ID        int    `json:"id"`
	PoetID    int    `json:"poet_id"`
	ParentID  *int   `json:"parent_id,omitempty"`
	Title     string `json:"title"`
	URLSlug   string `json:"url_slug,omitempty"`
	PoemCount int    `json:"poem_count"`

	// Children carries nested chapters when the source returned the tree in
	// one response. It is never persisted as such; the Local Store keeps the
	// tree flat via ParentID.
	Children []Category `json:"children,omitempty"`
}

// CategoryDetail is a category together with its poems and, when present,
// its chapters.
type CategoryDetail struct {
	Category Category   `json:"category"`
	Chapters []Category `json:"chapters,omitempty"`
	Poems    []Poem     `json:"poems"`
}
