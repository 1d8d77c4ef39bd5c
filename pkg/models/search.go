package models

// Search hit types are ephemeral: they carry enough denormalized context
// (poet name, category title) for the UI to render a result row without a
// second lookup. They are never persisted.

type PoetHit struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CategoryHit struct {
	ID       int    `json:"id"`
	PoetID   int    `json:"poet_id"`
	Title    string `json:"title"`
	PoetName string `json:"poet_name"`
}

type PoemHit struct {
	ID            int    `json:"id"`
	PoetID        int    `json:"poet_id"`
	CategoryID    *int   `json:"category_id,omitempty"`
	Title         string `json:"title"`
	Snippet       string `json:"snippet,omitempty"`
	PoetName      string `json:"poet_name,omitempty"`
	CategoryTitle string `json:"category_title,omitempty"`
}

// SearchResults is the unified response shape for GET /search. Totals are
// present only when the caller asked for counts; on the remote fallback path
// TotalPoems is the number of matches found before the scan stopped, which
// may undercount the true total.
type SearchResults struct {
	Poets      []PoetHit     `json:"poets"`
	Categories []CategoryHit `json:"categories"`
	Poems      []PoemHit     `json:"poems"`

	TotalPoets      *int `json:"total_poets,omitempty"`
	TotalCategories *int `json:"total_categories,omitempty"`
	TotalPoems      *int `json:"total_poems,omitempty"`

	Message string `json:"message,omitempty"`
}
