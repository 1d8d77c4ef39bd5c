package models

// Poet is the canonical form of a poet shared by the Remote Archive and the
// Local Store. The Remote Archive owns the id space; the Local Store only
// mirrors a subset of it, so the same id always means the same poet on both
// sides.
type Poet struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	BirthYear   *int   `json:"birth_year,omitempty"`
	DeathYear   *int   `json:"death_year,omitempty"`
}

// PoetDetail is a poet together with their category tree (root categories
// with children nested one level deep as chapters).
type PoetDetail struct {
	Poet       Poet       `json:"poet"`
	Categories []Category `json:"categories"`
}
