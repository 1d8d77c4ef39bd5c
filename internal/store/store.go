// Package store is the typed client for the local relational mirror: a
// strict subset of the remote archive's poets, pre-imported for fast access.
// Reads only; all writes go through the import pipeline.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"ganjhub/pkg/models"
)

// ErrNotFound is returned by lookups when the entity is not mirrored
// locally. Because the store is a strict subset of the archive, callers
// treat this as routine routing input, not a failure.
var ErrNotFound = errors.New("not found in local store")

// Error wraps a store-level failure (connectivity, scan, bad row) so the
// resolver can tell it apart from a plain miss.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("local store: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

type Repo struct {
	DB  *sql.DB
	Log zerolog.Logger
}

func NewRepo(db *sql.DB, log zerolog.Logger) *Repo {
	return &Repo{DB: db, Log: log}
}

// HasPoet is the routing gate: an EXISTS probe, not a fetch. It runs on
// every lookup whose poet is not already known to be local, so it stays a
// single indexed check.
func (r *Repo) HasPoet(ctx context.Context, id int) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM poets WHERE id = ?)`, id,
	).Scan(&ok)
	if err != nil {
		return false, &Error{Op: "has poet", Err: err}
	}
	return ok, nil
}

// GetPoet returns a mirrored poet with their category tree (roots with
// chapters nested one level down).
func (r *Repo) GetPoet(ctx context.Context, id int) (*models.PoetDetail, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, slug, description, birth_year, death_year
		FROM poets
		WHERE id = ?
	`, id)

	poet, err := scanPoet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "get poet", Err: err}
	}

	cats, err := r.poetCategories(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.PoetDetail{Poet: *poet, Categories: cats}, nil
}

// ListPoets returns every mirrored poet, name order.
func (r *Repo) ListPoets(ctx context.Context) ([]models.Poet, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, slug, description, birth_year, death_year
		FROM poets
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, &Error{Op: "list poets", Err: err}
	}
	defer rows.Close()

	var out []models.Poet
	for rows.Next() {
		p, err := scanPoet(rows)
		if err != nil {
			return nil, &Error{Op: "list poets scan", Err: err}
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "list poets rows", Err: err}
	}
	return out, nil
}

// poetCategories loads the poet's flat category rows and rebuilds the tree:
// rows with no parent are roots, the rest attach as chapters.
func (r *Repo) poetCategories(ctx context.Context, poetID int) ([]models.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, poet_id, parent_id, title, url_slug, poem_count
		FROM categories
		WHERE poet_id = ?
		ORDER BY id ASC
	`, poetID)
	if err != nil {
		return nil, &Error{Op: "poet categories", Err: err}
	}
	defer rows.Close()

	var flat []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, &Error{Op: "poet categories scan", Err: err}
		}
		flat = append(flat, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "poet categories rows", Err: err}
	}

	byParent := make(map[int][]models.Category)
	var roots []models.Category
	for _, c := range flat {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}
	for i := range roots {
		roots[i].Children = byParent[roots[i].ID]
	}
	return roots, nil
}

// GetCategory returns one category scoped to its poet, with chapters and the
// category's poems.
func (r *Repo) GetCategory(ctx context.Context, poetID, catID int) (*models.CategoryDetail, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, poet_id, parent_id, title, url_slug, poem_count
		FROM categories
		WHERE id = ? AND poet_id = ?
	`, catID, poetID)

	cat, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "get category", Err: err}
	}

	chapters, err := r.childCategories(ctx, catID)
	if err != nil {
		return nil, err
	}

	poems, err := r.GetCategoryPoems(ctx, poetID, catID)
	if err != nil {
		return nil, err
	}

	return &models.CategoryDetail{Category: *cat, Chapters: chapters, Poems: poems}, nil
}

func (r *Repo) childCategories(ctx context.Context, parentID int) ([]models.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, poet_id, parent_id, title, url_slug, poem_count
		FROM categories
		WHERE parent_id = ?
		ORDER BY id ASC
	`, parentID)
	if err != nil {
		return nil, &Error{Op: "child categories", Err: err}
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, &Error{Op: "child categories scan", Err: err}
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "child categories rows", Err: err}
	}
	return out, nil
}

// GetCategoryPoems returns a category's poems in id order, verses populated
// to whatever depth the import stored (full tier: complete text, preview
// tier: snippet only).
func (r *Repo) GetCategoryPoems(ctx context.Context, poetID, catID int) ([]models.Poem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, poet_id, category_id, chapter_id, title, verses, snippet
		FROM poems
		WHERE poet_id = ? AND (category_id = ? OR chapter_id = ?)
		ORDER BY id ASC
	`, poetID, catID, catID)
	if err != nil {
		return nil, &Error{Op: "category poems", Err: err}
	}
	defer rows.Close()

	var out []models.Poem
	for rows.Next() {
		p, err := scanPoem(rows)
		if err != nil {
			return nil, &Error{Op: "category poems scan", Err: err}
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "category poems rows", Err: err}
	}
	return out, nil
}

// GetPoem returns one poem by id with verses in stored order, plus the
// owning category title when the category is mirrored too.
func (r *Repo) GetPoem(ctx context.Context, id int) (*models.Poem, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, poet_id, category_id, chapter_id, title, verses, snippet
		FROM poems
		WHERE id = ?
	`, id)

	p, err := scanPoem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "get poem", Err: err}
	}
	return p, nil
}

// PoemContext loads the render context for a poem: the owning grouping
// (chapter when present, otherwise category) and the poet. Both are
// optional; a preview-tier mirror may hold the poem without its tree, and
// missing context is not an error.
func (r *Repo) PoemContext(ctx context.Context, p models.Poem) (*models.Category, *models.Poet) {
	var ids []any
	if p.ChapterID != nil {
		ids = append(ids, *p.ChapterID)
	}
	if p.CategoryID != nil {
		ids = append(ids, *p.CategoryID)
	}

	var cats []models.Category
	for _, id := range ids {
		row := r.DB.QueryRowContext(ctx, `
			SELECT id, poet_id, parent_id, title, url_slug, poem_count
			FROM categories
			WHERE id = ?
		`, id)
		if c, err := scanCategory(row); err == nil {
			cats = append(cats, *c)
		}
	}

	var poet *models.Poet
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, slug, description, birth_year, death_year
		FROM poets
		WHERE id = ?
	`, p.PoetID)
	if pt, err := scanPoet(row); err == nil {
		poet = pt
	}

	return firstOrNil(cats), poet
}

// Counts returns row counts per table, optionally scoped to one poet.
// Used by the audit tooling.
func (r *Repo) Counts(ctx context.Context, poetID *int) (poets, categories, poems int, err error) {
	count := func(q string, args ...any) (int, error) {
		var n int
		if err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
			return 0, &Error{Op: "count", Err: err}
		}
		return n, nil
	}

	if poetID != nil {
		if poets, err = count(`SELECT COUNT(*) FROM poets WHERE id = ?`, *poetID); err != nil {
			return
		}
		if categories, err = count(`SELECT COUNT(*) FROM categories WHERE poet_id = ?`, *poetID); err != nil {
			return
		}
		poems, err = count(`SELECT COUNT(*) FROM poems WHERE poet_id = ?`, *poetID)
		return
	}

	if poets, err = count(`SELECT COUNT(*) FROM poets`); err != nil {
		return
	}
	if categories, err = count(`SELECT COUNT(*) FROM categories`); err != nil {
		return
	}
	poems, err = count(`SELECT COUNT(*) FROM poems`)
	return
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoet(row rowScanner) (*models.Poet, error) {
	var (
		p           models.Poet
		description sql.NullString
		birth       sql.NullInt64
		death       sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &description, &birth, &death); err != nil {
		return nil, err
	}
	p.Description = description.String
	if birth.Valid {
		y := int(birth.Int64)
		p.BirthYear = &y
	}
	if death.Valid {
		y := int(death.Int64)
		p.DeathYear = &y
	}
	return &p, nil
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var (
		c      models.Category
		parent sql.NullInt64
		slug   sql.NullString
	)
	if err := row.Scan(&c.ID, &c.PoetID, &parent, &c.Title, &slug, &c.PoemCount); err != nil {
		return nil, err
	}
	if parent.Valid {
		id := int(parent.Int64)
		c.ParentID = &id
	}
	c.URLSlug = slug.String
	return &c, nil
}

func scanPoem(row rowScanner) (*models.Poem, error) {
	var (
		p          models.Poem
		category   sql.NullInt64
		chapter    sql.NullInt64
		versesJSON string
		snippet    sql.NullString
	)
	if err := row.Scan(&p.ID, &p.PoetID, &category, &chapter, &p.Title, &versesJSON, &snippet); err != nil {
		return nil, err
	}
	if category.Valid {
		id := int(category.Int64)
		p.CategoryID = &id
	}
	if chapter.Valid {
		id := int(chapter.Int64)
		p.ChapterID = &id
	}
	p.Snippet = snippet.String

	// Stored as a JSON array in original line order; keep that order.
	if versesJSON != "" {
		if err := json.Unmarshal([]byte(versesJSON), &p.Verses); err != nil {
			return nil, fmt.Errorf("decode verses for poem %d: %w", p.ID, err)
		}
	}
	return &p, nil
}
