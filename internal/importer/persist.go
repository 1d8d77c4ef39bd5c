package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"ganjhub/pkg/models"
	"ganjhub/pkg/textnorm"
)

// Upserts are keyed on the remote archive's ids, so re-running an import
// overwrites rows instead of duplicating them. Write order is enforced by
// the pipeline: poets, then categories, then poems.

func upsertPoets(ctx context.Context, db *sql.DB, poets []models.Poet) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO poets (id, name, slug, description, birth_year, death_year, search_text)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  name = excluded.name,
		  slug = excluded.slug,
		  description = excluded.description,
		  birth_year = excluded.birth_year,
		  death_year = excluded.death_year,
		  search_text = excluded.search_text
	`)
	if err != nil {
		return fmt.Errorf("prepare poets stmt: %w", err)
	}
	defer stmt.Close()

	for _, p := range poets {
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.Slug, p.Description, nullableInt(p.BirthYear), nullableInt(p.DeathYear),
			textnorm.Normalize(p.Name+" "+p.Slug),
		); err != nil {
			return fmt.Errorf("upsert poet %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func upsertCategories(ctx context.Context, db *sql.DB, cats []models.Category) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO categories (id, poet_id, parent_id, title, url_slug, poem_count, search_text)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  poet_id = excluded.poet_id,
		  parent_id = excluded.parent_id,
		  title = excluded.title,
		  url_slug = excluded.url_slug,
		  poem_count = excluded.poem_count,
		  search_text = excluded.search_text
	`)
	if err != nil {
		return fmt.Errorf("prepare categories stmt: %w", err)
	}
	defer stmt.Close()

	for _, c := range cats {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.PoetID, nullableInt(c.ParentID), c.Title, c.URLSlug, c.PoemCount,
			textnorm.Normalize(c.Title),
		); err != nil {
			return fmt.Errorf("upsert category %d: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func upsertPoems(ctx context.Context, db *sql.DB, poems []models.Poem) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO poems (id, poet_id, category_id, chapter_id, title, verses, snippet, search_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  poet_id = excluded.poet_id,
		  category_id = excluded.category_id,
		  chapter_id = excluded.chapter_id,
		  title = excluded.title,
		  verses = excluded.verses,
		  snippet = excluded.snippet,
		  search_text = excluded.search_text
	`)
	if err != nil {
		return fmt.Errorf("prepare poems stmt: %w", err)
	}
	defer stmt.Close()

	for _, p := range poems {
		versesJSON, err := json.Marshal(p.Verses)
		if err != nil {
			return fmt.Errorf("marshal verses for %d: %w", p.ID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			p.ID, p.PoetID, nullableInt(p.CategoryID), nullableInt(p.ChapterID),
			p.Title, string(versesJSON), p.Snippet, searchText(p),
		); err != nil {
			return fmt.Errorf("upsert poem %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// searchText is the denormalized searchable column: normalized title plus
// whatever verse text this import depth carried.
func searchText(p models.Poem) string {
	parts := []string{p.Title}
	if len(p.Verses) > 0 {
		parts = append(parts, p.JoinedVerses())
	} else if p.Snippet != "" {
		parts = append(parts, p.Snippet)
	}
	return textnorm.Normalize(strings.Join(parts, " "))
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
