package store

import (
	"context"
	"database/sql"
	"strings"

	"ganjhub/pkg/models"
	"ganjhub/pkg/textnorm"
)

// Options controls a store-side search. Limit defaults to 20 and is capped
// at 100; WithCount adds an exact COUNT(*) over the same predicate.
type Options struct {
	PoetID    *int
	Limit     int
	Offset    int
	WithCount bool
}

func (o Options) clamp() Options {
	if o.Limit <= 0 || o.Limit > 100 {
		o.Limit = 20
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Store-side searches match a normalized substring against the search_text
// column (title plus verse text for poems, OR semantics via the combined
// column). Ordering is id descending: recency of import, not relevance.
// Callers that need relevance ranking re-rank on top.
//
// All three fail closed: a query error yields an empty result and a log
// line, never an error across the resolver boundary.

func (r *Repo) SearchPoets(ctx context.Context, query string, opts Options) ([]models.PoetHit, *int, error) {
	opts = opts.clamp()
	pattern := likePattern(query)

	var total *int
	if opts.WithCount {
		var n int
		err := r.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM poets WHERE search_text LIKE ? ESCAPE '\'`, pattern,
		).Scan(&n)
		if err != nil {
			r.Log.Error().Err(err).Msg("poet search count failed, returning empty")
			return []models.PoetHit{}, nil, nil
		}
		total = &n
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, slug
		FROM poets
		WHERE search_text LIKE ? ESCAPE '\'
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, pattern, opts.Limit, opts.Offset)
	if err != nil {
		r.Log.Error().Err(err).Msg("poet search failed, returning empty")
		return []models.PoetHit{}, nil, nil
	}
	defer rows.Close()

	out := make([]models.PoetHit, 0, opts.Limit)
	for rows.Next() {
		var h models.PoetHit
		if err := rows.Scan(&h.ID, &h.Name, &h.Slug); err != nil {
			r.Log.Error().Err(err).Msg("poet search scan failed, returning empty")
			return []models.PoetHit{}, nil, nil
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		r.Log.Error().Err(err).Msg("poet search rows failed, returning empty")
		return []models.PoetHit{}, nil, nil
	}
	return out, total, nil
}

func (r *Repo) SearchCategories(ctx context.Context, query string, opts Options) ([]models.CategoryHit, *int, error) {
	opts = opts.clamp()
	pattern := likePattern(query)

	where := `c.search_text LIKE ? ESCAPE '\'`
	args := []any{pattern}
	if opts.PoetID != nil {
		where += " AND c.poet_id = ?"
		args = append(args, *opts.PoetID)
	}

	var total *int
	if opts.WithCount {
		var n int
		err := r.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM categories c WHERE `+where, args...,
		).Scan(&n)
		if err != nil {
			r.Log.Error().Err(err).Msg("category search count failed, returning empty")
			return []models.CategoryHit{}, nil, nil
		}
		total = &n
	}

	listArgs := append(append([]any{}, args...), opts.Limit, opts.Offset)
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.poet_id, c.title, COALESCE(p.name, '')
		FROM categories c
		LEFT JOIN poets p ON p.id = c.poet_id
		WHERE `+where+`
		ORDER BY c.id DESC
		LIMIT ? OFFSET ?
	`, listArgs...)
	if err != nil {
		r.Log.Error().Err(err).Msg("category search failed, returning empty")
		return []models.CategoryHit{}, nil, nil
	}
	defer rows.Close()

	out := make([]models.CategoryHit, 0, opts.Limit)
	for rows.Next() {
		var h models.CategoryHit
		if err := rows.Scan(&h.ID, &h.PoetID, &h.Title, &h.PoetName); err != nil {
			r.Log.Error().Err(err).Msg("category search scan failed, returning empty")
			return []models.CategoryHit{}, nil, nil
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		r.Log.Error().Err(err).Msg("category search rows failed, returning empty")
		return []models.CategoryHit{}, nil, nil
	}
	return out, total, nil
}

func (r *Repo) SearchPoems(ctx context.Context, query string, opts Options) ([]models.PoemHit, *int, error) {
	opts = opts.clamp()
	pattern := likePattern(query)

	where := `pm.search_text LIKE ? ESCAPE '\'`
	args := []any{pattern}
	if opts.PoetID != nil {
		where += " AND pm.poet_id = ?"
		args = append(args, *opts.PoetID)
	}

	var total *int
	if opts.WithCount {
		var n int
		err := r.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM poems pm WHERE `+where, args...,
		).Scan(&n)
		if err != nil {
			r.Log.Error().Err(err).Msg("poem search count failed, returning empty")
			return []models.PoemHit{}, nil, nil
		}
		total = &n
	}

	listArgs := append(append([]any{}, args...), opts.Limit, opts.Offset)
	rows, err := r.DB.QueryContext(ctx, `
		SELECT pm.id, pm.poet_id, pm.category_id, pm.title, COALESCE(pm.snippet, ''),
		       COALESCE(p.name, ''), COALESCE(c.title, '')
		FROM poems pm
		LEFT JOIN poets p ON p.id = pm.poet_id
		LEFT JOIN categories c ON c.id = pm.category_id
		WHERE `+where+`
		ORDER BY pm.id DESC
		LIMIT ? OFFSET ?
	`, listArgs...)
	if err != nil {
		r.Log.Error().Err(err).Msg("poem search failed, returning empty")
		return []models.PoemHit{}, nil, nil
	}
	defer rows.Close()

	out := make([]models.PoemHit, 0, opts.Limit)
	for rows.Next() {
		var (
			h   models.PoemHit
			cat sql.NullInt64
		)
		if err := rows.Scan(&h.ID, &h.PoetID, &cat, &h.Title, &h.Snippet, &h.PoetName, &h.CategoryTitle); err != nil {
			r.Log.Error().Err(err).Msg("poem search scan failed, returning empty")
			return []models.PoemHit{}, nil, nil
		}
		if cat.Valid {
			id := int(cat.Int64)
			h.CategoryID = &id
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		r.Log.Error().Err(err).Msg("poem search rows failed, returning empty")
		return []models.PoemHit{}, nil, nil
	}
	return out, total, nil
}

// likePattern builds the LIKE argument from a normalized query, escaping the
// LIKE metacharacters so user input cannot widen the match.
func likePattern(query string) string {
	q := textnorm.Normalize(query)
	q = strings.ReplaceAll(q, `%`, `\%`)
	q = strings.ReplaceAll(q, `_`, `\_`)
	return "%" + q + "%"
}
