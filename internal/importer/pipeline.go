// Package importer is the batch ETL that mirrors selected poets from the
// remote archive into the local store. Operator-invoked and offline; never
// on the request path.
package importer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ganjhub/internal/archive"
	"ganjhub/pkg/models"
)

// Depth is the import quality tier. Full fetches every poem individually for
// complete verse text (O(poems) extra round trips); preview settles for the
// verse snippets already embedded in the category listings.
type Depth string

const (
	DepthFull    Depth = "full"
	DepthPreview Depth = "preview"
)

type Config struct {
	FullPoetIDs    []int
	PreviewPoetIDs []int

	// BatchSize bounds how many poem rows go into one upsert transaction.
	BatchSize int
	// Delay sits between consecutive remote calls to stay under the
	// archive's rate limits.
	Delay time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.Delay <= 0 {
		c.Delay = 300 * time.Millisecond
	}
	return c
}

type Summary struct {
	Poets      int
	Categories int
	Poems      int
	Errors     int
}

type Pipeline struct {
	Archive *archive.Client
	DB      *sql.DB
	Cfg     Config
	Log     zerolog.Logger
}

func New(ar *archive.Client, db *sql.DB, cfg Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{Archive: ar, DB: db, Cfg: cfg.withDefaults(), Log: log}
}

// Run walks the remote archive poet by poet and mirrors each selected poet's
// tree in foreign-key order: the poet row, then categories, then poems. A
// failing poet or category is logged and skipped; only a failure to list
// poets at all aborts the run. Safe to re-run: every write is an upsert.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	all, err := p.Archive.Poets(ctx)
	if err != nil {
		return sum, fmt.Errorf("list poets: %w", err)
	}

	byID := make(map[int]models.Poet, len(all))
	for _, poet := range all {
		byID[poet.ID] = poet
	}

	type job struct {
		id    int
		depth Depth
	}
	var jobs []job
	for _, id := range p.Cfg.FullPoetIDs {
		jobs = append(jobs, job{id, DepthFull})
	}
	for _, id := range p.Cfg.PreviewPoetIDs {
		jobs = append(jobs, job{id, DepthPreview})
	}

	for _, j := range jobs {
		poet, ok := byID[j.id]
		if !ok {
			p.Log.Warn().Int("poet_id", j.id).Msg("poet not in remote listing, skipping")
			sum.Errors++
			continue
		}

		if err := p.importPoet(ctx, poet, j.depth, &sum); err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			p.Log.Error().Err(err).Int("poet_id", j.id).Msg("poet import failed, skipping")
			sum.Errors++
			continue
		}
		sum.Poets++
		p.Log.Info().Int("poet_id", j.id).Str("depth", string(j.depth)).Msg("poet imported")
	}

	return sum, nil
}

func (p *Pipeline) importPoet(ctx context.Context, poet models.Poet, depth Depth, sum *Summary) error {
	if err := p.throttle(ctx); err != nil {
		return err
	}
	detail, err := p.Archive.Poet(ctx, poet.ID)
	if err != nil {
		return fmt.Errorf("fetch poet: %w", err)
	}

	if err := upsertPoets(ctx, p.DB, []models.Poet{detail.Poet}); err != nil {
		return err
	}

	cats := flatten(detail.Categories)
	if err := upsertCategories(ctx, p.DB, cats); err != nil {
		return err
	}
	sum.Categories += len(cats)

	for _, cat := range cats {
		if err := p.throttle(ctx); err != nil {
			return err
		}
		poems, err := p.Archive.CategoryPoems(ctx, poet.ID, cat.ID)
		if err != nil {
			p.Log.Warn().Err(err).Int("category_id", cat.ID).Msg("category fetch failed, skipping")
			sum.Errors++
			continue
		}

		for i := range poems {
			// Listing poems carry the fetched category's id; re-home
			// chapter poems under chapter_id with the parent as category.
			if cat.ParentID != nil {
				chID := cat.ID
				parentID := *cat.ParentID
				poems[i].ChapterID = &chID
				poems[i].CategoryID = &parentID
			}

			if depth == DepthFull {
				if err := p.throttle(ctx); err != nil {
					return err
				}
				full, err := p.Archive.Poem(ctx, poems[i].ID)
				if err != nil {
					p.Log.Warn().Err(err).Int("poem_id", poems[i].ID).Msg("poem fetch failed, keeping preview")
					sum.Errors++
					continue
				}
				poems[i].Verses = full.Verses
				if poems[i].Snippet == "" {
					poems[i].Snippet = full.Snippet
				}
			}
		}

		for start := 0; start < len(poems); start += p.Cfg.BatchSize {
			end := start + p.Cfg.BatchSize
			if end > len(poems) {
				end = len(poems)
			}
			if err := upsertPoems(ctx, p.DB, poems[start:end]); err != nil {
				return err
			}
		}
		sum.Poems += len(poems)
	}

	return nil
}

func (p *Pipeline) throttle(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.Cfg.Delay):
		return nil
	}
}

func flatten(cats []models.Category) []models.Category {
	var out []models.Category
	for _, c := range cats {
		children := c.Children
		c.Children = nil
		out = append(out, c)
		for _, ch := range children {
			ch.Children = nil
			if ch.ParentID == nil {
				id := c.ID
				ch.ParentID = &id
			}
			out = append(out, ch)
		}
	}
	return out
}
