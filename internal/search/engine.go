// Package search fans a query out across the local mirror and the remote
// archive and merges the results under one pagination and counting contract.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"ganjhub/internal/store"
	"ganjhub/pkg/models"
	"ganjhub/pkg/textnorm"
)

// MessageQueryTooShort is returned verbatim for queries under two
// characters; no source is queried in that case.
const MessageQueryTooShort = "Query too short"

// Type selects which entity kinds a search touches.
type Type string

const (
	TypeAll        Type = "all"
	TypePoets      Type = "poets"
	TypeCategories Type = "categories"
	TypePoems      Type = "poems"
)

type Params struct {
	Query     string
	Type      Type
	Limit     int
	Offset    int
	PoetID    *int
	WithCount bool
}

func (p Params) clamp() Params {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Type == "" {
		p.Type = TypeAll
	}
	return p
}

// Store is the local-mirror surface the engine searches. Poet and category
// search always stay local; the remote archive has no full-text endpoint
// for those.
type Store interface {
	HasPoet(ctx context.Context, id int) (bool, error)
	SearchPoets(ctx context.Context, query string, opts store.Options) ([]models.PoetHit, *int, error)
	SearchCategories(ctx context.Context, query string, opts store.Options) ([]models.CategoryHit, *int, error)
	SearchPoems(ctx context.Context, query string, opts store.Options) ([]models.PoemHit, *int, error)
}

// Archive is the remote surface used only by the fallback scan.
type Archive interface {
	Poet(ctx context.Context, id int) (*models.PoetDetail, error)
	CategoryPoems(ctx context.Context, poetID, catID int) ([]models.Poem, error)
}

type Engine struct {
	Store   Store
	Archive Archive
	Log     zerolog.Logger

	// MaxScanCategories caps how many categories the fallback scan walks
	// per query. Policy knob, default 20.
	MaxScanCategories int
}

func NewEngine(st Store, ar Archive, log zerolog.Logger) *Engine {
	return &Engine{Store: st, Archive: ar, Log: log, MaxScanCategories: 20}
}

func (e *Engine) scanCap() int {
	if e.MaxScanCategories > 0 {
		return e.MaxScanCategories
	}
	return 20
}

// Search runs one unified query. The caller guarantees the store is
// configured; the HTTP layer answers 503 before reaching the engine when it
// is not.
func (e *Engine) Search(ctx context.Context, p Params) (*models.SearchResults, error) {
	p = p.clamp()

	res := &models.SearchResults{
		Poets:      []models.PoetHit{},
		Categories: []models.CategoryHit{},
		Poems:      []models.PoemHit{},
	}

	if len([]rune(strings.TrimSpace(p.Query))) < 2 {
		res.Message = MessageQueryTooShort
		return res, nil
	}

	opts := store.Options{Limit: p.Limit, Offset: p.Offset, WithCount: p.WithCount}

	if p.Type == TypeAll || p.Type == TypePoets {
		hits, total, err := e.Store.SearchPoets(ctx, p.Query, opts)
		if err != nil {
			return nil, err
		}
		res.Poets = hits
		res.TotalPoets = total
	}

	if p.Type == TypeAll || p.Type == TypeCategories {
		hits, total, err := e.Store.SearchCategories(ctx, p.Query, opts)
		if err != nil {
			return nil, err
		}
		res.Categories = hits
		res.TotalCategories = total
	}

	if p.Type == TypeAll || p.Type == TypePoems {
		hits, total, err := e.searchPoems(ctx, p)
		if err != nil {
			return nil, err
		}
		res.Poems = hits
		res.TotalPoems = total
	}

	return res, nil
}

func (e *Engine) searchPoems(ctx context.Context, p Params) ([]models.PoemHit, *int, error) {
	opts := store.Options{PoetID: p.PoetID, Limit: p.Limit, Offset: p.Offset, WithCount: p.WithCount}

	// Without a poet scope the remote fallback would mean scanning every
	// non-local poet, so unscoped poem search stays local-only.
	if p.PoetID == nil {
		return e.Store.SearchPoems(ctx, p.Query, opts)
	}

	local, err := e.Store.HasPoet(ctx, *p.PoetID)
	if err != nil {
		e.Log.Warn().Err(err).Int("poet_id", *p.PoetID).Msg("hasPoet failed, using fallback scan")
		local = false
	}
	if local {
		return e.Store.SearchPoems(ctx, p.Query, opts)
	}

	return e.fallbackScan(ctx, p)
}

type scoredHit struct {
	hit        models.PoemHit
	titleMatch bool
}

// fallbackScan is the linear, client-side search used for poets that are not
// mirrored locally: fetch the poet's categories from the remote archive,
// fetch each category's poem listing one at a time, and filter in memory.
//
// The scan stops early once it has collected 2*(offset+limit) matches — a
// buffer for the requested page. That makes the returned total the count of
// matches found before the scan stopped, not a true total: a deliberate
// latency/completeness tradeoff, not a bug to fix with a full scan.
func (e *Engine) fallbackScan(ctx context.Context, p Params) ([]models.PoemHit, *int, error) {
	detail, err := e.Archive.Poet(ctx, *p.PoetID)
	if err != nil {
		e.Log.Warn().Err(err).Int("poet_id", *p.PoetID).Msg("fallback scan: poet fetch failed")
		return []models.PoemHit{}, nil, nil
	}

	cats := flattenCategories(detail.Categories, e.scanCap())
	target := 2 * (p.Offset + p.Limit)
	words := textnorm.Words(p.Query)

	var matched []scoredHit
	for _, cat := range cats {
		poems, err := e.Archive.CategoryPoems(ctx, *p.PoetID, cat.ID)
		if err != nil {
			// Partial failure: skip this category, keep scanning.
			e.Log.Warn().Err(err).Int("category_id", cat.ID).Msg("fallback scan: category fetch failed, skipping")
			continue
		}

		for _, poem := range poems {
			titleMatch, ok := matchPoem(poem, p.Query, words)
			if !ok {
				continue
			}
			catID := cat.ID
			matched = append(matched, scoredHit{
				hit: models.PoemHit{
					ID:            poem.ID,
					PoetID:        detail.Poet.ID,
					CategoryID:    &catID,
					Title:         poem.Title,
					Snippet:       snippetOf(poem),
					PoetName:      detail.Poet.Name,
					CategoryTitle: cat.Title,
				},
				titleMatch: titleMatch,
			})
		}

		if len(matched) >= target {
			break
		}
	}

	// Title matches rank above verse-only matches; ties keep scan order.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].titleMatch && !matched[j].titleMatch
	})

	var total *int
	if p.WithCount {
		n := len(matched)
		total = &n
	}

	start := p.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]models.PoemHit, 0, end-start)
	for _, s := range matched[start:end] {
		page = append(page, s.hit)
	}
	return page, total, nil
}

// matchPoem applies the fallback matching rules: title contains the query,
// OR the verse text contains the query as an exact substring, OR every word
// of a multi-word query appears somewhere in the verse text. All comparisons
// run on normalized text.
func matchPoem(p models.Poem, query string, words []string) (titleMatch, ok bool) {
	if textnorm.Contains(p.Title, query) {
		return true, true
	}

	text := textnorm.Normalize(verseTextOf(p))
	if text == "" {
		return false, false
	}

	if strings.Contains(text, textnorm.Normalize(query)) {
		return false, true
	}

	if len(words) > 1 {
		for _, w := range words {
			if !strings.Contains(text, w) {
				return false, false
			}
		}
		return false, true
	}

	if len(words) == 1 && strings.Contains(text, words[0]) {
		return false, true
	}
	return false, false
}

// verseTextOf returns whatever verse text the listing carried: full verses
// when present, otherwise the embedded snippet.
func verseTextOf(p models.Poem) string {
	if len(p.Verses) > 0 {
		return p.JoinedVerses()
	}
	return p.Snippet
}

func snippetOf(p models.Poem) string {
	if p.Snippet != "" {
		return p.Snippet
	}
	if len(p.Verses) > 0 {
		return p.Verses[0]
	}
	return ""
}

// flattenCategories walks roots then chapters, preserving tree order, up to
// the cap.
func flattenCategories(cats []models.Category, max int) []models.Category {
	var out []models.Category
	var walk func([]models.Category)
	walk = func(level []models.Category) {
		for _, c := range level {
			if len(out) >= max {
				return
			}
			out = append(out, c)
			if len(c.Children) > 0 {
				walk(c.Children)
			}
		}
	}
	walk(cats)
	return out
}
