// Package resolver is the routing brain between the two sources: the fast
// local mirror for famous poets and the slow, complete remote archive for
// the long tail. Every call re-evaluates routing; there is no cache here.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"ganjhub/internal/store"
	"ganjhub/pkg/models"
)

// Typed not-available conditions surfaced to the HTTP layer when the remote
// path fails too. The UI maps these to localized error states.
var (
	ErrPoetNotAvailable     = errors.New("poet not available")
	ErrCategoryNotAvailable = errors.New("category not available")
	ErrPoemNotAvailable     = errors.New("poem not available")
)

// Source labels where a result came from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Store is the subset of the local mirror the resolver reads.
type Store interface {
	HasPoet(ctx context.Context, id int) (bool, error)
	ListPoets(ctx context.Context) ([]models.Poet, error)
	GetPoet(ctx context.Context, id int) (*models.PoetDetail, error)
	GetCategory(ctx context.Context, poetID, catID int) (*models.CategoryDetail, error)
	GetPoem(ctx context.Context, id int) (*models.Poem, error)
	PoemContext(ctx context.Context, p models.Poem) (*models.Category, *models.Poet)
}

// Archive is the subset of the remote client the resolver calls.
type Archive interface {
	Poets(ctx context.Context) ([]models.Poet, error)
	Poet(ctx context.Context, id int) (*models.PoetDetail, error)
	Category(ctx context.Context, poetID, catID int) (*models.CategoryDetail, error)
	Chapter(ctx context.Context, poetID, catID, chapterID int) (*models.CategoryDetail, error)
	Poem(ctx context.Context, id int) (*models.Poem, error)
}

type Resolver struct {
	Store   Store // nil when the local store is not configured
	Archive Archive
	Log     zerolog.Logger
}

func New(st Store, ar Archive, log zerolog.Logger) *Resolver {
	return &Resolver{Store: st, Archive: ar, Log: log}
}

// isLocal runs the hasPoet gate. Store errors fail closed to "not local" so
// the request can still be served from the remote archive.
func (r *Resolver) isLocal(ctx context.Context, poetID int) bool {
	if r.Store == nil {
		return false
	}
	ok, err := r.Store.HasPoet(ctx, poetID)
	if err != nil {
		r.Log.Warn().Err(err).Int("poet_id", poetID).Msg("hasPoet failed, routing to remote")
		return false
	}
	return ok
}

// ResolvePoets lists all poets. The remote archive is authoritative for the
// full list; if it is unreachable the mirrored subset is better than an
// error page.
func (r *Resolver) ResolvePoets(ctx context.Context) ([]models.Poet, Source, error) {
	poets, err := r.Archive.Poets(ctx)
	if err == nil {
		return poets, SourceRemote, nil
	}
	r.Log.Warn().Err(err).Msg("remote poet list failed, falling back to local")

	if r.Store != nil {
		if local, lerr := r.Store.ListPoets(ctx); lerr == nil && len(local) > 0 {
			return local, SourceLocal, nil
		}
	}
	return nil, "", fmt.Errorf("%w: %v", ErrPoetNotAvailable, err)
}

// ResolvePoet serves a poet with their category tree. Local when mirrored;
// a failing local read falls back to remote rather than failing the request.
func (r *Resolver) ResolvePoet(ctx context.Context, id int) (*models.PoetDetail, Source, error) {
	if r.isLocal(ctx, id) {
		detail, err := r.Store.GetPoet(ctx, id)
		if err == nil {
			return detail, SourceLocal, nil
		}
		r.Log.Warn().Err(err).Int("poet_id", id).Msg("local poet read failed, falling back to remote")
	}

	detail, err := r.Archive.Poet(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrPoetNotAvailable, err)
	}
	return detail, SourceRemote, nil
}

// ResolveCategory serves a category with chapters and poems. The subtree
// follows the owning poet: local poet, local subtree; otherwise the whole
// query goes remote.
func (r *Resolver) ResolveCategory(ctx context.Context, poetID, catID int) (*models.CategoryDetail, Source, error) {
	if r.isLocal(ctx, poetID) {
		detail, err := r.Store.GetCategory(ctx, poetID, catID)
		if err == nil {
			return detail, SourceLocal, nil
		}
		r.Log.Warn().Err(err).Int("category_id", catID).Msg("local category read failed, falling back to remote")
	}

	detail, err := r.Archive.Category(ctx, poetID, catID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCategoryNotAvailable, err)
	}
	return detail, SourceRemote, nil
}

// ResolveChapter serves a chapter (a category one level deeper). Chapters
// are plain category rows locally, so the local path reuses GetCategory on
// the chapter id.
func (r *Resolver) ResolveChapter(ctx context.Context, poetID, catID, chapterID int) (*models.CategoryDetail, Source, error) {
	if r.isLocal(ctx, poetID) {
		detail, err := r.Store.GetCategory(ctx, poetID, chapterID)
		if err == nil {
			return detail, SourceLocal, nil
		}
		r.Log.Warn().Err(err).Int("chapter_id", chapterID).Msg("local chapter read failed, falling back to remote")
	}

	detail, err := r.Archive.Chapter(ctx, poetID, catID, chapterID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCategoryNotAvailable, err)
	}
	return detail, SourceRemote, nil
}

// PoemView is a poem plus optional render context. Category and Poet are
// populated when the serving source could provide them cheaply.
type PoemView struct {
	Poem     models.Poem      `json:"poem"`
	Category *models.Category `json:"category,omitempty"`
	Poet     *models.Poet     `json:"poet,omitempty"`
}

// ResolvePoem serves a bare poem lookup (poet unknown). The local store is
// consulted first; a miss there is expected, not an error, because the
// mirror is a strict subset.
func (r *Resolver) ResolvePoem(ctx context.Context, id int) (*PoemView, Source, error) {
	if r.Store != nil {
		poem, err := r.Store.GetPoem(ctx, id)
		switch {
		case err == nil:
			cat, poet := r.Store.PoemContext(ctx, *poem)
			return &PoemView{Poem: *poem, Category: cat, Poet: poet}, SourceLocal, nil
		case errors.Is(err, store.ErrNotFound):
			// routine miss, go remote
		default:
			r.Log.Warn().Err(err).Int("poem_id", id).Msg("local poem read failed, falling back to remote")
		}
	}

	poem, err := r.Archive.Poem(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrPoemNotAvailable, err)
	}
	return &PoemView{Poem: *poem}, SourceRemote, nil
}
