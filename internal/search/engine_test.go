package search

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"ganjhub/internal/store"
	"ganjhub/pkg/models"
)

type fakeStore struct {
	localPoets map[int]bool
	poemHits   []models.PoemHit
	poetHits   []models.PoetHit
	catHits    []models.CategoryHit

	hasPoetErr error

	searchPoemCalls int
	lastOpts        store.Options
}

func (f *fakeStore) HasPoet(_ context.Context, id int) (bool, error) {
	if f.hasPoetErr != nil {
		return false, f.hasPoetErr
	}
	return f.localPoets[id], nil
}

func (f *fakeStore) SearchPoets(_ context.Context, _ string, opts store.Options) ([]models.PoetHit, *int, error) {
	hits := f.poetHits
	if hits == nil {
		hits = []models.PoetHit{}
	}
	var total *int
	if opts.WithCount {
		n := len(hits)
		total = &n
	}
	return hits, total, nil
}

func (f *fakeStore) SearchCategories(_ context.Context, _ string, opts store.Options) ([]models.CategoryHit, *int, error) {
	hits := f.catHits
	if hits == nil {
		hits = []models.CategoryHit{}
	}
	var total *int
	if opts.WithCount {
		n := len(hits)
		total = &n
	}
	return hits, total, nil
}

func (f *fakeStore) SearchPoems(_ context.Context, _ string, opts store.Options) ([]models.PoemHit, *int, error) {
	f.searchPoemCalls++
	f.lastOpts = opts
	hits := f.poemHits
	if hits == nil {
		hits = []models.PoemHit{}
	}
	var total *int
	if opts.WithCount {
		n := len(hits)
		total = &n
	}
	return hits, total, nil
}

type fakeArchive struct {
	detail      *models.PoetDetail
	poemsByCat  map[int][]models.Poem
	failingCats map[int]bool

	poetCalls     int
	categoryCalls int
}

func (f *fakeArchive) Poet(_ context.Context, id int) (*models.PoetDetail, error) {
	f.poetCalls++
	if f.detail == nil {
		return nil, errors.New("archive down")
	}
	return f.detail, nil
}

func (f *fakeArchive) CategoryPoems(_ context.Context, _, catID int) ([]models.Poem, error) {
	f.categoryCalls++
	if f.failingCats[catID] {
		return nil, errors.New("category fetch failed")
	}
	return f.poemsByCat[catID], nil
}

func newTestEngine(st *fakeStore, ar *fakeArchive) *Engine {
	return NewEngine(st, ar, zerolog.Nop())
}

func intp(v int) *int { return &v }

func TestSearch_ShortQueryShortCircuits(t *testing.T) {
	st := &fakeStore{}
	ar := &fakeArchive{}
	e := newTestEngine(st, ar)

	for _, q := range []string{"", "a", " ب ", "  "} {
		res, err := e.Search(context.Background(), Params{Query: q, Type: TypeAll, Limit: 10})
		if err != nil {
			t.Fatalf("Search(%q) error = %v", q, err)
		}
		if res.Message != MessageQueryTooShort {
			t.Errorf("Search(%q) message = %q, want %q", q, res.Message, MessageQueryTooShort)
		}
		if len(res.Poets) != 0 || len(res.Categories) != 0 || len(res.Poems) != 0 {
			t.Errorf("Search(%q) returned results for a short query", q)
		}
	}
	if st.searchPoemCalls != 0 || ar.poetCalls != 0 {
		t.Error("short query must not touch any source")
	}
}

func TestSearch_LocalPoetDelegatesToStore(t *testing.T) {
	st := &fakeStore{
		localPoets: map[int]bool{2: true},
		poemHits:   []models.PoemHit{{ID: 10, PoetID: 2, Title: "غزل"}},
	}
	ar := &fakeArchive{}
	e := newTestEngine(st, ar)

	res, err := e.Search(context.Background(), Params{Query: "گل", Type: TypePoems, PoetID: intp(2), Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if st.searchPoemCalls != 1 {
		t.Errorf("store searchPoems calls = %d, want 1", st.searchPoemCalls)
	}
	if st.lastOpts.PoetID == nil || *st.lastOpts.PoetID != 2 {
		t.Errorf("poet filter not forwarded: %+v", st.lastOpts)
	}
	if ar.poetCalls != 0 || ar.categoryCalls != 0 {
		t.Error("remote archive touched for a local poet")
	}
	if len(res.Poems) != 1 {
		t.Errorf("poems = %d, want 1", len(res.Poems))
	}
}

func TestSearch_UnscopedPoemsStayLocal(t *testing.T) {
	st := &fakeStore{}
	ar := &fakeArchive{}
	e := newTestEngine(st, ar)

	_, err := e.Search(context.Background(), Params{Query: "گل", Type: TypePoems, Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if st.searchPoemCalls != 1 {
		t.Errorf("store calls = %d, want 1", st.searchPoemCalls)
	}
	if ar.poetCalls != 0 {
		t.Error("unscoped poem search must never hit the remote archive")
	}
}

func TestFallback_TitleMatchRanksFirst(t *testing.T) {
	st := &fakeStore{} // poet 999 not local
	ar := &fakeArchive{
		detail: &models.PoetDetail{
			Poet:       models.Poet{ID: 999, Name: "گمنام"},
			Categories: []models.Category{{ID: 50, PoetID: 999, Title: "دیوان"}},
		},
		poemsByCat: map[int][]models.Poem{
			50: {
				{ID: 1, Title: "بی ربط", Snippet: "ساغر می اینجاست"},
				{ID: 2, Title: "ساغر", Snippet: "بی ربط"},
			},
		},
	}
	e := newTestEngine(st, ar)

	res, err := e.Search(context.Background(), Params{Query: "ساغر", Type: TypePoems, PoetID: intp(999), Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Poems) != 2 {
		t.Fatalf("poems = %d, want 2", len(res.Poems))
	}
	if res.Poems[0].ID != 2 {
		t.Errorf("first hit = %d, want the title match (2) ranked above the verse-only match", res.Poems[0].ID)
	}
	if res.Poems[0].PoetName != "گمنام" || res.Poems[0].CategoryTitle != "دیوان" {
		t.Errorf("denormalized context missing: %+v", res.Poems[0])
	}
}

func TestFallback_MultiWordMatch(t *testing.T) {
	st := &fakeStore{}
	ar := &fakeArchive{
		detail: &models.PoetDetail{
			Poet:       models.Poet{ID: 999, Name: "گمنام"},
			Categories: []models.Category{{ID: 50, PoetID: 999, Title: "دیوان"}},
		},
		poemsByCat: map[int][]models.Poem{
			50: {
				// both words present, non-adjacent: matches
				{ID: 1, Title: "بی ربط", Verses: []string{"شب تاریک", "بود"}},
				// only one word present: no match
				{ID: 2, Title: "بی ربط", Verses: []string{"شب"}},
			},
		},
	}
	e := newTestEngine(st, ar)

	res, err := e.Search(context.Background(), Params{Query: "شب بود", Type: TypePoems, PoetID: intp(999), Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Poems) != 1 || res.Poems[0].ID != 1 {
		t.Fatalf("poems = %+v, want only poem 1", res.Poems)
	}
}

func TestFallback_EarlyExitApproximateTotal(t *testing.T) {
	// Five categories with two matches each. With limit=1, offset=0 the
	// scan stops once 2*(0+1)=2 matches are collected, so the reported
	// total is the match count at that point — an intentional undercount,
	// not a bug.
	cats := make([]models.Category, 5)
	poemsByCat := map[int][]models.Poem{}
	for i := range cats {
		id := 50 + i
		cats[i] = models.Category{ID: id, PoetID: 999, Title: "دفتر"}
		poemsByCat[id] = []models.Poem{
			{ID: id*10 + 1, Title: "گل", Snippet: "x"},
			{ID: id*10 + 2, Title: "گل دیگر", Snippet: "x"},
		}
	}

	st := &fakeStore{}
	ar := &fakeArchive{
		detail:     &models.PoetDetail{Poet: models.Poet{ID: 999, Name: "گمنام"}, Categories: cats},
		poemsByCat: poemsByCat,
	}
	e := newTestEngine(st, ar)

	res, err := e.Search(context.Background(), Params{
		Query: "گل", Type: TypePoems, PoetID: intp(999), Limit: 1, Offset: 0, WithCount: true,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Poems) != 1 {
		t.Fatalf("poems = %d, want 1 (limit)", len(res.Poems))
	}
	if ar.categoryCalls != 1 {
		t.Errorf("category fetches = %d, want 1 (early exit after enough matches)", ar.categoryCalls)
	}
	if res.TotalPoems == nil || *res.TotalPoems != 2 {
		t.Errorf("totalPoems = %v, want 2 (matches found before the scan stopped; true total is 10)", res.TotalPoems)
	}
}

func TestFallback_SkipsFailingCategory(t *testing.T) {
	st := &fakeStore{}
	ar := &fakeArchive{
		detail: &models.PoetDetail{
			Poet: models.Poet{ID: 999, Name: "گمنام"},
			Categories: []models.Category{
				{ID: 50, PoetID: 999, Title: "خراب"},
				{ID: 51, PoetID: 999, Title: "سالم"},
			},
		},
		failingCats: map[int]bool{50: true},
		poemsByCat: map[int][]models.Poem{
			51: {{ID: 7, Title: "گل", Snippet: "x"}},
		},
	}
	e := newTestEngine(st, ar)

	res, err := e.Search(context.Background(), Params{Query: "گل", Type: TypePoems, PoetID: intp(999), Limit: 10})
	if err != nil {
		t.Fatalf("a failing category must not abort the scan: %v", err)
	}
	if len(res.Poems) != 1 || res.Poems[0].ID != 7 {
		t.Errorf("poems = %+v, want the match from the healthy category", res.Poems)
	}
}

func TestFallback_HasPoetErrorUsesScan(t *testing.T) {
	st := &fakeStore{hasPoetErr: errors.New("timeout")}
	ar := &fakeArchive{
		detail: &models.PoetDetail{
			Poet:       models.Poet{ID: 2, Name: "حافظ"},
			Categories: []models.Category{{ID: 25, PoetID: 2, Title: "غزلیات"}},
		},
		poemsByCat: map[int][]models.Poem{25: {{ID: 1, Title: "گل", Snippet: "x"}}},
	}
	e := newTestEngine(st, ar)

	res, err := e.Search(context.Background(), Params{Query: "گل", Type: TypePoems, PoetID: intp(2), Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if st.searchPoemCalls != 0 {
		t.Error("store search used despite hasPoet failure")
	}
	if len(res.Poems) != 1 {
		t.Errorf("poems = %d, want 1 via fallback scan", len(res.Poems))
	}
}

func TestFallback_PoetFetchFailureYieldsEmpty(t *testing.T) {
	st := &fakeStore{}
	ar := &fakeArchive{} // no detail: poet fetch fails
	e := newTestEngine(st, ar)

	res, err := e.Search(context.Background(), Params{Query: "گل", Type: TypePoems, PoetID: intp(999), Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Poems) != 0 {
		t.Errorf("poems = %d, want 0", len(res.Poems))
	}
}

func TestSearch_TypeAllFansOut(t *testing.T) {
	st := &fakeStore{
		poetHits: []models.PoetHit{{ID: 2, Name: "حافظ"}},
		catHits:  []models.CategoryHit{{ID: 25, PoetID: 2, Title: "غزلیات"}},
		poemHits: []models.PoemHit{{ID: 10, PoetID: 2, Title: "غزل"}},
	}
	e := newTestEngine(st, &fakeArchive{})

	res, err := e.Search(context.Background(), Params{Query: "غزل", Type: TypeAll, Limit: 10, WithCount: true})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Poets) != 1 || len(res.Categories) != 1 || len(res.Poems) != 1 {
		t.Errorf("results = %d/%d/%d, want 1/1/1", len(res.Poets), len(res.Categories), len(res.Poems))
	}
	if res.TotalPoets == nil || res.TotalCategories == nil || res.TotalPoems == nil {
		t.Error("totals missing with count=true")
	}
}
