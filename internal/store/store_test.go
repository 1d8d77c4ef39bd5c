package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"ganjhub/pkg/database"
	"ganjhub/pkg/models"
	"ganjhub/pkg/textnorm"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepo(db, zerolog.Nop())
}

func seedPoet(t *testing.T, db *sql.DB, p models.Poet) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO poets (id, name, slug, description, birth_year, death_year, search_text)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Slug, p.Description, intOrNil(p.BirthYear), intOrNil(p.DeathYear),
		textnorm.Normalize(p.Name+" "+p.Slug))
	if err != nil {
		t.Fatalf("seed poet: %v", err)
	}
}

func seedCategory(t *testing.T, db *sql.DB, c models.Category) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO categories (id, poet_id, parent_id, title, url_slug, poem_count, search_text)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.PoetID, intOrNil(c.ParentID), c.Title, c.URLSlug, c.PoemCount,
		textnorm.Normalize(c.Title))
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
}

func seedPoem(t *testing.T, db *sql.DB, p models.Poem) {
	t.Helper()
	verses, _ := json.Marshal(p.Verses)
	_, err := db.Exec(`
		INSERT INTO poems (id, poet_id, category_id, chapter_id, title, verses, snippet, search_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.PoetID, intOrNil(p.CategoryID), intOrNil(p.ChapterID), p.Title, string(verses),
		p.Snippet, textnorm.Normalize(p.Title+" "+p.JoinedVerses()))
	if err != nil {
		t.Fatalf("seed poem: %v", err)
	}
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intp(v int) *int { return &v }

func TestHasPoet(t *testing.T) {
	repo := newTestRepo(t)
	seedPoet(t, repo.DB, models.Poet{ID: 2, Name: "حافظ شیرازی", Slug: "hafez"})

	ok, err := repo.HasPoet(context.Background(), 2)
	if err != nil {
		t.Fatalf("HasPoet(2) error = %v", err)
	}
	if !ok {
		t.Error("HasPoet(2) = false, want true")
	}

	ok, err = repo.HasPoet(context.Background(), 999)
	if err != nil {
		t.Fatalf("HasPoet(999) error = %v", err)
	}
	if ok {
		t.Error("HasPoet(999) = true, want false")
	}
}

func TestGetPoet_CategoryTree(t *testing.T) {
	repo := newTestRepo(t)
	seedPoet(t, repo.DB, models.Poet{ID: 2, Name: "حافظ شیرازی", Slug: "hafez", BirthYear: intp(1315)})
	seedCategory(t, repo.DB, models.Category{ID: 25, PoetID: 2, Title: "غزلیات", PoemCount: 495})
	seedCategory(t, repo.DB, models.Category{ID: 30, PoetID: 2, ParentID: intp(25), Title: "بخش اول"})

	detail, err := repo.GetPoet(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetPoet() error = %v", err)
	}
	if detail.Poet.BirthYear == nil || *detail.Poet.BirthYear != 1315 {
		t.Errorf("birth year = %v, want 1315", detail.Poet.BirthYear)
	}
	if len(detail.Categories) != 1 {
		t.Fatalf("root categories = %d, want 1", len(detail.Categories))
	}
	root := detail.Categories[0]
	if root.ID != 25 || len(root.Children) != 1 || root.Children[0].ID != 30 {
		t.Errorf("tree = %+v", root)
	}
}

func TestGetPoet_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetPoet(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPoet(999) error = %v, want ErrNotFound", err)
	}
}

func TestGetPoem_VerseOrderPreserved(t *testing.T) {
	repo := newTestRepo(t)
	seedPoet(t, repo.DB, models.Poet{ID: 2, Name: "حافظ", Slug: "hafez"})

	verses := []string{"بیت سوم نیست", "الف اول", "یک خط دیگر"}
	seedPoem(t, repo.DB, models.Poem{ID: 10, PoetID: 2, Title: "غزل", Verses: verses})

	poem, err := repo.GetPoem(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetPoem() error = %v", err)
	}
	if len(poem.Verses) != 3 {
		t.Fatalf("verses = %d, want 3", len(poem.Verses))
	}
	for i, want := range verses {
		if poem.Verses[i] != want {
			t.Errorf("verses[%d] = %q, want %q (stored order must survive)", i, poem.Verses[i], want)
		}
	}
}

func TestGetPoem_CorruptVersesSurface(t *testing.T) {
	repo := newTestRepo(t)
	seedPoet(t, repo.DB, models.Poet{ID: 2, Name: "حافظ", Slug: "hafez"})

	// A damaged verses column must come back as a store error, not as a
	// silently verse-less poem.
	_, err := repo.DB.Exec(`
		INSERT INTO poems (id, poet_id, title, verses, snippet, search_text)
		VALUES (10, 2, 'غزل', 'not-json', '', 'غزل')
	`)
	if err != nil {
		t.Fatalf("seed corrupt poem: %v", err)
	}

	_, err = repo.GetPoem(context.Background(), 10)
	if err == nil {
		t.Fatal("GetPoem() on a corrupt row returned nil error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want a store error distinct from ErrNotFound", err)
	}
	var storeErr *Error
	if !errors.As(err, &storeErr) {
		t.Errorf("error type = %T, want *Error", err)
	}
}

func TestGetPoem_NotFoundIsRoutine(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetPoem(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPoem(42) error = %v, want ErrNotFound", err)
	}
}

func TestGetCategoryPoems(t *testing.T) {
	repo := newTestRepo(t)
	seedPoet(t, repo.DB, models.Poet{ID: 2, Name: "حافظ", Slug: "hafez"})
	seedCategory(t, repo.DB, models.Category{ID: 25, PoetID: 2, Title: "غزلیات"})
	seedPoem(t, repo.DB, models.Poem{ID: 11, PoetID: 2, CategoryID: intp(25), Title: "غزل ۱"})
	seedPoem(t, repo.DB, models.Poem{ID: 12, PoetID: 2, CategoryID: intp(26), Title: "دیگر"})
	seedPoem(t, repo.DB, models.Poem{ID: 13, PoetID: 2, ChapterID: intp(25), Title: "از فصل"})

	poems, err := repo.GetCategoryPoems(context.Background(), 2, 25)
	if err != nil {
		t.Fatalf("GetCategoryPoems() error = %v", err)
	}
	if len(poems) != 2 {
		t.Fatalf("poems = %d, want 2 (category 25 direct + chaptered)", len(poems))
	}
	if poems[0].ID != 11 || poems[1].ID != 13 {
		t.Errorf("ids = %d,%d want 11,13", poems[0].ID, poems[1].ID)
	}
}

func TestPoemContext(t *testing.T) {
	repo := newTestRepo(t)
	seedPoet(t, repo.DB, models.Poet{ID: 2, Name: "حافظ شیرازی", Slug: "hafez"})
	seedCategory(t, repo.DB, models.Category{ID: 25, PoetID: 2, Title: "غزلیات"})
	seedCategory(t, repo.DB, models.Category{ID: 30, PoetID: 2, ParentID: intp(25), Title: "بخش اول"})

	poem := models.Poem{ID: 10, PoetID: 2, CategoryID: intp(25), ChapterID: intp(30), Title: "غزل"}
	cat, poet := repo.PoemContext(context.Background(), poem)

	if cat == nil || cat.ID != 30 {
		t.Errorf("context category = %+v, want chapter 30 preferred", cat)
	}
	if poet == nil || poet.Name != "حافظ شیرازی" {
		t.Errorf("context poet = %+v", poet)
	}

	// Missing context is not an error.
	orphan := models.Poem{ID: 11, PoetID: 999, Title: "تنها"}
	cat, poet = repo.PoemContext(context.Background(), orphan)
	if cat != nil || poet != nil {
		t.Errorf("orphan context = %v, %v, want nil, nil", cat, poet)
	}
}
