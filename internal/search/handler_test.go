package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ganjhub/pkg/models"
)

func newTestRouter(engine *Engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(engine).RegisterRoutes(r.Group("/search"))
	return r
}

func doSearch(t *testing.T, r *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearchHandler_StoreUnavailable(t *testing.T) {
	r := newTestRouter(&Engine{Archive: &fakeArchive{}, Log: zerolog.Nop()})

	w := doSearch(t, r, "/search?q=گل")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["error"] != "store_unavailable" {
		t.Errorf("error = %q, want store_unavailable", body["error"])
	}
}

func TestSearchHandler_ShortQueryIsOK(t *testing.T) {
	r := newTestRouter(newTestEngine(&fakeStore{}, &fakeArchive{}))

	w := doSearch(t, r, "/search?q=a")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var res models.SearchResults
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if res.Message != MessageQueryTooShort {
		t.Errorf("message = %q, want %q", res.Message, MessageQueryTooShort)
	}
	if res.Poets == nil || res.Categories == nil || res.Poems == nil {
		t.Error("result slices must serialize as [], not null")
	}
}

func TestSearchHandler_InvalidType(t *testing.T) {
	r := newTestRouter(newTestEngine(&fakeStore{}, &fakeArchive{}))

	w := doSearch(t, r, "/search?q=گل&type=verses")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchHandler_InvalidPoetID(t *testing.T) {
	r := newTestRouter(newTestEngine(&fakeStore{}, &fakeArchive{}))

	w := doSearch(t, r, "/search?q=گل&poetId=hafez")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchHandler_ForwardsParams(t *testing.T) {
	st := &fakeStore{
		localPoets: map[int]bool{2: true},
		poemHits:   []models.PoemHit{{ID: 10, PoetID: 2, Title: "غزل"}},
	}
	r := newTestRouter(newTestEngine(st, &fakeArchive{}))

	w := doSearch(t, r, "/search?q=گل&type=poems&poetId=2&limit=5&offset=10&count=true")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if st.lastOpts.Limit != 5 || st.lastOpts.Offset != 10 || !st.lastOpts.WithCount {
		t.Errorf("opts = %+v, want limit 5 offset 10 count", st.lastOpts)
	}
	if st.lastOpts.PoetID == nil || *st.lastOpts.PoetID != 2 {
		t.Errorf("poet filter = %v, want 2", st.lastOpts.PoetID)
	}

	var res models.SearchResults
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(res.Poems) != 1 || res.Poems[0].ID != 10 {
		t.Errorf("poems = %+v", res.Poems)
	}
}
