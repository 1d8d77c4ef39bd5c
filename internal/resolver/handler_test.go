package resolver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ganjhub/pkg/models"
)

func newTestRouter(st Store, ar Archive) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(New(st, ar, zerolog.Nop())).RegisterRoutes(router)
	return router
}

func doGet(t *testing.T, router *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_GetPoet(t *testing.T) {
	st := &fakeStore{poets: map[int]*models.PoetDetail{2: hafezDetail()}}
	router := newTestRouter(st, &fakeArchive{})

	w := doGet(t, router, "/poets/2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Poet   models.Poet `json:"poet"`
		Source string      `json:"source"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Poet.ID != 2 || body.Source != "local" {
		t.Errorf("body = %+v, want poet 2 from local", body)
	}
}

func TestHandler_NonNumericID(t *testing.T) {
	router := newTestRouter(&fakeStore{}, &fakeArchive{})

	for _, url := range []string{"/poets/hafez", "/poems/x", "/poets/2/categories/abc"} {
		w := doGet(t, router, url)
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", url, w.Code)
		}
	}
}

func TestHandler_NotAvailableMapsTo404(t *testing.T) {
	router := newTestRouter(&fakeStore{}, &fakeArchive{down: true})

	cases := []struct {
		url string
		key string
	}{
		{"/poets/7", "poet_not_available"},
		{"/poems/99", "poem_not_available"},
	}
	for _, tc := range cases {
		w := doGet(t, router, tc.url)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", tc.url, w.Code)
			continue
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if body["error"] != tc.key {
			t.Errorf("GET %s error = %q, want %q", tc.url, body["error"], tc.key)
		}
	}
}

func TestHandler_SourceLabelOnRemoteHit(t *testing.T) {
	st := &fakeStore{poets: map[int]*models.PoetDetail{}}
	ar := &fakeArchive{poets: map[int]*models.PoetDetail{7: {Poet: models.Poet{ID: 7, Name: "قاآنی"}}}}
	router := newTestRouter(st, ar)

	w := doGet(t, router, "/poets/7")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if string(body["source"]) != `"remote"` {
		t.Errorf("source = %s, want remote", body["source"])
	}
}
