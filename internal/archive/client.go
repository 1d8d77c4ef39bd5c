// Package archive is the typed client for the remote poetry archive: the
// authoritative, complete, but slow and rate-limited source. It does one
// HTTP GET per call and carries no cache and no retry policy; retries and
// throttling belong to the callers (resolver, import pipeline).
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ganjhub/pkg/models"
)

// Error is returned for any non-2xx response from the remote archive.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote archive: status %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("archive: build request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("archive: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("archive: decode %s: %w", path, err)
	}
	return nil
}

// Poets fetches the full poet list.
func (c *Client) Poets(ctx context.Context) ([]models.Poet, error) {
	var wire []wirePoet
	if err := c.get(ctx, "/poets", &wire); err != nil {
		return nil, err
	}
	out := make([]models.Poet, 0, len(wire))
	for _, w := range wire {
		out = append(out, toPoet(w))
	}
	return out, nil
}

// Poet fetches a poet together with their root category tree.
func (c *Client) Poet(ctx context.Context, id int) (*models.PoetDetail, error) {
	var wire wirePoetResponse
	if err := c.get(ctx, fmt.Sprintf("/poets/%d", id), &wire); err != nil {
		return nil, err
	}

	detail := &models.PoetDetail{Poet: toPoet(wire.Poet)}
	if wire.Cat != nil {
		root := toCategory(detail.Poet.ID, *wire.Cat)
		// The remote nests everything under one root; the UI wants the
		// root's children as the poet's categories.
		if len(root.Children) > 0 {
			detail.Categories = root.Children
		} else {
			detail.Categories = []models.Category{root}
		}
	}
	return detail, nil
}

// Category fetches one category with its chapters and its poem listing
// (titles and excerpts only; verses require Poem).
func (c *Client) Category(ctx context.Context, poetID, catID int) (*models.CategoryDetail, error) {
	var wire wireCatResponse
	if err := c.get(ctx, fmt.Sprintf("/poets/%d/categories/%d", poetID, catID), &wire); err != nil {
		return nil, err
	}

	pid := wire.Poet.ID
	if pid == 0 {
		pid = poetID
	}
	cat := toCategory(pid, wire.Cat)
	return &models.CategoryDetail{
		Category: cat,
		Chapters: cat.Children,
		Poems:    toListingPoems(pid, wire.Cat),
	}, nil
}

// CategoryPoems fetches just the poem listing of a category.
func (c *Client) CategoryPoems(ctx context.Context, poetID, catID int) ([]models.Poem, error) {
	detail, err := c.Category(ctx, poetID, catID)
	if err != nil {
		return nil, err
	}
	return detail.Poems, nil
}

// Chapter fetches a sub-grouping one level below a category. Same shape as
// Category, scoped one level deeper.
func (c *Client) Chapter(ctx context.Context, poetID, catID, chapterID int) (*models.CategoryDetail, error) {
	var wire wireCatResponse
	path := fmt.Sprintf("/poets/%d/categories/%d/chapters/%d", poetID, catID, chapterID)
	if err := c.get(ctx, path, &wire); err != nil {
		return nil, err
	}

	pid := wire.Poet.ID
	if pid == 0 {
		pid = poetID
	}
	cat := toCategory(pid, wire.Cat)
	if cat.ParentID == nil {
		cat.ParentID = &catID
	}
	return &models.CategoryDetail{
		Category: cat,
		Poems:    toListingPoems(pid, wire.Cat),
	}, nil
}

// Poem fetches a single poem with its complete verse text.
func (c *Client) Poem(ctx context.Context, id int) (*models.Poem, error) {
	var wire wirePoem
	if err := c.get(ctx, fmt.Sprintf("/poems/%d", id), &wire); err != nil {
		return nil, err
	}
	p := toPoem(wire)
	return &p, nil
}
