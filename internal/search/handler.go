package search

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{Engine: engine}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.search) // GET /search
}

func (h *Handler) search(c *gin.Context) {
	// Search depends on the local store even for poem queries (routing and
	// the unscoped path). Without it this endpoint is down, not degraded.
	if h.Engine == nil || h.Engine.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "store_unavailable",
			"message": "local store is not configured",
		})
		return
	}

	p := Params{
		Query:     c.Query("q"),
		Type:      Type(strings.ToLower(c.DefaultQuery("type", "all"))),
		Limit:     parseInt(c.Query("limit"), 20),
		Offset:    parseInt(c.Query("offset"), 0),
		WithCount: c.Query("count") == "true",
	}

	switch p.Type {
	case TypeAll, TypePoets, TypeCategories, TypePoems:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type"})
		return
	}

	if s := c.Query("poetId"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid poetId"})
			return
		}
		p.PoetID = &id
	}

	res, err := h.Engine.Search(c.Request.Context(), p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search_failed", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
