package resolver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Resolver *Resolver
}

func NewHandler(r *Resolver) *Handler {
	return &Handler{Resolver: r}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/poets", h.listPoets)
	router.GET("/poets/:id", h.getPoet)
	router.GET("/poets/:id/categories/:catID", h.getCategory)
	router.GET("/poets/:id/categories/:catID/chapters/:chID", h.getChapter)
	router.GET("/poems/:id", h.getPoem)
}

func (h *Handler) listPoets(c *gin.Context) {
	poets, src, err := h.Resolver.ResolvePoets(c.Request.Context())
	if err != nil {
		notAvailable(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"poets": poets, "source": src})
}

func (h *Handler) getPoet(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}

	detail, src, err := h.Resolver.ResolvePoet(c.Request.Context(), id)
	if err != nil {
		notAvailable(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"poet":       detail.Poet,
		"categories": detail.Categories,
		"source":     src,
	})
}

func (h *Handler) getCategory(c *gin.Context) {
	poetID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	catID, ok := pathInt(c, "catID")
	if !ok {
		return
	}

	detail, src, err := h.Resolver.ResolveCategory(c.Request.Context(), poetID, catID)
	if err != nil {
		notAvailable(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category": detail.Category,
		"chapters": detail.Chapters,
		"poems":    detail.Poems,
		"source":   src,
	})
}

func (h *Handler) getChapter(c *gin.Context) {
	poetID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	catID, ok := pathInt(c, "catID")
	if !ok {
		return
	}
	chapterID, ok := pathInt(c, "chID")
	if !ok {
		return
	}

	detail, src, err := h.Resolver.ResolveChapter(c.Request.Context(), poetID, catID, chapterID)
	if err != nil {
		notAvailable(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"chapter": detail.Category,
		"poems":   detail.Poems,
		"source":  src,
	})
}

func (h *Handler) getPoem(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}

	view, src, err := h.Resolver.ResolvePoem(c.Request.Context(), id)
	if err != nil {
		notAvailable(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"poem":     view.Poem,
		"category": view.Category,
		"poet":     view.Poet,
		"source":   src,
	})
}

// pathInt rejects non-numeric ids before any source is queried.
func pathInt(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}

// notAvailable maps the resolver's typed conditions to a not-found payload
// with a message key the UI localizes.
func notAvailable(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPoetNotAvailable):
		c.JSON(http.StatusNotFound, gin.H{"error": "poet_not_available"})
	case errors.Is(err, ErrCategoryNotAvailable):
		c.JSON(http.StatusNotFound, gin.H{"error": "category_not_available"})
	case errors.Is(err, ErrPoemNotAvailable):
		c.JSON(http.StatusNotFound, gin.H{"error": "poem_not_available"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": err.Error()})
	}
}
