package rest

import (
	"fmt"
	"net/http"

	"github.com/dfryer1193/journal/api"
	"github.com/dfryer1193/journal/blog/domain"
	"github.com/gin-gonic/gin"
)

// GetPosts lists every post newest first. With ?view=summary the bodies are
// left out.
func (a *Api) GetPosts(c *gin.Context) {
	posts := a.sync.GetAllPosts(c.Request.Context())

	if c.Query("view") == "summary" {
		summaries := make([]api.PostSummary, 0, len(posts))
		for _, p := range posts {
			summaries = append(summaries, api.Summarize(p))
		}
		c.JSON(http.StatusOK, summaries)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (a *Api) GetPost(c *gin.Context) {
	post, ok := a.findPost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, post)
}

func (a *Api) GetPostHTML(c *gin.Context) {
	post, ok := a.findPost(c)
	if !ok {
		return
	}

	html, err := a.renderer.Render(post)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (a *Api) findPost(c *gin.Context) (domain.Post, bool) {
	slug := c.Param("slug")
	post, ok := a.sync.GetPostBySlug(c.Request.Context(), slug)
	if !ok {
		writeError(c, fmt.Errorf("%w: post %q", domain.ErrNotFound, slug))
		return domain.Post{}, false
	}
	return post, true
}

// AddPost adds a post, or replaces the post with the same slug.
func (a *Api) AddPost(c *gin.Context) {
	proto := &api.PostProto{}
	if err := c.ShouldBindJSON(proto); err != nil {
		writeError(c, fmt.Errorf("%w: %w", domain.ErrValidation, err))
		return
	}

	post := proto.ToDomain(a.now())
	if !post.Complete() {
		writeError(c, fmt.Errorf("%w: post needs a slug, a title and some content", domain.ErrValidation))
		return
	}

	if err := a.sync.AddPost(c.Request.Context(), post); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// ClearPosts deletes the locally stored collection.
func (a *Api) ClearPosts(c *gin.Context) {
	if err := a.sync.ClearLocal(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
