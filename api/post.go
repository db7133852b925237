package api

import (
	"time"

	"github.com/dfryer1193/journal/blog/domain"
)

// PostProto is the body of an add/update request. Only title and content are
// required; slug, date, excerpt and code languages are derived when absent.
type PostProto struct {
	Slug    string                `json:"slug"`
	Title   string                `json:"title" binding:"required"`
	Date    string                `json:"date"`
	Excerpt string                `json:"excerpt"`
	Tags    []string              `json:"tags"`
	Content []domain.ContentBlock `json:"content" binding:"required,min=1"`
}

// ToDomain builds the post, filling every field the request left empty the
// way the authoring form would.
func (p PostProto) ToDomain(now time.Time) domain.Post {
	post := domain.NewPost(p.Title, p.Tags, p.Content, now)
	if p.Slug != "" {
		post.Slug = p.Slug
	}
	if p.Date != "" {
		post.Date = p.Date
	}
	if p.Excerpt != "" {
		post.Excerpt = p.Excerpt
	}
	return post
}

// PostSummary is a post without its body, as listed by the index.
type PostSummary struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Excerpt string   `json:"excerpt"`
	Tags    []string `json:"tags,omitempty"`
}

func Summarize(p domain.Post) PostSummary {
	return PostSummary{
		Slug:    p.Slug,
		Title:   p.Title,
		Date:    p.Date,
		Excerpt: p.Excerpt,
		Tags:    p.Tags,
	}
}

type ImportResult struct {
	Imported int `json:"imported"`
}

type Error struct {
	Error string `json:"error"`
}
