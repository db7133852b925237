package domain

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"
	"time"
)

// BlockType discriminates the variants of a ContentBlock.
type BlockType string

const (
	BlockText BlockType = "text"
	BlockCode BlockType = "code"

	// DefaultCodeLanguage is applied to code blocks authored without a language.
	DefaultCodeLanguage = "python"

	// DateLayout is the calendar date format of Post.Date.
	DateLayout = "2006-01-02"

	excerptLength = 150
)

var slugInvalidRun = regexp.MustCompile(`[^a-z0-9]+`)

// ContentBlock is one piece of a post body. Text blocks carry only Content,
// code blocks also carry a Language. Blocks with an unrecognized Type are kept
// as-is so that nothing is lost on a round trip; renderers skip them.
type ContentBlock struct {
	Type     BlockType `json:"type"`
	Content  string    `json:"content"`
	Language string    `json:"language,omitempty"`
}

// UnmarshalJSON accepts any JSON value. Fields of the wrong type decode as
// empty, and a value that is not an object becomes a block with no type.
func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		*b = ContentBlock{}
		return nil
	}

	*b = ContentBlock{
		Type:     BlockType(stringField(fields, "type")),
		Content:  stringField(fields, "content"),
		Language: stringField(fields, "language"),
	}
	return nil
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// TextBlock builds a text block.
func TextBlock(content string) ContentBlock {
	return ContentBlock{Type: BlockText, Content: content}
}

// CodeBlock builds a code block, defaulting the language when empty.
func CodeBlock(content, language string) ContentBlock {
	if language == "" {
		language = DefaultCodeLanguage
	}
	return ContentBlock{Type: BlockCode, Content: content, Language: language}
}

// Post is a journal entry. Slug is the primary key within a Collection.
type Post struct {
	Slug    string         `json:"slug"`
	Title   string         `json:"title"`
	Date    string         `json:"date"`
	Excerpt string         `json:"excerpt"`
	Tags    []string       `json:"tags"`
	Content []ContentBlock `json:"content"`
}

// MarshalJSON always writes tags, as an empty list when there are none.
func (p Post) MarshalJSON() ([]byte, error) {
	type plain Post
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return json.Marshal(plain(p))
}

// UnmarshalJSON keeps the string elements of tags and ignores a tags value
// that is not a list. No tags decode as nil.
func (p *Post) UnmarshalJSON(data []byte) error {
	type plain Post
	var aux struct {
		plain
		Tags json.RawMessage `json:"tags"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*p = Post(aux.plain)
	p.Tags = nil

	var items []any
	if err := json.Unmarshal(aux.Tags, &items); err != nil {
		return nil
	}
	for _, item := range items {
		if tag, ok := item.(string); ok {
			p.Tags = append(p.Tags, tag)
		}
	}
	return nil
}

// Complete reports whether p satisfies the authoring invariants: a slug, a
// title and at least one block with content.
func (p Post) Complete() bool {
	if p.Slug == "" || p.Title == "" {
		return false
	}
	for _, b := range p.Content {
		if b.Content != "" {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of p.
func (p Post) Clone() Post {
	p.Tags = slices.Clone(p.Tags)
	p.Content = slices.Clone(p.Content)
	return p
}

// NewPost builds a post the way the authoring form does: slug from title,
// excerpt from the blocks, date from now, code blocks defaulted to a language.
func NewPost(title string, tags []string, blocks []ContentBlock, now time.Time) Post {
	content := make([]ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == BlockCode && b.Language == "" {
			b.Language = DefaultCodeLanguage
		}
		content = append(content, b)
	}

	return Post{
		Slug:    Slugify(title),
		Title:   title,
		Date:    now.Format(DateLayout),
		Excerpt: Excerpt(content),
		Tags:    DedupTags(tags),
		Content: content,
	}
}

// Slugify lowercases s, turns every run of characters outside [a-z0-9] into a
// single hyphen and trims hyphens from both ends.
// Example: "Getting Started with Next.js" -> "getting-started-with-next-js"
func Slugify(s string) string {
	result := strings.ToLower(s)
	result = slugInvalidRun.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Excerpt returns the first 150 characters of the first text block. When no
// text block has content it falls back to the first block, truncated and
// suffixed with "...".
func Excerpt(blocks []ContentBlock) string {
	for _, b := range blocks {
		if b.Type == BlockText && b.Content != "" {
			return truncate(b.Content, excerptLength)
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return truncate(blocks[0].Content, excerptLength) + "..."
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// DedupTags drops empty and repeated tags, keeping first-seen order.
func DedupTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Validate reports whether raw is a JSON object shaped like a Post: slug,
// title, date and excerpt must be non-empty strings and content must be an
// array. Blocks are not inspected.
func Validate(raw json.RawMessage) bool {
	var candidate map[string]any
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return false
	}
	return ValidateValue(candidate)
}

// ValidateValue is Validate for an already decoded JSON value.
func ValidateValue(candidate any) bool {
	obj, ok := candidate.(map[string]any)
	if !ok {
		return false
	}
	for _, field := range []string{"slug", "title", "date", "excerpt"} {
		s, ok := obj[field].(string)
		if !ok || s == "" {
			return false
		}
	}
	_, ok = obj["content"].([]any)
	return ok
}
