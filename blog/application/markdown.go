package application

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// PostRenderer turns a post's blocks into HTML.
type PostRenderer interface {
	Render(post domain.Post) ([]byte, error)
}

type MarkdownRenderer struct {
	renderer goldmark.Markdown
}

func NewMarkdownRenderer() *MarkdownRenderer {
	renderer := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &MarkdownRenderer{
		renderer: renderer,
	}
}

// Render converts text blocks as markdown and code blocks as fenced code
// tagged with their language. Blocks of any other type are skipped.
func (r *MarkdownRenderer) Render(post domain.Post) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.renderer.Convert(toMarkdown(post.Content), &buf); err != nil {
		return nil, fmt.Errorf("failed to render post %s: %w", post.Slug, err)
	}
	return buf.Bytes(), nil
}

func toMarkdown(blocks []domain.ContentBlock) []byte {
	var sb strings.Builder
	for _, b := range blocks {
		switch b.Type {
		case domain.BlockText:
			sb.WriteString(b.Content)
		case domain.BlockCode:
			fence := codeFence(b.Content)
			sb.WriteString(fence)
			sb.WriteString(b.Language)
			sb.WriteByte('\n')
			sb.WriteString(b.Content)
			if !strings.HasSuffix(b.Content, "\n") {
				sb.WriteByte('\n')
			}
			sb.WriteString(fence)
		default:
			continue
		}
		sb.WriteString("\n\n")
	}
	return []byte(sb.String())
}

// codeFence returns a backtick fence longer than any backtick run in content.
func codeFence(content string) string {
	longest, run := 0, 0
	for _, c := range content {
		if c == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}
