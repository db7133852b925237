package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/google/go-github/v75/github"
)

// gistService is the slice of the GitHub API the adapter needs.
type gistService interface {
	Verify(ctx context.Context) (string, error)
	Find(ctx context.Context, filename string) (string, bool, error)
	Read(ctx context.Context, id, filename string) ([]byte, error)
	Create(ctx context.Context, filename string, content []byte) error
	Edit(ctx context.Context, id, filename string, content []byte) error
}

// gistClient implements gistService with go-github.
type gistClient struct {
	client *github.Client
}

func newGistClient(client *github.Client) *gistClient {
	return &gistClient{client: client}
}

// Verify returns the login the token belongs to.
func (g *gistClient) Verify(ctx context.Context) (string, error) {
	user, _, err := g.client.Users.Get(ctx, "")
	if err != nil {
		return "", handleGithubError("verifying token", err)
	}
	return user.GetLogin(), nil
}

// Find returns the ID of the first gist owning filename, paging through all
// of the user's gists.
func (g *gistClient) Find(ctx context.Context, filename string) (string, bool, error) {
	op := fmt.Sprintf("listing gists for %s", filename)
	opts := &github.GistListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		gists, resp, err := g.client.Gists.List(ctx, "", opts)
		if err != nil {
			return "", false, handleGithubError(op, err)
		}

		for _, gist := range gists {
			if _, ok := gist.Files[github.GistFilename(filename)]; ok {
				return gist.GetID(), true, nil
			}
		}

		if resp.NextPage == 0 {
			return "", false, nil
		}
		opts.Page = resp.NextPage
	}
}

// Read fetches the content of one file of a gist.
func (g *gistClient) Read(ctx context.Context, id, filename string) ([]byte, error) {
	op := fmt.Sprintf("getting gist %s", id)
	gist, _, err := g.client.Gists.Get(ctx, id)
	if err != nil {
		return nil, handleGithubError(op, err)
	}

	file, ok := gist.Files[github.GistFilename(filename)]
	if !ok {
		return nil, fmt.Errorf("%w: github: %s has no file %s", domain.ErrRemoteSync, op, filename)
	}
	if file.GetTruncated() {
		return nil, fmt.Errorf("%w: github: %s returned truncated content for %s", domain.ErrRemoteSync, op, filename)
	}
	return []byte(file.GetContent()), nil
}

// Create makes a secret gist holding a single file.
func (g *gistClient) Create(ctx context.Context, filename string, content []byte) error {
	op := fmt.Sprintf("creating gist %s", filename)
	_, _, err := g.client.Gists.Create(ctx, &github.Gist{
		Description: github.Ptr("Journal posts"),
		Public:      github.Ptr(false),
		Files: map[github.GistFilename]github.GistFile{
			github.GistFilename(filename): {Content: github.Ptr(string(content))},
		},
	})
	return handleGithubError(op, err)
}

// Edit overwrites one file of an existing gist.
func (g *gistClient) Edit(ctx context.Context, id, filename string, content []byte) error {
	op := fmt.Sprintf("editing gist %s", id)
	_, _, err := g.client.Gists.Edit(ctx, id, &github.Gist{
		Files: map[github.GistFilename]github.GistFile{
			github.GistFilename(filename): {Content: github.Ptr(string(content))},
		},
	})
	return handleGithubError(op, err)
}

// handleGithubError classifies a go-github error. Rejected credentials become
// domain.ErrRemoteAuth, everything else domain.ErrRemoteSync.
func handleGithubError(op string, err error) error {
	if err == nil {
		return nil
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		kind := domain.ErrRemoteSync
		switch errResp.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = domain.ErrRemoteAuth
		}
		return fmt.Errorf("%w: github: %s failed with status %d: %s", kind, op, errResp.Response.StatusCode, errResp.Message)
	}

	return fmt.Errorf("%w: github: %s failed: %w", domain.ErrRemoteSync, op, err)
}
