package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/rs/zerolog/log"
)

// ExportFilename is the suggested name of an exported backup.
const ExportFilename = "code-like-a-pro-posts-backup.json"

// TransferService moves the whole collection in and out as a JSON file.
type TransferService struct {
	local domain.LocalStore
	sync  *SyncService
}

func NewTransferService(local domain.LocalStore, sync *SyncService) *TransferService {
	return &TransferService{
		local: local,
		sync:  sync,
	}
}

// Export writes the collection held by the local store, not the cache, as an
// indented JSON array. A store holding nothing exports an empty array.
func (t *TransferService) Export(ctx context.Context, w io.Writer) error {
	posts, found, err := t.local.Read(ctx)
	if err != nil {
		return fmt.Errorf("exporting posts: %w", err)
	}
	if !found || posts == nil {
		posts = domain.Collection{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(posts); err != nil {
		return fmt.Errorf("exporting posts: %w", err)
	}
	return nil
}

// Import replaces the whole collection with the contents of r. Unless r holds
// a JSON array of valid posts nothing is written and ErrValidation is
// returned.
func (t *TransferService) Import(ctx context.Context, r io.Reader) (int, error) {
	posts, err := decodeImport(r)
	if err != nil {
		return 0, err
	}

	if err := t.sync.SavePosts(ctx, posts); err != nil {
		return 0, fmt.Errorf("importing posts: %w", err)
	}

	log.Info().Int("count", len(posts)).Msg("Imported posts")
	t.sync.publish(domain.ChangeEvent{Kind: domain.ChangeImported, Count: len(posts)})
	return len(posts), nil
}

func decodeImport(r io.Reader) (domain.Collection, error) {
	var elems []json.RawMessage
	if err := json.NewDecoder(r).Decode(&elems); err != nil {
		return nil, fmt.Errorf("%w: import file is not a JSON array of posts: %w", domain.ErrValidation, err)
	}
	if elems == nil {
		return nil, fmt.Errorf("%w: import file is not a JSON array of posts", domain.ErrValidation)
	}

	posts := make(domain.Collection, 0, len(elems))
	for i, raw := range elems {
		if !domain.Validate(raw) {
			return nil, fmt.Errorf("%w: element %d is not a valid post", domain.ErrValidation, i)
		}
		var p domain.Post
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", domain.ErrValidation, i, err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}
