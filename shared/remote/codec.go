package remote

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dfryer1193/journal/blog/domain"
)

// FileName is the name of the file remote variants keep the collection in.
const FileName = "code-like-a-pro-posts.json"

// Encode serializes posts the way every remote file variant stores them.
func Encode(posts domain.Collection) ([]byte, error) {
	if posts == nil {
		posts = domain.Collection{}
	}
	raw, err := json.Marshal(posts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode posts: %w", domain.ErrRemoteSync, err)
	}
	return raw, nil
}

// Decode parses a remote file. Blank content is an empty collection.
func Decode(raw []byte) (domain.Collection, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.Collection{}, nil
	}

	var posts domain.Collection
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, fmt.Errorf("%w: remote file is not a post collection: %w", domain.ErrRemoteSync, err)
	}
	if posts == nil {
		posts = domain.Collection{}
	}
	return posts, nil
}
