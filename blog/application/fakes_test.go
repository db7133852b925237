package application

import (
	"context"
	"sync"

	"github.com/dfryer1193/journal/blog/domain"
)

// fakeLocal is an in-memory domain.LocalStore that counts I/O.
type fakeLocal struct {
	mu       sync.Mutex
	posts    domain.Collection
	present  bool
	kv       map[string][]byte
	readErr  error
	writeErr error
	reads    int
	writes   int
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{kv: map[string][]byte{}}
}

func (f *fakeLocal) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	return v, ok, nil
}

func (f *fakeLocal) Put(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = value
	return nil
}

func (f *fakeLocal) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.kv, key)
	return nil
}

func (f *fakeLocal) Read(context.Context) (domain.Collection, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, false, f.readErr
	}
	return f.posts.Clone(), f.present, nil
}

func (f *fakeLocal) Write(_ context.Context, posts domain.Collection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.posts, f.present = posts.Clone(), true
	return nil
}

func (f *fakeLocal) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts, f.present = nil, false
	return nil
}

func (f *fakeLocal) snapshot() (domain.Collection, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts.Clone(), f.present
}

func (f *fakeLocal) counts() (reads, writes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads, f.writes
}

// fakeRemote is a domain.RemoteAdapter whose readiness is set by the test.
type fakeRemote struct {
	mu         sync.Mutex
	name       string
	configured bool
	available  bool
	signedIn   bool
	stored     domain.Collection
	loadErr    error
	saveErr    error
	loads      int
	saves      int
	resets     int

	// When set, Save waits for it to close or for ctx to end.
	block chan struct{}
}

func readyRemote() *fakeRemote {
	return &fakeRemote{name: "fake", configured: true, available: true, signedIn: true}
}

func (f *fakeRemote) Name() string { return f.name }

func (f *fakeRemote) IsConfigured(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configured
}

func (f *fakeRemote) IsAvailable(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

func (f *fakeRemote) IsSignedIn(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signedIn
}

func (f *fakeRemote) SignIn(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedIn = true
	return nil
}

func (f *fakeRemote) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedIn = false
	return nil
}

func (f *fakeRemote) Load(context.Context) (domain.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.stored.Clone(), nil
}

func (f *fakeRemote) Save(ctx context.Context, posts domain.Collection) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored = posts.Clone()
	return nil
}

func (f *fakeRemote) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeRemote) snapshot() (domain.Collection, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored.Clone(), f.loads, f.saves
}

func testPost(slug, date string) domain.Post {
	return domain.Post{
		Slug:    slug,
		Title:   "Title " + slug,
		Date:    date,
		Excerpt: "About " + slug,
		Tags:    []string{"test"},
		Content: []domain.ContentBlock{domain.TextBlock("About " + slug)},
	}
}
