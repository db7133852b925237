package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/rs/zerolog/log"
)

// SyncService mediates every read and write of the post collection across the
// in-memory cache, the local store and an optional remote.
//
// The first LoadPosts decides where the collection comes from and the result
// stays cached for the life of the service. Writes go to the cache and the
// local store synchronously; the remote copy is written in the background.
type SyncService struct {
	local  domain.LocalStore
	remote domain.RemoteAdapter
	now    func() time.Time

	mu    sync.Mutex
	cache domain.Collection

	subMu       sync.Mutex
	subscribers map[uint64]func(domain.ChangeEvent)
	nextSubID   uint64

	// Remote saves run detached; the newest dispatched save wins.
	remoteMu    sync.Mutex
	saveSeq     uint64
	remoteSaved uint64

	// Service lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

// NewSyncService creates a service over local and, when non-nil, remote.
func NewSyncService(local domain.LocalStore, remote domain.RemoteAdapter) *SyncService {
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	return &SyncService{
		local:       local,
		remote:      remote,
		now:         time.Now,
		subscribers: make(map[uint64]func(domain.ChangeEvent)),
		ctx:         ctx,
		cancel:      cancel,
		wg:          &wg,
	}
}

// Wait blocks until every remote save dispatched so far has finished.
func (s *SyncService) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight remote saves and waits for them to return.
func (s *SyncService) Close() error {
	s.cancel()
	s.wg.Wait()

	return nil
}

// LoadPosts returns the collection, consulting the tiers in order of
// precedence the first time: remote, then local, then the built-in defaults.
// It never fails; tier failures are logged and the next tier is tried.
func (s *SyncService) LoadPosts(ctx context.Context) domain.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked(ctx).Clone()
}

func (s *SyncService) loadLocked(ctx context.Context) domain.Collection {
	if s.cache != nil {
		return s.cache
	}

	if s.remoteReady(ctx) {
		posts, err := s.remote.Load(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("remote", s.remote.Name()).Msg("Failed to load posts from remote, falling back to local")
		case len(posts) > 0:
			log.Debug().Str("remote", s.remote.Name()).Int("count", len(posts)).Msg("Loaded posts from remote")
			s.cache = posts
			return s.cache
		}
	}

	posts, found, err := s.local.Read(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read local posts, serving defaults")
		return domain.DefaultCollection()
	}
	if found {
		if posts == nil {
			posts = domain.Collection{}
		}
		s.cache = posts
		return s.cache
	}

	defaults := domain.DefaultCollection()
	if err := s.local.Write(ctx, defaults); err != nil {
		log.Error().Err(err).Msg("Failed to seed local store with default posts")
	}
	s.cache = defaults
	return s.cache
}

// SavePosts replaces the whole collection. Only a local store failure is
// reported; the remote copy is updated in the background and its failures are
// logged.
func (s *SyncService) SavePosts(ctx context.Context, posts domain.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveLocked(ctx, posts)
}

func (s *SyncService) saveLocked(ctx context.Context, posts domain.Collection) error {
	if posts == nil {
		posts = domain.Collection{}
	}
	s.cache = posts.Clone()

	localErr := s.local.Write(ctx, s.cache)
	s.dispatchRemoteSave(s.cache.Clone())

	if localErr != nil {
		log.Error().Err(localErr).Int("count", len(posts)).Msg("Failed to save posts locally")
		return fmt.Errorf("saving posts: %w", localErr)
	}
	return nil
}

// dispatchRemoteSave must be called with s.mu held so dispatch order matches
// write order.
func (s *SyncService) dispatchRemoteSave(posts domain.Collection) {
	if s.remote == nil {
		return
	}

	s.saveSeq++
	seq := s.saveSeq

	s.wg.Go(func() {
		s.remoteMu.Lock()
		defer s.remoteMu.Unlock()

		if seq < s.remoteSaved {
			return
		}
		if !s.remoteReady(s.ctx) {
			return
		}
		if err := s.remote.Save(s.ctx, posts); err != nil {
			log.Error().Err(err).Str("remote", s.remote.Name()).Int("count", len(posts)).Msg("Failed to save posts to remote")
			return
		}
		s.remoteSaved = seq
		log.Debug().Str("remote", s.remote.Name()).Int("count", len(posts)).Msg("Saved posts to remote")
	})
}

// AddPost inserts post, replacing any post with the same slug in place, and
// saves the whole collection.
func (s *SyncService) AddPost(ctx context.Context, post domain.Post) error {
	s.mu.Lock()
	updated := s.loadLocked(ctx).Upsert(post)
	err := s.saveLocked(ctx, updated)
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.publish(domain.ChangeEvent{Kind: domain.ChangeAdded, Slug: post.Slug, Count: len(updated)})
	return nil
}

// GetAllPosts returns the collection newest first.
func (s *SyncService) GetAllPosts(ctx context.Context) domain.Collection {
	return s.LoadPosts(ctx).SortedByDate()
}

// GetPostBySlug looks up a single post.
func (s *SyncService) GetPostBySlug(ctx context.Context, slug string) (domain.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.loadLocked(ctx).Find(slug)
	if !ok {
		return domain.Post{}, false
	}
	return p.Clone(), true
}

// ClearLocal deletes the collection from the local store and drops the cache,
// so the next read starts over from the remote or the defaults.
func (s *SyncService) ClearLocal(ctx context.Context) error {
	s.mu.Lock()
	err := s.local.Clear(ctx)
	if err == nil {
		s.cache = nil
	}
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("Failed to clear local posts")
		return fmt.Errorf("clearing local posts: %w", err)
	}

	s.publish(domain.ChangeEvent{Kind: domain.ChangeCleared})
	return nil
}

// Subscribe registers fn for change events. fn runs on the goroutine that
// made the change and must not block. The returned func unsubscribes.
func (s *SyncService) Subscribe(fn func(domain.ChangeEvent)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *SyncService) publish(evt domain.ChangeEvent) {
	evt.At = s.now().UTC()

	s.subMu.Lock()
	fns := make([]func(domain.ChangeEvent), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(evt)
	}
}

func (s *SyncService) remoteReady(ctx context.Context) bool {
	return domain.StatusOf(ctx, s.remote) == domain.RemoteAvailableSignedIn
}

// Remote returns the configured remote adapter, nil when there is none.
func (s *SyncService) Remote() domain.RemoteAdapter {
	return s.remote
}

// RemoteStatus projects the remote adapter's state.
func (s *SyncService) RemoteStatus(ctx context.Context) domain.RemoteStatus {
	return domain.StatusOf(ctx, s.remote)
}

// SignIn signs in to the remote. The cached collection is kept.
func (s *SyncService) SignIn(ctx context.Context) error {
	if s.remote == nil || !s.remote.IsConfigured(ctx) {
		return fmt.Errorf("%w: no remote configured", domain.ErrRemoteUnavailable)
	}
	return s.remote.SignIn(ctx)
}

// SignOut signs out of the remote. The cached collection is kept.
func (s *SyncService) SignOut(ctx context.Context) error {
	if s.remote == nil || !s.remote.IsConfigured(ctx) {
		return fmt.Errorf("%w: no remote configured", domain.ErrRemoteUnavailable)
	}
	return s.remote.SignOut(ctx)
}

// TestRemote forgets the remote's memoized initialization and probes it again.
func (s *SyncService) TestRemote(ctx context.Context) domain.RemoteStatus {
	if s.remote != nil {
		s.remote.Reset()
	}
	return s.RemoteStatus(ctx)
}
