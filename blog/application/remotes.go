package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dfryer1193/journal/blog/domain"
)

// CredentialedRemote is a remote adapter whose credentials live in the local
// store and can be edited at runtime.
type CredentialedRemote interface {
	domain.RemoteAdapter
	Credentials(ctx context.Context) (json.RawMessage, bool, error)
	SetCredentials(ctx context.Context, raw json.RawMessage) error
}

// SelectRemote returns a remote that delegates to the first of adapters that
// is configured at the time of each call. With a single adapter that adapter
// is returned as-is, with none the result is nil.
func SelectRemote(adapters ...domain.RemoteAdapter) domain.RemoteAdapter {
	switch len(adapters) {
	case 0:
		return nil
	case 1:
		return adapters[0]
	}
	return &firstConfigured{adapters: adapters}
}

type firstConfigured struct {
	adapters []domain.RemoteAdapter
}

var _ domain.RemoteAdapter = (*firstConfigured)(nil)

func (f *firstConfigured) active(ctx context.Context) domain.RemoteAdapter {
	for _, a := range f.adapters {
		if a.IsConfigured(ctx) {
			return a
		}
	}
	return nil
}

func (f *firstConfigured) Name() string {
	active := f.active(context.Background())
	if active == nil {
		return "none"
	}
	return active.Name()
}

func (f *firstConfigured) IsConfigured(ctx context.Context) bool {
	return f.active(ctx) != nil
}

func (f *firstConfigured) IsAvailable(ctx context.Context) bool {
	a := f.active(ctx)
	return a != nil && a.IsAvailable(ctx)
}

func (f *firstConfigured) IsSignedIn(ctx context.Context) bool {
	a := f.active(ctx)
	return a != nil && a.IsSignedIn(ctx)
}

func (f *firstConfigured) SignIn(ctx context.Context) error {
	a := f.active(ctx)
	if a == nil {
		return errNoRemote
	}
	return a.SignIn(ctx)
}

func (f *firstConfigured) SignOut(ctx context.Context) error {
	a := f.active(ctx)
	if a == nil {
		return errNoRemote
	}
	return a.SignOut(ctx)
}

func (f *firstConfigured) Load(ctx context.Context) (domain.Collection, error) {
	a := f.active(ctx)
	if a == nil {
		return nil, errNoRemote
	}
	return a.Load(ctx)
}

func (f *firstConfigured) Save(ctx context.Context, posts domain.Collection) error {
	a := f.active(ctx)
	if a == nil {
		return errNoRemote
	}
	return a.Save(ctx, posts)
}

func (f *firstConfigured) Reset() {
	for _, a := range f.adapters {
		a.Reset()
	}
}

var errNoRemote = fmt.Errorf("%w: no remote configured", domain.ErrRemoteUnavailable)
