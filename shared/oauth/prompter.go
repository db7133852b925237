package oauth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrUnknownState is returned by CallbackPrompter.Deliver for a state no
// sign-in is waiting on.
var ErrUnknownState = errors.New("unknown oauth state")

// TerminalPrompter prints the authorization URL and reads the code from a
// line of input.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p TerminalPrompter) PromptCode(ctx context.Context, authURL, _ string) (string, error) {
	fmt.Fprintf(p.Out, "Open this link in your browser and authorize access:\n\n  %s\n\nPaste the authorization code: ", authURL)

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			done <- result{err: err}
			return
		}
		done <- result{code: strings.TrimSpace(line)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		if r.code == "" {
			return "", errors.New("empty authorization code")
		}
		return r.code, nil
	}
}

// CallbackPrompter completes sign-in from an HTTP redirect. PromptCode
// publishes the authorization URL on AuthURLs and blocks until Deliver is
// called with the matching state.
type CallbackPrompter struct {
	mu      sync.Mutex
	pending map[string]chan string
	urls    chan string
}

func NewCallbackPrompter() *CallbackPrompter {
	return &CallbackPrompter{
		pending: make(map[string]chan string),
		urls:    make(chan string, 1),
	}
}

// AuthURLs yields the URL of each sign-in that is waiting for a callback.
func (p *CallbackPrompter) AuthURLs() <-chan string {
	return p.urls
}

func (p *CallbackPrompter) PromptCode(ctx context.Context, authURL, state string) (string, error) {
	codes := make(chan string, 1)

	p.mu.Lock()
	p.pending[state] = codes
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.pending, state)
		p.mu.Unlock()
	}()

	// Drop a stale URL nobody picked up.
	select {
	case <-p.urls:
	default:
	}
	select {
	case p.urls <- authURL:
	default:
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case code := <-codes:
		return code, nil
	}
}

// Deliver hands the code from the provider redirect to the waiting sign-in.
func (p *CallbackPrompter) Deliver(state, code string) error {
	p.mu.Lock()
	codes, ok := p.pending[state]
	p.mu.Unlock()
	if !ok {
		return ErrUnknownState
	}

	select {
	case codes <- code:
		return nil
	default:
		return fmt.Errorf("sign-in for state %q already completed", state)
	}
}
