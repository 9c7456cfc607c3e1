package session

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/Alex-deVis/xControl/internal/actionlog"
)

// Registry owns all live sessions, keyed by numeric identifier.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[int]*Session
	inflight map[int]chan struct{}
}

// NewRegistry builds an empty registry around the given collaborators.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:     deps,
		sessions: make(map[int]*Session),
		inflight: make(map[int]chan struct{}),
	}
}

// GetOrCreate returns the live session for identifier, creating it first
// when absent. Concurrent calls for the same identifier start exactly one
// display server and window manager pair; the extra callers block until
// the first one finishes. When the session already exists its dimensions
// stay as they are, even if the requested ones differ.
func (r *Registry) GetOrCreate(identifier, width, height int) (*Session, error) {
	for {
		r.mu.Lock()
		if s, ok := r.sessions[identifier]; ok {
			r.mu.Unlock()
			return s, nil
		}
		if ch, ok := r.inflight[identifier]; ok {
			r.mu.Unlock()
			<-ch
			// The winner either published the session or failed; both
			// cases are settled by going around again.
			continue
		}
		ch := make(chan struct{})
		r.inflight[identifier] = ch
		r.mu.Unlock()

		s, err := r.create(identifier, width, height)

		r.mu.Lock()
		if err == nil {
			r.sessions[identifier] = s
		}
		delete(r.inflight, identifier)
		r.mu.Unlock()
		close(ch)

		return s, err
	}
}

// create starts the display server and window manager for a new session.
// Failure leaves nothing running: a window manager failure stops the
// already-started display server.
func (r *Registry) create(identifier, width, height int) (*Session, error) {
	if identifier < 0 {
		return nil, &SessionStartError{Identifier: identifier, Err: fmt.Errorf("identifier must not be negative")}
	}
	if width <= 0 || height <= 0 {
		return nil, &SessionStartError{Identifier: identifier, Err: fmt.Errorf("screen size %dx%d is not positive", width, height)}
	}

	server, display, err := r.deps.Display.Start(identifier, width, height)
	if err != nil {
		return nil, &SessionStartError{Identifier: identifier, Err: err}
	}
	wmProc, err := r.deps.WM.Start(display)
	if err != nil {
		if stopErr := server.Stop(); stopErr != nil {
			log.Printf("Warning: could not stop display server for session %d: %v", identifier, stopErr)
		}
		return nil, &SessionStartError{Identifier: identifier, Err: err}
	}

	s := &Session{
		identifier:      identifier,
		width:           width,
		height:          height,
		display:         display,
		deps:            r.deps,
		hostWindowTitle: r.deps.Display.HostWindowTitle(identifier),
		server:          server,
		wm:              wmProc,
	}
	s.onClose = func() { r.remove(identifier, s) }
	r.deps.Log.Log(actionlog.ActionSessionCreate, identifier, map[string]interface{}{
		"display": display,
		"width":   width,
		"height":  height,
		"backend": r.deps.Display.Name(),
	})
	return s, nil
}

// Get returns the live session for identifier, if any.
func (r *Registry) Get(identifier int) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[identifier]
	return s, ok
}

// List returns the live sessions ordered by identifier.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].identifier < out[j].identifier })
	return out
}

// Close tears down the session for identifier. The session removes its
// own registry entry while closing.
func (r *Registry) Close(identifier int) error {
	s, ok := r.Get(identifier)
	if !ok {
		return fmt.Errorf("no session %d", identifier)
	}
	return s.Close()
}

// CloseAll tears down every live session.
func (r *Registry) CloseAll() error {
	var errs []error
	for _, s := range r.List() {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session %d: %w", s.identifier, err))
		}
	}
	return errors.Join(errs...)
}

// remove drops the registry entry for s, unless the identifier has been
// reused by a newer session.
func (r *Registry) remove(identifier int, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[identifier]; ok && cur == s {
		delete(r.sessions, identifier)
	}
}
