package api

import (
	"sync"

	"classload/internal/editor"
)

// registry keeps the sessions and editors addressed by the HTTP surface.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*editor.Session
	editors  map[string]*editor.Editor
}

func newRegistry() *registry {
	return &registry{
		sessions: map[string]*editor.Session{},
		editors:  map[string]*editor.Editor{},
	}
}

func (r *registry) addSession(s *editor.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *registry) session(id string) (*editor.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// removeSession forgets a session together with every editor registered on it.
func (r *registry) removeSession(id string) (*editor.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	delete(r.sessions, id)
	for edID, ed := range r.editors {
		if ed.Session() == s {
			delete(r.editors, edID)
		}
	}
	return s, true
}

func (r *registry) addEditor(ed *editor.Editor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.editors {
		if !other.Live() {
			delete(r.editors, id)
		}
	}
	r.editors[ed.ID()] = ed
}

// editor returns a live editor. Editors closed by the session, for example
// because another editor was opened on the same entry, are dropped here.
func (r *registry) editor(id string) (*editor.Editor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ed, ok := r.editors[id]
	if !ok {
		return nil, false
	}
	if !ed.Live() {
		delete(r.editors, id)
		return nil, false
	}
	return ed, true
}

func (r *registry) removeEditor(id string) (*editor.Editor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ed, ok := r.editors[id]
	delete(r.editors, id)
	return ed, ok
}
