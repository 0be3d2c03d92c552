// Package session maps transport endpoints to stable client identities.
//
// A Registry is not safe for concurrent use. The server owns exactly one
// and touches it only from its dispatch goroutine.
package session

import (
	"net/netip"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Registry tracks every known client session.
type Registry struct {
	sessions   map[ID]*Session
	byEndpoint map[netip.AddrPort]ID
	nextSeq    uint64
	newID      func() ID
}

// Cfg configures a Registry.
type Cfg func(*Registry)

// WithIDGenerator overrides how session ids are minted.
func WithIDGenerator(gen func() ID) Cfg {
	return func(r *Registry) {
		r.newID = gen
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(cfgs ...Cfg) *Registry {
	r := &Registry{
		sessions:   make(map[ID]*Session),
		byEndpoint: make(map[netip.AddrPort]ID),
		newID:      uuid.New,
	}
	for _, cfg := range cfgs {
		cfg(r)
	}
	return r
}

// ResolveOrCreate returns the session bound to endpoint, creating one when
// the endpoint has not been seen. created reports whether a session was made.
func (r *Registry) ResolveOrCreate(endpoint netip.AddrPort, now time.Time) (sess *Session, created bool) {
	if id, ok := r.byEndpoint[endpoint]; ok {
		return r.sessions[id], false
	}
	id := r.newID()
	for _, taken := r.sessions[id]; taken; _, taken = r.sessions[id] {
		id = r.newID()
	}
	r.nextSeq++
	sess = &Session{
		ID:         id,
		Endpoint:   endpoint,
		LastActive: now,
		seq:        r.nextSeq,
	}
	r.sessions[id] = sess
	r.byEndpoint[endpoint] = id
	return sess, true
}

// Get returns the session with the given id.
func (r *Registry) Get(id ID) (*Session, error) {
	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// ByEndpoint returns the session bound to endpoint, if any.
func (r *Registry) ByEndpoint(endpoint netip.AddrPort) (*Session, bool) {
	id, ok := r.byEndpoint[endpoint]
	if !ok {
		return nil, false
	}
	return r.sessions[id], true
}

// Touch refreshes the activity timestamp and clears missed pings.
func (r *Registry) Touch(id ID, now time.Time) error {
	sess, err := r.Get(id)
	if err != nil {
		return err
	}
	sess.LastActive = now
	sess.missedPings = 0
	return nil
}

// SetUsername assigns a display name, which must not be held by another session.
func (r *Registry) SetUsername(id ID, username string) error {
	sess, err := r.Get(id)
	if err != nil {
		return err
	}
	if other, ok := r.FindByUsername(username); ok && other.ID != id {
		return ErrUsernameTaken
	}
	sess.Username = username
	return nil
}

// FindByUsername looks a session up by display name.
func (r *Registry) FindByUsername(username string) (*Session, bool) {
	for _, sess := range r.sessions {
		if sess.Username == username {
			return sess, true
		}
	}
	return nil, false
}

// Expire removes the session and its endpoint binding. The returned copy
// still carries the lobby id the session was attached to; the stored
// back-reference is cleared.
func (r *Registry) Expire(id ID) (*Session, error) {
	sess, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	delete(r.sessions, id)
	if r.byEndpoint[sess.Endpoint] == id {
		delete(r.byEndpoint, sess.Endpoint)
	}
	gone := *sess
	sess.LobbyID = ""
	return &gone, nil
}

// Transplant moves the username, lobby and staged board of oldID onto
// newID and discards oldID. The new endpoint keeps its own session id.
func (r *Registry) Transplant(oldID, newID ID) (*Session, error) {
	if oldID == newID {
		return nil, ErrSameSession
	}
	old, err := r.Get(oldID)
	if err != nil {
		return nil, err
	}
	sess, err := r.Get(newID)
	if err != nil {
		return nil, err
	}
	gone, err := r.Expire(old.ID)
	if err != nil {
		return nil, err
	}
	sess.Username = gone.Username
	sess.LobbyID = gone.LobbyID
	sess.Staged = gone.Staged
	return sess, nil
}

// Idle returns the ids of sessions untouched for longer than window, in
// creation order.
func (r *Registry) Idle(now time.Time, window time.Duration) []ID {
	var ids []ID
	for _, sess := range r.All() {
		if now.Sub(sess.LastActive) > window {
			ids = append(ids, sess.ID)
		}
	}
	return ids
}

// MarkPinged records that a ping was sent to every session.
func (r *Registry) MarkPinged() {
	for _, sess := range r.sessions {
		sess.missedPings++
	}
}

// All returns every session in creation order.
func (r *Registry) All() []*Session {
	all := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		all = append(all, sess)
	}
	slices.SortFunc(all, func(a, b *Session) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return all
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}
