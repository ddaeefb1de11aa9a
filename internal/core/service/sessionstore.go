// Package service provides the request contract services.
package service

import (
	"hash/maphash"
	"sync"
	"sync/atomic"
	"time"
)

// defaultSessionShards is the shard count of a SessionStore (power of 2).
const defaultSessionShards = 16

// HandshakeState is the negotiate state of one connection.
type HandshakeState int

// Negotiate handshake states. Established and Failed are terminal.
const (
	StateNoContext HandshakeState = iota
	StateChallenged
	StateEstablished
	StateFailed
)

// String returns the state name.
func (s HandshakeState) String() string {
	switch s {
	case StateNoContext:
		return "no_context"
	case StateChallenged:
		return "challenged"
	case StateEstablished:
		return "established"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// negotiateSession is the security context of one connection's handshake.
// busy marks the round currently in flight; a connection owns at most one.
type negotiateSession struct {
	ctx     SecurityContext
	created time.Time
	busy    atomic.Bool
	rounds  atomic.Int32
}

// SessionStore maps connection identities to negotiate sessions. It is
// sharded to keep lock contention low under many concurrent connections.
type SessionStore struct {
	shards []*sessionShard
	mask   uint64
	seed   maphash.Seed
}

type sessionShard struct {
	mu    sync.RWMutex
	items map[string]*negotiateSession
}

// NewSessionStore creates a store with shardCount shards. A shardCount that
// is not a power of 2 falls back to the default.
func NewSessionStore(shardCount int) *SessionStore {
	if shardCount <= 0 || shardCount&(shardCount-1) != 0 {
		shardCount = defaultSessionShards
	}

	s := &SessionStore{
		shards: make([]*sessionShard, shardCount),
		mask:   uint64(shardCount - 1),
		seed:   maphash.MakeSeed(),
	}
	for i := range s.shards {
		s.shards[i] = &sessionShard{items: make(map[string]*negotiateSession)}
	}
	return s
}

func (s *SessionStore) shard(connID string) *sessionShard {
	return s.shards[maphash.String(s.seed, connID)&s.mask]
}

// get returns the session of connID.
func (s *SessionStore) get(connID string) (*negotiateSession, bool) {
	sh := s.shard(connID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	sess, ok := sh.items[connID]
	return sess, ok
}

// replace installs sess for connID unless the current session has a round
// in flight, in which case it reports false and leaves the store untouched.
func (s *SessionStore) replace(connID string, sess *negotiateSession) bool {
	sh := s.shard(connID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if old, ok := sh.items[connID]; ok && old.busy.Load() {
		return false
	}
	sh.items[connID] = sess
	return true
}

// remove deletes the session of connID if it is still sess.
func (s *SessionStore) remove(connID string, sess *negotiateSession) {
	sh := s.shard(connID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if cur, ok := sh.items[connID]; ok && cur == sess {
		delete(sh.items, connID)
	}
}

// Delete removes the session of connID and reports whether one existed.
func (s *SessionStore) Delete(connID string) bool {
	sh := s.shard(connID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, ok := sh.items[connID]
	delete(sh.items, connID)
	return ok
}

// Has reports whether connID has a session.
func (s *SessionStore) Has(connID string) bool {
	_, ok := s.get(connID)
	return ok
}

// Count returns the number of sessions across all shards.
func (s *SessionStore) Count() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}
	return n
}

// Sweep removes idle sessions created before cutoff and returns how many
// were removed. Sessions with a round in flight are kept.
func (s *SessionStore) Sweep(cutoff time.Time) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.items {
			if sess.created.Before(cutoff) && !sess.busy.Load() {
				delete(sh.items, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}
