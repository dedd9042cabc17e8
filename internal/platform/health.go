package platform

import (
	"sync"
	"time"
)

// PeerStatus is the health gate's per-peer record: whether the peer is
// currently considered reachable, and when that verdict was last updated.
type PeerStatus struct {
	Up      bool
	Updated time.Time
}

// Gate is the process-wide, per-peer circuit breaker described by the
// service-health gate: one mutex guards a map from peer name to PeerStatus.
// All outbound-calling services construct exactly one Gate at start-up and
// thread it into every client that talks to a dependency.
type Gate struct {
	mu    sync.Mutex
	peers map[string]*PeerStatus
}

// NewGate builds a Gate with every named peer initialised up=true, as
// mandated at process start.
func NewGate(peerNames ...string) *Gate {
	g := &Gate{peers: make(map[string]*PeerStatus, len(peerNames))}
	now := time.Now()
	for _, name := range peerNames {
		g.peers[name] = &PeerStatus{Up: true, Updated: now}
	}
	return g
}

// statusFor returns the record for peer, lazily creating it up=true if this
// is the first time the gate has heard of it.
func (g *Gate) statusFor(peer string) *PeerStatus {
	s, ok := g.peers[peer]
	if !ok {
		s = &PeerStatus{Up: true, Updated: time.Now()}
		g.peers[peer] = s
	}
	return s
}

// IsUp reports the peer's current up/down verdict.
func (g *Gate) IsUp(peer string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusFor(peer).Up
}

// ShouldProbe reports whether the peer is down and has been down for at
// least cooldown, i.e. whether a recovery probe is due.
func (g *Gate) ShouldProbe(peer string, cooldown time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.statusFor(peer)
	return !s.Up && time.Since(s.Updated) >= cooldown
}

// MarkUp flips the peer to up, stamping the update time.
func (g *Gate) MarkUp(peer string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.statusFor(peer)
	s.Up = true
	s.Updated = time.Now()
}

// MarkDown flips the peer to down, stamping the update time. Subsequent
// calls short-circuit until ShouldProbe allows a recovery attempt.
func (g *Gate) MarkDown(peer string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.statusFor(peer)
	s.Up = false
	s.Updated = time.Now()
}

// Snapshot returns a copy of the peer's current status.
func (g *Gate) Snapshot(peer string) PeerStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.statusFor(peer)
}
