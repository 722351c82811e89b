// Package supervisor keeps audio nodes connected. It owns the reconnect
// side-table for every node id and turns "transport closed" notifications into
// delayed reconnection attempts with a linear backoff and a hard ceiling.
package supervisor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/keshon/rockola/pkg/backoff"
)

const (
	DefaultMaxAttempts    = 10
	DefaultBaseDelay      = 3 * time.Second
	DefaultConnectTimeout = 10 * time.Second
)

// Connector is the part of a node the supervisor needs: a way to open its
// transport again.
type Connector interface {
	Connect(ctx context.Context) error
}

// LookupFunc resolves a node id against the backend's node registry.
type LookupFunc func(nodeID string) (Connector, bool)

// EventKind tags a node lifecycle event.
type EventKind int

const (
	EventNodeUnavailable EventKind = iota
	EventNodeReady
)

// Event is a node lifecycle notification fed to Dispatch.
type Event struct {
	Kind   EventKind
	NodeID string
}

// Options tune the supervisor. Zero values fall back to the defaults.
type Options struct {
	MaxAttempts    int
	ConnectTimeout time.Duration
	Strategy       backoff.Strategy
	Clock          clock.Clock
	Logger         *zap.Logger

	// OnAbandoned is called once a node has exhausted its retries.
	OnAbandoned func(nodeID string, attempts int)
}

type reconnectState struct {
	attempts int
	timer    *clock.Timer
	gen      uint64
}

// Supervisor schedules reconnects per node id. At most one retry is pending
// for a node at any time.
type Supervisor struct {
	mu        sync.Mutex
	lookup    LookupFunc
	opts      Options
	log       *zap.Logger
	states    map[string]*reconnectState
	abandoned map[string]int
	gen       uint64
	stopped   bool
}

// New creates a Supervisor that finds nodes through lookup.
func New(lookup LookupFunc, opts Options) *Supervisor {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.Strategy == nil {
		opts.Strategy = backoff.NewLinear(DefaultBaseDelay, 0)
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Supervisor{
		lookup:    lookup,
		opts:      opts,
		log:       opts.Logger,
		states:    make(map[string]*reconnectState),
		abandoned: make(map[string]int),
	}
}

// Dispatch routes a lifecycle event to the matching transition.
func (s *Supervisor) Dispatch(ev Event) {
	switch ev.Kind {
	case EventNodeUnavailable:
		s.NodeUnavailable(ev.NodeID)
	case EventNodeReady:
		s.NodeReady(ev.NodeID)
	default:
		s.log.Warn("unknown node event", zap.Int("kind", int(ev.Kind)), zap.String("node", ev.NodeID))
	}
}

// NodeUnavailable records a closed transport and schedules the next attempt.
func (s *Supervisor) NodeUnavailable(nodeID string) {
	s.schedule(nodeID)
}

// NodeReady clears every trace of a node's reconnect history.
func (s *Supervisor) NodeReady(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.states[nodeID]; ok {
		if st.timer != nil {
			st.timer.Stop()
		}
		delete(s.states, nodeID)
		s.log.Info("node reconnected, backoff reset", zap.String("node", nodeID), zap.Int("attempts", st.attempts))
	}
	delete(s.abandoned, nodeID)
}

// Attempts returns how many reconnects have been scheduled since the last ready.
func (s *Supervisor) Attempts(nodeID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[nodeID]; ok {
		return st.attempts
	}
	return 0
}

// Pending reports whether a retry timer is armed for the node.
func (s *Supervisor) Pending(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[nodeID]
	return ok && st.timer != nil
}

// Abandoned reports whether the node gave up reconnecting.
func (s *Supervisor) Abandoned(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.abandoned[nodeID]
	return ok
}

// AbandonedNodes lists abandoned node ids, sorted.
func (s *Supervisor) AbandonedNodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.abandoned))
	for id := range s.abandoned {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Stop cancels every pending retry. Later events are ignored.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for _, st := range s.states {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
	}
}

func (s *Supervisor) schedule(nodeID string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}

	st, ok := s.states[nodeID]
	if !ok {
		st = &reconnectState{}
		s.states[nodeID] = st
	}

	if st.attempts >= s.opts.MaxAttempts {
		attempts := st.attempts
		_, already := s.abandoned[nodeID]
		s.abandoned[nodeID] = attempts
		s.mu.Unlock()

		s.log.Error("max reconnect attempts reached, giving up", zap.String("node", nodeID), zap.Int("attempts", attempts))
		if !already && s.opts.OnAbandoned != nil {
			s.opts.OnAbandoned(nodeID, attempts)
		}
		return
	}

	st.attempts++
	delay := s.opts.Strategy.Delay(st.attempts)
	if st.timer != nil {
		st.timer.Stop()
	}
	s.gen++
	gen := s.gen
	st.gen = gen
	st.timer = s.opts.Clock.AfterFunc(delay, func() { s.fire(nodeID, gen) })
	attempts := st.attempts
	s.mu.Unlock()

	s.log.Warn("scheduling node reconnect",
		zap.String("node", nodeID),
		zap.Int("attempt", attempts),
		zap.Duration("delay", delay),
	)
}

func (s *Supervisor) fire(nodeID string, gen uint64) {
	s.mu.Lock()
	st, ok := s.states[nodeID]
	if s.stopped || !ok || st.gen != gen {
		s.mu.Unlock()
		return
	}
	st.timer = nil
	s.mu.Unlock()

	node, found := s.lookup(nodeID)
	if !found {
		s.log.Error("node not found in registry, reconnect aborted", zap.String("node", nodeID))
		return
	}

	s.log.Info("reconnecting node", zap.String("node", nodeID))
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ConnectTimeout)
	err := node.Connect(ctx)
	cancel()

	if err == nil {
		return
	}

	// a failed dial emits no close event, so it counts as the next attempt
	s.log.Error("node reconnect failed", zap.String("node", nodeID), zap.Error(err))
	s.schedule(nodeID)
}
