package lavalink

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ErrNoNodeAvailable is returned when no registered node has a session.
var ErrNoNodeAvailable = errors.New("no lavalink node available")

// Registry holds the configured nodes by id and routes player calls to the
// first ready one.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	order []string
}

func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]*Node)}
}

// Add registers n, replacing any node with the same id.
func (r *Registry) Add(n *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.nodes[n.ID()]; !exists {
		r.order = append(r.order, n.ID())
	}
	r.nodes[n.ID()] = n
}

func (r *Registry) Get(id string) (*Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[id]
	return n, ok
}

// Nodes returns every node in registration order.
func (r *Registry) Nodes() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Node, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.nodes[id])
	}
	return out
}

// Best returns the first node that has a session.
func (r *Registry) Best() (*Node, error) {
	for _, n := range r.Nodes() {
		if n.Status() == StatusReady {
			return n, nil
		}
	}
	return nil, ErrNoNodeAvailable
}

// ConnectAll connects every node and returns the combined dial errors.
func (r *Registry) ConnectAll(ctx context.Context) error {
	var err error
	for _, n := range r.Nodes() {
		err = multierr.Append(err, n.Connect(ctx))
	}
	return err
}

// Close disconnects every node.
func (r *Registry) Close() error {
	var err error
	for _, n := range r.Nodes() {
		err = multierr.Append(err, n.Close())
	}
	return err
}

func (r *Registry) LoadTracks(ctx context.Context, identifier string) (*LoadResult, error) {
	n, err := r.Best()
	if err != nil {
		return nil, err
	}
	return n.LoadTracks(ctx, identifier)
}

func (r *Registry) UpdatePlayer(ctx context.Context, guildID string, update PlayerUpdate) error {
	n, err := r.Best()
	if err != nil {
		return err
	}
	return n.UpdatePlayer(ctx, guildID, update)
}

func (r *Registry) DestroyPlayer(ctx context.Context, guildID string) error {
	n, err := r.Best()
	if err != nil {
		return err
	}
	return n.DestroyPlayer(ctx, guildID)
}
