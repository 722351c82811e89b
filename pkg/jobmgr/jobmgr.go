// Package jobmgr runs named background loops under one parent context and
// tracks which of them are alive.
//
//	jm := jobmgr.New(ctx, log)
//	_ = jm.Start("search-cache-prune", cache.Run)
//	...
//	jm.StopAll()
package jobmgr

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrAlreadyRunning = errors.New("job already running")
	ErrNotRunning     = errors.New("job not running")
)

// Runner is the body of a job. It should return once ctx is done.
type Runner func(ctx context.Context) error

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager starts, stops and tracks jobs. It is safe for concurrent use.
type Manager struct {
	ctx  context.Context
	log  *zap.Logger
	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// New creates a Manager whose jobs are cancelled together with parent.
func New(parent context.Context, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		ctx:  parent,
		log:  log,
		jobs: make(map[string]*job),
	}
}

// Start runs fn in its own goroutine. A job name can only run once at a
// time; it is removed from the manager when fn returns.
func (m *Manager) Start(name string, fn Runner) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[name]; exists {
		return errors.Wrapf(ErrAlreadyRunning, "job %q", name)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer close(j.done)
		defer cancel()

		m.log.Debug("job started", zap.String("job", name))
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Error("job failed", zap.String("job", name), zap.Error(err))
		} else {
			m.log.Debug("job finished", zap.String("job", name))
		}

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()

	return nil
}

// Stop cancels the named job and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()

	if !ok {
		return errors.Wrapf(ErrNotRunning, "job %q", name)
	}
	j.cancel()
	<-j.done
	return nil
}

// StopAll cancels every job and waits for all of them.
func (m *Manager) StopAll() {
	m.mu.Lock()
	for name, j := range m.jobs {
		j.cancel()
		delete(m.jobs, name)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// List returns the names of running jobs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for name := range m.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Status is a one-line summary for logs.
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "no jobs running"
	}
	return "running jobs: " + strings.Join(active, ", ")
}
