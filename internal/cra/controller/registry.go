package controller

import (
	"context"
	"sync"
	"time"
)

// Registry keeps one Controller per record so each record has its own run
// token and state.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*Controller
	// retiring holds removed controllers until their writes land, so a
	// replacement for the same record never writes ahead of them.
	retiring map[string]*Controller
	resolver Resolver
	opts     []Option
}

// NewRegistry creates controllers on demand with the given resolver and options.
func NewRegistry(resolver Resolver, opts ...Option) *Registry {
	return &Registry{
		controllers: make(map[string]*Controller),
		retiring:    make(map[string]*Controller),
		resolver:    resolver,
		opts:        opts,
	}
}

// Get returns the controller for recordID, creating it if needed.
func (r *Registry) Get(recordID string) (*Controller, error) {
	r.mu.Lock()
	if c, ok := r.controllers[recordID]; ok {
		r.mu.Unlock()
		return c, nil
	}
	c, err := New(r.resolver, r.opts...)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.controllers[recordID] = c
	old := r.retiring[recordID]
	r.mu.Unlock()

	if old != nil {
		old.Wait()
	}
	return c, nil
}

// Lookup returns the controller for recordID without creating one.
func (r *Registry) Lookup(recordID string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[recordID]
	return c, ok
}

// Remove clears and forgets the controller for recordID. It returns once the
// controller's pending writes have finished.
func (r *Registry) Remove(recordID string) {
	r.mu.Lock()
	c, ok := r.controllers[recordID]
	if ok {
		delete(r.controllers, recordID)
		r.retiring[recordID] = c
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	c.Clear()
	r.retire(recordID, c)
}

func (r *Registry) retire(recordID string, c *Controller) {
	c.Wait()
	r.mu.Lock()
	if r.retiring[recordID] == c {
		delete(r.retiring, recordID)
	}
	r.mu.Unlock()
}

// RemoveIdleAt forgets controllers untouched for maxIdle as of now and
// returns how many were removed. Held snapshots stay in the record store.
func (r *Registry) RemoveIdleAt(now time.Time, maxIdle time.Duration) int {
	r.mu.Lock()
	idle := make(map[string]*Controller)
	for id, c := range r.controllers {
		if c.idleAt(now, maxIdle) {
			idle[id] = c
			delete(r.controllers, id)
			r.retiring[id] = c
		}
	}
	r.mu.Unlock()
	for id, c := range idle {
		r.retire(id, c)
	}
	return len(idle)
}

// StartCleanup removes idle controllers every interval until ctx is cancelled.
func (r *Registry) StartCleanup(ctx context.Context, interval, maxIdle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RemoveIdleAt(time.Now(), maxIdle)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Len reports how many controllers are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Wait drains background persistence on every live and retiring controller.
func (r *Registry) Wait() {
	r.mu.Lock()
	all := make([]*Controller, 0, len(r.controllers)+len(r.retiring))
	for _, c := range r.controllers {
		all = append(all, c)
	}
	for _, c := range r.retiring {
		all = append(all, c)
	}
	r.mu.Unlock()
	for _, c := range all {
		c.Wait()
	}
}
