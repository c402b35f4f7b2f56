// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package app

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultIdle is how long an inactive client stays in memory.
const DefaultIdle = 30 * time.Minute

// cleanupInterval is how often idle clients are evicted.
const cleanupInterval = time.Minute

// TokenStore persists each client's identity token across evictions and
// restarts.
type TokenStore interface {
	Load(ctx context.Context, clientID string) (string, error)
	Save(ctx context.Context, clientID, token string, expires time.Time) error
	Delete(ctx context.Context, clientID string) error
}

// clientSink binds a TokenStore to one client id.
type clientSink struct {
	store TokenStore
	id    string
}

func (s clientSink) StoreToken(ctx context.Context, token string, expires time.Time) error {
	return s.store.Save(ctx, s.id, token, expires)
}

func (s clientSink) ClearToken(ctx context.Context) error {
	return s.store.Delete(ctx, s.id)
}

type hubEntry struct {
	client *Client
	start  sync.Once
}

// Hub keeps one Client per browser and evicts idle ones. It starts a
// background goroutine; call Stop to end it.
type Hub struct {
	deps   Deps
	tokens TokenStore
	idle   time.Duration

	mu      sync.Mutex
	clients map[string]*hubEntry
	stopCh  chan struct{}
	stopped bool
}

// NewHub creates a hub. tokens may be nil, in which case sessions do not
// survive eviction. idle <= 0 means DefaultIdle.
func NewHub(deps Deps, tokens TokenStore, idle time.Duration) *Hub {
	if idle <= 0 {
		idle = DefaultIdle
	}
	h := &Hub{
		deps:    deps,
		tokens:  tokens,
		idle:    idle,
		clients: make(map[string]*hubEntry),
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.cleanup()
			case <-h.stopCh:
				return
			}
		}
	}()

	return h
}

// Client returns the coordinator for id, creating and starting it when
// absent. path seeds the initial view of a new client.
func (h *Hub) Client(ctx context.Context, id, path string) *Client {
	h.mu.Lock()
	e, ok := h.clients[id]
	if !ok {
		e = &hubEntry{client: NewClient(id, path, h.deps)}
		h.clients[id] = e
	}
	h.mu.Unlock()

	e.start.Do(func() { h.start(ctx, e.client) })
	e.client.Touch()
	return e.client
}

// Lookup returns an existing coordinator without creating one.
func (h *Hub) Lookup(id string) (*Client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.clients[id]
	if !ok {
		return nil, false
	}
	return e.client, true
}

func (h *Hub) start(ctx context.Context, c *Client) {
	var token string
	if h.tokens != nil {
		c.Sessions.SetTokenSink(clientSink{store: h.tokens, id: c.ID})
		t, err := h.tokens.Load(ctx, c.ID)
		if err != nil {
			slog.Warn("persisted token lookup failed", "client", c.ID, "error", err)
		}
		token = t
	}
	c.Start(ctx, token)
	slog.Debug("client started", "client", c.ID, "signed_in", c.Sessions.Current().SignedIn())
}

// Remove drops and closes a client.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	e, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		e.client.Close()
	}
}

// Len returns the number of live clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Stop ends the cleanup goroutine and closes every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	close(h.stopCh)
	entries := h.clients
	h.clients = make(map[string]*hubEntry)
	h.mu.Unlock()

	for _, e := range entries {
		e.client.Close()
	}
}

// cleanup evicts clients idle for longer than h.idle.
func (h *Hub) cleanup() {
	cutoff := time.Now().Add(-h.idle)

	h.mu.Lock()
	var evicted []*Client
	for id, e := range h.clients {
		if e.client.LastSeen().Before(cutoff) {
			evicted = append(evicted, e.client)
			delete(h.clients, id)
		}
	}
	h.mu.Unlock()

	for _, c := range evicted {
		c.Close()
	}
	if len(evicted) > 0 {
		slog.Debug("evicted idle clients", "count", len(evicted))
	}
}
