// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package toast provides the in-memory notification queue every mutating
// flow reports its outcome to. Toasts expire on their own after a fixed
// display window and can be dismissed early.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DisplayWindow is how long a toast stays visible before it removes itself.
const DisplayWindow = 5 * time.Second

// Severity classifies a toast.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
)

// Toast is one transient notification.
type Toast struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier is the write side of the bus, as consumed by flows.
type Notifier interface {
	Show(message string, severity Severity) uuid.UUID
}

// Bus holds the visible toasts in insertion order. Safe for concurrent use.
type Bus struct {
	ttl time.Duration

	mu     sync.Mutex
	toasts []Toast
	timers map[uuid.UUID]*time.Timer
	subs   map[int]func([]Toast)
	nextID int
	closed bool
}

// NewBus returns a bus whose toasts expire after ttl (DisplayWindow if zero).
func NewBus(ttl time.Duration) *Bus {
	if ttl <= 0 {
		ttl = DisplayWindow
	}
	return &Bus{
		ttl:    ttl,
		timers: make(map[uuid.UUID]*time.Timer),
		subs:   make(map[int]func([]Toast)),
	}
}

// Show appends a toast and returns its id without waiting for display.
func (b *Bus) Show(message string, severity Severity) uuid.UUID {
	t := Toast{
		ID:        uuid.New(),
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return t.ID
	}
	b.toasts = append(b.toasts, t)
	b.timers[t.ID] = time.AfterFunc(b.ttl, func() { b.Dismiss(t.ID) })
	b.mu.Unlock()

	b.notify()
	return t.ID
}

// Success shows a success toast.
func (b *Bus) Success(message string) uuid.UUID { return b.Show(message, Success) }

// Error shows an error toast.
func (b *Bus) Error(message string) uuid.UUID { return b.Show(message, Error) }

// Info shows an info toast.
func (b *Bus) Info(message string) uuid.UUID { return b.Show(message, Info) }

// Dismiss removes a toast. Unknown or already removed ids are a no-op.
func (b *Bus) Dismiss(id uuid.UUID) {
	b.mu.Lock()
	idx := -1
	for i, t := range b.toasts {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return
	}
	b.toasts = append(b.toasts[:idx], b.toasts[idx+1:]...)
	if timer, ok := b.timers[id]; ok {
		timer.Stop()
		delete(b.timers, id)
	}
	b.mu.Unlock()

	b.notify()
}

// List returns a copy of the visible toasts, oldest first.
func (b *Bus) List() []Toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Toast(nil), b.toasts...)
}

// Subscribe registers fn to receive the toast list after every change.
// The returned func unsubscribes.
func (b *Bus) Subscribe(fn func([]Toast)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Close stops all expiry timers and drops pending toasts.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, timer := range b.timers {
		timer.Stop()
		delete(b.timers, id)
	}
	b.toasts = nil
	b.closed = true
}

func (b *Bus) notify() {
	b.mu.Lock()
	snapshot := append([]Toast(nil), b.toasts...)
	subs := make([]func([]Toast), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
