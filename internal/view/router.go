// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package view

import (
	"fmt"
	"sync"
)

// maxHistory bounds the history stack; the oldest entries are dropped first.
const maxHistory = 100

// Router owns one client's ViewState and history. Every state is reachable
// from every other; there is no terminal state.
type Router struct {
	mu      sync.Mutex
	history []State
	pos     int
	scroll  func()
	subs    map[int]func(State)
	nextSub int
}

// NewRouter returns a router whose initial state is parsed from path.
func NewRouter(path string) *Router {
	r := &Router{subs: make(map[int]func(State))}
	r.history = []State{Parse(path)}
	return r
}

// OnScroll installs the scroll-to-top hook run after every navigation.
func (r *Router) OnScroll(fn func()) {
	r.mu.Lock()
	r.scroll = fn
	r.mu.Unlock()
}

// Load resets the router to the state encoded in path, as at startup or
// after a full reload. History is discarded.
func (r *Router) Load(path string) State {
	st := Parse(path)
	r.mu.Lock()
	r.history = []State{st}
	r.pos = 0
	r.mu.Unlock()

	r.notify(st)
	return st
}

// Navigate sets the view, pushes its path onto the history stack and
// scrolls to the top. Forward history beyond the current entry is dropped.
// Sub-selection params are kept only for the templates view.
func (r *Router) Navigate(v View, p Params) (State, error) {
	if !v.Valid() {
		return r.Current(), fmt.Errorf("navigate: unknown view %q", v)
	}

	next := State{View: v}
	if v == Templates {
		next.TemplateID = p.TemplateID
		next.AuthorID = p.AuthorID
	}

	r.mu.Lock()
	if !r.history[r.pos].equal(next) {
		r.history = append(r.history[:r.pos+1], next)
		if len(r.history) > maxHistory {
			r.history = r.history[len(r.history)-maxHistory:]
		}
		r.pos = len(r.history) - 1
	}
	scroll := r.scroll
	r.mu.Unlock()

	if scroll != nil {
		scroll()
	}
	r.notify(next)
	return next, nil
}

// Back moves one entry back in history. Reports false at the oldest entry.
func (r *Router) Back() (State, bool) {
	return r.step(-1)
}

// Forward moves one entry forward in history. Reports false at the newest
// entry.
func (r *Router) Forward() (State, bool) {
	return r.step(1)
}

func (r *Router) step(delta int) (State, bool) {
	r.mu.Lock()
	target := r.pos + delta
	if target < 0 || target >= len(r.history) {
		st := r.history[r.pos]
		r.mu.Unlock()
		return st, false
	}
	r.pos = target
	st := r.history[target]
	r.mu.Unlock()

	r.notify(st)
	return st, true
}

// Current returns the active ViewState.
func (r *Router) Current() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[r.pos]
}

// Path returns the address bar path of the active state.
func (r *Router) Path() string {
	return r.Current().Path()
}

// CanGoBack and CanGoForward expose the history position.
func (r *Router) CanGoBack() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos > 0
}

func (r *Router) CanGoForward() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos < len(r.history)-1
}

// Subscribe registers fn for every state change. The returned func
// unsubscribes.
func (r *Router) Subscribe(fn func(State)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func (r *Router) notify(st State) {
	r.mu.Lock()
	subs := make([]func(State), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}
