// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package app is the per-browser state coordinator. A Client owns exactly
// one session store, router, marketplace store, upload flow, profile flow
// and toast bus, wires their notifications together and exposes a typed
// command channel for cross-region triggers. The Hub keeps one Client per
// browser.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"dalley/internal/ai"
	"dalley/internal/apperr"
	"dalley/internal/backend"
	"dalley/internal/errmsg"
	"dalley/internal/marketplace"
	"dalley/internal/profile"
	"dalley/internal/session"
	"dalley/internal/toast"
	"dalley/internal/upload"
	"dalley/internal/view"
)

// LoadingPhase is the cosmetic loading screen shown after a client starts.
// It gates nothing.
const LoadingPhase = 2500 * time.Millisecond

// authorTimeout bounds author card loads triggered by history moves.
const authorTimeout = 10 * time.Second

// Deps are the process-wide collaborators shared by every Client.
type Deps struct {
	Backend backend.Backend
	// AdminID is the moderator identity; uuid.Nil disables moderation.
	AdminID uuid.UUID
	// Briefs is optional; without it brief requests fail generically.
	Briefs *ai.BriefGenerator
	// ToastTTL overrides toast.DisplayWindow (tests).
	ToastTTL time.Duration
	// Loading overrides LoadingPhase (tests).
	Loading time.Duration
}

// Client is one browser's coordinator. Safe for concurrent use.
type Client struct {
	ID string

	Sessions *session.Store
	Router   *view.Router
	Market   *marketplace.Store
	Upload   *upload.Flow
	Profile  *profile.Flow
	Authors  *profile.Authors
	Toasts   *toast.Bus

	briefs    *ai.BriefGenerator
	createdAt time.Time
	loading   time.Duration
	now       func() time.Time

	mu        sync.Mutex
	modal     Modal
	author    *profile.Card
	lastSeen  time.Time
	observers map[int]func(Command)
	nextObs   int
	unsubs    []func()
}

// NewClient creates a coordinator whose initial view is parsed from path.
func NewClient(id, path string, deps Deps) *Client {
	now := time.Now()
	loading := deps.Loading
	if loading == 0 {
		loading = LoadingPhase
	}

	toasts := toast.NewBus(deps.ToastTTL)
	sessions := session.NewStore(deps.Backend.Auth, deps.Backend.Profiles)
	market := marketplace.NewStore(deps.Backend.Templates, sessions, toasts, deps.AdminID)

	c := &Client{
		ID:        id,
		Sessions:  sessions,
		Router:    view.NewRouter(path),
		Market:    market,
		Upload:    upload.New(deps.Backend, sessions, market, toasts),
		Profile:   profile.NewFlow(deps.Backend.Profiles, sessions, toasts),
		Authors:   profile.NewAuthors(deps.Backend.Profiles, deps.Backend.Templates, sessions, toasts, deps.AdminID),
		Toasts:    toasts,
		briefs:    deps.Briefs,
		createdAt: now,
		loading:   loading,
		now:       time.Now,
		lastSeen:  now,
		observers: make(map[int]func(Command)),
	}

	c.unsubs = append(c.unsubs,
		c.Router.Subscribe(c.onView),
		c.Sessions.Subscribe(c.onSession),
		c.Market.Subscribe(c.onMarket),
	)
	return c
}

// Start hydrates the session from a persisted token and loads the
// marketplace. Failures are reported but do not stop the client.
func (c *Client) Start(ctx context.Context, token string) {
	if err := c.Sessions.Hydrate(ctx, token); err != nil {
		slog.Warn("session restore failed", "client", c.ID, "error", err)
	}
	c.Refresh(ctx)
}

// Refresh reloads the marketplace and re-applies the router's
// sub-selection, which may reference a template that was not cached yet.
func (c *Client) Refresh(ctx context.Context) error {
	if err := c.Market.FetchAll(ctx); err != nil {
		c.Toasts.Show(errmsg.From(err, "Failed to load templates"), toast.Error)
		return err
	}
	c.onView(c.Router.Current())
	return nil
}

// Loading reports whether the cosmetic loading phase is still running.
func (c *Client) Loading() bool {
	return c.now().Sub(c.createdAt) < c.loading
}

// Touch records activity for idle eviction.
func (c *Client) Touch() {
	c.mu.Lock()
	c.lastSeen = c.now()
	c.mu.Unlock()
}

// LastSeen returns the time of the last recorded activity.
func (c *Client) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Modal returns the modal currently shown.
func (c *Client) Modal() Modal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal
}

// OnCommand registers fn to observe every accepted command.
func (c *Client) OnCommand(fn func(Command)) func() {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Dispatch validates and applies a command, then notifies observers.
func (c *Client) Dispatch(ctx context.Context, cmd Command) error {
	var err error
	switch cmd := cmd.(type) {
	case OpenAuth:
		c.setModal(ModalAuth, nil)
	case OpenProfile:
		if err = c.Profile.Open(); err != nil {
			c.setModal(ModalAuth, nil)
			return err
		}
		c.setModal(ModalProfile, nil)
	case OpenUpload:
		if err = c.Upload.Open(); err != nil {
			c.Toasts.Show("You must be signed in to upload", toast.Error)
			return err
		}
		c.setModal(ModalUpload, nil)
	case OpenTemplate:
		if _, ok := c.Market.Get(cmd.ID); !ok {
			return apperr.ErrNotFound
		}
		id := cmd.ID
		_, err = c.Router.Navigate(view.Templates, view.Params{TemplateID: &id})
	case OpenAuthor:
		var card *profile.Card
		card, err = c.Authors.Author(ctx, cmd.ID)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				c.Toasts.Show(errmsg.From(err, "Failed to load author"), toast.Error)
			}
			return err
		}
		c.mu.Lock()
		c.author = card
		c.mu.Unlock()
		id := cmd.ID
		_, err = c.Router.Navigate(view.Templates, view.Params{AuthorID: &id})
	case CloseModal:
		c.closeModal()
	default:
		return errors.New("unsupported command")
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	obs := make([]func(Command), 0, len(c.observers))
	for _, fn := range c.observers {
		obs = append(obs, fn)
	}
	c.mu.Unlock()
	for _, fn := range obs {
		fn(cmd)
	}
	return nil
}

// Navigate moves the router, dropping any modal tied to a sub-selection.
func (c *Client) Navigate(v view.View, p view.Params) (view.State, error) {
	return c.Router.Navigate(v, p)
}

// SignIn authenticates from the auth modal.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	if err := c.Sessions.SignIn(ctx, email, password); err != nil {
		c.Toasts.Show(errmsg.From(err, "Authentication failed"), toast.Error)
		return err
	}
	c.Toasts.Show("Welcome back!", toast.Success)
	c.closeModalIf(ModalAuth)
	return nil
}

// SignUp creates an account from the auth modal. A failed initial profile
// is logged and the user stays signed in.
func (c *Client) SignUp(ctx context.Context, email, password, username string) error {
	_, err := c.Sessions.SignUp(ctx, email, password, username)
	var partial *apperr.PartialSuccess
	switch {
	case errors.As(err, &partial):
		slog.Warn("profile creation warning", "client", c.ID, "error", partial.Err)
	case apperr.IsValidation(err):
		return err
	case err != nil:
		c.Toasts.Show(errmsg.From(err, "Authentication failed"), toast.Error)
		return err
	}
	c.Toasts.Show("Account created successfully", toast.Success)
	c.closeModalIf(ModalAuth)
	return nil
}

// SignOut signs out through the profile view.
func (c *Client) SignOut(ctx context.Context) error {
	return c.Profile.SignOut(ctx)
}

// Brief generates a project brief. Failures toast the generic message.
func (c *Client) Brief(ctx context.Context, prompt string) (*ai.Brief, error) {
	if c.briefs == nil {
		c.Toasts.Show(ai.ErrBriefFailed.Error(), toast.Error)
		return nil, ai.ErrBriefFailed
	}
	b, err := c.briefs.Generate(ctx, prompt)
	if err != nil {
		if !apperr.IsValidation(err) {
			c.Toasts.Show(err.Error(), toast.Error)
		}
		return nil, err
	}
	return b, nil
}

// Close releases timers and waits for background writes.
func (c *Client) Close() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()
	for _, fn := range unsubs {
		fn()
	}
	c.Market.Wait()
	c.Toasts.Close()
}

func (c *Client) setModal(m Modal, card *profile.Card) {
	c.mu.Lock()
	c.modal = m
	c.author = card
	c.mu.Unlock()
}

func (c *Client) closeModal() {
	st := c.Router.Current()
	if st.TemplateID != nil || st.AuthorID != nil {
		// onView clears the modal and detail view.
		c.Router.Navigate(view.Templates, view.Params{})
		return
	}
	c.setModal(ModalNone, nil)
	c.Upload.Close()
	c.Profile.Close()
}

func (c *Client) closeModalIf(m Modal) {
	c.mu.Lock()
	if c.modal == m {
		c.modal = ModalNone
	}
	c.mu.Unlock()
}

// onView keeps the detail view and author card in step with the router's
// sub-selection, including back and forward moves.
func (c *Client) onView(st view.State) {
	switch {
	case st.TemplateID != nil:
		if err := c.Market.Select(*st.TemplateID); err != nil {
			c.setModal(ModalNone, nil)
			c.Market.CloseDetail()
			return
		}
		c.setModal(ModalTemplate, nil)
	case st.AuthorID != nil:
		c.Market.CloseDetail()
		c.mu.Lock()
		loaded := c.author != nil && c.author.Profile.ID == *st.AuthorID
		c.mu.Unlock()
		if !loaded {
			ctx, cancel := context.WithTimeout(context.Background(), authorTimeout)
			card, err := c.Authors.Author(ctx, *st.AuthorID)
			cancel()
			if err != nil {
				c.setModal(ModalNone, nil)
				return
			}
			c.setModal(ModalAuthor, card)
			return
		}
		c.mu.Lock()
		c.modal = ModalAuthor
		c.mu.Unlock()
	default:
		c.Market.CloseDetail()
		c.mu.Lock()
		if c.modal == ModalTemplate || c.modal == ModalAuthor {
			c.modal = ModalNone
			c.author = nil
		}
		c.mu.Unlock()
	}
}

// onSession closes identity-gated modals after sign-out.
func (c *Client) onSession(st session.State) {
	if st.SignedIn() {
		return
	}
	c.mu.Lock()
	if c.modal == ModalUpload || c.modal == ModalProfile {
		c.modal = ModalNone
	}
	c.mu.Unlock()
	c.Upload.Close()
	c.Profile.Close()
}

// onMarket drops the template sub-selection when the selected template
// disappears, e.g. after a delete.
func (c *Client) onMarket(st marketplace.State) {
	if st.Selected != nil || st.Loading {
		return
	}
	cur := c.Router.Current()
	if cur.TemplateID == nil {
		return
	}
	if _, ok := c.Market.Get(*cur.TemplateID); ok {
		return
	}
	c.mu.Lock()
	wasOpen := c.modal == ModalTemplate
	c.mu.Unlock()
	if wasOpen {
		c.Router.Navigate(view.Templates, view.Params{})
	}
}
