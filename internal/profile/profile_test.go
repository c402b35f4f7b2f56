// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"dalley/internal/apperr"
	"dalley/internal/backend"
	"dalley/internal/backend/memory"
	"dalley/internal/models"
	"dalley/internal/session"
	"dalley/internal/toast"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
	sevs []toast.Severity
}

func (r *recorder) Show(msg string, sev toast.Severity) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	r.sevs = append(r.sevs, sev)
	return uuid.New()
}

func (r *recorder) last() (string, toast.Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return "", ""
	}
	return r.msgs[len(r.msgs)-1], r.sevs[len(r.sevs)-1]
}

// signedIn returns a session store signed in as email, backed by mem.
func signedIn(t *testing.T, mem *memory.Backend, email string) (*session.Store, uuid.UUID) {
	t.Helper()
	id := mem.AddAccount(email, "pw", "")
	s := session.NewStore(mem, mem)
	if err := s.SignIn(context.Background(), email, "pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	mem.ResetCalls()
	return s, id
}

func TestSaveEmptyUsernameMakesNoNetworkCalls(t *testing.T) {
	mem := memory.New()
	sessions, _ := signedIn(t, mem, "u2@b.com")
	f := NewFlow(mem, sessions, &recorder{})

	err := f.Save(context.Background(), Input{Username: "   ", Bio: "hi"})
	var v *apperr.ValidationError
	if !errors.As(err, &v) || !v.Has("username") {
		t.Fatalf("err = %v, want ValidationError on username", err)
	}
	if mem.TotalCalls() != 0 {
		t.Errorf("network calls = %d, want 0", mem.TotalCalls())
	}
}

func TestSaveDuplicateUsername(t *testing.T) {
	mem := memory.New()
	bob := "bob"
	u1 := uuid.New()
	mem.AddProfile(models.Profile{ID: u1, Username: &bob})

	sessions, u2 := signedIn(t, mem, "u2@b.com")
	original := "carol"
	mem.AddProfile(models.Profile{ID: u2, Username: &original})
	toasts := &recorder{}
	f := NewFlow(mem, sessions, toasts)

	err := f.Save(context.Background(), Input{Username: "bob"})
	if !errors.Is(err, apperr.ErrUsernameTaken) {
		t.Fatalf("err = %v, want ErrUsernameTaken", err)
	}
	if mem.Calls("profile_upsert") != 0 {
		t.Error("upsert issued despite conflict")
	}
	if p, _ := mem.Profile(u2); p.DisplayName() != "carol" {
		t.Errorf("U2 profile changed to %q", p.DisplayName())
	}
	if msg, sev := toasts.last(); msg != "Username is already taken" || sev != toast.Error {
		t.Errorf("toast = %q/%s", msg, sev)
	}
}

func TestSaveOwnUsernameAgain(t *testing.T) {
	mem := memory.New()
	sessions, id := signedIn(t, mem, "a@b.com")
	name := "alice"
	mem.AddProfile(models.Profile{ID: id, Username: &name})
	f := NewFlow(mem, sessions, &recorder{})

	if err := f.Save(context.Background(), Input{Username: "alice", Bio: "new bio"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p, _ := mem.Profile(id); p.Bio == nil || *p.Bio != "new bio" {
		t.Errorf("bio = %v", p.Bio)
	}
}

func TestSaveRefreshesSession(t *testing.T) {
	mem := memory.New()
	sessions, id := signedIn(t, mem, "a@b.com")
	toasts := &recorder{}
	f := NewFlow(mem, sessions, toasts)

	err := f.Save(context.Background(), Input{
		Username:  "  newname ",
		Bio:       " maker of HUDs ",
		AvatarURL: "https://cdn.test/a.png",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	cached := sessions.Current().Profile
	if cached == nil || cached.DisplayName() != "newname" {
		t.Fatalf("session profile = %+v", cached)
	}
	if cached.Bio == nil || *cached.Bio != "maker of HUDs" {
		t.Errorf("bio not trimmed: %v", cached.Bio)
	}
	if cached.ID != id {
		t.Errorf("profile id = %s", cached.ID)
	}
	if msg, _ := toasts.last(); msg != "Profile updated successfully" {
		t.Errorf("toast = %q", msg)
	}
	if f.Saving() {
		t.Error("saving flag stuck")
	}
}

func TestSaveNormalisesStructuredErrors(t *testing.T) {
	mem := memory.New()
	sessions, _ := signedIn(t, mem, "a@b.com")
	mem.UpsertErr = &backend.Error{Status: 409, Description: "duplicate key value"}
	toasts := &recorder{}
	f := NewFlow(mem, sessions, toasts)

	if err := f.Save(context.Background(), Input{Username: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if msg, _ := toasts.last(); msg != "duplicate key value" {
		t.Errorf("toast = %q", msg)
	}
}

// staleLookup misses other holders of a username, as a lookup racing a
// concurrent claim would.
type staleLookup struct {
	*memory.Backend
}

func (staleLookup) FindByUsername(context.Context, string) ([]models.Profile, error) {
	return nil, nil
}

func TestSaveConcurrentUsernameClaim(t *testing.T) {
	mem := memory.New()
	bob := "bob"
	mem.AddProfile(models.Profile{ID: uuid.New(), Username: &bob})

	sessions, _ := signedIn(t, mem, "u2@b.com")
	toasts := &recorder{}
	f := NewFlow(staleLookup{mem}, sessions, toasts)

	err := f.Save(context.Background(), Input{Username: "bob"})
	if !errors.Is(err, apperr.ErrUsernameTaken) {
		t.Fatalf("err = %v, want ErrUsernameTaken", err)
	}
	if msg, _ := toasts.last(); msg != "Username is already taken" {
		t.Errorf("toast = %q", msg)
	}
}

func TestSaveToastHidesWrappedTransportErrors(t *testing.T) {
	mem := memory.New()
	sessions, _ := signedIn(t, mem, "a@b.com")
	toasts := &recorder{}
	f := NewFlow(mem, sessions, toasts)

	mem.UpsertErr = fmt.Errorf("upsert profile: %w", &backend.Error{Status: 400, Message: "value too long for type character varying(50)"})
	if err := f.Save(context.Background(), Input{Username: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if msg, _ := toasts.last(); msg != "value too long for type character varying(50)" {
		t.Errorf("toast = %q", msg)
	}

	mem.UpsertErr = fmt.Errorf("upsert profile: %w", errors.New("read tcp: i/o timeout"))
	if err := f.Save(context.Background(), Input{Username: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if msg, _ := toasts.last(); msg != "Failed to update profile" {
		t.Errorf("toast = %q", msg)
	}
}

func TestValidateAvatarURL(t *testing.T) {
	for _, raw := range []string{"ftp://x/a.png", "not a url", "/relative.png"} {
		in := Input{Username: "a", AvatarURL: raw}
		if err := Validate(&in); !apperr.IsValidation(err) {
			t.Errorf("%q: err = %v", raw, err)
		}
	}
}

func TestSignOutFromProfile(t *testing.T) {
	mem := memory.New()
	sessions, _ := signedIn(t, mem, "a@b.com")
	toasts := &recorder{}
	f := NewFlow(mem, sessions, toasts)
	f.Open()

	if err := f.SignOut(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sessions.Current().SignedIn() || f.IsOpen() {
		t.Error("still signed in or open")
	}
	if msg, sev := toasts.last(); msg != "Signed out successfully" || sev != toast.Info {
		t.Errorf("toast = %q/%s", msg, sev)
	}
}
