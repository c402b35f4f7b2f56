// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"dalley/internal/apperr"
)

type stubProvider struct {
	out    string
	err    error
	prompt string
}

func (s *stubProvider) Generate(context.Context, string, string) (string, error) { return s.out, s.err }

func (s *stubProvider) GenerateJSON(_ context.Context, prompt string, _ *Schema) (string, error) {
	s.prompt = prompt
	return s.out, s.err
}

func (s *stubProvider) Name() string { return "stub" }

const validBrief = `{"briefTitle":"Project Neon","summary":"A HUD refresh. Built for speed.",
"recommendedServices":["UI Design","Motion"],"estimatedTimeline":"4-6 weeks","creativeDirection":"Dark glass."}`

func TestBriefGenerate_Success(t *testing.T) {
	stub := &stubProvider{out: validBrief}
	g := NewBriefGenerator(stub)

	b, err := g.Generate(context.Background(), "  a HUD for a racing game ")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if b.BriefTitle != "Project Neon" || len(b.RecommendedServices) != 2 {
		t.Errorf("brief = %+v", b)
	}
	if !strings.Contains(stub.prompt, `"a HUD for a racing game"`) {
		t.Errorf("prompt did not quote the request: %q", stub.prompt)
	}
}

func TestBriefGenerate_FencedJSON(t *testing.T) {
	g := NewBriefGenerator(&stubProvider{out: "```json\n" + validBrief + "\n```"})
	if _, err := g.Generate(context.Background(), "menu"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestBriefGenerate_EmptyPrompt(t *testing.T) {
	stub := &stubProvider{out: validBrief}
	_, err := NewBriefGenerator(stub).Generate(context.Background(), "   ")
	if !apperr.IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if stub.prompt != "" {
		t.Error("provider called for empty prompt")
	}
}

func TestBriefGenerate_FailuresAreGeneric(t *testing.T) {
	tests := []struct {
		name string
		stub *stubProvider
	}{
		{"provider error", &stubProvider{err: errors.New("gemini API error (status 500)")}},
		{"not json", &stubProvider{out: "sorry, I cannot"}},
		{"missing fields", &stubProvider{out: `{"briefTitle":""}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBriefGenerator(tt.stub).Generate(context.Background(), "shop")
			if !errors.Is(err, ErrBriefFailed) {
				t.Errorf("err = %v", err)
			}
			if err.Error() != "Failed to generate brief. Please try again." {
				t.Errorf("message = %q", err.Error())
			}
		})
	}
}

func TestBriefGenerate_EndToEnd(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, geminiSuccessBody(validBrief))
	defer srv.Close()

	g := NewBriefGenerator(NewGemini(ProviderConfig{APIKey: "k", BaseURL: srv.URL}))
	b, err := g.Generate(context.Background(), "inventory grid")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if b.EstimatedTimeline != "4-6 weeks" {
		t.Errorf("timeline = %q", b.EstimatedTimeline)
	}
}
