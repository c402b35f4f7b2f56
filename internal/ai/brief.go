// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dalley/internal/apperr"
)

// ErrBriefFailed is the only failure callers see from Generate besides
// input validation.
var ErrBriefFailed = errors.New("Failed to generate brief. Please try again.")

// MaxPromptLength bounds the client description sent to the model.
const MaxPromptLength = 2000

// Brief is a structured project brief proposal.
type Brief struct {
	BriefTitle          string   `json:"briefTitle"`
	Summary             string   `json:"summary"`
	RecommendedServices []string `json:"recommendedServices"`
	EstimatedTimeline   string   `json:"estimatedTimeline"`
	CreativeDirection   string   `json:"creativeDirection"`
}

var briefSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"briefTitle": {Type: TypeString, Description: "A catchy, professional title for the project"},
		"summary":    {Type: TypeString, Description: "A 2-sentence professional summary of the project goals"},
		"recommendedServices": {
			Type:        TypeArray,
			Items:       &Schema{Type: TypeString},
			Description: "List of 3-4 specific agency services needed (e.g. UI Design, Branding, Motion)",
		},
		"estimatedTimeline": {Type: TypeString, Description: "A realistic timeline range (e.g. 4-6 weeks)"},
		"creativeDirection": {Type: TypeString, Description: "A short paragraph describing the suggested visual vibe and aesthetic"},
	},
	Required: []string{"briefTitle", "summary", "recommendedServices", "estimatedTimeline", "creativeDirection"},
}

const briefPrompt = `The user is a potential client describing a design project: %q.
Act as a senior creative director at a high-end design agency called "Aether".
Analyze their request and create a structured project brief proposal.
Return JSON only.`

// BriefGenerator turns a free-text project description into a Brief.
type BriefGenerator struct {
	provider Provider
}

// NewBriefGenerator creates a generator backed by provider.
func NewBriefGenerator(provider Provider) *BriefGenerator {
	return &BriefGenerator{provider: provider}
}

// Generate requests a brief for prompt. Empty or oversized prompts are a
// *apperr.ValidationError; every other failure is logged and reported as
// ErrBriefFailed.
func (g *BriefGenerator) Generate(ctx context.Context, prompt string) (*Brief, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperr.Invalid("prompt", "Describe your project first")
	}
	if len(prompt) > MaxPromptLength {
		return nil, apperr.Invalid("prompt", fmt.Sprintf("Keep the description under %d characters", MaxPromptLength))
	}

	raw, err := g.provider.GenerateJSON(ctx, fmt.Sprintf(briefPrompt, prompt), briefSchema)
	if err != nil {
		slog.Error("brief generation failed", "provider", g.provider.Name(), "error", err)
		return nil, ErrBriefFailed
	}

	var b Brief
	if err := json.Unmarshal([]byte(stripFence(raw)), &b); err != nil {
		slog.Error("brief response is not valid JSON", "provider", g.provider.Name(), "error", err)
		return nil, ErrBriefFailed
	}
	if b.BriefTitle == "" || b.Summary == "" {
		slog.Error("brief response is missing fields", "provider", g.provider.Name())
		return nil, ErrBriefFailed
	}
	return &b, nil
}

// stripFence removes a Markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
