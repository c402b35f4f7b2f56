// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai talks to the generative model behind the project brief
// generator. A Provider returns raw model output; BriefGenerator turns it
// into a structured Brief.
package ai

import (
	"context"
)

// Provider is a generative model endpoint.
type Provider interface {
	// Generate sends a prompt and returns the generated text.
	// systemPrompt sets the model's behaviour; userPrompt is the request.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// GenerateJSON asks for a JSON document conforming to schema and
	// returns it undecoded.
	GenerateJSON(ctx context.Context, prompt string, schema *Schema) (string, error)

	// Name returns the provider identifier (e.g. "gemini").
	Name() string
}

// ProviderConfig holds the credentials and settings for a provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Schema is the subset of the OpenAPI schema object accepted as a
// structured-output response schema.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Schema types.
const (
	TypeObject = "OBJECT"
	TypeArray  = "ARRAY"
	TypeString = "STRING"
)
