// Package genai is a small client for the Gemini generateContent REST API.
package genai

import (
	"context"
	"fmt"
	"time"

	"github.com/poppys-produce/backend/config"
	"github.com/poppys-produce/backend/pkg/apperr"
	"github.com/poppys-produce/backend/pkg/httpx"
)

const baseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Generator produces a completion for a prompt. The production implementation
// calls Gemini; tests substitute a fake.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client talks to the Gemini API over REST.
type Client struct {
	apiKey string
	model  string
}

// NewClient builds a Client from GEMINI_API_KEY / GEMINI_MODEL.
func NewClient() *Client {
	return &Client{
		apiKey: config.GeminiAPIKey(),
		model:  config.GeminiModel(),
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends prompt to the model and returns the first candidate's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", apperr.Internal("assistant is not configured", fmt.Errorf("genai: GEMINI_API_KEY is empty"))
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", baseURL, c.model, c.apiKey)

	resp, err := httpx.Post(url).
		WithContext(ctx).
		Body(generateRequest{
			Contents: []content{{Parts: []part{{Text: prompt}}}},
		}).
		Timeout(20 * time.Second).
		Retry(2, time.Second).
		Send()
	if err != nil {
		return "", apperr.Internal("assistant request failed", err)
	}
	if err := resp.Throw(); err != nil {
		return "", apperr.Internal("assistant request failed", err)
	}

	var out generateResponse
	if err := resp.JSON(&out); err != nil {
		return "", apperr.Internal("assistant response malformed", err)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", apperr.Internal("assistant returned no content", nil)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
