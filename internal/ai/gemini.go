// Package ai wraps the language model behind two narrow capabilities:
// parsing chat commands into structured intents, and composing the
// Indonesian chat replies. Composition always has a deterministic
// template fallback; parsing fails explicitly.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ppob-service/internal/resilience"
	"ppob-service/internal/util"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrParse reports that the model call failed or returned output that
// could not be interpreted. Callers render a generic user-facing message.
var ErrParse = errors.New("ai: failed to parse command")

// GeminiClient is the wire-level client for the generateContent REST API.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	retryCfg   resilience.Config
	logger     *zap.Logger
}

// NewGeminiClient creates a Gemini REST client
func NewGeminiClient(baseURL, apiKey string) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         resilience.NewCircuitBreaker("gemini"),
		retryCfg:   resilience.DefaultConfig,
		logger:     util.GetLogger(),
	}
}

type generateRequest struct {
	SystemInstruction *content          `json:"system_instruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate runs one generateContent call and returns the first candidate
// text. jsonOutput constrains the model to emit application/json.
func (c *GeminiClient) Generate(ctx context.Context, model, systemPrompt, userText string, jsonOutput bool) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: userText}}}},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	if jsonOutput {
		reqBody.GenerationConfig = &generationConfig{ResponseMIMEType: "application/json"}
	}

	var out generateResponse
	_, err := c.cb.Execute(func() (interface{}, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.retryCfg, func() error {
			body, err := json.Marshal(reqBody)
			if err != nil {
				return fmt.Errorf("marshal request: %w", err)
			}

			url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("call model api: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("model api returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&out)
		})
		return nil, innerErr
	})
	if err != nil {
		return "", err
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty model response")
	}

	return out.Candidates[0].Content.Parts[0].Text, nil
}
