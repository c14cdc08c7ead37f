package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultModelURL = "https://api-inference.huggingface.co/models/microsoft/DialoGPT-large"
	marker          = "Your response:"
	maxReplyLen     = 150
)

// Client talks to the hosted text-generation inference API. The model
// parameter of the Provider interface is ignored; the model is part of the URL.
type Client struct {
	APIKey   string
	ModelURL string
	http     *http.Client
}

func New(apiKey, modelURL string) *Client {
	if modelURL == "" {
		modelURL = DefaultModelURL
	}
	return &Client{APIKey: apiKey, ModelURL: modelURL, http: &http.Client{Timeout: 20 * time.Second}}
}

func (c *Client) Complete(ctx context.Context, model string, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, model, "", prompt)
}

func (c *Client) CompleteWithSystem(ctx context.Context, _ string, systemPrompt string, prompt string) (string, error) {
	input := firstSentence(systemPrompt) + " Recent chat:\n" + prompt + "\n" + marker
	payload := map[string]any{
		"inputs": strings.TrimSpace(input),
		"parameters": map[string]any{
			"max_length":  50,
			"temperature": 0.9,
			"do_sample":   true,
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ModelURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("huggingface status %d", resp.StatusCode)
	}
	var out []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", nil
	}
	return extractReply(out[0].GeneratedText), nil
}

func firstSentence(s string) string {
	if i := strings.Index(s, "."); i >= 0 {
		return s[:i+1]
	}
	return s
}

// extractReply keeps what the model wrote after the marker, first line only.
func extractReply(full string) string {
	if i := strings.LastIndex(full, marker); i >= 0 {
		full = full[i+len(marker):]
	}
	full = strings.TrimSpace(full)
	if i := strings.IndexByte(full, '\n'); i >= 0 {
		full = full[:i]
	}
	if r := []rune(full); len(r) > maxReplyLen {
		full = string(r[:maxReplyLen])
	}
	return strings.TrimSpace(full)
}
