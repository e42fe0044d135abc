package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"blogforge/pkg/config"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/chat/completions"
	requestTimeout = 60 * time.Second

	contentMaxTokens = 2500
	tipsMaxTokens    = 1000
)

// Generator produces blog content for a topic. Calls may be slow or fail;
// callers must not charge credits until a result is durably saved.
type Generator interface {
	GenerateBlogContent(ctx context.Context, topic string) (*Result, error)
}

// Result is a generated blog post plus SEO advice.
type Result struct {
	Content string   `json:"content"`
	SEOTips []string `json:"seo_tips"`
}

// Client calls the OpenAI chat completions API.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiKey:  cfg.OpenAIAPIKey,
		model:   cfg.OpenAIModel,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

const contentSystemPrompt = `You are a professional blog content writer.
Write a high-quality blog post in markdown for the given topic, structured as:
an engaging H1 title, a concise 2-3 sentence introduction, main H2 sections,
H3 subsections where useful, practical tips or examples, and a conclusion.
Aim for 800-1200 words, in a professional but approachable tone.`

const tipsSystemPrompt = `You are an SEO expert.
For the given blog topic, provide 5-7 specific, actionable search engine
optimization tips. Keep each tip concise and concrete.`

func (c *Client) GenerateBlogContent(ctx context.Context, topic string) (*Result, error) {
	content, err := c.complete(ctx, contentSystemPrompt,
		fmt.Sprintf("Write a blog post about %q.", topic), contentMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("content generation failed: %w", err)
	}

	tipsText, err := c.complete(ctx, tipsSystemPrompt,
		fmt.Sprintf("Provide SEO optimization tips for a blog post about %q.", topic), tipsMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("seo tips generation failed: %w", err)
	}

	return &Result{
		Content: content,
		SEOTips: parseTips(tipsText),
	}, nil
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key is not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("API error (%s): %s", result.Error.Type, result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}

	return result.Choices[0].Message.Content, nil
}

var tipPrefix = regexp.MustCompile(`^(\d+\.\s*|-\s*|\*\s*)`)

// parseTips splits the model's tip list into individual tips, dropping
// numbering and noise lines.
func parseTips(text string) []string {
	var tips []string
	for _, line := range strings.Split(text, "\n") {
		tip := tipPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		tip = strings.TrimSpace(tip)
		if len(tip) > 10 {
			tips = append(tips, tip)
		}
	}
	if len(tips) == 0 && strings.TrimSpace(text) != "" {
		tips = []string{strings.TrimSpace(text)}
	}
	return tips
}
