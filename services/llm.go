package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/lchelper/hints_api/dto"
)

const (
	geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

	openaiEndpoint = "https://api.openai.com/v1/chat/completions"
	openaiModel    = "gpt-4o-mini"

	systemPrompt = "You are an expert competitive programming assistant that provides helpful hints and explanations."
)

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// ==================== PROMPTS ====================

func buildHintsPrompt(problem dto.Problem, platform string) string {
	var b strings.Builder
	b.WriteString("You are an expert competitive programming assistant. Provide progressive hints for this problem.\n\n")
	fmt.Fprintf(&b, "Problem Title: %s\n", problem.Title)
	fmt.Fprintf(&b, "Platform: %s\n", platform)
	fmt.Fprintf(&b, "Difficulty: %s\n\n", orUnknown(problem.Difficulty))
	b.WriteString("Problem Description:\n")
	b.WriteString(orNotProvided(problem.Description))
	b.WriteString(`

Provide three levels of hints:
1. Gentle Push - A subtle nudge in the right direction
2. Stronger Nudge - More specific guidance
3. Almost There - Very close to the solution

Also provide:
- Topic classification (e.g., Array, Dynamic Programming, Graph, etc.)
- Time complexity analysis
- Space complexity analysis

Format your response as JSON:
{
  "hints": {
    "gentle": "...",
    "stronger": "...",
    "almost": "..."
  },
  "topic": "...",
  "timeComplexity": "...",
  "spaceComplexity": "..."
}`)
	return b.String()
}

func buildExplanationPrompt(problem dto.Problem, platform string) string {
	var b strings.Builder
	b.WriteString("You are an expert competitive programming assistant. Explain this problem in simpler terms.\n\n")
	fmt.Fprintf(&b, "Problem Title: %s\n", problem.Title)
	fmt.Fprintf(&b, "Platform: %s\n", platform)
	fmt.Fprintf(&b, "Difficulty: %s\n\n", orUnknown(problem.Difficulty))
	b.WriteString("Problem Description:\n")
	b.WriteString(orNotProvided(problem.Description))
	b.WriteString(`

Provide a clear, beginner-friendly explanation that:
1. Explains what the problem is asking
2. Breaks down the key concepts
3. Provides examples
4. Suggests the approach

Format your response as JSON:
{
  "explanation": "...",
  "keyConcepts": ["...", "..."],
  "examples": ["...", "..."],
  "approach": "..."
}`)
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

// ==================== RESPONSE PARSING ====================

// parseHintsText extracts the JSON block from a model response. Models
// wrap JSON in prose often enough that plain-text fallback is required.
func parseHintsText(text string) *dto.HintsPayload {
	if block := jsonBlockRe.FindString(text); block != "" {
		var payload dto.HintsPayload
		if err := json.Unmarshal([]byte(block), &payload); err == nil {
			return &payload
		}
	}

	payload := &dto.HintsPayload{
		Topic:           "Unknown",
		TimeComplexity:  "Unknown",
		SpaceComplexity: "Unknown",
	}
	payload.Hints.Gentle = text
	payload.Hints.Stronger = text
	payload.Hints.Almost = text
	return payload
}

func parseExplanationText(text string) *dto.ExplanationPayload {
	if block := jsonBlockRe.FindString(text); block != "" {
		var payload dto.ExplanationPayload
		if err := json.Unmarshal([]byte(block), &payload); err == nil {
			return &payload
		}
	}

	return &dto.ExplanationPayload{Explanation: text}
}

// ==================== GEMINI ====================

type geminiClient struct {
	client *http.Client
	apiKey string
}

func newGeminiClient(client *http.Client, apiKey string) *geminiClient {
	return &geminiClient{client: client, apiKey: apiKey}
}

func (g *geminiClient) Name() string { return "gemini" }

func (g *geminiClient) GenerateHints(ctx context.Context, problem dto.Problem, platform string) (*dto.HintsPayload, error) {
	text, err := g.complete(ctx, buildHintsPrompt(problem, platform))
	if err != nil {
		return nil, err
	}
	return parseHintsText(text), nil
}

func (g *geminiClient) GenerateExplanation(ctx context.Context, problem dto.Problem, platform string) (*dto.ExplanationPayload, error) {
	text, err := g.complete(ctx, buildExplanationPrompt(problem, platform))
	if err != nil {
		return nil, err
	}
	return parseExplanationText(text), nil
}

func (g *geminiClient) complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, geminiEndpoint+"?key="+g.apiKey, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error: %d - %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("gemini response decode failed: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// ==================== OPENAI ====================

type openaiClient struct {
	client *http.Client
	apiKey string
}

func newOpenAIClient(client *http.Client, apiKey string) *openaiClient {
	return &openaiClient{client: client, apiKey: apiKey}
}

func (o *openaiClient) Name() string { return "openai" }

func (o *openaiClient) GenerateHints(ctx context.Context, problem dto.Problem, platform string) (*dto.HintsPayload, error) {
	text, err := o.complete(ctx, buildHintsPrompt(problem, platform))
	if err != nil {
		return nil, err
	}
	return parseHintsText(text), nil
}

func (o *openaiClient) GenerateExplanation(ctx context.Context, problem dto.Problem, platform string) (*dto.ExplanationPayload, error) {
	text, err := o.complete(ctx, buildExplanationPrompt(problem, platform))
	if err != nil {
		return nil, err
	}
	return parseExplanationText(text), nil
}

func (o *openaiClient) complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model": openaiModel,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.7,
		"max_tokens":  2000,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API error: %d - %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("openai response decode failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
