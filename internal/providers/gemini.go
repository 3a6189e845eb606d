package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxagent/voxagent/internal/schema"
)

const geminiDefaultBase = "https://generativelanguage.googleapis.com"

// GeminiProvider talks to the Gemini generateContent API. Gemini has no
// tool call IDs, so the adapter synthesizes them on the way in and maps
// results back to function names on the way out.
type GeminiProvider struct {
	apiKey       string
	apiBase      string
	defaultModel string
	client       *http.Client
}

func NewGeminiProvider(apiKey, apiBase, defaultModel string, timeout time.Duration) *GeminiProvider {
	if apiBase == "" {
		apiBase = geminiDefaultBase
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &GeminiProvider{
		apiKey:       apiKey,
		apiBase:      strings.TrimRight(apiBase, "/"),
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: timeout},
	}
}

func (g *GeminiProvider) DefaultModel() string { return g.defaultModel }

func (g *GeminiProvider) Chat(
	ctx context.Context,
	messages []schema.Message,
	tools []schema.ToolSchema,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	model := opts.Model
	if model == "" {
		model = g.defaultModel
	}
	model = strings.TrimPrefix(model, "gemini/")

	payload := geminiRequest{Contents: toGeminiContents(messages)}
	if sys := systemText(messages); sys != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: sys}}}
	}
	if len(tools) > 0 {
		payload.Tools = []geminiTool{{FunctionDeclarations: toGeminiFunctions(tools)}}
	}
	payload.GenerationConfig = &geminiGenerationConfig{
		Temperature:     opts.Temperature,
		MaxOutputTokens: opts.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.apiBase, url.PathEscape(model), url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return schema.LLMResponse{}, classifyStatus(resp.StatusCode, raw)
	}

	var response geminiResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return schema.LLMResponse{}, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	if len(response.Candidates) == 0 {
		return schema.LLMResponse{}, fmt.Errorf("%w: gemini empty response", ErrBadResponse)
	}

	cand := response.Candidates[0]
	text, calls := extractGeminiParts(cand.Content.Parts)
	finish := schema.FinishStop
	switch {
	case len(calls) > 0:
		finish = schema.FinishToolCalls
	case cand.FinishReason == "SAFETY":
		finish = schema.FinishContentFilter
	case cand.FinishReason == "MAX_TOKENS":
		finish = schema.FinishLength
	}

	return schema.LLMResponse{
		Content:      text,
		ToolCalls:    calls,
		FinishReason: finish,
		Usage: map[string]int{
			"input_tokens":  response.UsageMetadata.PromptTokenCount,
			"output_tokens": response.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}

// ---- wire types ----

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	Tools             []geminiTool            `json:"tools,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiFunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string                `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall   `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResult `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type geminiFunctionResult struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// ---- conversion ----

func systemText(messages []schema.Message) string {
	var parts []string
	for _, m := range messages {
		if m.Role == schema.RoleSystem && m.Content != "" {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func toGeminiFunctions(tools []schema.ToolSchema) []geminiFunctionDeclaration {
	out := make([]geminiFunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		out = append(out, geminiFunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.JSONSchema(),
		})
	}
	return out
}

// toGeminiContents maps history onto Gemini turns. Consecutive tool results
// are merged into one user turn so each functionCall batch is answered by a
// single functionResponse batch.
func toGeminiContents(messages []schema.Message) []geminiContent {
	var out []geminiContent
	toolNameByID := make(map[string]string)
	for _, m := range messages {
		switch m.Role {
		case schema.RoleSystem:
			continue
		case schema.RoleTool:
			name := m.ToolName
			if name == "" {
				name = toolNameByID[m.ToolCallID]
			}
			part := geminiPart{FunctionResponse: &geminiFunctionResult{
				Name:     name,
				Response: toolResponse(m.Content),
			}}
			if n := len(out); n > 0 && out[n-1].Role == "user" && isFunctionResponses(out[n-1].Parts) {
				out[n-1].Parts = append(out[n-1].Parts, part)
				continue
			}
			out = append(out, geminiContent{Role: "user", Parts: []geminiPart{part}})
		default:
			parts := []geminiPart{}
			if m.Content != "" {
				parts = append(parts, geminiPart{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				toolNameByID[tc.ID] = tc.Name
				args := tc.Arguments
				if args == nil {
					args = map[string]any{}
				}
				parts = append(parts, geminiPart{FunctionCall: &geminiFunctionCall{Name: tc.Name, Args: args}})
			}
			if len(parts) == 0 {
				continue
			}
			out = append(out, geminiContent{Role: mapRole(m.Role), Parts: parts})
		}
	}
	return out
}

func isFunctionResponses(parts []geminiPart) bool {
	for _, p := range parts {
		if p.FunctionResponse == nil {
			return false
		}
	}
	return len(parts) > 0
}

// toolResponse passes JSON object results through as structured data and
// wraps anything else.
func toolResponse(content string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil && obj != nil {
		return obj
	}
	return map[string]any{"result": content}
}

func mapRole(role string) string {
	switch role {
	case schema.RoleAssistant, "model":
		return "model"
	default:
		return "user"
	}
}

func extractGeminiParts(parts []geminiPart) (string, []schema.ToolCallRequest) {
	var buf strings.Builder
	var calls []schema.ToolCallRequest
	for _, part := range parts {
		if part.Text != "" {
			buf.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			calls = append(calls, schema.ToolCallRequest{
				ID:        "call-" + uuid.NewString(),
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}
	return buf.String(), calls
}
