package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/voxagent/voxagent/internal/schema"
)

const offlineFallback = "I'm running in offline mode, so I can only help with the time, the date, the weather, and simple math."

// OfflineProvider answers without a network connection. It maps an
// utterance to at most one tool call by keyword matching and phrases the
// tool result as a short spoken reply.
type OfflineProvider struct{}

func NewOfflineProvider() *OfflineProvider { return &OfflineProvider{} }

func (o *OfflineProvider) DefaultModel() string { return "offline" }

func (o *OfflineProvider) Chat(
	ctx context.Context,
	messages []schema.Message,
	tools []schema.ToolSchema,
	_ schema.ChatOptions,
) (schema.LLMResponse, error) {
	if err := ctx.Err(); err != nil {
		return schema.LLMResponse{}, err
	}
	if len(messages) == 0 {
		return stopResponse(offlineFallback), nil
	}

	last := messages[len(messages)-1]
	if last.Role == schema.RoleTool {
		return stopResponse(phraseResults(trailingResults(messages))), nil
	}
	if last.Role != schema.RoleUser {
		return stopResponse(offlineFallback), nil
	}

	available := make(map[string]bool, len(tools))
	for _, t := range tools {
		available[t.Name] = true
	}

	if app, ok := matchOpenApp(last.Content); ok {
		return stopResponse("I would open " + app + ", but launching applications is not supported for safety reasons."), nil
	}

	name, args, ok := matchIntent(last.Content)
	if !ok {
		return stopResponse(offlineFallback), nil
	}
	if !available[name] {
		return stopResponse("I'd need the " + name + " tool for that, and it isn't available right now."), nil
	}
	return schema.LLMResponse{
		ToolCalls: []schema.ToolCallRequest{{
			ID:        "offline-" + uuid.NewString(),
			Name:      name,
			Arguments: args,
		}},
		FinishReason: schema.FinishToolCalls,
	}, nil
}

func stopResponse(text string) schema.LLMResponse {
	return schema.LLMResponse{Content: text, FinishReason: schema.FinishStop}
}

func trailingResults(messages []schema.Message) []schema.Message {
	i := len(messages)
	for i > 0 && messages[i-1].Role == schema.RoleTool {
		i--
	}
	return messages[i:]
}

// ---- intent matching ----

var (
	number        = `(-?\d+(?:\.\d+)?)`
	reBinaryMath  = regexp.MustCompile(number + `\s*(plus|\+|minus|-|times|x|\*|multiplied by|divided by|/|over|to the power of|\^|mod|modulo)\s*` + number)
	reSqrt        = regexp.MustCompile(`square root of\s*` + number)
	reWeatherLoc  = regexp.MustCompile(`(?:weather|temperature|forecast|rain)\b.*?\b(?:in|for|at)\s+([a-z][a-z .'-]*?)\s*[?.!]*$`)
	reSearch      = regexp.MustCompile(`(?:search(?: the web)? for|look up|google)\s+(.+?)\s*[?.!]*$`)
	reGreetName   = regexp.MustCompile(`(?:my name is|i'm|i am)\s+([a-z]+)`)
	reGreeting    = regexp.MustCompile(`^(?:hello|hi|hey|greetings)\b|good (?:morning|afternoon|evening)`)
	reTime        = regexp.MustCompile(`\btime\b`)
	reDate        = regexp.MustCompile(`\b(?:date|today|day)\b`)
	reWeather     = regexp.MustCompile(`\b(?:weather|temperature|rain|sunny|forecast)\b`)
	reOpenApp     = regexp.MustCompile(`^(?:please\s+)?(?:open|launch|start)\s+(?:the\s+)?([a-z]+(?:\s+[a-z]+)??)(?:\s+app)?\s*[?.!]*$`)
	reSystemInfo  = regexp.MustCompile(`\b(?:system info|operating system|what os|which os|my computer)\b`)
	mathOperation = map[string]string{
		"plus": "add", "+": "add",
		"minus": "subtract", "-": "subtract",
		"times": "multiply", "x": "multiply", "*": "multiply", "multiplied by": "multiply",
		"divided by": "divide", "/": "divide", "over": "divide",
		"to the power of": "power", "^": "power",
		"mod": "modulo", "modulo": "modulo",
	}
)

// matchIntent returns the tool to call for an utterance. Rules are checked
// from most to least specific.
func matchIntent(utterance string) (string, map[string]any, bool) {
	text := strings.ToLower(strings.TrimSpace(utterance))
	if text == "" {
		return "", nil, false
	}

	if m := reSqrt.FindStringSubmatch(text); m != nil {
		a, _ := strconv.ParseFloat(m[1], 64)
		return "calculate", map[string]any{"operation": "sqrt", "a": a}, true
	}
	if m := reBinaryMath.FindStringSubmatch(text); m != nil {
		a, _ := strconv.ParseFloat(m[1], 64)
		b, _ := strconv.ParseFloat(m[3], 64)
		return "calculate", map[string]any{"operation": mathOperation[m[2]], "a": a, "b": b}, true
	}
	if m := reSearch.FindStringSubmatch(text); m != nil {
		return "search_web", map[string]any{"query": m[1]}, true
	}
	if reWeather.MatchString(text) {
		args := map[string]any{"location": "your area"}
		if m := reWeatherLoc.FindStringSubmatch(text); m != nil {
			args["location"] = titleCase(m[1])
		}
		return "get_current_weather", args, true
	}
	if reSystemInfo.MatchString(text) {
		return "get_system_info", map[string]any{}, true
	}
	if reTime.MatchString(text) {
		return "get_current_time", map[string]any{}, true
	}
	if reDate.MatchString(text) {
		return "get_current_date", map[string]any{}, true
	}
	if reGreeting.MatchString(text) || reGreetName.MatchString(text) {
		args := map[string]any{}
		if m := reGreetName.FindStringSubmatch(text); m != nil {
			args["name"] = titleCase(m[1])
		}
		return "greet", args, true
	}
	return "", nil, false
}

// matchOpenApp recognises "open spotify" style requests. They are answered
// directly since no tool launches applications.
func matchOpenApp(utterance string) (string, bool) {
	m := reOpenApp.FindStringSubmatch(strings.ToLower(strings.TrimSpace(utterance)))
	if m == nil {
		return "", false
	}
	return titleCase(m[1]), true
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ---- result phrasing ----

var operationWord = map[string]string{
	"add":      "plus",
	"subtract": "minus",
	"multiply": "times",
	"divide":   "divided by",
	"power":    "to the power of",
	"modulo":   "modulo",
}

func phraseResults(results []schema.Message) string {
	var parts []string
	for _, r := range results {
		var payload map[string]any
		if err := json.Unmarshal([]byte(r.Content), &payload); err != nil {
			parts = append(parts, r.Content)
			continue
		}
		parts = append(parts, phraseResult(r.ToolName, payload))
	}
	if len(parts) == 0 {
		return "I'm not sure how to respond to that."
	}
	return strings.Join(parts, " ")
}

func phraseResult(tool string, p map[string]any) string {
	if status, _ := p["status"].(string); status == "error" {
		msg, _ := p["error"].(string)
		if msg == "" {
			msg = "something went wrong"
		}
		return "Sorry, I couldn't do that: " + msg + "."
	}

	switch tool {
	case "calculate":
		op, _ := p["operation"].(string)
		if op == "sqrt" {
			return fmt.Sprintf("The square root of %s is %s", num(p["a"]), num(p["result"]))
		}
		return fmt.Sprintf("%s %s %s is %s", num(p["a"]), operationWord[op], num(p["b"]), num(p["result"]))
	case "get_current_time":
		return fmt.Sprintf("It's %v.", p["time"])
	case "get_current_date":
		return fmt.Sprintf("Today is %v.", p["date"])
	case "get_current_weather":
		unit := "degrees"
		if u, _ := p["unit"].(string); u != "" {
			unit = "degrees " + u
		}
		return fmt.Sprintf("It's %s %s and %v in %v.",
			num(p["temperature"]), unit, strings.ToLower(fmt.Sprint(p["condition"])), p["location"])
	case "greet":
		return fmt.Sprint(p["greeting"])
	case "get_system_info":
		return fmt.Sprintf("You're running %v on %v.", p["system"], p["machine"])
	case "search_web":
		if results, ok := p["results"].([]any); ok && len(results) > 0 {
			if first, ok := results[0].(map[string]any); ok {
				return fmt.Sprintf("I found %d results. The top one is %v.", len(results), first["title"])
			}
		}
		return "I couldn't find anything."
	}
	return "Done."
}

func num(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case nil:
		return "?"
	default:
		return fmt.Sprint(n)
	}
}
