package schema

// AgentSettings holds the knobs of one agent loop.
type AgentSettings struct {
	Model         string
	MaxRounds     int
	Temperature   float64
	MaxTokens     int
	MaxHistory    int
	ParallelTools bool
}

func NewAgentSettings(model string, maxRounds int, temperature float64, maxTokens, maxHistory int) AgentSettings {
	return AgentSettings{
		Model:       model,
		MaxRounds:   maxRounds,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		MaxHistory:  maxHistory,
	}
}
