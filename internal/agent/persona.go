package agent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt is used when neither the config nor the workspace
// provides one.
const DefaultSystemPrompt = "You are a helpful, friendly AI voice assistant. " +
	"You can have natural conversations and use available tools when needed. " +
	"Keep your responses concise and conversational since they will be spoken aloud. " +
	"When using tools, explain what you're doing in a natural way."

// PersonaFile is the workspace file that overrides the system prompt.
const PersonaFile = "PERSONA.md"

// personaMeta is the YAML frontmatter of PERSONA.md.
type personaMeta struct {
	Name  string `yaml:"name"`
	Style string `yaml:"style"`
}

// Persona is the assistant's identity: the pinned system prompt of every
// session.
type Persona struct {
	Name   string
	Style  string
	Prompt string
}

// LoadPersona reads PERSONA.md from workspace. The markdown body replaces
// fallback; frontmatter fields are rendered into the prompt. A missing file
// yields a persona built from fallback alone.
func LoadPersona(workspace, fallback string) (Persona, error) {
	p := Persona{Prompt: strings.TrimSpace(fallback)}
	if p.Prompt == "" {
		p.Prompt = DefaultSystemPrompt
	}
	if workspace == "" {
		return p, nil
	}

	data, err := os.ReadFile(filepath.Join(workspace, PersonaFile))
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read persona: %w", err)
	}

	meta, body, err := splitFrontmatter(string(data))
	if err != nil {
		return p, fmt.Errorf("parse %s frontmatter: %w", PersonaFile, err)
	}
	p.Name = meta.Name
	p.Style = meta.Style
	if body != "" {
		p.Prompt = body
	}
	return p, nil
}

// SystemPrompt renders the persona as a system message.
func (p Persona) SystemPrompt() string {
	parts := make([]string, 0, 3)
	if p.Name != "" {
		parts = append(parts, fmt.Sprintf("Your name is %s.", p.Name))
	}
	parts = append(parts, p.Prompt)
	if p.Style != "" {
		parts = append(parts, "Speaking style: "+p.Style)
	}
	return strings.Join(parts, "\n\n")
}

// splitFrontmatter separates a leading --- ... --- YAML block from markdown.
func splitFrontmatter(content string) (personaMeta, string, error) {
	var meta personaMeta
	content = strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(content, "---") {
		return meta, strings.TrimSpace(content), nil
	}
	rest := content[3:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return meta, strings.TrimSpace(content), nil
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return meta, "", err
	}
	return meta, strings.TrimSpace(rest[end+4:]), nil
}
