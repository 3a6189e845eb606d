package tools

import "errors"

// RegistryBuilder accumulates tools during the construction phase.
// Call Build() to produce a Registry ready for use.
type RegistryBuilder struct {
	defs []ToolDefinition
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{}
}

// WithTool adds a tool and returns the builder, enabling chaining.
func (b *RegistryBuilder) WithTool(def ToolDefinition) *RegistryBuilder {
	b.defs = append(b.defs, def)
	return b
}

// WithTools adds several tools in order.
func (b *RegistryBuilder) WithTools(defs ...ToolDefinition) *RegistryBuilder {
	b.defs = append(b.defs, defs...)
	return b
}

// Build registers the accumulated tools in the order they were added. Every
// registration failure is reported; the registry still holds the tools that
// were accepted.
func (b *RegistryBuilder) Build() (*Registry, error) {
	reg := NewRegistry()
	var errs []error
	for _, def := range b.defs {
		if err := reg.Register(def); err != nil {
			errs = append(errs, err)
		}
	}
	return reg, errors.Join(errs...)
}
