package domain

import (
	"encoding/json"
)

// ToolTypeFunction is the only tool type the chat API currently emits.
const ToolTypeFunction = "function"

// Tool declares a capability the model may ask the caller to execute.
// Parameters is a JSON Schema object; its shape is validated remotely.
type Tool struct {
	// Name identifies the tool and is the key under which it is registered.
	Name string `json:"name" mapstructure:"name" yaml:"name"`

	// Description tells the model when to use the tool.
	Description string `json:"description" mapstructure:"description" yaml:"description"`

	// Parameters is the JSON Schema of the tool arguments.
	Parameters map[string]any `json:"parameters,omitempty" mapstructure:"parameters" yaml:"parameters"`
}

type functionEnvelope struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Arguments   *string        `json:"arguments,omitempty"`
}

// MarshalJSON renders the declaration in the function-tool envelope
// ({"type":"function","function":{...}}).
func (t Tool) MarshalJSON() ([]byte, error) {
	return json.Marshal(functionEnvelope{
		Type: ToolTypeFunction,
		Function: functionSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		},
	})
}

// UnmarshalJSON accepts both the envelope form and a flat
// {name, description, parameters} object.
func (t *Tool) UnmarshalJSON(data []byte) error {
	var env functionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Function.Name != "" {
		t.Name = env.Function.Name
		t.Description = env.Function.Description
		t.Parameters = env.Function.Parameters
		return nil
	}

	var flat functionSpec
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	t.Name = flat.Name
	t.Description = flat.Description
	t.Parameters = flat.Parameters
	return nil
}

// ToolCall is a model request to run a named tool. Arguments is the raw
// JSON string exactly as the model produced it.
type ToolCall struct {
	ID        string
	Type      string
	Name      string
	Arguments string
}

type toolCallWire struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

// MarshalJSON implements json.Marshaler.
func (c ToolCall) MarshalJSON() ([]byte, error) {
	typ := c.Type
	if typ == "" {
		typ = ToolTypeFunction
	}
	args := c.Arguments
	return json.Marshal(toolCallWire{
		ID:   c.ID,
		Type: typ,
		Function: functionSpec{
			Name:      c.Name,
			Arguments: &args,
		},
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ToolCall) UnmarshalJSON(data []byte) error {
	var w toolCallWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	c.ID = w.ID
	c.Type = w.Type
	c.Name = w.Function.Name
	if w.Function.Arguments != nil {
		c.Arguments = *w.Function.Arguments
	}
	return nil
}

// ToolSet is an insertion-ordered mapping from tool name to declaration.
// Registering a name that already exists replaces the declaration in place.
// A ToolSet is not safe for concurrent mutation.
type ToolSet struct {
	order  []string
	byName map[string]Tool
}

// NewToolSet creates a ToolSet and registers the given tools in order.
func NewToolSet(tools ...Tool) *ToolSet {
	s := &ToolSet{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		s.Register(t)
	}
	return s
}

// Register inserts tool under tool.Name, overwriting any previous entry.
// The overwritten entry keeps its original position.
func (s *ToolSet) Register(tool Tool) {
	if s.byName == nil {
		s.byName = make(map[string]Tool)
	}
	if _, exists := s.byName[tool.Name]; !exists {
		s.order = append(s.order, tool.Name)
	}
	s.byName[tool.Name] = tool
}

// Get returns the tool registered under name.
func (s *ToolSet) Get(name string) (Tool, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Len returns the number of registered tools.
func (s *ToolSet) Len() int {
	return len(s.order)
}

// List returns the tools in insertion order.
func (s *ToolSet) List() []Tool {
	tools := make([]Tool, 0, len(s.order))
	for _, name := range s.order {
		tools = append(tools, s.byName[name])
	}
	return tools
}

// Names returns the registered tool names in insertion order.
func (s *ToolSet) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}
