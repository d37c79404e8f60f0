package execcontext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lacquerai/excellent/internal/dates"
	"gopkg.in/yaml.v3"
)

// Document is the serialized form of an evaluation context
type Document struct {
	Vars     map[string]interface{} `json:"vars" yaml:"vars" jsonschema:"description=Variables available to expressions. Nested objects are addressed with dotted paths and a '*' key gives an object its default value"`
	Timezone string                 `json:"tz,omitempty" yaml:"tz,omitempty" jsonschema:"description=IANA timezone name used to parse and display datetimes,example=Africa/Kigali"`
	DayFirst *bool                  `json:"day_first,omitempty" yaml:"day_first,omitempty" jsonschema:"description=Whether ambiguous dates are read day first (default true)"`
	Now      string                 `json:"now,omitempty" yaml:"now,omitempty" jsonschema:"description=RFC 3339 instant used as the current time,format=date-time"`
}

// Build turns the document into an evaluation context
func (d *Document) Build() (*EvaluationContext, error) {
	loc := time.UTC
	if d.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(d.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", d.Timezone, err)
		}
	}

	style := dates.DayFirst
	if d.DayFirst != nil && !*d.DayFirst {
		style = dates.MonthFirst
	}

	now := time.Now()
	if d.Now != "" {
		var err error
		if now, err = time.Parse(time.RFC3339, d.Now); err != nil {
			return nil, fmt.Errorf("invalid now %q: %w", d.Now, err)
		}
	}

	return NewEvaluationContext(d.Vars, loc, style, now), nil
}

// FromJSON builds a context from its JSON document form. Numbers without a
// fractional part become integers and all others exact decimals.
func FromJSON(data []byte) (*EvaluationContext, error) {
	doc, err := ParseJSON(data)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// FromYAML builds a context from its YAML document form
func FromYAML(data []byte) (*EvaluationContext, error) {
	doc, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// ParseJSON decodes a context document without building it
func ParseJSON(data []byte) (*Document, error) {
	var doc Document
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse context JSON: %w", err)
	}
	return &doc, nil
}

// ParseYAML decodes a context document without building it
func ParseYAML(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse context YAML: %w", err)
	}
	return &doc, nil
}

// LoadDocument reads a context document, choosing the format by extension
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// LoadFile reads a context document and builds it
func LoadFile(path string) (*EvaluationContext, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// Set assigns value to a dotted path in the document's variables, creating
// intermediate maps as needed
func (d *Document) Set(path string, value interface{}) {
	if d.Vars == nil {
		d.Vars = make(map[string]interface{})
	}

	parts := strings.Split(path, ".")
	current := d.Vars
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			if existing, exists := current[part]; exists {
				next[DefaultKey] = existing
			}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
