package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/KuperOK/Translate-AI-helper/internal/llm"
)

// The instruction template and the translation rule set are data assets,
// embedded at build time so they can be versioned and tested independently
// of the loop logic that renders them.

//go:embed translate.tmpl
var templateText string

//go:embed rules.txt
var defaultRules string

// Fence is the delimiter that wraps segment text inside the prompt. The
// model occasionally echoes it back around its answer; the translator loop
// strips that artifact.
const Fence = "```"

// slots filled into the instruction template.
type slots struct {
	Rules string
	Text  string
}

// Builder renders the fixed translation instruction for one segment.
type Builder struct {
	tmpl  *template.Template
	rules string
}

// Option configures a Builder.
type Option func(*Builder)

// WithRules replaces the embedded default rule set.
func WithRules(rules string) Option {
	return func(b *Builder) {
		if strings.TrimSpace(rules) != "" {
			b.rules = rules
		}
	}
}

// WithRulesFile loads the rule set from a file. A missing or empty file
// leaves the embedded default in place.
func WithRulesFile(path string) Option {
	return func(b *Builder) {
		if path == "" {
			return
		}
		data, err := os.ReadFile(path)
		if err != nil || len(strings.TrimSpace(string(data))) == 0 {
			return
		}
		b.rules = string(data)
	}
}

// NewBuilder creates a prompt builder with the embedded template.
func NewBuilder(opts ...Option) (*Builder, error) {
	tmpl, err := template.New("translate").Parse(templateText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}

	b := &Builder{
		tmpl:  tmpl,
		rules: defaultRules,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Rules returns the active rule set text.
func (b *Builder) Rules() string {
	return b.rules
}

// Build renders the full instruction for one segment's text.
func (b *Builder) Build(segmentText string) (string, error) {
	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, slots{Rules: b.rules, Text: segmentText}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}

// Messages renders the instruction as a single-turn chat history for
// clients driven through the message-based API.
func (b *Builder) Messages(segmentText string) ([]llm.Message, error) {
	text, err := b.Build(segmentText)
	if err != nil {
		return nil, err
	}
	return []llm.Message{{Role: llm.RoleUser, Content: text}}, nil
}
