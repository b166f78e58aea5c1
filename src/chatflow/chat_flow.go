package chatflow

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"raglayer/src/log"
)

const DefaultMaxContextChunks = 5

// Reasoner generates a completion from a system message and a prompt
type Reasoner interface {
	Reasoning(ctx context.Context, system string, prompt string) (string, error)
}

// ContextChunk is one retrieved piece of grounding text
type ContextChunk struct {
	Source  string
	Content string
	Summary string
}

// Exchange is one prior message of the conversation
type Exchange struct {
	Role    string
	Content string
}

// TemplateData holds the substitution variables available to prompt templates
type TemplateData struct {
	Input   string
	Context string
	History string
}

// Flow renders a prompt template with retrieved context and asks the
// reasoner for an answer
type Flow struct {
	reasoner         Reasoner
	systemTmpl       string
	promptTmpl       string
	maxContextChunks int
}

type Option func(f *Flow)

// WithPromptTemplate overrides the completion prompt template
func WithPromptTemplate(tmpl string) Option {
	return func(f *Flow) {
		if tmpl != "" {
			f.promptTmpl = tmpl
		}
	}
}

// WithSystemMessage overrides the system message template
func WithSystemMessage(tmpl string) Option {
	return func(f *Flow) {
		if tmpl != "" {
			f.systemTmpl = tmpl
		}
	}
}

// WithMaxContextChunks limits how many retrieved chunks enter the prompt
func WithMaxContextChunks(n int) Option {
	return func(f *Flow) {
		if n > 0 {
			f.maxContextChunks = n
		}
	}
}

func New(reasoner Reasoner, opts ...Option) *Flow {
	f := &Flow{
		reasoner:         reasoner,
		systemTmpl:       DefaultSystemMessageTmpl,
		promptTmpl:       DefaultCompletionPromptTmpl,
		maxContextChunks: DefaultMaxContextChunks,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// ValidateTemplate reports whether tmpl parses and executes against
// TemplateData. Used to reject broken templates at configuration time.
func ValidateTemplate(tmpl string) error {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, TemplateData{Input: "x", Context: "y"}); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

// Answer renders the prompt from input, retrieved chunks and history, and
// generates the completion
func (f *Flow) Answer(ctx context.Context, input string, chunks []ContextChunk, history []Exchange) (string, error) {
	if len(chunks) > f.maxContextChunks {
		chunks = chunks[:f.maxContextChunks]
	}

	data := TemplateData{
		Input:   input,
		Context: FormatContext(chunks),
		History: FormatHistory(history),
	}

	system, prompt, err := f.executeTemplates(data)
	if err != nil {
		return "", fmt.Errorf("failed to prepare completion templates: %w", err)
	}

	log.Debug("completion", "system", system, "prompt_length", len(prompt), "chunks", len(chunks))
	answer, err := f.reasoner.Reasoning(ctx, system, prompt)
	if err != nil {
		log.Error(err, "failed to generate completion")
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}

	return answer, nil
}

func (f *Flow) executeTemplates(data TemplateData) (string, string, error) {
	var systemBuf, promptBuf bytes.Buffer

	sysT, err := template.New("system").Parse(f.systemTmpl)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse system template: %w", err)
	}
	if err := sysT.Execute(&systemBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute system template: %w", err)
	}

	prmptT, err := template.New("prompt").Parse(f.promptTmpl)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse prompt template: %w", err)
	}
	if err := prmptT.Execute(&promptBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return systemBuf.String(), promptBuf.String(), nil
}

// FormatContext joins chunks into the context block, one numbered section
// per chunk with its source
func FormatContext(chunks []ContextChunk) string {
	var sb strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] (%s)\n", i+1, chunk.Source)
		if chunk.Summary != "" {
			sb.WriteString(chunk.Summary)
			sb.WriteString("\n")
		}
		sb.WriteString(chunk.Content)
	}
	return sb.String()
}

// FormatHistory renders prior exchanges as "role: content" lines
func FormatHistory(history []Exchange) string {
	var sb strings.Builder
	for i, ex := range history {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s: %s", ex.Role, ex.Content)
	}
	return sb.String()
}
