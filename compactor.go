package sentinell

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultCompactionSystemPrompt instructs the model to condense raw intelligence.
const DefaultCompactionSystemPrompt = `You are an intelligence analyst. You condense raw search results into short briefings for a supply chain risk team.

GUIDELINES:
- Keep concrete facts: places, magnitudes, companies, expected delays.
- Drop formatting, numbering and filler.
- Never add information that is not in the source text.
- Answer with the briefing only.`

// DefaultCompactionPromptTemplate is the text/template used to build the compaction request.
// It receives CompactionData.
const DefaultCompactionPromptTemplate = `Summarize the following text in at most {{.MaxWords}} words.

{{.Text}}`

// CompactionData is passed to the compaction prompt template.
type CompactionData struct {
	Text     string
	MaxWords int
}

// Compactor shrinks text to a word budget with a model. It opens one session per call and
// is safe for concurrent use.
type Compactor struct {
	client       LLMClient
	systemPrompt string
	tmpl         *template.Template
}

// CompactorOption configures a Compactor.
type CompactorOption func(*Compactor) error

// WithCompactionSystemPrompt replaces the system prompt.
func WithCompactionSystemPrompt(prompt string) CompactorOption {
	return func(c *Compactor) error {
		c.systemPrompt = prompt
		return nil
	}
}

// WithCompactionPromptTemplate replaces the prompt template.
func WithCompactionPromptTemplate(tmpl string) CompactorOption {
	return func(c *Compactor) error {
		t, err := template.New("compaction").Parse(tmpl)
		if err != nil {
			return goerr.Wrap(err, "failed to parse compaction template")
		}
		c.tmpl = t
		return nil
	}
}

// NewCompactor creates a compactor backed by client.
func NewCompactor(client LLMClient, options ...CompactorOption) (*Compactor, error) {
	c := &Compactor{
		client:       client,
		systemPrompt: DefaultCompactionSystemPrompt,
		tmpl:         template.Must(template.New("compaction").Parse(DefaultCompactionPromptTemplate)),
	}
	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Compact returns a summary of text with at most maxWords words. Blank text yields "" without
// calling the model. The model answer is truncated if it overshoots.
func (x *Compactor) Compact(ctx context.Context, text string, maxWords int) (string, error) {
	if maxWords <= 0 {
		return "", goerr.New("maxWords must be positive", goerr.V("max_words", maxWords))
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := x.tmpl.Execute(&buf, CompactionData{Text: text, MaxWords: maxWords}); err != nil {
		return "", goerr.Wrap(err, "failed to execute compaction template")
	}

	ssn, err := x.client.NewSession(ctx, WithSessionSystemPrompt(x.systemPrompt))
	if err != nil {
		return "", goerr.Wrap(fmt.Errorf("%w: %w", ErrModelAccess, err), "failed to create compaction session")
	}

	resp, err := ssn.Send(ctx, Text(buf.String()))
	if err != nil {
		return "", goerr.Wrap(fmt.Errorf("%w: %w", ErrModelAccess, err), "failed to generate summary")
	}
	if resp == nil {
		resp = &Response{}
	}
	summary := strings.TrimSpace(resp.Text())
	if summary == "" {
		return "", goerr.New("no summary text generated")
	}

	words := strings.Fields(summary)
	if len(words) > maxWords {
		LoggerFromContext(ctx).Debug("truncating summary", "words", len(words), "max_words", maxWords)
		summary = strings.Join(words[:maxWords], " ")
	}
	return summary, nil
}
