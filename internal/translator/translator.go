package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KuperOK/Translate-AI-helper/internal/llm"
	"github.com/KuperOK/Translate-AI-helper/internal/prompt"
	"github.com/KuperOK/Translate-AI-helper/internal/splitter"
)

// Artifacts the model sometimes echoes around its answer: the input fence
// plus the adjacent newline. Each is stripped at most once, from the
// matching end only.
const (
	leadingFence  = prompt.Fence + "\n"
	trailingFence = "\n" + prompt.Fence
)

// ProgressFunc receives one tick per completed segment.
type ProgressFunc func(done, total int)

// Result is the outcome of one full translation run.
type Result struct {
	Text     string        // cleaned per-segment responses, in order, each newline-terminated
	Segments int           // number of segments translated
	Tokens   int           // total tokens reported by the provider
	Duration time.Duration // wall-clock time for the whole loop
}

// Translator runs the sequential per-segment translation loop.
// Segments are processed strictly in index order, one blocking completion
// call at a time; the first failure aborts the run with no partial output.
type Translator struct {
	client   llm.Client
	builder  *prompt.Builder
	progress ProgressFunc
	logger   *logrus.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithProgress installs a per-segment progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(t *Translator) { t.progress = fn }
}

// WithLogger replaces the default logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(t *Translator) { t.logger = logger }
}

// New creates a translator over the given completion client.
func New(client llm.Client, builder *prompt.Builder, opts ...Option) *Translator {
	t := &Translator{
		client:  client,
		builder: builder,
		logger:  logrus.New(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate runs the loop over all segments and returns the reassembled
// output. The accumulator always holds exactly the completed segments in
// index order; on error it is discarded and no partial result is returned.
func (t *Translator) Translate(ctx context.Context, segments []splitter.Segment) (*Result, error) {
	start := time.Now()
	total := len(segments)

	var accumulator strings.Builder
	tokens := 0

	for i, segment := range segments {
		instruction, err := t.builder.Build(segment.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to build prompt for segment %d: %w", i, err)
		}

		resp, err := t.client.Generate(ctx, instruction)
		if err != nil {
			t.logger.WithFields(logrus.Fields{
				"segment": i,
				"total":   total,
				"error":   err.Error(),
			}).Error("Segment translation failed")
			return nil, fmt.Errorf("translation failed on segment %d of %d: %w", i+1, total, err)
		}

		accumulator.WriteString(StripFences(resp.Text))
		accumulator.WriteString("\n")
		tokens += resp.TokenCount

		if t.progress != nil {
			t.progress(i+1, total)
		}
	}

	result := &Result{
		Text:     accumulator.String(),
		Segments: total,
		Tokens:   tokens,
		Duration: time.Since(start),
	}

	t.logger.WithFields(logrus.Fields{
		"segments": total,
		"tokens":   tokens,
		"duration": result.Duration.String(),
	}).Info("Translation completed")

	return result, nil
}

// StripFences removes the code-fence wrapper the model occasionally echoes
// back: at most one leading "```\n" and one trailing "\n```". Text without
// fences passes through unchanged, so the operation is idempotent on
// cleaned input.
func StripFences(text string) string {
	text = strings.TrimPrefix(text, leadingFence)
	text = strings.TrimSuffix(text, trailingFence)
	return text
}
