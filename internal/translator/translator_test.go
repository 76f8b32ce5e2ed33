package translator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KuperOK/Translate-AI-helper/internal/llm"
	"github.com/KuperOK/Translate-AI-helper/internal/prompt"
	"github.com/KuperOK/Translate-AI-helper/internal/splitter"
)

// echoClient returns the fenced block from the prompt as its answer,
// wrapped in fences like the real model tends to do.
type echoClient struct {
	calls    int
	failAt   int // 1-based call number to fail on, 0 never fails
	wrapped  bool
	received []string
}

func (c *echoClient) Generate(ctx context.Context, promptText string, _ ...llm.GenerateOption) (*llm.Response, error) {
	c.calls++
	if c.failAt > 0 && c.calls == c.failAt {
		return nil, llm.NewLLMError(llm.ErrCodeServerError, "simulated provider failure")
	}

	// Extract the fenced segment text from the rendered prompt.
	parts := strings.Split(promptText, prompt.Fence)
	// rules examples also use fences, so take the last fenced block
	segment := strings.Trim(parts[len(parts)-2], "\n")
	c.received = append(c.received, segment)

	text := segment
	if c.wrapped {
		text = prompt.Fence + "\n" + text + "\n" + prompt.Fence
	}
	return &llm.Response{Text: text, TokenCount: 10, ModelName: "echo"}, nil
}

func (c *echoClient) Chat(ctx context.Context, messages []llm.Message, _ ...llm.GenerateOption) (*llm.Response, error) {
	return c.Generate(ctx, messages[len(messages)-1].Content)
}

func (c *echoClient) Name() string { return "echo" }

func newTestTranslator(t *testing.T, client llm.Client, opts ...Option) *Translator {
	t.Helper()
	builder, err := prompt.NewBuilder(prompt.WithRules("echo rules"))
	require.NoError(t, err)
	return New(client, builder, opts...)
}

func TestTranslatePreservesOrder(t *testing.T) {
	client := &echoClient{}
	tr := newTestTranslator(t, client)

	segments, err := splitter.Partition([]string{"a", "b", "c", "d", "e"}, 2)
	require.NoError(t, err)

	result, err := tr.Translate(context.Background(), segments)
	require.NoError(t, err)

	assert.Equal(t, "a\nb\nc\nd\ne\n", result.Text)
	assert.Equal(t, 2, result.Segments)
	assert.Equal(t, 20, result.Tokens)
	assert.Equal(t, []string{"a\nb\nc", "d\ne"}, client.received)
}

func TestTranslateStripsEchoedFences(t *testing.T) {
	client := &echoClient{wrapped: true}
	tr := newTestTranslator(t, client)

	segments, err := splitter.Partition([]string{"x", "y"}, 1)
	require.NoError(t, err)

	result, err := tr.Translate(context.Background(), segments)
	require.NoError(t, err)
	assert.Equal(t, "x\ny\n", result.Text)
}

func TestTranslateProgress(t *testing.T) {
	client := &echoClient{}
	var ticks []int
	tr := newTestTranslator(t, client, WithProgress(func(done, total int) {
		assert.Equal(t, 3, total)
		ticks = append(ticks, done)
	}))

	segments, err := splitter.Partition([]string{"a", "b", "c"}, 3)
	require.NoError(t, err)

	_, err = tr.Translate(context.Background(), segments)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ticks)
}

func TestTranslateFailureIsAllOrNothing(t *testing.T) {
	client := &echoClient{failAt: 2}
	var ticks int
	tr := newTestTranslator(t, client, WithProgress(func(done, total int) { ticks++ }))

	segments, err := splitter.Partition([]string{"a", "b", "c"}, 3)
	require.NoError(t, err)

	result, err := tr.Translate(context.Background(), segments)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, llm.ErrCodeServerError, llm.ErrorCode(unwrapLLM(err)))
	// the loop stopped at the failure, later segments were never sent
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 1, ticks)
}

// unwrapLLM digs the provider error out of the wrapped loop error.
func unwrapLLM(err error) error {
	for err != nil {
		if _, ok := err.(llm.LLMError); ok {
			return err
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		err = u.Unwrap()
	}
	return err
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"wrapped", "```\nX\n```", "X"},
		{"no fences", "X", "X"},
		{"leading only", "```\nX", "X"},
		{"trailing only", "X\n```", "X"},
		{"strips at most once", "```\n```\nX\n```\n```", "```\nX\n```"},
		{"interior fence untouched", "a\n```\nb", "a\n```\nb"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFences(tc.input))
		})
	}

	t.Run("idempotent on cleaned input", func(t *testing.T) {
		once := StripFences("```\nX\n```")
		assert.Equal(t, once, StripFences(once))
	})
}
