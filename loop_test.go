package sentinell_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/mock"
)

func newMockClient(send func(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error)) *mock.LLMClientMock {
	return &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...sentinell.SessionOption) (sentinell.Session, error) {
			return &mock.SessionMock{SendFunc: send}, nil
		},
	}
}

func countingTool(name string, counter *atomic.Int32) sentinell.Tool {
	return sentinell.NewTool(sentinell.ToolSpec{Name: name, Description: "counts calls"},
		func(ctx context.Context, args sentinell.Args) (string, error) {
			n := counter.Add(1)
			return fmt.Sprintf("%s call %d", name, n), nil
		})
}

func TestLoopFinalAnswer(t *testing.T) {
	client := newMockClient(func(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
		return &sentinell.Response{Parts: []sentinell.Part{
			sentinell.Text("Risk level is "),
			sentinell.Text("LOW."),
		}}, nil
	})

	loop := sentinell.NewLoop(client, nil)
	outcome, err := loop.Run(context.Background(), "assess")
	gt.NoError(t, err)
	gt.Equal(t, outcome.Kind, sentinell.OutcomeFinalAnswer)
	gt.Equal(t, outcome.Text, "Risk level is LOW.")
	gt.Equal(t, outcome.Turns, 1)
	gt.A(t, outcome.Conversation.Turns).Length(1)
}

func TestLoopExhausted(t *testing.T) {
	var executed atomic.Int32
	var sent int
	client := newMockClient(func(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
		sent++
		return &sentinell.Response{Parts: []sentinell.Part{
			sentinell.ToolCall{ID: fmt.Sprintf("c%d", sent), Name: "lookup"},
		}}, nil
	})
	reg, err := sentinell.NewToolRegistry(countingTool("lookup", &executed))
	gt.NoError(t, err)

	loop := sentinell.NewLoop(client, reg,
		sentinell.WithMaxTurns(3),
		sentinell.WithExhaustedMessage("Error: Procurement Agent timed out."),
	)
	outcome, err := loop.Run(context.Background(), "buy")
	gt.NoError(t, err)
	gt.True(t, outcome.Exhausted())
	gt.Equal(t, outcome.Text, "Error: Procurement Agent timed out.")
	gt.Equal(t, outcome.Turns, 3)
	gt.Equal(t, sent, 3)
	gt.Equal(t, executed.Load(), int32(3))
}

func TestLoopToolResultFedBack(t *testing.T) {
	var turn int
	client := newMockClient(func(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
		turn++
		switch turn {
		case 1:
			text, ok := inputs[0].(sentinell.Text)
			gt.True(t, ok)
			gt.Equal(t, string(text), "say hi")
			return &sentinell.Response{Parts: []sentinell.Part{
				sentinell.Text("I will call echo."),
				sentinell.ToolCall{ID: "c1", Name: "echo", Args: map[string]any{"message": "hi"}},
			}}, nil
		default:
			result, ok := inputs[0].(sentinell.ToolResult)
			gt.True(t, ok)
			gt.Equal(t, result.ID, "c1")
			gt.Equal(t, result.Content, "hi")
			return &sentinell.Response{Parts: []sentinell.Part{sentinell.Text("done: hi")}}, nil
		}
	})
	reg, err := sentinell.NewToolRegistry(newEchoTool("echo"))
	gt.NoError(t, err)

	var thoughts []string
	var results []sentinell.ToolResult
	loop := sentinell.NewLoop(client, reg,
		sentinell.WithMessageHook(func(ctx context.Context, text string) error {
			thoughts = append(thoughts, text)
			return nil
		}),
		sentinell.WithToolResultHook(func(ctx context.Context, call sentinell.ToolCall, result sentinell.ToolResult) error {
			results = append(results, result)
			return nil
		}),
	)

	outcome, err := loop.Run(context.Background(), "say hi")
	gt.NoError(t, err)
	gt.Equal(t, outcome.Text, "done: hi")
	gt.Equal(t, outcome.Turns, 2)
	gt.Equal(t, thoughts, []string{"I will call echo.", "done: hi"})
	gt.A(t, results).Length(1)
	gt.A(t, outcome.Conversation.Turns).Length(2)
	gt.True(t, outcome.Conversation.Turns[0].Result != nil)
}

func TestLoopFirstToolCallWins(t *testing.T) {
	var first, second atomic.Int32
	var turn int
	client := newMockClient(func(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
		turn++
		if turn == 1 {
			return &sentinell.Response{Parts: []sentinell.Part{
				sentinell.ToolCall{ID: "a", Name: "first"},
				sentinell.ToolCall{ID: "b", Name: "second"},
			}}, nil
		}
		return &sentinell.Response{Parts: []sentinell.Part{sentinell.Text("ok")}}, nil
	})
	reg, err := sentinell.NewToolRegistry(countingTool("first", &first), countingTool("second", &second))
	gt.NoError(t, err)

	outcome, err := sentinell.NewLoop(client, reg).Run(context.Background(), "go")
	gt.NoError(t, err)
	gt.Equal(t, outcome.Kind, sentinell.OutcomeFinalAnswer)
	gt.Equal(t, first.Load(), int32(1))
	gt.Equal(t, second.Load(), int32(0))
}

func TestLoopToolFailureContinues(t *testing.T) {
	var turn int
	client := newMockClient(func(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
		turn++
		if turn == 1 {
			return &sentinell.Response{Parts: []sentinell.Part{
				sentinell.ToolCall{ID: "x", Name: "nonexistent"},
			}}, nil
		}
		result := inputs[0].(sentinell.ToolResult)
		gt.True(t, result.IsError)
		return &sentinell.Response{Parts: []sentinell.Part{sentinell.Text("recovered: " + result.Content)}}, nil
	})

	outcome, err := sentinell.NewLoop(client, nil).Run(context.Background(), "go")
	gt.NoError(t, err)
	gt.Equal(t, outcome.Text, "recovered: Error: Unknown tool 'nonexistent'")
}

func TestLoopModelAccessError(t *testing.T) {
	errAPI := errors.New("quota exceeded")

	t.Run("send failure", func(t *testing.T) {
		client := newMockClient(func(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
			return nil, errAPI
		})
		outcome, err := sentinell.NewLoop(client, nil).Run(context.Background(), "go")
		gt.True(t, outcome == nil)
		gt.True(t, errors.Is(err, sentinell.ErrModelAccess))
		gt.True(t, errors.Is(err, errAPI))
	})

	t.Run("session failure", func(t *testing.T) {
		client := &mock.LLMClientMock{
			NewSessionFunc: func(ctx context.Context, options ...sentinell.SessionOption) (sentinell.Session, error) {
				return nil, errAPI
			},
		}
		_, err := sentinell.NewLoop(client, nil).Run(context.Background(), "go")
		gt.True(t, errors.Is(err, sentinell.ErrModelAccess))
	})
}

func TestLoopSessionOptions(t *testing.T) {
	var cfg sentinell.SessionConfig
	client := &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...sentinell.SessionOption) (sentinell.Session, error) {
			cfg = sentinell.NewSessionConfig(options...)
			return &mock.SessionMock{
				SendFunc: func(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
					return &sentinell.Response{Parts: []sentinell.Part{sentinell.Text("ok")}}, nil
				},
			}, nil
		},
	}
	reg, err := sentinell.NewToolRegistry(newEchoTool("echo"))
	gt.NoError(t, err)

	loop := sentinell.NewLoop(client, reg, sentinell.WithSystemPrompt("You are a procurement manager."))
	_, err = loop.Run(context.Background(), "go")
	gt.NoError(t, err)
	gt.Equal(t, cfg.SystemPrompt(), "You are a procurement manager.")
	gt.A(t, cfg.Tools()).Length(1)
	gt.Equal(t, cfg.Tools()[0].Name, "echo")
}

func TestLoopHooks(t *testing.T) {
	errStop := errors.New("stop")
	client := newMockClient(func(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
		return &sentinell.Response{Parts: []sentinell.Part{sentinell.Text("hello")}}, nil
	})

	t.Run("turn hook aborts", func(t *testing.T) {
		loop := sentinell.NewLoop(client, nil, sentinell.WithTurnHook(func(ctx context.Context, turn int) error {
			return errStop
		}))
		_, err := loop.Run(context.Background(), "go")
		gt.True(t, errors.Is(err, errStop))
	})

	t.Run("outcome hook", func(t *testing.T) {
		var got *sentinell.Outcome
		loop := sentinell.NewLoop(client, nil,
			sentinell.WithLoopName("analyst"),
			sentinell.WithOutcomeHook(func(ctx context.Context, outcome *sentinell.Outcome) {
				got = outcome
			}),
		)
		gt.Equal(t, loop.Name(), "analyst")
		gt.Equal(t, loop.MaxTurns(), sentinell.DefaultMaxTurns)

		outcome, err := loop.Run(context.Background(), "go")
		gt.NoError(t, err)
		gt.True(t, got == outcome)
	})
}
