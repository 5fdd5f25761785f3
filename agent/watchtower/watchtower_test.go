package watchtower_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/agent/watchtower"
	"github.com/m-mizutani/sentinell/cache"
	"github.com/m-mizutani/sentinell/mock"
)

type fakeModel struct {
	mu             sync.Mutex
	analystPrompts []string
	analystTools   [][]string
	analystRuns    atomic.Int32

	compact func(prompt string) (string, error)
	analyst func(turn int, input sentinell.Input) (*sentinell.Response, error)
}

func (f *fakeModel) client() *mock.LLMClientMock {
	return &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...sentinell.SessionOption) (sentinell.Session, error) {
			cfg := sentinell.NewSessionConfig(options...)
			if cfg.SystemPrompt() == sentinell.DefaultCompactionSystemPrompt {
				return &mock.SessionMock{
					SendFunc: func(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
						text, err := f.compact(string(inputs[0].(sentinell.Text)))
						if err != nil {
							return nil, err
						}
						return &sentinell.Response{Parts: []sentinell.Part{sentinell.Text(text)}}, nil
					},
				}, nil
			}

			var names []string
			for _, spec := range cfg.Tools() {
				names = append(names, spec.Name)
			}
			f.mu.Lock()
			f.analystTools = append(f.analystTools, names)
			f.mu.Unlock()
			f.analystRuns.Add(1)

			var turn int
			return &mock.SessionMock{
				SendFunc: func(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
					turn++
					if turn == 1 {
						f.mu.Lock()
						f.analystPrompts = append(f.analystPrompts, string(inputs[0].(sentinell.Text)))
						f.mu.Unlock()
					}
					return f.analyst(turn, inputs[0])
				},
			}, nil
		},
	}
}

func compactByTopic(prompt string) (string, error) {
	if strings.Contains(prompt, "political instability") {
		return "No unrest reported.", nil
	}
	return "Magnitude 7.4 quake; TSMC evacuated.", nil
}

func searchThenAnswer(t *testing.T) func(turn int, input sentinell.Input) (*sentinell.Response, error) {
	return func(turn int, input sentinell.Input) (*sentinell.Response, error) {
		if turn == 1 {
			return &sentinell.Response{Parts: []sentinell.Part{
				sentinell.ToolCall{ID: "s1", Name: "search_news", Args: map[string]any{"query": "Taiwan earthquake"}},
			}}, nil
		}
		result, ok := input.(sentinell.ToolResult)
		gt.True(t, ok)
		gt.True(t, strings.HasPrefix(result.Content, "📰 **News Results for 'Taiwan earthquake':**"))
		return &sentinell.Response{Parts: []sentinell.Part{sentinell.Text("Fabs are evacuated. RISK LEVEL: CRITICAL")}}, nil
	}
}

func TestScanRegion(t *testing.T) {
	model := &fakeModel{compact: compactByTopic, analyst: searchThenAnswer(t)}

	var hooked *sentinell.FanOutReport
	agent, err := watchtower.New(model.client(), watchtower.WithFanOutHook(func(ctx context.Context, report *sentinell.FanOutReport) {
		hooked = report
	}))
	gt.NoError(t, err)

	scan, err := agent.ScanRegion(context.Background(), "Taiwan")
	gt.NoError(t, err)
	gt.Equal(t, scan.Region, "Taiwan")
	gt.Equal(t, scan.Summary, "Fabs are evacuated. RISK LEVEL: CRITICAL")
	gt.False(t, scan.Cached)

	var intel struct {
		Political string `json:"political"`
		Weather   string `json:"weather"`
		Meta      struct {
			ExecutionTime string `json:"execution_time"`
			Mode          string `json:"mode"`
		} `json:"meta"`
	}
	gt.NoError(t, json.Unmarshal(scan.Intelligence, &intel))
	gt.Equal(t, intel.Political, "POLITICAL REPORT: No unrest reported.")
	gt.Equal(t, intel.Weather, "WEATHER REPORT: Magnitude 7.4 quake; TSMC evacuated.")
	gt.Equal(t, intel.Meta.Mode, "PARALLEL")
	gt.True(t, strings.HasSuffix(intel.Meta.ExecutionTime, "s"))

	gt.Equal(t, model.analystPrompts, []string{
		"Assess the current supply chain risk for Taiwan.\n\nIntelligence gathered in parallel:\n" +
			"POLITICAL REPORT: No unrest reported.\n\nWEATHER REPORT: Magnitude 7.4 quake; TSMC evacuated.",
	})
	gt.Equal(t, model.analystTools, [][]string{{"search_news"}})

	gt.NotNil(t, hooked)
	gt.A(t, hooked.Entries).Length(2)
}

func TestScanRegionSubTaskFailure(t *testing.T) {
	model := &fakeModel{
		compact: func(prompt string) (string, error) {
			if strings.Contains(prompt, "weather disaster") {
				return "", errors.New("quota exceeded")
			}
			return "Calm.", nil
		},
		analyst: func(turn int, input sentinell.Input) (*sentinell.Response, error) {
			return &sentinell.Response{Parts: []sentinell.Part{sentinell.Text("RISK LEVEL: MEDIUM")}}, nil
		},
	}
	agent, err := watchtower.New(model.client())
	gt.NoError(t, err)

	scan, err := agent.ScanRegion(context.Background(), "Vietnam")
	gt.NoError(t, err)
	gt.Equal(t, scan.Summary, "RISK LEVEL: MEDIUM")

	var intel map[string]any
	gt.NoError(t, json.Unmarshal(scan.Intelligence, &intel))
	gt.Equal(t, intel["political"], "POLITICAL REPORT: Calm.")
	gt.True(t, strings.HasPrefix(intel["weather"].(string), "Error: weather sub-task failed:"))
	gt.True(t, strings.Contains(model.analystPrompts[0], "Error: weather sub-task failed:"))
}

func TestScanRegionAnalystFailure(t *testing.T) {
	model := &fakeModel{
		compact: compactByTopic,
		analyst: func(turn int, input sentinell.Input) (*sentinell.Response, error) {
			return nil, errors.New("service unavailable")
		},
	}
	agent, err := watchtower.New(model.client())
	gt.NoError(t, err)

	_, err = agent.ScanRegion(context.Background(), "Taiwan")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, sentinell.ErrModelAccess))
}

func TestScanRegionCache(t *testing.T) {
	model := &fakeModel{compact: compactByTopic, analyst: searchThenAnswer(t)}
	agent, err := watchtower.New(model.client(), watchtower.WithCache(cache.NewMemoryStore(), 0))
	gt.NoError(t, err)

	first, err := agent.ScanRegion(context.Background(), "Taiwan")
	gt.NoError(t, err)
	gt.False(t, first.Cached)

	second, err := agent.ScanRegion(context.Background(), " taiwan ")
	gt.NoError(t, err)
	gt.True(t, second.Cached)
	gt.Equal(t, second.Region, " taiwan ")
	gt.Equal(t, second.Summary, first.Summary)
	gt.Equal(t, string(second.Intelligence), string(first.Intelligence))
	gt.Equal(t, model.analystRuns.Load(), int32(1))
}

func TestScanRegionExhaustedNotCached(t *testing.T) {
	model := &fakeModel{
		compact: compactByTopic,
		analyst: func(turn int, input sentinell.Input) (*sentinell.Response, error) {
			return &sentinell.Response{Parts: []sentinell.Part{
				sentinell.ToolCall{ID: "s", Name: "search_news", Args: map[string]any{"query": "Taiwan"}},
			}}, nil
		},
	}
	agent, err := watchtower.New(model.client(),
		watchtower.WithCache(cache.NewMemoryStore(), 0),
		watchtower.WithMaxTurns(1),
	)
	gt.NoError(t, err)

	for range 2 {
		scan, err := agent.ScanRegion(context.Background(), "Taiwan")
		gt.NoError(t, err)
		gt.Equal(t, scan.Summary, watchtower.ExhaustedMessage)
		gt.False(t, scan.Cached)
	}
	gt.Equal(t, model.analystRuns.Load(), int32(2))
}

func TestScanRegionEmpty(t *testing.T) {
	agent, err := watchtower.New(&mock.LLMClientMock{})
	gt.NoError(t, err)
	_, err = agent.ScanRegion(context.Background(), "  ")
	gt.Error(t, err)
}
