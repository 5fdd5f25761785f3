package sentinell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ModeParallel is the execution mode recorded in every FanOutReport.
const ModeParallel = "PARALLEL"

// SubTask is one independent investigation dispatched by a Supervisor. Run receives the
// supervisor input and typically performs blocking network work.
type SubTask struct {
	Label string
	Run   func(ctx context.Context, input string) (string, error)
}

// SubTaskResult is the outcome of one sub-task. Text always holds something readable: the
// sub-task output, or a failure description when Err is set.
type SubTaskResult struct {
	Label string
	Text  string
	Err   error
}

// Failed reports whether the sub-task failed.
func (r SubTaskResult) Failed() bool {
	return r.Err != nil
}

// SubTaskFailureMessage formats the text entry of a failed sub-task.
func SubTaskFailureMessage(label string, err error) string {
	return fmt.Sprintf("Error: %s sub-task failed: %s", label, err.Error())
}

// FanOutReport joins the results of one supervisor run. Entries are in dispatch order and
// hold exactly one result per sub-task.
type FanOutReport struct {
	Entries []SubTaskResult
	Elapsed time.Duration
	Mode    string
}

// Get returns the entry for label.
func (r *FanOutReport) Get(label string) (SubTaskResult, bool) {
	for _, e := range r.Entries {
		if e.Label == label {
			return e, true
		}
	}
	return SubTaskResult{}, false
}

// Text joins entry texts with blank lines, in dispatch order.
func (r *FanOutReport) Text() string {
	texts := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		texts = append(texts, e.Text)
	}
	return strings.Join(texts, "\n\n")
}

// ExecutionTime renders Elapsed in seconds with two decimals, e.g. "0.12s".
func (r *FanOutReport) ExecutionTime() string {
	return fmt.Sprintf("%.2fs", r.Elapsed.Seconds())
}

// MarshalJSON encodes the report as {"<label>": "<text>", ..., "meta": {...}} keeping dispatch order.
func (r *FanOutReport) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, e := range r.Entries {
		if err := writeJSONField(&buf, e.Label, e.Text); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}

	meta := struct {
		ExecutionTime string `json:"execution_time"`
		Mode          string `json:"mode"`
	}{
		ExecutionTime: r.ExecutionTime(),
		Mode:          r.Mode,
	}
	if err := writeJSONField(&buf, "meta", meta); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONField(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal report key", goerr.V("key", key))
	}
	v, err := json.Marshal(value)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal report value", goerr.V("key", key))
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// Supervisor fans one input out to its sub-tasks, runs them concurrently on a WorkerPool and
// joins the results. A Supervisor holds no per-run state and may run concurrently.
type Supervisor struct {
	pool  *WorkerPool
	tasks []SubTask
}

// NewSupervisor creates a supervisor. Labels must be unique and non-empty.
func NewSupervisor(pool *WorkerPool, tasks ...SubTask) (*Supervisor, error) {
	if len(tasks) == 0 {
		return nil, goerr.Wrap(ErrNoSubTask, "supervisor needs at least one sub-task")
	}

	seen := make(map[string]struct{}, len(tasks))
	for i, task := range tasks {
		if task.Label == "" {
			return nil, goerr.New("sub-task label is empty", goerr.V("index", i))
		}
		if task.Run == nil {
			return nil, goerr.New("sub-task has no run function", goerr.V("label", task.Label))
		}
		if _, ok := seen[task.Label]; ok {
			return nil, goerr.New("duplicate sub-task label", goerr.V("label", task.Label))
		}
		seen[task.Label] = struct{}{}
	}

	if pool == nil {
		pool = NewWorkerPool(len(tasks))
	}

	return &Supervisor{
		pool:  pool,
		tasks: append([]SubTask(nil), tasks...),
	}, nil
}

// Labels returns the sub-task labels in dispatch order.
func (s *Supervisor) Labels() []string {
	labels := make([]string, len(s.tasks))
	for i, task := range s.tasks {
		labels[i] = task.Label
	}
	return labels
}

// Run dispatches all sub-tasks at once and waits for every one of them. A failing or panicking
// sub-task never aborts its siblings; its entry carries the failure text instead.
// If ctx is cancelled, Run stops waiting: sub-tasks already started keep running in the
// background and their entries report the cancellation.
func (s *Supervisor) Run(ctx context.Context, input string) (*FanOutReport, error) {
	logger := LoggerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "fan_out",
		trace.WithAttributes(
			attribute.Int("fan_out.tasks", len(s.tasks)),
			attribute.String("fan_out.mode", ModeParallel),
		),
	)
	defer span.End()

	logger.Info("fanning out sub-tasks", "labels", s.Labels(), "input", input)

	start := time.Now()
	entries := make([]SubTaskResult, len(s.tasks))

	var wg sync.WaitGroup
	for i, task := range s.tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entries[i] = s.runSubTask(ctx, task, input)
		}()
	}
	wg.Wait()

	report := &FanOutReport{
		Entries: entries,
		Elapsed: time.Since(start),
		Mode:    ModeParallel,
	}

	failures := 0
	for _, e := range entries {
		if e.Failed() {
			failures++
		}
	}
	span.SetAttributes(attribute.Int("fan_out.failures", failures))
	logger.Info("fan-out finished", "elapsed", report.ExecutionTime(), "failures", failures)

	return report, nil
}

func (s *Supervisor) runSubTask(ctx context.Context, task SubTask, input string) SubTaskResult {
	ctx, span := tracer.Start(ctx, "sub_task", trace.WithAttributes(attribute.String("sub_task.label", task.Label)))
	defer span.End()

	text, err := Offload(ctx, s.pool, func(ctx context.Context) (string, error) {
		return task.Run(ctx, input)
	})
	if err != nil {
		LoggerFromContext(ctx).Warn("sub-task failed", "label", task.Label, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SubTaskResult{
			Label: task.Label,
			Text:  SubTaskFailureMessage(task.Label, err),
			Err:   err,
		}
	}

	return SubTaskResult{Label: task.Label, Text: text}
}
